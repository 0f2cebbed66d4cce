// Package messages holds the localized message catalog and its placeholder formatter.
package messages

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

//go:embed ja.json
var jaJSON []byte

var placeholder = regexp.MustCompile(`\{(\w+)\}`)

// FormatMessage replaces {name} placeholders with params[name].
// A placeholder without a value, or whose value renders empty, is left as is.
func FormatMessage(template string, params map[string]any) string {
	return placeholder.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]
		v, ok := params[key]
		if !ok || v == nil {
			return match
		}
		s := fmt.Sprint(v)
		if s == "" {
			return match
		}
		return s
	})
}

// Catalog is a nested key/value string table, addressed with dotted keys
// such as "post.deleteSuccess".
type Catalog struct {
	raw  []byte
	tree map[string]any
}

// Parse builds a Catalog from JSON.
func Parse(data []byte) (*Catalog, error) {
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse message catalog: %w", err)
	}
	return &Catalog{raw: data, tree: tree}, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded Japanese catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(jaJSON)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Get returns the message at key, or the key itself when it is missing.
func (c *Catalog) Get(key string) string {
	var node any = c.tree
	for _, part := range strings.Split(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return key
		}
		if node, ok = m[part]; !ok {
			return key
		}
	}
	if s, ok := node.(string); ok {
		return s
	}
	return key
}

// Format looks up key and substitutes params into it.
func (c *Catalog) Format(key string, params map[string]any) string {
	return FormatMessage(c.Get(key), params)
}

// JSON returns the catalog as served to clients.
func (c *Catalog) JSON() []byte {
	return c.raw
}
