// Package avatars loads the curated avatar catalog and maps avatars to the
// strings stored in profiles.avatar_url.
package avatars

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/OdenEater/wedding-sns/internal/messages"
)

//go:embed avatars-config.json
var configJSON []byte

const (
	// EmojiPrefix marks an avatar_url that holds an emoji instead of an image path.
	EmojiPrefix = "emoji:"
	imageDir    = "/images/icon/"
)

type Type string

const (
	TypeImage Type = "image"
	TypeEmoji Type = "emoji"
)

type Category string

const (
	CategoryGroom            Category = "groom"
	CategoryBride            Category = "bride"
	CategoryEmojiAnimals     Category = "emojiAnimals"
	CategoryEmojiFaces       Category = "emojiFaces"
	CategoryEmojiCelebration Category = "emojiCelebration"
)

// Categories lists the selector tabs in display order.
var Categories = []Category{
	CategoryGroom,
	CategoryBride,
	CategoryEmojiAnimals,
	CategoryEmojiFaces,
	CategoryEmojiCelebration,
}

var ErrUnknownAvatar = errors.New("unknown avatar")

type Avatar struct {
	ID       string   `json:"id"`
	Type     Type     `json:"type"`
	Value    string   `json:"value"` // image path or the emoji itself
	Label    string   `json:"label"`
	Category Category `json:"category"`
}

// URL returns the avatar_url representation of a.
func (a Avatar) URL() string {
	if a.Type == TypeEmoji {
		return EmojiPrefix + a.Value
	}
	return a.Value
}

type imageEntry struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Label    string `json:"label"`
}

type emojiEntry struct {
	ID    string `json:"id"`
	Emoji string `json:"emoji"`
	Label string `json:"label"`
}

type config struct {
	GroomAvatars     []imageEntry `json:"groomAvatars"`
	BrideAvatars     []imageEntry `json:"brideAvatars"`
	EmojiAnimals     []emojiEntry `json:"emojiAnimals"`
	EmojiFaces       []emojiEntry `json:"emojiFaces"`
	EmojiCelebration []emojiEntry `json:"emojiCelebration"`
}

type Catalog struct {
	byCategory map[Category][]Avatar
	all        []Avatar
}

// Parse builds a Catalog from the avatars-config.json format.
func Parse(data []byte) (*Catalog, error) {
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse avatar catalog: %w", err)
	}

	c := &Catalog{byCategory: make(map[Category][]Avatar, len(Categories))}
	c.addImages(CategoryGroom, cfg.GroomAvatars)
	c.addImages(CategoryBride, cfg.BrideAvatars)
	c.addEmoji(CategoryEmojiAnimals, cfg.EmojiAnimals)
	c.addEmoji(CategoryEmojiFaces, cfg.EmojiFaces)
	c.addEmoji(CategoryEmojiCelebration, cfg.EmojiCelebration)

	for _, cat := range Categories {
		c.all = append(c.all, c.byCategory[cat]...)
	}
	return c, nil
}

func (c *Catalog) addImages(cat Category, entries []imageEntry) {
	for _, e := range entries {
		c.byCategory[cat] = append(c.byCategory[cat], Avatar{
			ID:       e.ID,
			Type:     TypeImage,
			Value:    imageDir + e.Filename,
			Label:    e.Label,
			Category: cat,
		})
	}
}

func (c *Catalog) addEmoji(cat Category, entries []emojiEntry) {
	for _, e := range entries {
		c.byCategory[cat] = append(c.byCategory[cat], Avatar{
			ID:       e.ID,
			Type:     TypeEmoji,
			Value:    e.Emoji,
			Label:    e.Label,
			Category: cat,
		})
	}
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(configJSON)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

func (c *Catalog) All() []Avatar {
	return c.all
}

func (c *Catalog) ByCategory(cat Category) []Avatar {
	return c.byCategory[cat]
}

// Find looks an avatar up by id.
func (c *Catalog) Find(id string) (Avatar, bool) {
	for _, a := range c.all {
		if a.ID == id {
			return a, true
		}
	}
	return Avatar{}, false
}

// AvatarURL returns the avatar_url for id, or "" when id is empty or unknown.
func (c *Catalog) AvatarURL(id string) string {
	if id == "" {
		return ""
	}
	a, ok := c.Find(id)
	if !ok {
		return ""
	}
	return a.URL()
}

// FindByURL is the reverse of AvatarURL.
func (c *Catalog) FindByURL(url string) (Avatar, bool) {
	if url == "" {
		return Avatar{}, false
	}
	for _, a := range c.all {
		if a.URL() == url {
			return a, true
		}
	}
	return Avatar{}, false
}

// Validate accepts nil (no avatar) and any URL the catalog produces.
func (c *Catalog) Validate(url *string) error {
	if url == nil {
		return nil
	}
	if _, ok := c.FindByURL(*url); !ok {
		return ErrUnknownAvatar
	}
	return nil
}

// Emoji extracts the emoji from an emoji-encoded avatar_url.
func Emoji(url string) (string, bool) {
	return strings.CutPrefix(url, EmojiPrefix)
}

// Group is one tab of the avatar selector.
type Group struct {
	Category Category `json:"category"`
	Label    string   `json:"label"`
	Avatars  []Avatar `json:"avatars"`
}

// Groups returns the selector tabs with localized labels. The image
// categories are labelled with the couple's display names.
func (c *Catalog) Groups(msg *messages.Catalog, groomName, brideName string) []Group {
	labels := map[Category]string{
		CategoryGroom:            msg.Format("avatar.groomCategory", map[string]any{"name": groomName}),
		CategoryBride:            msg.Format("avatar.brideCategory", map[string]any{"name": brideName}),
		CategoryEmojiAnimals:     msg.Get("avatar.emojiAnimals"),
		CategoryEmojiFaces:       msg.Get("avatar.emojiFaces"),
		CategoryEmojiCelebration: msg.Get("avatar.emojiCelebration"),
	}

	groups := make([]Group, 0, len(Categories))
	for _, cat := range Categories {
		groups = append(groups, Group{
			Category: cat,
			Label:    labels[cat],
			Avatars:  c.byCategory[cat],
		})
	}
	return groups
}
