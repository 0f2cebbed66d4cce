package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/messages"
	"github.com/OdenEater/wedding-sns/internal/session"
)

// Composer is the new post page. With a reply target it writes a reply.
type Composer struct {
	c       *Client
	replyTo string

	mu     sync.Mutex
	draft  string
	target *Entry
}

func NewComposer(c *Client, replyTo string) *Composer {
	return &Composer{c: c, replyTo: replyTo}
}

func (m *Composer) ReplyTo() string {
	return m.replyTo
}

// LoadTarget fetches the post being replied to, for display above the draft.
func (m *Composer) LoadTarget(ctx context.Context) error {
	if m.replyTo == "" {
		return nil
	}
	post, err := m.c.Post(ctx, m.replyTo)
	if err != nil {
		return fmt.Errorf("load reply target: %w", err)
	}
	entry := Entry{Post: *post}
	if author, err := m.c.Profile(ctx, post.UserID); err == nil {
		entry.Author = author
	}
	m.mu.Lock()
	m.target = &entry
	m.mu.Unlock()
	return nil
}

func (m *Composer) Target() *Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.target
}

func (m *Composer) Draft() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

func (m *Composer) SetDraft(content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft = content
}

func (m *Composer) CanSubmit() bool {
	return domain.CanSubmit(m.Draft())
}

// Counter is the "n / 140" label under the draft.
func (m *Composer) Counter() string {
	return messages.Default().Format("post.charCount", map[string]any{
		"count": domain.ContentLength(m.Draft()),
		"max":   domain.MaxPostLength,
	})
}

// Submit creates the post and returns the route to navigate to. The draft
// is kept when it fails.
func (m *Composer) Submit(ctx context.Context) (string, Notice) {
	if m.c.store.Get() == nil {
		return session.RouteLogin, failure("auth.loginRequired", nil)
	}
	draft := m.Draft()
	if n := contentNotice(draft); !n.IsZero() {
		return "", n
	}

	var parentID *string
	if m.replyTo != "" {
		parentID = &m.replyTo
	}
	if _, err := m.c.CreatePost(ctx, domain.NormalizeContent(draft), parentID); err != nil {
		return "", failure("post.createError", nil)
	}

	m.SetDraft("")
	return session.RouteHome, success("post.createSuccess")
}
