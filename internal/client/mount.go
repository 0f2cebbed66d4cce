package client

import (
	"context"
	"errors"
	"log/slog"

	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/observability"
	"github.com/OdenEater/wedding-sns/internal/session"
)

// Mount resolves the session for route and runs the gate. A failed session
// fetch counts as no session.
func (c *Client) Mount(ctx context.Context, gate session.Gate, route string) session.Decision {
	var profile *domain.Profile
	if c.store.Token() != "" {
		user, err := c.CurrentUser(ctx)
		if err == nil {
			profile, err = c.Profile(ctx, user.ID)
			if err != nil && !errors.Is(err, ErrNotFound) {
				observability.GlobalLogger.Warn("load own profile failed", slog.Any("error", err))
			}
		}
	}
	return gate.Check(route, c.store.Get(), profile)
}

// OnSignOut runs the gate for the page returned by route whenever the
// session is cleared and calls fn with the decision. A page guests may
// read stays put, so fn gets an allowed decision there.
func (c *Client) OnSignOut(gate session.Gate, route func() string, fn func(session.Decision)) (unsubscribe func()) {
	return c.store.Subscribe(func(s *session.Session) {
		if s == nil {
			fn(gate.Check(route(), nil, nil))
		}
	})
}
