package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/realtime"
)

// ProfilePage is one user's profile and top-level posts.
type ProfilePage struct {
	*postList
	id       string
	profile  *domain.Profile
	notFound bool
}

func NewProfilePage(c *Client, profileID string) *ProfilePage {
	p := &ProfilePage{postList: newPostList(c), id: profileID}
	p.reload = p.Load
	return p
}

func (p *ProfilePage) Load(ctx context.Context) error {
	profile, err := p.c.Profile(ctx, p.id)
	if errors.Is(err, ErrNotFound) {
		p.mu.Lock()
		p.notFound, p.profile = true, nil
		p.mu.Unlock()
		p.feed.SetPosts(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	posts, err := p.c.PostsByUser(ctx, p.id)
	if err != nil {
		return fmt.Errorf("load posts: %w", err)
	}

	p.mu.Lock()
	p.notFound = false
	p.profile = profile
	p.authors[profile.ID] = *profile
	p.mu.Unlock()
	p.feed.SetPosts(posts)
	return nil
}

func (p *ProfilePage) NotFound() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.notFound
}

// Profile returns a copy of the loaded profile, nil before Load.
func (p *ProfilePage) Profile() *domain.Profile {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.profile == nil {
		return nil
	}
	cp := *p.profile
	return &cp
}

func (p *ProfilePage) Entries() []Entry {
	return p.entries(p.feed.View().Posts)
}

func (p *ProfilePage) PostCount() int {
	return len(p.feed.View().Posts)
}

// CanEdit is true on the signed-in user's own profile.
func (p *ProfilePage) CanEdit() bool {
	s := p.c.store.Get()
	return s != nil && s.User.ID == p.id
}

// Save writes the display name and avatar. The page shows the new values at
// once and reverts them when the backend refuses. A blank username clears it.
func (p *ProfilePage) Save(ctx context.Context, username string, avatarURL *string) Notice {
	if !p.CanEdit() {
		return failure("post.forbidden", nil)
	}

	p.mu.Lock()
	if p.profile == nil {
		p.mu.Unlock()
		return failure("profile.notFound", nil)
	}
	prev := *p.profile
	next := prev
	next.Username = nil
	if name := strings.TrimSpace(username); name != "" {
		next.Username = &name
	}
	next.AvatarURL = avatarURL
	p.profile = &next
	p.authors[next.ID] = next
	p.mu.Unlock()

	updated, err := p.c.UpdateProfile(ctx, p.id, &username, avatarURL)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.profile = &prev
		p.authors[prev.ID] = prev
		if errors.Is(err, ErrBadRequest) {
			return failure("profile.invalidAvatar", nil)
		}
		return failure("profile.updateError", nil)
	}
	p.profile = updated
	p.authors[updated.ID] = *updated
	return success("profile.updateSuccess")
}

func (p *ProfilePage) Watch(ctx context.Context) error {
	return watch(ctx, p.c, p.Load, realtime.TablePosts, realtime.TableLikes)
}
