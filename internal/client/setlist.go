package client

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/realtime"
)

// SetlistView is the reception setlist. Guests get masked items for songs
// not yet public.
type SetlistView struct {
	c     *Client
	mu    sync.Mutex
	items []domain.SetlistItem
}

func NewSetlistView(c *Client) *SetlistView {
	return &SetlistView{c: c}
}

func (v *SetlistView) Load(ctx context.Context) error {
	items, err := v.c.Setlist(ctx)
	if err != nil {
		return fmt.Errorf("load setlist: %w", err)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.items = items
	return nil
}

func (v *SetlistView) Items() []domain.SetlistItem {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.items)
}

// ComingSoon reports whether item is shown as a placeholder.
func ComingSoon(item domain.SetlistItem) bool {
	return !item.IsPublic
}

// CanManage is true for the admin account.
func (v *SetlistView) CanManage() bool {
	s := v.c.store.Get()
	return s != nil && s.User.IsAdmin
}

// SetPublic publishes or hides one song. Only the admin may do it.
func (v *SetlistView) SetPublic(ctx context.Context, id string, isPublic bool) Notice {
	if !v.CanManage() {
		return failure("setlist.forbidden", nil)
	}
	item, err := v.c.SetSetlistPublic(ctx, id, isPublic)
	if err != nil {
		return failure("setlist.updateError", nil)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if i := slices.IndexFunc(v.items, func(it domain.SetlistItem) bool { return it.ID == id }); i >= 0 {
		v.items[i] = *item
	}
	return Notice{}
}

func (v *SetlistView) Watch(ctx context.Context) error {
	return watch(ctx, v.c, v.Load, realtime.TableSetlist)
}
