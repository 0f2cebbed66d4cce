package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/messages"
	"github.com/OdenEater/wedding-sns/internal/observability"
	"github.com/OdenEater/wedding-sns/internal/realtime"
)

// Feed is the timeline page: the latest top-level posts with their authors,
// the reply threads the user opened and the setlist.
type Feed struct {
	*postList
	Setlist *SetlistView
}

func NewFeed(c *Client) *Feed {
	f := &Feed{postList: newPostList(c), Setlist: NewSetlistView(c)}
	f.reload = f.Load
	return f
}

// Load re-fetches the timeline, every cached reply thread, the authors and
// the setlist. A failing setlist keeps its previous items and does not
// stop the timeline.
func (f *Feed) Load(ctx context.Context) error {
	if err := f.Setlist.Load(ctx); err != nil {
		observability.GlobalLogger.Warn("setlist load failed", slog.Any("error", err))
	}
	posts, err := f.c.Timeline(ctx)
	if err != nil {
		return fmt.Errorf("load timeline: %w", err)
	}
	f.feed.SetPosts(posts)

	lists := [][]domain.PostWithCounts{posts}
	for _, parentID := range f.feed.CachedParents() {
		replies, err := f.c.Replies(ctx, parentID)
		switch {
		case errors.Is(err, ErrNotFound):
			replies = []domain.PostWithCounts{}
		case err != nil:
			return fmt.Errorf("load replies of %s: %w", parentID, err)
		}
		f.feed.SetReplies(parentID, replies)
		lists = append(lists, replies)
	}
	return f.loadAuthors(ctx, lists...)
}

func (f *Feed) Entries() []Entry {
	return f.entries(f.feed.View().Posts)
}

// Replies returns the cached replies of parentID, oldest first.
func (f *Feed) Replies(parentID string) []Entry {
	return f.entries(f.feed.View().Replies[parentID])
}

func (f *Feed) Empty() bool {
	return f.feed.Empty()
}

// EmptyMessage is the text shown in place of an empty timeline.
func (f *Feed) EmptyMessage() string {
	return messages.Default().Get("timeline.noPosts")
}

// ExpandReplies opens the thread of parentID. Replies are fetched on the
// first expand only.
func (f *Feed) ExpandReplies(ctx context.Context, parentID string) error {
	if !f.feed.CachedReplies(parentID) {
		replies, err := f.c.Replies(ctx, parentID)
		if err != nil {
			return fmt.Errorf("load replies of %s: %w", parentID, err)
		}
		if err := f.loadAuthors(ctx, replies); err != nil {
			return err
		}
		f.feed.SetReplies(parentID, replies)
	}
	f.feed.Expand(parentID)
	return nil
}

func (f *Feed) CollapseReplies(parentID string) {
	f.feed.Collapse(parentID)
}

func (f *Feed) Expanded(parentID string) bool {
	return f.feed.Expanded(parentID)
}

// Watch re-fetches on every change until ctx is cancelled.
func (f *Feed) Watch(ctx context.Context) error {
	return watch(ctx, f.c, f.Load, realtime.TablePosts, realtime.TableLikes, realtime.TableSetlist)
}
