package client

import (
	"context"
	"log/slog"
	"sync"

	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/observability"
	"github.com/OdenEater/wedding-sns/internal/timeline"
)

// Entry is a post joined with its author's profile. Author is nil when the
// profile could not be loaded.
type Entry struct {
	Post   domain.PostWithCounts
	Author *domain.Profile
}

// postList is the optimistic post state shared by the page controllers.
type postList struct {
	c       *Client
	feed    *timeline.Feed
	mu      sync.Mutex
	authors map[string]domain.Profile

	// reload re-fetches the page after a failed mutation.
	reload func(context.Context) error

	editingID string
	draft     string
	deleteID  string
}

func newPostList(c *Client) *postList {
	return &postList{c: c, feed: timeline.NewFeed(), authors: map[string]domain.Profile{}}
}

// loadAuthors fetches the profiles of the distinct authors of posts.
func (l *postList) loadAuthors(ctx context.Context, posts ...[]domain.PostWithCounts) error {
	seen := map[string]bool{}
	var ids []string
	for _, list := range posts {
		for _, p := range list {
			if !seen[p.UserID] {
				seen[p.UserID] = true
				ids = append(ids, p.UserID)
			}
		}
	}

	profiles, err := l.c.Profiles(ctx, ids)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range profiles {
		l.authors[p.ID] = p
	}
	return nil
}

func (l *postList) entries(posts []domain.PostWithCounts) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(posts))
	for i, p := range posts {
		out[i] = Entry{Post: p}
		if a, ok := l.authors[p.UserID]; ok {
			out[i].Author = &a
		}
	}
	return out
}

func (l *postList) refetch(ctx context.Context) {
	if l.reload == nil {
		return
	}
	if err := l.reload(ctx); err != nil {
		observability.GlobalLogger.Warn("re-fetch failed", slog.Any("error", err))
	}
}

// ToggleLike flips the like at once and confirms with the backend. On
// failure the change is dropped and the page re-fetched.
func (l *postList) ToggleLike(ctx context.Context, postID string) Notice {
	if l.c.store.Get() == nil {
		return failure("auth.loginRequired", nil)
	}
	if _, ok := l.feed.Find(postID); !ok {
		return failure("post.notFound", nil)
	}

	id, liked := l.feed.PushLike(postID)
	var err error
	if liked {
		err = l.c.Like(ctx, postID)
	} else {
		err = l.c.Unlike(ctx, postID)
	}
	if err != nil {
		l.feed.Discard(id)
		l.refetch(ctx)
		return failure("post.likeError", nil)
	}
	l.feed.Commit(id)
	return Notice{}
}

// LikedUsers opens the likers list. A post without likes is not fetched.
func (l *postList) LikedUsers(ctx context.Context, postID string) ([]domain.LikeUser, error) {
	if post, ok := l.feed.Find(postID); ok && post.LikesCount == 0 {
		return []domain.LikeUser{}, nil
	}
	return l.c.LikedUsers(ctx, postID)
}

func (l *postList) isMine(post domain.PostWithCounts) bool {
	s := l.c.store.Get()
	return s != nil && s.User.ID == post.UserID
}

// StartEdit opens the inline editor for one of the user's own posts.
func (l *postList) StartEdit(postID string) bool {
	post, ok := l.feed.Find(postID)
	if !ok || !l.isMine(post) {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.editingID = postID
	l.draft = post.Content
	return true
}

func (l *postList) SetDraft(content string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.draft = content
}

// Editing returns the post being edited and its draft.
func (l *postList) Editing() (postID, draft string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.editingID, l.draft
}

func (l *postList) CancelEdit() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.editingID, l.draft = "", ""
}

// SaveEdit validates the draft, shows it at once and sends the update. On
// failure the editor stays open and the page is re-fetched.
func (l *postList) SaveEdit(ctx context.Context) Notice {
	postID, draft := l.Editing()
	if postID == "" {
		return Notice{}
	}
	if n := contentNotice(draft); !n.IsZero() {
		return n
	}
	content := domain.NormalizeContent(draft)

	id := l.feed.Push(timeline.Edit, postID, content)
	if _, err := l.c.UpdatePost(ctx, postID, content); err != nil {
		l.feed.Discard(id)
		l.refetch(ctx)
		return failure("post.updateError", nil)
	}
	l.feed.Commit(id)
	l.CancelEdit()
	return success("post.updateSuccess")
}

// RequestDelete asks for confirmation before deleting one of the user's posts.
func (l *postList) RequestDelete(postID string) bool {
	post, ok := l.feed.Find(postID)
	if !ok || !l.isMine(post) {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deleteID = postID
	return true
}

// PendingDelete returns the post awaiting confirmation, if any.
func (l *postList) PendingDelete() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.deleteID
}

func (l *postList) CancelDelete() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deleteID = ""
}

// ConfirmDelete removes the post at once and deletes it on the backend.
func (l *postList) ConfirmDelete(ctx context.Context) (string, Notice) {
	l.mu.Lock()
	postID := l.deleteID
	l.deleteID = ""
	l.mu.Unlock()
	if postID == "" {
		return "", Notice{}
	}

	id := l.feed.Push(timeline.Delete, postID, "")
	if err := l.c.DeletePost(ctx, postID); err != nil {
		l.feed.Discard(id)
		l.refetch(ctx)
		return postID, failure("post.deleteError", nil)
	}
	l.feed.Commit(id)
	return postID, success("post.deleteSuccess")
}

// contentNotice is the validation message for content, or a zero Notice.
func contentNotice(content string) Notice {
	if domain.CanSubmit(content) {
		return Notice{}
	}
	if domain.ContentLength(content) == 0 {
		return failure("post.empty", nil)
	}
	return failure("post.tooLong", map[string]any{"max": domain.MaxPostLength})
}
