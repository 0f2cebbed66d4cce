package client

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/realtime"
	"github.com/OdenEater/wedding-sns/internal/session"
)

// PostDetail is the page of one post and its replies.
type PostDetail struct {
	*postList
	id       string
	notFound bool
}

func NewPostDetail(c *Client, postID string) *PostDetail {
	d := &PostDetail{postList: newPostList(c), id: postID}
	d.reload = d.Load
	return d
}

// Load fetches the post and its replies. A missing post is not an error:
// it switches the page to its not-found state.
func (d *PostDetail) Load(ctx context.Context) error {
	post, err := d.c.Post(ctx, d.id)
	if errors.Is(err, ErrNotFound) {
		d.mu.Lock()
		d.notFound = true
		d.mu.Unlock()
		d.feed.SetPosts(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load post: %w", err)
	}

	replies, err := d.c.Replies(ctx, d.id)
	if err != nil {
		return fmt.Errorf("load replies: %w", err)
	}
	posts := []domain.PostWithCounts{*post}
	if err := d.loadAuthors(ctx, posts, replies); err != nil {
		return err
	}

	d.mu.Lock()
	d.notFound = false
	d.mu.Unlock()
	d.feed.SetPosts(posts)
	d.feed.SetReplies(d.id, replies)
	d.feed.Expand(d.id)
	return nil
}

func (d *PostDetail) NotFound() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.notFound
}

// Post returns the main post, false once it is gone.
func (d *PostDetail) Post() (Entry, bool) {
	posts := d.feed.View().Posts
	i := slices.IndexFunc(posts, func(p domain.PostWithCounts) bool { return p.ID == d.id })
	if i < 0 {
		return Entry{}, false
	}
	return d.entries(posts[i : i+1])[0], true
}

func (d *PostDetail) Replies() []Entry {
	return d.entries(d.feed.View().Replies[d.id])
}

// ConfirmDelete deletes the pending post. Deleting the main post returns the
// route to navigate to.
func (d *PostDetail) ConfirmDelete(ctx context.Context) (string, Notice) {
	postID, n := d.postList.ConfirmDelete(ctx)
	if postID == d.id && n.Level == NoticeSuccess {
		return session.RouteHome, n
	}
	return "", n
}

func (d *PostDetail) Watch(ctx context.Context) error {
	return watch(ctx, d.c, d.Load, realtime.TablePosts, realtime.TableLikes)
}
