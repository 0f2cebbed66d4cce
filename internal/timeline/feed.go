package timeline

import (
	"slices"
	"sync"

	"github.com/OdenEater/wedding-sns/internal/domain"
)

// Feed holds the server snapshot, the pending intents and the set of
// expanded reply threads. It is safe for concurrent use.
type Feed struct {
	mu       sync.Mutex
	server   Snapshot
	pending  []Intent
	expanded map[string]bool
	nextID   uint64
}

func NewFeed() *Feed {
	return &Feed{
		server:   Snapshot{Replies: map[string][]domain.PostWithCounts{}},
		expanded: map[string]bool{},
	}
}

// SetPosts replaces the top-level posts with a fresh fetch. Pending
// intents stay applied on top.
func (f *Feed) SetPosts(posts []domain.PostWithCounts) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.server.Posts = slices.Clone(posts)
}

// SetReplies caches the replies of parentID.
func (f *Feed) SetReplies(parentID string, replies []domain.PostWithCounts) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.server.Replies[parentID] = slices.Clone(replies)
}

// CachedReplies reports whether replies of parentID were fetched already.
func (f *Feed) CachedReplies(parentID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.server.Replies[parentID]
	return ok
}

// CachedParents lists the parent ids whose replies are cached.
func (f *Feed) CachedParents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.server.Replies))
	for id := range f.server.Replies {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (f *Feed) Expand(parentID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expanded[parentID] = true
}

func (f *Feed) Collapse(parentID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.expanded, parentID)
}

func (f *Feed) Expanded(parentID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.expanded[parentID]
}

// Push records an optimistic intent and returns its id. A LikeToggle
// targets the opposite of what the view shows now.
func (f *Feed) Push(kind IntentKind, postID, content string) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	in := Intent{Kind: kind, PostID: postID, Content: content}
	if kind == LikeToggle {
		in.Liked = !f.likedLocked(postID)
	}
	return f.pushLocked(in)
}

// PushLike records a LikeToggle and returns its id with the target state:
// true means the backend must be sent a like, false an unlike.
func (f *Feed) PushLike(postID string) (uint64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	liked := !f.likedLocked(postID)
	return f.pushLocked(Intent{Kind: LikeToggle, PostID: postID, Liked: liked}), liked
}

func (f *Feed) pushLocked(in Intent) uint64 {
	f.nextID++
	in.ID = f.nextID
	f.pending = append(f.pending, in)
	return in.ID
}

func (f *Feed) likedLocked(postID string) bool {
	v := Reduce(f.server, f.pending)
	for _, p := range v.Posts {
		if p.ID == postID {
			return p.IsLikedByMe
		}
	}
	for _, replies := range v.Replies {
		for _, p := range replies {
			if p.ID == postID {
				return p.IsLikedByMe
			}
		}
	}
	return false
}

// Commit folds a confirmed intent into the server snapshot. Intents carry
// target states, so a refetch that already reflects one makes the fold a
// no-op.
func (f *Feed) Commit(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, in := range f.pending {
		if in.ID == id {
			f.server = Reduce(f.server, []Intent{in})
			f.pending = slices.Delete(f.pending, i, i+1)
			return
		}
	}
}

// Discard drops a failed intent.
func (f *Feed) Discard(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = slices.DeleteFunc(f.pending, func(in Intent) bool { return in.ID == id })
}

func (f *Feed) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// View is the snapshot with every pending intent applied.
func (f *Feed) View() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Reduce(f.server, f.pending)
}

// Find returns a post from the current view, top-level or reply.
func (f *Feed) Find(postID string) (domain.PostWithCounts, bool) {
	v := f.View()
	if i := slices.IndexFunc(v.Posts, func(p domain.PostWithCounts) bool { return p.ID == postID }); i >= 0 {
		return v.Posts[i], true
	}
	for _, replies := range v.Replies {
		if i := slices.IndexFunc(replies, func(p domain.PostWithCounts) bool { return p.ID == postID }); i >= 0 {
			return replies[i], true
		}
	}
	return domain.PostWithCounts{}, false
}

// Empty reports the empty state: no top-level posts to show.
func (f *Feed) Empty() bool {
	return len(f.View().Posts) == 0
}
