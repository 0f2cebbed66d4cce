// Package timeline derives what the feed shows from the last server
// snapshot and the user's pending optimistic intents.
package timeline

import (
	"slices"

	"github.com/OdenEater/wedding-sns/internal/domain"
)

type IntentKind int

const (
	// LikeToggle sets is_liked_by_me to Intent.Liked and moves likes_count
	// by one when that changes it.
	LikeToggle IntentKind = iota
	// Edit replaces the content.
	Edit
	// Delete hides the post.
	Delete
)

// Intent is one optimistic change waiting for the backend.
type Intent struct {
	ID      uint64
	Kind    IntentKind
	PostID  string
	Content string
	// Liked is the target state of a LikeToggle. A snapshot that already
	// has it is left alone.
	Liked bool
}

// Snapshot is the feed as returned by the backend: top-level posts plus
// the reply lists fetched so far, keyed by parent id.
type Snapshot struct {
	Posts   []domain.PostWithCounts
	Replies map[string][]domain.PostWithCounts
}

// Reduce applies intents in order on a copy of s. s is never modified.
func Reduce(s Snapshot, intents []Intent) Snapshot {
	out := Snapshot{
		Posts:   slices.Clone(s.Posts),
		Replies: make(map[string][]domain.PostWithCounts, len(s.Replies)),
	}
	for parentID, replies := range s.Replies {
		out.Replies[parentID] = slices.Clone(replies)
	}

	for _, in := range intents {
		out = apply(out, in)
	}
	return out
}

func apply(s Snapshot, in Intent) Snapshot {
	switch in.Kind {
	case Delete:
		s.Posts = slices.DeleteFunc(s.Posts, func(p domain.PostWithCounts) bool { return p.ID == in.PostID })
		for parentID, replies := range s.Replies {
			n := len(replies)
			replies = slices.DeleteFunc(replies, func(p domain.PostWithCounts) bool { return p.ID == in.PostID })
			if len(replies) < n {
				decrementReplies(s.Posts, parentID)
			}
			s.Replies[parentID] = replies
		}
	default:
		update := func(p *domain.PostWithCounts) {
			if p.ID != in.PostID {
				return
			}
			switch in.Kind {
			case LikeToggle:
				setLike(p, in.Liked)
			case Edit:
				p.Content = in.Content
			}
		}
		for i := range s.Posts {
			update(&s.Posts[i])
		}
		for _, replies := range s.Replies {
			for i := range replies {
				update(&replies[i])
			}
		}
	}
	return s
}

func setLike(p *domain.PostWithCounts, liked bool) {
	if p.IsLikedByMe == liked {
		return
	}
	p.IsLikedByMe = liked
	if liked {
		p.LikesCount++
	} else if p.LikesCount > 0 {
		p.LikesCount--
	}
}

func decrementReplies(posts []domain.PostWithCounts, parentID string) {
	for i := range posts {
		if posts[i].ID == parentID && posts[i].RepliesCount > 0 {
			posts[i].RepliesCount--
		}
	}
}
