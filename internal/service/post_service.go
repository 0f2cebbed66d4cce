package service

import (
	"context"
	"fmt"

	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/observability"
	"github.com/OdenEater/wedding-sns/internal/realtime"
	"github.com/google/uuid"
)

type PostStore interface {
	CreatePost(ctx context.Context, postID, userID string, parentID *string, content string) (*domain.Post, error)
	UpdateContent(ctx context.Context, postID, userID, content string) (*domain.Post, error)
	DeletePost(ctx context.Context, postID, userID string) error
}

type FeedStore interface {
	GetTimeline(ctx context.Context, viewerID string, limit int) ([]domain.PostWithCounts, error)
	GetReplies(ctx context.Context, viewerID, parentID string) ([]domain.PostWithCounts, error)
	GetByUser(ctx context.Context, viewerID, userID string) ([]domain.PostWithCounts, error)
	GetByID(ctx context.Context, viewerID, postID string) (*domain.PostWithCounts, error)
}

type LikeStore interface {
	CreateLike(ctx context.Context, postID, userID string) (*domain.Like, error)
	DeleteLike(ctx context.Context, postID, userID string) error
	GetLikers(ctx context.Context, postID string) ([]domain.LikeUser, error)
}

// PostService covers posts, replies and likes. Every successful write is
// announced on the realtime channel.
type PostService struct {
	posts PostStore
	feed  FeedStore
	likes LikeStore
	pub   realtime.Publisher
}

func NewPostService(posts PostStore, feed FeedStore, likes LikeStore, pub realtime.Publisher) *PostService {
	return &PostService{posts: posts, feed: feed, likes: likes, pub: pub}
}

func (s *PostService) Timeline(ctx context.Context, viewerID string) ([]domain.PostWithCounts, error) {
	return s.feed.GetTimeline(ctx, viewerID, domain.TimelineLimit)
}

func (s *PostService) Replies(ctx context.Context, viewerID, parentID string) ([]domain.PostWithCounts, error) {
	return s.feed.GetReplies(ctx, viewerID, parentID)
}

func (s *PostService) ByUser(ctx context.Context, viewerID, userID string) ([]domain.PostWithCounts, error) {
	return s.feed.GetByUser(ctx, viewerID, userID)
}

func (s *PostService) ByID(ctx context.Context, viewerID, postID string) (*domain.PostWithCounts, error) {
	return s.feed.GetByID(ctx, viewerID, postID)
}

// Create inserts a post, or a reply when parentID is set.
func (s *PostService) Create(ctx context.Context, userID, content string, parentID *string) (*domain.Post, error) {
	content, err := ValidateContent(content)
	if err != nil {
		return nil, err
	}

	kind := "post"
	if parentID != nil {
		parent, err := s.feed.GetByID(ctx, userID, *parentID)
		if err != nil {
			return nil, err
		}
		// 返信は1階層まで
		if parent.ParentID != nil {
			return nil, ErrNestedReply
		}
		kind = "reply"
	}

	// UUID v7 を生成（時系列ソート可能）
	postID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate post id: %w", err)
	}

	post, err := s.posts.CreatePost(ctx, postID.String(), userID, parentID, content)
	if err != nil {
		return nil, err
	}

	observability.PostsCreated.WithLabelValues(kind).Inc()
	s.publish(ctx, realtime.TablePosts, realtime.EventInsert)
	return post, nil
}

func (s *PostService) Update(ctx context.Context, userID, postID, content string) (*domain.Post, error) {
	content, err := ValidateContent(content)
	if err != nil {
		return nil, err
	}

	post, err := s.posts.UpdateContent(ctx, postID, userID, content)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, realtime.TablePosts, realtime.EventUpdate)
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, userID, postID string) error {
	if err := s.posts.DeletePost(ctx, postID, userID); err != nil {
		return err
	}
	s.publish(ctx, realtime.TablePosts, realtime.EventDelete)
	return nil
}

func (s *PostService) Like(ctx context.Context, userID, postID string) (*domain.Like, error) {
	like, err := s.likes.CreateLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	observability.LikesToggled.WithLabelValues("like").Inc()
	s.publish(ctx, realtime.TableLikes, realtime.EventInsert)
	return like, nil
}

func (s *PostService) Unlike(ctx context.Context, userID, postID string) error {
	if err := s.likes.DeleteLike(ctx, postID, userID); err != nil {
		return err
	}
	observability.LikesToggled.WithLabelValues("unlike").Inc()
	s.publish(ctx, realtime.TableLikes, realtime.EventDelete)
	return nil
}

// Likers lists who liked postID, newest like first.
func (s *PostService) Likers(ctx context.Context, postID string) ([]domain.LikeUser, error) {
	return s.likes.GetLikers(ctx, postID)
}

func (s *PostService) publish(ctx context.Context, table realtime.Table, typ realtime.EventType) {
	if s.pub != nil {
		s.pub.Publish(ctx, table, typ)
	}
}
