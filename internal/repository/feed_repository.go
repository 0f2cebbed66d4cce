package repository

import (
	"context"
	"errors"

	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/jackc/pgx/v5"
)

// FeedRepository reads the posts_with_counts view.
type FeedRepository struct {
	db DB
}

func NewFeedRepository(db DB) *FeedRepository {
	return &FeedRepository{db: db}
}

// is_liked_by_me は閲覧者ごとに計算する ($1 が NULL なら常に false)
const countsColumns = `
	v.id,
	v.user_id,
	v.parent_id,
	v.content,
	v.created_at,
	v.likes_count,
	v.replies_count,
	EXISTS(SELECT 1 FROM likes l WHERE l.post_id = v.id AND l.user_id = $1) AS is_liked_by_me`

// GetTimeline returns top-level posts, newest first.
func (r *FeedRepository) GetTimeline(ctx context.Context, viewerID string, limit int) ([]domain.PostWithCounts, error) {
	return r.list(ctx, `
		SELECT`+countsColumns+`
		FROM posts_with_counts v
		WHERE v.parent_id IS NULL
		ORDER BY v.created_at DESC, v.id DESC
		LIMIT $2`,
		viewerArg(viewerID), limit)
}

// GetReplies returns the direct replies to parentID, oldest first.
func (r *FeedRepository) GetReplies(ctx context.Context, viewerID, parentID string) ([]domain.PostWithCounts, error) {
	return r.list(ctx, `
		SELECT`+countsColumns+`
		FROM posts_with_counts v
		WHERE v.parent_id = $2
		ORDER BY v.created_at ASC, v.id ASC`,
		viewerArg(viewerID), parentID)
}

// GetByUser returns a user's top-level posts, newest first.
func (r *FeedRepository) GetByUser(ctx context.Context, viewerID, userID string) ([]domain.PostWithCounts, error) {
	return r.list(ctx, `
		SELECT`+countsColumns+`
		FROM posts_with_counts v
		WHERE v.user_id = $2 AND v.parent_id IS NULL
		ORDER BY v.created_at DESC, v.id DESC`,
		viewerArg(viewerID), userID)
}

func (r *FeedRepository) GetByID(ctx context.Context, viewerID, postID string) (*domain.PostWithCounts, error) {
	row := r.db.QueryRow(ctx, `
		SELECT`+countsColumns+`
		FROM posts_with_counts v
		WHERE v.id = $2`,
		viewerArg(viewerID), postID)

	post, err := scanCounts(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPostNotFound
	} else if err != nil {
		return nil, err
	}
	return post, nil
}

func (r *FeedRepository) list(ctx context.Context, query string, args ...any) ([]domain.PostWithCounts, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []domain.PostWithCounts{}
	for rows.Next() {
		post, err := scanCounts(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

func scanCounts(row pgx.Row) (*domain.PostWithCounts, error) {
	var p domain.PostWithCounts
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.ParentID,
		&p.Content,
		&p.CreatedAt,
		&p.LikesCount,
		&p.RepliesCount,
		&p.IsLikedByMe,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
