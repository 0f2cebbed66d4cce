package repository

import (
	"context"

	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/observability"
	"github.com/jackc/pgerrcode"
)

type LikeRepository struct {
	db  DB
	log *observability.RepoLogger
}

func NewLikeRepository(db DB) *LikeRepository {
	return &LikeRepository{db: db, log: observability.NewRepoLogger("likes")}
}

func (r *LikeRepository) CreateLike(ctx context.Context, postID, userID string) (*domain.Like, error) {
	var like domain.Like
	err := r.db.QueryRow(ctx,
		"INSERT INTO likes (post_id, user_id) VALUES ($1, $2) RETURNING post_id, user_id, created_at",
		postID, userID,
	).Scan(&like.PostID, &like.UserID, &like.CreatedAt)
	if err != nil {
		switch {
		case hasPgCode(err, pgerrcode.UniqueViolation):
			return nil, ErrAlreadyLiked
		case hasPgCode(err, pgerrcode.ForeignKeyViolation):
			return nil, ErrPostNotFound
		}
		r.log.LogError(ctx, "create", err, "post_id", postID)
		return nil, err
	}

	return &like, nil
}

func (r *LikeRepository) DeleteLike(ctx context.Context, postID, userID string) error {
	tag, err := r.db.Exec(ctx,
		"DELETE FROM likes WHERE post_id = $1 AND user_id = $2",
		postID, userID,
	)
	if err != nil {
		r.log.LogError(ctx, "delete", err, "post_id", postID)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotLiked
	}
	return nil
}

// GetLikers returns the users who liked postID, newest like first.
func (r *LikeRepository) GetLikers(ctx context.Context, postID string) ([]domain.LikeUser, error) {
	rows, err := r.db.Query(ctx,
		`SELECT l.user_id, p.username, p.avatar_url, l.created_at
		 FROM likes l
		 LEFT JOIN profiles p ON p.id = l.user_id
		 WHERE l.post_id = $1
		 ORDER BY l.created_at DESC`,
		postID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.LikeUser{}
	for rows.Next() {
		var u domain.LikeUser
		if err := rows.Scan(&u.UserID, &u.Username, &u.AvatarURL, &u.LikedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}
