package repository

import (
	"context"
	"errors"

	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/observability"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
)

type PostRepository struct {
	db  DB
	log *observability.RepoLogger
}

func NewPostRepository(db DB) *PostRepository {
	return &PostRepository{db: db, log: observability.NewRepoLogger("posts")}
}

// CreatePost inserts a top-level post, or a reply when parentID is set.
func (r *PostRepository) CreatePost(ctx context.Context, postID, userID string, parentID *string, content string) (*domain.Post, error) {
	var post domain.Post
	err := r.db.QueryRow(ctx,
		`INSERT INTO posts (id, user_id, parent_id, content) VALUES ($1, $2, $3, $4)
		 RETURNING id, user_id, parent_id, content, created_at, updated_at`,
		postID, userID, parentID, content,
	).Scan(&post.ID, &post.UserID, &post.ParentID, &post.Content, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		// 返信先が存在しない
		if hasPgCode(err, pgerrcode.ForeignKeyViolation) {
			return nil, ErrPostNotFound
		}
		r.log.LogError(ctx, "create", err, "user_id", userID)
		return nil, err
	}

	r.log.LogWrite(ctx, "create", "id", post.ID, "user_id", userID)
	return &post, nil
}

// UpdateContent is scoped by id and author; a post owned by someone else looks missing.
func (r *PostRepository) UpdateContent(ctx context.Context, postID, userID, content string) (*domain.Post, error) {
	var post domain.Post
	err := r.db.QueryRow(ctx,
		`UPDATE posts SET content = $3, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, parent_id, content, created_at, updated_at`,
		postID, userID, content,
	).Scan(&post.ID, &post.UserID, &post.ParentID, &post.Content, &post.CreatedAt, &post.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPostNotFound
	} else if err != nil {
		r.log.LogError(ctx, "update", err, "id", postID)
		return nil, err
	}

	r.log.LogWrite(ctx, "update", "id", postID)
	return &post, nil
}

// DeletePost is scoped by id and author.
func (r *PostRepository) DeletePost(ctx context.Context, postID, userID string) error {
	tag, err := r.db.Exec(ctx,
		"DELETE FROM posts WHERE id = $1 AND user_id = $2",
		postID, userID,
	)
	if err != nil {
		r.log.LogError(ctx, "delete", err, "id", postID)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}

	r.log.LogWrite(ctx, "delete", "id", postID)
	return nil
}
