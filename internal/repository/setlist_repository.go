package repository

import (
	"context"
	"errors"

	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/observability"
	"github.com/jackc/pgx/v5"
)

const setlistColumns = "id, order_num, title, artist, scene, comment, is_public, created_at, updated_at"

type SetlistRepository struct {
	db  DB
	log *observability.RepoLogger
}

func NewSetlistRepository(db DB) *SetlistRepository {
	return &SetlistRepository{db: db, log: observability.NewRepoLogger("setlist")}
}

func (r *SetlistRepository) List(ctx context.Context) ([]domain.SetlistItem, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+setlistColumns+" FROM setlist ORDER BY order_num ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.SetlistItem{}
	for rows.Next() {
		item, err := scanSetlistItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *SetlistRepository) SetPublic(ctx context.Context, id string, isPublic bool) (*domain.SetlistItem, error) {
	item, err := scanSetlistItem(r.db.QueryRow(ctx,
		`UPDATE setlist SET is_public = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING `+setlistColumns,
		id, isPublic))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSetlistItemNotFound
	} else if err != nil {
		r.log.LogError(ctx, "set_public", err, "id", id)
		return nil, err
	}

	r.log.LogWrite(ctx, "set_public", "id", id, "is_public", isPublic)
	return item, nil
}

// Insert adds a seeded item. The client never creates setlist rows.
func (r *SetlistRepository) Insert(ctx context.Context, item domain.SetlistItem) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO setlist (id, order_num, title, artist, scene, comment, is_public)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO NOTHING`,
		item.ID, item.OrderNum, item.Title, item.Artist, item.Scene, item.Comment, item.IsPublic,
	)
	return err
}

func scanSetlistItem(row pgx.Row) (*domain.SetlistItem, error) {
	var s domain.SetlistItem
	err := row.Scan(&s.ID, &s.OrderNum, &s.Title, &s.Artist, &s.Scene, &s.Comment, &s.IsPublic, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
