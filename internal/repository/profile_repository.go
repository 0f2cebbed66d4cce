package repository

import (
	"context"
	"errors"

	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/observability"
	"github.com/jackc/pgx/v5"
)

const profileColumns = "id, username, avatar_url, onboarding_completed, created_at, updated_at"

type ProfileRepository struct {
	db  DB
	log *observability.RepoLogger
}

func NewProfileRepository(db DB) *ProfileRepository {
	return &ProfileRepository{db: db, log: observability.NewRepoLogger("profiles")}
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	} else if err != nil {
		return nil, err
	}
	return p, nil
}

// ListByIDs returns the profiles that exist among ids, in no particular order.
func (r *ProfileRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Profile, error) {
	if len(ids) == 0 {
		return []domain.Profile{}, nil
	}

	rows, err := r.db.Query(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE id = ANY($1::uuid[])", ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := []domain.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Update writes both username and avatar_url; nil clears the column.
func (r *ProfileRepository) Update(ctx context.Context, id string, username, avatarURL *string) (*domain.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx,
		`UPDATE profiles SET username = $2, avatar_url = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+profileColumns,
		id, username, avatarURL))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	} else if err != nil {
		r.log.LogError(ctx, "update", err, "id", id)
		return nil, err
	}

	r.log.LogWrite(ctx, "update", "id", id)
	return p, nil
}

// CompleteOnboarding sets onboarding_completed and overwrites only the non-nil fields.
func (r *ProfileRepository) CompleteOnboarding(ctx context.Context, id string, username, avatarURL *string) (*domain.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx,
		`UPDATE profiles SET
		     username = COALESCE($2, username),
		     avatar_url = COALESCE($3, avatar_url),
		     onboarding_completed = TRUE,
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+profileColumns,
		id, username, avatarURL))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	} else if err != nil {
		r.log.LogError(ctx, "complete_onboarding", err, "id", id)
		return nil, err
	}

	r.log.LogWrite(ctx, "complete_onboarding", "id", id)
	return p, nil
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(&p.ID, &p.Username, &p.AvatarURL, &p.OnboardingCompleted, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
