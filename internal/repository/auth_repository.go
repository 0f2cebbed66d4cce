package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/observability"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
)

type AuthRepository struct {
	db  DB
	log *observability.RepoLogger
}

func NewAuthRepository(db DB) *AuthRepository {
	return &AuthRepository{db: db, log: observability.NewRepoLogger("user_auth")}
}

// CreateUser inserts the profile row and its credentials in one transaction.
// password may be empty for OAuth-only accounts.
func (r *AuthRepository) CreateUser(ctx context.Context, userID, email, password, provider string) (*domain.UserAuth, error) {
	var hashed *string
	if password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		s := string(h)
		hashed = &s
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// プロフィール作成
	if _, err := tx.Exec(ctx, "INSERT INTO profiles (id) VALUES ($1)", userID); err != nil {
		return nil, err
	}

	// 認証情報作成
	var ua domain.UserAuth
	err = tx.QueryRow(ctx,
		`INSERT INTO user_auth (user_id, email, hashed_password, provider)
		 VALUES ($1, $2, $3, $4)
		 RETURNING user_id, email, hashed_password, provider, created_at, updated_at`,
		userID, normalizeEmail(email), hashed, provider,
	).Scan(&ua.UserID, &ua.Email, &ua.HashedPassword, &ua.Provider, &ua.CreatedAt, &ua.UpdatedAt)
	if err != nil {
		if hasPgCode(err, pgerrcode.UniqueViolation) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	r.log.LogWrite(ctx, "create", "user_id", userID, "provider", provider)
	return &ua, nil
}

func (r *AuthRepository) GetByEmail(ctx context.Context, email string) (*domain.UserAuth, error) {
	return r.getOne(ctx,
		"SELECT user_id, email, hashed_password, provider, created_at, updated_at FROM user_auth WHERE email = $1",
		normalizeEmail(email))
}

func (r *AuthRepository) GetByUserID(ctx context.Context, userID string) (*domain.UserAuth, error) {
	return r.getOne(ctx,
		"SELECT user_id, email, hashed_password, provider, created_at, updated_at FROM user_auth WHERE user_id = $1",
		userID)
}

func (r *AuthRepository) getOne(ctx context.Context, query string, arg any) (*domain.UserAuth, error) {
	var ua domain.UserAuth
	err := r.db.QueryRow(ctx, query, arg).
		Scan(&ua.UserID, &ua.Email, &ua.HashedPassword, &ua.Provider, &ua.CreatedAt, &ua.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, err
	}
	return &ua, nil
}

// VerifyPassword returns ErrInvalidCredentials for OAuth-only accounts and wrong passwords.
func (r *AuthRepository) VerifyPassword(ua *domain.UserAuth, password string) error {
	if ua.HashedPassword == nil {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*ua.HashedPassword), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
