package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrDuplicateEmail      = errors.New("email is already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrPostNotFound        = errors.New("post not found")
	ErrAlreadyLiked        = errors.New("post is already liked")
	ErrNotLiked            = errors.New("post is not liked")
	ErrSetlistItemNotFound = errors.New("setlist item not found")
)

func hasPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
