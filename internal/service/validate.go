package service

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/OdenEater/wedding-sns/internal/domain"
)

var (
	ErrInvalidContent = errors.New("post content must be 1 to 140 characters")
	ErrNestedReply    = errors.New("replies can only target top-level posts")
	ErrInvalidAvatar  = errors.New("avatar is not in the catalog")
	ErrInvalidInput   = errors.New("invalid input")
	ErrForbidden      = errors.New("forbidden")
)

const minPasswordLength = 6

// ValidateContent returns the normalized content, or ErrInvalidContent.
func ValidateContent(content string) (string, error) {
	if !domain.CanSubmit(content) {
		return "", ErrInvalidContent
	}
	return domain.NormalizeContent(content), nil
}

func validateCredentials(email, password string) error {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return ErrInvalidInput
	}
	if len(password) < minPasswordLength {
		return ErrInvalidInput
	}
	return nil
}

// optionalText trims s and returns nil when nothing is left.
func optionalText(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
