package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/repository"
	"github.com/google/uuid"
)

type UserStore interface {
	CreateUser(ctx context.Context, userID, email, password, provider string) (*domain.UserAuth, error)
	GetByEmail(ctx context.Context, email string) (*domain.UserAuth, error)
	GetByUserID(ctx context.Context, userID string) (*domain.UserAuth, error)
	VerifyPassword(ua *domain.UserAuth, password string) error
}

type TokenIssuer interface {
	Generate(userID, email string) (string, error)
}

// AuthService signs users up and in, and issues session tokens.
type AuthService struct {
	users   UserStore
	tokens  TokenIssuer
	isAdmin func(email string) bool
}

func NewAuthService(users UserStore, tokens TokenIssuer, isAdmin func(email string) bool) *AuthService {
	return &AuthService{users: users, tokens: tokens, isAdmin: isAdmin}
}

func (s *AuthService) Signup(ctx context.Context, email, password string) (*domain.AuthResponse, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	userID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}

	ua, err := s.users.CreateUser(ctx, userID.String(), email, password, repository.ProviderEmail)
	if err != nil {
		return nil, err
	}
	return s.issue(ua)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.AuthResponse, error) {
	ua, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, repository.ErrInvalidCredentials
	} else if err != nil {
		return nil, err
	}

	if err := s.users.VerifyPassword(ua, password); err != nil {
		return nil, err
	}
	return s.issue(ua)
}

// SignInOAuth finds or creates the account for a provider-verified email.
func (s *AuthService) SignInOAuth(ctx context.Context, provider, email string) (*domain.AuthResponse, error) {
	ua, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		userID, idErr := uuid.NewV7()
		if idErr != nil {
			return nil, fmt.Errorf("generate user id: %w", idErr)
		}
		ua, err = s.users.CreateUser(ctx, userID.String(), email, "", provider)
		// 同時サインインで先に作成された場合
		if errors.Is(err, repository.ErrDuplicateEmail) {
			ua, err = s.users.GetByEmail(ctx, email)
		}
	}
	if err != nil {
		return nil, err
	}
	return s.issue(ua)
}

// CurrentUser resolves the session subject to a user.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	ua, err := s.users.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.user(ua), nil
}

func (s *AuthService) IsAdmin(email string) bool {
	return s.isAdmin != nil && s.isAdmin(email)
}

func (s *AuthService) issue(ua *domain.UserAuth) (*domain.AuthResponse, error) {
	token, err := s.tokens.Generate(ua.UserID, ua.Email)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &domain.AuthResponse{User: s.user(ua), Token: token}, nil
}

func (s *AuthService) user(ua *domain.UserAuth) *domain.User {
	return &domain.User{ID: ua.UserID, Email: ua.Email, IsAdmin: s.IsAdmin(ua.Email)}
}
