package service

import (
	"context"

	"github.com/OdenEater/wedding-sns/internal/avatars"
	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/google/uuid"
)

type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Profile, error)
	Update(ctx context.Context, id string, username, avatarURL *string) (*domain.Profile, error)
	CompleteOnboarding(ctx context.Context, id string, username, avatarURL *string) (*domain.Profile, error)
}

type ProfileService struct {
	profiles ProfileStore
	catalog  *avatars.Catalog
}

func NewProfileService(profiles ProfileStore, catalog *avatars.Catalog) *ProfileService {
	return &ProfileService{profiles: profiles, catalog: catalog}
}

func (s *ProfileService) Get(ctx context.Context, id string) (*domain.Profile, error) {
	return s.profiles.GetByID(ctx, id)
}

// List returns the profiles for ids. Duplicates and malformed ids are skipped.
func (s *ProfileService) List(ctx context.Context, ids []string) ([]domain.Profile, error) {
	seen := make(map[string]bool, len(ids))
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil || seen[id] {
			continue
		}
		seen[id] = true
		valid = append(valid, id)
	}
	if len(valid) == 0 {
		return []domain.Profile{}, nil
	}
	return s.profiles.ListByIDs(ctx, valid)
}

// Update overwrites username and avatar_url. A blank username clears it.
func (s *ProfileService) Update(ctx context.Context, actorID, profileID string, req domain.UpdateProfileRequest) (*domain.Profile, error) {
	if actorID != profileID {
		return nil, ErrForbidden
	}
	if err := s.catalog.Validate(req.AvatarURL); err != nil {
		return nil, ErrInvalidAvatar
	}
	return s.profiles.Update(ctx, profileID, optionalText(req.Username), req.AvatarURL)
}

// CompleteOnboarding marks the wizard done. Omitted fields keep their value.
func (s *ProfileService) CompleteOnboarding(ctx context.Context, actorID, profileID string, req domain.CompleteOnboardingRequest) (*domain.Profile, error) {
	if actorID != profileID {
		return nil, ErrForbidden
	}
	if err := s.catalog.Validate(req.AvatarURL); err != nil {
		return nil, ErrInvalidAvatar
	}
	return s.profiles.CompleteOnboarding(ctx, profileID, optionalText(req.Username), req.AvatarURL)
}
