package service

import (
	"context"

	"github.com/OdenEater/wedding-sns/internal/domain"
	"github.com/OdenEater/wedding-sns/internal/realtime"
)

type SetlistStore interface {
	List(ctx context.Context) ([]domain.SetlistItem, error)
	SetPublic(ctx context.Context, id string, isPublic bool) (*domain.SetlistItem, error)
}

type SetlistService struct {
	items SetlistStore
	pub   realtime.Publisher
}

func NewSetlistService(items SetlistStore, pub realtime.Publisher) *SetlistService {
	return &SetlistService{items: items, pub: pub}
}

// List returns the setlist in order. Guests get non-public items masked.
func (s *SetlistService) List(ctx context.Context, isAdmin bool) ([]domain.SetlistItem, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, err
	}
	if isAdmin {
		return items, nil
	}
	masked := make([]domain.SetlistItem, len(items))
	for i, item := range items {
		masked[i] = item.Masked()
	}
	return masked, nil
}

func (s *SetlistService) SetPublic(ctx context.Context, isAdmin bool, id string, isPublic bool) (*domain.SetlistItem, error) {
	if !isAdmin {
		return nil, ErrForbidden
	}
	item, err := s.items.SetPublic(ctx, id, isPublic)
	if err != nil {
		return nil, err
	}
	if s.pub != nil {
		s.pub.Publish(ctx, realtime.TableSetlist, realtime.EventUpdate)
	}
	return item, nil
}
