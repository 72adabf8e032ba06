package users

import (
	"context"

	"github.com/NYARANGA-ROB/Smart/internal/models"
)

// Fields clients may change through the profile update endpoint.
var updatableFields = map[string]bool{
	"firstName":   true,
	"lastName":    true,
	"phoneNumber": true,
	"language":    true,
	"experience":  true,
	"farmSize":    true,
	"crops":       true,
	"location":    true,
	"isActive":    true,
}

// Service encapsulates user-profile business logic.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service { return &Service{repo: r} }

func (s *Service) Create(ctx context.Context, p *models.UserProfile) error {
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, uid string) (*models.UserProfile, error) {
	return s.repo.Get(ctx, uid)
}

func (s *Service) TouchLogin(ctx context.Context, uid string) error {
	return s.repo.TouchLogin(ctx, uid)
}

// Update applies only whitelisted fields; anything else in the request body
// is dropped silently.
func (s *Service) Update(ctx context.Context, uid string, fields map[string]interface{}) error {
	filtered := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if updatableFields[k] {
			filtered[k] = v
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return s.repo.Update(ctx, uid, filtered)
}
