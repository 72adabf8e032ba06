package farms

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/NYARANGA-ROB/Smart/internal/auth"
	"github.com/NYARANGA-ROB/Smart/internal/models"
)

var (
	// ErrNotFound: the farm does not exist.
	ErrNotFound = errors.New("farm not found")
	// ErrAccessDenied: requester is neither owner, member, nor admin.
	ErrAccessDenied = errors.New("farm access denied")
)

// Service wraps farm persistence with access-control resolution.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service { return &Service{repo: r} }

// Create stores a new farm owned by ownerID and returns it.
func (s *Service) Create(ctx context.Context, name string, ownerID string, loc models.GeoPoint) (*models.Farm, error) {
	f := &models.Farm{
		ID:       uuid.NewString(),
		Name:     name,
		OwnerID:  ownerID,
		Location: loc,
		Members:  []string{},
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Farm, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) AddMember(ctx context.Context, id, uid string) error {
	return s.repo.AddMember(ctx, id, uid)
}

func (s *Service) ApplyPlan(ctx context.Context, id, planID string, area float64) error {
	return s.repo.ApplyPlan(ctx, id, planID, area)
}

// Authorize performs exactly one read and resolves whether claims may act on
// the farm: owner, member, or admin role each suffice independently.
func (s *Service) Authorize(ctx context.Context, farmID string, claims *auth.Claims) (*models.Farm, error) {
	f, err := s.repo.Get(ctx, farmID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrNotFound
	}
	if claims.Role == auth.RoleAdmin || f.HasAccess(claims.UID) {
		return f, nil
	}
	return nil, ErrAccessDenied
}
