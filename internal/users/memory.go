package users

import (
	"context"
	"sync"
	"time"

	"github.com/NYARANGA-ROB/Smart/internal/models"
)

// MemoryRepository is an in-memory Repository used by unit tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*models.UserProfile
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]*models.UserProfile)}
}

func (r *MemoryRepository) Create(ctx context.Context, p *models.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	cp := *p
	r.store[p.UID] = &cp
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, uid string) (*models.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.store[uid]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryRepository) Update(ctx context.Context, uid string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.store[uid]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "firstName":
			p.FirstName, _ = v.(string)
		case "lastName":
			p.LastName, _ = v.(string)
		case "phoneNumber":
			p.PhoneNumber, _ = v.(string)
		case "language":
			p.Language, _ = v.(string)
		case "experience":
			p.Experience, _ = v.(string)
		case "farmSize":
			p.FarmSize, _ = v.(float64)
		case "crops":
			if c, ok := v.([]string); ok {
				p.Crops = c
			}
		case "location":
			if l, ok := v.(models.GeoPoint); ok {
				p.Location = l
			}
		case "isActive":
			p.IsActive, _ = v.(bool)
		}
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) TouchLogin(ctx context.Context, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.store[uid]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	p.LastLoginAt = &now
	p.UpdatedAt = now
	return nil
}
