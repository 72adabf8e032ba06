package farms

import (
	"context"
	"sync"
	"time"

	"github.com/NYARANGA-ROB/Smart/internal/models"
)

// MemoryRepository is an in-memory Repository used by unit tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*models.Farm
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]*models.Farm)}
}

func (r *MemoryRepository) Create(ctx context.Context, f *models.Farm) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	if f.Members == nil {
		f.Members = []string{}
	}
	if f.CropPlans == nil {
		f.CropPlans = []string{}
	}
	cp := *f
	r.store[f.ID] = &cp
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*models.Farm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.store[id]
	if !ok {
		return nil, nil
	}
	cp := *f
	return &cp, nil
}

func (r *MemoryRepository) AddMember(ctx context.Context, id, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.store[id]
	if !ok {
		return nil
	}
	for _, m := range f.Members {
		if m == uid {
			return nil
		}
	}
	f.Members = append(f.Members, uid)
	f.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) ApplyPlan(ctx context.Context, id, planID string, area float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.store[id]
	if !ok {
		return nil
	}
	f.TotalPlannedArea += area
	for _, p := range f.CropPlans {
		if p == planID {
			return nil
		}
	}
	f.CropPlans = append(f.CropPlans, planID)
	f.UpdatedAt = time.Now().UTC()
	return nil
}
