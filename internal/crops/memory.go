package crops

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/NYARANGA-ROB/Smart/internal/models"
)

// MemoryPlanRepository is an in-memory PlanRepository used in tests and
// single-node development.
type MemoryPlanRepository struct {
	mu    sync.RWMutex
	plans map[string]*models.CropPlan
}

func NewMemoryPlanRepository() *MemoryPlanRepository {
	return &MemoryPlanRepository{plans: make(map[string]*models.CropPlan)}
}

func (r *MemoryPlanRepository) Create(ctx context.Context, p *models.CropPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	cp := *p
	r.plans[p.ID] = &cp
	return nil
}

func (r *MemoryPlanRepository) Get(ctx context.Context, id string) (*models.CropPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plans[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryPlanRepository) ListByFarm(ctx context.Context, farmID string) ([]*models.CropPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*models.CropPlan{}
	for _, p := range r.plans {
		if p.FarmID == farmID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryPlanRepository) ApplyProgress(ctx context.Context, id string, upd ProgressUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok {
		return nil
	}
	switch upd.Stage {
	case "planted":
		p.Progress.Planted = upd.Completed
	case "fertilized":
		p.Progress.Fertilized = upd.Completed
	case "irrigated":
		p.Progress.Irrigated = upd.Completed
	case "pestControl":
		p.Progress.PestControl = upd.Completed
	case "harvested":
		p.Progress.Harvested = upd.Completed
	}
	if upd.Notes != nil {
		p.Notes = *upd.Notes
	}
	var total float64
	for k, v := range upd.Costs {
		switch k {
		case "seeds":
			p.Costs.Seeds += v
		case "fertilizers":
			p.Costs.Fertilizers += v
		case "irrigation":
			p.Costs.Irrigation += v
		case "pestControl":
			p.Costs.PestControl += v
		case "labor":
			p.Costs.Labor += v
		}
		total += v
	}
	p.Costs.Total += total
	p.Yields.Actual += upd.Harvested
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// MemoryCatalogRepository serves a fixed crop catalog from memory.
type MemoryCatalogRepository struct {
	mu    sync.RWMutex
	crops map[string]*models.Crop
}

func NewMemoryCatalogRepository(crops ...*models.Crop) *MemoryCatalogRepository {
	r := &MemoryCatalogRepository{crops: make(map[string]*models.Crop)}
	for _, c := range crops {
		r.crops[c.ID] = c
	}
	return r
}

func (r *MemoryCatalogRepository) Get(ctx context.Context, id string) (*models.Crop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.crops[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}
