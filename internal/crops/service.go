package crops

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/NYARANGA-ROB/Smart/internal/auth"
	"github.com/NYARANGA-ROB/Smart/internal/models"
	"github.com/NYARANGA-ROB/Smart/pkg/logger"
)

var (
	ErrPlanNotFound = errors.New("crop plan not found")
	ErrCropNotFound = errors.New("crop not found")
	ErrAccessDenied = errors.New("access denied")
	ErrBadStage     = errors.New("unknown workflow stage")
)

// Cost categories accepted on a progress update.
var costKeys = map[string]bool{
	"seeds":       true,
	"fertilizers": true,
	"irrigation":  true,
	"pestControl": true,
	"labor":       true,
}

// PlanInput is the payload for creating a crop plan.
type PlanInput struct {
	CropID              string
	Area                float64
	PlantingDate        time.Time
	ExpectedHarvestDate time.Time
	SeedQuantity        float64
	Budget              float64
	Notes               string
}

// StageInput is the payload for a workflow-stage update.
type StageInput struct {
	Stage       string
	Completed   bool
	Notes       string
	Costs       map[string]float64
	ActualYield float64
}

// CalendarEntry is one plan rendered for the planting calendar.
type CalendarEntry struct {
	ID     string    `json:"id"`
	CropID string    `json:"cropId"`
	Title  string    `json:"title"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Status string    `json:"status"`
	Area   float64   `json:"area"`
}

// TopCrop is one entry of the most-planted ranking.
type TopCrop struct {
	CropID string `json:"cropId"`
	Count  int    `json:"count"`
}

// MonthlyStats aggregates plans by planting month.
type MonthlyStats struct {
	Plans int     `json:"plans"`
	Area  float64 `json:"area"`
	Costs float64 `json:"costs"`
}

// Stats summarizes all plans of one farm.
type Stats struct {
	TotalPlans       int                      `json:"totalPlans"`
	CompletedPlans   int                      `json:"completedPlans"`
	TotalArea        float64                  `json:"totalArea"`
	TotalCosts       float64                  `json:"totalCosts"`
	TotalYield       float64                  `json:"totalYield"`
	AverageYield     float64                  `json:"averageYield"`
	TopCrops         []TopCrop                `json:"topCrops"`
	MonthlyBreakdown map[string]*MonthlyStats `json:"monthlyBreakdown"`
}

// Service implements crop catalog lookups, plan lifecycle and farm-level
// aggregation.
type Service struct {
	plans   PlanRepository
	catalog CatalogRepository
}

func NewService(plans PlanRepository, catalog CatalogRepository) *Service {
	return &Service{plans: plans, catalog: catalog}
}

// GetCrop returns one catalog entry or ErrCropNotFound.
func (s *Service) GetCrop(ctx context.Context, id string) (*models.Crop, error) {
	c, err := s.catalog.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load crop %s: %w", id, err)
	}
	if c == nil {
		return nil, ErrCropNotFound
	}
	return c, nil
}

// CreatePlan creates a plan for the given farm. The caller is responsible for
// farm-level bookkeeping (planned area, plan references).
func (s *Service) CreatePlan(ctx context.Context, farmID, uid string, in PlanInput) (*models.CropPlan, error) {
	crop, err := s.GetCrop(ctx, in.CropID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p := &models.CropPlan{
		ID:                  models.PlanID(farmID, in.CropID, now),
		FarmID:              farmID,
		CropID:              in.CropID,
		CropName:            crop.Name,
		UserID:              uid,
		Area:                in.Area,
		PlantingDate:        in.PlantingDate,
		ExpectedHarvestDate: in.ExpectedHarvestDate,
		SeedQuantity:        in.SeedQuantity,
		Budget:              in.Budget,
		Notes:               in.Notes,
		Status:              models.PlanStatusPlanned,
	}
	if err := s.plans.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create crop plan: %w", err)
	}
	logger.Business("crops", "plan_created", map[string]interface{}{
		"planId": p.ID,
		"farmId": farmID,
		"cropId": in.CropID,
		"area":   in.Area,
	})
	return p, nil
}

// GetPlan returns one plan or ErrPlanNotFound.
func (s *Service) GetPlan(ctx context.Context, id string) (*models.CropPlan, error) {
	p, err := s.plans.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load crop plan %s: %w", id, err)
	}
	if p == nil {
		return nil, ErrPlanNotFound
	}
	return p, nil
}

// Progress records a workflow-stage update. Cost and yield figures are
// applied as increments over the stored values. The update is permitted for
// the plan's creator, members of the plan's farm and admins.
func (s *Service) Progress(ctx context.Context, planID string, claims *auth.Claims, in StageInput) (*models.CropPlan, error) {
	p, err := s.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if claims.Role != auth.RoleAdmin && claims.UID != p.UserID && claims.FarmID != p.FarmID {
		return nil, ErrAccessDenied
	}
	if !models.IsPlanStage(in.Stage) {
		return nil, fmt.Errorf("%w: %s", ErrBadStage, in.Stage)
	}
	upd := ProgressUpdate{Stage: in.Stage, Completed: in.Completed}
	for k, v := range in.Costs {
		if !costKeys[k] || v == 0 {
			continue
		}
		if upd.Costs == nil {
			upd.Costs = make(map[string]float64)
		}
		upd.Costs[k] = v
	}
	if in.Stage == "harvested" && in.ActualYield > 0 {
		upd.Harvested = in.ActualYield
	}
	if in.Notes != "" {
		notes := in.Notes
		if p.Notes != "" {
			notes = p.Notes + "\n" + in.Notes
		}
		upd.Notes = &notes
	}
	if err := s.plans.ApplyProgress(ctx, planID, upd); err != nil {
		return nil, fmt.Errorf("update crop plan %s: %w", planID, err)
	}
	logger.Business("crops", "plan_progress", map[string]interface{}{
		"planId":    planID,
		"stage":     in.Stage,
		"completed": in.Completed,
	})
	return s.GetPlan(ctx, planID)
}

// Calendar lists a farm's plans as calendar entries, optionally filtered to
// plans planted in the given year (0 means all years).
func (s *Service) Calendar(ctx context.Context, farmID string, year int) ([]CalendarEntry, error) {
	plans, err := s.plans.ListByFarm(ctx, farmID)
	if err != nil {
		return nil, fmt.Errorf("list plans for farm %s: %w", farmID, err)
	}
	entries := []CalendarEntry{}
	for _, p := range plans {
		if year != 0 && p.PlantingDate.Year() != year {
			continue
		}
		entries = append(entries, CalendarEntry{
			ID:     p.ID,
			CropID: p.CropID,
			Title:  p.CropName,
			Start:  p.PlantingDate,
			End:    p.ExpectedHarvestDate,
			Status: p.Status,
			Area:   p.Area,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Start.Before(entries[j].Start) })
	return entries, nil
}

// FarmStats folds all of a farm's plans into one summary. The top-crops
// ranking keeps at most five entries, ordered by plan count descending; crops
// with equal counts keep the order in which they first appeared.
func (s *Service) FarmStats(ctx context.Context, farmID string) (*Stats, error) {
	plans, err := s.plans.ListByFarm(ctx, farmID)
	if err != nil {
		return nil, fmt.Errorf("list plans for farm %s: %w", farmID, err)
	}
	st := &Stats{MonthlyBreakdown: make(map[string]*MonthlyStats)}
	counts := make(map[string]int)
	order := []string{}
	for _, p := range plans {
		st.TotalPlans++
		if p.Status == models.PlanStatusCompleted {
			st.CompletedPlans++
		}
		st.TotalArea += p.Area
		st.TotalCosts += p.Costs.Total
		st.TotalYield += p.Yields.Actual
		if _, seen := counts[p.CropID]; !seen {
			order = append(order, p.CropID)
		}
		counts[p.CropID]++
		month := p.PlantingDate.Format("2006-01")
		m := st.MonthlyBreakdown[month]
		if m == nil {
			m = &MonthlyStats{}
			st.MonthlyBreakdown[month] = m
		}
		m.Plans++
		m.Area += p.Area
		m.Costs += p.Costs.Total
	}
	if st.TotalPlans > 0 {
		st.AverageYield = st.TotalYield / float64(st.TotalPlans)
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > 5 {
		order = order[:5]
	}
	st.TopCrops = make([]TopCrop, 0, len(order))
	for _, id := range order {
		st.TopCrops = append(st.TopCrops, TopCrop{CropID: id, Count: counts[id]})
	}
	return st, nil
}
