package crops

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NYARANGA-ROB/Smart/internal/auth"
	"github.com/NYARANGA-ROB/Smart/internal/models"
)

func testService() (*Service, *MemoryPlanRepository) {
	plans := NewMemoryPlanRepository()
	catalog := NewMemoryCatalogRepository(
		&models.Crop{ID: "maize", Name: "Maize"},
		&models.Crop{ID: "beans", Name: "Beans"},
	)
	return NewService(plans, catalog), plans
}

func seedPlan(t *testing.T, plans *MemoryPlanRepository, id, farmID, cropID string, planted time.Time, area float64) *models.CropPlan {
	t.Helper()
	p := &models.CropPlan{
		ID:           id,
		FarmID:       farmID,
		CropID:       cropID,
		UserID:       "owner-1",
		Area:         area,
		PlantingDate: planted,
		Status:       models.PlanStatusPlanned,
	}
	require.NoError(t, plans.Create(context.Background(), p))
	return p
}

func TestCreatePlanUnknownCrop(t *testing.T) {
	svc, _ := testService()

	_, err := svc.CreatePlan(context.Background(), "farm-1", "user-1", PlanInput{CropID: "quinoa"})
	require.ErrorIs(t, err, ErrCropNotFound)
}

func TestCreatePlanDefaults(t *testing.T) {
	svc, _ := testService()

	p, err := svc.CreatePlan(context.Background(), "farm-1", "user-1", PlanInput{
		CropID: "maize",
		Area:   2.5,
	})
	require.NoError(t, err)
	require.Equal(t, models.PlanStatusPlanned, p.Status)
	require.Equal(t, "farm-1", p.FarmID)
	require.Equal(t, "Maize", p.CropName)
	require.False(t, p.Progress.Planted)
	require.Zero(t, p.Costs.Total)

	got, err := svc.GetPlan(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)
}

func TestProgressCostsAccumulate(t *testing.T) {
	svc, plans := testService()
	seedPlan(t, plans, "plan-1", "farm-1", "maize", time.Now(), 2)
	claims := &auth.Claims{UID: "owner-1", Role: auth.RoleFarmer}

	_, err := svc.Progress(context.Background(), "plan-1", claims, StageInput{
		Stage:     "planted",
		Completed: true,
		Costs:     map[string]float64{"seeds": 10},
	})
	require.NoError(t, err)

	p, err := svc.Progress(context.Background(), "plan-1", claims, StageInput{
		Stage:     "fertilized",
		Completed: true,
		Costs:     map[string]float64{"seeds": 5, "fertilizers": 20},
	})
	require.NoError(t, err)

	require.Equal(t, 15.0, p.Costs.Seeds)
	require.Equal(t, 20.0, p.Costs.Fertilizers)
	require.Equal(t, 35.0, p.Costs.Total)
	require.True(t, p.Progress.Planted)
	require.True(t, p.Progress.Fertilized)
}

func TestProgressHarvestYieldAccumulates(t *testing.T) {
	svc, plans := testService()
	seedPlan(t, plans, "plan-1", "farm-1", "maize", time.Now(), 2)
	claims := &auth.Claims{UID: "owner-1", Role: auth.RoleFarmer}

	for _, yield := range []float64{100, 50} {
		_, err := svc.Progress(context.Background(), "plan-1", claims, StageInput{
			Stage:       "harvested",
			Completed:   true,
			ActualYield: yield,
		})
		require.NoError(t, err)
	}

	p, err := svc.GetPlan(context.Background(), "plan-1")
	require.NoError(t, err)
	require.Equal(t, 150.0, p.Yields.Actual)
	require.True(t, p.Progress.Harvested)
}

func TestProgressIgnoresUnknownCostKeys(t *testing.T) {
	svc, plans := testService()
	seedPlan(t, plans, "plan-1", "farm-1", "maize", time.Now(), 2)
	claims := &auth.Claims{UID: "owner-1", Role: auth.RoleFarmer}

	p, err := svc.Progress(context.Background(), "plan-1", claims, StageInput{
		Stage:     "irrigated",
		Completed: true,
		Costs:     map[string]float64{"irrigation": 8, "helicopter": 9000},
	})
	require.NoError(t, err)
	require.Equal(t, 8.0, p.Costs.Irrigation)
	require.Equal(t, 8.0, p.Costs.Total)
}

func TestProgressAppendsNotes(t *testing.T) {
	svc, plans := testService()
	p := seedPlan(t, plans, "plan-1", "farm-1", "maize", time.Now(), 2)
	p.Notes = "initial"
	require.NoError(t, plans.Create(context.Background(), p))
	claims := &auth.Claims{UID: "owner-1", Role: auth.RoleFarmer}

	got, err := svc.Progress(context.Background(), "plan-1", claims, StageInput{
		Stage:     "planted",
		Completed: true,
		Notes:     "rows 1-4 done",
	})
	require.NoError(t, err)
	require.Equal(t, "initial\nrows 1-4 done", got.Notes)
}

func TestProgressAuthorization(t *testing.T) {
	tests := []struct {
		name    string
		claims  *auth.Claims
		allowed bool
	}{
		{"creator", &auth.Claims{UID: "owner-1", Role: auth.RoleFarmer}, true},
		{"same farm member", &auth.Claims{UID: "worker-7", Role: auth.RoleFarmer, FarmID: "farm-1"}, true},
		{"admin", &auth.Claims{UID: "root", Role: auth.RoleAdmin}, true},
		{"stranger", &auth.Claims{UID: "other", Role: auth.RoleFarmer, FarmID: "farm-9"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, plans := testService()
			seedPlan(t, plans, "plan-1", "farm-1", "maize", time.Now(), 2)

			_, err := svc.Progress(context.Background(), "plan-1", tt.claims, StageInput{
				Stage:     "planted",
				Completed: true,
			})
			if tt.allowed {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrAccessDenied)
			}
		})
	}
}

func TestProgressRejectsUnknownStage(t *testing.T) {
	svc, plans := testService()
	seedPlan(t, plans, "plan-1", "farm-1", "maize", time.Now(), 2)

	_, err := svc.Progress(context.Background(), "plan-1", &auth.Claims{UID: "owner-1"}, StageInput{
		Stage: "teleported",
	})
	require.ErrorIs(t, err, ErrBadStage)
}

func TestProgressMissingPlan(t *testing.T) {
	svc, _ := testService()

	_, err := svc.Progress(context.Background(), "nope", &auth.Claims{UID: "owner-1"}, StageInput{Stage: "planted"})
	require.ErrorIs(t, err, ErrPlanNotFound)
}

func TestCalendarFiltersByYear(t *testing.T) {
	svc, plans := testService()
	seedPlan(t, plans, "p1", "farm-1", "maize", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 1)
	seedPlan(t, plans, "p2", "farm-1", "beans", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), 1)
	seedPlan(t, plans, "p3", "farm-1", "maize", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), 1)

	all, err := svc.Calendar(context.Background(), "farm-1", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	year, err := svc.Calendar(context.Background(), "farm-1", 2026)
	require.NoError(t, err)
	require.Len(t, year, 2)
	require.Equal(t, "p3", year[0].ID)
	require.Equal(t, "p2", year[1].ID)
}

func TestCalendarCarriesCropName(t *testing.T) {
	svc, _ := testService()
	_, err := svc.CreatePlan(context.Background(), "farm-1", "user-1", PlanInput{
		CropID:       "beans",
		Area:         1,
		PlantingDate: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	entries, err := svc.Calendar(context.Background(), "farm-1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "Beans", entries[0].Title)
}

func TestFarmStatsFold(t *testing.T) {
	svc, plans := testService()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, cropID := range []string{"a", "a", "b", "c", "c", "c"} {
		p := seedPlan(t, plans, planKey(i), "farm-1", cropID, base.AddDate(0, 0, i), 2)
		p.Costs.Total = 10
		p.Yields.Actual = 4
		require.NoError(t, plans.Create(context.Background(), p))
	}

	st, err := svc.FarmStats(context.Background(), "farm-1")
	require.NoError(t, err)
	require.Equal(t, 6, st.TotalPlans)
	require.Equal(t, 12.0, st.TotalArea)
	require.Equal(t, 60.0, st.TotalCosts)
	require.Equal(t, 24.0, st.TotalYield)
	require.Equal(t, 4.0, st.AverageYield)
	require.Equal(t, []TopCrop{{"c", 3}, {"a", 2}, {"b", 1}}, st.TopCrops)
	require.Equal(t, 6, st.MonthlyBreakdown["2026-03"].Plans)
}

func TestFarmStatsTopCropsCapAndTieBreak(t *testing.T) {
	svc, plans := testService()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ids := []string{"a", "b", "c", "d", "e", "f", "a", "b"}
	for i, cropID := range ids {
		seedPlan(t, plans, planKey(i), "farm-1", cropID, base.AddDate(0, 0, i), 1)
	}

	st, err := svc.FarmStats(context.Background(), "farm-1")
	require.NoError(t, err)
	require.Len(t, st.TopCrops, 5)
	require.Equal(t, []TopCrop{{"a", 2}, {"b", 2}, {"c", 1}, {"d", 1}, {"e", 1}}, st.TopCrops)
}

func TestFarmStatsCompletedPlans(t *testing.T) {
	svc, plans := testService()
	now := time.Now()
	done := seedPlan(t, plans, "p1", "farm-1", "maize", now, 1)
	done.Status = models.PlanStatusCompleted
	require.NoError(t, plans.Create(context.Background(), done))
	seedPlan(t, plans, "p2", "farm-1", "maize", now, 1)
	seedPlan(t, plans, "p3", "farm-1", "beans", now, 1)

	st, err := svc.FarmStats(context.Background(), "farm-1")
	require.NoError(t, err)
	require.Equal(t, 3, st.TotalPlans)
	require.Equal(t, 1, st.CompletedPlans)
}

func planKey(i int) string {
	return "plan-" + string(rune('a'+i))
}
