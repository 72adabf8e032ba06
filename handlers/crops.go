package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NYARANGA-ROB/Smart/internal/advisory"
	"github.com/NYARANGA-ROB/Smart/internal/crops"
	"github.com/NYARANGA-ROB/Smart/internal/farms"
	"github.com/NYARANGA-ROB/Smart/internal/models"
	"github.com/NYARANGA-ROB/Smart/internal/ws"
	"github.com/NYARANGA-ROB/Smart/pkg/logger"
	"github.com/NYARANGA-ROB/Smart/pkg/middleware"
	"github.com/NYARANGA-ROB/Smart/pkg/validate"
)

var soilAnalysisSchema = validate.Schema{
	{Field: "location", Checks: []validate.Check{validate.Object()}},
	{Field: "location.lat", Checks: []validate.Check{validate.Float(nil, nil)}},
	{Field: "location.lng", Checks: []validate.Check{validate.Float(nil, nil)}},
	{Field: "soilType", Checks: []validate.Check{validate.String(1)}},
	{Field: "phLevel", Checks: []validate.Check{validate.Float(validate.Bound(0), validate.Bound(14))}},
	{Field: "nitrogen", Checks: []validate.Check{validate.Float(validate.Bound(0), nil)}},
	{Field: "phosphorus", Checks: []validate.Check{validate.Float(validate.Bound(0), nil)}},
	{Field: "potassium", Checks: []validate.Check{validate.Float(validate.Bound(0), nil)}},
	{Field: "organicMatter", Checks: []validate.Check{validate.Float(validate.Bound(0), validate.Bound(100))}},
	{Field: "moisture", Checks: []validate.Check{validate.Float(validate.Bound(0), validate.Bound(100))}},
	{Field: "season", Optional: true, Checks: []validate.Check{validate.Enum("spring", "summer", "autumn", "winter", "rainy", "dry")}},
	{Field: "availableWater", Optional: true, Checks: []validate.Check{validate.Float(validate.Bound(0), nil)}},
	{Field: "budget", Optional: true, Checks: []validate.Check{validate.Float(validate.Bound(0), nil)}},
	{Field: "laborAvailability", Optional: true, Checks: []validate.Check{validate.Enum("low", "medium", "high")}},
}

var cropPlanSchema = validate.Schema{
	{Field: "farmId", Checks: []validate.Check{validate.String(1)}},
	{Field: "cropId", Checks: []validate.Check{validate.String(1)}},
	{Field: "area", Checks: []validate.Check{validate.Float(validate.Bound(0), nil)}},
	{Field: "plantingDate", Checks: []validate.Check{validate.ISODate()}},
	{Field: "expectedHarvestDate", Checks: []validate.Check{validate.ISODate()}},
	{Field: "seedQuantity", Optional: true, Checks: []validate.Check{validate.Float(validate.Bound(0), nil)}},
	{Field: "budget", Optional: true, Checks: []validate.Check{validate.Float(validate.Bound(0), nil)}},
	{Field: "notes", Optional: true, Checks: []validate.Check{validate.String(0)}},
}

var progressSchema = validate.Schema{
	{Field: "stage", Checks: []validate.Check{validate.Enum(models.PlanStages...)}},
	{Field: "completed", Checks: []validate.Check{validate.Bool()}},
	{Field: "notes", Optional: true, Checks: []validate.Check{validate.String(0)}},
	{Field: "costs", Optional: true, Checks: []validate.Check{validate.Object()}},
	{Field: "actualYield", Optional: true, Checks: []validate.Check{validate.Float(validate.Bound(0), nil)}},
}

var pesticideSchema = validate.Schema{
	{Field: "cropId", Checks: []validate.Check{validate.String(1)}},
	{Field: "pestType", Checks: []validate.Check{validate.Enum("insects", "diseases", "weeds")}},
	{Field: "severity", Checks: []validate.Check{validate.Enum("low", "medium", "high")}},
	{Field: "budget", Checks: []validate.Check{validate.Float(validate.Bound(0), nil)}},
}

// CropsHandler serves the crop catalog, planning and advisory routes.
type CropsHandler struct {
	crops    *crops.Service
	farms    *farms.Service
	advisory advisory.Service
	hub      *ws.Hub
}

func NewCropsHandler(cs *crops.Service, fs *farms.Service, adv advisory.Service, hub *ws.Hub) *CropsHandler {
	return &CropsHandler{crops: cs, farms: fs, advisory: adv, hub: hub}
}

// Register routes under /crops. Every route requires authentication;
// farm-scoped routes additionally pass the farm access guard.
func (h *CropsHandler) Register(rg *gin.RouterGroup, authRequired, farmAccess gin.HandlerFunc) {
	g := rg.Group("/crops", authRequired)
	g.POST("/recommendations", h.Recommendations)
	g.GET("/:cropId", h.GetCrop)
	g.POST("/plan", farmAccess, h.CreatePlan)
	g.PUT("/plan/:planId/progress", h.UpdateProgress)
	g.POST("/pesticides", h.Pesticides)
	g.GET("/calendar/:farmId", farmAccess, h.Calendar)
	g.GET("/stats/:farmId", farmAccess, h.Stats)
}

// Recommendations analyses the submitted soil sample, ranks crops for it,
// and fetches fertilizer schedules for the top three in parallel with 30% of
// the stated budget reserved for fertilizer.
func (h *CropsHandler) Recommendations(c *gin.Context) {
	body, ok := validateBody(c, soilAnalysisSchema)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	claims := middleware.ClaimsFrom(c)
	loc := obj(body, "location")
	sample := advisory.SoilSample{
		Location:      models.GeoPoint{Lat: f64(loc, "lat"), Lng: f64(loc, "lng"), Address: str(loc, "address")},
		SoilType:      str(body, "soilType"),
		PHLevel:       f64(body, "phLevel"),
		Nitrogen:      f64(body, "nitrogen"),
		Phosphorus:    f64(body, "phosphorus"),
		Potassium:     f64(body, "potassium"),
		OrganicMatter: f64(body, "organicMatter"),
		Moisture:      f64(body, "moisture"),
	}

	analysis, err := h.advisory.AnalyzeSoil(ctx, sample)
	if err != nil {
		internalError(c, "Recommendation generation failed", "Unable to generate crop recommendations", err)
		return
	}

	season := str(body, "season")
	if season == "" {
		season = "current"
	}
	budget := f64(body, "budget")
	recs, err := h.advisory.RecommendCrops(ctx, advisory.CropQuery{
		Analysis:       analysis,
		Location:       sample.Location,
		Season:         season,
		AvailableWater: f64(body, "availableWater"),
		Budget:         budget,
		Labor:          str(body, "laborAvailability"),
	})
	if err != nil {
		internalError(c, "Recommendation generation failed", "Unable to generate crop recommendations", err)
		return
	}

	top := recs
	if len(top) > 3 {
		top = top[:3]
	}
	type cropFertilizer struct {
		Crop        string                   `json:"crop"`
		Fertilizers *advisory.FertilizerPlan `json:"fertilizers"`
	}
	fertilizers := make([]cropFertilizer, len(top))
	errs := make([]error, len(top))
	var wg sync.WaitGroup
	for i, rec := range top {
		wg.Add(1)
		go func(i int, rec advisory.CropRecommendation) {
			defer wg.Done()
			plan, err := h.advisory.RecommendFertilizer(ctx, advisory.FertilizerQuery{
				Crop:     rec.Name,
				Analysis: analysis,
				Budget:   budget * 0.3,
			})
			if err != nil {
				errs[i] = err
				return
			}
			fertilizers[i] = cropFertilizer{Crop: rec.Name, Fertilizers: plan}
		}(i, rec)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			internalError(c, "Recommendation generation failed", "Unable to generate crop recommendations", err)
			return
		}
	}

	logger.Business("crops", "recommendations_generated", map[string]interface{}{
		"userId":   claims.UID,
		"soilType": sample.SoilType,
		"season":   season,
	})
	c.JSON(http.StatusOK, gin.H{
		"message":                   "Crop recommendations generated successfully",
		"soilAnalysis":              analysis,
		"recommendations":           recs,
		"fertilizerRecommendations": fertilizers,
		"timestamp":                 time.Now().UTC().Format(time.RFC3339),
	})
}

// GetCrop returns one catalog entry with its growing guide.
func (h *CropsHandler) GetCrop(c *gin.Context) {
	crop, err := h.crops.GetCrop(c.Request.Context(), c.Param("cropId"))
	if err != nil {
		if errors.Is(err, crops.ErrCropNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Crop not found",
				"message": "The specified crop does not exist",
			})
			return
		}
		internalError(c, "Failed to retrieve crop details", "Unable to fetch crop information", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Crop details retrieved successfully",
		"crop":         crop,
		"growingGuide": crop.Guide(),
	})
}

// CreatePlan creates a crop plan and folds its area into the farm totals.
func (h *CropsHandler) CreatePlan(c *gin.Context) {
	body, ok := validateBody(c, cropPlanSchema)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	claims := middleware.ClaimsFrom(c)
	farm := c.MustGet(middleware.ContextFarm).(*models.Farm)

	plantingDate, _ := parseDate(str(body, "plantingDate"))
	harvestDate, _ := parseDate(str(body, "expectedHarvestDate"))
	plan, err := h.crops.CreatePlan(ctx, farm.ID, claims.UID, crops.PlanInput{
		CropID:              str(body, "cropId"),
		Area:                f64(body, "area"),
		PlantingDate:        plantingDate,
		ExpectedHarvestDate: harvestDate,
		SeedQuantity:        f64(body, "seedQuantity"),
		Budget:              f64(body, "budget"),
		Notes:               str(body, "notes"),
	})
	if err != nil {
		if errors.Is(err, crops.ErrCropNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Crop not found",
				"message": "The specified crop does not exist",
			})
			return
		}
		internalError(c, "Crop planning failed", "Unable to create crop plan", err)
		return
	}
	if err := h.farms.ApplyPlan(ctx, farm.ID, plan.ID, plan.Area); err != nil {
		internalError(c, "Crop planning failed", "Unable to create crop plan", err)
		return
	}
	h.hub.Broadcast("farm-"+farm.ID, "crop_plan_created", plan)

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Crop plan created successfully",
		"cropPlan": plan,
	})
}

// UpdateProgress records a workflow-stage update with additive cost merges.
func (h *CropsHandler) UpdateProgress(c *gin.Context) {
	body, ok := validateBody(c, progressSchema)
	if !ok {
		return
	}
	claims := middleware.ClaimsFrom(c)

	in := crops.StageInput{
		Stage:       str(body, "stage"),
		Notes:       str(body, "notes"),
		ActualYield: f64(body, "actualYield"),
	}
	in.Completed, _ = body["completed"].(bool)
	if costs := obj(body, "costs"); costs != nil {
		in.Costs = make(map[string]float64, len(costs))
		for k, v := range costs {
			if f, ok := v.(float64); ok {
				in.Costs[k] = f
			}
		}
	}

	plan, err := h.crops.Progress(c.Request.Context(), c.Param("planId"), claims, in)
	if err != nil {
		switch {
		case errors.Is(err, crops.ErrPlanNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Crop plan not found",
				"message": "The specified crop plan does not exist",
			})
		case errors.Is(err, crops.ErrAccessDenied):
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "Access denied",
				"message": "You do not have access to this crop plan",
			})
		case errors.Is(err, crops.ErrBadStage):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid stage",
				"message": "Unknown workflow stage",
			})
		default:
			internalError(c, "Update failed", "Unable to update crop plan progress", err)
		}
		return
	}
	h.hub.Broadcast("farm-"+plan.FarmID, "crop_plan_updated", plan)

	c.JSON(http.StatusOK, gin.H{
		"message":  "Crop plan progress updated successfully",
		"cropPlan": plan,
	})
}

// Pesticides proxies pesticide recommendations from the advisory service.
func (h *CropsHandler) Pesticides(c *gin.Context) {
	body, ok := validateBody(c, pesticideSchema)
	if !ok {
		return
	}
	claims := middleware.ClaimsFrom(c)

	recs, err := h.advisory.RecommendPesticides(c.Request.Context(), advisory.PesticideQuery{
		CropID:   str(body, "cropId"),
		PestType: str(body, "pestType"),
		Severity: str(body, "severity"),
		Budget:   f64(body, "budget"),
	})
	if err != nil {
		internalError(c, "Recommendation generation failed", "Unable to generate pesticide recommendations", err)
		return
	}

	logger.Business("crops", "pesticide_recommendations", map[string]interface{}{
		"userId":   claims.UID,
		"cropId":   str(body, "cropId"),
		"pestType": str(body, "pestType"),
		"severity": str(body, "severity"),
	})
	c.JSON(http.StatusOK, gin.H{
		"message":         "Pesticide recommendations generated successfully",
		"recommendations": recs,
	})
}

// Calendar lists the farm's plans as calendar entries, optionally filtered by
// planting year.
func (h *CropsHandler) Calendar(c *gin.Context) {
	farm := c.MustGet(middleware.ContextFarm).(*models.Farm)
	year := 0
	if q := c.Query("year"); q != "" {
		y, err := strconv.Atoi(q)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid year",
				"message": "Year must be a number",
			})
			return
		}
		year = y
	}

	entries, err := h.crops.Calendar(c.Request.Context(), farm.ID, year)
	if err != nil {
		internalError(c, "Failed to retrieve crop calendar", "Unable to fetch calendar data", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Crop calendar retrieved successfully",
		"calendar": entries,
	})
}

// Stats folds the farm's plans into summary statistics.
func (h *CropsHandler) Stats(c *gin.Context) {
	farm := c.MustGet(middleware.ContextFarm).(*models.Farm)

	stats, err := h.crops.FarmStats(c.Request.Context(), farm.ID)
	if err != nil {
		internalError(c, "Failed to retrieve crop statistics", "Unable to fetch statistics data", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Crop statistics retrieved successfully",
		"stats":   stats,
	})
}

// parseDate accepts RFC 3339 timestamps and plain dates (schema-checked
// upstream, so failures only produce a zero time).
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
