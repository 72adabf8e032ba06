package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NYARANGA-ROB/Smart/internal/auth"
	"github.com/NYARANGA-ROB/Smart/internal/farms"
	"github.com/NYARANGA-ROB/Smart/internal/models"
	"github.com/NYARANGA-ROB/Smart/pkg/logger"
	"github.com/NYARANGA-ROB/Smart/pkg/middleware"
	"github.com/NYARANGA-ROB/Smart/pkg/validate"
)

var createFarmSchema = validate.Schema{
	{Field: "name", Checks: []validate.Check{validate.String(2)}},
	{Field: "location", Checks: []validate.Check{validate.Object()}},
	{Field: "location.lat", Checks: []validate.Check{validate.Float(nil, nil)}},
	{Field: "location.lng", Checks: []validate.Check{validate.Float(nil, nil)}},
	{Field: "location.address", Optional: true, Checks: []validate.Check{validate.String(0)}},
}

var addMemberSchema = validate.Schema{
	{Field: "uid", Checks: []validate.Check{validate.String(1)}},
}

// FarmsHandler serves farm creation and membership routes.
type FarmsHandler struct {
	farms *farms.Service
}

func NewFarmsHandler(fs *farms.Service) *FarmsHandler {
	return &FarmsHandler{farms: fs}
}

func (h *FarmsHandler) Register(rg *gin.RouterGroup, authRequired, farmAccess gin.HandlerFunc) {
	g := rg.Group("/farms", authRequired)
	g.POST("", h.Create)
	g.GET("/:farmId", farmAccess, h.Get)
	g.POST("/:farmId/members", farmAccess, h.AddMember)
}

func (h *FarmsHandler) Create(c *gin.Context) {
	body, ok := validateBody(c, createFarmSchema)
	if !ok {
		return
	}
	claims := middleware.ClaimsFrom(c)
	loc := obj(body, "location")

	farm, err := h.farms.Create(c.Request.Context(), str(body, "name"), claims.UID, models.GeoPoint{
		Lat:     f64(loc, "lat"),
		Lng:     f64(loc, "lng"),
		Address: str(loc, "address"),
	})
	if err != nil {
		internalError(c, "Farm creation failed", "Unable to create farm", err)
		return
	}

	logger.Business("farms", "farm_created", map[string]interface{}{
		"farmId": farm.ID,
		"userId": claims.UID,
	})
	c.JSON(http.StatusCreated, gin.H{
		"message": "Farm created successfully",
		"farm":    farm,
	})
}

func (h *FarmsHandler) Get(c *gin.Context) {
	farm := c.MustGet(middleware.ContextFarm).(*models.Farm)
	c.JSON(http.StatusOK, gin.H{
		"message": "Farm retrieved successfully",
		"farm":    farm,
	})
}

// AddMember adds a user to the farm's member set. Only the owner or an admin
// may change membership; regular members cannot.
func (h *FarmsHandler) AddMember(c *gin.Context) {
	body, ok := validateBody(c, addMemberSchema)
	if !ok {
		return
	}
	claims := middleware.ClaimsFrom(c)
	farm := c.MustGet(middleware.ContextFarm).(*models.Farm)
	if claims.UID != farm.OwnerID && claims.Role != auth.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Access denied",
			"message": "Only the farm owner can manage members",
		})
		return
	}

	uid := str(body, "uid")
	if err := h.farms.AddMember(c.Request.Context(), farm.ID, uid); err != nil {
		internalError(c, "Member update failed", "Unable to add farm member", err)
		return
	}

	logger.Business("farms", "member_added", map[string]interface{}{
		"farmId": farm.ID,
		"userId": uid,
		"by":     claims.UID,
	})
	c.JSON(http.StatusOK, gin.H{"message": "Member added successfully"})
}
