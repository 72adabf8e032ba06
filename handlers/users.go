package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NYARANGA-ROB/Smart/internal/models"
	"github.com/NYARANGA-ROB/Smart/internal/users"
	"github.com/NYARANGA-ROB/Smart/pkg/logger"
	"github.com/NYARANGA-ROB/Smart/pkg/middleware"
	"github.com/NYARANGA-ROB/Smart/pkg/validate"
)

var updateProfileSchema = validate.Schema{
	{Field: "firstName", Optional: true, Checks: []validate.Check{validate.String(2)}},
	{Field: "lastName", Optional: true, Checks: []validate.Check{validate.String(2)}},
	{Field: "phoneNumber", Optional: true, Checks: []validate.Check{validate.Phone()}},
	{Field: "language", Optional: true, Checks: []validate.Check{validate.Enum(models.Languages...)}},
	{Field: "experience", Optional: true, Checks: []validate.Check{validate.Enum("beginner", "intermediate", "expert")}},
	{Field: "farmSize", Optional: true, Checks: []validate.Check{validate.Float(validate.Bound(0), nil)}},
	{Field: "location", Optional: true, Checks: []validate.Check{validate.Object()}},
}

// UsersHandler serves the authenticated user's profile routes.
type UsersHandler struct {
	users *users.Service
}

func NewUsersHandler(u *users.Service) *UsersHandler {
	return &UsersHandler{users: u}
}

func (h *UsersHandler) Register(rg *gin.RouterGroup, authRequired gin.HandlerFunc) {
	g := rg.Group("/users", authRequired)
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
}

func (h *UsersHandler) GetProfile(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	profile, err := h.users.Get(c.Request.Context(), claims.UID)
	if err != nil {
		internalError(c, "Profile retrieval failed", "Unable to fetch user profile", err)
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "User not found",
			"message": "User profile not found",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Profile retrieved successfully",
		"user":    profile,
	})
}

// UpdateProfile applies a partial update. Fields outside the updatable set
// (notably role) are dropped by the service.
func (h *UsersHandler) UpdateProfile(c *gin.Context) {
	body, ok := validateBody(c, updateProfileSchema)
	if !ok {
		return
	}
	claims := middleware.ClaimsFrom(c)

	if err := h.users.Update(c.Request.Context(), claims.UID, body); err != nil {
		internalError(c, "Profile update failed", "Unable to update user profile", err)
		return
	}
	profile, err := h.users.Get(c.Request.Context(), claims.UID)
	if err != nil {
		internalError(c, "Profile update failed", "Unable to update user profile", err)
		return
	}

	logger.Business("users", "profile_updated", map[string]interface{}{
		"userId": claims.UID,
	})
	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    profile,
	})
}
