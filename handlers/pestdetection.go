package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NYARANGA-ROB/Smart/internal/advisory"
	"github.com/NYARANGA-ROB/Smart/internal/storage"
	"github.com/NYARANGA-ROB/Smart/pkg/logger"
	"github.com/NYARANGA-ROB/Smart/pkg/middleware"
)

const maxPhotoSize = 10 << 20 // 10 MiB

// PestDetectionHandler accepts field photos, stores them, and returns
// treatment advice for the reported pest.
type PestDetectionHandler struct {
	store    storage.ObjectStore
	advisory advisory.Service
}

func NewPestDetectionHandler(store storage.ObjectStore, adv advisory.Service) *PestDetectionHandler {
	return &PestDetectionHandler{store: store, advisory: adv}
}

func (h *PestDetectionHandler) Register(rg *gin.RouterGroup, authRequired gin.HandlerFunc) {
	g := rg.Group("/pest-detection", authRequired)
	g.POST("/analyze", h.Analyze)
}

// Analyze stores the uploaded photo and fetches pesticide recommendations for
// the reported crop and pest class.
func (h *PestDetectionHandler) Analyze(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	cropID := c.PostForm("cropId")
	pestType := c.PostForm("pestType")
	if cropID == "" || pestType == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"message": "cropId and pestType are required",
		})
		return
	}
	severity := c.DefaultPostForm("severity", "medium")

	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Photo required",
			"message": "A photo upload is required for analysis",
		})
		return
	}
	defer file.Close()
	if header.Size > maxPhotoSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Photo too large",
			"message": "Photos must be 10MB or smaller",
		})
		return
	}

	ctx := c.Request.Context()
	key := storage.PhotoKey("pest-photos", claims.UID, header.Filename)
	contentType := header.Header.Get("Content-Type")
	if err := h.store.Upload(ctx, key, file, header.Size, contentType); err != nil {
		internalError(c, "Analysis failed", "Unable to store uploaded photo", err)
		return
	}
	photoURL, err := h.store.PresignedURL(ctx, key, 24*time.Hour)
	if err != nil {
		internalError(c, "Analysis failed", "Unable to store uploaded photo", err)
		return
	}

	recs, err := h.advisory.RecommendPesticides(ctx, advisory.PesticideQuery{
		CropID:   cropID,
		PestType: pestType,
		Severity: severity,
	})
	if err != nil {
		internalError(c, "Analysis failed", "Unable to analyze pest report", err)
		return
	}

	logger.Business("pest-detection", "photo_analyzed", map[string]interface{}{
		"userId":   claims.UID,
		"cropId":   cropID,
		"pestType": pestType,
		"severity": severity,
	})
	c.JSON(http.StatusOK, gin.H{
		"message":         "Pest analysis completed successfully",
		"photoUrl":        photoURL,
		"recommendations": recs,
	})
}
