package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/NYARANGA-ROB/Smart/internal/auth"
	"github.com/NYARANGA-ROB/Smart/internal/farms"
	"github.com/NYARANGA-ROB/Smart/pkg/logger"
)

// Context keys set by the guards.
const (
	ContextClaims = "claims"
	ContextFarm   = "farm"
)

// bearerToken extracts the raw token from the Authorization header.
func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Authenticate verifies the request's bearer token. With required=true the
// request is rejected on any failure; with required=false a missing or bad
// token leaves the request anonymous and processing continues.
func Authenticate(v *auth.Verifier, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := v.Verify(c.Request.Context(), bearerToken(c))
		if err != nil {
			if !required {
				if errors.Is(err, auth.ErrUnavailable) {
					logger.Warnf("optional auth: %v", err)
				} else if !errors.Is(err, auth.ErrMissingToken) {
					logger.Debugf("optional auth: %v", err)
				}
				c.Next()
				return
			}
			switch {
			case errors.Is(err, auth.ErrMissingToken):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":   "Access token required",
					"message": "No authorization token provided",
				})
			case errors.Is(err, auth.ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":   "Token expired",
					"message": "Your session has expired. Please login again.",
				})
			case errors.Is(err, auth.ErrTokenRevoked):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":   "Token revoked",
					"message": "Your session has been revoked. Please login again.",
				})
			case errors.Is(err, auth.ErrUnavailable):
				logger.Errorf("token verification failed: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":   "Internal server error",
					"message": "Error verifying authorization token",
				})
			default:
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error":   "Invalid token",
					"message": "Invalid or malformed authorization token",
				})
			}
			return
		}
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// ClaimsFrom returns the authenticated claims, or nil for anonymous requests.
func ClaimsFrom(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ContextClaims); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// RequireRole rejects requests whose authenticated role is not in the allowed
// set. It must run after Authenticate(required).
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "User must be authenticated",
			})
			return
		}
		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":   "Insufficient permissions",
			"message": "Access denied. Required role: " + strings.Join(roles, " or "),
		})
	}
}

// farmIDFrom resolves the target farm id: path parameter first, then request
// body, then query string. Reading the body leaves it replayable for the
// handler.
func farmIDFrom(c *gin.Context) string {
	if id := c.Param("farmId"); id != "" {
		return id
	}
	if c.Request.Body != nil && strings.HasPrefix(c.ContentType(), "application/json") {
		raw, err := io.ReadAll(c.Request.Body)
		if err == nil {
			c.Request.Body = io.NopCloser(bytes.NewReader(raw))
			var body struct {
				FarmID string `json:"farmId"`
			}
			if json.Unmarshal(raw, &body) == nil && body.FarmID != "" {
				return body.FarmID
			}
		}
	}
	return c.Query("farmId")
}

// RequireFarmAccess resolves the target farm and verifies the authenticated
// user may act on it. The loaded farm is cached on the context so handlers do
// not repeat the read. It must run after Authenticate(required).
func RequireFarmAccess(svc *farms.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "User must be authenticated",
			})
			return
		}
		farmID := farmIDFrom(c)
		if farmID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "Farm ID is required",
				"message": "Farm ID must be provided",
			})
			return
		}
		farm, err := svc.Authorize(c.Request.Context(), farmID, claims)
		if err != nil {
			switch {
			case errors.Is(err, farms.ErrNotFound):
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
					"error":   "Farm not found",
					"message": "The specified farm does not exist",
				})
			case errors.Is(err, farms.ErrAccessDenied):
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error":   "Access denied",
					"message": "You do not have access to this farm",
				})
			default:
				logger.Errorf("farm access check failed for %s: %v", farmID, err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":   "Internal server error",
					"message": "Error checking farm access",
				})
			}
			return
		}
		c.Set(ContextFarm, farm)
		c.Next()
	}
}
