package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NYARANGA-ROB/Smart/internal/auth"
	"github.com/NYARANGA-ROB/Smart/internal/config"
	"github.com/NYARANGA-ROB/Smart/internal/identity"
	"github.com/NYARANGA-ROB/Smart/internal/mailer"
	"github.com/NYARANGA-ROB/Smart/internal/models"
	"github.com/NYARANGA-ROB/Smart/internal/users"
	"github.com/NYARANGA-ROB/Smart/pkg/logger"
	"github.com/NYARANGA-ROB/Smart/pkg/validate"
)

// resetMessage is returned for every password-reset request, so responses do
// not reveal whether the address maps to an account.
const resetMessage = "If an account exists with this email, a password reset link has been sent"

var registerSchema = validate.Schema{
	{Field: "email", Checks: []validate.Check{validate.Email()}},
	{Field: "password", Checks: []validate.Check{validate.String(8)}},
	{Field: "firstName", Checks: []validate.Check{validate.String(2)}},
	{Field: "lastName", Checks: []validate.Check{validate.String(2)}},
	{Field: "phoneNumber", Checks: []validate.Check{validate.Phone()}},
	{Field: "location", Checks: []validate.Check{validate.Object()}},
	{Field: "location.lat", Checks: []validate.Check{validate.Float(nil, nil)}},
	{Field: "location.lng", Checks: []validate.Check{validate.Float(nil, nil)}},
	{Field: "location.address", Checks: []validate.Check{validate.String(1)}},
	{Field: "language", Optional: true, Checks: []validate.Check{validate.Enum(models.Languages...)}},
	{Field: "role", Optional: true, Checks: []validate.Check{validate.Enum(auth.RoleFarmer, auth.RoleAgronomist, auth.RoleAdmin)}},
}

var loginSchema = validate.Schema{
	{Field: "email", Checks: []validate.Check{validate.Email()}},
	{Field: "password", Checks: []validate.Check{validate.String(1)}},
}

var forgotPasswordSchema = validate.Schema{
	{Field: "email", Checks: []validate.Check{validate.Email()}},
}

// AuthHandler serves registration, login and token lifecycle routes.
type AuthHandler struct {
	cfg       *config.Config
	provider  identity.Provider
	users     *users.Service
	blacklist *auth.Blacklist
	mail      *mailer.Dispatcher
}

func NewAuthHandler(cfg *config.Config, provider identity.Provider, u *users.Service, bl *auth.Blacklist, mail *mailer.Dispatcher) *AuthHandler {
	return &AuthHandler{cfg: cfg, provider: provider, users: u, blacklist: bl, mail: mail}
}

// Register routes under /auth. All of them are public.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/register", h.RegisterUser)
	a.POST("/login", h.Login)
	a.POST("/forgot-password", h.ForgotPassword)
	a.POST("/verify-email", h.VerifyEmail)
	a.POST("/refresh-token", h.RefreshToken)
	a.POST("/logout", h.Logout)
}

// RegisterUser creates an identity account plus the profile document, sends a
// welcome email in the background, and returns a token for immediate login.
func (h *AuthHandler) RegisterUser(c *gin.Context) {
	body, ok := validateBody(c, registerSchema)
	if !ok {
		return
	}
	email := str(body, "email")
	ctx := c.Request.Context()

	existing, err := h.provider.GetByEmail(ctx, email)
	if err != nil {
		internalError(c, "Registration failed", "Unable to create user account", err)
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "User already exists",
			"message": "An account with this email already exists",
		})
		return
	}

	firstName := str(body, "firstName")
	lastName := str(body, "lastName")
	phone := str(body, "phoneNumber")
	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}
	acc, err := h.provider.Create(ctx, identity.NewAccount{
		Email:       email,
		Password:    str(body, "password"),
		DisplayName: firstName + " " + lastName,
		PhoneNumber: phone,
	})
	if err != nil {
		internalError(c, "Registration failed", "Unable to create user account", err)
		return
	}

	profile := models.NewUserProfile(acc.UID)
	profile.Email = email
	profile.FirstName = firstName
	profile.LastName = lastName
	profile.PhoneNumber = str(body, "phoneNumber")
	if loc := obj(body, "location"); loc != nil {
		profile.Location = models.GeoPoint{Lat: f64(loc, "lat"), Lng: f64(loc, "lng"), Address: str(loc, "address")}
	}
	if v := str(body, "language"); v != "" {
		profile.Language = v
	}
	if v := str(body, "role"); v != "" {
		profile.Role = v
	}
	profile.FarmSize = f64(body, "farmSize")
	if v := strSlice(body, "crops"); len(v) > 0 {
		profile.Crops = v
	}
	if v := str(body, "experience"); v != "" {
		profile.Experience = v
	}
	if err := h.users.Create(ctx, profile); err != nil {
		internalError(c, "Registration failed", "Unable to create user account", err)
		return
	}

	// Welcome email is best effort and never blocks the response.
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.mail.Send(sendCtx, email, mailer.TemplateWelcome, map[string]interface{}{
			"Name":   firstName,
			"AppURL": h.cfg.CORS.FrontendURL,
		}); err != nil {
			logger.Warnf("failed to send welcome email to %s: %v", email, err)
		}
	}()

	token, err := identity.CustomToken(&h.cfg.Identity, acc, profile.Role, "")
	if err != nil {
		internalError(c, "Registration failed", "Unable to create user account", err)
		return
	}

	logger.Business("auth", "user_registered", map[string]interface{}{
		"userId":   acc.UID,
		"email":    email,
		"role":     profile.Role,
		"language": profile.Language,
	})
	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user": gin.H{
			"uid":         acc.UID,
			"email":       acc.Email,
			"displayName": acc.DisplayName,
			"role":        profile.Role,
		},
		"token": token,
	})
}

// Login resolves the account and profile, stamps the login time and issues a
// fresh token.
func (h *AuthHandler) Login(c *gin.Context) {
	body, ok := validateBody(c, loginSchema)
	if !ok {
		return
	}
	email := str(body, "email")
	ctx := c.Request.Context()

	acc, err := h.provider.GetByEmail(ctx, email)
	if err != nil {
		internalError(c, "Login failed", "Unable to process login request", err)
		return
	}
	if acc == nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Authentication failed",
			"message": "Invalid email or password",
		})
		return
	}

	profile, err := h.users.Get(ctx, acc.UID)
	if err != nil {
		internalError(c, "Login failed", "Unable to process login request", err)
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "User not found",
			"message": "User profile not found",
		})
		return
	}

	if err := h.users.TouchLogin(ctx, acc.UID); err != nil {
		internalError(c, "Login failed", "Unable to process login request", err)
		return
	}

	token, err := identity.CustomToken(&h.cfg.Identity, acc, profile.Role, "")
	if err != nil {
		internalError(c, "Login failed", "Unable to process login request", err)
		return
	}

	logger.Business("auth", "user_login", map[string]interface{}{
		"userId": acc.UID,
		"email":  email,
		"role":   profile.Role,
	})
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user": gin.H{
			"uid":         acc.UID,
			"email":       acc.Email,
			"displayName": acc.DisplayName,
			"role":        profile.Role,
			"language":    profile.Language,
			"location":    profile.Location,
		},
		"token": token,
	})
}

// ForgotPassword responds with the same message whether or not the address
// maps to an account. The reset email itself is best effort.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	body, ok := validateBody(c, forgotPasswordSchema)
	if !ok {
		return
	}
	email := str(body, "email")
	ctx := c.Request.Context()

	acc, err := h.provider.GetByEmail(ctx, email)
	if err != nil || acc == nil {
		if err != nil {
			logger.Errorf("password reset lookup for %s: %v", email, err)
		}
		c.JSON(http.StatusOK, gin.H{"message": resetMessage})
		return
	}

	link, err := h.provider.PasswordResetLink(ctx, email)
	if err != nil {
		logger.Errorf("password reset link for %s: %v", email, err)
		c.JSON(http.StatusOK, gin.H{"message": resetMessage})
		return
	}
	if err := h.mail.Send(ctx, email, mailer.TemplatePasswordReset, map[string]interface{}{
		"ResetLink": link,
	}); err != nil {
		logger.Errorf("password reset email to %s: %v", email, err)
		c.JSON(http.StatusOK, gin.H{"message": resetMessage})
		return
	}

	logger.Business("auth", "password_reset_requested", map[string]interface{}{
		"userId": acc.UID,
		"email":  email,
	})
	c.JSON(http.StatusOK, gin.H{"message": resetMessage})
}

// VerifyEmail marks the account behind a verification token as verified.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	body, ok := bindBody(c)
	if !ok {
		return
	}
	token := str(body, "token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Token required",
			"message": "Verification token is required",
		})
		return
	}

	claims, err := identity.VerifyCustomToken(&h.cfg.Identity, token)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Email verification failed",
			"message": "Invalid or expired verification token",
		})
		return
	}
	uid, _ := claims["sub"].(string)
	if err := h.provider.SetEmailVerified(c.Request.Context(), uid, true); err != nil {
		internalError(c, "Email verification failed", "Unable to verify email", err)
		return
	}

	logger.Business("auth", "email_verified", map[string]interface{}{
		"userId": uid,
		"email":  claims["email"],
	})
	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
}

// RefreshToken exchanges a still-valid token for a fresh one.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	body, ok := bindBody(c)
	if !ok {
		return
	}
	refresh := str(body, "refreshToken")
	if refresh == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Refresh token required",
			"message": "Refresh token is required",
		})
		return
	}

	claims, err := identity.VerifyCustomToken(&h.cfg.Identity, refresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Token refresh failed",
			"message": "Invalid or expired refresh token",
		})
		return
	}
	acc := &identity.Account{
		UID:         str(claims, "sub"),
		Email:       str(claims, "email"),
		DisplayName: str(claims, "name"),
		PhoneNumber: str(claims, "phone_number"),
	}
	if v, ok := claims["email_verified"].(bool); ok {
		acc.EmailVerified = v
	}
	token, err := identity.CustomToken(&h.cfg.Identity, acc, str(claims, "role"), str(claims, "farm_id"))
	if err != nil {
		internalError(c, "Token refresh failed", "Unable to refresh token", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Token refreshed successfully",
		"token":   token,
	})
}

// Logout blacklists the presented access token for its remaining lifetime.
func (h *AuthHandler) Logout(c *gin.Context) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			raw := strings.TrimSpace(parts[1])
			if exp, err := auth.TokenExpiry(raw); err == nil {
				if ttl := time.Until(exp); ttl > 0 {
					if err := h.blacklist.Add(c.Request.Context(), raw, ttl); err != nil {
						internalError(c, "Logout failed", "Unable to process logout request", err)
						return
					}
				}
			}
		}
	}

	body, ok := bindBody(c)
	if !ok {
		return
	}
	if uid := str(body, "uid"); uid != "" {
		logger.Business("auth", "user_logout", map[string]interface{}{"userId": uid})
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}
