package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/NYARANGA-ROB/Smart/internal/identity"
	"github.com/NYARANGA-ROB/Smart/internal/models"
)

func newAuthRouter(t *testing.T) (*gin.Engine, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	r := gin.New()
	api := r.Group("/api")
	NewAuthHandler(env.cfg, env.provider, env.users, env.blacklist, env.mail).Register(api)
	return r, env
}

func registerBody(email string) map[string]interface{} {
	return map[string]interface{}{
		"email":       email,
		"password":    "secret-pass",
		"firstName":   "Amina",
		"lastName":    "Diallo",
		"phoneNumber": "221771234567",
		"location":    map[string]interface{}{"lat": 14.7, "lng": -17.4, "address": "Dakar"},
	}
}

func TestRegisterCreatesAccountProfileAndToken(t *testing.T) {
	r, env := newAuthRouter(t)

	w := doJSON(r, http.MethodPost, "/api/auth/register", "", registerBody("amina@example.com"))
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	require.Equal(t, "User registered successfully", body["message"])
	require.NotEmpty(t, body["token"])

	user := body["user"].(map[string]interface{})
	require.Equal(t, "farmer", user["role"])
	uid := user["uid"].(string)

	profile, err := env.users.Get(context.Background(), uid)
	require.NoError(t, err)
	require.NotNil(t, profile)
	require.Equal(t, "Amina", profile.FirstName)
	require.Equal(t, "en", profile.Language)
	require.Equal(t, 14.7, profile.Location.Lat)

	// Account phone numbers are normalized to E.164; the profile keeps the
	// submitted form.
	acc, err := env.provider.GetByEmail(context.Background(), "amina@example.com")
	require.NoError(t, err)
	require.Equal(t, "+221771234567", acc.PhoneNumber)
	require.Equal(t, "221771234567", profile.PhoneNumber)

	claims, err := identity.VerifyCustomToken(&env.cfg.Identity, body["token"].(string))
	require.NoError(t, err)
	require.Equal(t, uid, claims["sub"])
	require.Equal(t, "farmer", claims["role"])

	require.Eventually(t, func() bool { return env.sender.count() == 1 }, time.Second, 10*time.Millisecond)
	require.Equal(t, "amina@example.com", env.sender.last().To)
	require.Contains(t, env.sender.last().Subject, "Welcome")
}

func TestRegisterRejectsInvalidBody(t *testing.T) {
	r, _ := newAuthRouter(t)

	w := doJSON(r, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"email":    "not-an-email",
		"password": "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	require.Equal(t, "Validation failed", body["error"])
	// Every violation is reported, not just the first.
	require.GreaterOrEqual(t, len(body["details"].([]interface{})), 4)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	r, env := newAuthRouter(t)
	acc, err := env.provider.Create(context.Background(), identity.NewAccount{Email: "taken@example.com"})
	require.NoError(t, err)

	w := doJSON(r, http.MethodPost, "/api/auth/register", "", registerBody("taken@example.com"))
	require.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	require.Equal(t, "User already exists", body["error"])
	require.Equal(t, "An account with this email already exists", body["message"])

	profile, err := env.users.Get(context.Background(), acc.UID)
	require.NoError(t, err)
	require.Nil(t, profile)
}

func TestLogin(t *testing.T) {
	r, env := newAuthRouter(t)
	ctx := context.Background()
	acc, err := env.provider.Create(ctx, identity.NewAccount{Email: "kofi@example.com", DisplayName: "Kofi Mensah"})
	require.NoError(t, err)

	t.Run("no profile", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
			"email": "kofi@example.com", "password": "pw",
		})
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Equal(t, "User not found", decode(t, w)["error"])
	})

	profile := models.NewUserProfile(acc.UID)
	profile.Email = acc.Email
	require.NoError(t, env.users.Create(ctx, profile))

	t.Run("success", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
			"email": "kofi@example.com", "password": "pw",
		})
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		require.Equal(t, "Login successful", body["message"])
		require.NotEmpty(t, body["token"])
		user := body["user"].(map[string]interface{})
		require.Equal(t, acc.UID, user["uid"])
		require.Equal(t, "en", user["language"])

		stamped, err := env.users.Get(ctx, acc.UID)
		require.NoError(t, err)
		require.NotNil(t, stamped.LastLoginAt)
	})

	t.Run("unknown email", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
			"email": "nobody@example.com", "password": "pw",
		})
		require.Equal(t, http.StatusUnauthorized, w.Code)
		body := decode(t, w)
		require.Equal(t, "Authentication failed", body["error"])
		require.Equal(t, "Invalid email or password", body["message"])
	})
}

func TestForgotPasswordDoesNotRevealAccounts(t *testing.T) {
	r, env := newAuthRouter(t)
	_, err := env.provider.Create(context.Background(), identity.NewAccount{Email: "real@example.com"})
	require.NoError(t, err)

	known := doJSON(r, http.MethodPost, "/api/auth/forgot-password", "", map[string]interface{}{"email": "real@example.com"})
	unknown := doJSON(r, http.MethodPost, "/api/auth/forgot-password", "", map[string]interface{}{"email": "ghost@example.com"})

	require.Equal(t, http.StatusOK, known.Code)
	require.Equal(t, http.StatusOK, unknown.Code)
	require.Equal(t, known.Body.String(), unknown.Body.String())

	// Only the real account gets mail.
	require.Equal(t, 1, env.sender.count())
	require.Equal(t, "real@example.com", env.sender.last().To)
	require.Contains(t, env.sender.last().Body, env.provider.ResetLink)
}

func TestVerifyEmail(t *testing.T) {
	r, env := newAuthRouter(t)
	ctx := context.Background()
	acc, err := env.provider.Create(ctx, identity.NewAccount{Email: "verify@example.com"})
	require.NoError(t, err)
	token := env.token(t, acc.UID, acc.Email, "farmer", "")

	t.Run("missing token", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/auth/verify-email", "", map[string]interface{}{})
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, "Token required", decode(t, w)["error"])
	})

	t.Run("bad token", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/auth/verify-email", "", map[string]interface{}{"token": "garbage"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, "Email verification failed", decode(t, w)["error"])
	})

	t.Run("success", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/auth/verify-email", "", map[string]interface{}{"token": token})
		require.Equal(t, http.StatusOK, w.Code)
		updated, err := env.provider.GetByEmail(ctx, "verify@example.com")
		require.NoError(t, err)
		require.True(t, updated.EmailVerified)
	})
}

func TestRefreshToken(t *testing.T) {
	r, env := newAuthRouter(t)
	token := env.token(t, "user-7", "r@example.com", "agronomist", "farm-9")

	t.Run("missing", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/auth/refresh-token", "", map[string]interface{}{})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/auth/refresh-token", "", map[string]interface{}{"refreshToken": token + "x"})
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Equal(t, "Token refresh failed", decode(t, w)["error"])
	})

	t.Run("success", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/auth/refresh-token", "", map[string]interface{}{"refreshToken": token})
		require.Equal(t, http.StatusOK, w.Code)
		fresh := decode(t, w)["token"].(string)
		claims, err := identity.VerifyCustomToken(&env.cfg.Identity, fresh)
		require.NoError(t, err)
		require.Equal(t, "user-7", claims["sub"])
		require.Equal(t, "agronomist", claims["role"])
		require.Equal(t, "farm-9", claims["farm_id"])
	})
}

func TestLogoutBlacklistsToken(t *testing.T) {
	r, env := newAuthRouter(t)
	token := env.token(t, "user-1", "bye@example.com", "farmer", "")

	w := doJSON(r, http.MethodPost, "/api/auth/logout", token, map[string]interface{}{"uid": "user-1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Logout successful", decode(t, w)["message"])

	revoked, err := env.blacklist.Contains(context.Background(), token)
	require.NoError(t, err)
	require.True(t, revoked)

	// The verifier refuses blacklisted tokens from now on.
	_, err = env.verifier.Verify(context.Background(), token)
	require.Error(t, err)
}
