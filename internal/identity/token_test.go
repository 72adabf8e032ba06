package identity

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NYARANGA-ROB/Smart/internal/config"
)

func tokenConfig(secret string) *config.IdentityConfig {
	return &config.IdentityConfig{TokenSecret: secret, TokenTTL: 2 * time.Minute}
}

func TestCustomToken_RoundTrip(t *testing.T) {
	cfg := tokenConfig("test-secret-32-bytes-should-be-long-enough")
	acc := &Account{UID: "user-123", Email: "test@example.com", DisplayName: "Test User", PhoneNumber: "+254700000001"}

	tokenStr, err := CustomToken(cfg, acc, "farmer", "farm-9")
	require.NoError(t, err)

	claims, err := VerifyCustomToken(cfg, tokenStr)
	require.NoError(t, err)
	require.Equal(t, acc.UID, claims["sub"])
	require.Equal(t, "farmer", claims["role"])
	require.Equal(t, "farm-9", claims["farm_id"])
	require.Equal(t, acc.PhoneNumber, claims["phone_number"])
}

func TestCustomToken_OmitsEmptyOptionalClaims(t *testing.T) {
	cfg := tokenConfig("another-secret-32-bytes-longgggg")
	acc := &Account{UID: "u2", Email: "x@x.example"}

	tokenStr, err := CustomToken(cfg, acc, "farmer", "")
	require.NoError(t, err)

	claims, err := VerifyCustomToken(cfg, tokenStr)
	require.NoError(t, err)
	require.NotContains(t, claims, "farm_id")
	require.NotContains(t, claims, "phone_number")
}

func TestVerifyCustomToken_WrongSecretFails(t *testing.T) {
	cfg := tokenConfig("secret-one-32-bytes-xxxxxxxxxxxxxxxx")
	tokenStr, err := CustomToken(cfg, &Account{UID: "u3"}, "farmer", "")
	require.NoError(t, err)

	_, err = VerifyCustomToken(tokenConfig("different-secret-xxxxxxxxxxxxxxxx"), tokenStr)
	require.Error(t, err)
}

func TestVerifyCustomToken_Expired(t *testing.T) {
	cfg := &config.IdentityConfig{TokenSecret: "expiry-secret-32-bytes-xxxxxxxxxxx", TokenTTL: -time.Minute}
	tokenStr, err := CustomToken(cfg, &Account{UID: "u4"}, "farmer", "")
	require.NoError(t, err)

	_, err = VerifyCustomToken(cfg, tokenStr)
	require.Error(t, err)
}

func TestVerifyCustomToken_TamperedPayload(t *testing.T) {
	cfg := tokenConfig("tamper-test-secret-32-bytes-xxxxxxx")
	tokenStr, err := CustomToken(cfg, &Account{UID: "user-t"}, "farmer", "")
	require.NoError(t, err)

	parts := strings.Split(tokenStr, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	tampered := strings.Replace(string(payload), "user-t", "attacker", 1)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(tampered))

	_, err = VerifyCustomToken(cfg, strings.Join(parts, "."))
	require.Error(t, err)
}
