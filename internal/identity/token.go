package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/NYARANGA-ROB/Smart/internal/config"
)

// CustomToken signs a short-lived HS256 token for the given account so a
// freshly registered or logged-in client can authenticate immediately.
func CustomToken(cfg *config.IdentityConfig, acc *Account, role, farmID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":            acc.UID,
		"email":          acc.Email,
		"name":           acc.DisplayName,
		"email_verified": acc.EmailVerified,
		"role":           role,
		"iat":            now.Unix(),
		"exp":            now.Add(cfg.TokenTTL).Unix(),
	}
	if acc.PhoneNumber != "" {
		claims["phone_number"] = acc.PhoneNumber
	}
	if farmID != "" {
		claims["farm_id"] = farmID
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.TokenSecret))
}

// VerifyCustomToken parses and validates a token issued by CustomToken and
// returns its claims.
func VerifyCustomToken(cfg *config.IdentityConfig, raw string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(cfg.TokenSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
