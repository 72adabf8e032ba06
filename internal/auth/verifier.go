package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Verification failures map to distinct client actions, so the four cases
// stay distinguishable all the way to the HTTP response.
var (
	ErrMissingToken = errors.New("access token required")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
	ErrTokenInvalid = errors.New("token invalid")
)

// ErrUnavailable reports an infrastructure failure during verification (the
// revocation store could not be reached). It is not a verdict on the token.
var ErrUnavailable = errors.New("token verification unavailable")

// Token is the minimal interface for a verified token that can expose claims.
type Token interface {
	Claims(v interface{}) error
}

// TokenVerifier performs the raw cryptographic verification. Satisfied by the
// OIDC-backed implementation and by test fakes.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// Verifier validates bearer tokens against the identity provider and the
// revocation blacklist, yielding a Claims record per request.
type Verifier struct {
	tokens    TokenVerifier
	blacklist *Blacklist
}

func NewVerifier(tokens TokenVerifier, blacklist *Blacklist) *Verifier {
	return &Verifier{tokens: tokens, blacklist: blacklist}
}

// Verify returns Claims for a raw bearer token, or one of ErrMissingToken,
// ErrTokenExpired, ErrTokenRevoked, ErrTokenInvalid.
func (v *Verifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}

	revoked, err := v.blacklist.Contains(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: blacklist check: %v", ErrUnavailable, err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	tok, err := v.tokens.Verify(ctx, raw)
	if err != nil {
		var expired *oidc.TokenExpiredError
		if errors.As(err, &expired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	var m map[string]interface{}
	if err := tok.Claims(&m); err != nil {
		return nil, fmt.Errorf("%w: parse claims: %v", ErrTokenInvalid, err)
	}
	return ClaimsFromMap(m), nil
}

// OIDCVerifier adapts the go-oidc token verifier to TokenVerifier using
// provider discovery for the configured issuer.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &OIDCVerifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

func (o *OIDCVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	idToken, err := o.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}
