package identity

import "context"

// Account is a user record held by the identity provider.
type Account struct {
	UID           string `json:"id"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	PhoneNumber   string `json:"phoneNumber"`
	EmailVerified bool   `json:"emailVerified"`
	Disabled      bool   `json:"disabled"`
}

// NewAccount carries the fields needed to register an account.
type NewAccount struct {
	Email       string
	Password    string
	DisplayName string
	PhoneNumber string
}

// Provider is the identity backend the auth handlers talk to. GetByEmail
// returns (nil, nil) when no account carries the address.
type Provider interface {
	Create(ctx context.Context, acc NewAccount) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	SetEmailVerified(ctx context.Context, uid string, verified bool) error
	PasswordResetLink(ctx context.Context, email string) (string, error)
}
