package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Fake is an in-memory Provider used in tests and local development.
type Fake struct {
	mu       sync.Mutex
	accounts map[string]*Account // keyed by email

	CreateErr error
	ResetLink string
}

func NewFake() *Fake {
	return &Fake{accounts: make(map[string]*Account), ResetLink: "https://id.example.com/reset"}
}

func (f *Fake) Create(ctx context.Context, acc NewAccount) (*Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	if _, ok := f.accounts[acc.Email]; ok {
		return nil, fmt.Errorf("account exists for %s", acc.Email)
	}
	a := &Account{
		UID:         uuid.NewString(),
		Email:       acc.Email,
		DisplayName: acc.DisplayName,
		PhoneNumber: acc.PhoneNumber,
	}
	f.accounts[acc.Email] = a
	return a, nil
}

func (f *Fake) GetByEmail(ctx context.Context, email string) (*Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[email]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *Fake) SetEmailVerified(ctx context.Context, uid string, verified bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.UID == uid {
			a.EmailVerified = verified
			return nil
		}
	}
	return fmt.Errorf("no account %s", uid)
}

func (f *Fake) PasswordResetLink(ctx context.Context, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[email]; !ok {
		return "", fmt.Errorf("no account for %s", email)
	}
	return f.ResetLink, nil
}
