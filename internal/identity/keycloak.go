package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/NYARANGA-ROB/Smart/internal/config"
)

// Keycloak implements Provider against a Keycloak-compatible realm admin API.
// Admin calls authenticate with a client-credentials token which is cached
// until shortly before expiry.
type Keycloak struct {
	cfg    config.IdentityConfig
	client *http.Client

	mu          sync.Mutex
	adminToken  string
	adminExpiry time.Time
}

func NewKeycloak(cfg config.IdentityConfig) *Keycloak {
	return &Keycloak{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (k *Keycloak) adminURL(path string) string {
	return strings.TrimRight(k.cfg.URL, "/") + "/admin/realms/" + k.cfg.Realm + path
}

// token returns a cached client-credentials access token, refreshing it when
// less than 30 seconds of lifetime remain.
func (k *Keycloak) token(ctx context.Context) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.adminToken != "" && time.Until(k.adminExpiry) > 30*time.Second {
		return k.adminToken, nil
	}

	tokenURL := strings.TrimRight(k.cfg.URL, "/") + "/realms/" + k.cfg.Realm + "/protocol/openid-connect/token"
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", k.cfg.ClientID)
	form.Set("client_secret", k.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := k.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(b))
	}
	var tr struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", err
	}
	k.adminToken = tr.AccessToken
	k.adminExpiry = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	return k.adminToken, nil
}

func (k *Keycloak) do(ctx context.Context, method, u string, body interface{}) (*http.Response, error) {
	tok, err := k.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin token: %w", err)
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return k.client.Do(req)
}

// keycloakUser is the realm API's user representation, trimmed to the fields
// used here.
type keycloakUser struct {
	ID            string              `json:"id,omitempty"`
	Email         string              `json:"email"`
	Username      string              `json:"username,omitempty"`
	Enabled       bool                `json:"enabled"`
	EmailVerified bool                `json:"emailVerified"`
	FirstName     string              `json:"firstName,omitempty"`
	LastName      string              `json:"lastName,omitempty"`
	Attributes    map[string][]string `json:"attributes,omitempty"`
	Credentials   []map[string]interface{} `json:"credentials,omitempty"`
}

func (u *keycloakUser) account() *Account {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	var phone string
	if v := u.Attributes["phoneNumber"]; len(v) > 0 {
		phone = v[0]
	}
	return &Account{
		UID:           u.ID,
		Email:         u.Email,
		DisplayName:   name,
		PhoneNumber:   phone,
		EmailVerified: u.EmailVerified,
		Disabled:      !u.Enabled,
	}
}

func (k *Keycloak) Create(ctx context.Context, acc NewAccount) (*Account, error) {
	first, last := splitName(acc.DisplayName)
	payload := keycloakUser{
		Email:     acc.Email,
		Username:  acc.Email,
		Enabled:   true,
		FirstName: first,
		LastName:  last,
		Credentials: []map[string]interface{}{
			{"type": "password", "value": acc.Password, "temporary": false},
		},
	}
	if acc.PhoneNumber != "" {
		payload.Attributes = map[string][]string{"phoneNumber": {acc.PhoneNumber}}
	}
	resp, err := k.do(ctx, http.MethodPost, k.adminURL("/users"), payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("create user returned %d: %s", resp.StatusCode, string(b))
	}
	// The new user's id arrives in the Location header.
	loc := resp.Header.Get("Location")
	uid := loc[strings.LastIndex(loc, "/")+1:]
	return &Account{
		UID:         uid,
		Email:       acc.Email,
		DisplayName: acc.DisplayName,
		PhoneNumber: acc.PhoneNumber,
	}, nil
}

func (k *Keycloak) GetByEmail(ctx context.Context, email string) (*Account, error) {
	u := k.adminURL("/users") + "?exact=true&email=" + url.QueryEscape(email)
	resp, err := k.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("lookup user returned %d: %s", resp.StatusCode, string(b))
	}
	var users []keycloakUser
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users[0].account(), nil
}

func (k *Keycloak) SetEmailVerified(ctx context.Context, uid string, verified bool) error {
	resp, err := k.do(ctx, http.MethodPut, k.adminURL("/users/"+uid), map[string]interface{}{
		"emailVerified": verified,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("update user returned %d: %s", resp.StatusCode, string(b))
	}
	return nil
}

// PasswordResetLink triggers the provider's reset flow and returns the action
// link for inclusion in the reset email.
func (k *Keycloak) PasswordResetLink(ctx context.Context, email string) (string, error) {
	acc, err := k.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if acc == nil {
		return "", fmt.Errorf("no account for %s", email)
	}
	resp, err := k.do(ctx, http.MethodPut, k.adminURL("/users/"+acc.UID+"/execute-actions-email"), []string{"UPDATE_PASSWORD"})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("reset action returned %d: %s", resp.StatusCode, string(b))
	}
	return strings.TrimRight(k.cfg.URL, "/") + "/realms/" + k.cfg.Realm + "/login-actions/reset-credentials", nil
}

func splitName(display string) (first, last string) {
	parts := strings.Fields(display)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
