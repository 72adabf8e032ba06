package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/NYARANGA-ROB/Smart/internal/advisory"
	"github.com/NYARANGA-ROB/Smart/internal/auth"
	"github.com/NYARANGA-ROB/Smart/internal/config"
	"github.com/NYARANGA-ROB/Smart/internal/crops"
	"github.com/NYARANGA-ROB/Smart/internal/farms"
	"github.com/NYARANGA-ROB/Smart/internal/identity"
	"github.com/NYARANGA-ROB/Smart/internal/mailer"
	"github.com/NYARANGA-ROB/Smart/internal/models"
	"github.com/NYARANGA-ROB/Smart/internal/users"
	"github.com/NYARANGA-ROB/Smart/internal/ws"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Identity: config.IdentityConfig{
			TokenSecret: "handler-test-secret",
			TokenTTL:    time.Hour,
		},
		CORS: config.CORSConfig{FrontendURL: "http://localhost:3000"},
	}
}

// recordingSender captures outgoing mail instead of dialing SMTP.
type recordingSender struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (s *recordingSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *recordingSender) last() sentMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[len(s.sent)-1]
}

// customTokens verifies the HS256 tokens the auth routes themselves issue, so
// tests exercise the real mint/verify round trip.
type customTokens struct {
	cfg *config.IdentityConfig
}

type mapToken struct {
	claims map[string]interface{}
}

func (t *mapToken) Claims(v interface{}) error {
	if mm, ok := v.(*map[string]interface{}); ok {
		*mm = t.claims
		return nil
	}
	b, err := json.Marshal(t.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func (ct *customTokens) Verify(ctx context.Context, raw string) (auth.Token, error) {
	claims, err := identity.VerifyCustomToken(ct.cfg, raw)
	if err != nil {
		return nil, err
	}
	return &mapToken{claims: claims}, nil
}

// testEnv bundles the in-memory backends one handler test needs.
type testEnv struct {
	cfg       *config.Config
	provider  *identity.Fake
	users     *users.Service
	farms     *farms.Service
	crops     *crops.Service
	plans     *crops.MemoryPlanRepository
	advisory  *advisory.Fake
	sender    *recordingSender
	mail      *mailer.Dispatcher
	blacklist *auth.Blacklist
	verifier  *auth.Verifier
	hub       *ws.Hub
}

func newTestEnv(t *testing.T, catalog ...*models.Crop) *testEnv {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	cfg := testConfig()
	sender := &recordingSender{}
	bl := auth.NewBlacklist(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	plans := crops.NewMemoryPlanRepository()
	return &testEnv{
		cfg:       cfg,
		provider:  identity.NewFake(),
		users:     users.NewService(users.NewMemoryRepository()),
		farms:     farms.NewService(farms.NewMemoryRepository()),
		crops:     crops.NewService(plans, crops.NewMemoryCatalogRepository(catalog...)),
		plans:     plans,
		advisory:  advisory.NewFake(),
		sender:    sender,
		mail:      mailer.NewDispatcher(sender),
		blacklist: bl,
		verifier:  auth.NewVerifier(&customTokens{cfg: &cfg.Identity}, bl),
		hub:       ws.NewHub(),
	}
}

// token mints a bearer token the way login does.
func (e *testEnv) token(t *testing.T, uid, email, role, farmID string) string {
	t.Helper()
	tok, err := identity.CustomToken(&e.cfg.Identity, &identity.Account{
		UID:         uid,
		Email:       email,
		DisplayName: "Test User",
	}, role, farmID)
	require.NoError(t, err)
	return tok
}

func doJSON(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		raw, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
