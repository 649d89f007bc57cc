package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"watchlist-service/internal/domain"
	"watchlist-service/internal/store"
	"watchlist-service/pkg/auth"
)

// testEnv wires the handlers to an in-memory store behind the real
// router, so tests exercise routing, middleware and handlers together.
type testEnv struct {
	store  *store.MemoryStore
	tokens auth.TokenManager
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	// A rate limit high enough to never trip in ordinary tests.
	return newTestEnvWithRate(t, 10000, time.Minute)
}

func newTestEnvWithRate(t *testing.T, limit int, window time.Duration) *testEnv {
	t.Helper()

	memStore := store.NewMemoryStore()
	tm, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(Stores{
		Platforms: memStore.Platforms(),
		Movies:    memStore.Movies(),
		Reviews:   memStore.Reviews(),
		Users:     memStore.Users(),
		Tokens:    memStore.Tokens(),
	}, logger, NewValidator(), tm)

	return &testEnv{
		store:  memStore,
		tokens: tm,
		router: NewRouter(handler, RouterConfig{ReviewRateLimit: limit, ReviewRateWindow: window}),
	}
}

// createUser inserts an account directly and logs it in, returning the
// account and a usable bearer token.
func (e *testEnv) createUser(t *testing.T, username string, isAdmin bool) (*domain.User, string) {
	t.Helper()
	ctx := context.Background()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		IsAdmin:      isAdmin,
		Created:      time.Now().UTC(),
	}
	require.NoError(t, e.store.CreateUser(ctx, user))

	token, claims, err := e.tokens.Generate(user.ID, user.Username, user.IsAdmin)
	require.NoError(t, err)
	require.NoError(t, e.store.CreateToken(ctx, &domain.AuthToken{
		ID:        claims.ID,
		UserID:    user.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}))
	return user, token
}

func (e *testEnv) seedPlatform(t *testing.T, name string) *domain.Platform {
	t.Helper()
	platform := &domain.Platform{
		ID:      uuid.NewString(),
		Name:    name,
		About:   "Streaming service",
		Website: "https://" + name + ".example.com",
	}
	require.NoError(t, e.store.CreatePlatform(context.Background(), platform))
	return platform
}

func (e *testEnv) seedMovie(t *testing.T, platformID, title string) *domain.Movie {
	t.Helper()
	movie := &domain.Movie{
		ID:         uuid.NewString(),
		Title:      title,
		Storyline:  "The storyline of " + title,
		PlatformID: platformID,
		Active:     true,
	}
	require.NoError(t, e.store.CreateMovie(context.Background(), movie))
	return movie
}

// do performs a request through the full router. A non-empty token is
// sent as a bearer credential; a non-nil body is encoded as JSON.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func decodeJSON(t *testing.T, raw []byte, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, out))
}
