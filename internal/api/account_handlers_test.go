package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/account/register/", "", map[string]string{
		"username":  "alice",
		"email":     "alice@example.com",
		"password":  "secret123",
		"password2": "secret123",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, false, body["is_admin"])
	assert.NotContains(t, rec.Body.String(), "secret123")
	assert.NotContains(t, body, "password_hash")
}

func TestRegisterPasswordMismatch(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/account/register/", "", map[string]string{
		"username":  "alice",
		"email":     "alice@example.com",
		"password":  "secret123",
		"password2": "different",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Password and password2 should be the same", decodeBody(t, rec)["error"])
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", false)

	rec := env.do(t, http.MethodPost, "/account/register/", "", map[string]string{
		"username":  "alice",
		"email":     "other@example.com",
		"password":  "secret123",
		"password2": "secret123",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "account with this username already exists", decodeBody(t, rec)["error"])
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/account/register/", "", map[string]string{
		"username":  "alice",
		"email":     "not-an-email",
		"password":  "short",
		"password2": "short",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeBody(t, rec)["errors"].(map[string]interface{})
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestLoginAndUseToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/account/register/", "", map[string]string{
		"username":  "alice",
		"email":     "alice@example.com",
		"password":  "secret123",
		"password2": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/account/login/", "", map[string]string{
		"username": "alice",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	token, _ := decodeBody(t, rec)["token"].(string)
	require.NotEmpty(t, token)

	// The issued token authenticates a protected request.
	platform := env.seedPlatform(t, "Netflix")
	movie := env.seedMovie(t, platform.ID, "Movie X")
	rec = env.do(t, http.MethodPost, "/movies/"+movie.ID+"/review-create/", token, map[string]interface{}{
		"rating": 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "alice", decodeBody(t, rec)["review_user"])
}

func TestLoginBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", false) // password is password123

	rec := env.do(t, http.MethodPost, "/account/login/", "", map[string]string{
		"username": "alice",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid username or password", decodeBody(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/account/login/", "", map[string]string{
		"username": "nobody",
		"password": "password123",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid username or password", decodeBody(t, rec)["error"])
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	platform := env.seedPlatform(t, "Netflix")
	movie := env.seedMovie(t, platform.ID, "Movie X")
	_, token := env.createUser(t, "alice", false)

	rec := env.do(t, http.MethodPost, "/account/logout/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Successfully logged out", decodeBody(t, rec)["message"])

	// The token still carries a valid signature but its record is gone,
	// so it no longer authenticates.
	rec = env.do(t, http.MethodPost, "/movies/"+movie.ID+"/review-create/", token, map[string]interface{}{
		"rating": 5,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", decodeBody(t, rec)["error"])
}

func TestLogoutRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/account/logout/", "", nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMalformedAuthorizationHeader(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/platforms/", "not a bearer credential", nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid Authorization header format", decodeBody(t, rec)["error"])
}

func TestGarbageTokenRejected(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/platforms/", "not.a.token", nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", decodeBody(t, rec)["error"])
}
