package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchlist-service/internal/store"
)

func TestListPlatformsOpenToAnonymous(t *testing.T) {
	env := newTestEnv(t)
	env.seedPlatform(t, "Netflix")
	env.seedPlatform(t, "Amazon")

	rec := env.do(t, http.MethodGet, "/platforms/", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var platforms []map[string]interface{}
	decodeJSON(t, rec.Body.Bytes(), &platforms)
	require.Len(t, platforms, 2)
	// Ordered by name.
	assert.Equal(t, "Amazon", platforms[0]["name"])
	assert.Equal(t, "Netflix", platforms[1]["name"])
}

func TestCreatePlatformAccessControl(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.createUser(t, "alice", false)
	_, adminToken := env.createUser(t, "root", true)

	body := map[string]string{
		"name":    "Netflix",
		"about":   "Streaming service",
		"website": "https://netflix.example.com",
	}

	rec := env.do(t, http.MethodPost, "/platforms/", "", body)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication credentials were not provided", decodeBody(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/platforms/", userToken, body)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You do not have permission to perform this action", decodeBody(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/platforms/", adminToken, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody(t, rec)
	assert.Equal(t, "Netflix", created["name"])
	assert.NotEmpty(t, created["id"])
}

func TestCreatePlatformValidation(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(t, "root", true)

	rec := env.do(t, http.MethodPost, "/platforms/", adminToken, map[string]string{
		"name":    "",
		"about":   "Streaming service",
		"website": "not-a-url",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeBody(t, rec)["errors"].(map[string]interface{})
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "website")
}

func TestCreatePlatformDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(t, "root", true)
	env.seedPlatform(t, "Netflix")

	rec := env.do(t, http.MethodPost, "/platforms/", adminToken, map[string]string{
		"name":    "Netflix",
		"about":   "Another one",
		"website": "https://other.example.com",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeBody(t, rec)["errors"].(map[string]interface{})
	assert.Equal(t, "platform with this name already exists", fields["name"])
}

func TestGetPlatformNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/platforms/"+uuid.NewString()+"/", "", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decodeBody(t, rec)["error"])
}

func TestGetPlatformIncludesMovies(t *testing.T) {
	env := newTestEnv(t)
	platform := env.seedPlatform(t, "Netflix")
	env.seedMovie(t, platform.ID, "Movie X")

	rec := env.do(t, http.MethodGet, "/platforms/"+platform.ID+"/", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	movies := body["movies"].([]interface{})
	require.Len(t, movies, 1)
	assert.Equal(t, "Movie X", movies[0].(map[string]interface{})["title"])
}

func TestUpdatePlatform(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(t, "root", true)
	platform := env.seedPlatform(t, "Netflix")

	rec := env.do(t, http.MethodPut, "/platforms/"+platform.ID+"/", adminToken, map[string]string{
		"name":    "Netflix Intl",
		"about":   "Streaming, worldwide",
		"website": "https://netflix.example.com",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Netflix Intl", decodeBody(t, rec)["name"])

	stored, err := env.store.GetPlatformByID(context.Background(), platform.ID)
	require.NoError(t, err)
	assert.Equal(t, "Netflix Intl", stored.Name)
}

func TestDeletePlatformCascades(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(t, "root", true)
	platform := env.seedPlatform(t, "Netflix")
	movie := env.seedMovie(t, platform.ID, "Movie X")

	rec := env.do(t, http.MethodDelete, "/platforms/"+platform.ID+"/", adminToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	_, err := env.store.GetPlatformByID(context.Background(), platform.ID)
	assert.ErrorIs(t, err, store.ErrPlatformNotFound)
	_, err = env.store.GetMovieByID(context.Background(), movie.ID)
	assert.ErrorIs(t, err, store.ErrMovieNotFound)
}
