package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewAggregateScenario(t *testing.T) {
	env := newTestEnv(t)
	platform := env.seedPlatform(t, "Netflix")
	movie := env.seedMovie(t, platform.ID, "Movie X")
	_, tokenA := env.createUser(t, "alice", false)
	_, tokenB := env.createUser(t, "bob", false)

	// First rating becomes the average outright.
	rec := env.do(t, http.MethodPost, "/movies/"+movie.ID+"/review-create/", tokenA, map[string]interface{}{
		"rating": 5, "description": "Loved it",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "alice", decodeBody(t, rec)["review_user"])

	stored, err := env.store.GetMovieByID(context.Background(), movie.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, stored.AvgRating)
	assert.Equal(t, 1, stored.NumRatings)

	// Second rating moves the average to the midpoint.
	rec = env.do(t, http.MethodPost, "/movies/"+movie.ID+"/review-create/", tokenB, map[string]interface{}{
		"rating": 3, "description": "Fine",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	stored, err = env.store.GetMovieByID(context.Background(), movie.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, stored.AvgRating)
	assert.Equal(t, 2, stored.NumRatings)

	// A second attempt by the same account fails and leaves the
	// aggregate untouched.
	rec = env.do(t, http.MethodPost, "/movies/"+movie.ID+"/review-create/", tokenA, map[string]interface{}{
		"rating": 1, "description": "Changed my mind",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You have already reviewed this movie", decodeBody(t, rec)["error"])

	stored, err = env.store.GetMovieByID(context.Background(), movie.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, stored.AvgRating)
	assert.Equal(t, 2, stored.NumRatings)
}

func TestCreateReviewRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	platform := env.seedPlatform(t, "Netflix")
	movie := env.seedMovie(t, platform.ID, "Movie X")

	rec := env.do(t, http.MethodPost, "/movies/"+movie.ID+"/review-create/", "", map[string]interface{}{
		"rating": 5,
	})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication credentials were not provided", decodeBody(t, rec)["error"])
}

func TestCreateReviewUnknownMovie(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser(t, "alice", false)

	rec := env.do(t, http.MethodPost, "/movies/"+uuid.NewString()+"/review-create/", token, map[string]interface{}{
		"rating": 5,
	})

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Movie not found", decodeBody(t, rec)["error"])
}

func TestCreateReviewValidation(t *testing.T) {
	env := newTestEnv(t)
	platform := env.seedPlatform(t, "Netflix")
	movie := env.seedMovie(t, platform.ID, "Movie X")
	_, token := env.createUser(t, "alice", false)

	rec := env.do(t, http.MethodPost, "/movies/"+movie.ID+"/review-create/", token, map[string]interface{}{
		"rating": 6,
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeBody(t, rec)["errors"].(map[string]interface{})
	assert.Contains(t, fields, "rating")
}

func TestCreateReviewRateLimited(t *testing.T) {
	env := newTestEnvWithRate(t, 2, time.Minute)
	platform := env.seedPlatform(t, "Netflix")
	_, token := env.createUser(t, "alice", false)

	for i := 0; i < 2; i++ {
		movie := env.seedMovie(t, platform.ID, fmt.Sprintf("Movie %d", i))
		rec := env.do(t, http.MethodPost, "/movies/"+movie.ID+"/review-create/", token, map[string]interface{}{
			"rating": 4,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	movie := env.seedMovie(t, platform.ID, "Movie over the limit")
	rec := env.do(t, http.MethodPost, "/movies/"+movie.ID+"/review-create/", token, map[string]interface{}{
		"rating": 4,
	})

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Request was throttled", decodeBody(t, rec)["error"])
}

func TestListMovieReviewsFilters(t *testing.T) {
	env := newTestEnv(t)
	platform := env.seedPlatform(t, "Netflix")
	movie := env.seedMovie(t, platform.ID, "Movie X")
	_, tokenA := env.createUser(t, "alice", false)
	_, tokenB := env.createUser(t, "bob", false)

	rec := env.do(t, http.MethodPost, "/movies/"+movie.ID+"/review-create/", tokenA, map[string]interface{}{
		"rating": 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(t, http.MethodPost, "/movies/"+movie.ID+"/review-create/", tokenB, map[string]interface{}{
		"rating": 3,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	bobReview := decodeBody(t, rec)

	// Deactivate bob's review.
	rec = env.do(t, http.MethodPut, "/reviews/"+bobReview["id"].(string)+"/", tokenB, map[string]interface{}{
		"active": false,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/movies/"+movie.ID+"/reviews/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reviews []map[string]interface{}
	decodeJSON(t, rec.Body.Bytes(), &reviews)
	require.Len(t, reviews, 2)
	// Creation order.
	assert.Equal(t, "alice", reviews[0]["review_user"])
	assert.Equal(t, "bob", reviews[1]["review_user"])

	rec = env.do(t, http.MethodGet, "/movies/"+movie.ID+"/reviews/?review_user__username=bob", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeJSON(t, rec.Body.Bytes(), &reviews)
	require.Len(t, reviews, 1)
	assert.Equal(t, "bob", reviews[0]["review_user"])

	rec = env.do(t, http.MethodGet, "/movies/"+movie.ID+"/reviews/?active=true", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeJSON(t, rec.Body.Bytes(), &reviews)
	require.Len(t, reviews, 1)
	assert.Equal(t, "alice", reviews[0]["review_user"])
}

func TestListMovieReviewsUnknownMovieIsEmpty(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/movies/"+uuid.NewString()+"/reviews/", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var reviews []map[string]interface{}
	decodeJSON(t, rec.Body.Bytes(), &reviews)
	assert.Empty(t, reviews)
}

func TestUpdateReviewOwnership(t *testing.T) {
	env := newTestEnv(t)
	platform := env.seedPlatform(t, "Netflix")
	movie := env.seedMovie(t, platform.ID, "Movie X")
	_, ownerToken := env.createUser(t, "alice", false)
	_, otherToken := env.createUser(t, "bob", false)
	_, adminToken := env.createUser(t, "root", true)

	rec := env.do(t, http.MethodPost, "/movies/"+movie.ID+"/review-create/", ownerToken, map[string]interface{}{
		"rating": 5, "description": "Loved it",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	reviewID := decodeBody(t, rec)["id"].(string)

	rec = env.do(t, http.MethodPut, "/reviews/"+reviewID+"/", "", map[string]interface{}{"rating": 1})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPut, "/reviews/"+reviewID+"/", otherToken, map[string]interface{}{"rating": 1})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You do not have permission to perform this action", decodeBody(t, rec)["error"])

	rec = env.do(t, http.MethodPut, "/reviews/"+reviewID+"/", ownerToken, map[string]interface{}{"rating": 2})
	assert.Equal(t, http.StatusOK, rec.Code)

	// An admin may edit anyone's review.
	rec = env.do(t, http.MethodPut, "/reviews/"+reviewID+"/", adminToken, map[string]interface{}{"rating": 3})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateReviewLeavesAggregateAndTimestamp(t *testing.T) {
	env := newTestEnv(t)
	platform := env.seedPlatform(t, "Netflix")
	movie := env.seedMovie(t, platform.ID, "Movie X")
	_, token := env.createUser(t, "alice", false)

	rec := env.do(t, http.MethodPost, "/movies/"+movie.ID+"/review-create/", token, map[string]interface{}{
		"rating": 5, "description": "Loved it",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	reviewID := decodeBody(t, rec)["id"].(string)

	before, err := env.store.GetReviewByID(context.Background(), reviewID)
	require.NoError(t, err)

	rec = env.do(t, http.MethodPut, "/reviews/"+reviewID+"/", token, map[string]interface{}{
		"rating": 1, "description": "On reflection, not great",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	after, err := env.store.GetReviewByID(context.Background(), reviewID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.Rating)
	assert.Equal(t, "On reflection, not great", after.Description)
	// The edit does not refresh the updated timestamp.
	assert.True(t, after.Updated.Equal(before.Updated))

	// And the movie aggregate still reflects the rating as created.
	stored, err := env.store.GetMovieByID(context.Background(), movie.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, stored.AvgRating)
	assert.Equal(t, 1, stored.NumRatings)
}

func TestDeleteReviewOwnership(t *testing.T) {
	env := newTestEnv(t)
	platform := env.seedPlatform(t, "Netflix")
	movie := env.seedMovie(t, platform.ID, "Movie X")
	_, ownerToken := env.createUser(t, "alice", false)
	_, otherToken := env.createUser(t, "bob", false)

	rec := env.do(t, http.MethodPost, "/movies/"+movie.ID+"/review-create/", ownerToken, map[string]interface{}{
		"rating": 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	reviewID := decodeBody(t, rec)["id"].(string)

	rec = env.do(t, http.MethodDelete, "/reviews/"+reviewID+"/", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, "/reviews/"+reviewID+"/", ownerToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/reviews/"+reviewID+"/", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListReviewsByUserAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	platform := env.seedPlatform(t, "Netflix")
	_, userToken := env.createUser(t, "alice", false)
	_, adminToken := env.createUser(t, "root", true)

	for i := 0; i < 2; i++ {
		movie := env.seedMovie(t, platform.ID, fmt.Sprintf("Movie %d", i))
		rec := env.do(t, http.MethodPost, "/movies/"+movie.ID+"/review-create/", userToken, map[string]interface{}{
			"rating": 4,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/reviews/by-user/alice/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/reviews/by-user/alice/", userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/reviews/by-user/alice/", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reviews []map[string]interface{}
	decodeJSON(t, rec.Body.Bytes(), &reviews)
	require.Len(t, reviews, 2)
	for _, r := range reviews {
		assert.Equal(t, "alice", r["review_user"])
	}
}
