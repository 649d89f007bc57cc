package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"watchlist-service/internal/domain"
)

// MemoryStore holds the whole data set in process memory behind one
// mutex. It implements every store interface with the same semantics as
// the Postgres stores, cascade deletes included, and backs the handler
// tests. Stored values are copied on the way in and out so callers can
// never mutate shared state through a returned pointer.
type MemoryStore struct {
	mu          sync.RWMutex
	platforms   map[string]*domain.Platform
	movies      map[string]*domain.Movie
	reviews     map[string]*domain.Review
	users       map[string]*domain.User
	tokens      map[string]*domain.AuthToken
	movieOrder  []string // creation order, mirrors ORDER BY created
	reviewOrder []string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		platforms: make(map[string]*domain.Platform),
		movies:    make(map[string]*domain.Movie),
		reviews:   make(map[string]*domain.Review),
		users:     make(map[string]*domain.User),
		tokens:    make(map[string]*domain.AuthToken),
	}
}

func (m *MemoryStore) copyReview(r *domain.Review) *domain.Review {
	cp := *r
	return &cp
}

// copyMovie assembles a movie copy with platform name and, when asked,
// its reviews in creation order.
func (m *MemoryStore) copyMovie(mv *domain.Movie, withReviews bool) *domain.Movie {
	cp := *mv
	if p, ok := m.platforms[mv.PlatformID]; ok {
		cp.Platform = p.Name
	}
	cp.Reviews = []*domain.Review{}
	if withReviews {
		for _, id := range m.reviewOrder {
			if r := m.reviews[id]; r != nil && r.MovieID == mv.ID {
				cp.Reviews = append(cp.Reviews, m.copyReview(r))
			}
		}
	}
	return &cp
}

func (m *MemoryStore) copyPlatform(p *domain.Platform) *domain.Platform {
	cp := *p
	cp.Movies = []*domain.Movie{}
	for _, id := range m.movieOrder {
		if mv := m.movies[id]; mv != nil && mv.PlatformID == p.ID {
			cp.Movies = append(cp.Movies, m.copyMovie(mv, true))
		}
	}
	return &cp
}

// --- PlatformStore ---

func (m *MemoryStore) CreatePlatform(ctx context.Context, platform *domain.Platform) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.platforms {
		if p.Name == platform.Name {
			return ErrPlatformAlreadyExists
		}
	}
	cp := *platform
	cp.Movies = nil
	m.platforms[platform.ID] = &cp
	platform.Movies = []*domain.Movie{}
	return nil
}

func (m *MemoryStore) GetPlatformByID(ctx context.Context, id string) (*domain.Platform, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.platforms[id]
	if !ok {
		return nil, ErrPlatformNotFound
	}
	return m.copyPlatform(p), nil
}

func (m *MemoryStore) ListPlatforms(ctx context.Context) ([]*domain.Platform, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	platforms := []*domain.Platform{}
	for _, p := range m.platforms {
		platforms = append(platforms, m.copyPlatform(p))
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i].Name < platforms[j].Name })
	return platforms, nil
}

func (m *MemoryStore) UpdatePlatform(ctx context.Context, platform *domain.Platform) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.platforms[platform.ID]
	if !ok {
		return ErrPlatformNotFound
	}
	for _, p := range m.platforms {
		if p.ID != platform.ID && p.Name == platform.Name {
			return ErrPlatformAlreadyExists
		}
	}
	existing.Name = platform.Name
	existing.About = platform.About
	existing.Website = platform.Website
	return nil
}

func (m *MemoryStore) DeletePlatform(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.platforms[id]; !ok {
		return ErrPlatformNotFound
	}
	delete(m.platforms, id)
	for movieID, mv := range m.movies {
		if mv.PlatformID == id {
			m.deleteMovieLocked(movieID)
		}
	}
	return nil
}

// deleteMovieLocked removes a movie and its reviews. Caller holds mu.
func (m *MemoryStore) deleteMovieLocked(movieID string) {
	delete(m.movies, movieID)
	m.movieOrder = removeID(m.movieOrder, movieID)
	for reviewID, r := range m.reviews {
		if r.MovieID == movieID {
			delete(m.reviews, reviewID)
			m.reviewOrder = removeID(m.reviewOrder, reviewID)
		}
	}
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// --- MovieStore ---

func (m *MemoryStore) CreateMovie(ctx context.Context, movie *domain.Movie) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.platforms[movie.PlatformID]; !ok {
		return ErrPlatformNotFound
	}
	for _, mv := range m.movies {
		if mv.Title == movie.Title && mv.Storyline == movie.Storyline && mv.PlatformID == movie.PlatformID {
			return ErrMovieAlreadyExists
		}
	}
	movie.Created = time.Now().UTC()
	movie.AvgRating = 0
	movie.NumRatings = 0
	cp := *movie
	cp.Reviews = nil
	m.movies[movie.ID] = &cp
	m.movieOrder = append(m.movieOrder, movie.ID)
	movie.Reviews = []*domain.Review{}
	return nil
}

func (m *MemoryStore) GetMovieByID(ctx context.Context, id string) (*domain.Movie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mv, ok := m.movies[id]
	if !ok {
		return nil, ErrMovieNotFound
	}
	return m.copyMovie(mv, true), nil
}

func (m *MemoryStore) ListMovies(ctx context.Context, params MovieListParams) ([]*domain.Movie, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := []*domain.Movie{}
	needle := strings.ToLower(params.Search)
	for _, id := range m.movieOrder {
		mv := m.movies[id]
		if mv == nil {
			continue
		}
		if needle != "" {
			platformName := ""
			if p, ok := m.platforms[mv.PlatformID]; ok {
				platformName = p.Name
			}
			if !strings.Contains(strings.ToLower(mv.Title), needle) &&
				!strings.Contains(strings.ToLower(platformName), needle) {
				continue
			}
		}
		matched = append(matched, mv)
	}

	totalCount := len(matched)
	start := (params.Page - 1) * params.PageSize
	if start < 0 {
		start = 0
	}
	if start >= totalCount {
		return []*domain.Movie{}, totalCount, nil
	}
	end := start + params.PageSize
	if end > totalCount {
		end = totalCount
	}

	page := make([]*domain.Movie, 0, end-start)
	for _, mv := range matched[start:end] {
		page = append(page, m.copyMovie(mv, true))
	}
	return page, totalCount, nil
}

func (m *MemoryStore) UpdateMovie(ctx context.Context, movie *domain.Movie) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.movies[movie.ID]
	if !ok {
		return ErrMovieNotFound
	}
	for _, mv := range m.movies {
		if mv.ID != movie.ID && mv.Title == movie.Title && mv.Storyline == movie.Storyline && mv.PlatformID == movie.PlatformID {
			return ErrMovieAlreadyExists
		}
	}
	existing.Title = movie.Title
	existing.Storyline = movie.Storyline
	existing.PlatformID = movie.PlatformID
	existing.Active = movie.Active
	return nil
}

func (m *MemoryStore) DeleteMovie(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.movies[id]; !ok {
		return ErrMovieNotFound
	}
	m.deleteMovieLocked(id)
	return nil
}

// --- ReviewStore ---

func (m *MemoryStore) CreateReviewForMovie(ctx context.Context, movieID string, review *domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	movie, ok := m.movies[movieID]
	if !ok {
		return ErrMovieNotFound
	}
	for _, r := range m.reviews {
		if r.MovieID == movieID && r.UserID == review.UserID {
			return ErrDuplicateReview
		}
	}

	movie.AvgRating = domain.NextAverage(movie.AvgRating, movie.NumRatings, review.Rating)
	movie.NumRatings++

	review.MovieID = movieID
	review.Created = time.Now().UTC()
	review.Updated = review.Created
	if u, ok := m.users[review.UserID]; ok {
		review.ReviewUser = u.Username
	}
	cp := *review
	m.reviews[review.ID] = &cp
	m.reviewOrder = append(m.reviewOrder, review.ID)
	return nil
}

func (m *MemoryStore) GetReviewByID(ctx context.Context, id string) (*domain.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.reviews[id]
	if !ok {
		return nil, ErrReviewNotFound
	}
	return m.copyReview(r), nil
}

func (m *MemoryStore) UpdateReview(ctx context.Context, review *domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.reviews[review.ID]
	if !ok {
		return ErrReviewNotFound
	}
	// Updated keeps its creation value; the movie aggregate stays as-is.
	existing.Rating = review.Rating
	existing.Description = review.Description
	existing.Active = review.Active
	return nil
}

func (m *MemoryStore) DeleteReview(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.reviews[id]; !ok {
		return ErrReviewNotFound
	}
	delete(m.reviews, id)
	m.reviewOrder = removeID(m.reviewOrder, id)
	return nil
}

func (m *MemoryStore) ListReviewsByMovie(ctx context.Context, movieID string, params ReviewListParams) ([]*domain.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reviews := []*domain.Review{}
	for _, id := range m.reviewOrder {
		r := m.reviews[id]
		if r == nil || r.MovieID != movieID {
			continue
		}
		if params.Username != "" && r.ReviewUser != params.Username {
			continue
		}
		if params.Active != nil && r.Active != *params.Active {
			continue
		}
		reviews = append(reviews, m.copyReview(r))
	}
	return reviews, nil
}

func (m *MemoryStore) ListReviewsByUsername(ctx context.Context, username string) ([]*domain.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reviews := []*domain.Review{}
	for _, r := range m.reviews {
		if r.ReviewUser == username {
			reviews = append(reviews, m.copyReview(r))
		}
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].ID < reviews[j].ID })
	return reviews, nil
}

// --- UserStore ---

func (m *MemoryStore) CreateUser(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == user.Username {
			return ErrUserAlreadyExists
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MemoryStore) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

// --- TokenStore ---

func (m *MemoryStore) CreateToken(ctx context.Context, token *domain.AuthToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *token
	m.tokens[token.ID] = &cp
	return nil
}

func (m *MemoryStore) TokenExists(ctx context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.tokens[id]
	return ok, nil
}

func (m *MemoryStore) DeleteToken(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tokens, id)
	return nil
}

// --- interface views ---
//
// The store interfaces share method names (Create, GetByID, ...), so
// MemoryStore exposes one small adapter per interface instead of
// implementing them all on the same receiver.

type memoryPlatforms struct{ m *MemoryStore }
type memoryMovies struct{ m *MemoryStore }
type memoryReviews struct{ m *MemoryStore }
type memoryUsers struct{ m *MemoryStore }
type memoryTokens struct{ m *MemoryStore }

// Platforms returns the PlatformStore view of the data set.
func (m *MemoryStore) Platforms() PlatformStore { return memoryPlatforms{m} }

// Movies returns the MovieStore view of the data set.
func (m *MemoryStore) Movies() MovieStore { return memoryMovies{m} }

// Reviews returns the ReviewStore view of the data set.
func (m *MemoryStore) Reviews() ReviewStore { return memoryReviews{m} }

// Users returns the UserStore view of the data set.
func (m *MemoryStore) Users() UserStore { return memoryUsers{m} }

// Tokens returns the TokenStore view of the data set.
func (m *MemoryStore) Tokens() TokenStore { return memoryTokens{m} }

func (v memoryPlatforms) Create(ctx context.Context, platform *domain.Platform) error {
	return v.m.CreatePlatform(ctx, platform)
}

func (v memoryPlatforms) GetByID(ctx context.Context, id string) (*domain.Platform, error) {
	return v.m.GetPlatformByID(ctx, id)
}

func (v memoryPlatforms) List(ctx context.Context) ([]*domain.Platform, error) {
	return v.m.ListPlatforms(ctx)
}

func (v memoryPlatforms) Update(ctx context.Context, platform *domain.Platform) error {
	return v.m.UpdatePlatform(ctx, platform)
}

func (v memoryPlatforms) Delete(ctx context.Context, id string) error {
	return v.m.DeletePlatform(ctx, id)
}

func (v memoryMovies) Create(ctx context.Context, movie *domain.Movie) error {
	return v.m.CreateMovie(ctx, movie)
}

func (v memoryMovies) GetByID(ctx context.Context, id string) (*domain.Movie, error) {
	return v.m.GetMovieByID(ctx, id)
}

func (v memoryMovies) List(ctx context.Context, params MovieListParams) ([]*domain.Movie, int, error) {
	return v.m.ListMovies(ctx, params)
}

func (v memoryMovies) Update(ctx context.Context, movie *domain.Movie) error {
	return v.m.UpdateMovie(ctx, movie)
}

func (v memoryMovies) Delete(ctx context.Context, id string) error {
	return v.m.DeleteMovie(ctx, id)
}

func (v memoryReviews) CreateForMovie(ctx context.Context, movieID string, review *domain.Review) error {
	return v.m.CreateReviewForMovie(ctx, movieID, review)
}

func (v memoryReviews) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	return v.m.GetReviewByID(ctx, id)
}

func (v memoryReviews) Update(ctx context.Context, review *domain.Review) error {
	return v.m.UpdateReview(ctx, review)
}

func (v memoryReviews) Delete(ctx context.Context, id string) error {
	return v.m.DeleteReview(ctx, id)
}

func (v memoryReviews) ListByMovie(ctx context.Context, movieID string, params ReviewListParams) ([]*domain.Review, error) {
	return v.m.ListReviewsByMovie(ctx, movieID, params)
}

func (v memoryReviews) ListByUsername(ctx context.Context, username string) ([]*domain.Review, error) {
	return v.m.ListReviewsByUsername(ctx, username)
}

func (v memoryUsers) Create(ctx context.Context, user *domain.User) error {
	return v.m.CreateUser(ctx, user)
}

func (v memoryUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return v.m.GetUserByID(ctx, id)
}

func (v memoryUsers) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return v.m.GetUserByUsername(ctx, username)
}

func (v memoryTokens) Create(ctx context.Context, token *domain.AuthToken) error {
	return v.m.CreateToken(ctx, token)
}

func (v memoryTokens) Exists(ctx context.Context, id string) (bool, error) {
	return v.m.TokenExists(ctx, id)
}

func (v memoryTokens) Delete(ctx context.Context, id string) error {
	return v.m.DeleteToken(ctx, id)
}

var (
	_ PlatformStore = memoryPlatforms{}
	_ MovieStore    = memoryMovies{}
	_ ReviewStore   = memoryReviews{}
	_ UserStore     = memoryUsers{}
	_ TokenStore    = memoryTokens{}
)
