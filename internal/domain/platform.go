package domain

// Platform is a streaming service under which movies are catalogued.
type Platform struct {
	ID      string   `json:"id" db:"id"` // UUID
	Name    string   `json:"name" db:"name"`
	About   string   `json:"about" db:"about"`
	Website string   `json:"website" db:"website"`
	Movies  []*Movie `json:"movies" db:"-"` // populated by the store, never persisted here
}

// CreatePlatformRequest is the body for creating a platform.
type CreatePlatformRequest struct {
	Name    string `json:"name" validate:"required,max=30"`
	About   string `json:"about" validate:"required,max=50"`
	Website string `json:"website" validate:"required,url,max=100"`
}

// UpdatePlatformRequest replaces every writable field of a platform.
type UpdatePlatformRequest struct {
	Name    string `json:"name" validate:"required,max=30"`
	About   string `json:"about" validate:"required,max=50"`
	Website string `json:"website" validate:"required,url,max=100"`
}
