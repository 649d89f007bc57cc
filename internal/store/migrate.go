package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Cascade rules live in the schema: dropping a platform removes its
// movies, dropping a movie or a user removes the dependent reviews and
// tokens. The two named unique constraints back the duplicate checks
// done at write time.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            UUID PRIMARY KEY,
    username      VARCHAR(20) NOT NULL,
    email         VARCHAR(254) NOT NULL,
    password_hash TEXT NOT NULL,
    is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
    created       TIMESTAMPTZ NOT NULL,
    CONSTRAINT uq_user_username UNIQUE (username)
);

CREATE TABLE IF NOT EXISTS auth_tokens (
    id         UUID PRIMARY KEY,
    user_id    UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS platforms (
    id      UUID PRIMARY KEY,
    name    VARCHAR(30) NOT NULL,
    about   VARCHAR(50) NOT NULL,
    website VARCHAR(100) NOT NULL,
    CONSTRAINT uq_platform_name UNIQUE (name)
);

CREATE TABLE IF NOT EXISTS movies (
    id          UUID PRIMARY KEY,
    title       VARCHAR(50) NOT NULL,
    storyline   VARCHAR(200) NOT NULL,
    platform_id UUID NOT NULL REFERENCES platforms (id) ON DELETE CASCADE,
    active      BOOLEAN NOT NULL DEFAULT TRUE,
    avg_rating  DOUBLE PRECISION NOT NULL DEFAULT 0,
    num_ratings INTEGER NOT NULL DEFAULT 0,
    created     TIMESTAMPTZ NOT NULL,
    CONSTRAINT uq_movie_identity UNIQUE (title, storyline, platform_id)
);

CREATE TABLE IF NOT EXISTS reviews (
    id          UUID PRIMARY KEY,
    user_id     UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    rating      INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
    description VARCHAR(200) NOT NULL DEFAULT '',
    movie_id    UUID NOT NULL REFERENCES movies (id) ON DELETE CASCADE,
    active      BOOLEAN NOT NULL DEFAULT TRUE,
    created     TIMESTAMPTZ NOT NULL,
    updated     TIMESTAMPTZ NOT NULL,
    CONSTRAINT uq_movie_user_review UNIQUE (movie_id, user_id)
);
`

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
