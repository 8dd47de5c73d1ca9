package domain

import "context"

// Database defines lifecycle operations for the underlying database and
// hands out its repositories. Each implementation (SQLite, Postgres) owns
// its own schema strategy, so the whole backend is swappable.
type Database interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error

	Users() UserRepository
	Posts() PostRepository
	Comments() CommentRepository
	RevokedTokens() RevokedTokenRepository
}
