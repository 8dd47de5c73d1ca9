package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/msomdec/microblog/internal/domain"
	"github.com/msomdec/microblog/internal/repository/sqlite/migrations"

	_ "modernc.org/sqlite"
)

// DB is the SQLite implementation of domain.Database.
type DB struct {
	SqlDB *sql.DB

	users    *userRepo
	posts    *postRepo
	comments *commentRepo
	tokens   *revokedTokenRepo
}

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode and foreign keys.
func New(dbPath string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection serialises writers, which keeps like toggles and
	// read-modify-write updates atomic per record.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := sqlDB.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := sqlDB.PingContext(context.Background()); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{SqlDB: sqlDB}
	db.users = &userRepo{db: sqlDB}
	db.posts = &postRepo{db: sqlDB}
	db.comments = &commentRepo{db: sqlDB}
	db.tokens = &revokedTokenRepo{db: sqlDB}
	return db, nil
}

// Migrate applies the embedded schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, db.SqlDB)
}

func (db *DB) Ping(ctx context.Context) error {
	return db.SqlDB.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.SqlDB.Close()
}

func (db *DB) Users() domain.UserRepository                 { return db.users }
func (db *DB) Posts() domain.PostRepository                 { return db.posts }
func (db *DB) Comments() domain.CommentRepository           { return db.comments }
func (db *DB) RevokedTokens() domain.RevokedTokenRepository { return db.tokens }
