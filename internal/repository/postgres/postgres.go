// Package postgres implements the domain repositories on PostgreSQL
// through gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/msomdec/microblog/internal/domain"
)

// DB wraps a gorm connection and provides access to all repositories.
type DB struct {
	Gorm *gorm.DB

	logger   *slog.Logger
	users    *userRepo
	posts    *postRepo
	comments *commentRepo
	tokens   *revokedTokenRepo
}

// Connect opens a PostgreSQL database and verifies it answers.
func Connect(dsn string, log *slog.Logger) (*DB, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm postgres: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("resolve postgres sql db handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(gdb, log), nil
}

// New wraps an already opened gorm connection.
func New(gdb *gorm.DB, log *slog.Logger) *DB {
	if log == nil {
		log = slog.Default()
	}
	db := &DB{Gorm: gdb, logger: log}
	db.users = &userRepo{db: gdb, logger: log}
	db.posts = &postRepo{db: gdb, logger: log}
	db.comments = &commentRepo{db: gdb, logger: log}
	db.tokens = &revokedTokenRepo{db: gdb, logger: log}
	return db
}

// Migrate creates or updates the schema, including the cascading
// foreign keys from posts, comments and likes.
func (db *DB) Migrate(ctx context.Context) error {
	err := db.Gorm.WithContext(ctx).AutoMigrate(
		&userModel{},
		&postModel{},
		&commentModel{},
		&likeModel{},
		&revokedTokenModel{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	db.logger.Info("postgres schema migrated")
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (db *DB) Close() error {
	if db == nil || db.Gorm == nil {
		return nil
	}
	sqlDB, err := db.Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (db *DB) Users() domain.UserRepository                 { return db.users }
func (db *DB) Posts() domain.PostRepository                 { return db.posts }
func (db *DB) Comments() domain.CommentRepository           { return db.comments }
func (db *DB) RevokedTokens() domain.RevokedTokenRepository { return db.tokens }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func logError(log *slog.Logger, event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+6)
	fields = append(fields,
		"event", event,
		"layer", "repository",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	log.Error("postgres repository operation failed", fields...)
	return err
}
