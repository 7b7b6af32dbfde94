package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store bundles the database handle and the repositories built on it.
type Store struct {
	db *gorm.DB

	Users    *UserRepository
	Rooms    *RoomRepository
	Messages *MessageRepository
}

// Open connects to the database named by databaseURL. postgres:// and
// postgresql:// URLs use the PostgreSQL driver; anything else is treated as
// an SQLite path (a sqlite:// prefix is accepted and stripped).
func Open(databaseURL string) (*Store, error) {
	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		dialector = postgres.Open(databaseURL)
	case strings.HasPrefix(databaseURL, "sqlite://"):
		dialector = sqlite.Open(sqliteDSN(strings.TrimPrefix(databaseURL, "sqlite://")))
	default:
		dialector = sqlite.Open(sqliteDSN(databaseURL))
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return &Store{
		db:       db,
		Users:    &UserRepository{db: db},
		Rooms:    &RoomRepository{db: db},
		Messages: &MessageRepository{db: db},
	}, nil
}

// sqliteDSN appends the foreign-keys pragma to the path. The pragma is
// per-connection in SQLite, so it has to ride the DSN to reach every pooled
// connection, not just the first one.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&_pragma=foreign_keys(1)"
	}
	return path + "?_pragma=foreign_keys(1)"
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
