// Package syncstate prepares the canonical event set for calendar
// synchronization. It owns the upsert key contract, the mapping from
// key to remote calendar id, and the calendar body rendering. It never
// talks to a calendar API itself.
package syncstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Entry maps one synced event key to its remote calendar id.
type Entry struct {
	Key       string    `gorm:"column:key;type:text;primaryKey"`
	RemoteID  string    `gorm:"column:remote_id;type:text;not null"`
	Title     string    `gorm:"column:title;type:text;not null"`
	StartDate time.Time `gorm:"column:start_date;type:date;not null"`
	SyncedAt  time.Time `gorm:"column:synced_at;type:timestamptz;not null;default:now()"`
}

func (Entry) TableName() string { return "events.sync_entries" }

// Lookup resolves a sync key to the remote calendar id, if any.
type Lookup interface {
	RemoteID(ctx context.Context, key string) (string, bool, error)
}

// Store persists the key to remote-id mapping in Postgres.
type Store struct {
	gdb *gorm.DB
}

// Open connects to Postgres and migrates the sync schema.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	gdb, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm database: %w", err)
	}
	if err := gdb.WithContext(ctx).Exec("CREATE SCHEMA IF NOT EXISTS events").Error; err != nil {
		return nil, fmt.Errorf("create events schema: %w", err)
	}
	if err := gdb.WithContext(ctx).AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("auto-migrate sync entries: %w", err)
	}
	return &Store{gdb: gdb}, nil
}

// NewStore wraps an existing gorm handle. Used by tests and callers
// that manage the connection themselves.
func NewStore(gdb *gorm.DB) *Store {
	return &Store{gdb: gdb}
}

func (s *Store) RemoteID(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.gdb == nil {
		return "", false, fmt.Errorf("sync store is not initialized")
	}
	var entry Entry
	err := s.gdb.WithContext(ctx).First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup sync entry: %w", err)
	}
	return entry.RemoteID, true, nil
}

// Record stores or replaces the mapping after a successful remote call.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if s == nil || s.gdb == nil {
		return fmt.Errorf("sync store is not initialized")
	}
	if entry.Key == "" || entry.RemoteID == "" {
		return fmt.Errorf("sync entry needs key and remote id")
	}
	if entry.SyncedAt.IsZero() {
		entry.SyncedAt = time.Now().UTC()
	}
	err := s.gdb.WithContext(ctx).Save(&entry).Error
	if err != nil {
		return fmt.Errorf("save sync entry: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.gdb == nil {
		return nil
	}
	sqlDB, err := s.gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
