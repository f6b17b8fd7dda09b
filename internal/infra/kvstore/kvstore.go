// Package kvstore is the local persistence accessor: a string key-value table
// behind gorm. SQLite is the default driver (a file next to the binary, or
// ":memory:" in tests); Postgres is available for shared deployments.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type entry struct {
	Key       string `gorm:"column:kv_key;primaryKey;size:255"`
	Value     string `gorm:"column:kv_value;type:text;not null"`
	UpdatedAt time.Time
}

func (entry) TableName() string { return "kv_entries" }

// Config selects the backing database.
type Config struct {
	Driver string
	DSN    string
}

// Store implements port.KeyValueStore.
type Store struct {
	db *gorm.DB
}

// Open connects to the configured database and migrates the table.
func Open(cfg Config) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite, "":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "jobflow.db"
		}
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver != DriverPostgres {
		// SQLite allows a single writer; ":memory:" is also per-connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return New(db)
}

// New wraps an already opened gorm handle.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var e entry
	result := s.db.WithContext(ctx).Take(&e, "kv_key = ?", key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("kv get %q: %w", key, result.Error)
	}
	return e.Value, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	return upsert(s.db.WithContext(ctx), key, value)
}

// SetMany upserts every value inside one transaction.
func (s *Store) SetMany(ctx context.Context, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, k := range keys {
			if err := upsert(tx, k, values[k]); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsert(db *gorm.DB, key, value string) error {
	e := entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kv_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"kv_value", "updated_at"}),
	}).Create(&e)
	if result.Error != nil {
		return fmt.Errorf("kv set %q: %w", key, result.Error)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	result := s.db.WithContext(ctx).Delete(&entry{}, "kv_key = ?", key)
	if result.Error != nil {
		return fmt.Errorf("kv delete %q: %w", key, result.Error)
	}
	return nil
}

// Keys lists the keys starting with prefix, in lexical order.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	result := s.db.WithContext(ctx).Model(&entry{}).
		Where(`kv_key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%").
		Order("kv_key").
		Pluck("kv_key", &keys)
	if result.Error != nil {
		return nil, result.Error
	}
	return keys, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
