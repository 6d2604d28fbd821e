// Package dbstore persists history in a SQLite database through gorm.
package dbstore

import (
	"errors"
	"fmt"
	"sync"

	"github.com/yiblet/cliprecall/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// schemaVersion is written to the meta table on open.
const schemaVersion = "1"

// saveBatchSize bounds the rows inserted per statement.
const saveBatchSize = 100

// dsnOptions makes every transaction take the write lock up front and wait
// up to five seconds for another process holding it.
const dsnOptions = "?_busy_timeout=5000&_txlock=immediate"

// SQLiteStore is a SQLite-backed implementation of store.Backend
type SQLiteStore struct {
	mu     sync.Mutex
	db     *gorm.DB
	dbPath string
	closed bool
}

// NewSQLiteStore creates a new SQLite-backed store at the specified path.
// It initializes the database schema and records the schema version.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(dbPath+dsnOptions), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&EntryModel{}, &MetaModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	st := &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}

	if err := st.setMeta("db_version", schemaVersion); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to init meta: %w", err)
	}

	return st, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Load returns all entries ordered by position (newest first).
func (s *SQLiteStore) Load() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	return loadEntries(s.db)
}

// Save replaces the stored history with entries inside a single transaction.
func (s *SQLiteStore) Save(entries []string) error {
	return s.Update(func([]string) []string { return entries })
}

// Update reads the history and writes back fn's result in one transaction.
// Transactions begin immediately, so a concurrent writer in another process
// waits on the busy timeout instead of interleaving its read.
func (s *SQLiteStore) Update(fn func([]string) []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		current, err := loadEntries(tx)
		if err != nil {
			return err
		}
		return replaceEntries(tx, fn(current))
	})
	if err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

func loadEntries(db *gorm.DB) ([]string, error) {
	var models []EntryModel
	if err := db.Order("position ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}

	entries := make([]string, len(models))
	for i, m := range models {
		entries[i] = m.Text
	}
	return entries, nil
}

func replaceEntries(tx *gorm.DB, entries []string) error {
	if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&EntryModel{}).Error; err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	models := make([]EntryModel, len(entries))
	for i, text := range entries {
		models[i] = newEntryModel(i, text)
	}
	if err := tx.CreateInBatches(models, saveBatchSize).Error; err != nil {
		return fmt.Errorf("failed to insert entries: %w", err)
	}
	return nil
}

// Count returns the number of stored entries.
func (s *SQLiteStore) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, store.ErrClosed
	}

	var count int64
	if err := s.db.Model(&EntryModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return int(count), nil
}

// Meta returns the meta value stored under key.
func (s *SQLiteStore) Meta(key string) (string, error) {
	var model MetaModel
	if err := s.db.First(&model, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("meta key not found: %s", key)
		}
		return "", fmt.Errorf("failed to get meta: %w", err)
	}
	return model.Value, nil
}

// setMeta upserts a meta value.
func (s *SQLiteStore) setMeta(key, value string) error {
	model := &MetaModel{Key: key, Value: value}
	result := s.db.Where("key = ?", key).
		Assign(map[string]interface{}{"value": value, "updated_at": s.db.NowFunc()}).
		FirstOrCreate(model)
	if result.Error != nil {
		return fmt.Errorf("failed to set meta: %w", result.Error)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
