package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const themeKey = "theme"

// Preference is one persisted client setting.
type Preference struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     int    `gorm:"not null"`
	UpdatedAt time.Time
}

// Store keeps preferences in Postgres.
type Store struct {
	db *gorm.DB
}

func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Preference{}); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) ThemePreference(ctx context.Context) (int, bool, error) {
	var p Preference
	err := s.db.WithContext(ctx).First(&p, "key = ?", themeKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load theme preference: %w", err)
	}
	return p.Value, true, nil
}

func (s *Store) SetThemePreference(ctx context.Context, id int) error {
	p := Preference{Key: themeKey, Value: id, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&p).Error
	if err != nil {
		return fmt.Errorf("save theme preference: %w", err)
	}
	return nil
}

// Memory is the process-local fallback when no database is configured.
type Memory struct {
	mu    sync.Mutex
	prefs map[string]int
}

func NewMemory() *Memory {
	return &Memory{prefs: make(map[string]int)}
}

func (m *Memory) ThemePreference(context.Context) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.prefs[themeKey]
	return v, ok, nil
}

func (m *Memory) SetThemePreference(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs[themeKey] = id
	return nil
}
