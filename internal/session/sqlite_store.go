package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// sessionRow is the gorm model backing the sqlite store.
type sessionRow struct {
	Key         string `gorm:"primaryKey;size:255"`
	CartID      string
	LastOrderID string
	UpdatedAt   time.Time
}

func (sessionRow) TableName() string { return "session_records" }

// SQLiteStore keeps session records in a local sqlite file, the durable
// default for processes without a Redis nearby.
type SQLiteStore struct {
	conn *gorm.DB
}

// NewSQLiteStore opens (and migrates) the sqlite file at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	silent := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 silent,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}
	if err := conn.AutoMigrate(&sessionRow{}); err != nil {
		return nil, fmt.Errorf("migrating session db: %w", err)
	}
	return &SQLiteStore{conn: conn}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, key string) (Record, bool, error) {
	var row sessionRow
	err := s.conn.WithContext(ctx).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("loading session record: %w", err)
	}
	return Record{CartID: row.CartID, LastOrderID: row.LastOrderID}, true, nil
}

func (s *SQLiteStore) Save(ctx context.Context, key string, record Record) error {
	row := sessionRow{
		Key:         key,
		CartID:      record.CartID,
		LastOrderID: record.LastOrderID,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.conn.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("saving session record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	err := s.conn.WithContext(ctx).Delete(&sessionRow{}, "key = ?", key).Error
	if err != nil {
		return fmt.Errorf("deleting session record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
