// Package state persists the small amount of cross-run state that does not
// belong in the spreadsheet: the board message IDs, keyed by guild and
// board. Backed by SQLite through GORM (pure Go driver).
package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"
)

// ErrNotFound indicates no stored message ID for the (guild, board) pair.
var ErrNotFound = errors.New("state: not found")

// BoardMessage maps one board channel to its pinned board message.
type BoardMessage struct {
	GuildID   string `gorm:"primaryKey;size:32"`
	Board     string `gorm:"primaryKey;size:64"`
	MessageID string `gorm:"size:32"`
	UpdatedAt time.Time
}

// OpenSQLite opens (or creates) the state database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if the parent directory does not exist (instead of the
	// sqlite "out of memory (14)" error).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates the schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&BoardMessage{})
}

// GetBoardMessageID returns the stored message ID or ErrNotFound.
func GetBoardMessageID(ctx context.Context, db *gorm.DB, guildID, board string) (string, error) {
	var rec BoardMessage
	err := db.WithContext(ctx).
		Where("guild_id = ? AND board = ?", guildID, board).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return rec.MessageID, nil
}

// SetBoardMessageID upserts the stored message ID for a board.
func SetBoardMessageID(ctx context.Context, db *gorm.DB, guildID, board, messageID string) error {
	rec := BoardMessage{GuildID: guildID, Board: board, MessageID: messageID, UpdatedAt: time.Now().UTC()}
	return db.WithContext(ctx).Save(&rec).Error
}

// ClearBoardMessageID forgets a stale message ID so the next refresh sends a
// fresh board message.
func ClearBoardMessageID(ctx context.Context, db *gorm.DB, guildID, board string) error {
	return db.WithContext(ctx).
		Where("guild_id = ? AND board = ?", guildID, board).
		Delete(&BoardMessage{}).Error
}
