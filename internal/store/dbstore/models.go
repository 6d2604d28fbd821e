package dbstore

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// EntryModel represents one history entry in the database.
// Position 0 is the most recent entry.
type EntryModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Position  int       `gorm:"not null;uniqueIndex"` // Recency rank, 0 = newest
	Text      string    `gorm:"type:text;not null"`   // Entry content
	Size      int       `gorm:"not null"`             // Content size in bytes
	SHA256    string    `gorm:"size:64;index"`        // SHA256 hash of Text
	CreatedAt time.Time `gorm:"autoCreateTime"`       // GORM managed timestamp
}

// TableName returns the table name for EntryModel
func (EntryModel) TableName() string {
	return "history_entries"
}

// newEntryModel builds the row for text at position.
func newEntryModel(position int, text string) EntryModel {
	sum := sha256.Sum256([]byte(text))
	return EntryModel{
		Position: position,
		Text:     text,
		Size:     len(text),
		SHA256:   hex.EncodeToString(sum[:]),
	}
}

// MetaModel holds schema bookkeeping values.
type MetaModel struct {
	Key       string    `gorm:"primaryKey;size:100"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for MetaModel
func (MetaModel) TableName() string {
	return "meta"
}
