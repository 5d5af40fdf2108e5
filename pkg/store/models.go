package store

import (
	"time"

	"gorm.io/datatypes"
)

// ChatTurnModel is the GORM model backing the chat_history table.
type ChatTurnModel struct {
	ID         uint64         `gorm:"primaryKey;autoIncrement"`
	UserID     string         `gorm:"size:50;not null;index"`
	Question   string         `gorm:"type:text;not null"`
	Answer     string         `gorm:"type:text;not null"`
	ProductIDs datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time      `gorm:"not null;index"`
}

// TableName keeps the table name the schema has always used.
func (ChatTurnModel) TableName() string {
	return "chat_history"
}
