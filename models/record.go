package models

import (
	"time"

	"gorm.io/gorm"
)

// GameRecord is the archive row written when a room game finishes. The
// archive is optional and write-only from the coordinator's point of view.
type GameRecord struct {
	gorm.Model
	RoomID        string `gorm:"index;not null"`
	WinnerID      string `gorm:"not null"`
	WinnerName    string
	Secret        int
	TotalAttempts int64
	PlayerCount   int
	FinishedAt    time.Time `gorm:"index"`
}

func (GameRecord) TableName() string {
	return "game_records"
}
