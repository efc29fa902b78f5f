package db

import "time"

type Session struct {
	ID         uint      `gorm:"primaryKey"`
	SessionID  string    `gorm:"size:64;uniqueIndex;not null"`
	Status     string    `gorm:"size:32;not null"`
	GameMaster string    `gorm:"size:64;not null"`
	Winner     string    `gorm:"size:64"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
	Players    []Player
	Events     []Event
}
