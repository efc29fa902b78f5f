package db

import "time"

type Player struct {
	ID           uint      `gorm:"primaryKey"`
	SessionID    uint      `gorm:"index;not null;uniqueIndex:idx_players_session_name"`
	ConnectionID string    `gorm:"size:64;not null"`
	Name         string    `gorm:"size:64;not null;uniqueIndex:idx_players_session_name"`
	Score        int       `gorm:"not null;default:0"`
	JoinedAt     time.Time `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
	Events       []Event
}
