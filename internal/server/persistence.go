package server

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"trivia-live/internal/db"

	"github.com/jackc/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// persister mirrors session state into durable storage. The in-memory
// store stays authoritative; handlers that fail a persist call
// compensate the in-memory mutation so a retry starts from a clean
// slate.
type persister interface {
	SessionCreated(sess *Session) error
	PlayerJoined(sessionID string, player Player) error
	PlayerLeft(sessionID string, sess *Session, playerName string) error
	StatusChanged(sessionID, eventType string, sess *Session) error
	Event(sessionID, eventType string, payload EventPayload) error
}

// dbPersister keeps session and player rows plus an append-only jsonb
// event log in Postgres. All writers tolerate a nil connection so the
// server can run memory-only.
type dbPersister struct {
	db  *gorm.DB
	mu  sync.Mutex
	ids map[string]uint
}

func newDBPersister(conn *gorm.DB) *dbPersister {
	return &dbPersister{
		db:  conn,
		ids: make(map[string]uint),
	}
}

func (p *dbPersister) SessionCreated(sess *Session) error {
	if p.db == nil {
		return nil
	}
	record := db.Session{
		SessionID:  sess.ID,
		Status:     sess.Status,
		GameMaster: sess.GameMaster,
	}
	if err := p.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return err
	}
	p.mu.Lock()
	p.ids[sess.ID] = record.ID
	p.mu.Unlock()
	if len(sess.Players) > 0 {
		if err := p.playerRow(record.ID, sess.Players[0]); err != nil {
			return err
		}
	}
	return p.Event(sess.ID, "session_created", EventPayload{
		SessionID:  sess.ID,
		GameMaster: sess.GameMaster,
	})
}

func (p *dbPersister) PlayerJoined(sessionID string, player Player) error {
	if p.db == nil {
		return nil
	}
	dbID, err := p.sessionDBID(sessionID)
	if err != nil {
		return err
	}
	if err := p.playerRow(dbID, player); err != nil {
		return err
	}
	return p.Event(sessionID, "player_joined", EventPayload{
		SessionID:  sessionID,
		PlayerName: player.Name,
	})
}

func (p *dbPersister) playerRow(sessionDBID uint, player Player) error {
	record := db.Player{
		SessionID:    sessionDBID,
		ConnectionID: player.ConnectionID,
		Name:         player.Name,
		Score:        player.Score,
		JoinedAt:     time.Now().UTC(),
	}
	if err := p.db.Create(&record).Error; err != nil && !isUniqueViolation(err) {
		return err
	}
	return nil
}

// PlayerLeft appends the departure event and mirrors a possible master
// handoff onto the session row.
func (p *dbPersister) PlayerLeft(sessionID string, sess *Session, playerName string) error {
	if p.db == nil {
		return nil
	}
	dbID, err := p.sessionDBID(sessionID)
	if err != nil {
		return err
	}
	if err := p.db.Model(&db.Session{}).Where("id = ?", dbID).
		Update("game_master", sess.GameMaster).Error; err != nil {
		return err
	}
	return p.Event(sessionID, "player_left", EventPayload{
		SessionID:  sessionID,
		PlayerName: playerName,
		GameMaster: sess.GameMaster,
	})
}

// StatusChanged mirrors a status transition onto the session row and
// appends the matching event.
func (p *dbPersister) StatusChanged(sessionID, eventType string, sess *Session) error {
	if p.db == nil {
		return nil
	}
	dbID, err := p.sessionDBID(sessionID)
	if err != nil {
		return err
	}
	updates := map[string]any{
		"status":      sess.Status,
		"game_master": sess.GameMaster,
		"winner":      sess.Winner,
	}
	if err := p.db.Model(&db.Session{}).Where("id = ?", dbID).Updates(updates).Error; err != nil {
		return err
	}
	return p.Event(sessionID, eventType, EventPayload{
		SessionID:  sessionID,
		Status:     sess.Status,
		Winner:     sess.Winner,
		GameMaster: sess.GameMaster,
	})
}

func (p *dbPersister) Event(sessionID, eventType string, payload EventPayload) error {
	if p.db == nil {
		return nil
	}
	dbID, err := p.sessionDBID(sessionID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	record := db.Event{
		SessionID: dbID,
		Type:      eventType,
		Payload:   datatypes.JSON(data),
	}
	if err := p.db.Create(&record).Error; err != nil {
		return err
	}
	return nil
}

func (p *dbPersister) sessionDBID(sessionID string) (uint, error) {
	p.mu.Lock()
	if id, ok := p.ids[sessionID]; ok {
		p.mu.Unlock()
		return id, nil
	}
	p.mu.Unlock()

	var record db.Session
	if err := p.db.Where("session_id = ?", sessionID).First(&record).Error; err != nil {
		return 0, err
	}
	p.mu.Lock()
	p.ids[sessionID] = record.ID
	p.mu.Unlock()
	return record.ID, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
