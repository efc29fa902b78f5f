package server

import "time"

const (
	statusWaiting = "waiting"
	statusActive  = "active"
	statusEnded   = "ended"
)

// Session is one trivia game instance: its roster, current question,
// and round state. The in-memory store owns the canonical copy; every
// value handed out of the store is a detached snapshot.
type Session struct {
	ID         string
	GameMaster string // connection id of the current master
	Players    []Player
	Question   string
	Answer     string // stored lowercased
	Status     string
	Winner     string
	StartTime  time.Time
	CreatedAt  time.Time
}

type Player struct {
	ConnectionID string
	Name         string
	Score        int
	Attempts     int
}

type SessionSummary struct {
	ID      string `json:"sessionId"`
	Status  string `json:"status"`
	Players int    `json:"playerCount"`
}

func (sess *Session) findPlayer(connID string) *Player {
	for i := range sess.Players {
		if sess.Players[i].ConnectionID == connID {
			return &sess.Players[i]
		}
	}
	return nil
}

func (sess *Session) hasPlayerNamed(name string) bool {
	for i := range sess.Players {
		if sess.Players[i].Name == name {
			return true
		}
	}
	return false
}

func (sess *Session) masterIndex() int {
	for i := range sess.Players {
		if sess.Players[i].ConnectionID == sess.GameMaster {
			return i
		}
	}
	return -1
}

func (sess *Session) clone() Session {
	copied := *sess
	copied.Players = make([]Player, len(sess.Players))
	copy(copied.Players, sess.Players)
	return copied
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
