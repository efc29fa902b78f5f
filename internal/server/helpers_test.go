package server

import (
	"sync"
	"testing"
	"time"

	"trivia-live/internal/config"
)

type recordedEvent struct {
	Target  string // "group:<sessionID>" or "conn:<connID>"
	Event   string
	Payload any
}

// recorderHub implements Broadcaster and captures everything the
// session manager publishes.
type recorderHub struct {
	mu     sync.Mutex
	events []recordedEvent
	joins  []string
	leaves []string
}

func (r *recorderHub) JoinGroup(sessionID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joins = append(r.joins, sessionID+"/"+connID)
}

func (r *recorderHub) LeaveGroup(sessionID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaves = append(r.leaves, sessionID+"/"+connID)
}

func (r *recorderHub) ToGroup(sessionID, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Target: "group:" + sessionID, Event: event, Payload: payload})
}

func (r *recorderHub) ToConnection(connID, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Target: "conn:" + connID, Event: event, Payload: payload})
}

func (r *recorderHub) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

func (r *recorderHub) last(event string) (recordedEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Event == event {
			return r.events[i], true
		}
	}
	return recordedEvent{}, false
}

func newTestServer(t *testing.T) (*Server, *recorderHub) {
	t.Helper()
	rec := &recorderHub{}
	s := &Server{
		store:   NewStore(),
		persist: newDBPersister(nil),
		ws:      newWSHub(),
		bcast:   rec,
		cfg:     config.Default(),
		timers:  make(map[string]*time.Timer),
	}
	t.Cleanup(s.Close)
	return s, rec
}

func createSessionFor(t *testing.T, s *Server, connID, name string) string {
	t.Helper()
	if err := s.CreateSession(connID, name); err != nil {
		t.Fatalf("create session: %v", err)
	}
	ids := s.store.FindByConnection(connID)
	if len(ids) != 1 {
		t.Fatalf("expected 1 session for %s, got %d", connID, len(ids))
	}
	return ids[0]
}

func joinPlayer(t *testing.T, s *Server, sessionID, connID, name string) {
	t.Helper()
	if err := s.JoinSession(connID, sessionID, name); err != nil {
		t.Fatalf("join session: %v", err)
	}
}

// setupLobby creates a session with Ada as master and Ben and Cat
// joined, status waiting.
func setupLobby(t *testing.T, s *Server) string {
	t.Helper()
	sessionID := createSessionFor(t, s, "conn-a", "Ada")
	joinPlayer(t, s, sessionID, "conn-b", "Ben")
	joinPlayer(t, s, sessionID, "conn-c", "Cat")
	return sessionID
}

// setupActiveGame takes a lobby through setQuestion and startGame.
func setupActiveGame(t *testing.T, s *Server) string {
	t.Helper()
	sessionID := setupLobby(t, s)
	if err := s.SetQuestion("conn-a", sessionID, "What color is the sky?", "Blue"); err != nil {
		t.Fatalf("set question: %v", err)
	}
	if err := s.StartGame("conn-a", sessionID); err != nil {
		t.Fatalf("start game: %v", err)
	}
	return sessionID
}

func getSession(t *testing.T, s *Server, sessionID string) Session {
	t.Helper()
	sess, ok := s.store.Get(sessionID)
	if !ok {
		t.Fatalf("session %s not found", sessionID)
	}
	return sess
}

// assertMasterInvariant checks that the game master is always one of
// the session's current players.
func assertMasterInvariant(t *testing.T, s *Server, sessionID string) {
	t.Helper()
	sess, ok := s.store.Get(sessionID)
	if !ok {
		return
	}
	if sess.masterIndex() < 0 {
		t.Fatalf("game master %s is not a player of session %s", sess.GameMaster, sessionID)
	}
}
