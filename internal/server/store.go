package server

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// SessionStore is the persistence boundary the session manager drives:
// keyed CRUD plus the reverse lookup the disconnect path needs. The
// closure passed to Update runs as one critical section, so a
// handler's read-modify-write cannot interleave with another
// handler's for the same session.
type SessionStore interface {
	CreateSession(master Player) Session
	Get(id string) (Session, bool)
	Update(id string, fn func(*Session) error) (Session, error)
	AddPlayer(id string, player Player) (Session, error)
	RemovePlayer(id, connID string) (departure, error)
	Delete(id string) bool
	FindByConnection(connID string) []string
	ListSummaries() []SessionSummary
}

// departure describes the outcome of removing one player.
type departure struct {
	session   *Session // post-removal snapshot, nil when the session was deleted
	player    Player
	wasMaster bool
	deleted   bool
}

type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
	}
}

func (s *Store) CreateSession(master Player) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &Session{
		ID:         uuid.NewString(),
		GameMaster: master.ConnectionID,
		Players:    []Player{master},
		Status:     statusWaiting,
		CreatedAt:  timeNowUTC(),
	}
	s.sessions[sess.ID] = sess
	return sess.clone()
}

func (s *Store) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	return sess.clone(), true
}

func (s *Store) Update(id string, fn func(*Session) error) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, NotFoundError{Resource: "session", ID: id}
	}
	if err := fn(sess); err != nil {
		return Session{}, err
	}
	return sess.clone(), nil
}

func (s *Store) AddPlayer(id string, player Player) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, NotFoundError{Resource: "session", ID: id}
	}
	if sess.Status != statusWaiting {
		return Session{}, ConflictError{Reason: "session already started"}
	}
	if sess.hasPlayerNamed(player.Name) {
		return Session{}, ConflictError{Reason: "player name already taken"}
	}
	sess.Players = append(sess.Players, player)
	return sess.clone(), nil
}

// RemovePlayer removes one player and reconciles the master role in
// the same critical section: a departing master hands off to the
// first remaining player, and the session is deleted when its last
// player leaves.
func (s *Store) RemovePlayer(id, connID string) (departure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return departure{}, NotFoundError{Resource: "session", ID: id}
	}
	idx := -1
	for i := range sess.Players {
		if sess.Players[i].ConnectionID == connID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return departure{}, NotFoundError{Resource: "player"}
	}

	result := departure{
		player:    sess.Players[idx],
		wasMaster: sess.GameMaster == connID,
	}
	sess.Players = append(sess.Players[:idx], sess.Players[idx+1:]...)

	if len(sess.Players) == 0 {
		delete(s.sessions, id)
		result.deleted = true
		return result, nil
	}
	if result.wasMaster {
		sess.GameMaster = sess.Players[0].ConnectionID
	}
	snapshot := sess.clone()
	result.session = &snapshot
	return result, nil
}

func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// FindByConnection returns the ids of every session the connection
// belongs to, as master or player. Used by the disconnect path.
func (s *Store) FindByConnection(connID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0)
	for id, sess := range s.sessions {
		if sess.GameMaster == connID || sess.findPlayer(connID) != nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (s *Store) ListSummaries() []SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]SessionSummary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		list = append(list, SessionSummary{
			ID:      sess.ID,
			Status:  sess.Status,
			Players: len(sess.Players),
		})
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list
}
