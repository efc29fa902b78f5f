package server

import "time"

// One scheduled task per session at most: the round-expiry timer while
// a round is active, replaced by the master-handoff timer once it
// ends. Handles live in an explicit map so tests can inspect and
// cancel them instead of waiting on the wall clock.

func (s *Server) scheduleRoundExpiry(sessionID string) {
	duration := time.Duration(s.cfg.RoundSeconds) * time.Second
	s.scheduleTimer(sessionID, duration, func() {
		s.endGameIfExpired(sessionID)
	})
}

func (s *Server) scheduleMasterHandoff(sessionID string) {
	duration := time.Duration(s.cfg.HandoffSeconds) * time.Second
	s.scheduleTimer(sessionID, duration, func() {
		s.switchGameMaster(sessionID)
	})
}

func (s *Server) scheduleTimer(sessionID string, duration time.Duration, fn func()) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if existing, ok := s.timers[sessionID]; ok {
		existing.Stop()
	}
	s.timers[sessionID] = time.AfterFunc(duration, fn)
}

func (s *Server) cancelTimer(sessionID string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if timer, ok := s.timers[sessionID]; ok {
		timer.Stop()
		delete(s.timers, sessionID)
	}
}

func (s *Server) hasTimer(sessionID string) bool {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	_, ok := s.timers[sessionID]
	return ok
}

// Close stops every scheduled task.
func (s *Server) Close() {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	for sessionID, timer := range s.timers {
		timer.Stop()
		delete(s.timers, sessionID)
	}
}
