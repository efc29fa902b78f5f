package server

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// errRoundOver signals a stale round-expiry timer: the round it was
// scheduled for already ended some other way.
var errRoundOver = errors.New("round already over")

// CreateSession starts a new session with the requester as sole player
// and game master.
func (s *Server) CreateSession(connID, rawName string) error {
	name, err := validateName(rawName)
	if err != nil {
		return err
	}
	master := Player{
		ConnectionID: connID,
		Name:         name,
		Attempts:     s.cfg.AttemptsPerRound,
	}
	sess := s.store.CreateSession(master)
	if err := s.persist.SessionCreated(&sess); err != nil {
		s.store.Delete(sess.ID)
		return StorageError{Op: "create session", Err: err}
	}
	s.bcast.JoinGroup(sess.ID, connID)
	s.bcast.ToConnection(connID, evtSessionCreated, sessionAckPayload{SessionID: sess.ID, PlayerName: name})
	s.bcast.ToGroup(sess.ID, evtUpdatePlayers, playersPayload(&sess))
	log.Printf("session created session_id=%s player=%s", sess.ID, name)
	return nil
}

// JoinSession adds the requester to a waiting session. Each
// precondition maps to its own diagnosable error: malformed id,
// unknown session, session already started, and duplicate name are
// reported distinctly.
func (s *Server) JoinSession(connID, sessionID, rawName string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	name, err := validateName(rawName)
	if err != nil {
		return err
	}
	player := Player{
		ConnectionID: connID,
		Name:         name,
		Attempts:     s.cfg.AttemptsPerRound,
	}
	sess, err := s.store.AddPlayer(sessionID, player)
	if err != nil {
		return err
	}
	if err := s.persist.PlayerJoined(sessionID, player); err != nil {
		// Back the player out so a retry does not trip the
		// duplicate-name check against their own ghost entry.
		if _, rmErr := s.store.RemovePlayer(sessionID, connID); rmErr != nil {
			log.Printf("join rollback failed session_id=%s conn_id=%s error=%v", sessionID, connID, rmErr)
		}
		return StorageError{Op: "join session", Err: err}
	}
	s.bcast.JoinGroup(sessionID, connID)
	s.bcast.ToConnection(connID, evtSessionJoined, sessionAckPayload{SessionID: sessionID, PlayerName: name})
	s.bcast.ToGroup(sessionID, evtUpdatePlayers, playersPayload(&sess))
	s.bcast.ToGroup(sessionID, evtMessage, messagePayload{Content: name + " has joined the session."})
	log.Printf("player joined session_id=%s player=%s count=%d", sessionID, name, len(sess.Players))
	return nil
}

// SetQuestion stores the round's question and its answer, lowercased.
// The answer is never broadcast.
func (s *Server) SetQuestion(connID, sessionID, rawQuestion, rawAnswer string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	question, err := validateQuestion(rawQuestion)
	if err != nil {
		return err
	}
	answer, err := validateAnswer(rawAnswer)
	if err != nil {
		return err
	}
	_, err = s.store.Update(sessionID, func(sess *Session) error {
		if sess.GameMaster != connID {
			return AuthorizationError{Reason: "only the game master can set the question"}
		}
		sess.Question = question
		sess.Answer = strings.ToLower(answer)
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.persist.Event(sessionID, "question_set", EventPayload{SessionID: sessionID, Question: question}); err != nil {
		return StorageError{Op: "set question", Err: err}
	}
	s.bcast.ToGroup(sessionID, evtQuestionSet, questionSetPayload{Question: question})
	s.bcast.ToGroup(sessionID, evtMessage, messagePayload{Content: "Question set by the game master."})
	log.Printf("question set session_id=%s", sessionID)
	return nil
}

// StartGame begins a round: everyone's attempts reset and the
// round-expiry timer starts ticking.
func (s *Server) StartGame(connID, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	var question string
	sess, err := s.store.Update(sessionID, func(sess *Session) error {
		if sess.GameMaster != connID {
			return AuthorizationError{Reason: "only the game master can start the game"}
		}
		if len(sess.Players) < s.cfg.MinPlayers {
			return ConflictError{Reason: fmt.Sprintf("at least %d players required to start", s.cfg.MinPlayers)}
		}
		if sess.Question == "" || sess.Answer == "" {
			return ConflictError{Reason: "question is not set"}
		}
		sess.Status = statusActive
		sess.StartTime = timeNowUTC()
		for i := range sess.Players {
			sess.Players[i].Attempts = s.cfg.AttemptsPerRound
		}
		question = sess.Question
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.persist.StatusChanged(sessionID, "game_started", &sess); err != nil {
		// Revert to waiting: an active session with no expiry timer
		// would hang forever, and waiting lets the master retry.
		if _, rbErr := s.store.Update(sessionID, func(sess *Session) error {
			if sess.Status == statusActive && sess.GameMaster == connID {
				sess.Status = statusWaiting
				sess.StartTime = time.Time{}
			}
			return nil
		}); rbErr != nil {
			log.Printf("start rollback failed session_id=%s error=%v", sessionID, rbErr)
		}
		return StorageError{Op: "start game", Err: err}
	}
	s.bcast.ToGroup(sessionID, evtGameStarted, gameStartedPayload{Question: question})
	s.bcast.ToGroup(sessionID, evtMessage, messagePayload{Content: "Game started!"})
	s.scheduleRoundExpiry(sessionID)
	log.Printf("game started session_id=%s players=%d", sessionID, len(sess.Players))
	return nil
}

// Guess consumes one attempt and compares the normalized guess to the
// stored answer. A correct guess ends the round; the attempt is spent
// either way.
func (s *Server) Guess(connID, sessionID, rawGuess string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	text, err := validateGuess(rawGuess)
	if err != nil {
		return err
	}
	var (
		isCorrect    bool
		attemptsLeft int
		winnerName   string
		answer       string
	)
	sess, err := s.store.Update(sessionID, func(sess *Session) error {
		if sess.Status != statusActive {
			return ConflictError{Reason: "game not active"}
		}
		player := sess.findPlayer(connID)
		if player == nil {
			return NotFoundError{Resource: "player"}
		}
		if player.Attempts <= 0 {
			return ConflictError{Reason: "no attempts left"}
		}
		player.Attempts--
		attemptsLeft = player.Attempts
		isCorrect = strings.ToLower(text) == sess.Answer
		if isCorrect {
			player.Score += s.cfg.PointsPerWin
			sess.Status = statusEnded
			sess.Winner = player.Name
			winnerName = player.Name
			answer = sess.Answer
		}
		return nil
	})
	if err != nil {
		return err
	}

	if !isCorrect {
		if err := s.persist.Event(sessionID, "guess_missed", EventPayload{SessionID: sessionID, Count: attemptsLeft}); err != nil {
			// Refund the attempt so the retry is not a worse position.
			if _, rbErr := s.store.Update(sessionID, func(sess *Session) error {
				if player := sess.findPlayer(connID); player != nil && sess.Status == statusActive {
					player.Attempts++
				}
				return nil
			}); rbErr != nil {
				log.Printf("guess rollback failed session_id=%s error=%v", sessionID, rbErr)
			}
			return StorageError{Op: "record guess", Err: err}
		}
		s.bcast.ToConnection(connID, evtGuessResult, guessResultPayload{IsCorrect: false, AttemptsLeft: attemptsLeft})
		s.bcast.ToConnection(connID, evtMessage, messagePayload{Content: fmt.Sprintf("Incorrect guess. %d attempts left.", attemptsLeft)})
		return nil
	}

	if err := s.persist.StatusChanged(sessionID, "game_ended", &sess); err != nil {
		// Undo the win so the round stays live and the guess can be
		// replayed once storage recovers.
		if _, rbErr := s.store.Update(sessionID, func(sess *Session) error {
			if sess.Status != statusEnded || sess.Winner != winnerName {
				return nil
			}
			sess.Status = statusActive
			sess.Winner = ""
			if player := sess.findPlayer(connID); player != nil {
				player.Score -= s.cfg.PointsPerWin
				player.Attempts++
			}
			return nil
		}); rbErr != nil {
			log.Printf("win rollback failed session_id=%s error=%v", sessionID, rbErr)
		}
		return StorageError{Op: "record win", Err: err}
	}
	winner := winnerName
	s.bcast.ToGroup(sessionID, evtGameEnded, gameEndedPayload{
		Winner:  &winner,
		Answer:  answer,
		Players: playerInfos(sess.Players),
	})
	s.bcast.ToGroup(sessionID, evtMessage, messagePayload{Content: fmt.Sprintf("%s won with the correct answer: %s!", winnerName, answer)})
	s.scheduleMasterHandoff(sessionID)
	log.Printf("game won session_id=%s winner=%s", sessionID, winnerName)
	return nil
}

// LeaveSession removes the requester from one session. Leaving a
// session the requester is no longer in reports not-found; an already
// deleted session is never deleted twice.
func (s *Server) LeaveSession(connID, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	if err := s.playerLeave(connID, sessionID); err != nil {
		return err
	}
	s.bcast.LeaveGroup(sessionID, connID)
	s.bcast.ToConnection(connID, evtSessionLeft, nil)
	return nil
}

// Disconnect reconciles an abruptly closed connection against every
// session it belonged to, as master or player.
func (s *Server) Disconnect(connID string) {
	for _, sessionID := range s.store.FindByConnection(connID) {
		if err := s.playerLeave(connID, sessionID); err != nil {
			log.Printf("disconnect cleanup failed session_id=%s conn_id=%s error=%v", sessionID, connID, err)
		}
	}
}

// playerLeave is the shared departure path. Master handoff on
// departure promotes the first remaining player, unlike the post-round
// rotation which promotes the next in order; both policies are
// intentional.
func (s *Server) playerLeave(connID, sessionID string) error {
	dep, err := s.store.RemovePlayer(sessionID, connID)
	if err != nil {
		return err
	}
	if dep.deleted {
		s.cancelTimer(sessionID)
		if err := s.persist.Event(sessionID, "session_deleted", EventPayload{SessionID: sessionID}); err != nil {
			log.Printf("persist session delete failed session_id=%s error=%v", sessionID, err)
		}
		s.bcast.ToGroup(sessionID, evtSessionDeleted, nil)
		log.Printf("session deleted session_id=%s last_player=%s", sessionID, dep.player.Name)
		return nil
	}
	if err := s.persist.PlayerLeft(sessionID, dep.session, dep.player.Name); err != nil {
		log.Printf("persist player leave failed session_id=%s error=%v", sessionID, err)
	}
	s.bcast.ToGroup(sessionID, evtUpdatePlayers, playersPayload(dep.session))
	if !dep.wasMaster {
		s.bcast.ToGroup(sessionID, evtMessage, messagePayload{Content: dep.player.Name + " has left the session."})
	}
	log.Printf("player left session_id=%s player=%s was_master=%t remaining=%d",
		sessionID, dep.player.Name, dep.wasMaster, len(dep.session.Players))
	return nil
}

// endGameIfExpired fires when the round timer elapses. It re-checks
// status at fire time, so a stale timer for a round that already
// ended is a no-op.
func (s *Server) endGameIfExpired(sessionID string) {
	var answer string
	sess, err := s.store.Update(sessionID, func(sess *Session) error {
		if sess.Status != statusActive {
			return errRoundOver
		}
		sess.Status = statusEnded
		answer = sess.Answer
		return nil
	})
	if err != nil {
		return
	}
	if err := s.persist.StatusChanged(sessionID, "game_expired", &sess); err != nil {
		log.Printf("persist expiry failed session_id=%s error=%v", sessionID, err)
	}
	s.bcast.ToGroup(sessionID, evtGameEnded, gameEndedPayload{
		Winner:  nil,
		Answer:  answer,
		Players: playerInfos(sess.Players),
	})
	s.bcast.ToGroup(sessionID, evtMessage, messagePayload{Content: "Time's up! No winner. Answer: " + answer})
	s.scheduleMasterHandoff(sessionID)
	log.Printf("game expired session_id=%s", sessionID)
}

// switchGameMaster rotates the master role to the next player in join
// order, wrapping around, and resets the session for a new round.
func (s *Server) switchGameMaster(sessionID string) {
	var masterName string
	sess, err := s.store.Update(sessionID, func(sess *Session) error {
		next := (sess.masterIndex() + 1) % len(sess.Players)
		sess.GameMaster = sess.Players[next].ConnectionID
		masterName = sess.Players[next].Name
		sess.Status = statusWaiting
		sess.Question = ""
		sess.Answer = ""
		sess.Winner = ""
		sess.StartTime = time.Time{}
		return nil
	})
	if err != nil {
		return
	}
	s.cancelTimer(sessionID)
	if err := s.persist.StatusChanged(sessionID, "master_rotated", &sess); err != nil {
		log.Printf("persist master rotation failed session_id=%s error=%v", sessionID, err)
	}
	s.bcast.ToGroup(sessionID, evtNewGameMaster, newGameMasterPayload{
		GameMaster: masterName,
		Players:    playerInfos(sess.Players),
	})
	s.bcast.ToGroup(sessionID, evtMessage, messagePayload{Content: "New game master: " + masterName})
	log.Printf("master rotated session_id=%s master=%s", sessionID, masterName)
}
