package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type inboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type createSessionRequest struct {
	PlayerName string `json:"playerName"`
}

type joinSessionRequest struct {
	SessionID  string `json:"sessionId"`
	PlayerName string `json:"playerName"`
}

type setQuestionRequest struct {
	SessionID string `json:"sessionId"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
}

type startGameRequest struct {
	SessionID string `json:"sessionId"`
}

type guessRequest struct {
	SessionID string `json:"sessionId"`
	Guess     string `json:"guess"`
}

type leaveSessionRequest struct {
	SessionID string `json:"sessionId"`
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	connID := uuid.NewString()
	s.ws.Register(connID, conn)
	log.Printf("ws connected conn_id=%s remote=%s", connID, r.RemoteAddr)
	go s.readWS(connID, conn)
}

func (s *Server) readWS(connID string, conn *websocket.Conn) {
	defer func() {
		s.ws.Unregister(connID)
		s.Disconnect(connID)
	}()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Printf("ws disconnected conn_id=%s error=%v", connID, err)
			return
		}
		s.dispatch(connID, raw)
	}
}

// dispatch is the handler boundary: every failure becomes a private
// error event to the requesting connection and nothing else.
func (s *Server) dispatch(connID string, raw []byte) {
	var env inboundEvent
	if err := json.Unmarshal(raw, &env); err != nil {
		s.bcast.ToConnection(connID, evtError, errorPayload{Message: "malformed event"})
		return
	}

	var err error
	switch env.Event {
	case "createSession":
		var req createSessionRequest
		if err = decodeEventData(env.Data, &req); err == nil {
			err = s.CreateSession(connID, req.PlayerName)
		}
	case "joinSession":
		var req joinSessionRequest
		if err = decodeEventData(env.Data, &req); err == nil {
			err = s.JoinSession(connID, req.SessionID, req.PlayerName)
		}
	case "setQuestion":
		var req setQuestionRequest
		if err = decodeEventData(env.Data, &req); err == nil {
			err = s.SetQuestion(connID, req.SessionID, req.Question, req.Answer)
		}
	case "startGame":
		var req startGameRequest
		if err = decodeEventData(env.Data, &req); err == nil {
			err = s.StartGame(connID, req.SessionID)
		}
	case "guess":
		var req guessRequest
		if err = decodeEventData(env.Data, &req); err == nil {
			err = s.Guess(connID, req.SessionID, req.Guess)
		}
	case "leaveSession":
		var req leaveSessionRequest
		if err = decodeEventData(env.Data, &req); err == nil {
			err = s.LeaveSession(connID, req.SessionID)
		}
	default:
		err = ValidationError{Reason: "unknown event"}
	}

	if err != nil {
		log.Printf("event failed conn_id=%s event=%s error=%v", connID, env.Event, err)
		s.bcast.ToConnection(connID, evtError, errorPayload{Message: clientMessage(err)})
	}
}

func decodeEventData(raw json.RawMessage, dest any) error {
	if len(raw) == 0 {
		return ValidationError{Reason: "missing event data"}
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return ValidationError{Reason: "malformed event data"}
	}
	return nil
}
