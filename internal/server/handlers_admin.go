package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Read-only inspection plus force delete. The game itself is driven
// entirely over the websocket; this surface exists for operators.

type sessionURI struct {
	SessionID string `uri:"sessionID" binding:"required,sessionid"`
}

func (s *Server) adminRouter() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.GET("/api/sessions", s.handleListSessions)
	router.GET("/api/sessions/:sessionID", s.handleSessionDetail)
	router.DELETE("/api/sessions/:sessionID", s.handleSessionDelete)
	return router
}

func (s *Server) handleListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sessions": s.store.ListSummaries(),
	})
}

func (s *Server) handleSessionDetail(c *gin.Context) {
	var uri sessionURI
	if !bindURI(c, &uri) {
		return
	}
	sess, ok := s.store.Get(uri.SessionID)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	// The answer is withheld even here; only the event log has it.
	c.JSON(http.StatusOK, gin.H{
		"sessionId":   sess.ID,
		"status":      sess.Status,
		"gameMaster":  sess.GameMaster,
		"question":    sess.Question,
		"winner":      sess.Winner,
		"players":     playerInfos(sess.Players),
		"playerCount": len(sess.Players),
	})
}

func (s *Server) handleSessionDelete(c *gin.Context) {
	var uri sessionURI
	if !bindURI(c, &uri) {
		return
	}
	if !s.store.Delete(uri.SessionID) {
		c.Status(http.StatusNotFound)
		return
	}
	s.cancelTimer(uri.SessionID)
	s.bcast.ToGroup(uri.SessionID, evtSessionDeleted, nil)
	log.Printf("session force-deleted session_id=%s", uri.SessionID)
	c.Status(http.StatusNoContent)
}
