package server

import (
	"net/http"
	"sync"
	"time"

	"trivia-live/internal/config"

	"gorm.io/gorm"
)

type Server struct {
	store    SessionStore
	persist  persister
	ws       *wsHub
	bcast    Broadcaster
	cfg      config.Config
	timersMu sync.Mutex
	timers   map[string]*time.Timer
}

func New(conn *gorm.DB, cfg config.Config) *Server {
	hub := newWSHub()
	return &Server{
		store:   NewStore(),
		persist: newDBPersister(conn),
		ws:      hub,
		bcast:   hub,
		cfg:     cfg,
		timers:  make(map[string]*time.Timer),
	}
}

func (s *Server) Handler() http.Handler {
	registerValidators()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWebsocket)
	mux.Handle("/api/", s.adminRouter())
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))
	return mux
}
