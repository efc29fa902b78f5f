package main

import (
	"log"
	"net/http"
	"os"

	"trivia-live/internal/config"
	"trivia-live/internal/db"
	"trivia-live/internal/server"

	"gorm.io/gorm"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	var conn *gorm.DB
	if os.Getenv("DATABASE_URL") != "" {
		opened, err := db.Open()
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		if err := db.ConfigurePool(opened, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns,
			cfg.DBConnMaxLifetimeSeconds, cfg.DBConnMaxIdleTimeSeconds); err != nil {
			log.Fatalf("database pool setup failed: %v", err)
		}
		if err := db.Migrate(opened); err != nil {
			log.Fatalf("database migration failed: %v", err)
		}
		conn = opened
	} else {
		log.Println("DATABASE_URL not set, running with in-memory sessions only")
	}

	addr := ":8080"
	if env := os.Getenv("PORT"); env != "" {
		addr = ":" + env
	}

	srv := server.New(conn, cfg)
	defer srv.Close()
	log.Printf("trivia-live server listening on %s", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatal(err)
	}
}
