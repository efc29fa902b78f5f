package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// Scaffolds a timestamped up/down migration pair under db/migrations,
// matching the layout cmd/migrate expects.

var namePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

func main() {
	name := flag.String("name", "", "migration name in snake_case, e.g. add_session_winner_index")
	dir := flag.String("dir", filepath.Join("db", "migrations"), "migrations directory")
	flag.Parse()

	if *name == "" {
		log.Fatal("migration name is required")
	}
	if !namePattern.MatchString(*name) {
		log.Fatal("migration name must be snake_case: lowercase letters, digits and underscores")
	}

	version := time.Now().UTC().Format("20060102150405")
	base := fmt.Sprintf("%s_%s", version, *name)
	upPath := filepath.Join(*dir, base+".up.sql")
	downPath := filepath.Join(*dir, base+".down.sql")

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Fatalf("create migrations dir: %v", err)
	}

	if err := writeFile(upPath, "-- up migration\n"); err != nil {
		log.Fatalf("create up migration: %v", err)
	}
	if err := writeFile(downPath, "-- down migration\n"); err != nil {
		log.Fatalf("create down migration: %v", err)
	}

	log.Printf("created %s and %s", upPath, downPath)
}

func writeFile(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
