package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/orgball2608/insta-story-player/internal/migrations"
	"github.com/orgball2608/insta-story-player/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|status|reset]")
	}

	command := os.Args[1]

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := migrations.Open(cfg.GetDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(context.Background(), db, command); err != nil {
		log.Fatalf("Migrate %s failed: %v", command, err)
	}

	switch command {
	case "up":
		fmt.Println("Migrations applied successfully")
	case "down":
		fmt.Println("Migration rollback successful")
	case "reset":
		fmt.Println("All migrations have been rolled back")
	}
}
