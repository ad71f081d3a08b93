// Command migrate applies the database schema.
package main

import (
	"fmt"
	"log"

	"haven/internal/config"
	"haven/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	// Connect automigrates outside production; in production migrations are
	// applied only through this command.
	if err := db.AutoMigrate(database.AllModels()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	log.Println("schema applied")
	return nil
}
