package main

import (
	"log"

	"bitbraniac-be/internal/config"
	"bitbraniac-be/internal/model"
	"bitbraniac-be/pkg/database"
)

func main() {
	// 1. Load Environment Variables
	cfg := config.Load()

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDB(database.Options{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.Connection,
	})
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}
	defer database.Close(db)

	log.Printf("Running AutoMigrate for %d tables (%s)...", len(model.All()), cfg.Database.Driver)

	// 3. AutoMigrate All Models
	if err := database.Migrate(db, model.All()...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
