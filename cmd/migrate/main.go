package main

import (
	"log"

	"giga-banana-web/internal/config"
	"giga-banana-web/internal/model"
	"giga-banana-web/pkg/database"
)

func main() {
	cfg := config.Load()

	gormDB, err := database.NewGormDB(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Unable to connect to GORM DB: %v", err)
	}

	log.Println("Running migrations...")
	if err := gormDB.AutoMigrate(&model.User{}, &model.Creation{}); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migrations complete.")
}
