package main

import (
	"context"
	"log"

	"giga-banana-web/internal/bootstrap"
	"giga-banana-web/internal/config"
	"giga-banana-web/internal/server"
	"giga-banana-web/internal/tracer"
	"giga-banana-web/pkg/database"
)

func main() {
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	gormDB, err := database.NewGormDB(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)

	// Relays NATS events onto the websocket hub.
	if err := container.EventBridge.Start(); err != nil {
		log.Printf("Background Event Bridge Error: %v", err)
	}

	srv := server.New(cfg, container)

	log.Fatal(srv.Run())
}
