package main

import (
	"log"
	"net/http"

	"github.com/AdamBeresnev/bracket-engine/internal/config"
	"github.com/AdamBeresnev/bracket-engine/internal/db"
	"github.com/AdamBeresnev/bracket-engine/internal/metrics"
	"github.com/AdamBeresnev/bracket-engine/internal/service"
	"github.com/AdamBeresnev/bracket-engine/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	var bracketStore store.Store
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Println("Using in-memory store, brackets are lost on restart")
		bracketStore = store.NewMemoryStore()
	default:
		database, err := db.InitDB(cfg.DatabasePath)
		if err != nil {
			log.Fatal(err)
		}
		defer database.Close()

		if err := db.RunMigrations(database.DB); err != nil {
			log.Fatal("Failed to run migrations:", err)
		}
		bracketStore = store.NewBracketStore(database)
	}

	m := metrics.New()
	router := newRouter(
		service.NewBracketService(bracketStore, m),
		service.NewBracketReader(bracketStore),
		m,
		cfg.CORSOrigins,
	)

	log.Printf("Server starting on %s", cfg.ServerAddr)
	if err := http.ListenAndServe(cfg.ServerAddr, router); err != nil {
		log.Fatal(err)
	}
}
