package main

import (
	"context"
	"log"
	"os"
	"time"

	"queryjam/internal/api"
	"queryjam/internal/auth"
	"queryjam/internal/config"
	"queryjam/internal/datastore"
	"queryjam/internal/hub"
	"queryjam/internal/redis"
	"queryjam/internal/service/ai"
	"queryjam/internal/service/collab"
	"queryjam/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("QUERYJAM_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbType := os.Getenv("QUERYJAM_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	log.Printf("dbType: %s\n", dbType)
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := storage.Migrate(db, dbType); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	// Redis backs the auth token cache and cross-instance rate limits; the
	// service still works without it.
	rdb, err := redis.NewRedisClient(cfg)
	if err != nil {
		log.Printf("redis unavailable, using in-process fallbacks: %v", err)
		rdb = nil
	}
	defer rdb.Close()

	bus := hub.New()
	store := datastore.New(db, dbType)
	collabService := collab.NewService(db, store, bus, cfg.BasicConfig.DefaultQueryLimit)
	authService := auth.NewService(db, rdb, 24*time.Hour)

	var aiService *ai.Service
	if provider := os.Getenv("QUERYJAM_AI_PROVIDER"); provider != "" {
		aiService, err = ai.NewService(context.Background(), cfg, provider)
		if err != nil {
			log.Printf("ai disabled: %v", err)
			aiService = nil
		}
	}

	limits := api.NewRateLimiter(rdb)
	handlers := api.NewHandler(collabService, authService, aiService, limits, cfg.BasicConfig)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
