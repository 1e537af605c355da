package main

import (
	"net/http"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/taskhub/issue-sync/internal/api"
	"github.com/taskhub/issue-sync/internal/repository"
	"github.com/taskhub/issue-sync/internal/vault"
	"github.com/taskhub/issue-sync/internal/webhook"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file")
	}
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	// Misconfigured crypto or webhook secrets must stop the process here,
	// not surface later as silently unverified or unreadable data.
	v, err := vault.New([]byte(os.Getenv("TOKEN_ENCRYPTION_KEY")))
	if err != nil {
		log.Fatalf("token encryption key: %v", err)
	}
	verifier, err := webhook.NewVerifier(os.Getenv("WEBHOOK_SECRET"))
	if err != nil {
		log.Fatalf("webhook secret: %v", err)
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./sync.db"
	}
	db, err := repository.InitDB(dbPath)
	if err != nil {
		log.Fatalf("init db: %v", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: addr})
	} else {
		log.Warn("REDIS_ADDR not set; change notifications and delivery dedupe are disabled")
	}

	router := api.SetupRouter(db, v, verifier, redisClient)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Infof("listening on :%s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("server: %v", err)
	}
}
