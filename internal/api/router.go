package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskhub/issue-sync/internal/api/handlers"
	"github.com/taskhub/issue-sync/internal/client"
	"github.com/taskhub/issue-sync/internal/client/github"
	"github.com/taskhub/issue-sync/internal/dedupe"
	"github.com/taskhub/issue-sync/internal/notify"
	"github.com/taskhub/issue-sync/internal/repository"
	"github.com/taskhub/issue-sync/internal/service"
	"github.com/taskhub/issue-sync/internal/vault"
	"github.com/taskhub/issue-sync/internal/webhook"
)

// deliveryDedupeTTL bounds how long a webhook delivery id is remembered.
// Senders give up retrying well before this.
const deliveryDedupeTTL = 24 * time.Hour

func SetupRouter(db *sql.DB, v *vault.Vault, verifier *webhook.Verifier, redisClient *redis.Client) *http.ServeMux {
	mux := http.NewServeMux()

	boardRepo := repository.NewBoardRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	notifier := notify.New(redisClient)
	deduper := dedupe.New(redisClient, deliveryDedupeTTL)

	factory := client.Factory(func(token string) client.API {
		return github.NewClient(token)
	})

	outboundSyncer := service.NewOutboundSyncer(v, taskRepo, factory)
	inboundSyncer := service.NewInboundSyncer(v, boardRepo, taskRepo, notifier, factory)

	boardHandler := handlers.NewBoardHandler(boardRepo, v, inboundSyncer)
	taskHandler := handlers.NewTaskHandler(boardRepo, taskRepo, outboundSyncer, notifier)
	webhookHandler := handlers.NewWebhookHandler(verifier, deduper, inboundSyncer)

	mux.HandleFunc("POST /webhooks/issues", webhookHandler.Receive)

	mux.HandleFunc("POST /boards", boardHandler.CreateBoard)
	mux.HandleFunc("GET /boards/{id}", boardHandler.GetBoard)
	mux.HandleFunc("POST /boards/{id}/sync-config", boardHandler.SetSyncConfig)
	mux.HandleFunc("DELETE /boards/{id}/sync-config", boardHandler.RevokeSyncConfig)

	mux.HandleFunc("POST /boards/{id}/tasks", taskHandler.CreateTask)
	mux.HandleFunc("GET /boards/{id}/tasks", taskHandler.ListTasks)
	mux.HandleFunc("PUT /tasks/{id}", taskHandler.UpdateTask)
	mux.HandleFunc("DELETE /tasks/{id}", taskHandler.DeleteTask)

	return mux
}
