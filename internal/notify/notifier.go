// Package notify publishes task change events so connected clients can see
// sync results in real time. Delivery is best-effort; a missing or failing
// redis never fails the sync that produced the change.
package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const taskUpdatesChannel = "task-sync-updates"

type TaskChange struct {
	BoardId string `json:"board_id"`
	TaskId  string `json:"task_id"`
	Action  string `json:"action"`
	Source  string `json:"source"` // "webhook" or "local"
}

type Notifier struct {
	redis *redis.Client
}

// New builds a notifier. A nil client yields a no-op notifier, used when
// REDIS_ADDR is not configured.
func New(client *redis.Client) *Notifier {
	return &Notifier{redis: client}
}

func (n *Notifier) TaskChanged(ctx context.Context, change TaskChange) {
	if n == nil || n.redis == nil {
		return
	}
	payload, err := json.Marshal(change)
	if err != nil {
		return
	}
	if err := n.redis.Publish(ctx, taskUpdatesChannel, payload).Err(); err != nil {
		log.WithFields(log.Fields{
			"board": change.BoardId,
			"task":  change.TaskId,
		}).Errorf("publish task change: %v", err)
	}
}
