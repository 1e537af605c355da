package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/taskhub/issue-sync/internal/dedupe"
	"github.com/taskhub/issue-sync/internal/models"
	"github.com/taskhub/issue-sync/internal/service"
	"github.com/taskhub/issue-sync/internal/webhook"
)

type WebhookHandler struct {
	verifier *webhook.Verifier
	deduper  *dedupe.Deduper
	inbound  *service.InboundSyncer
}

func NewWebhookHandler(verifier *webhook.Verifier, deduper *dedupe.Deduper, inbound *service.InboundSyncer) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		deduper:  deduper,
		inbound:  inbound,
	}
}

// Receive handles webhook deliveries. Senders retry on errors, so anything
// we simply do not handle is acknowledged with 200; only a bad signature or
// a genuine internal failure produces an error status.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	if !h.verifier.Verify(body, r.Header.Get("X-Hub-Signature-256")) {
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	event := r.Header.Get("X-GitHub-Event")
	delivery := r.Header.Get("X-GitHub-Delivery")
	if !h.deduper.FirstDelivery(r.Context(), delivery) {
		writeJSON(w, http.StatusOK, map[string]any{
			"received":  true,
			"event":     event,
			"duplicate": true,
		})
		return
	}

	var (
		outcome *service.SyncOutcome
		action  string
		syncErr error
	)

	switch event {
	case "issues":
		var ev models.IssueEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			writeError(w, http.StatusBadRequest, "parse issue event: "+err.Error())
			return
		}
		action = ev.Action
		outcome, syncErr = h.inbound.HandleIssueEvent(r.Context(), ev)

	case "projects_v2_item":
		var ev models.ProjectItemEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			writeError(w, http.StatusBadRequest, "parse project item event: "+err.Error())
			return
		}
		action = ev.Action
		outcome, syncErr = h.inbound.HandleProjectItemEvent(r.Context(), ev)

	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"received": true,
			"event":    event,
			"message":  "event not implemented",
		})
		return
	}

	if syncErr != nil {
		var resErr *service.ResolutionError
		if errors.As(syncErr, &resErr) {
			// Nothing to sync against; acknowledge so the sender does not
			// retry into a wall.
			log.WithField("event", event).Warnf("webhook skipped: %v", resErr)
			writeJSON(w, http.StatusOK, map[string]any{
				"received": true,
				"event":    event,
				"action":   action,
				"message":  resErr.Error(),
			})
			return
		}
		log.WithField("event", event).Errorf("webhook processing: %v", syncErr)
		writeError(w, http.StatusInternalServerError, syncErr.Error())
		return
	}

	resp := map[string]any{
		"received": true,
		"event":    event,
		"action":   action,
	}
	if outcome != nil {
		resp["task_id"] = outcome.TaskId
	}
	writeJSON(w, http.StatusOK, resp)
}
