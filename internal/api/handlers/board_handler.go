package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/taskhub/issue-sync/internal/models"
	"github.com/taskhub/issue-sync/internal/repository"
	"github.com/taskhub/issue-sync/internal/service"
	"github.com/taskhub/issue-sync/internal/vault"
)

type CreateBoardRequestBody struct {
	Name string `json:"name"`
}

type SyncConfigRequestBody struct {
	Token         string `json:"token"`
	RepoFullName  string `json:"repo_full_name"`
	ProjectNumber *int   `json:"project_number"`
}

type BoardHandler struct {
	boards  *repository.BoardRepository
	vault   *vault.Vault
	inbound *service.InboundSyncer
}

func NewBoardHandler(boards *repository.BoardRepository, v *vault.Vault, inbound *service.InboundSyncer) *BoardHandler {
	return &BoardHandler{boards: boards, vault: v, inbound: inbound}
}

func (h *BoardHandler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	var reqBody CreateBoardRequestBody
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		writeError(w, http.StatusBadRequest, "JSON error: "+err.Error())
		return
	}
	if reqBody.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	board := &models.Board{
		Id:   uuid.NewString(),
		Name: reqBody.Name,
	}
	if err := h.boards.Create(board); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"board": board})
}

func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.boards.GetBoard(r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "board not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// Never echo the stored token back, not even encrypted.
	board.EncryptedToken = nil
	writeJSON(w, http.StatusOK, map[string]any{"board": board})
}

// SetSyncConfig stores the encrypted GitHub token and repo pairing. The
// token only exists in plaintext for the duration of this request.
func (h *BoardHandler) SetSyncConfig(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var reqBody SyncConfigRequestBody
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		writeError(w, http.StatusBadRequest, "JSON error: "+err.Error())
		return
	}
	if reqBody.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}
	if _, _, ok := models.SplitRepo(reqBody.RepoFullName); !ok {
		writeError(w, http.StatusBadRequest, "repo_full_name must be owner/name")
		return
	}

	encrypted, err := h.vault.Encrypt(reqBody.Token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	err = h.boards.SetSyncConfig(id, encrypted, reqBody.RepoFullName, reqBody.ProjectNumber)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "board not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Import the repository's existing issues so the board starts in sync.
	// Best-effort: a failed backfill leaves webhooks to fill the gap.
	imported := 0
	board, err := h.boards.GetBoard(id)
	if err == nil {
		imported, err = h.inbound.BackfillBoard(r.Context(), board)
	}
	if err != nil {
		log.WithField("board", id).Warnf("backfill: %v", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{"sync_enabled": true, "imported": imported})
}

func (h *BoardHandler) RevokeSyncConfig(w http.ResponseWriter, r *http.Request) {
	err := h.boards.RevokeSyncConfig(r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "board not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sync_enabled": false})
}
