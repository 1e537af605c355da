package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/taskhub/issue-sync/internal/models"
	"github.com/taskhub/issue-sync/internal/notify"
	"github.com/taskhub/issue-sync/internal/repository"
	"github.com/taskhub/issue-sync/internal/service"
	"github.com/taskhub/issue-sync/internal/statusmap"
)

type TaskRequestBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

type TaskHandler struct {
	boards   *repository.BoardRepository
	tasks    *repository.TaskRepository
	outbound *service.OutboundSyncer
	notifier *notify.Notifier
}

func NewTaskHandler(
	boards *repository.BoardRepository,
	tasks *repository.TaskRepository,
	outbound *service.OutboundSyncer,
	notifier *notify.Notifier,
) *TaskHandler {
	return &TaskHandler{
		boards:   boards,
		tasks:    tasks,
		outbound: outbound,
		notifier: notifier,
	}
}

// CreateTask persists the task locally, then fires the outbound sync. Sync
// failures never surface here: the local write already succeeded.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	boardId := r.PathValue("id")

	board, err := h.boards.GetBoard(boardId)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "board not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var reqBody TaskRequestBody
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		writeError(w, http.StatusBadRequest, "JSON error: "+err.Error())
		return
	}
	if reqBody.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	status := models.StatusTodo
	if reqBody.Status != "" {
		status, err = models.ParseStatus(reqBody.Status)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	task := &models.Task{
		Id:           uuid.NewString(),
		BoardId:      board.Id,
		Title:        reqBody.Title,
		Description:  reqBody.Description,
		Status:       status,
		StatusColumn: statusmap.OptionNameFor(status),
	}
	if err := h.tasks.Create(task); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.outbound.TaskCreated(r.Context(), board, task)
	h.notifier.TaskChanged(r.Context(), notify.TaskChange{
		BoardId: board.Id,
		TaskId:  task.Id,
		Action:  "created",
		Source:  "local",
	})

	writeJSON(w, http.StatusCreated, map[string]any{"task": task})
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	task, err := h.tasks.GetTask(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	board, err := h.boards.GetBoard(task.BoardId)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var reqBody TaskRequestBody
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		writeError(w, http.StatusBadRequest, "JSON error: "+err.Error())
		return
	}

	previousStatus := task.Status
	if reqBody.Title != "" {
		task.Title = reqBody.Title
	}
	if reqBody.Description != "" {
		task.Description = reqBody.Description
	}
	if reqBody.Status != "" {
		status, err := models.ParseStatus(reqBody.Status)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		task.Status = status
		task.StatusColumn = statusmap.OptionNameFor(status)
	}
	if err := h.tasks.Update(&task); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.outbound.TaskUpdated(r.Context(), board, &task, previousStatus)
	h.notifier.TaskChanged(r.Context(), notify.TaskChange{
		BoardId: board.Id,
		TaskId:  task.Id,
		Action:  "updated",
		Source:  "local",
	})

	writeJSON(w, http.StatusOK, map[string]any{"task": task})
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	task, err := h.tasks.GetTask(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	board, err := h.boards.GetBoard(task.BoardId)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.tasks.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.outbound.TaskDeleted(r.Context(), board, &task)
	h.notifier.TaskChanged(r.Context(), notify.TaskChange{
		BoardId: board.Id,
		TaskId:  task.Id,
		Action:  "deleted",
		Source:  "local",
	})

	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	boardId := r.PathValue("id")

	tasks, err := h.tasks.ListByBoard(boardId)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}
