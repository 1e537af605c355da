package repository

import (
	"database/sql"
	"fmt"

	"github.com/taskhub/issue-sync/internal/models"
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, board_id, title, description, status, status_column, position, issue_number, desynced, created_at, updated_at`

func (r *TaskRepository) Create(task *models.Task) error {
	query := `
		INSERT INTO tasks (id, board_id, title, description, status, status_column, position, issue_number, desynced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		task.Id,
		task.BoardId,
		task.Title,
		task.Description,
		string(task.Status),
		task.StatusColumn,
		task.Position,
		task.IssueNumber,
		task.Desynced,
	)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) GetTask(id string) (models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	return r.scanTask(r.db.QueryRow(query, id))
}

// GetByIssueNumber looks a task up by its idempotency key.
func (r *TaskRepository) GetByIssueNumber(boardId string, issueNumber int) (models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE board_id = ? AND issue_number = ?`
	return r.scanTask(r.db.QueryRow(query, boardId, issueNumber))
}

func (r *TaskRepository) ListByBoard(boardId string) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE board_id = ? ORDER BY position, created_at`
	rows, err := r.db.Query(query, boardId)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := r.scanTaskRows(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) Update(task *models.Task) error {
	query := `
		UPDATE tasks
		SET title = ?, description = ?, status = ?, status_column = ?, position = ?, desynced = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := r.db.Exec(query,
		task.Title,
		task.Description,
		string(task.Status),
		task.StatusColumn,
		task.Position,
		task.Desynced,
		task.Id,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return requireRow(result)
}

func (r *TaskRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return requireRow(result)
}

// SetIssueNumber writes the pairing key back after a successful issue
// creation. Last write wins; the field is set once and rarely changes.
func (r *TaskRepository) SetIssueNumber(id string, issueNumber int) error {
	result, err := r.db.Exec(
		`UPDATE tasks SET issue_number = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		issueNumber, id,
	)
	if err != nil {
		return fmt.Errorf("set issue number: %w", err)
	}
	return requireRow(result)
}

func (r *TaskRepository) SetDesynced(id string, desynced bool) error {
	result, err := r.db.Exec(
		`UPDATE tasks SET desynced = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		desynced, id,
	)
	if err != nil {
		return fmt.Errorf("set desynced: %w", err)
	}
	return requireRow(result)
}

func (r *TaskRepository) scanTask(row *sql.Row) (models.Task, error) {
	var t models.Task
	var status string
	var issueNumber sql.NullInt64

	err := row.Scan(
		&t.Id, &t.BoardId, &t.Title, &t.Description, &status, &t.StatusColumn,
		&t.Position, &issueNumber, &t.Desynced, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	t.Status = models.TaskStatus(status)
	if issueNumber.Valid {
		n := int(issueNumber.Int64)
		t.IssueNumber = &n
	}
	return t, nil
}

func (r *TaskRepository) scanTaskRows(rows *sql.Rows) (models.Task, error) {
	var t models.Task
	var status string
	var issueNumber sql.NullInt64

	err := rows.Scan(
		&t.Id, &t.BoardId, &t.Title, &t.Description, &status, &t.StatusColumn,
		&t.Position, &issueNumber, &t.Desynced, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return models.Task{}, fmt.Errorf("scan task: %w", err)
	}
	t.Status = models.TaskStatus(status)
	if issueNumber.Valid {
		n := int(issueNumber.Int64)
		t.IssueNumber = &n
	}
	return t, nil
}
