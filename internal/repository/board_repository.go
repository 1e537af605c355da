package repository

import (
	"database/sql"
	"fmt"

	"github.com/taskhub/issue-sync/internal/models"
)

type BoardRepository struct {
	db *sql.DB
}

func NewBoardRepository(db *sql.DB) *BoardRepository {
	return &BoardRepository{db: db}
}

func (r *BoardRepository) Create(board *models.Board) error {
	query := `
		INSERT INTO boards (id, name, sync_enabled, encrypted_token, repo_full_name, project_number)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		board.Id,
		board.Name,
		board.SyncEnabled,
		board.EncryptedToken,
		board.RepoFullName,
		board.ProjectNumber,
	)
	if err != nil {
		return fmt.Errorf("create board: %w", err)
	}
	return nil
}

func (r *BoardRepository) GetBoard(id string) (models.Board, error) {
	query := `
		SELECT id, name, sync_enabled, encrypted_token, repo_full_name, project_number, created_at
		FROM boards WHERE id = ?
	`
	return r.scanBoard(r.db.QueryRow(query, id))
}

// GetByRepo resolves the sync-enabled board mirroring a repository. Exact
// full-name match only.
func (r *BoardRepository) GetByRepo(repoFullName string) (models.Board, error) {
	query := `
		SELECT id, name, sync_enabled, encrypted_token, repo_full_name, project_number, created_at
		FROM boards WHERE repo_full_name = ? AND sync_enabled = 1
	`
	return r.scanBoard(r.db.QueryRow(query, repoFullName))
}

// GetByProjectNumber resolves the sync-enabled board keyed to a Projects v2
// number.
func (r *BoardRepository) GetByProjectNumber(number int) (models.Board, error) {
	query := `
		SELECT id, name, sync_enabled, encrypted_token, repo_full_name, project_number, created_at
		FROM boards WHERE project_number = ? AND sync_enabled = 1
	`
	return r.scanBoard(r.db.QueryRow(query, number))
}

// SetSyncConfig stores the encrypted token and repo identifier and flips
// sync on. The sync_enabled=1 row always carries both.
func (r *BoardRepository) SetSyncConfig(id, encryptedToken, repoFullName string, projectNumber *int) error {
	query := `
		UPDATE boards
		SET sync_enabled = 1, encrypted_token = ?, repo_full_name = ?, project_number = ?
		WHERE id = ?
	`
	result, err := r.db.Exec(query, encryptedToken, repoFullName, projectNumber, id)
	if err != nil {
		return fmt.Errorf("set sync config: %w", err)
	}
	return requireRow(result)
}

// RevokeSyncConfig clears the token and disables sync.
func (r *BoardRepository) RevokeSyncConfig(id string) error {
	query := `
		UPDATE boards
		SET sync_enabled = 0, encrypted_token = NULL
		WHERE id = ?
	`
	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("revoke sync config: %w", err)
	}
	return requireRow(result)
}

func (r *BoardRepository) scanBoard(row *sql.Row) (models.Board, error) {
	var b models.Board
	var token, repo sql.NullString
	var projectNumber sql.NullInt64

	err := row.Scan(&b.Id, &b.Name, &b.SyncEnabled, &token, &repo, &projectNumber, &b.CreatedAt)
	if err != nil {
		return models.Board{}, fmt.Errorf("get board: %w", err)
	}
	if token.Valid {
		b.EncryptedToken = &token.String
	}
	if repo.Valid {
		b.RepoFullName = &repo.String
	}
	if projectNumber.Valid {
		n := int(projectNumber.Int64)
		b.ProjectNumber = &n
	}
	return b, nil
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
