package repository

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/taskhub/issue-sync/internal/models"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(":memory:")
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestBoardSyncConfigLifecycle(t *testing.T) {
	db := testDB(t)
	boards := NewBoardRepository(db)

	board := &models.Board{Id: "b1", Name: "Backend"}
	if err := boards.Create(board); err != nil {
		t.Fatalf("create board: %v", err)
	}

	got, err := boards.GetBoard("b1")
	if err != nil {
		t.Fatalf("get board: %v", err)
	}
	if got.SyncEnabled || got.EncryptedToken != nil {
		t.Errorf("new board should have sync disabled: %+v", got)
	}

	if err := boards.SetSyncConfig("b1", "aa:bb", "acme/backend", intPtr(4)); err != nil {
		t.Fatalf("set sync config: %v", err)
	}
	got, _ = boards.GetBoard("b1")
	if !got.SyncConfigured() {
		t.Errorf("board should be sync-configured: %+v", got)
	}
	if got.ProjectNumber == nil || *got.ProjectNumber != 4 {
		t.Errorf("project number not stored: %+v", got.ProjectNumber)
	}

	if err := boards.RevokeSyncConfig("b1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	got, _ = boards.GetBoard("b1")
	if got.SyncEnabled || got.EncryptedToken != nil {
		t.Errorf("revoke should clear token and disable sync: %+v", got)
	}
}

func TestBoardResolution(t *testing.T) {
	db := testDB(t)
	boards := NewBoardRepository(db)

	enabled := &models.Board{
		Id: "b1", Name: "Backend",
		SyncEnabled:    true,
		EncryptedToken: strPtr("aa:bb"),
		RepoFullName:   strPtr("acme/backend"),
		ProjectNumber:  intPtr(4),
	}
	disabled := &models.Board{
		Id: "b2", Name: "Old",
		RepoFullName: strPtr("acme/old"),
	}
	if err := boards.Create(enabled); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := boards.Create(disabled); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := boards.GetByRepo("acme/backend")
	if err != nil {
		t.Fatalf("get by repo: %v", err)
	}
	if got.Id != "b1" {
		t.Errorf("got board %s, want b1", got.Id)
	}

	if _, err := boards.GetByRepo("acme/old"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("sync-disabled board must not resolve, got %v", err)
	}
	if _, err := boards.GetByRepo("acme/unknown"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("unknown repo must not resolve, got %v", err)
	}

	got, err = boards.GetByProjectNumber(4)
	if err != nil {
		t.Fatalf("get by project number: %v", err)
	}
	if got.Id != "b1" {
		t.Errorf("got board %s, want b1", got.Id)
	}
}

func TestTaskIssueNumberKey(t *testing.T) {
	db := testDB(t)
	boards := NewBoardRepository(db)
	tasks := NewTaskRepository(db)

	if err := boards.Create(&models.Board{Id: "b1", Name: "Backend"}); err != nil {
		t.Fatalf("create board: %v", err)
	}

	task := &models.Task{
		Id: "t1", BoardId: "b1", Title: "Fix bug", Status: models.StatusTodo,
	}
	if err := tasks.Create(task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	if err := tasks.SetIssueNumber("t1", 42); err != nil {
		t.Fatalf("set issue number: %v", err)
	}
	got, err := tasks.GetByIssueNumber("b1", 42)
	if err != nil {
		t.Fatalf("get by issue number: %v", err)
	}
	if got.Id != "t1" {
		t.Errorf("got task %s, want t1", got.Id)
	}

	// A second task with the same pairing key must be rejected.
	dup := &models.Task{
		Id: "t2", BoardId: "b1", Title: "Dup", Status: models.StatusTodo,
		IssueNumber: intPtr(42),
	}
	if err := tasks.Create(dup); err == nil {
		t.Error("duplicate (board, issue_number) must be rejected")
	}

	// Unpaired tasks are not constrained.
	for _, id := range []string{"t3", "t4"} {
		unpaired := &models.Task{Id: id, BoardId: "b1", Title: id, Status: models.StatusTodo}
		if err := tasks.Create(unpaired); err != nil {
			t.Fatalf("create unpaired task %s: %v", id, err)
		}
	}
}

func TestTaskUpdateAndDesynced(t *testing.T) {
	db := testDB(t)
	boards := NewBoardRepository(db)
	tasks := NewTaskRepository(db)

	if err := boards.Create(&models.Board{Id: "b1", Name: "Backend"}); err != nil {
		t.Fatalf("create board: %v", err)
	}
	task := &models.Task{Id: "t1", BoardId: "b1", Title: "Fix bug", Status: models.StatusTodo}
	if err := tasks.Create(task); err != nil {
		t.Fatalf("create: %v", err)
	}

	task.Title = "Fix the bug"
	task.Status = models.StatusInReview
	task.StatusColumn = "In Review"
	if err := tasks.Update(task); err != nil {
		t.Fatalf("update: %v", err)
	}

	if err := tasks.SetDesynced("t1", true); err != nil {
		t.Fatalf("set desynced: %v", err)
	}

	got, err := tasks.GetTask("t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Fix the bug" || got.Status != models.StatusInReview || !got.Desynced {
		t.Errorf("unexpected task state: %+v", got)
	}

	if err := tasks.Delete("t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := tasks.GetTask("t1"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("deleted task still resolves: %v", err)
	}

	if err := tasks.Update(&models.Task{Id: "missing"}); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("updating a missing task should report no rows, got %v", err)
	}
}
