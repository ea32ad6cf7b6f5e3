package portfolios

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

const testDocID = "6f1c2a8e-6a55-4a0e-9d3b-1c2f3e4d5a6b"

func TestPGRepoMergeUsesTopLevelConcatenation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec(`UPDATE portfolios\s+SET data = data \|\| \$3::jsonb,\s+updated_at = GREATEST\(updated_at, \$4\)`).
		WithArgs(testDocID, "google:1", []byte(`{"title":"Hello"}`), int64(1700000000000)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	patch := Patch{"title": "Hello", "id": "other", "updatedAt": 1}
	if err := repo.Merge(context.Background(), "google:1", testDocID, patch, 1700000000000); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoMergeMissingRowIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("UPDATE portfolios").WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Merge(context.Background(), "google:1", testDocID, Patch{"title": "x"}, 1)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoGetAddsMeta(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	rows := sqlmock.NewRows([]string{"data", "created_at", "updated_at"}).
		AddRow([]byte(`{"title":"Stored","templateId":"linktree_bento"}`), int64(10), int64(20))
	mock.ExpectQuery("SELECT data, created_at, updated_at").
		WithArgs(testDocID, "google:1").
		WillReturnRows(rows)

	rec, err := repo.Get(context.Background(), "google:1", testDocID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec["id"] != testDocID || rec["ownerId"] != "google:1" || rec["title"] != "Stored" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec["createdAt"] != int64(10) || rec["updatedAt"] != int64(20) {
		t.Fatalf("unexpected timestamps %+v", rec)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetRejectsNonUUIDWithoutQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	if _, err := repo.Get(context.Background(), "google:1", "portfolio_local"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateStripsMeta(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("INSERT INTO portfolios").
		WithArgs(testDocID, "google:1", []byte(`{"title":"New"}`), int64(5)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	data := Record{"id": "guest-local", "ownerId": "guest", "title": "New"}
	if err := repo.Create(context.Background(), "google:1", testDocID, data, 5); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
