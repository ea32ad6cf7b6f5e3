package users

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestLookupByHandlePicksOldestMatch(t *testing.T) {
	repo := NewMemoryRepo()
	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	svc := NewService(repo)
	ctx := context.Background()

	for _, u := range []User{
		{ID: "google:1", Email: "Ada.L@example.com"},
		{ID: "google:2", Email: "ada.l@other.org"},
		{ID: "google:3", Email: "grace@example.com"},
	} {
		if err := svc.UpsertFromAuth(ctx, u); err != nil {
			t.Fatalf("UpsertFromAuth: %v", err)
		}
	}

	id, err := svc.LookupByHandle(ctx, " ADA.L ")
	if err != nil {
		t.Fatalf("LookupByHandle: %v", err)
	}
	if id != "google:1" {
		t.Fatalf("expected oldest account google:1, got %q", id)
	}

	if _, err := svc.LookupByHandle(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.LookupByHandle(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty handle, got %v", err)
	}
}

func TestUpsertKeepsCreatedAt(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	_ = repo.Upsert(ctx, User{ID: "u1", Email: "a@example.com"})
	first, _ := repo.GetByID(ctx, "u1")

	_ = repo.Upsert(ctx, User{ID: "u1", Email: "b@example.com"})
	second, _ := repo.GetByID(ctx, "u1")
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("createdAt changed: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
	if second.Handle() != "b" {
		t.Fatalf("expected handle b, got %q", second.Handle())
	}
}

func TestUpsertRequiresEmail(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if err := svc.UpsertFromAuth(context.Background(), User{ID: "u1"}); err == nil {
		t.Fatalf("expected error for missing email")
	}
}

func TestPGRepoList(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := &PGRepo{DB: db}

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "email", "full_name", "given_name", "family_name", "picture_url", "created_at", "updated_at"}).
		AddRow("google:7", "ada@example.com", "Ada Lovelace", nil, nil, nil, created, nil).
		AddRow("google:8", "grace@example.com", nil, "Grace", nil, nil, created.Add(time.Hour), created)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users ORDER BY created_at, id")).
		WillReturnRows(rows)

	all, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 users, got %d", len(all))
	}
	if user := all[0]; user.ID != "google:7" || user.FullName != "Ada Lovelace" || user.GivenName != "" {
		t.Fatalf("unexpected user %+v", user)
	}
	if all[1].GivenName != "Grace" || all[1].Handle() != "grace" {
		t.Fatalf("unexpected second user %+v", all[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := &PGRepo{DB: db}

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
