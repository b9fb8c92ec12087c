package postgres

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/SolMeet-Labs/access_layer/internal/app/domain/subscription"
	"github.com/SolMeet-Labs/access_layer/internal/app/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return New(sqlx.NewDb(db, "postgres")), mock
}

func TestGetSubscription(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"principal_id", "subscribed"}).AddRow("p-1", true)
	mock.ExpectQuery(`SELECT principal_id, subscribed FROM subscriptions`).
		WithArgs("p-1").
		WillReturnRows(rows)

	record, found, err := store.GetSubscription(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found || !record.Subscribed || record.PrincipalID != "p-1" {
		t.Fatalf("unexpected record: %+v found=%v", record, found)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetSubscriptionAbsent(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT principal_id, subscribed FROM subscriptions`).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"principal_id", "subscribed"}))

	_, found, err := store.GetSubscription(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Fatalf("expected not found")
	}
}

func TestPutSubscriptionUpsert(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO subscriptions`).
		WithArgs("p-1", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.PutSubscription(context.Background(), subscription.Record{PrincipalID: "p-1", Subscribed: true})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateUserNormalizesEmail(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "a@x.com", []byte("hash")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	principal, err := store.CreateUser(context.Background(), " A@X.com ", []byte("hash"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if principal.ID == "" {
		t.Fatalf("expected a generated principal id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := store.CreateUser(context.Background(), "a@x.com", []byte("hash"))
	if !errors.Is(err, storage.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
}

func TestLookupUser(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "email", "secret_hash"}).
		AddRow("p-1", "a@x.com", []byte("hash"))
	mock.ExpectQuery(`SELECT id, email, secret_hash FROM users`).
		WithArgs("a@x.com").
		WillReturnRows(rows)

	principal, hash, found, err := store.LookupUser(context.Background(), "A@X.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !found || principal.ID != "p-1" || string(hash) != "hash" {
		t.Fatalf("unexpected result: %+v found=%v", principal, found)
	}
}

func TestLookupUserAbsent(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, email, secret_hash FROM users`).
		WithArgs("nobody@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "secret_hash"}))

	_, _, found, err := store.LookupUser(context.Background(), "nobody@x.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if found {
		t.Fatalf("expected not found")
	}
}
