package message

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestCreateAssignsIDAndTimestamp(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	createdAt := time.Now()
	mock.ExpectQuery("INSERT INTO messages").
		WithArgs("hello", int64(1), int64(2), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), createdAt))

	store := NewSQLStore(db)
	msg, err := store.Create(context.Background(), 1, 2, "hello")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if msg.ID != 42 {
		t.Errorf("expected id 42, got %d", msg.ID)
	}
	if !msg.CreatedAt.Equal(createdAt) {
		t.Errorf("expected server timestamp, got %v", msg.CreatedAt)
	}
	if msg.Read {
		t.Error("new message created as read")
	}
	if msg.SenderID != 1 || msg.ReceiverID != 2 {
		t.Errorf("participants wrong: %+v", msg)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetBetweenReturnsBothDirections(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "content", "sender_id", "receiver_id", "created_at", "read"}).
		AddRow(int64(1), "hi", int64(1), int64(2), now.Add(-time.Minute), true).
		AddRow(int64(2), "hey", int64(2), int64(1), now, false)

	mock.ExpectQuery("SELECT id, content, sender_id, receiver_id, created_at, read").
		WithArgs(int64(1), int64(2)).
		WillReturnRows(rows)

	store := NewSQLStore(db)
	msgs, err := store.GetBetween(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].ID != 1 || msgs[1].ID != 2 {
		t.Errorf("order wrong: %+v", msgs)
	}
	if msgs[1].SenderID != 2 || msgs[1].ReceiverID != 1 {
		t.Errorf("reverse-direction message mangled: %+v", msgs[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestMarkReadReportsAffectedRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec("UPDATE messages").
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	store := NewSQLStore(db)
	count, err := store.MarkRead(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 rows, got %d", count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCountUnread(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(5)))

	store := NewSQLStore(db)
	count, err := store.CountUnread(context.Background(), 7)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 5 {
		t.Errorf("expected 5, got %d", count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
