package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"go.uber.org/zap/zaptest"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
)

func TestStorage_GetReturnsValue(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	store := NewStorage(mock, nil, StorageConfig{}, zaptest.NewLogger(t))

	mock.ExpectQuery(`SELECT value FROM console\.client_storage WHERE scope = \$1 AND key = \$2`).
		WithArgs("sid-1", "access_token", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow("T1"))

	value, ok, err := store.Get(context.Background(), "sid-1", "access_token")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !ok || value != "T1" {
		t.Fatalf("expected T1, got %q (ok=%v)", value, ok)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStorage_GetMissingKey(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	store := NewStorage(mock, nil, StorageConfig{}, zaptest.NewLogger(t))

	mock.ExpectQuery(`SELECT value FROM console\.client_storage`).
		WithArgs("sid-1", "user", pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	_, ok, err := store.Get(context.Background(), "sid-1", "user")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected miss")
	}
}

func TestStorage_SetUpsertsAndNotifies(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	store := NewStorage(mock, nil, StorageConfig{Channel: "events", TTL: time.Hour}, zaptest.NewLogger(t))
	fixed := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO console\.client_storage .*ON CONFLICT \(scope, key\) DO UPDATE`).
		WithArgs("sid-1", "access_token", "T2", fixed, fixed.Add(time.Hour)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`SELECT pg_notify`).
		WithArgs("events", `{"scope":"sid-1","key":"access_token","removed":false}`).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectCommit()

	if err := store.Set(context.Background(), "sid-1", "access_token", "T2"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStorage_RemoveRollsBackOnNotifyFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	store := NewStorage(mock, nil, StorageConfig{Channel: "events"}, zaptest.NewLogger(t))

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM console\.client_storage WHERE scope = \$1 AND key IN \(\$2,\$3\)`).
		WithArgs("sid-1", "access_token", "user").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`SELECT pg_notify`).
		WithArgs("events", `{"scope":"sid-1","key":"access_token","removed":true}`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	if err := store.Remove(context.Background(), "sid-1", "access_token", "user"); err == nil {
		t.Fatalf("expected Remove to fail")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

type fakeNotificationConn struct {
	listened      string
	notifications chan *pgconn.Notification
}

func (f *fakeNotificationConn) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.listened = sql
	return pgconn.NewCommandTag("LISTEN"), nil
}

func (f *fakeNotificationConn) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	select {
	case n := <-f.notifications:
		return n, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestStorage_SubscribeDecodesNotifications(t *testing.T) {
	conn := &fakeNotificationConn{notifications: make(chan *pgconn.Notification, 2)}
	released := make(chan struct{})
	listen := func(context.Context) (NotificationConn, func(), error) {
		return conn, func() { close(released) }, nil
	}

	store := NewStorage(nil, listen, StorageConfig{Channel: "events"}, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := store.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}
	if conn.listened != `LISTEN "events"` {
		t.Fatalf("unexpected listen statement %q", conn.listened)
	}

	conn.notifications <- &pgconn.Notification{Channel: "events", Payload: "not-json"}
	conn.notifications <- &pgconn.Notification{Channel: "events", Payload: `{"scope":"sid-2","key":"user","removed":true}`}

	select {
	case event := <-events:
		want := domain.StorageEvent{Scope: "sid-2", Key: "user", Removed: true}
		if event != want {
			t.Fatalf("expected %+v, got %+v", want, event)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
	}

	cancel()
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatalf("listen connection was not released")
	}
}
