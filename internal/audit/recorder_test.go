package audit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/salesync/field-api/internal/model"
)

type fakeStore struct {
	inserted []*model.AuditLog
	fail     bool
}

func (f *fakeStore) Insert(_ context.Context, l *model.AuditLog) error {
	if f.fail {
		return errors.New("db down")
	}
	l.ID = uuid.New()
	l.CreatedAt = time.Now().UTC()
	f.inserted = append(f.inserted, l)
	return nil
}

type fakePublisher struct {
	events []RecordedEvent
	fail   bool
}

func (f *fakePublisher) Publish(_ context.Context, ev RecordedEvent) error {
	if f.fail {
		return errors.New("broker down")
	}
	f.events = append(f.events, ev)
	return nil
}

func TestRecordAppendsAndPublishes(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	rec := NewRecorder(store, pub, nil)

	tenant, user, object := uuid.New(), uuid.New(), uuid.New()
	err := rec.Record(context.Background(), Entry{
		TenantID:   &tenant,
		UserID:     &user,
		Action:     "create_brand",
		ObjectType: "brand",
		ObjectID:   &object,
		Metadata:   map[string]string{"name": "Acme"},
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected 1 row, got %d", len(store.inserted))
	}
	row := store.inserted[0]
	if row.Action != "create_brand" || row.TenantID == nil || *row.TenantID != tenant {
		t.Fatalf("bad row: %+v", row)
	}
	if !strings.Contains(string(row.Metadata), `"Acme"`) {
		t.Fatalf("metadata not serialised: %s", row.Metadata)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	ev := pub.events[0]
	if ev.TenantID != tenant.String() || ev.ObjectType != "brand" || ev.ObjectID != object.String() {
		t.Fatalf("bad event: %+v", ev)
	}
}

func TestRecordSurvivesPublishFailure(t *testing.T) {
	store := &fakeStore{}
	rec := NewRecorder(store, &fakePublisher{fail: true}, nil)

	if err := rec.Record(context.Background(), Entry{Action: "delete_team"}); err != nil {
		t.Fatalf("publish failure must not fail Record: %v", err)
	}
	if len(store.inserted) != 1 {
		t.Fatal("row must still be appended")
	}
}

func TestRecordWithoutPublisher(t *testing.T) {
	store := &fakeStore{}
	rec := NewRecorder(store, nil, nil)
	if err := rec.Record(context.Background(), Entry{Action: "create_tenant"}); err != nil {
		t.Fatalf("nil publisher must be fine: %v", err)
	}
}

func TestRecordReturnsStoreError(t *testing.T) {
	rec := NewRecorder(&fakeStore{fail: true}, &fakePublisher{}, nil)
	if err := rec.Record(context.Background(), Entry{Action: "create_user"}); err == nil {
		t.Fatal("store failure must surface")
	}
}

func TestFormatLine(t *testing.T) {
	line := formatLine(RecordedEvent{
		Action:     "complete_visit",
		TenantID:   "t-1",
		UserID:     "u-1",
		ObjectType: "visit",
		ObjectID:   "v-1",
		RecordedAt: "2026-01-10T08:00:00Z",
	})
	want := "[2026-01-10T08:00:00Z] complete_visit | tenant=t-1 | user=u-1 | object=visit/v-1\n"
	if line != want {
		t.Fatalf("got %q, want %q", line, want)
	}
	bare := formatLine(RecordedEvent{Action: "bootstrap", RecordedAt: "2026-01-10T08:00:00Z"})
	if !strings.Contains(bare, "tenant=- | user=- | object=-") {
		t.Fatalf("missing placeholders: %q", bare)
	}
}
