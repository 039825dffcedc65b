package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/salesync/field-api/internal/model"
)

// Store appends audit rows.  *repository.AuditRepo satisfies it.
type Store interface {
	Insert(ctx context.Context, l *model.AuditLog) error
}

// Publisher pushes recorded events to the broker.
type Publisher interface {
	Publish(ctx context.Context, ev RecordedEvent) error
}

// Entry describes one privileged action to record.  TenantID and UserID
// may be nil for actions outside a tenant or user context.
type Entry struct {
	TenantID   *uuid.UUID
	UserID     *uuid.UUID
	Action     string
	ObjectType string
	ObjectID   *uuid.UUID
	Metadata   any // marshalled to JSON when non-nil
}

// Recorder writes audit entries.  The database append is synchronous and
// its error is returned; the broker publish never fails a Record call.
type Recorder struct {
	store     Store
	publisher Publisher
	log       *logrus.Logger
}

// NewRecorder builds a recorder.  publisher may be nil when no broker is
// configured.
func NewRecorder(store Store, publisher Publisher, log *logrus.Logger) *Recorder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Recorder{store: store, publisher: publisher, log: log}
}

// Record appends one audit row and publishes the matching event.
func (r *Recorder) Record(ctx context.Context, e Entry) error {
	l := &model.AuditLog{
		TenantID: e.TenantID,
		UserID:   e.UserID,
		Action:   e.Action,
		ObjectID: e.ObjectID,
	}
	if e.ObjectType != "" {
		l.ObjectType = &e.ObjectType
	}
	if e.Metadata != nil {
		raw, err := json.Marshal(e.Metadata)
		if err != nil {
			r.log.WithError(err).WithField("action", e.Action).Warn("audit: metadata not serialisable, dropping")
		} else {
			l.Metadata = raw
		}
	}
	if err := r.store.Insert(ctx, l); err != nil {
		return err
	}
	r.publish(ctx, l)
	return nil
}

func (r *Recorder) publish(ctx context.Context, l *model.AuditLog) {
	if r.publisher == nil {
		return
	}
	ev := RecordedEvent{
		ID:         l.ID.String(),
		Action:     l.Action,
		Metadata:   string(l.Metadata),
		RecordedAt: l.CreatedAt.UTC().Format(time.RFC3339),
	}
	if l.TenantID != nil {
		ev.TenantID = l.TenantID.String()
	}
	if l.UserID != nil {
		ev.UserID = l.UserID.String()
	}
	if l.ObjectType != nil {
		ev.ObjectType = *l.ObjectType
	}
	if l.ObjectID != nil {
		ev.ObjectID = l.ObjectID.String()
	}
	if err := r.publisher.Publish(ctx, ev); err != nil {
		r.log.WithError(err).WithField("action", l.Action).Warn("audit: event publish failed")
	}
}
