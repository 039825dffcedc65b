package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/salesync/field-api/internal/model"
)

// AuditRepo appends to and searches the append-only audit_logs table.
// There are no update or delete methods on purpose.
type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// Insert appends one audit row.
func (r *AuditRepo) Insert(ctx context.Context, l *model.AuditLog) error {
	l.ID = uuid.New()
	const q = `INSERT INTO audit_logs (id, tenant_id, user_id, action, object_type, object_id, metadata)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q,
		l.ID, l.TenantID, l.UserID, l.Action, l.ObjectType, l.ObjectID,
		nullableJSON(l.Metadata)); err != nil {
		return err
	}
	const qSel = "SELECT created_at FROM audit_logs WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSel, l.ID).Scan(&l.CreatedAt)
}

// AuditFilter narrows Search results.  All set fields combine with AND.
// Start and End bound created_at inclusively.
type AuditFilter struct {
	UserID     *uuid.UUID
	Action     string
	ObjectType string
	ObjectID   *uuid.UUID
	Start      *time.Time
	End        *time.Time
}

// Search returns one page of audit rows newest first plus the total match
// count.  A nil tenantID searches across tenants (super admin only).
func (r *AuditRepo) Search(ctx context.Context, tenantID *uuid.UUID, f AuditFilter, limit, offset int) ([]*model.AuditLog, int, error) {
	where := " WHERE 1=1"
	var args []any
	if tenantID != nil {
		where += " AND tenant_id = ?"
		args = append(args, *tenantID)
	}
	if f.UserID != nil {
		where += " AND user_id = ?"
		args = append(args, *f.UserID)
	}
	if f.Action != "" {
		where += " AND action = ?"
		args = append(args, f.Action)
	}
	if f.ObjectType != "" {
		where += " AND object_type = ?"
		args = append(args, f.ObjectType)
	}
	if f.ObjectID != nil {
		where += " AND object_id = ?"
		args = append(args, *f.ObjectID)
	}
	if f.Start != nil {
		where += " AND created_at >= ?"
		args = append(args, *f.Start)
	}
	if f.End != nil {
		where += " AND created_at <= ?"
		args = append(args, *f.End)
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM audit_logs"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT id, tenant_id, user_id, action, object_type, object_id, metadata, created_at
          FROM audit_logs` + where + " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*model.AuditLog
	for rows.Next() {
		var l model.AuditLog
		var tID, uID, oID uuid.NullUUID
		var objType sql.NullString
		var metadata []byte
		if err := rows.Scan(&l.ID, &tID, &uID, &l.Action, &objType, &oID, &metadata, &l.CreatedAt); err != nil {
			return nil, 0, err
		}
		l.TenantID = uuidPtr(tID)
		l.UserID = uuidPtr(uID)
		l.ObjectType = strPtr(objType)
		l.ObjectID = uuidPtr(oID)
		l.Metadata = metadata
		out = append(out, &l)
	}
	return out, total, rows.Err()
}
