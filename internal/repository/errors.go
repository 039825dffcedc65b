// Package repository contains data access logic separated from HTTP
// handlers.  Every query against a tenant-scoped table takes the tenant id
// as an explicit argument and includes it in the WHERE clause, so a
// cross-tenant read is unrepresentable at this layer: a wrong tenant
// simply yields the entity's not-found sentinel.
package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrConflict is returned when an insert or update violates a uniqueness
// constraint (brand name per tenant, team name per tenant, user email per
// tenant, ...).  Handlers translate it into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate it into an HTTP 403
// response.
var ErrForbidden = errors.New("forbidden")

// isDup reports whether err is a MySQL duplicate-entry error (1062).
func isDup(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// isFKViolation reports whether err is a MySQL foreign-key error (1451
// delete parent / 1452 insert child).
func isFKViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "1451") || strings.Contains(err.Error(), "1452")
}

// nullableJSON maps an empty JSON payload to NULL so optional JSON
// columns are not filled with empty strings.
func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return []byte(b)
}

// Null conversion helpers shared by the repositories.  Write paths pass
// pointer fields straight to Exec (database/sql dereferences them and
// maps nil to NULL); read paths scan through sql.Null* and convert back.

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

func uuidPtr(nu uuid.NullUUID) *uuid.UUID {
	if !nu.Valid {
		return nil
	}
	id := nu.UUID
	return &id
}
