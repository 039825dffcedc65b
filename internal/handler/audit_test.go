package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/salesync/field-api/internal/middleware"
	"github.com/salesync/field-api/internal/model"
	"github.com/salesync/field-api/internal/repository"
)

// fakeAuditSearcher serves canned pages and records what the handler
// asked for.
type fakeAuditSearcher struct {
	logs  []*model.AuditLog
	total int

	gotTenantID *uuid.UUID
	gotFilter   repository.AuditFilter
	gotLimit    int
	gotOffset   int
}

func (f *fakeAuditSearcher) Search(_ context.Context, tenantID *uuid.UUID, filter repository.AuditFilter, limit, offset int) ([]*model.AuditLog, int, error) {
	f.gotTenantID = tenantID
	f.gotFilter = filter
	f.gotLimit = limit
	f.gotOffset = offset
	if offset >= len(f.logs) {
		return nil, f.total, nil
	}
	end := offset + limit
	if end > len(f.logs) {
		end = len(f.logs)
	}
	return f.logs[offset:end], f.total, nil
}

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func auditEntries(n int) []*model.AuditLog {
	out := make([]*model.AuditLog, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &model.AuditLog{
			ID:        uuid.New(),
			Action:    "create_brand",
			CreatedAt: time.Now(),
		})
	}
	return out
}

type auditPage struct {
	Logs    []json.RawMessage `json:"logs"`
	Total   int               `json:"total"`
	Limit   int               `json:"limit"`
	Offset  int               `json:"offset"`
	HasMore bool              `json:"has_more"`
}

func auditSearch(t *testing.T, fake *fakeAuditSearcher, target string, tenantID uuid.UUID, crossTenant bool) auditPage {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.TenantKey, tenantID)

	h := &AuditHandler{Audit: fake, Log: quietLog()}
	var err error
	if crossTenant {
		err = h.SearchAll(c)
	} else {
		err = h.Search(c)
	}
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var page auditPage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return page
}

func TestAuditSearchHasMore(t *testing.T) {
	fake := &fakeAuditSearcher{logs: auditEntries(5), total: 5}
	tenant := uuid.New()

	page := auditSearch(t, fake, "/api/audit?limit=2&offset=0", tenant, false)
	if page.Total != 5 || page.Limit != 2 || page.Offset != 0 {
		t.Fatalf("bad envelope: %+v", page)
	}
	if len(page.Logs) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(page.Logs))
	}
	if !page.HasMore {
		t.Fatal("2 of 5 returned, has_more must be true")
	}
	if fake.gotTenantID == nil || *fake.gotTenantID != tenant {
		t.Fatalf("search must be scoped to the request tenant, got %v", fake.gotTenantID)
	}
}

func TestAuditSearchLastPage(t *testing.T) {
	fake := &fakeAuditSearcher{logs: auditEntries(5), total: 5}

	// offset+limit lands exactly on total: nothing left
	page := auditSearch(t, fake, "/api/audit?limit=2&offset=3", uuid.New(), false)
	if len(page.Logs) != 2 || page.HasMore {
		t.Fatalf("exact last page must not report more: %+v", page)
	}

	page = auditSearch(t, fake, "/api/audit?limit=2&offset=4", uuid.New(), false)
	if len(page.Logs) != 1 || page.HasMore {
		t.Fatalf("trailing page must not report more: %+v", page)
	}
}

func TestAuditSearchAllIsUnscoped(t *testing.T) {
	fake := &fakeAuditSearcher{logs: auditEntries(1), total: 1}
	auditSearch(t, fake, "/api/audit/all", uuid.New(), true)
	if fake.gotTenantID != nil {
		t.Fatalf("cross-tenant search must pass no tenant, got %v", fake.gotTenantID)
	}
}

func TestAuditSearchFilters(t *testing.T) {
	fake := &fakeAuditSearcher{}
	user := uuid.New()
	target := "/api/audit?user_id=" + user.String() + "&action=create_brand&object_type=brand&limit=10&offset=20"
	auditSearch(t, fake, target, uuid.New(), false)

	if fake.gotFilter.UserID == nil || *fake.gotFilter.UserID != user {
		t.Fatalf("user filter dropped: %+v", fake.gotFilter)
	}
	if fake.gotFilter.Action != "create_brand" || fake.gotFilter.ObjectType != "brand" {
		t.Fatalf("string filters dropped: %+v", fake.gotFilter)
	}
	if fake.gotLimit != 10 || fake.gotOffset != 20 {
		t.Fatalf("paging dropped: limit=%d offset=%d", fake.gotLimit, fake.gotOffset)
	}
}
