package handler

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/salesync/field-api/internal/model"
)

// Response shapes.  Models carry no JSON tags on purpose: the wire format
// lives here, with ids as strings and snake_case keys.

func uuidStr(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func rawJSON(b json.RawMessage) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func timeStr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func tenantJSON(t *model.Tenant) echo.Map {
	return echo.Map{
		"id":         t.ID.String(),
		"name":       t.Name,
		"subdomain":  t.Subdomain,
		"created_at": t.CreatedAt,
	}
}

func userJSON(u *model.User) echo.Map {
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, string(r))
	}
	return echo.Map{
		"id":            u.ID.String(),
		"tenant_id":     u.TenantID.String(),
		"email":         u.Email,
		"phone":         u.Phone,
		"first_name":    u.FirstName,
		"last_name":     u.LastName,
		"is_active":     u.IsActive,
		"roles":         roles,
		"last_login_at": timeStr(u.LastLoginAt),
		"created_at":    u.CreatedAt,
	}
}

func brandJSON(b *model.Brand) echo.Map {
	return echo.Map{
		"id":         b.ID.String(),
		"tenant_id":  b.TenantID.String(),
		"name":       b.Name,
		"slug":       b.Slug,
		"active":     b.Active,
		"created_at": b.CreatedAt,
	}
}

func infographicJSON(g *model.BrandInfographic) echo.Map {
	return echo.Map{
		"id":         g.ID.String(),
		"brand_id":   g.BrandID.String(),
		"file_url":   g.FileURL,
		"caption":    g.Caption,
		"created_at": g.CreatedAt,
	}
}

func surveyJSON(s *model.Survey) echo.Map {
	return echo.Map{
		"id":         s.ID.String(),
		"tenant_id":  s.TenantID.String(),
		"name":       s.Name,
		"type":       s.Type,
		"brand_id":   uuidStr(s.BrandID),
		"active":     s.Active,
		"created_by": uuidStr(s.CreatedBy),
		"created_at": s.CreatedAt,
	}
}

func questionJSON(q *model.SurveyQuestion) echo.Map {
	return echo.Map{
		"id":            q.ID.String(),
		"survey_id":     q.SurveyID.String(),
		"question_text": q.QuestionText,
		"input_type":    q.InputType,
		"meta":          rawJSON(q.Meta),
		"order_num":     q.OrderNum,
		"created_at":    q.CreatedAt,
	}
}

func visitJSON(v *model.Visit) echo.Map {
	return echo.Map{
		"id":           v.ID.String(),
		"tenant_id":    v.TenantID.String(),
		"survey_id":    v.SurveyID.String(),
		"user_id":      v.UserID.String(),
		"visit_type":   v.VisitType,
		"geocode":      rawJSON(v.Geocode),
		"shop_id":      uuidStr(v.ShopID),
		"started_at":   timeStr(v.StartedAt),
		"completed_at": timeStr(v.CompletedAt),
		"created_at":   v.CreatedAt,
	}
}

func answerJSON(a *model.VisitAnswer) echo.Map {
	return echo.Map{
		"id":          a.ID.String(),
		"visit_id":    a.VisitID.String(),
		"question_id": uuidStr(a.QuestionID),
		"answer_text": a.AnswerText,
		"answer_json": rawJSON(a.AnswerJSON),
		"created_at":  a.CreatedAt,
	}
}

func photoJSON(p *model.Photo) echo.Map {
	return echo.Map{
		"id":         p.ID.String(),
		"tenant_id":  p.TenantID.String(),
		"visit_id":   p.VisitID.String(),
		"file_url":   p.FileURL,
		"purpose":    p.Purpose,
		"metadata":   rawJSON(p.Metadata),
		"created_at": p.CreatedAt,
	}
}

func quadrantJSON(q *model.ShelfQuadrant) echo.Map {
	return echo.Map{
		"id":              q.ID.String(),
		"photo_id":        q.PhotoID.String(),
		"brand_id":        q.BrandID.String(),
		"quadrant_coords": rawJSON(q.QuadrantCoords),
		"area_percentage": q.AreaPercentage,
		"created_at":      q.CreatedAt,
	}
}

func teamJSON(t *model.Team) echo.Map {
	return echo.Map{
		"id":         t.ID.String(),
		"tenant_id":  t.TenantID.String(),
		"name":       t.Name,
		"manager_id": uuidStr(t.ManagerID),
		"created_at": t.CreatedAt,
	}
}

func goalJSON(g *model.Goal) echo.Map {
	return echo.Map{
		"id":           g.ID.String(),
		"tenant_id":    g.TenantID.String(),
		"name":         g.Name,
		"metric":       g.Metric,
		"target_value": g.TargetValue,
		"period":       g.Period,
		"start_date":   timeStr(g.StartDate),
		"end_date":     timeStr(g.EndDate),
		"created_at":   g.CreatedAt,
	}
}

func assignmentJSON(a *model.GoalAssignment) echo.Map {
	return echo.Map{
		"id":            a.ID.String(),
		"goal_id":       a.GoalID.String(),
		"assignee_type": string(a.AssigneeType),
		"assignee_id":   a.AssigneeID.String(),
		"progress":      rawJSON(a.Progress),
		"created_at":    a.CreatedAt,
	}
}

func cycleJSON(c *model.CallCycle) echo.Map {
	return echo.Map{
		"id":         c.ID.String(),
		"tenant_id":  c.TenantID.String(),
		"name":       c.Name,
		"frequency":  c.Frequency,
		"created_by": uuidStr(c.CreatedBy),
		"created_at": c.CreatedAt,
	}
}

func locationJSON(l *model.CallCycleLocation) echo.Map {
	return echo.Map{
		"id":            l.ID.String(),
		"call_cycle_id": l.CallCycleID.String(),
		"location":      rawJSON(l.Location),
		"shop_id":       uuidStr(l.ShopID),
		"order_num":     l.OrderNum,
		"created_at":    l.CreatedAt,
	}
}

func auditJSON(l *model.AuditLog) echo.Map {
	return echo.Map{
		"id":          l.ID.String(),
		"tenant_id":   uuidStr(l.TenantID),
		"user_id":     uuidStr(l.UserID),
		"action":      l.Action,
		"object_type": l.ObjectType,
		"object_id":   uuidStr(l.ObjectID),
		"metadata":    rawJSON(l.Metadata),
		"created_at":  l.CreatedAt,
	}
}
