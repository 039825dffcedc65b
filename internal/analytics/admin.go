package analytics

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/salesync/field-api/internal/repository"
)

// UserActivity is one agent's visit activity over a window.
type UserActivity struct {
	UserID          uuid.UUID  `json:"user_id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	IsActive        bool       `json:"is_active"`
	TotalVisits     int        `json:"total_visits"`
	CompletedVisits int        `json:"completed_visits"`
	CompletionRate  float64    `json:"completion_rate"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
}

// UserActivityReport covers every user of the tenant, including users
// without visits in the window.
type UserActivityReport struct {
	Users       []UserActivity `json:"users"`
	ActiveUsers int            `json:"active_users"`
	Start       time.Time      `json:"start"`
	End         time.Time      `json:"end"`
}

// UserActivityReport builds the admin per-user activity report.
func (a *Aggregator) UserActivityReport(ctx context.Context, tenantID uuid.UUID, w Window) (*UserActivityReport, error) {
	users, err := a.users.List(ctx, tenantID, repository.UserFilter{})
	if err != nil {
		return nil, err
	}
	counts, err := a.visits.CountByUser(ctx, tenantID, w.Start, w.End)
	if err != nil {
		return nil, err
	}
	byUser := make(map[uuid.UUID]repository.UserVisitCount, len(counts))
	for _, c := range counts {
		byUser[c.UserID] = c
	}

	report := &UserActivityReport{Start: w.Start, End: w.End}
	for _, u := range users {
		c := byUser[u.ID]
		row := UserActivity{
			UserID:          u.ID,
			Email:           u.Email,
			Name:            displayName(u.FirstName, u.LastName),
			IsActive:        u.IsActive,
			TotalVisits:     c.Total,
			CompletedVisits: c.Completed,
			CompletionRate:  ratio(c.Completed, c.Total),
			LastLoginAt:     u.LastLoginAt,
		}
		if u.IsActive {
			report.ActiveUsers++
		}
		report.Users = append(report.Users, row)
	}
	sort.Slice(report.Users, func(i, j int) bool {
		if report.Users[i].TotalVisits != report.Users[j].TotalVisits {
			return report.Users[i].TotalVisits > report.Users[j].TotalVisits
		}
		return report.Users[i].Email < report.Users[j].Email
	})
	return report, nil
}

// SurveyCompletion is one survey's completion numbers across all time.
type SurveyCompletion struct {
	SurveyID        uuid.UUID `json:"survey_id"`
	Name            string    `json:"name"`
	TotalVisits     int       `json:"total_visits"`
	CompletedVisits int       `json:"completed_visits"`
	CompletionRate  float64   `json:"completion_rate"`
}

// SurveyCompletionReport covers every survey of the tenant plus the mean
// of the per-survey rates.
type SurveyCompletionReport struct {
	Surveys               []SurveyCompletion `json:"surveys"`
	AverageCompletionRate float64            `json:"average_completion_rate"`
}

// SurveyCompletionReport builds the admin per-survey completion report.
// Surveys without visits report a rate of 0.0 and still weigh into the
// average.
func (a *Aggregator) SurveyCompletionReport(ctx context.Context, tenantID uuid.UUID) (*SurveyCompletionReport, error) {
	surveys, err := a.surveys.List(ctx, tenantID, repository.SurveyFilter{})
	if err != nil {
		return nil, err
	}
	counts, err := a.visits.CountBySurvey(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	bySurvey := make(map[uuid.UUID]repository.SurveyVisitCount, len(counts))
	for _, c := range counts {
		bySurvey[c.SurveyID] = c
	}

	report := &SurveyCompletionReport{}
	var total float64
	for _, s := range surveys {
		c := bySurvey[s.ID]
		row := SurveyCompletion{
			SurveyID:        s.ID,
			Name:            s.Name,
			TotalVisits:     c.Total,
			CompletedVisits: c.Completed,
			CompletionRate:  ratio(c.Completed, c.Total),
		}
		total += row.CompletionRate
		report.Surveys = append(report.Surveys, row)
	}
	if len(report.Surveys) > 0 {
		report.AverageCompletionRate = total / float64(len(report.Surveys))
	}
	sort.Slice(report.Surveys, func(i, j int) bool {
		return report.Surveys[i].Name < report.Surveys[j].Name
	})
	return report, nil
}

func displayName(first, last *string) string {
	var parts []string
	if first != nil && *first != "" {
		parts = append(parts, *first)
	}
	if last != nil && *last != "" {
		parts = append(parts, *last)
	}
	return strings.Join(parts, " ")
}
