package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"workorders/internal/core"
)

type StatisticsService struct{ c *Client }

// DateRange bounds a statistics query. The backend defaults a missing start
// to thirty days ago and a missing end to now.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// StatisticsKinds lists the report names accepted by Raw.
var StatisticsKinds = []string{"projects", "tasks", "materials", "work-items", "teams"}

func (r DateRange) query() url.Values {
	q := url.Values{}
	if !r.Start.IsZero() {
		q.Set("start_date", r.Start.Format("2006-01-02T15:04:05"))
	}
	if !r.End.IsZero() {
		q.Set("end_date", r.End.Format("2006-01-02T15:04:05"))
	}
	return q
}

// ValidKind reports whether kind is a known statistics report.
func ValidKind(kind string) bool {
	for _, k := range StatisticsKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Raw returns a statistics report body without decoding it.
func (s StatisticsService) Raw(ctx context.Context, kind string, r DateRange) (json.RawMessage, error) {
	if !ValidKind(kind) {
		return nil, fmt.Errorf("unknown statistics kind %q", kind)
	}
	var out json.RawMessage
	if err := s.c.get(ctx, "/statistics/"+kind, r.query(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s StatisticsService) Projects(ctx context.Context, r DateRange) (core.ProjectStatistics, error) {
	var out core.ProjectStatistics
	err := s.c.get(ctx, "/statistics/projects", r.query(), &out)
	return out, err
}

func (s StatisticsService) Tasks(ctx context.Context, r DateRange) (core.TaskStatistics, error) {
	var out core.TaskStatistics
	err := s.c.get(ctx, "/statistics/tasks", r.query(), &out)
	return out, err
}

func (s StatisticsService) Materials(ctx context.Context, r DateRange) (core.MaterialStatistics, error) {
	var out core.MaterialStatistics
	err := s.c.get(ctx, "/statistics/materials", r.query(), &out)
	return out, err
}

func (s StatisticsService) WorkItems(ctx context.Context, r DateRange) (core.WorkItemStatistics, error) {
	var out core.WorkItemStatistics
	err := s.c.get(ctx, "/statistics/work-items", r.query(), &out)
	return out, err
}

func (s StatisticsService) Teams(ctx context.Context, r DateRange) ([]core.TeamStatistics, error) {
	var out []core.TeamStatistics
	if err := s.c.get(ctx, "/statistics/teams", r.query(), &out); err != nil {
		return nil, err
	}
	return out, nil
}
