package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"workorders/internal/core"
	"workorders/internal/sheets"
)

var (
	_ sheets.ReportWriter = (*Store)(nil)
	_ sheets.ReportLister = (*Store)(nil)
)

// Store keeps report rows in process memory.
type Store struct {
	mu   sync.Mutex
	rows []core.CostReportRow
}

func New() *Store {
	return &Store{}
}

// AppendReport stores the row and returns a synthetic row reference.
func (s *Store) AppendReport(_ context.Context, row core.CostReportRow) (string, error) {
	if row.TaskID <= 0 {
		return "", fmt.Errorf("invalid task id %d", row.TaskID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Store) ListReports(_ context.Context, year int, month time.Month) ([]core.CostReportRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.CostReportRow
	for _, r := range s.rows {
		at := r.CompletedAt.UTC()
		if at.Year() == year && at.Month() == month {
			out = append(out, r)
		}
	}
	return out, nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []core.CostReportRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.CostReportRow(nil), s.rows...)
}
