package sheets

import (
	"context"
	"time"

	"workorders/internal/core"
)

// Ports for outbound report sinks.
type (
	ReportWriter interface {
		AppendReport(ctx context.Context, row core.CostReportRow) (rowRef string, err error)
	}

	// ReportLister reads back rows written for one month.
	ReportLister interface {
		ListReports(ctx context.Context, year int, month time.Month) ([]core.CostReportRow, error)
	}
)
