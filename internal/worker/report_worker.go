// Package worker turns TaskCompleted events into cost report rows.
package worker

import (
	"context"
	"errors"
	"fmt"

	"workorders/internal/amqp"
	applog "workorders/internal/log"
	"workorders/internal/sheets"
)

// ErrInvalidMessage marks events that will never succeed on retry.
var ErrInvalidMessage = errors.New("invalid task completed message")

// ReportWorker appends one report row per completed task.
type ReportWorker struct {
	sink   sheets.ReportWriter
	logger *applog.Logger
}

func NewReportWorker(sink sheets.ReportWriter, logger *applog.Logger) *ReportWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &ReportWorker{sink: sink, logger: logger.WithComponent(applog.ComponentWorker)}
}

// Handle is an amqp.TaskCompletedHandler. Messages with unparseable amounts
// are logged and swallowed so they are acked instead of requeued forever.
func (w *ReportWorker) Handle(ctx context.Context, msg *amqp.TaskCompletedMessage) error {
	row, err := msg.ReportRow()
	if err != nil {
		w.logger.ErrorContext(ctx, "Dropping task completed message",
			applog.FieldTaskID, msg.TaskID,
			applog.FieldError, fmt.Errorf("%w: %v", ErrInvalidMessage, err))
		return nil
	}

	ref, err := w.sink.AppendReport(ctx, row)
	if err != nil {
		return fmt.Errorf("append report for task %d: %w", msg.TaskID, err)
	}

	w.logger.InfoContext(ctx, "Cost report row written",
		applog.FieldTaskID, row.TaskID,
		applog.FieldFormKind, row.Kind,
		applog.FieldGrandTotal, msg.GrandTotal,
		applog.FieldReportRef, ref)
	return nil
}
