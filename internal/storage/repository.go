package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"workorders/internal/core"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02T15:04:05Z"

// ErrNoSession is returned when no login has been stored.
var ErrNoSession = errors.New("no stored session")

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping backs the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// LoadSettings returns every stored key/value pair.
func (r *SQLiteRepository) LoadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := r.queries.ListSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, s := range rows {
		out[s.Key] = s.Value
	}
	return out, nil
}

// SaveSettings upserts the given pairs in one transaction.
func (r *SQLiteRepository) SaveSettings(ctx context.Context, values map[string]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	for k, v := range values {
		if err := q.UpsertSetting(ctx, Setting{Key: k, Value: v}); err != nil {
			return fmt.Errorf("save setting %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ClearSettings(ctx context.Context) error {
	if err := r.queries.DeleteSettings(ctx); err != nil {
		return fmt.Errorf("clear settings: %w", err)
	}
	return nil
}

// LoadSession returns ErrNoSession when nobody is logged in.
func (r *SQLiteRepository) LoadSession(ctx context.Context) (Session, error) {
	s, err := r.queries.GetSession(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) SaveSession(ctx context.Context, s Session) error {
	if err := r.queries.UpsertSession(ctx, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ClearSession(ctx context.Context) error {
	if err := r.queries.DeleteSession(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// AppendReport implements sheets.ReportWriter.
func (r *SQLiteRepository) AppendReport(ctx context.Context, row core.CostReportRow) (string, error) {
	id, err := r.queries.CreateCostReport(ctx, CreateCostReportParams{
		TaskID:               row.TaskID,
		Kind:                 row.Kind,
		CompletedAt:          row.CompletedAt.UTC().Format(timeLayout),
		LaborTotal:           row.LaborTotal.String(),
		CompanyMaterialTotal: row.CompanyMaterialTotal.String(),
		SelfMaterialTotal:    row.SelfMaterialTotal.String(),
		GrandTotal:           row.GrandTotal.String(),
		MaterialCount:        int64(row.MaterialCount),
		WorkItemCount:        int64(row.WorkItemCount),
	})
	if err != nil {
		return "", fmt.Errorf("create cost report: %w", err)
	}

	slog.DebugContext(ctx, "Cost report saved to SQLite",
		"id", id,
		"task_id", row.TaskID,
		"grand_total", row.GrandTotal.StringFixed(2))

	return strconv.FormatInt(id, 10), nil
}

// ListReports returns the rows completed in the given month, oldest first.
func (r *SQLiteRepository) ListReports(ctx context.Context, year int, month time.Month) ([]core.CostReportRow, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	rows, err := r.queries.ListCostReportsBetween(ctx, from.Format(timeLayout), to.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("list cost reports: %w", err)
	}

	out := make([]core.CostReportRow, 0, len(rows))
	for _, cr := range rows {
		row, err := cr.toCore()
		if err != nil {
			return nil, fmt.Errorf("cost report %d: %w", cr.ID, err)
		}
		out = append(out, row)
	}
	return out, nil
}

func (cr CostReport) toCore() (core.CostReportRow, error) {
	completed, err := time.Parse(timeLayout, cr.CompletedAt)
	if err != nil {
		return core.CostReportRow{}, fmt.Errorf("parse completed_at: %w", err)
	}
	amounts := make([]decimal.Decimal, 4)
	for i, s := range []string{cr.LaborTotal, cr.CompanyMaterialTotal, cr.SelfMaterialTotal, cr.GrandTotal} {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return core.CostReportRow{}, fmt.Errorf("parse amount %q: %w", s, err)
		}
		amounts[i] = d
	}
	return core.CostReportRow{
		TaskID:               cr.TaskID,
		Kind:                 cr.Kind,
		CompletedAt:          completed,
		LaborTotal:           amounts[0],
		CompanyMaterialTotal: amounts[1],
		SelfMaterialTotal:    amounts[2],
		GrandTotal:           amounts[3],
		MaterialCount:        int(cr.MaterialCount),
		WorkItemCount:        int(cr.WorkItemCount),
	}, nil
}
