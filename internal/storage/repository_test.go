package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"workorders/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	for i := 0; i < 2; i++ {
		if err := RunMigrations(path); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	got, err := repo.LoadSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("fresh db has settings: %v", got)
	}

	if err := repo.SaveSettings(ctx, map[string]string{"api_base_url": "http://a:1"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveSettings(ctx, map[string]string{"api_base_url": "http://b:2", "template_base_url": "http://t"}); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.LoadSettings(ctx)
	want := map[string]string{"api_base_url": "http://b:2", "template_base_url": "http://t"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("settings (-want +got):\n%s", diff)
	}

	if err := repo.ClearSettings(ctx); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.LoadSettings(ctx)
	if len(got) != 0 {
		t.Fatalf("settings after clear: %v", got)
	}
}

func TestSession(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.LoadSession(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
	if err := repo.SaveSession(ctx, Session{Token: "t1", Username: "wang"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveSession(ctx, Session{Token: "t2", Username: "wang"}); err != nil {
		t.Fatal(err)
	}
	s, err := repo.LoadSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.Token != "t2" {
		t.Fatalf("token = %q, want t2", s.Token)
	}
	if err := repo.ClearSession(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.LoadSession(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession after clear", err)
	}
}

func TestReports_AppendAndListByMonth(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rows := []core.CostReportRow{
		{TaskID: 1, Kind: "complete", CompletedAt: time.Date(2026, 3, 31, 23, 59, 0, 0, time.UTC),
			LaborTotal: decimal.RequireFromString("30"), GrandTotal: decimal.RequireFromString("30"), WorkItemCount: 1},
		{TaskID: 2, Kind: "complete", CompletedAt: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC),
			LaborTotal: decimal.RequireFromString("30"), CompanyMaterialTotal: decimal.RequireFromString("9"),
			SelfMaterialTotal: decimal.RequireFromString("4.5"), GrandTotal: decimal.RequireFromString("43.5"),
			MaterialCount: 2, WorkItemCount: 1},
		{TaskID: 3, Kind: "edit", CompletedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			GrandTotal: decimal.RequireFromString("0")},
	}
	for _, r := range rows {
		ref, err := repo.AppendReport(ctx, r)
		if err != nil {
			t.Fatal(err)
		}
		if ref == "" {
			t.Fatal("empty report ref")
		}
	}

	got, err := repo.ListReports(ctx, 2026, time.April)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]core.CostReportRow{rows[1]}, got); diff != "" {
		t.Fatalf("april reports (-want +got):\n%s", diff)
	}
}
