package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"workorders/internal/core"
)

func TestPrintTasks(t *testing.T) {
	var buf bytes.Buffer
	err := PrintTasks(&buf, []core.Task{
		{ID: 3, Status: core.TaskStatus("pending"), Title: "Kitchen sink", LaborCost: decimal.NewFromInt(30), TotalCost: decimal.RequireFromString("41.5")},
	})
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	for _, want := range []string{"3", "pending", "Kitchen sink", "30.00", "0.00", "41.50"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("row %q missing %q", lines[1], want)
		}
	}
}

func TestPrintReports_Totals(t *testing.T) {
	at := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)
	rows := []core.CostReportRow{
		{TaskID: 1, Kind: "complete", CompletedAt: at, LaborTotal: decimal.NewFromInt(10), SelfMaterialTotal: decimal.RequireFromString("2.5"), GrandTotal: decimal.RequireFromString("12.5")},
		{TaskID: 2, Kind: "edit", CompletedAt: at, LaborTotal: decimal.NewFromInt(5), CompanyMaterialTotal: decimal.NewFromInt(4), GrandTotal: decimal.NewFromInt(9)},
	}
	var buf bytes.Buffer
	if err := PrintReports(&buf, rows); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "2026-03-04 09:30") {
		t.Errorf("missing completion time:\n%s", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	last := strings.Fields(lines[len(lines)-1])
	want := []string{"2", "tasks", "15.00", "4.00", "2.50", "21.50"}
	if strings.Join(last, " ") != strings.Join(want, " ") {
		t.Errorf("totals line = %v, want %v", last, want)
	}
}
