package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"workorders/internal/core"
)

// fakeSheets serves the handful of Sheets API calls the client makes.
type fakeSheets struct {
	mu       sync.Mutex
	sheets   map[string][][]any
	batches  int
	appended [][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			if rq.AddSheet != nil {
				f.sheets[rq.AddSheet.Properties.Title] = nil
			}
		}
		f.batches++
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-id"}`))

	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		sheet := sheetOf(path)
		if _, ok := f.sheets[sheet]; !ok {
			missingRange(w, sheet)
			return
		}
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.sheets[sheet] = append(f.sheets[sheet], vr.Values...)
		f.appended = append(f.appended, vr.Values...)
		n := len(f.sheets[sheet])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{"updatedRange": sheet + "!A" + strconv.Itoa(n) + ":I" + strconv.Itoa(n)},
		})

	case r.Method == http.MethodPut:
		sheet := sheetOf(path)
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.sheets[sheet] = append(vr.Values, f.sheets[sheet]...)
		_, _ = w.Write([]byte(`{}`))

	case r.Method == http.MethodGet:
		sheet := sheetOf(path)
		rows, ok := f.sheets[sheet]
		if !ok {
			missingRange(w, sheet)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"values": rows})

	default:
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusNotImplemented)
	}
}

func sheetOf(path string) string {
	i := strings.Index(path, "/values/")
	rng := path[i+len("/values/"):]
	return rng[:strings.Index(rng, "!")]
}

func missingRange(w http.ResponseWriter, sheet string) {
	w.WriteHeader(http.StatusBadRequest)
	_, _ = w.Write([]byte(`{"error":{"code":400,"message":"Unable to parse range: ` + sheet + `!A:I","status":"INVALID_ARGUMENT"}}`))
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return NewWithService(svc, "sheet-id", "Cost Report", nil)
}

func sampleRow(at time.Time) core.CostReportRow {
	return core.CostReportRow{
		TaskID:               42,
		Kind:                 "complete",
		CompletedAt:          at,
		LaborTotal:           decimal.RequireFromString("30"),
		CompanyMaterialTotal: decimal.RequireFromString("9"),
		SelfMaterialTotal:    decimal.RequireFromString("4.5"),
		GrandTotal:           decimal.RequireFromString("43.5"),
		MaterialCount:        2,
		WorkItemCount:        1,
	}
}

func TestAppendReport_CreatesYearSheetOnce(t *testing.T) {
	fake := &fakeSheets{sheets: map[string][][]any{}}
	c := newTestClient(t, fake)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	ref, err := c.AppendReport(ctx, sampleRow(at))
	if err != nil {
		t.Fatalf("AppendReport() error = %v", err)
	}
	if ref != "2026 Cost Report!A2:I2" {
		t.Errorf("ref = %q", ref)
	}
	if _, err := c.AppendReport(ctx, sampleRow(at)); err != nil {
		t.Fatalf("second AppendReport() error = %v", err)
	}
	if fake.batches != 1 {
		t.Errorf("sheet created %d times, want 1", fake.batches)
	}

	want := []any{float64(42), "complete", "2026-03-01 10:00:00", "30.00", "9.00", "4.50", "43.50", float64(2), float64(1)}
	if diff := cmp.Diff(want, fake.appended[0]); diff != "" {
		t.Errorf("appended row (-want +got):\n%s", diff)
	}
	if got := fake.sheets["2026 Cost Report"][0][0]; got != "Task" {
		t.Errorf("header not written first, got %v", got)
	}
}

func TestAppendReport_Validation(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if _, err := c.AppendReport(context.Background(), sampleRow(time.Now())); err == nil {
		t.Error("expected error with nil service")
	}

	fake := &fakeSheets{sheets: map[string][][]any{}}
	c = newTestClient(t, fake)
	if _, err := c.AppendReport(context.Background(), core.CostReportRow{}); err == nil {
		t.Error("expected error for missing task id")
	}
}

func TestListReports(t *testing.T) {
	fake := &fakeSheets{sheets: map[string][][]any{}}
	c := newTestClient(t, fake)
	ctx := context.Background()

	got, err := c.ListReports(ctx, 2025, time.May)
	if err != nil || got != nil {
		t.Fatalf("missing sheet: got %v, %v", got, err)
	}

	for _, at := range []time.Time{
		time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC),
	} {
		if _, err := c.AppendReport(ctx, sampleRow(at)); err != nil {
			t.Fatal(err)
		}
	}

	got, err = c.ListReports(ctx, 2026, time.March)
	if err != nil {
		t.Fatalf("ListReports() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("rows = %+v", got)
	}
	if !got[0].GrandTotal.Equal(decimal.RequireFromString("43.5")) || got[0].WorkItemCount != 1 {
		t.Errorf("row = %+v", got[0])
	}

	if _, err := c.ListReports(ctx, 2026, 13); err == nil {
		t.Error("expected invalid month error")
	}
}

func TestParseReportRows(t *testing.T) {
	values := [][]any{
		{"Task", "Kind", "Completed at", "Labor", "Company materials", "Self materials", "Grand total"},
		{"7", "edit", "2026-03-05 08:30:00", "€ 10,50", "0", "0", "10,50", "0", "1"},
		{"8", "complete", "2026-03-06", "5", "1", "1", "7"},
		{"9", "complete", "not a date", "5", "1", "1", "7"},
		{"10", "complete", "2026-02-28 23:59:59", "5", "1", "1", "7"},
		{"short row"},
	}
	got := parseReportRows(values, 2026, time.March)
	if len(got) != 2 {
		t.Fatalf("rows = %+v", got)
	}
	if got[0].TaskID != 7 || !got[0].LaborTotal.Equal(decimal.RequireFromString("10.5")) || got[0].WorkItemCount != 1 {
		t.Errorf("first row = %+v", got[0])
	}
	if got[1].TaskID != 8 || got[1].MaterialCount != 0 {
		t.Errorf("second row = %+v", got[1])
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Cost Report", 2026, "2026 Cost Report"},
		{"  Cost Report  ", 2026, "2026 Cost Report"},
		{"2025 Cost Report", 2026, "2025 Cost Report"},
		{"1234Report", 2026, "2026 1234Report"},
		{"", 2026, ""},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
				t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
			}
		})
	}
}

func TestNew_MissingConfig(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil || err.Error() != "missing spreadsheet id" {
		t.Errorf("New() error = %v", err)
	}
	_, err := New(context.Background(), Config{SpreadsheetID: "id"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("New() error = %v", err)
	}
	_, err = New(context.Background(), Config{SpreadsheetID: "id", ServiceAccountFile: t.TempDir() + "/missing.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Errorf("New() error = %v", err)
	}
}
