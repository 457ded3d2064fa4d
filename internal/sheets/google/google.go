package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"workorders/internal/core"
	applog "workorders/internal/log"
	ports "workorders/internal/sheets"
)

const (
	reportColumns = "A:I"
	dateLayout    = "2006-01-02 15:04:05"
)

var reportHeader = []any{
	"Task", "Kind", "Completed at", "Labor", "Company materials", "Self materials", "Grand total", "Materials", "Work items",
}

var (
	_ ports.ReportWriter = (*Client)(nil)
	_ ports.ReportLister = (*Client)(nil)
)

type Config struct {
	SpreadsheetID      string
	SheetName          string // base name; the row's year is prefixed
	ServiceAccountJSON string
	ServiceAccountFile string
	Logger             *applog.Logger
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
	logger        *applog.Logger

	mu    sync.Mutex
	ready map[string]bool
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName, cfg.Logger), nil
}

// NewWithService wraps an existing service, e.g. one pointed at a test endpoint.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetBase string, logger *applog.Logger) *Client {
	if logger == nil {
		logger = applog.Discard()
	}
	if strings.TrimSpace(sheetBase) == "" {
		sheetBase = "Cost Report"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     strings.TrimSpace(sheetBase),
		logger:        logger.WithComponent(applog.ComponentSheets),
		ready:         make(map[string]bool),
	}
}

// newSheetsService resolves inline JSON first, then the credentials file.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		credentialsJSON = []byte(cfg.ServiceAccountJSON)
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		data, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// AppendReport writes the row into "<year> <sheet>", creating the sheet
// with a header row the first time a year is seen.
func (c *Client) AppendReport(ctx context.Context, row core.CostReportRow) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if row.TaskID <= 0 {
		return "", fmt.Errorf("invalid task id %d", row.TaskID)
	}

	completed := row.CompletedAt.UTC()
	if completed.IsZero() {
		completed = time.Now().UTC()
	}
	sheet := yearPrefixedName(c.sheetBase, completed.Year())

	vr := &gsheet.ValueRange{Values: [][]any{{
		row.TaskID,
		row.Kind,
		completed.Format(dateLayout),
		core.FormatMoney(row.LaborTotal),
		core.FormatMoney(row.CompanyMaterialTotal),
		core.FormatMoney(row.SelfMaterialTotal),
		core.FormatMoney(row.GrandTotal),
		row.MaterialCount,
		row.WorkItemCount,
	}}}

	ref, err := c.appendValues(ctx, sheet, vr)
	if isMissingSheet(err) {
		c.logger.InfoContext(ctx, "Report sheet missing, creating it", "sheet", sheet)
		if err := c.createSheet(ctx, sheet); err != nil {
			return "", err
		}
		ref, err = c.appendValues(ctx, sheet, vr)
	}
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}

	c.logger.InfoContext(ctx, "Appended cost report row",
		applog.FieldTaskID, row.TaskID,
		applog.FieldReportRef, ref)
	return ref, nil
}

func (c *Client) appendValues(ctx context.Context, sheet string, vr *gsheet.ValueRange) (string, error) {
	rng := fmt.Sprintf("%s!%s", sheet, reportColumns)
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

func (c *Client) createSheet(ctx context.Context, sheet string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready[sheet] {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: sheet}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	header := &gsheet.ValueRange{Values: [][]any{reportHeader}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, fmt.Sprintf("%s!A1:I1", sheet), header).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header to %s: %w", sheet, err)
	}
	c.ready[sheet] = true
	return nil
}

// ListReports reads the year's sheet and keeps the rows of one month.
func (c *Client) ListReports(ctx context.Context, year int, month time.Month) ([]core.CostReportRow, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("invalid month: %d", month)
	}
	rng := fmt.Sprintf("%s!%s", yearPrefixedName(c.sheetBase, year), reportColumns)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if isMissingSheet(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseReportRows(resp.Values, year, month), nil
}

// parseReportRows skips the header and anything that does not parse.
func parseReportRows(values [][]any, year int, month time.Month) []core.CostReportRow {
	var out []core.CostReportRow
	for _, raw := range values {
		cols := toStrings(raw)
		if len(cols) < 7 {
			continue
		}
		taskID, err := strconv.ParseInt(cols[0], 10, 64)
		if err != nil {
			continue
		}
		completed, err := parseDate(cols[2])
		if err != nil || completed.Year() != year || completed.Month() != month {
			continue
		}
		row := core.CostReportRow{
			TaskID:               taskID,
			Kind:                 cols[1],
			CompletedAt:          completed,
			LaborTotal:           parseAmount(cols[3]),
			CompanyMaterialTotal: parseAmount(cols[4]),
			SelfMaterialTotal:    parseAmount(cols[5]),
			GrandTotal:           parseAmount(cols[6]),
		}
		if len(cols) > 7 {
			row.MaterialCount, _ = strconv.Atoi(cols[7])
		}
		if len(cols) > 8 {
			row.WorkItemCount, _ = strconv.Atoi(cols[8])
		}
		out = append(out, row)
	}
	return out
}

// Sheets may render the date column in the spreadsheet's locale.
var dateLayouts = []string{dateLayout, "2006-01-02 15:04", "1/2/2006 15:04:05", "2/1/2006 15:04:05", "2006-01-02"}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseAmount accepts a decimal comma and a leading currency symbol, as
// rendered by spreadsheet locales.
func parseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "¥€$ ")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isMissingSheet(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range")
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
