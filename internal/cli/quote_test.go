package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"workorders/internal/apiclient"
	"workorders/internal/core"
	"workorders/internal/lineitems"
)

func testCatalogs() apiclient.Catalogs {
	return apiclient.Catalogs{
		WorkItems: []core.WorkItem{
			{ID: 1, Category: "Plumbing", Name: "Fix leak", Unit: "job", UnitPrice: decimal.RequireFromString("10.00")},
			{ID: 2, Category: "Electrical", Name: "Rewire", Unit: "m", UnitPrice: decimal.RequireFromString("2.50")},
		},
		Materials: []core.Material{
			{ID: 5, Category: "Pipes", Name: "PVC pipe", Unit: "m", UnitPrice: decimal.RequireFromString("4.50")},
			{ID: 7, Category: "Wire", Name: "Copper wire", Unit: "m", UnitPrice: decimal.RequireFromString("1.00")},
		},
	}
}

const sampleQuote = `
work_items:
  - {category: Plumbing, item_id: 1, quantity: 3}
  - {item_id: 2, quantity: "1,5"}
materials:
  - {item_id: 5, quantity: 2, company_provided: true}
`

func TestLoadQuoteFile(t *testing.T) {
	qf, err := LoadQuoteFile(strings.NewReader(sampleQuote))
	if err != nil {
		t.Fatalf("LoadQuoteFile() error = %v", err)
	}
	if len(qf.WorkItems) != 2 || len(qf.Materials) != 1 {
		t.Fatalf("rows = %d/%d", len(qf.WorkItems), len(qf.Materials))
	}
	if !qf.WorkItems[1].Quantity.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("comma quantity = %s", qf.WorkItems[1].Quantity)
	}
	if cp := qf.Materials[0].CompanyProvided; cp == nil || !*cp {
		t.Errorf("company_provided = %v", cp)
	}
	if qf.WorkItems[0].CompanyProvided != nil {
		t.Error("unset company_provided should stay nil")
	}
}

func TestLoadQuoteFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"no rows", "work_items: []\n"},
		{"unknown key", "work_items:\n  - {item_id: 1, quantity: 1, price: 3}\n"},
		{"zero quantity", "work_items:\n  - {item_id: 1, quantity: 0}\n"},
		{"negative quantity", "work_items:\n  - {item_id: 1, quantity: -2}\n"},
		{"list quantity", "work_items:\n  - {item_id: 1, quantity: [1]}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadQuoteFile(strings.NewReader(tt.doc)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestBuildForm_Totals(t *testing.T) {
	qf, err := LoadQuoteFile(strings.NewReader(sampleQuote))
	if err != nil {
		t.Fatal(err)
	}
	f, err := BuildForm(42, lineitems.KindComplete, testCatalogs(), qf)
	if err != nil {
		t.Fatalf("BuildForm() error = %v", err)
	}

	want := lineitems.DisplaySummary{
		LaborTotal:           "33.75",
		CompanyMaterialTotal: "9.00",
		SelfMaterialTotal:    "0.00",
		GrandTotal:           "42.75",
	}
	if diff := cmp.Diff(want, f.Summary().Display()); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	rows, _ := f.Rows(lineitems.WorkItems)
	if rows[1].Category != "Electrical" {
		t.Errorf("row without category should adopt the item's, got %q", rows[1].Category)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	req, err := f.CompletionRequest()
	if err != nil {
		t.Fatalf("CompletionRequest() error = %v", err)
	}
	if len(req.WorkItems) != 2 || len(req.Materials) != 1 {
		t.Errorf("request rows = %d/%d", len(req.WorkItems), len(req.Materials))
	}
}

func TestBuildForm_ProvenanceDefaultsByKind(t *testing.T) {
	qf, err := LoadQuoteFile(strings.NewReader("materials:\n  - {item_id: 7, quantity: 4}\n"))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		kind        lineitems.Kind
		wantCompany string
		wantSelf    string
	}{
		{lineitems.KindEdit, "4.00", "0.00"},
		{lineitems.KindComplete, "0.00", "4.00"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			f, err := BuildForm(1, tt.kind, testCatalogs(), qf)
			if err != nil {
				t.Fatal(err)
			}
			d := f.Summary().Display()
			if d.CompanyMaterialTotal != tt.wantCompany || d.SelfMaterialTotal != tt.wantSelf {
				t.Errorf("company/self = %s/%s", d.CompanyMaterialTotal, d.SelfMaterialTotal)
			}
			if rows, _ := f.Rows(lineitems.WorkItems); len(rows) != 0 {
				t.Errorf("work rows = %d, want 0", len(rows))
			}
		})
	}
}

func TestBuildForm_RowErrors(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantList lineitems.List
		wantIdx  int
		wantErr  error
	}{
		{
			name:     "item outside category",
			doc:      "work_items:\n  - {item_id: 1, quantity: 1}\n  - {category: Plumbing, item_id: 2, quantity: 1}\n",
			wantList: lineitems.WorkItems, wantIdx: 1, wantErr: lineitems.ErrItemNotInCategory,
		},
		{
			name:     "unknown material",
			doc:      "materials:\n  - {item_id: 99, quantity: 1}\n",
			wantList: lineitems.Materials, wantIdx: 0, wantErr: lineitems.ErrUnknownItem,
		},
		{
			name:     "provenance on work row",
			doc:      "work_items:\n  - {item_id: 1, quantity: 1, company_provided: false}\n",
			wantList: lineitems.WorkItems, wantIdx: 0, wantErr: lineitems.ErrNotMaterialRow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qf, err := LoadQuoteFile(strings.NewReader(tt.doc))
			if err != nil {
				t.Fatal(err)
			}
			_, err = BuildForm(1, lineitems.KindComplete, testCatalogs(), qf)
			var rowErr *lineitems.RowError
			if !errors.As(err, &rowErr) {
				t.Fatalf("error = %v, want *RowError", err)
			}
			if rowErr.List != tt.wantList || rowErr.Index != tt.wantIdx || !errors.Is(err, tt.wantErr) {
				t.Errorf("got %s row %d: %v", rowErr.List, rowErr.Index, rowErr.Err)
			}
		})
	}
}

func TestWriteCostSheet(t *testing.T) {
	qf, err := LoadQuoteFile(strings.NewReader(sampleQuote))
	if err != nil {
		t.Fatal(err)
	}
	f, err := BuildForm(42, lineitems.KindComplete, testCatalogs(), qf)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteCostSheet(&buf, f); err != nil {
		t.Fatalf("WriteCostSheet() error = %v", err)
	}

	xl, err := excelize.OpenReader(&buf, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer xl.Close()

	if got := xl.GetSheetList(); len(got) != 1 || got[0] != "Quote" {
		t.Fatalf("sheets = %v", got)
	}

	cells := map[string]string{
		"A1": "List",
		"H1": "Provided by",
		"A2": "work_items",
		"C2": "Fix leak",
		"G2": "30",
		"E3": "1.5",
		"G3": "3.75",
		"A4": "materials",
		"H4": "company",
		"G4": "9",
		"F6": "Labor total",
		"G6": "33.75",
		"F9": "Grand total",
		"G9": "42.75",
	}
	for cell, want := range cells {
		got, err := xl.GetCellValue("Quote", cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s) error = %v", cell, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}
}
