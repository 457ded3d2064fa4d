package core

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTaskStatus(t *testing.T) {
	cases := []struct {
		s     TaskStatus
		valid bool
		open  bool
	}{
		{TaskPending, true, true},
		{TaskAssigned, true, true},
		{TaskInProgress, true, true},
		{TaskCompleted, true, false},
		{TaskCancelled, true, false},
		{"archived", false, false},
	}
	for _, tc := range cases {
		if got := tc.s.IsValid(); got != tc.valid {
			t.Fatalf("%s IsValid=%v, want %v", tc.s, got, tc.valid)
		}
		if got := tc.s.Open(); got != tc.open {
			t.Fatalf("%s Open=%v, want %v", tc.s, got, tc.open)
		}
	}
}

func TestCatalogValidate(t *testing.T) {
	good := WorkItem{Category: "Plumbing", Name: "Replace tap", Unit: "pc", UnitPrice: decimal.NewFromInt(10)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []WorkItem{
		{Name: "x", Unit: "pc"},
		{Category: "c", Unit: "pc"},
		{Category: "c", Name: "x"},
		{Category: "c", Name: "x", Unit: "pc", UnitPrice: decimal.NewFromInt(-1)},
	}
	for i, w := range bads {
		if err := w.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}

	if err := (Material{Category: "Pipe", Name: "PVC 20", Unit: "m"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Material{Name: "PVC 20", Unit: "m"}).Validate(); err != ErrEmptyCategory {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
}

func TestProjectValidate(t *testing.T) {
	if err := (Project{Title: "Block A", Priority: 3}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Project{Title: " "}).Validate(); err != ErrEmptyTitle {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if err := (Project{Title: "x", Priority: 9}).Validate(); err != ErrInvalidPriority {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
}

func TestTaskDetailDecodesBackendNumbers(t *testing.T) {
	body := `{"id":7,"title":"Leak","status":"completed","total_cost":43.5,
		"materials":[{"id":1,"task_id":7,"material_id":5,"quantity":2,"is_company_provided":true,"unit_price":4.5,"total_price":9}],
		"work_items":[{"id":2,"task_id":7,"work_item_id":1,"quantity":3,"unit_price":10,"total_price":30}]}`
	var td TaskDetail
	if err := json.Unmarshal([]byte(body), &td); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !td.TotalCost.Equal(decimal.RequireFromString("43.5")) {
		t.Fatalf("total_cost = %s", td.TotalCost)
	}
	if len(td.Materials) != 1 || !td.Materials[0].IsCompanyProvided {
		t.Fatalf("materials not decoded: %+v", td.Materials)
	}

	out, err := json.Marshal(TaskWorkItem{WorkItemID: 1, Quantity: decimal.RequireFromString("1.5")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), `"quantity":1.5`) {
		t.Fatalf("quantity should be a JSON number: %s", out)
	}
}
