package services

import (
	"workorders/internal/core"
	"workorders/internal/lineitems"
)

// RowView is one form row as returned to clients.
type RowView struct {
	Index           int    `json:"index"`
	Category        string `json:"category"`
	ItemID          int64  `json:"item_id,omitempty"`
	ItemName        string `json:"item_name,omitempty"`
	Unit            string `json:"unit,omitempty"`
	UnitPrice       string `json:"unit_price,omitempty"`
	Quantity        string `json:"quantity"`
	CompanyProvided *bool  `json:"company_provided,omitempty"`
	Amount          string `json:"amount"`
}

// ItemView is one selectable catalog entry.
type ItemView struct {
	ID        int64  `json:"id"`
	Category  string `json:"category"`
	Name      string `json:"name"`
	Code      string `json:"code,omitempty"`
	Unit      string `json:"unit"`
	UnitPrice string `json:"unit_price"`
}

// FormView is a snapshot of an open form.
type FormView struct {
	ID                 string                   `json:"id"`
	TaskID             int64                    `json:"task_id"`
	Kind               lineitems.Kind           `json:"kind"`
	WorkItems          []RowView                `json:"work_items"`
	Materials          []RowView                `json:"materials"`
	WorkItemCategories []string                 `json:"work_item_categories"`
	MaterialCategories []string                 `json:"material_categories"`
	Summary            lineitems.DisplaySummary `json:"summary"`
}

// SubmitResult reports the backend's authoritative totals next to the
// client-side estimate the form showed.
type SubmitResult struct {
	TaskID   int64                    `json:"task_id"`
	Kind     lineitems.Kind           `json:"kind"`
	Status   core.TaskStatus          `json:"status"`
	Estimate lineitems.DisplaySummary `json:"estimate"`
	Backend  lineitems.DisplaySummary `json:"backend"`
}

func newItemViews(items []lineitems.Item) []ItemView {
	out := make([]ItemView, 0, len(items))
	for _, it := range items {
		out = append(out, ItemView{
			ID:        it.ID,
			Category:  it.Category,
			Name:      it.Name,
			Code:      it.Code,
			Unit:      it.Unit,
			UnitPrice: core.FormatMoney(it.UnitPrice),
		})
	}
	return out
}

func newFormView(id string, f *lineitems.Form) FormView {
	v := FormView{
		ID:      id,
		TaskID:  f.TaskID,
		Kind:    f.Kind,
		Summary: f.Summary().Display(),
	}
	v.WorkItems = rowViews(f, lineitems.WorkItems)
	v.Materials = rowViews(f, lineitems.Materials)
	v.WorkItemCategories, _ = f.Categories(lineitems.WorkItems)
	v.MaterialCategories, _ = f.Categories(lineitems.Materials)
	return v
}

func rowViews(f *lineitems.Form, list lineitems.List) []RowView {
	rows, _ := f.Rows(list)
	cat, _ := f.Catalog(list)
	out := make([]RowView, 0, len(rows))
	for i, r := range rows {
		rv := RowView{
			Index:    i,
			Category: r.Category,
			ItemID:   r.ItemID,
			Quantity: r.Quantity.String(),
			Amount:   core.FormatMoney(cat.LineAmount(r)),
		}
		if it, ok := cat.Resolve(r); ok {
			rv.ItemName = it.Name
			rv.Unit = it.Unit
			rv.UnitPrice = core.FormatMoney(it.UnitPrice)
		}
		if list == lineitems.Materials {
			cp := r.CompanyProvided
			rv.CompanyProvided = &cp
		}
		out = append(out, rv)
	}
	return out
}

func backendSummary(t core.Task) lineitems.DisplaySummary {
	return lineitems.Summary{
		LaborTotal:           t.LaborCost,
		CompanyMaterialTotal: t.CompanyMaterialCost,
		SelfMaterialTotal:    t.SelfMaterialCost,
		GrandTotal:           t.TotalCost,
	}.Display()
}
