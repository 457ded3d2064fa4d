package lineitems

import (
	"workorders/internal/core"
)

// SeedWorkRows turns the work items saved on a task back into rows. The
// category is recovered from the catalog; an item missing from the catalog
// keeps its ID with an empty category and contributes zero.
func SeedWorkRows(c Catalog, saved []core.TaskWorkItem) []LineItem {
	rows := make([]LineItem, 0, len(saved))
	for _, s := range saved {
		li := LineItem{ItemID: s.WorkItemID, Quantity: s.Quantity}
		if it, ok := c.Lookup(s.WorkItemID); ok {
			li.Category = it.Category
		}
		rows = append(rows, li)
	}
	return rows
}

// SeedMaterialRows is SeedWorkRows for materials, keeping provenance.
func SeedMaterialRows(c Catalog, saved []core.TaskMaterial) []LineItem {
	rows := make([]LineItem, 0, len(saved))
	for _, s := range saved {
		li := LineItem{
			ItemID:          s.MaterialID,
			Quantity:        s.Quantity,
			CompanyProvided: s.IsCompanyProvided,
		}
		if it, ok := c.Lookup(s.MaterialID); ok {
			li.Category = it.Category
		}
		rows = append(rows, li)
	}
	return rows
}

// NewFormFromTask opens a form pre-filled with a task's saved rows. A task
// with nothing saved gets one blank row per list, like NewForm.
func NewFormFromTask(task core.TaskDetail, kind Kind, workCatalog, materialCatalog Catalog) *Form {
	f := NewForm(task.ID, kind, workCatalog, materialCatalog)
	if len(task.WorkItems) > 0 {
		f.workRows = SeedWorkRows(workCatalog, task.WorkItems)
	}
	if len(task.Materials) > 0 {
		f.materialRows = SeedMaterialRows(materialCatalog, task.Materials)
	}
	f.changed()
	return f
}
