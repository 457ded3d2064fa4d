package lineitems

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"workorders/internal/core"
)

// Kind distinguishes the admin edit form from the field completion forms.
type Kind string

const (
	KindEdit     Kind = "edit"
	KindComplete Kind = "complete"
)

// List names one of the two row lists on a form.
type List string

const (
	WorkItems List = "work_items"
	Materials List = "materials"
)

var (
	ErrUnknownList       = errors.New("unknown line-item list")
	ErrRowOutOfRange     = errors.New("row index out of range")
	ErrUnknownItem       = errors.New("item not in catalog")
	ErrItemNotInCategory = errors.New("item does not belong to the row category")
	ErrNotMaterialRow    = errors.New("provenance applies to material rows only")
	ErrMissingCategory   = errors.New("category is required")
	ErrMissingItem       = errors.New("item is required")
	ErrInvalidQuantity   = core.ErrInvalidQuantity
)

// RowError reports which row failed validation.
type RowError struct {
	List  List
	Index int
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s row %d: %v", e.List, e.Index+1, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ParseKind validates a kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindEdit, KindComplete:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown form kind %q", s)
	}
}

// ParseList validates a list name.
func ParseList(s string) (List, error) {
	switch List(s) {
	case WorkItems, Materials:
		return List(s), nil
	default:
		return "", ErrUnknownList
	}
}

// Form owns the two row lists of a single task form together with the
// catalogs they reference. Every mutation ends with changed(), which
// recomputes the summary from scratch. A Form is not safe for concurrent use.
type Form struct {
	TaskID int64
	Kind   Kind

	workCatalog     Catalog
	materialCatalog Catalog
	workRows        []LineItem
	materialRows    []LineItem
	summary         Summary
}

// NewForm opens a form with one blank row in each list.
func NewForm(taskID int64, kind Kind, workCatalog, materialCatalog Catalog) *Form {
	f := &Form{
		TaskID:          taskID,
		Kind:            kind,
		workCatalog:     workCatalog,
		materialCatalog: materialCatalog,
	}
	f.workRows = AddRow(nil, false)
	f.materialRows = AddRow(nil, f.defaultCompanyProvided())
	f.changed()
	return f
}

// defaultCompanyProvided is the provenance of a new material row: the admin
// edit form assumes company-supplied, completion forms assume self-purchased.
func (f *Form) defaultCompanyProvided() bool {
	return f.Kind == KindEdit
}

func (f *Form) changed() {
	f.summary = ComputeSummary(f.workCatalog, f.workRows, f.materialCatalog, f.materialRows)
}

func (f *Form) catalog(list List) (Catalog, error) {
	switch list {
	case WorkItems:
		return f.workCatalog, nil
	case Materials:
		return f.materialCatalog, nil
	default:
		return Catalog{}, ErrUnknownList
	}
}

func (f *Form) rows(list List) (*[]LineItem, error) {
	switch list {
	case WorkItems:
		return &f.workRows, nil
	case Materials:
		return &f.materialRows, nil
	default:
		return nil, ErrUnknownList
	}
}

func (f *Form) row(list List, index int) (*LineItem, error) {
	rows, err := f.rows(list)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(*rows) {
		return nil, ErrRowOutOfRange
	}
	return &(*rows)[index], nil
}

// Summary returns the current totals.
func (f *Form) Summary() Summary { return f.summary }

// Catalog returns the catalog behind a list.
func (f *Form) Catalog(list List) (Catalog, error) { return f.catalog(list) }

// Rows returns a copy of a list.
func (f *Form) Rows(list List) ([]LineItem, error) {
	rows, err := f.rows(list)
	if err != nil {
		return nil, err
	}
	out := make([]LineItem, len(*rows))
	copy(out, *rows)
	return out, nil
}

// Categories returns the category choices for a list.
func (f *Form) Categories(list List) ([]string, error) {
	c, err := f.catalog(list)
	if err != nil {
		return nil, err
	}
	return c.Categories(), nil
}

// Options returns the item choices for a row, scoped to its category.
func (f *Form) Options(list List, index int) ([]Item, error) {
	c, err := f.catalog(list)
	if err != nil {
		return nil, err
	}
	r, err := f.row(list, index)
	if err != nil {
		return nil, err
	}
	return c.FilterByCategory(r.Category), nil
}

// Amount returns the amount of a single row.
func (f *Form) Amount(list List, index int) (decimal.Decimal, error) {
	c, err := f.catalog(list)
	if err != nil {
		return decimal.Zero, err
	}
	r, err := f.row(list, index)
	if err != nil {
		return decimal.Zero, err
	}
	return c.LineAmount(*r), nil
}

// ReplaceRow overwrites a row as-is, without the checks of the field
// setters. It restores a snapshot taken with Rows.
func (f *Form) ReplaceRow(list List, index int, li LineItem) error {
	r, err := f.row(list, index)
	if err != nil {
		return err
	}
	*r = li
	f.changed()
	return nil
}

// AddRow appends a blank row and returns its index.
func (f *Form) AddRow(list List) (int, error) {
	rows, err := f.rows(list)
	if err != nil {
		return 0, err
	}
	*rows = AddRow(*rows, list == Materials && f.defaultCompanyProvided())
	f.changed()
	return len(*rows) - 1, nil
}

// RemoveRow drops a row. The list may become empty.
func (f *Form) RemoveRow(list List, index int) error {
	rows, err := f.rows(list)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(*rows) {
		return ErrRowOutOfRange
	}
	*rows = RemoveRow(*rows, index)
	f.changed()
	return nil
}

// SetCategory changes a row's category and clears its item.
func (f *Form) SetCategory(list List, index int, category string) error {
	r, err := f.row(list, index)
	if err != nil {
		return err
	}
	*r = r.WithCategory(strings.TrimSpace(category))
	f.changed()
	return nil
}

// SetItem selects an item for a row. A row without a category adopts the
// item's category; otherwise the item must belong to it. Zero clears the
// selection.
func (f *Form) SetItem(list List, index int, itemID int64) error {
	c, err := f.catalog(list)
	if err != nil {
		return err
	}
	r, err := f.row(list, index)
	if err != nil {
		return err
	}
	if itemID == 0 {
		r.ItemID = 0
		f.changed()
		return nil
	}
	it, ok := c.Lookup(itemID)
	if !ok {
		return ErrUnknownItem
	}
	if r.Category == "" {
		r.Category = it.Category
	} else if r.Category != it.Category {
		return ErrItemNotInCategory
	}
	r.ItemID = itemID
	f.changed()
	return nil
}

// SetQuantity sets a row's quantity. Negative values are rejected; zero is
// kept as "unset" and caught by Validate.
func (f *Form) SetQuantity(list List, index int, qty decimal.Decimal) error {
	if qty.IsNegative() {
		return ErrInvalidQuantity
	}
	r, err := f.row(list, index)
	if err != nil {
		return err
	}
	r.Quantity = qty
	f.changed()
	return nil
}

// SetCompanyProvided moves a material row between the two material subtotals.
func (f *Form) SetCompanyProvided(list List, index int, companyProvided bool) error {
	if list != Materials {
		return ErrNotMaterialRow
	}
	r, err := f.row(list, index)
	if err != nil {
		return err
	}
	r.CompanyProvided = companyProvided
	f.changed()
	return nil
}

// Validate checks the required fields of every row, as the form does
// before submitting. It does not check catalog membership: a vanished item
// is a backend concern.
func (f *Form) Validate() error {
	var errs []error
	check := func(list List, rows []LineItem) {
		for i, r := range rows {
			var err error
			switch {
			case r.Category == "":
				err = ErrMissingCategory
			case r.ItemID == 0:
				err = ErrMissingItem
			case r.Quantity.LessThan(core.MinQuantity):
				err = ErrInvalidQuantity
			}
			if err != nil {
				errs = append(errs, &RowError{List: list, Index: i, Err: err})
			}
		}
	}
	check(WorkItems, f.workRows)
	check(Materials, f.materialRows)
	return errors.Join(errs...)
}

// CompletionRequest serializes the rows for the completion endpoint. The
// summary is not included: the backend recomputes costs from catalog prices.
func (f *Form) CompletionRequest() (core.TaskCompletion, error) {
	if err := f.Validate(); err != nil {
		return core.TaskCompletion{}, err
	}
	req := core.TaskCompletion{
		Materials: make([]core.TaskMaterialInput, 0, len(f.materialRows)),
		WorkItems: make([]core.TaskWorkItemInput, 0, len(f.workRows)),
	}
	for _, r := range f.materialRows {
		req.Materials = append(req.Materials, core.TaskMaterialInput{
			MaterialID:        r.ItemID,
			Quantity:          r.Quantity,
			IsCompanyProvided: r.CompanyProvided,
		})
	}
	for _, r := range f.workRows {
		req.WorkItems = append(req.WorkItems, core.TaskWorkItemInput{
			WorkItemID: r.ItemID,
			Quantity:   r.Quantity,
		})
	}
	return req, nil
}

type savedWorkRow struct {
	Category   string          `json:"category"`
	WorkItemID int64           `json:"work_item_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

type savedMaterialRow struct {
	Category          string          `json:"category"`
	MaterialID        int64           `json:"material_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	IsCompanyProvided bool            `json:"is_company_provided"`
}

// UpdateRequest builds the edit-form update: the rows JSON-encoded the way
// the backend stores them, plus the advisory cost fields.
func (f *Form) UpdateRequest() (core.TaskUpdate, error) {
	if err := f.Validate(); err != nil {
		return core.TaskUpdate{}, err
	}
	work := make([]savedWorkRow, 0, len(f.workRows))
	for _, r := range f.workRows {
		work = append(work, savedWorkRow{Category: r.Category, WorkItemID: r.ItemID, Quantity: r.Quantity})
	}
	mats := make([]savedMaterialRow, 0, len(f.materialRows))
	for _, r := range f.materialRows {
		mats = append(mats, savedMaterialRow{
			Category:          r.Category,
			MaterialID:        r.ItemID,
			Quantity:          r.Quantity,
			IsCompanyProvided: r.CompanyProvided,
		})
	}
	workJSON, err := json.Marshal(work)
	if err != nil {
		return core.TaskUpdate{}, fmt.Errorf("encode work items: %w", err)
	}
	matJSON, err := json.Marshal(mats)
	if err != nil {
		return core.TaskUpdate{}, fmt.Errorf("encode materials: %w", err)
	}

	s := f.summary
	labor := s.LaborTotal
	material := s.MaterialTotal()
	company := s.CompanyMaterialTotal
	self := s.SelfMaterialTotal
	workStr := string(workJSON)
	matStr := string(matJSON)
	return core.TaskUpdate{
		LaborCost:           &labor,
		MaterialCost:        &material,
		CompanyMaterialCost: &company,
		SelfMaterialCost:    &self,
		WorkItems:           &workStr,
		Materials:           &matStr,
	}, nil
}
