package lineitems

import (
	"github.com/shopspring/decimal"
)

// LineItem is one user-entered row. A zero ItemID means no item is
// selected; a zero Quantity means no quantity is set.
type LineItem struct {
	Category        string
	ItemID          int64
	Quantity        decimal.Decimal
	CompanyProvided bool // materials only
}

// BlankRow is the row appended by AddRow.
func BlankRow(companyProvided bool) LineItem {
	return LineItem{
		Quantity:        decimal.NewFromInt(1),
		CompanyProvided: companyProvided,
	}
}

// OnCategoryChange clears the selected item. It must be applied whenever a
// row's category changes, before the item choices are rebuilt, so that a
// selection outside the new category never lingers.
func OnCategoryChange(li LineItem) LineItem {
	li.ItemID = 0
	return li
}

// WithCategory returns a copy of the row with the category replaced and the
// item selection cleared.
func (li LineItem) WithCategory(category string) LineItem {
	li.Category = category
	return OnCategoryChange(li)
}

// AddRow returns a new list with one blank row appended.
func AddRow(rows []LineItem, companyProvided bool) []LineItem {
	out := make([]LineItem, len(rows), len(rows)+1)
	copy(out, rows)
	return append(out, BlankRow(companyProvided))
}

// RemoveRow returns a new list without the row at index. An out-of-range
// index returns an unchanged copy. Removing the last row leaves an empty list.
func RemoveRow(rows []LineItem, index int) []LineItem {
	if index < 0 || index >= len(rows) {
		out := make([]LineItem, len(rows))
		copy(out, rows)
		return out
	}
	out := make([]LineItem, 0, len(rows)-1)
	out = append(out, rows[:index]...)
	return append(out, rows[index+1:]...)
}
