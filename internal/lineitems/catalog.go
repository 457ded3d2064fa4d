// Package lineitems computes line-item amounts, cost subtotals and
// category-scoped item choices for the task edit and completion forms.
//
// Every function here is pure: catalogs are fetched by the caller before
// a form becomes interactive, and nothing in this package performs I/O.
package lineitems

import (
	"strings"

	"github.com/shopspring/decimal"

	"workorders/internal/core"
)

// Item is one priced catalog entry, either a work item or a material.
type Item struct {
	ID        int64
	Category  string
	Name      string
	Code      string // material code or work-item project number
	Unit      string
	UnitPrice decimal.Decimal
}

// Catalog is an ordered, read-only set of items indexed by ID.
type Catalog struct {
	items []Item
	byID  map[int64]int
}

// NewCatalog builds a catalog preserving the given order. When IDs repeat,
// the first occurrence wins. Categories are trimmed the same way
// Form.SetCategory trims its input.
func NewCatalog(items []Item) Catalog {
	c := Catalog{
		items: make([]Item, len(items)),
		byID:  make(map[int64]int, len(items)),
	}
	copy(c.items, items)
	for i := range c.items {
		c.items[i].Category = strings.TrimSpace(c.items[i].Category)
	}
	for i, it := range c.items {
		if _, dup := c.byID[it.ID]; !dup {
			c.byID[it.ID] = i
		}
	}
	return c
}

// WorkItemCatalog converts backend work items into a catalog.
func WorkItemCatalog(ws []core.WorkItem) Catalog {
	items := make([]Item, 0, len(ws))
	for _, w := range ws {
		items = append(items, Item{
			ID:        w.ID,
			Category:  w.Category,
			Name:      w.Name,
			Code:      w.ProjectNumber,
			Unit:      w.Unit,
			UnitPrice: w.UnitPrice,
		})
	}
	return NewCatalog(items)
}

// MaterialCatalog converts backend materials into a catalog.
func MaterialCatalog(ms []core.Material) Catalog {
	items := make([]Item, 0, len(ms))
	for _, m := range ms {
		items = append(items, Item{
			ID:        m.ID,
			Category:  m.Category,
			Name:      m.Name,
			Code:      m.Code,
			Unit:      m.Unit,
			UnitPrice: m.UnitPrice,
		})
	}
	return NewCatalog(items)
}

// Len returns the number of items.
func (c Catalog) Len() int { return len(c.items) }

// Items returns a copy of the catalog in its original order.
func (c Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Lookup returns the item with the given ID.
func (c Catalog) Lookup(id int64) (Item, bool) {
	if id == 0 {
		return Item{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

// Resolve returns the catalog item a row refers to. It reports false when
// the row has no item selected or the item is no longer in the catalog;
// callers treat that as a zero amount.
func (c Catalog) Resolve(li LineItem) (Item, bool) {
	return c.Lookup(li.ItemID)
}

// FilterByCategory returns the items a row may choose from once its
// category is set. An empty category yields the whole catalog.
func (c Catalog) FilterByCategory(category string) []Item {
	if category == "" {
		return c.Items()
	}
	out := make([]Item, 0)
	for _, it := range c.items {
		if it.Category == category {
			out = append(out, it)
		}
	}
	return out
}

// Categories returns the distinct categories in first-seen order.
func (c Catalog) Categories() []string {
	seen := make(map[string]struct{}, len(c.items))
	out := make([]string, 0)
	for _, it := range c.items {
		if it.Category == "" {
			continue
		}
		if _, ok := seen[it.Category]; ok {
			continue
		}
		seen[it.Category] = struct{}{}
		out = append(out, it.Category)
	}
	return out
}

// LineAmount is quantity times unit price, or zero when the row's item
// cannot be resolved or no quantity is set.
func (c Catalog) LineAmount(li LineItem) decimal.Decimal {
	it, ok := c.Resolve(li)
	if !ok || li.Quantity.IsZero() {
		return decimal.Zero
	}
	return li.Quantity.Mul(it.UnitPrice)
}
