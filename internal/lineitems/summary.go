package lineitems

import (
	"github.com/shopspring/decimal"

	"workorders/internal/core"
)

// Summary holds the four cost figures shown under a form. It is always
// recomputed from the rows and never edited directly.
type Summary struct {
	LaborTotal           decimal.Decimal
	CompanyMaterialTotal decimal.Decimal
	SelfMaterialTotal    decimal.Decimal
	GrandTotal           decimal.Decimal
}

// DisplaySummary is a Summary rounded to two places for display.
type DisplaySummary struct {
	LaborTotal           string `json:"labor_total"`
	CompanyMaterialTotal string `json:"company_material_total"`
	SelfMaterialTotal    string `json:"self_material_total"`
	GrandTotal           string `json:"grand_total"`
}

// ComputeSummary sums labor over the work rows and splits material costs by
// provenance. No rounding happens here.
func ComputeSummary(workCatalog Catalog, workRows []LineItem, materialCatalog Catalog, materialRows []LineItem) Summary {
	var s Summary
	for _, li := range workRows {
		s.LaborTotal = s.LaborTotal.Add(workCatalog.LineAmount(li))
	}
	for _, li := range materialRows {
		amount := materialCatalog.LineAmount(li)
		if li.CompanyProvided {
			s.CompanyMaterialTotal = s.CompanyMaterialTotal.Add(amount)
		} else {
			s.SelfMaterialTotal = s.SelfMaterialTotal.Add(amount)
		}
	}
	s.GrandTotal = s.LaborTotal.Add(s.CompanyMaterialTotal).Add(s.SelfMaterialTotal)
	return s
}

// MaterialTotal is the sum of both material subtotals.
func (s Summary) MaterialTotal() decimal.Decimal {
	return s.CompanyMaterialTotal.Add(s.SelfMaterialTotal)
}

// Add combines two summaries componentwise.
func (s Summary) Add(o Summary) Summary {
	return Summary{
		LaborTotal:           s.LaborTotal.Add(o.LaborTotal),
		CompanyMaterialTotal: s.CompanyMaterialTotal.Add(o.CompanyMaterialTotal),
		SelfMaterialTotal:    s.SelfMaterialTotal.Add(o.SelfMaterialTotal),
		GrandTotal:           s.GrandTotal.Add(o.GrandTotal),
	}
}

// Equal compares numerically, ignoring exponent differences.
func (s Summary) Equal(o Summary) bool {
	return s.LaborTotal.Equal(o.LaborTotal) &&
		s.CompanyMaterialTotal.Equal(o.CompanyMaterialTotal) &&
		s.SelfMaterialTotal.Equal(o.SelfMaterialTotal) &&
		s.GrandTotal.Equal(o.GrandTotal)
}

// IsZero reports whether every figure is zero.
func (s Summary) IsZero() bool {
	return s.Equal(Summary{})
}

// Display rounds each figure to two fractional digits.
func (s Summary) Display() DisplaySummary {
	return DisplaySummary{
		LaborTotal:           core.FormatMoney(s.LaborTotal),
		CompanyMaterialTotal: core.FormatMoney(s.CompanyMaterialTotal),
		SelfMaterialTotal:    core.FormatMoney(s.SelfMaterialTotal),
		GrandTotal:           core.FormatMoney(s.GrandTotal),
	}
}
