package cli

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"workorders/internal/lineitems"
)

const quoteSheet = "Quote"

var quoteHeaders = []string{"List", "Category", "Item", "Unit", "Quantity", "Unit price", "Amount", "Provided by"}

// WriteCostSheet renders a form as a single-sheet workbook: one row per
// line item followed by the four subtotals. Amounts are numeric cells
// formatted to two places, so the sheet can be summed in a spreadsheet.
func WriteCostSheet(w io.Writer, f *lineitems.Form) error {
	xl := excelize.NewFile()
	defer xl.Close()

	if err := xl.SetSheetName("Sheet1", quoteSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	_ = xl.SetColWidth(quoteSheet, "A", "A", 12)
	_ = xl.SetColWidth(quoteSheet, "B", "C", 24)
	_ = xl.SetColWidth(quoteSheet, "D", "H", 14)

	headerStyle, err := xl.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	moneyFmt := "0.00"
	moneyStyle, err := xl.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return fmt.Errorf("create money style: %w", err)
	}

	for i, h := range quoteHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := xl.SetCellValue(quoteSheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	_ = xl.SetCellStyle(quoteSheet, "A1", "H1", headerStyle)

	row := 2
	for _, list := range []lineitems.List{lineitems.WorkItems, lineitems.Materials} {
		rows, err := f.Rows(list)
		if err != nil {
			return err
		}
		catalog, err := f.Catalog(list)
		if err != nil {
			return err
		}
		for _, li := range rows {
			it, _ := catalog.Resolve(li)
			provided := ""
			if list == lineitems.Materials {
				provided = "self"
				if li.CompanyProvided {
					provided = "company"
				}
			}
			values := []any{
				string(list), li.Category, it.Name, it.Unit,
				toFloat(li.Quantity), toFloat(it.UnitPrice), toFloat(catalog.LineAmount(li)),
				provided,
			}
			if err := xl.SetSheetRow(quoteSheet, fmt.Sprintf("A%d", row), &values); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
			row++
		}
	}
	if row > 2 {
		_ = xl.SetCellStyle(quoteSheet, "F2", fmt.Sprintf("G%d", row-1), moneyStyle)
	}

	s := f.Summary()
	row++
	for _, total := range []struct {
		label  string
		amount decimal.Decimal
	}{
		{"Labor total", s.LaborTotal},
		{"Company materials", s.CompanyMaterialTotal},
		{"Self-purchased materials", s.SelfMaterialTotal},
		{"Grand total", s.GrandTotal},
	} {
		labelCell := fmt.Sprintf("F%d", row)
		amountCell := fmt.Sprintf("G%d", row)
		if err := xl.SetCellValue(quoteSheet, labelCell, total.label); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		if err := xl.SetCellValue(quoteSheet, amountCell, toFloat(total.amount.Round(2))); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		_ = xl.SetCellStyle(quoteSheet, labelCell, labelCell, headerStyle)
		_ = xl.SetCellStyle(quoteSheet, amountCell, amountCell, moneyStyle)
		row++
	}

	if err := xl.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func toFloat(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}
