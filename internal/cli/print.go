package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"workorders/internal/core"
)

// PrintTasks writes one task per line with its backend cost figures.
func PrintTasks(w io.Writer, tasks []core.Task) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTITLE\tLABOR\tMATERIALS\tTOTAL")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Status, t.Title,
			core.FormatMoney(t.LaborCost),
			core.FormatMoney(t.MaterialCost),
			core.FormatMoney(t.TotalCost))
	}
	return tw.Flush()
}

// PrintReports writes the local cost report rows followed by a totals line.
func PrintReports(w io.Writer, rows []core.CostReportRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "TASK\tKIND\tCOMPLETED\tLABOR\tCOMPANY\tSELF\tTOTAL\t")
	var labor, company, self, grand decimal.Decimal
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.TaskID, r.Kind, r.CompletedAt.Format("2006-01-02 15:04"),
			core.FormatMoney(r.LaborTotal),
			core.FormatMoney(r.CompanyMaterialTotal),
			core.FormatMoney(r.SelfMaterialTotal),
			core.FormatMoney(r.GrandTotal))
		labor = labor.Add(r.LaborTotal)
		company = company.Add(r.CompanyMaterialTotal)
		self = self.Add(r.SelfMaterialTotal)
		grand = grand.Add(r.GrandTotal)
	}
	fmt.Fprintf(tw, "%d tasks\t\t\t%s\t%s\t%s\t%s\t\n", len(rows),
		core.FormatMoney(labor), core.FormatMoney(company),
		core.FormatMoney(self), core.FormatMoney(grand))
	return tw.Flush()
}
