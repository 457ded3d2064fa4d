package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"workorders/internal/cli"
	"workorders/internal/core"
	"workorders/internal/lineitems"
)

var (
	taskID    int64
	rowsFile  string
	formKind  string
	xlsxPath  string
	reportFor string
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a rows file against the current catalogs without submitting",
	Example: `  woctl quote --task 12 --file rows.yaml
  woctl quote --task 12 --file rows.yaml --kind edit --xlsx quote.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := lineitems.ParseKind(formKind)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		f, err := loadForm(ctx, kind)
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), f.Summary())
		if err := f.Validate(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Not ready to submit:\n%v\n", err)
		}
		if xlsxPath == "" {
			return nil
		}
		out, err := os.Create(xlsxPath)
		if err != nil {
			return err
		}
		if err := cli.WriteCostSheet(out, f); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", xlsxPath)
		return nil
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Complete a task with the rows in a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		f, err := loadForm(ctx, lineitems.KindComplete)
		if err != nil {
			return err
		}
		req, err := f.CompletionRequest()
		if err != nil {
			return err
		}
		detail, err := mgr.Client().Tasks().Complete(ctx, taskID, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task %d is %s\n", detail.ID, detail.Status)
		printSummary(cmd.OutOrStdout(), lineitems.Summary{
			LaborTotal:           detail.LaborCost,
			CompanyMaterialTotal: detail.CompanyMaterialCost,
			SelfMaterialTotal:    detail.SelfMaterialCost,
			GrandTotal:           detail.TotalCost,
		})
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Replace a task's saved rows with the rows in a file (admin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		f, err := loadForm(ctx, lineitems.KindEdit)
		if err != nil {
			return err
		}
		req, err := f.UpdateRequest()
		if err != nil {
			return err
		}
		task, err := mgr.Client().Tasks().Update(ctx, taskID, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task %d saved\n", task.ID)
		printSummary(cmd.OutOrStdout(), f.Summary())
		return nil
	},
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Print the locally recorded cost reports for a month",
	RunE: func(cmd *cobra.Command, args []string) error {
		month := time.Now()
		if reportFor != "" {
			var err error
			if month, err = time.Parse("2006-01", reportFor); err != nil {
				return fmt.Errorf("--month must be YYYY-MM: %w", err)
			}
		}
		rows, err := repo.ListReports(cmd.Context(), month.Year(), month.Month())
		if err != nil {
			return err
		}
		return cli.PrintReports(cmd.OutOrStdout(), rows)
	},
}

func loadForm(ctx context.Context, kind lineitems.Kind) (*lineitems.Form, error) {
	if taskID <= 0 {
		return nil, errors.New("--task is required")
	}
	if rowsFile == "" {
		return nil, errors.New("--file is required")
	}
	in, err := os.Open(rowsFile)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	qf, err := cli.LoadQuoteFile(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rowsFile, err)
	}

	catalogs, err := mgr.Client().FetchCatalogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch catalogs: %w", err)
	}
	logger.Debug("Catalogs loaded",
		"work_items", len(catalogs.WorkItems),
		"materials", len(catalogs.Materials))
	return cli.BuildForm(taskID, kind, catalogs, qf)
}

func printSummary(w io.Writer, s lineitems.Summary) {
	fmt.Fprintf(w, "Labor:              %10s\n", core.FormatMoney(s.LaborTotal))
	fmt.Fprintf(w, "Company materials:  %10s\n", core.FormatMoney(s.CompanyMaterialTotal))
	fmt.Fprintf(w, "Self-purchased:     %10s\n", core.FormatMoney(s.SelfMaterialTotal))
	fmt.Fprintf(w, "Grand total:        %10s\n", core.FormatMoney(s.GrandTotal))
}

func init() {
	for _, c := range []*cobra.Command{quoteCmd, completeCmd, updateCmd} {
		c.Flags().Int64Var(&taskID, "task", 0, "Task id")
		c.Flags().StringVarP(&rowsFile, "file", "f", "", "YAML rows file")
	}
	quoteCmd.Flags().StringVar(&formKind, "kind", string(lineitems.KindComplete), "Form kind: edit or complete")
	quoteCmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the quote to this .xlsx file")
	reportsCmd.Flags().StringVar(&reportFor, "month", "", "Month as YYYY-MM, defaults to the current month")
}
