package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"workorders/internal/apiclient"
	"workorders/internal/cli"
	"workorders/internal/core"
)

var (
	taskStatus string
	projectID  int64

	statsStart string
	statsEnd   string
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List and accept tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tasks (admin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := parseStatus(taskStatus)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		tasks, err := mgr.Client().Tasks().List(ctx, apiclient.TaskFilter{Status: status, ProjectID: projectID})
		if err != nil {
			return err
		}
		return cli.PrintTasks(cmd.OutOrStdout(), tasks)
	},
}

var tasksMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List the tasks assigned to the logged-in worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := parseStatus(taskStatus)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		tasks, err := mgr.Client().Tasks().Mine(ctx, status)
		if err != nil {
			return err
		}
		return cli.PrintTasks(cmd.OutOrStdout(), tasks)
	},
}

var tasksAcceptCmd = &cobra.Command{
	Use:   "accept TASK_ID",
	Short: "Accept a pending task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid task id %q", args[0])
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		task, err := mgr.Client().Tasks().Accept(ctx, id)
		if err != nil {
			return err
		}
		return cli.PrintTasks(cmd.OutOrStdout(), []core.Task{task})
	},
}

var statisticsCmd = &cobra.Command{
	Use:       "statistics KIND",
	Short:     "Print a statistics report as JSON",
	Args:      cobra.ExactArgs(1),
	ValidArgs: apiclient.StatisticsKinds,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !apiclient.ValidKind(args[0]) {
			return fmt.Errorf("unknown report %q, want one of %s", args[0], strings.Join(apiclient.StatisticsKinds, ", "))
		}
		var r apiclient.DateRange
		var err error
		if r.Start, err = parseDay(statsStart); err != nil {
			return fmt.Errorf("--start: %w", err)
		}
		if r.End, err = parseDay(statsEnd); err != nil {
			return fmt.Errorf("--end: %w", err)
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		raw, err := mgr.Client().Statistics().Raw(ctx, args[0], r)
		if err != nil {
			return err
		}
		var out bytes.Buffer
		if err := json.Indent(&out, raw, "", "  "); err != nil {
			return fmt.Errorf("format report: %w", err)
		}
		out.WriteByte('\n')
		_, err = out.WriteTo(cmd.OutOrStdout())
		return err
	},
}

func parseStatus(s string) (core.TaskStatus, error) {
	if s == "" {
		return "", nil
	}
	status := core.TaskStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("unknown task status %q", s)
	}
	return status, nil
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

func init() {
	for _, c := range []*cobra.Command{tasksListCmd, tasksMineCmd} {
		c.Flags().StringVar(&taskStatus, "status", "", "Filter by status (pending, assigned, in_progress, completed, cancelled)")
	}
	tasksListCmd.Flags().Int64Var(&projectID, "project", 0, "Filter by project id")
	tasksCmd.AddCommand(tasksListCmd, tasksMineCmd, tasksAcceptCmd)

	statisticsCmd.Flags().StringVar(&statsStart, "start", "", "First day, YYYY-MM-DD")
	statisticsCmd.Flags().StringVar(&statsEnd, "end", "", "Last day, YYYY-MM-DD")
}
