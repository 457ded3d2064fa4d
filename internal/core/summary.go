package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostReportRow is one completed task as written to the cost report.
type CostReportRow struct {
	TaskID               int64
	Kind                 string
	CompletedAt          time.Time
	LaborTotal           decimal.Decimal
	CompanyMaterialTotal decimal.Decimal
	SelfMaterialTotal    decimal.Decimal
	GrandTotal           decimal.Decimal
	MaterialCount        int
	WorkItemCount        int
}

// ProjectStatistics summarizes projects over a date range.
type ProjectStatistics struct {
	TotalProjects      int     `json:"total_projects"`
	CompletedProjects  int     `json:"completed_projects"`
	InProgressProjects int     `json:"in_progress_projects"`
	PendingProjects    int     `json:"pending_projects"`
	CompletionRate     float64 `json:"completion_rate"`
}

// TaskStatistics summarizes tasks over a date range.
type TaskStatistics struct {
	TotalTasks             int     `json:"total_tasks"`
	CompletedTasks         int     `json:"completed_tasks"`
	InProgressTasks        int     `json:"in_progress_tasks"`
	PendingTasks           int     `json:"pending_tasks"`
	CompletionRate         float64 `json:"completion_rate"`
	AvgCompletionTimeHours float64 `json:"avg_completion_time_hours"`
}

// Usage is the aggregated consumption of one catalog entry.
type Usage struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalCost     decimal.Decimal `json:"total_cost"`
}

type MaterialStatistics struct {
	TotalMaterialCost   decimal.Decimal `json:"total_material_cost"`
	CompanyProvidedCost decimal.Decimal `json:"company_provided_cost"`
	SelfPurchasedCost   decimal.Decimal `json:"self_purchased_cost"`
	MostUsedMaterials   []Usage         `json:"most_used_materials"`
}

type WorkItemStatistics struct {
	TotalWorkItemCost      decimal.Decimal `json:"total_work_item_cost"`
	MostPerformedWorkItems []Usage         `json:"most_performed_work_items"`
}

type TeamStatistics struct {
	ID                  int64           `json:"id"`
	Name                string          `json:"name"`
	CompletedTasksCount int             `json:"completed_tasks_count"`
	TotalTasksCount     int             `json:"total_tasks_count"`
	CompletionRate      float64         `json:"completion_rate"`
	TotalIncome         decimal.Decimal `json:"total_income"`
	MembersCount        int             `json:"members_count"`
	AvgIncomePerMember  decimal.Decimal `json:"avg_income_per_member"`
}
