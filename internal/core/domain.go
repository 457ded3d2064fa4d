package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleWorker  Role = "worker"
)

const (
	TaskPending    TaskStatus = "pending"
	TaskAssigned   TaskStatus = "assigned"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

const (
	ProjectPending    ProjectStatus = "pending"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
)

type (
	Role          string
	TaskStatus    string
	ProjectStatus string

	User struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		FullName string `json:"full_name,omitempty"`
		Phone    string `json:"phone,omitempty"`
		Role     Role   `json:"role"`
		IsActive bool   `json:"is_active"`
	}

	Project struct {
		ID           int64         `json:"id"`
		Title        string        `json:"title"`
		Description  string        `json:"description,omitempty"`
		Location     string        `json:"location"`
		ContactName  string        `json:"contact_name"`
		ContactPhone string        `json:"contact_phone"`
		Status       ProjectStatus `json:"status"`
		Priority     int           `json:"priority"`
		CreatedAt    time.Time     `json:"created_at"`
		UpdatedAt    *time.Time    `json:"updated_at,omitempty"`
		CompletedAt  *time.Time    `json:"completed_at,omitempty"`
		CreatedByID  int64         `json:"created_by_id"`
	}

	ProjectDetail struct {
		Project
		TasksCount          int `json:"tasks_count"`
		CompletedTasksCount int `json:"completed_tasks_count"`
	}

	// Task is a work order as reported by the backend. Cost fields are
	// authoritative backend values, not client recomputations.
	Task struct {
		ID                  int64           `json:"id"`
		ProjectID           *int64          `json:"project_id,omitempty"`
		Title               string          `json:"title"`
		Description         string          `json:"description,omitempty"`
		Attachment          string          `json:"attachment,omitempty"`
		Status              TaskStatus      `json:"status"`
		LaborCost           decimal.Decimal `json:"labor_cost"`
		MaterialCost        decimal.Decimal `json:"material_cost"`
		CompanyMaterialCost decimal.Decimal `json:"company_material_cost"`
		SelfMaterialCost    decimal.Decimal `json:"self_material_cost"`
		TotalCost           decimal.Decimal `json:"total_cost"`
		CreatedAt           time.Time       `json:"created_at"`
		UpdatedAt           *time.Time      `json:"updated_at,omitempty"`
		AssignedAt          *time.Time      `json:"assigned_at,omitempty"`
		CompletedAt         *time.Time      `json:"completed_at,omitempty"`
		CreatedByID         int64           `json:"created_by_id"`
		AssignedToID        *int64          `json:"assigned_to_id,omitempty"`
		TeamID              *int64          `json:"team_id,omitempty"`
	}

	// TaskMaterial is a material usage saved against a task.
	TaskMaterial struct {
		ID                int64           `json:"id"`
		TaskID            int64           `json:"task_id"`
		MaterialID        int64           `json:"material_id"`
		Quantity          decimal.Decimal `json:"quantity"`
		IsCompanyProvided bool            `json:"is_company_provided"`
		UnitPrice         decimal.Decimal `json:"unit_price"`
		TotalPrice        decimal.Decimal `json:"total_price"`
	}

	// TaskWorkItem is a work item performed against a task.
	TaskWorkItem struct {
		ID         int64           `json:"id"`
		TaskID     int64           `json:"task_id"`
		WorkItemID int64           `json:"work_item_id"`
		Quantity   decimal.Decimal `json:"quantity"`
		UnitPrice  decimal.Decimal `json:"unit_price"`
		TotalPrice decimal.Decimal `json:"total_price"`
	}

	TaskDetail struct {
		Task
		Materials []TaskMaterial `json:"materials"`
		WorkItems []TaskWorkItem `json:"work_items"`
	}

	WorkItem struct {
		ID                 int64           `json:"id"`
		Category           string          `json:"category"`
		ProjectNumber      string          `json:"project_number"`
		Name               string          `json:"name"`
		Description        string          `json:"description,omitempty"`
		Unit               string          `json:"unit"`
		SkilledLaborDays   decimal.Decimal `json:"skilled_labor_days"`
		UnskilledLaborDays decimal.Decimal `json:"unskilled_labor_days"`
		UnitPrice          decimal.Decimal `json:"unit_price"`
		IsActive           bool            `json:"is_active"`
	}

	Material struct {
		ID          int64           `json:"id"`
		Category    string          `json:"category"`
		Code        string          `json:"code"`
		Name        string          `json:"name"`
		Description string          `json:"description,omitempty"`
		Unit        string          `json:"unit"`
		UnitPrice   decimal.Decimal `json:"unit_price"`
		SupplyType  string          `json:"supply_type"`
		IsActive    bool            `json:"is_active"`
	}

	Team struct {
		ID          int64     `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description,omitempty"`
		CreatedAt   time.Time `json:"created_at"`
		IsActive    bool      `json:"is_active"`
	}

	TeamMember struct {
		ID       int64     `json:"id"`
		TeamID   int64     `json:"team_id"`
		UserID   int64     `json:"user_id"`
		IsLeader bool      `json:"is_leader"`
		JoinedAt time.Time `json:"joined_at"`
		User     *User     `json:"user,omitempty"`
	}

	TeamDetail struct {
		Team
		Members []TeamMember `json:"members"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidQuantity  = errors.New("quantity must be at least 0.01")
	ErrEmptyTitle       = errors.New("empty title")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyUnit        = errors.New("empty unit")
	ErrInvalidPriority  = errors.New("priority must be between 1 and 5")
	ErrInvalidTaskState = errors.New("invalid task status")
)

// IsValid reports whether the status is one the backend understands.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskPending, TaskAssigned, TaskInProgress, TaskCompleted, TaskCancelled:
		return true
	default:
		return false
	}
}

// Open reports whether the task can still be accepted or completed.
func (s TaskStatus) Open() bool {
	return s == TaskPending || s == TaskAssigned || s == TaskInProgress
}

// IsValid reports whether the role is known.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleWorker:
		return true
	default:
		return false
	}
}

func (w WorkItem) Validate() error {
	if strings.TrimSpace(w.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(w.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(w.Unit) == "" {
		return ErrEmptyUnit
	}
	if w.UnitPrice.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (m Material) Validate() error {
	if strings.TrimSpace(m.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(m.Unit) == "" {
		return ErrEmptyUnit
	}
	if m.UnitPrice.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyTitle
	}
	if len(p.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if p.Priority != 0 && (p.Priority < 1 || p.Priority > 5) {
		return ErrInvalidPriority
	}
	return nil
}

// Inputs accepted by the backend's task endpoints.
type (
	TaskMaterialInput struct {
		MaterialID        int64           `json:"material_id"`
		Quantity          decimal.Decimal `json:"quantity"`
		IsCompanyProvided bool            `json:"is_company_provided"`
	}

	TaskWorkItemInput struct {
		WorkItemID int64           `json:"work_item_id"`
		Quantity   decimal.Decimal `json:"quantity"`
	}

	// TaskCompletion is the body of POST /tasks/{id}/complete.
	TaskCompletion struct {
		Materials []TaskMaterialInput `json:"materials"`
		WorkItems []TaskWorkItemInput `json:"work_items"`
	}

	TaskCreate struct {
		ProjectID   *int64 `json:"project_id,omitempty"`
		Title       string `json:"title"`
		Description string `json:"description,omitempty"`
		Attachment  string `json:"attachment,omitempty"`
	}

	// TaskUpdate carries only the fields being changed. Materials and
	// WorkItems are JSON-encoded row lists, as the backend stores them.
	TaskUpdate struct {
		ProjectID           *int64           `json:"project_id,omitempty"`
		Title               *string          `json:"title,omitempty"`
		Description         *string          `json:"description,omitempty"`
		Attachment          *string          `json:"attachment,omitempty"`
		Status              *TaskStatus      `json:"status,omitempty"`
		AssignedToID        *int64           `json:"assigned_to_id,omitempty"`
		TeamID              *int64           `json:"team_id,omitempty"`
		LaborCost           *decimal.Decimal `json:"labor_cost,omitempty"`
		MaterialCost        *decimal.Decimal `json:"material_cost,omitempty"`
		CompanyMaterialCost *decimal.Decimal `json:"company_material_cost,omitempty"`
		SelfMaterialCost    *decimal.Decimal `json:"self_material_cost,omitempty"`
		WorkItems           *string          `json:"work_items,omitempty"`
		Materials           *string          `json:"materials,omitempty"`
	}
)

func (t TaskCreate) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

func (u TaskUpdate) Validate() error {
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return ErrEmptyTitle
	}
	if u.Status != nil && !u.Status.IsValid() {
		return ErrInvalidTaskState
	}
	return nil
}
