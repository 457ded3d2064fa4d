package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"workorders/internal/core"
)

// TaskCompletedMessage announces a submitted task form. Amounts travel as
// decimal strings so consumers never see float rounding.
type TaskCompletedMessage struct {
	TaskID               int64     `json:"task_id"`
	Kind                 string    `json:"kind"`
	LaborTotal           string    `json:"labor_total"`
	CompanyMaterialTotal string    `json:"company_material_total"`
	SelfMaterialTotal    string    `json:"self_material_total"`
	GrandTotal           string    `json:"grand_total"`
	MaterialCount        int       `json:"material_count"`
	WorkItemCount        int       `json:"work_item_count"`
	Timestamp            time.Time `json:"timestamp"`
}

// NewTaskCompletedMessage stamps a report row for publishing.
func NewTaskCompletedMessage(row core.CostReportRow) *TaskCompletedMessage {
	ts := row.CompletedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return &TaskCompletedMessage{
		TaskID:               row.TaskID,
		Kind:                 row.Kind,
		LaborTotal:           core.FormatMoney(row.LaborTotal),
		CompanyMaterialTotal: core.FormatMoney(row.CompanyMaterialTotal),
		SelfMaterialTotal:    core.FormatMoney(row.SelfMaterialTotal),
		GrandTotal:           core.FormatMoney(row.GrandTotal),
		MaterialCount:        row.MaterialCount,
		WorkItemCount:        row.WorkItemCount,
		Timestamp:            ts.UTC(),
	}
}

func (m *TaskCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TaskCompletedMessageFromJSON(data []byte) (*TaskCompletedMessage, error) {
	var msg TaskCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.TaskID <= 0 {
		return nil, fmt.Errorf("invalid task id %d", msg.TaskID)
	}
	return &msg, nil
}

// ReportRow parses the amounts back into a core.CostReportRow.
func (m *TaskCompletedMessage) ReportRow() (core.CostReportRow, error) {
	row := core.CostReportRow{
		TaskID:        m.TaskID,
		Kind:          m.Kind,
		CompletedAt:   m.Timestamp,
		MaterialCount: m.MaterialCount,
		WorkItemCount: m.WorkItemCount,
	}
	var err error
	if row.LaborTotal, err = parseAmount("labor_total", m.LaborTotal); err != nil {
		return core.CostReportRow{}, err
	}
	if row.CompanyMaterialTotal, err = parseAmount("company_material_total", m.CompanyMaterialTotal); err != nil {
		return core.CostReportRow{}, err
	}
	if row.SelfMaterialTotal, err = parseAmount("self_material_total", m.SelfMaterialTotal); err != nil {
		return core.CostReportRow{}, err
	}
	if row.GrandTotal, err = parseAmount("grand_total", m.GrandTotal); err != nil {
		return core.CostReportRow{}, err
	}
	return row, nil
}

func parseAmount(name, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s %q: %w", name, raw, err)
	}
	return d, nil
}
