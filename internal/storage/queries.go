package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Setting struct {
	Key   string
	Value string
}

type Session struct {
	Token    string
	Username string
}

type CostReport struct {
	ID                   int64
	TaskID               int64
	Kind                 string
	CompletedAt          string
	LaborTotal           string
	CompanyMaterialTotal string
	SelfMaterialTotal    string
	GrandTotal           string
	MaterialCount        int64
	WorkItemCount        int64
}

const listSettings = `SELECT key, value FROM settings ORDER BY key`

func (q *Queries) ListSettings(ctx context.Context) ([]Setting, error) {
	rows, err := q.db.QueryContext(ctx, listSettings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Setting
	for rows.Next() {
		var i Setting
		if err := rows.Scan(&i.Key, &i.Value); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertSetting = `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`

func (q *Queries) UpsertSetting(ctx context.Context, arg Setting) error {
	_, err := q.db.ExecContext(ctx, upsertSetting, arg.Key, arg.Value)
	return err
}

const deleteSettings = `DELETE FROM settings`

func (q *Queries) DeleteSettings(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteSettings)
	return err
}

const getSession = `SELECT token, username FROM session WHERE id = 1`

func (q *Queries) GetSession(ctx context.Context) (Session, error) {
	row := q.db.QueryRowContext(ctx, getSession)
	var i Session
	err := row.Scan(&i.Token, &i.Username)
	return i, err
}

const upsertSession = `INSERT INTO session (id, token, username, updated_at) VALUES (1, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET token = excluded.token, username = excluded.username, updated_at = CURRENT_TIMESTAMP`

func (q *Queries) UpsertSession(ctx context.Context, arg Session) error {
	_, err := q.db.ExecContext(ctx, upsertSession, arg.Token, arg.Username)
	return err
}

const deleteSession = `DELETE FROM session`

func (q *Queries) DeleteSession(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteSession)
	return err
}

const createCostReport = `INSERT INTO cost_reports (
    task_id, kind, completed_at, labor_total, company_material_total,
    self_material_total, grand_total, material_count, work_item_count
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`

type CreateCostReportParams struct {
	TaskID               int64
	Kind                 string
	CompletedAt          string
	LaborTotal           string
	CompanyMaterialTotal string
	SelfMaterialTotal    string
	GrandTotal           string
	MaterialCount        int64
	WorkItemCount        int64
}

func (q *Queries) CreateCostReport(ctx context.Context, arg CreateCostReportParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createCostReport,
		arg.TaskID,
		arg.Kind,
		arg.CompletedAt,
		arg.LaborTotal,
		arg.CompanyMaterialTotal,
		arg.SelfMaterialTotal,
		arg.GrandTotal,
		arg.MaterialCount,
		arg.WorkItemCount,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listCostReportsBetween = `SELECT id, task_id, kind, completed_at, labor_total, company_material_total,
    self_material_total, grand_total, material_count, work_item_count
FROM cost_reports
WHERE completed_at >= ? AND completed_at < ?
ORDER BY completed_at, id`

func (q *Queries) ListCostReportsBetween(ctx context.Context, from, to string) ([]CostReport, error) {
	rows, err := q.db.QueryContext(ctx, listCostReportsBetween, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CostReport
	for rows.Next() {
		var i CostReport
		if err := rows.Scan(
			&i.ID,
			&i.TaskID,
			&i.Kind,
			&i.CompletedAt,
			&i.LaborTotal,
			&i.CompanyMaterialTotal,
			&i.SelfMaterialTotal,
			&i.GrandTotal,
			&i.MaterialCount,
			&i.WorkItemCount,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
