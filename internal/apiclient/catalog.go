package apiclient

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"workorders/internal/core"
)

type (
	WorkItemService struct{ c *Client }
	MaterialService struct{ c *Client }

	WorkItemFilter struct {
		Category      string
		ProjectNumber string
		Name          string
		Active        *bool
	}

	MaterialFilter struct {
		Category   string
		Code       string
		Name       string
		SupplyType string
		Active     *bool
	}

	WorkItemUpdate struct {
		Category           *string          `json:"category,omitempty"`
		ProjectNumber      *string          `json:"project_number,omitempty"`
		Name               *string          `json:"name,omitempty"`
		Description        *string          `json:"description,omitempty"`
		Unit               *string          `json:"unit,omitempty"`
		SkilledLaborDays   *decimal.Decimal `json:"skilled_labor_days,omitempty"`
		UnskilledLaborDays *decimal.Decimal `json:"unskilled_labor_days,omitempty"`
		UnitPrice          *decimal.Decimal `json:"unit_price,omitempty"`
		IsActive           *bool            `json:"is_active,omitempty"`
	}

	MaterialUpdate struct {
		Category    *string          `json:"category,omitempty"`
		Code        *string          `json:"code,omitempty"`
		Name        *string          `json:"name,omitempty"`
		Description *string          `json:"description,omitempty"`
		Unit        *string          `json:"unit,omitempty"`
		UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
		SupplyType  *string          `json:"supply_type,omitempty"`
		IsActive    *bool            `json:"is_active,omitempty"`
	}
)

// ActiveOnly is the filter used to populate form catalogs.
func ActiveOnly() *bool {
	t := true
	return &t
}

func (f WorkItemFilter) query() url.Values {
	q := url.Values{}
	setString(q, "category", f.Category)
	setString(q, "project_number", f.ProjectNumber)
	setString(q, "name", f.Name)
	setBool(q, "is_active", f.Active)
	return q
}

func (f MaterialFilter) query() url.Values {
	q := url.Values{}
	setString(q, "category", f.Category)
	setString(q, "code", f.Code)
	setString(q, "name", f.Name)
	setString(q, "supply_type", f.SupplyType)
	setBool(q, "is_active", f.Active)
	return q
}

func (s WorkItemService) List(ctx context.Context, f WorkItemFilter) ([]core.WorkItem, error) {
	var out []core.WorkItem
	if err := s.c.get(ctx, "/work-items/", f.query(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s WorkItemService) Categories(ctx context.Context) ([]string, error) {
	var out []string
	if err := s.c.get(ctx, "/work-items/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s WorkItemService) Get(ctx context.Context, id int64) (core.WorkItem, error) {
	var out core.WorkItem
	err := s.c.get(ctx, idPath("/work-items/", id), nil, &out)
	return out, err
}

func (s WorkItemService) Create(ctx context.Context, w core.WorkItem) (core.WorkItem, error) {
	if err := w.Validate(); err != nil {
		return core.WorkItem{}, fmt.Errorf("create work item: %w", err)
	}
	var out core.WorkItem
	err := s.c.post(ctx, "/work-items/", w, &out)
	return out, err
}

func (s WorkItemService) Update(ctx context.Context, id int64, u WorkItemUpdate) (core.WorkItem, error) {
	if u.UnitPrice != nil && u.UnitPrice.IsNegative() {
		return core.WorkItem{}, fmt.Errorf("update work item %d: %w", id, core.ErrInvalidAmount)
	}
	var out core.WorkItem
	err := s.c.put(ctx, idPath("/work-items/", id), u, &out)
	return out, err
}

func (s WorkItemService) Delete(ctx context.Context, id int64) error {
	return s.c.delete(ctx, idPath("/work-items/", id))
}

func (s MaterialService) List(ctx context.Context, f MaterialFilter) ([]core.Material, error) {
	var out []core.Material
	if err := s.c.get(ctx, "/materials/", f.query(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s MaterialService) Categories(ctx context.Context) ([]string, error) {
	var out []string
	if err := s.c.get(ctx, "/materials/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s MaterialService) SupplyTypes(ctx context.Context) ([]string, error) {
	var out []string
	if err := s.c.get(ctx, "/materials/supply-types", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s MaterialService) Get(ctx context.Context, id int64) (core.Material, error) {
	var out core.Material
	err := s.c.get(ctx, idPath("/materials/", id), nil, &out)
	return out, err
}

func (s MaterialService) Create(ctx context.Context, m core.Material) (core.Material, error) {
	if err := m.Validate(); err != nil {
		return core.Material{}, fmt.Errorf("create material: %w", err)
	}
	var out core.Material
	err := s.c.post(ctx, "/materials/", m, &out)
	return out, err
}

func (s MaterialService) Update(ctx context.Context, id int64, u MaterialUpdate) (core.Material, error) {
	if u.UnitPrice != nil && u.UnitPrice.IsNegative() {
		return core.Material{}, fmt.Errorf("update material %d: %w", id, core.ErrInvalidAmount)
	}
	var out core.Material
	err := s.c.put(ctx, idPath("/materials/", id), u, &out)
	return out, err
}

func (s MaterialService) Delete(ctx context.Context, id int64) error {
	return s.c.delete(ctx, idPath("/materials/", id))
}

// Catalogs is the pair of active catalogs a form needs.
type Catalogs struct {
	WorkItems []core.WorkItem
	Materials []core.Material
}

// FetchCatalogs loads both active catalogs concurrently. The first failure
// cancels the other request; nothing is retried.
func (c *Client) FetchCatalogs(ctx context.Context) (Catalogs, error) {
	var out Catalogs
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ws, err := c.WorkItems().List(gctx, WorkItemFilter{Active: ActiveOnly()})
		if err != nil {
			return fmt.Errorf("fetch work items: %w", err)
		}
		out.WorkItems = ws
		return nil
	})
	g.Go(func() error {
		ms, err := c.Materials().List(gctx, MaterialFilter{Active: ActiveOnly()})
		if err != nil {
			return fmt.Errorf("fetch materials: %w", err)
		}
		out.Materials = ms
		return nil
	})
	if err := g.Wait(); err != nil {
		return Catalogs{}, err
	}
	return out, nil
}
