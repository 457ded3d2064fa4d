package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"workorders/internal/amqp"
	"workorders/internal/apiclient"
	"workorders/internal/cache"
	"workorders/internal/core"
	"workorders/internal/lineitems"
	applog "workorders/internal/log"
)

var ErrFormNotFound = errors.New("form not found or expired")

// ClientSource hands out the API client for the current settings.
type ClientSource interface {
	Client() *apiclient.Client
}

// Publisher announces submitted forms.
type Publisher interface {
	PublishTaskCompleted(ctx context.Context, msg *amqp.TaskCompletedMessage) error
}

// RowEdit is a partial row update. Fields apply in declaration order, so a
// category change clears the item before a new item is set.
type RowEdit struct {
	Category        *string
	ItemID          *int64
	Quantity        *decimal.Decimal
	CompanyProvided *bool
}

type FormOptions struct {
	TTL       time.Duration
	MaxForms  int
	Publisher Publisher
	Logger    *applog.Logger
}

// openForm serializes requests against one form.
type openForm struct {
	mu     sync.Mutex
	id     string
	form   *lineitems.Form
	closed bool
}

// FormService keeps open task forms in memory between requests.
type FormService struct {
	clients    ClientSource
	publisher  Publisher
	forms      *cache.LRUCache[*openForm]
	logger     *applog.Logger
	structured *applog.StructuredLogger
}

func NewFormService(clients ClientSource, opts FormOptions) *FormService {
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Minute
	}
	if opts.MaxForms <= 0 {
		opts.MaxForms = 256
	}
	if opts.Logger == nil {
		opts.Logger = applog.Discard()
	}
	logger := opts.Logger.WithComponent(applog.ComponentForms)

	s := &FormService{
		clients:    clients,
		publisher:  opts.Publisher,
		logger:     logger,
		structured: applog.NewStructuredLogger(logger),
	}
	s.forms = cache.NewLRUCache[*openForm](opts.MaxForms, opts.TTL,
		cache.WithSlidingExpiry[*openForm](),
		cache.WithEvictHook(func(id string, of *openForm) {
			logger.Debug("Form evicted", applog.FieldFormID, id)
		}))
	return s
}

// Forms exposes the form cache for periodic cleanup.
func (s *FormService) Forms() cache.Cleaner {
	return s.forms
}

// OpenCount returns how many forms are currently held.
func (s *FormService) OpenCount() int {
	return s.forms.Size()
}

// Open fetches the task and both active catalogs concurrently, then seeds a
// form from the task's saved rows.
func (s *FormService) Open(ctx context.Context, taskID int64, kind lineitems.Kind) (FormView, error) {
	if taskID <= 0 {
		return FormView{}, fmt.Errorf("invalid task id %d", taskID)
	}
	if _, err := lineitems.ParseKind(string(kind)); err != nil {
		return FormView{}, err
	}

	client := s.clients.Client()
	var (
		task     core.TaskDetail
		catalogs apiclient.Catalogs
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		task, err = client.Tasks().Get(gctx, taskID)
		if err != nil {
			return fmt.Errorf("fetch task %d: %w", taskID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		catalogs, err = client.FetchCatalogs(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return FormView{}, err
	}

	form := lineitems.NewFormFromTask(task, kind,
		lineitems.WorkItemCatalog(catalogs.WorkItems),
		lineitems.MaterialCatalog(catalogs.Materials))

	of := &openForm{id: uuid.NewString(), form: form}
	s.forms.Set(of.id, of)

	s.logger.InfoContext(ctx, "Form opened", applog.NewFields().
		WithForm(of.id, taskID, string(kind)).
		WithOperation(applog.OpOpen).
		ToSlice()...)
	return newFormView(of.id, form), nil
}

// with runs fn on a live form under its lock.
func (s *FormService) with(id string, fn func(f *lineitems.Form) error) (FormView, error) {
	of, ok := s.forms.Get(id)
	if !ok {
		return FormView{}, ErrFormNotFound
	}
	of.mu.Lock()
	defer of.mu.Unlock()
	if of.closed {
		return FormView{}, ErrFormNotFound
	}
	if fn != nil {
		if err := fn(of.form); err != nil {
			return FormView{}, err
		}
	}
	return newFormView(id, of.form), nil
}

func (s *FormService) Get(id string) (FormView, error) {
	return s.with(id, nil)
}

func (s *FormService) AddRow(id string, list lineitems.List) (FormView, error) {
	return s.with(id, func(f *lineitems.Form) error {
		_, err := f.AddRow(list)
		return err
	})
}

func (s *FormService) RemoveRow(id string, list lineitems.List, index int) (FormView, error) {
	return s.with(id, func(f *lineitems.Form) error {
		return f.RemoveRow(list, index)
	})
}

func (s *FormService) SetCategory(id string, list lineitems.List, index int, category string) (FormView, error) {
	return s.EditRow(id, list, index, RowEdit{Category: &category})
}

func (s *FormService) SetItem(id string, list lineitems.List, index int, itemID int64) (FormView, error) {
	return s.EditRow(id, list, index, RowEdit{ItemID: &itemID})
}

func (s *FormService) SetQuantity(id string, list lineitems.List, index int, qty decimal.Decimal) (FormView, error) {
	return s.EditRow(id, list, index, RowEdit{Quantity: &qty})
}

func (s *FormService) SetProvenance(id string, list lineitems.List, index int, companyProvided bool) (FormView, error) {
	return s.EditRow(id, list, index, RowEdit{CompanyProvided: &companyProvided})
}

// EditRow applies every set field of e. Either all fields apply or the
// row is left as it was.
func (s *FormService) EditRow(id string, list lineitems.List, index int, e RowEdit) (FormView, error) {
	return s.with(id, func(f *lineitems.Form) error {
		rows, err := f.Rows(list)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(rows) {
			return lineitems.ErrRowOutOfRange
		}
		if err := applyEdit(f, list, index, e); err != nil {
			if rerr := f.ReplaceRow(list, index, rows[index]); rerr != nil {
				return errors.Join(err, rerr)
			}
			return err
		}
		return nil
	})
}

func applyEdit(f *lineitems.Form, list lineitems.List, index int, e RowEdit) error {
	if e.Category != nil {
		if err := f.SetCategory(list, index, *e.Category); err != nil {
			return err
		}
	}
	if e.ItemID != nil {
		if err := f.SetItem(list, index, *e.ItemID); err != nil {
			return err
		}
	}
	if e.Quantity != nil {
		if err := f.SetQuantity(list, index, *e.Quantity); err != nil {
			return err
		}
	}
	if e.CompanyProvided != nil {
		return f.SetCompanyProvided(list, index, *e.CompanyProvided)
	}
	return nil
}

// Options lists the items selectable on a row, scoped to its category.
func (s *FormService) Options(id string, list lineitems.List, index int) ([]ItemView, error) {
	var items []lineitems.Item
	_, err := s.with(id, func(f *lineitems.Form) error {
		var err error
		items, err = f.Options(list, index)
		return err
	})
	if err != nil {
		return nil, err
	}
	return newItemViews(items), nil
}

func (s *FormService) Summary(id string) (lineitems.DisplaySummary, error) {
	v, err := s.with(id, nil)
	if err != nil {
		return lineitems.DisplaySummary{}, err
	}
	return v.Summary, nil
}

// Close discards a form. Closing an unknown form is not an error.
func (s *FormService) Close(id string) {
	if of, ok := s.forms.Get(id); ok {
		of.mu.Lock()
		of.closed = true
		of.mu.Unlock()
	}
	s.forms.Delete(id)
}

// Submit validates the form and sends it: completion forms go to the
// complete endpoint, edit forms update the task. The form is closed only
// when the backend accepted it, so a failed submit can be retried.
func (s *FormService) Submit(ctx context.Context, id string) (SubmitResult, error) {
	of, ok := s.forms.Get(id)
	if !ok {
		return SubmitResult{}, ErrFormNotFound
	}
	of.mu.Lock()
	defer of.mu.Unlock()
	if of.closed {
		return SubmitResult{}, ErrFormNotFound
	}

	f := of.form
	if err := f.Validate(); err != nil {
		return SubmitResult{}, err
	}

	task, err := s.send(ctx, f)
	if err != nil {
		s.structured.LogError(ctx, "Form submit failed", err, applog.ComponentForms, applog.OpSubmit,
			applog.NewFields().WithForm(id, f.TaskID, string(f.Kind)))
		return SubmitResult{}, err
	}

	estimate := f.Summary()
	res := SubmitResult{
		TaskID:   f.TaskID,
		Kind:     f.Kind,
		Status:   task.Status,
		Estimate: estimate.Display(),
		Backend:  backendSummary(task),
	}

	s.publish(ctx, f, task)
	s.structured.LogFormSubmitted(ctx, id, f.TaskID, string(f.Kind), res.Backend.GrandTotal)

	of.closed = true
	s.forms.Delete(id)
	return res, nil
}

func (s *FormService) send(ctx context.Context, f *lineitems.Form) (core.Task, error) {
	tasks := s.clients.Client().Tasks()
	switch f.Kind {
	case lineitems.KindComplete:
		req, err := f.CompletionRequest()
		if err != nil {
			return core.Task{}, err
		}
		detail, err := tasks.Complete(ctx, f.TaskID, req)
		if err != nil {
			return core.Task{}, fmt.Errorf("complete task %d: %w", f.TaskID, err)
		}
		return detail.Task, nil
	case lineitems.KindEdit:
		upd, err := f.UpdateRequest()
		if err != nil {
			return core.Task{}, err
		}
		task, err := tasks.Update(ctx, f.TaskID, upd)
		if err != nil {
			return core.Task{}, fmt.Errorf("update task %d: %w", f.TaskID, err)
		}
		return task, nil
	default:
		return core.Task{}, fmt.Errorf("unknown form kind %q", f.Kind)
	}
}

// publish reports the backend's totals. Failures are logged only: the
// task is already saved.
func (s *FormService) publish(ctx context.Context, f *lineitems.Form, task core.Task) {
	if s.publisher == nil {
		return
	}
	works, _ := f.Rows(lineitems.WorkItems)
	mats, _ := f.Rows(lineitems.Materials)

	completed := time.Now()
	if task.CompletedAt != nil {
		completed = *task.CompletedAt
	}
	msg := amqp.NewTaskCompletedMessage(core.CostReportRow{
		TaskID:               f.TaskID,
		Kind:                 string(f.Kind),
		CompletedAt:          completed,
		LaborTotal:           task.LaborCost,
		CompanyMaterialTotal: task.CompanyMaterialCost,
		SelfMaterialTotal:    task.SelfMaterialCost,
		GrandTotal:           task.TotalCost,
		MaterialCount:        len(mats),
		WorkItemCount:        len(works),
	})
	if err := s.publisher.PublishTaskCompleted(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish task completed message",
			applog.FieldTaskID, f.TaskID,
			applog.FieldError, err)
	}
}
