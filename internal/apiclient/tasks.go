package apiclient

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"workorders/internal/core"
)

type TaskService struct{ c *Client }

// TaskFilter narrows task listings. Zero values are omitted.
type TaskFilter struct {
	Status    core.TaskStatus
	ProjectID int64
}

func (f TaskFilter) query() url.Values {
	q := url.Values{}
	setString(q, "status", string(f.Status))
	if f.ProjectID != 0 {
		q.Set("project_id", strconv.FormatInt(f.ProjectID, 10))
	}
	return q
}

func (s TaskService) List(ctx context.Context, f TaskFilter) ([]core.Task, error) {
	var out []core.Task
	if err := s.c.get(ctx, "/tasks/", f.query(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Mine lists the tasks assigned to the authenticated worker.
func (s TaskService) Mine(ctx context.Context, status core.TaskStatus) ([]core.Task, error) {
	var out []core.Task
	if err := s.c.get(ctx, "/tasks/my-tasks", TaskFilter{Status: status}.query(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns a task with its saved materials and work items.
func (s TaskService) Get(ctx context.Context, id int64) (core.TaskDetail, error) {
	var out core.TaskDetail
	err := s.c.get(ctx, idPath("/tasks/", id), nil, &out)
	return out, err
}

func (s TaskService) Create(ctx context.Context, t core.TaskCreate) (core.Task, error) {
	if err := t.Validate(); err != nil {
		return core.Task{}, fmt.Errorf("create task: %w", err)
	}
	var out core.Task
	err := s.c.post(ctx, "/tasks/", t, &out)
	return out, err
}

func (s TaskService) Update(ctx context.Context, id int64, u core.TaskUpdate) (core.Task, error) {
	if err := u.Validate(); err != nil {
		return core.Task{}, fmt.Errorf("update task %d: %w", id, err)
	}
	var out core.Task
	err := s.c.put(ctx, idPath("/tasks/", id), u, &out)
	return out, err
}

// Complete records the materials and work items used. The backend prices
// every row from its own catalog and returns the authoritative totals.
func (s TaskService) Complete(ctx context.Context, id int64, req core.TaskCompletion) (core.TaskDetail, error) {
	if req.Materials == nil {
		req.Materials = []core.TaskMaterialInput{}
	}
	if req.WorkItems == nil {
		req.WorkItems = []core.TaskWorkItemInput{}
	}
	var out core.TaskDetail
	err := s.c.post(ctx, idPath("/tasks/", id)+"/complete", req, &out)
	return out, err
}

func (s TaskService) Delete(ctx context.Context, id int64) error {
	return s.c.delete(ctx, idPath("/tasks/", id))
}

// Accept moves a task to assigned on behalf of the current worker.
func (s TaskService) Accept(ctx context.Context, id int64) (core.Task, error) {
	status := core.TaskAssigned
	return s.Update(ctx, id, core.TaskUpdate{Status: &status})
}
