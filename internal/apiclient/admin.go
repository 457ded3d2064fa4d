package apiclient

import (
	"context"
	"fmt"
	"net/url"

	"workorders/internal/core"
)

type (
	ProjectService struct{ c *Client }
	TeamService    struct{ c *Client }
	UserService    struct{ c *Client }

	ProjectCreate struct {
		Title        string `json:"title"`
		Description  string `json:"description,omitempty"`
		Location     string `json:"location"`
		ContactName  string `json:"contact_name"`
		ContactPhone string `json:"contact_phone"`
		Priority     int    `json:"priority,omitempty"`
	}

	ProjectUpdate struct {
		Title        *string             `json:"title,omitempty"`
		Description  *string             `json:"description,omitempty"`
		Location     *string             `json:"location,omitempty"`
		ContactName  *string             `json:"contact_name,omitempty"`
		ContactPhone *string             `json:"contact_phone,omitempty"`
		Status       *core.ProjectStatus `json:"status,omitempty"`
		Priority     *int                `json:"priority,omitempty"`
	}

	TeamCreate struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}

	TeamUpdate struct {
		Name        *string `json:"name,omitempty"`
		Description *string `json:"description,omitempty"`
		IsActive    *bool   `json:"is_active,omitempty"`
	}

	TeamMemberCreate struct {
		UserID   int64 `json:"user_id"`
		IsLeader bool  `json:"is_leader,omitempty"`
	}

	UserUpdate struct {
		Email    *string    `json:"email,omitempty"`
		FullName *string    `json:"full_name,omitempty"`
		Phone    *string    `json:"phone,omitempty"`
		Role     *core.Role `json:"role,omitempty"`
		IsActive *bool      `json:"is_active,omitempty"`
	}
)

func (s ProjectService) List(ctx context.Context, status core.ProjectStatus) ([]core.Project, error) {
	q := url.Values{}
	setString(q, "status", string(status))
	var out []core.Project
	if err := s.c.get(ctx, "/projects/", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s ProjectService) Get(ctx context.Context, id int64) (core.ProjectDetail, error) {
	var out core.ProjectDetail
	err := s.c.get(ctx, idPath("/projects/", id), nil, &out)
	return out, err
}

func (s ProjectService) Create(ctx context.Context, p ProjectCreate) (core.Project, error) {
	check := core.Project{Title: p.Title, Priority: p.Priority}
	if err := check.Validate(); err != nil {
		return core.Project{}, fmt.Errorf("create project: %w", err)
	}
	var out core.Project
	err := s.c.post(ctx, "/projects/", p, &out)
	return out, err
}

func (s ProjectService) Update(ctx context.Context, id int64, u ProjectUpdate) (core.Project, error) {
	if u.Priority != nil && (*u.Priority < 1 || *u.Priority > 5) {
		return core.Project{}, fmt.Errorf("update project %d: %w", id, core.ErrInvalidPriority)
	}
	var out core.Project
	err := s.c.put(ctx, idPath("/projects/", id), u, &out)
	return out, err
}

func (s ProjectService) Delete(ctx context.Context, id int64) error {
	return s.c.delete(ctx, idPath("/projects/", id))
}

func (s TeamService) List(ctx context.Context, active *bool) ([]core.Team, error) {
	q := url.Values{}
	setBool(q, "is_active", active)
	var out []core.Team
	if err := s.c.get(ctx, "/teams/", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s TeamService) Get(ctx context.Context, id int64) (core.TeamDetail, error) {
	var out core.TeamDetail
	err := s.c.get(ctx, idPath("/teams/", id), nil, &out)
	return out, err
}

func (s TeamService) Create(ctx context.Context, t TeamCreate) (core.Team, error) {
	if t.Name == "" {
		return core.Team{}, fmt.Errorf("create team: %w", core.ErrEmptyName)
	}
	var out core.Team
	err := s.c.post(ctx, "/teams/", t, &out)
	return out, err
}

func (s TeamService) Update(ctx context.Context, id int64, u TeamUpdate) (core.Team, error) {
	var out core.Team
	err := s.c.put(ctx, idPath("/teams/", id), u, &out)
	return out, err
}

func (s TeamService) Delete(ctx context.Context, id int64) error {
	return s.c.delete(ctx, idPath("/teams/", id))
}

func (s TeamService) AddMember(ctx context.Context, teamID int64, m TeamMemberCreate) (core.TeamDetail, error) {
	var out core.TeamDetail
	err := s.c.post(ctx, idPath("/teams/", teamID)+"/members/", m, &out)
	return out, err
}

func (s TeamService) RemoveMember(ctx context.Context, teamID, userID int64) error {
	return s.c.delete(ctx, idPath(idPath("/teams/", teamID)+"/members/", userID))
}

func (s UserService) List(ctx context.Context, role core.Role, active *bool) ([]core.User, error) {
	q := url.Values{}
	setString(q, "role", string(role))
	setBool(q, "is_active", active)
	var out []core.User
	if err := s.c.get(ctx, "/users/", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s UserService) Get(ctx context.Context, id int64) (core.User, error) {
	var out core.User
	err := s.c.get(ctx, idPath("/users/", id), nil, &out)
	return out, err
}

func (s UserService) Update(ctx context.Context, id int64, u UserUpdate) (core.User, error) {
	if u.Role != nil && !u.Role.IsValid() {
		return core.User{}, fmt.Errorf("update user %d: unknown role %q", id, *u.Role)
	}
	var out core.User
	err := s.c.put(ctx, idPath("/users/", id), u, &out)
	return out, err
}

func (s UserService) Delete(ctx context.Context, id int64) error {
	return s.c.delete(ctx, idPath("/users/", id))
}
