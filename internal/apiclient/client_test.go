package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"workorders/internal/core"
)

type recorded struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Type   string
	Body   string
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *[]recorded) {
	t.Helper()
	var mu sync.Mutex
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Type:   r.Header.Get("Content-Type"),
			Body:   string(b),
		})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func mustDec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8458", "ftp://example.com", "http://"} {
		if _, err := New(raw); err == nil {
			t.Errorf("New(%q) succeeded, want error", raw)
		}
	}
	c, err := New("http://localhost:8458/")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := c.BaseURL(), "http://localhost:8458/api"; got != want {
		t.Fatalf("BaseURL = %q, want %q", got, want)
	}
}

func TestLogin_FormEncodedAndTokenUsed(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/token":
			writeJSON(w, http.StatusOK, Token{AccessToken: "abc", TokenType: "bearer"})
		case "/api/auth/me":
			writeJSON(w, http.StatusOK, core.User{ID: 5, Username: "li", Role: core.RoleWorker})
		}
	})

	c, _ := New(srv.URL)
	tok, err := c.Auth().Login(context.Background(), "li", "s3cret")
	if err != nil {
		t.Fatal(err)
	}
	authed, _ := New(srv.URL, WithToken(tok.AccessToken))
	me, err := authed.Auth().Me(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if me.ID != 5 {
		t.Fatalf("me = %+v", me)
	}

	got := *calls
	if got[0].Type != "application/x-www-form-urlencoded" || got[0].Body != "password=s3cret&username=li" {
		t.Errorf("login request = %+v", got[0])
	}
	if got[0].Auth != "" {
		t.Errorf("login sent auth header %q", got[0].Auth)
	}
	if got[1].Auth != "Bearer abc" {
		t.Errorf("me auth = %q, want Bearer abc", got[1].Auth)
	}
}

func TestFetchCatalogs_RequestsActiveOnly(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/work-items/":
			writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "category": "Plumbing", "unit_price": 10}})
		case "/api/materials/":
			writeJSON(w, http.StatusOK, []map[string]any{{"id": 10, "category": "Pipe", "unit_price": "4.50"}})
		default:
			http.NotFound(w, r)
		}
	})

	c, _ := New(srv.URL)
	cats, err := c.FetchCatalogs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(cats.WorkItems) != 1 || cats.WorkItems[0].UnitPrice.String() != "10" {
		t.Errorf("work items = %+v", cats.WorkItems)
	}
	if len(cats.Materials) != 1 || cats.Materials[0].UnitPrice.StringFixed(2) != "4.50" {
		t.Errorf("materials = %+v", cats.Materials)
	}
	for _, call := range *calls {
		if call.Query != "is_active=true" {
			t.Errorf("%s query = %q, want is_active=true", call.Path, call.Query)
		}
	}
}

func TestFetchCatalogs_FailureIsReturned(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/materials/" {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "boom"})
			return
		}
		writeJSON(w, http.StatusOK, []any{})
	})

	c, _ := New(srv.URL)
	_, err := c.FetchCatalogs(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 500 || apiErr.Detail != "boom" {
		t.Fatalf("err = %v, want wrapped 500 boom", err)
	}
}

func TestErrorDetail(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"string detail", 404, `{"detail":"Task not found"}`, "Task not found"},
		{"structured detail", 422, `{"detail":[{"loc":["body","quantity"]}]}`, `[{"loc":["body","quantity"]}]`},
		{"plain body", 502, "bad gateway\n", "bad gateway"},
		{"empty body", 500, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			c, _ := New(srv.URL)
			_, err := c.Tasks().Get(context.Background(), 1)
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want *Error", err)
			}
			if apiErr.StatusCode != tt.status || apiErr.Detail != tt.want {
				t.Fatalf("got %d %q, want %d %q", apiErr.StatusCode, apiErr.Detail, tt.status, tt.want)
			}
			if IsNotFound(err) != (tt.status == 404) {
				t.Fatalf("IsNotFound = %v", IsNotFound(err))
			}
		})
	}
}

func TestUnauthorized_InvokesHook(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
	})

	cleared := false
	c, _ := New(srv.URL, WithToken("stale"), WithUnauthorizedHook(func() { cleared = true }))
	_, err := c.Tasks().Mine(context.Background(), "")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if !cleared {
		t.Fatal("unauthorized hook not called")
	}
}

func TestTasks_CompleteBody(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 3, "status": "completed", "total_cost": 39})
	})

	c, _ := New(srv.URL)
	detail, err := c.Tasks().Complete(context.Background(), 3, core.TaskCompletion{
		WorkItems: []core.TaskWorkItemInput{{WorkItemID: 1, Quantity: mustDec("3")}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if detail.Status != core.TaskCompleted || detail.TotalCost.String() != "39" {
		t.Fatalf("detail = %+v", detail.Task)
	}

	call := (*calls)[0]
	want := recorded{
		Method: http.MethodPost,
		Path:   "/api/tasks/3/complete",
		Type:   "application/json",
		Body:   `{"materials":[],"work_items":[{"work_item_id":1,"quantity":3}]}`,
	}
	if diff := cmp.Diff(want, call); diff != "" {
		t.Fatalf("request (-want +got):\n%s", diff)
	}
}

func TestTasks_ListQueryAndAccept(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, []core.Task{{ID: 1}})
			return
		}
		writeJSON(w, http.StatusOK, core.Task{ID: 9, Status: core.TaskAssigned})
	})

	c, _ := New(srv.URL)
	if _, err := c.Tasks().List(context.Background(), TaskFilter{Status: core.TaskPending, ProjectID: 4}); err != nil {
		t.Fatal(err)
	}
	task, err := c.Tasks().Accept(context.Background(), 9)
	if err != nil {
		t.Fatal(err)
	}
	if task.Status != core.TaskAssigned {
		t.Fatalf("status = %s", task.Status)
	}

	got := *calls
	if got[0].Path != "/api/tasks/" || got[0].Query != "project_id=4&status=pending" {
		t.Errorf("list call = %+v", got[0])
	}
	if got[1].Method != http.MethodPut || got[1].Path != "/api/tasks/9" || got[1].Body != `{"status":"assigned"}` {
		t.Errorf("accept call = %+v", got[1])
	}
}

func TestStatistics_RawRejectsUnknownKind(t *testing.T) {
	c, _ := New("http://localhost:8458")
	if _, err := c.Statistics().Raw(context.Background(), "budgets", DateRange{}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestTeams_MemberPaths(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, core.TeamDetail{Team: core.Team{ID: 2}})
	})

	c, _ := New(srv.URL)
	if _, err := c.Teams().AddMember(context.Background(), 2, TeamMemberCreate{UserID: 7}); err != nil {
		t.Fatal(err)
	}
	if err := c.Teams().RemoveMember(context.Background(), 2, 7); err != nil {
		t.Fatal(err)
	}
	got := *calls
	if got[0].Path != "/api/teams/2/members/" || got[1].Path != "/api/teams/2/members/7" {
		t.Fatalf("paths = %q, %q", got[0].Path, got[1].Path)
	}
}
