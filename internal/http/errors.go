package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"workorders/internal/apiclient"
	"workorders/internal/lineitems"
	applog "workorders/internal/log"
	"workorders/internal/services"
	"workorders/internal/settings"
)

// requestError is a malformed request detected before any work was done.
type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// validationErrors are the form and settings errors a client can fix.
var validationErrors = []error{
	lineitems.ErrUnknownList,
	lineitems.ErrRowOutOfRange,
	lineitems.ErrUnknownItem,
	lineitems.ErrItemNotInCategory,
	lineitems.ErrNotMaterialRow,
	lineitems.ErrMissingCategory,
	lineitems.ErrMissingItem,
	lineitems.ErrInvalidQuantity,
	settings.ErrInvalidURL,
}

// statusFor maps an error to the response status. Anything not recognised
// came from the backend or the network on the way to it.
func statusFor(err error) int {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return http.StatusBadRequest
	}
	if errors.Is(err, services.ErrFormNotFound) {
		return http.StatusNotFound
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusNotFound:
			return http.StatusNotFound
		case apiErr.StatusCode == http.StatusUnauthorized:
			return http.StatusUnauthorized
		case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
			return http.StatusUnprocessableEntity
		}
		return http.StatusBadGateway
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

type rowProblem struct {
	List  lineitems.List `json:"list"`
	Row   int            `json:"row"`
	Error string         `json:"error"`
}

type errorResponse struct {
	Error string       `json:"error"`
	Rows  []rowProblem `json:"rows,omitempty"`
}

// rowProblems flattens joined validation errors into per-row entries.
func rowProblems(err error) []rowProblem {
	var out []rowProblem
	var walk func(error)
	walk = func(e error) {
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
			return
		}
		var rowErr *lineitems.RowError
		if errors.As(e, &rowErr) {
			out = append(out, rowProblem{List: rowErr.List, Row: rowErr.Index, Error: rowErr.Err.Error()})
		}
	}
	walk(err)
	return out
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.structured.LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, r.Method+" "+r.URL.Path, nil)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Rows: rowProblems(err)})
}
