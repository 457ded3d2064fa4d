package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"workorders/internal/lineitems"
)

const maxBodyBytes = 1 << 20

// pathID parses a positive integer path value.
func pathID(r *http.Request, name string) (int64, error) {
	v := strings.TrimSpace(r.PathValue(name))
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid %s %q", name, v)
	}
	return id, nil
}

// pathRow parses the {list} and {index} path values of a row route.
func pathRow(r *http.Request) (lineitems.List, int, error) {
	list, err := lineitems.ParseList(r.PathValue("list"))
	if err != nil {
		return "", 0, err
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		return "", 0, badRequest("invalid row index %q", r.PathValue("index"))
	}
	return list, index, nil
}

// parseDay parses an optional YYYY-MM-DD query value.
func parseDay(r *http.Request, key string) (time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, badRequest("invalid %s %q, want YYYY-MM-DD", key, v)
	}
	return t, nil
}

// decodeJSON reads a bounded JSON body into dst. An empty body is allowed
// when optional is true.
func decodeJSON(r *http.Request, dst any, optional bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && optional {
			return nil
		}
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// sanitizeInput removes control characters except tab, newline and CR, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
