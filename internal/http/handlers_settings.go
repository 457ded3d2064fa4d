package http

import (
	"net/http"
	"strings"

	"workorders/internal/settings"
)

type settingsView struct {
	settings.Settings
	Username string `json:"username,omitempty"`
	LoggedIn bool   `json:"logged_in"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) settingsView(cur settings.Settings) settingsView {
	user := s.settings.Username()
	return settingsView{Settings: cur, Username: user, LoggedIn: user != ""}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.settingsView(s.settings.Current()))
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var u settings.Update
	if err := decodeJSON(r, &u, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	cur, err := s.settings.Update(r.Context(), u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.settingsView(cur))
}

func (s *Server) handleResetSettings(w http.ResponseWriter, r *http.Request) {
	cur, err := s.settings.Reset(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.settingsView(cur))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	req.Username = sanitizeInput(req.Username)
	if req.Username == "" || strings.TrimSpace(req.Password) == "" {
		s.writeError(w, r, badRequest("username and password are required"))
		return
	}
	if err := s.settings.Login(r.Context(), req.Username, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.settingsView(s.settings.Current()))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.settings.Logout(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
