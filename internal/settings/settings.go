// Package settings owns the client-side configuration: which backend the
// API client talks to, where templates are downloaded from, and the stored
// login. Changes take effect by swapping in a freshly built API client.
package settings

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"workorders/internal/apiclient"
	applog "workorders/internal/log"
	"workorders/internal/storage"
)

const (
	DefaultAPIBaseURL      = "http://localhost:8458"
	DefaultTemplateBaseURL = "http://localhost:8458"

	keyAPIBaseURL      = "api_base_url"
	keyTemplateBaseURL = "template_base_url"
)

var ErrInvalidURL = errors.New("invalid base url")

type Settings struct {
	APIBaseURL      string `json:"api_base_url" yaml:"api_base_url"`
	TemplateBaseURL string `json:"template_base_url" yaml:"template_base_url"`
}

// Update is a partial change; nil fields are left alone.
type Update struct {
	APIBaseURL      *string `json:"api_base_url,omitempty"`
	TemplateBaseURL *string `json:"template_base_url,omitempty"`
}

func Defaults() Settings {
	return Settings{APIBaseURL: DefaultAPIBaseURL, TemplateBaseURL: DefaultTemplateBaseURL}
}

// TemplateURL returns the download location of a named import template.
func (s Settings) TemplateURL(name string) string {
	return strings.TrimRight(s.TemplateBaseURL, "/") + "/templates/" + url.PathEscape(name)
}

func (s Settings) Validate() error {
	var errs []string
	if err := checkURL(s.APIBaseURL); err != nil {
		errs = append(errs, fmt.Sprintf("api_base_url: %v", err))
	}
	if err := checkURL(s.TemplateBaseURL); err != nil {
		errs = append(errs, fmt.Sprintf("template_base_url: %v", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidURL, strings.Join(errs, "; "))
	}
	return nil
}

func checkURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}

// Store is the persistence the Manager needs. *storage.SQLiteRepository
// satisfies it.
type Store interface {
	LoadSettings(ctx context.Context) (map[string]string, error)
	SaveSettings(ctx context.Context, values map[string]string) error
	ClearSettings(ctx context.Context) error
	LoadSession(ctx context.Context) (storage.Session, error)
	SaveSession(ctx context.Context, s storage.Session) error
	ClearSession(ctx context.Context) error
}

type state struct {
	settings Settings
	token    string
	username string
	client   *apiclient.Client
}

// Manager holds the current settings and the API client built from them.
// Readers never block: Client and Current load an atomically swapped
// snapshot. Writers are serialized.
type Manager struct {
	store    Store
	timeout  time.Duration
	logger   *applog.Logger
	defaults Settings

	mu      sync.Mutex
	current atomic.Pointer[state]
}

func NewManager(store Store, timeout time.Duration, logger *applog.Logger) *Manager {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Manager{
		store:    store,
		timeout:  timeout,
		logger:   logger.WithComponent(applog.ComponentSettings),
		defaults: Defaults(),
	}
}

// Load reads persisted settings over the given defaults and builds the
// first client. Stored values win over defaults, and Reset returns to them.
func (m *Manager) Load(ctx context.Context, defaults Settings) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := defaults.Validate(); err != nil {
		return Settings{}, fmt.Errorf("defaults: %w", err)
	}
	m.defaults = defaults

	values, err := m.store.LoadSettings(ctx)
	if err != nil {
		return Settings{}, err
	}
	s := defaults
	if v, ok := values[keyAPIBaseURL]; ok {
		s.APIBaseURL = v
	}
	if v, ok := values[keyTemplateBaseURL]; ok {
		s.TemplateBaseURL = v
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}

	var token, username string
	sess, err := m.store.LoadSession(ctx)
	switch {
	case err == nil:
		token, username = sess.Token, sess.Username
	case !errors.Is(err, storage.ErrNoSession):
		return Settings{}, err
	}

	if err := m.install(s, token, username); err != nil {
		return Settings{}, err
	}
	m.logger.InfoContext(ctx, "Settings loaded", applog.FieldBaseURL, s.APIBaseURL, "logged_in", token != "")
	return s, nil
}

// Current returns the active settings.
func (m *Manager) Current() Settings {
	if st := m.current.Load(); st != nil {
		return st.settings
	}
	return m.defaults
}

// Username returns the stored login, or "" when logged out.
func (m *Manager) Username() string {
	if st := m.current.Load(); st != nil {
		return st.username
	}
	return ""
}

// Client returns the API client for the active settings. Callers should
// fetch it per operation rather than hold on to it.
func (m *Manager) Client() *apiclient.Client {
	if st := m.current.Load(); st != nil {
		return st.client
	}
	c, _ := apiclient.New(DefaultAPIBaseURL, apiclient.WithTimeout(m.timeout))
	return c
}

// Update applies a partial change, persists it and swaps in a new client.
// The stored session survives a base URL change.
func (m *Manager) Update(ctx context.Context, u Update) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.Current()
	if u.APIBaseURL != nil {
		s.APIBaseURL = strings.TrimSpace(*u.APIBaseURL)
	}
	if u.TemplateBaseURL != nil {
		s.TemplateBaseURL = strings.TrimSpace(*u.TemplateBaseURL)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	if err := m.store.SaveSettings(ctx, map[string]string{
		keyAPIBaseURL:      s.APIBaseURL,
		keyTemplateBaseURL: s.TemplateBaseURL,
	}); err != nil {
		return Settings{}, err
	}

	token, username := m.session()
	if err := m.install(s, token, username); err != nil {
		return Settings{}, err
	}
	m.logger.InfoContext(ctx, "Settings updated", applog.FieldBaseURL, s.APIBaseURL)
	return s, nil
}

// Reset drops persisted settings and returns to the defaults given to Load.
func (m *Manager) Reset(ctx context.Context) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.ClearSettings(ctx); err != nil {
		return Settings{}, err
	}
	s := m.defaults
	token, username := m.session()
	if err := m.install(s, token, username); err != nil {
		return Settings{}, err
	}
	m.logger.InfoContext(ctx, "Settings reset to defaults")
	return s, nil
}

// Login authenticates against the current backend and stores the token.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	tok, err := m.Client().Auth().Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.SaveSession(ctx, storage.Session{Token: tok.AccessToken, Username: username}); err != nil {
		return err
	}
	return m.install(m.Current(), tok.AccessToken, username)
}

// Logout forgets the stored token.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.ClearSession(ctx); err != nil {
		return err
	}
	return m.install(m.Current(), "", "")
}

func (m *Manager) session() (token, username string) {
	st := m.current.Load()
	if st == nil {
		return "", ""
	}
	return st.token, st.username
}

// install must be called with mu held.
func (m *Manager) install(s Settings, token, username string) error {
	opts := []apiclient.Option{
		apiclient.WithTimeout(m.timeout),
		apiclient.WithLogger(m.logger),
		apiclient.WithUnauthorizedHook(func() { m.onUnauthorized(token) }),
	}
	if token != "" {
		opts = append(opts, apiclient.WithToken(token))
	}
	c, err := apiclient.New(s.APIBaseURL, opts...)
	if err != nil {
		return err
	}
	m.current.Store(&state{settings: s, token: token, username: username, client: c})
	return nil
}

// onUnauthorized runs on the request goroutine after a 401 from a client
// built with token. It clears the session only while that token is still the
// current one, so a stale client cannot log out a newer session. No request
// is ever issued with mu held, so taking it here cannot deadlock.
func (m *Manager) onUnauthorized(token string) {
	if token == "" {
		return
	}
	if st := m.current.Load(); st == nil || st.token != token {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	if st := m.current.Load(); st == nil || st.token != token {
		return
	}
	if err := m.store.ClearSession(ctx); err != nil {
		m.logger.WarnContext(ctx, "Failed to clear session after 401", applog.FieldError, err.Error())
		return
	}
	if err := m.install(m.Current(), "", ""); err != nil {
		m.logger.WarnContext(ctx, "Failed to rebuild client after 401", applog.FieldError, err.Error())
		return
	}
	m.logger.InfoContext(ctx, "Session cleared after 401")
}
