// Package browsertest provides in-memory browser sessions for tests.
package browsertest

import (
	"context"
	"sync"

	"github.com/IshaanNene/carousell-scraper/internal/browser"
)

// Session is a browser.Session that serves fixed HTML and records calls.
type Session struct {
	mu sync.Mutex

	// Page is returned by HTML.
	Page string

	// PageTitle is returned by Title.
	PageTitle string

	// NavigateErr, HTMLErr and ScrollErr make the matching call fail.
	NavigateErr error
	HTMLErr     error
	ScrollErr   error

	// PanicOnHTML makes HTML panic with this value when non-nil.
	PanicOnHTML any

	// Shot is returned by Screenshot.
	Shot []byte

	Visited []string
	Scrolls int
	Closed  int
}

func (s *Session) Kind() browser.Kind { return browser.KindChrome }

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Visited = append(s.Visited, url)
	return s.NavigateErr
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	if s.PanicOnHTML != nil {
		panic(s.PanicOnHTML)
	}
	return s.Page, s.HTMLErr
}

func (s *Session) Scroll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Scrolls++
	return s.ScrollErr
}

func (s *Session) Title(ctx context.Context) string { return s.PageTitle }

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) { return s.Shot, nil }

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed++
	return nil
}

// CloseCount returns how many times Close was called.
func (s *Session) CloseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Closed
}

// Engine is a browser.Engine whose Launch returns a preset Session.
type Engine struct {
	EngineKind browser.Kind
	Paths      []string
	Session    browser.Session
	LaunchErr  error

	// NewSession, when set, is called for every launch instead of
	// returning Session.
	NewSession func() browser.Session

	mu       sync.Mutex
	Launches int
	LastPath string
	LastOpts browser.LaunchOptions
}

func (e *Engine) Kind() browser.Kind { return e.EngineKind }

func (e *Engine) Candidates(goos string) []string { return e.Paths }

func (e *Engine) Commands() []string { return nil }

func (e *Engine) Launch(ctx context.Context, path string, opts browser.LaunchOptions) (browser.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Launches++
	e.LastPath = path
	e.LastOpts = opts
	if e.LaunchErr != nil {
		return nil, e.LaunchErr
	}
	if e.NewSession != nil {
		return e.NewSession(), nil
	}
	return e.Session, nil
}
