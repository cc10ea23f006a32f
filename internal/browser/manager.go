package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/carousell-scraper/internal/config"
	"github.com/IshaanNene/carousell-scraper/internal/types"
)

// Manager finds a supported browser and launches sessions on it.
type Manager struct {
	engines []Engine
	locator *Locator
	agents  *UserAgentPool
	logger  *slog.Logger
}

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithEngines replaces the engine preference order.
func WithEngines(engines ...Engine) ManagerOption {
	return func(m *Manager) { m.engines = engines }
}

// WithLocator sets the locator used to probe for binaries.
func WithLocator(l *Locator) ManagerOption {
	return func(m *Manager) { m.locator = l }
}

// WithUserAgents sets the User-Agent pool.
func WithUserAgents(p *UserAgentPool) ManagerOption {
	return func(m *Manager) { m.agents = p }
}

// NewManager creates a Manager that prefers Chrome, then Firefox, on the
// real host.
func NewManager(logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{logger: logger.With("component", "browser_manager")}
	for _, opt := range opts {
		opt(m)
	}
	if m.engines == nil {
		m.engines = []Engine{NewChromeEngine(logger), NewFirefoxEngine(logger)}
	}
	if m.locator == nil {
		m.locator = NewLocator()
	}
	if m.agents == nil {
		m.agents = NewUserAgentPool(nil, nil)
	}
	return m
}

// Located is a browser binary found on the host.
type Located struct {
	Engine Engine
	Path   string
}

// Detect returns every installed engine allowed by cfg, in preference order.
// It fails with *types.BrowserNotFoundError when none is installed.
func (m *Manager) Detect(cfg config.BrowserConfig) ([]Located, error) {
	kind, err := ParseKind(cfg.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrUnsupportedKind, err)
	}

	loc := m.locator.WithExtraPaths(cfg.ExtraPaths)
	notFound := &types.BrowserNotFoundError{}
	var found []Located

	for _, e := range m.engines {
		if kind != KindAuto && e.Kind() != kind {
			continue
		}
		notFound.Kinds = append(notFound.Kinds, string(e.Kind()))
		path, probed, ok := loc.Find(e)
		notFound.Probed = append(notFound.Probed, probed...)
		if ok {
			m.logger.Debug("browser detected", "kind", e.Kind(), "path", path)
			found = append(found, Located{Engine: e, Path: path})
		}
	}

	if len(found) == 0 {
		if len(notFound.Kinds) == 0 {
			return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedKind, kind)
		}
		return nil, notFound
	}
	return found, nil
}

// Acquire launches the first installed engine that starts successfully. The
// caller owns the returned Session and must Release it.
func (m *Manager) Acquire(ctx context.Context, cfg config.BrowserConfig) (Session, error) {
	found, err := m.Detect(cfg)
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, f := range found {
		kind := f.Engine.Kind()
		opts := LaunchOptions{
			Headless:        cfg.Headless,
			UserAgent:       m.agents.Pick(kind),
			WindowWidth:     cfg.WindowWidth,
			WindowHeight:    cfg.WindowHeight,
			PageLoadTimeout: cfg.PageLoadTimeout,
			UserDataDir:     cfg.UserDataDir,
		}
		if cfg.Headless {
			m.logger.Info("headless mode may trigger CAPTCHA challenges", "kind", kind)
		}

		s, err := f.Engine.Launch(ctx, f.Path, opts)
		if err != nil {
			m.logger.Warn("browser launch failed", "kind", kind, "path", f.Path, "error", err)
			errs = append(errs, &types.LaunchError{Kind: string(kind), Path: f.Path, Err: err})
			if ctx.Err() != nil {
				break
			}
			continue
		}

		m.logger.Info("browser session acquired", "kind", kind, "path", f.Path, "headless", cfg.Headless)
		return s, nil
	}
	return nil, errors.Join(errs...)
}

// Release closes s, logging any failure. A nil session is ignored.
func (m *Manager) Release(s Session) {
	if s == nil {
		return
	}
	if err := s.Close(); err != nil {
		m.logger.Warn("browser close failed", "kind", s.Kind(), "error", err)
		return
	}
	m.logger.Debug("browser session released", "kind", s.Kind())
}
