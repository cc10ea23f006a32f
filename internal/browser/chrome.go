package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/carousell-scraper/internal/types"
)

// ChromeEngine drives Chrome or Chromium over the DevTools protocol via Rod.
type ChromeEngine struct {
	logger *slog.Logger
}

// NewChromeEngine creates the Chrome/Chromium engine.
func NewChromeEngine(logger *slog.Logger) *ChromeEngine {
	return &ChromeEngine{logger: logger.With("component", "chrome_engine")}
}

func (e *ChromeEngine) Kind() Kind { return KindChrome }

func (e *ChromeEngine) Commands() []string {
	return []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome"}
}

func (e *ChromeEngine) Candidates(goos string) []string {
	switch goos {
	case "windows":
		return []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files\Chromium\Application\chrome.exe`,
		}
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
		}
	default:
		return []string{
			"/usr/bin/chromium-browser",
			"/usr/bin/chromium",
			"/snap/bin/chromium",
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/opt/google/chrome/chrome",
			"/usr/bin/chrome",
		}
	}
}

// Launch starts the browser at path with automation indicators disabled.
func (e *ChromeEngine) Launch(ctx context.Context, path string, opts LaunchOptions) (Session, error) {
	l := launcher.New().
		Bin(path).
		Headless(opts.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("no-first-run").
		Set("disable-extensions").
		Set("disable-sync").
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", fmt.Sprintf("%d,%d", opts.WindowWidth, opts.WindowHeight))

	if opts.UserDataDir != "" {
		l = l.UserDataDir(opts.UserDataDir)
	}

	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("connect chrome: %w", err)
	}

	s := &chromeSession{
		launcher: l,
		browser:  b,
		timeout:  opts.PageLoadTimeout,
		logger:   e.logger,
	}

	page, err := stealth.Page(b)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("stealth page: %w", err)
	}
	s.page = page

	if opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
			e.logger.Warn("failed to set user agent", "error", err)
		}
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.WindowWidth,
		Height:            opts.WindowHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		e.logger.Warn("failed to set viewport", "error", err)
	}
	if _, err := page.EvalOnNewDocument(fingerprintFor(opts.UserAgent).initScript()); err != nil {
		e.logger.Warn("failed to install init script", "error", err)
	}

	e.logger.Debug("chrome session ready", "bin", path, "headless", opts.Headless)
	return s, nil
}

type chromeSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	timeout  time.Duration
	logger   *slog.Logger

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func (s *chromeSession) Kind() Kind { return KindChrome }

// active returns the page bound to ctx, or ErrSessionClosed after Close.
func (s *chromeSession) active(ctx context.Context) (*rod.Page, error) {
	if s.closed.Load() {
		return nil, types.ErrSessionClosed
	}
	return s.page.Context(ctx), nil
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	p, err := s.active(ctx)
	if err != nil {
		return err
	}
	p = p.Timeout(s.timeout)
	defer p.CancelTimeout()
	if err := p.Navigate(url); err != nil {
		return err
	}
	// Slow pages are scraped as-is.
	if err := p.WaitStable(300 * time.Millisecond); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("page stability timeout, continuing", "url", url, "error", err)
	}
	return nil
}

func (s *chromeSession) HTML(ctx context.Context) (string, error) {
	p, err := s.active(ctx)
	if err != nil {
		return "", err
	}
	return p.HTML()
}

func (s *chromeSession) Scroll(ctx context.Context) error {
	p, err := s.active(ctx)
	if err != nil {
		return err
	}
	_, err = p.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	return err
}

func (s *chromeSession) Title(ctx context.Context) string {
	p, err := s.active(ctx)
	if err != nil {
		return ""
	}
	info, err := p.Info()
	if err != nil || info == nil {
		return ""
	}
	return info.Title
}

func (s *chromeSession) Screenshot(ctx context.Context) ([]byte, error) {
	p, err := s.active(ctx)
	if err != nil {
		return nil, err
	}
	return p.Screenshot(false, nil)
}

func (s *chromeSession) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		var errs []error
		if s.page != nil {
			if err := s.page.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := s.browser.Close(); err != nil {
			errs = append(errs, err)
			s.launcher.Kill()
		}
		s.launcher.Cleanup()
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
