package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/IshaanNene/carousell-scraper/internal/types"
)

// FirefoxEngine drives an installed Firefox through Playwright.
type FirefoxEngine struct {
	logger *slog.Logger
}

// NewFirefoxEngine creates the Firefox engine.
func NewFirefoxEngine(logger *slog.Logger) *FirefoxEngine {
	return &FirefoxEngine{logger: logger.With("component", "firefox_engine")}
}

func (e *FirefoxEngine) Kind() Kind { return KindFirefox }

func (e *FirefoxEngine) Commands() []string { return []string{"firefox"} }

func (e *FirefoxEngine) Candidates(goos string) []string {
	switch goos {
	case "windows":
		return []string{
			`C:\Program Files\Mozilla Firefox\firefox.exe`,
			`C:\Program Files (x86)\Mozilla Firefox\firefox.exe`,
		}
	case "darwin":
		return []string{"/Applications/Firefox.app/Contents/MacOS/firefox"}
	default:
		return []string{
			"/usr/bin/firefox",
			"/usr/lib/firefox/firefox",
			"/snap/bin/firefox",
			"/usr/local/bin/firefox",
		}
	}
}

// Launch starts Firefox at path. The Playwright driver is expected to be
// installed already; browsers are never downloaded.
func (e *FirefoxEngine) Launch(ctx context.Context, path string, opts LaunchOptions) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run(&playwright.RunOptions{SkipInstallBrowsers: true})
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	b, err := pw.Firefox.Launch(playwright.BrowserTypeLaunchOptions{
		Headless:       playwright.Bool(opts.Headless),
		ExecutablePath: playwright.String(path),
		FirefoxUserPrefs: map[string]interface{}{
			"dom.webdriver.enabled":  false,
			"useAutomationExtension": false,
		},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch firefox: %w", err)
	}

	s := &firefoxSession{pw: pw, browser: b, timeout: opts.PageLoadTimeout, logger: e.logger}

	ctxOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: opts.WindowWidth, Height: opts.WindowHeight},
		Locale:   playwright.String("en-SG"),
	}
	if opts.UserAgent != "" {
		ctxOpts.UserAgent = playwright.String(opts.UserAgent)
	}
	bctx, err := b.NewContext(ctxOpts)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("new firefox context: %w", err)
	}
	script := fingerprintFor(opts.UserAgent).initScript()
	if err := bctx.AddInitScript(playwright.Script{Content: &script}); err != nil {
		e.logger.Warn("failed to install init script", "error", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("new firefox page: %w", err)
	}
	page.SetDefaultTimeout(float64(opts.PageLoadTimeout.Milliseconds()))
	s.page = page

	e.logger.Debug("firefox session ready", "bin", path, "headless", opts.Headless)
	return s, nil
}

type firefoxSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	timeout time.Duration
	logger  *slog.Logger

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func (s *firefoxSession) Kind() Kind { return KindFirefox }

func (s *firefoxSession) usable(ctx context.Context) error {
	if s.closed.Load() {
		return types.ErrSessionClosed
	}
	return ctx.Err()
}

func (s *firefoxSession) Navigate(ctx context.Context, url string) error {
	if err := s.usable(ctx); err != nil {
		return err
	}
	ms := float64(s.timeout.Milliseconds())
	if _, err := s.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(ms),
		WaitUntil: playwright.WaitUntilStateCommit,
	}); err != nil {
		return err
	}
	// Slow pages are scraped as-is.
	if err := s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateDomcontentloaded,
		Timeout: playwright.Float(ms),
	}); err != nil {
		if !errors.Is(err, playwright.ErrTimeout) {
			return err
		}
		s.logger.Warn("page load timeout, continuing", "url", url, "error", err)
	}
	return nil
}

func (s *firefoxSession) HTML(ctx context.Context) (string, error) {
	if err := s.usable(ctx); err != nil {
		return "", err
	}
	return s.page.Content()
}

func (s *firefoxSession) Scroll(ctx context.Context) error {
	if err := s.usable(ctx); err != nil {
		return err
	}
	_, err := s.page.Evaluate(`() => window.scrollTo(0, document.body.scrollHeight)`)
	return err
}

func (s *firefoxSession) Title(ctx context.Context) string {
	if s.usable(ctx) != nil {
		return ""
	}
	title, err := s.page.Title()
	if err != nil {
		return ""
	}
	return title
}

func (s *firefoxSession) Screenshot(ctx context.Context) ([]byte, error) {
	if err := s.usable(ctx); err != nil {
		return nil, err
	}
	return s.page.Screenshot()
}

func (s *firefoxSession) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		var errs []error
		if err := s.browser.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, err)
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
