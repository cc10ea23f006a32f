package browser_test

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/IshaanNene/carousell-scraper/internal/browser"
	"github.com/IshaanNene/carousell-scraper/internal/browser/browsertest"
	"github.com/IshaanNene/carousell-scraper/internal/config"
	"github.com/IshaanNene/carousell-scraper/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// host builds an in-memory filesystem containing the given files.
func host(t *testing.T, files ...string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range files {
		if err := afero.WriteFile(fs, f, []byte("#!/bin/sh"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func newManager(fs afero.Fs, goos string) *browser.Manager {
	return browser.NewManager(testLogger,
		browser.WithEngines(browser.NewChromeEngine(testLogger), browser.NewFirefoxEngine(testLogger)),
		browser.WithLocator(browser.NewSimulatedLocator(fs, goos)),
	)
}

func TestDetectPrefersChrome(t *testing.T) {
	fs := host(t, "/usr/bin/firefox", "/usr/bin/chromium")
	found, err := newManager(fs, "linux").Detect(config.DefaultConfig().Browser)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 browsers, got %d", len(found))
	}
	if found[0].Engine.Kind() != browser.KindChrome || found[0].Path != "/usr/bin/chromium" {
		t.Errorf("expected chromium first, got %s at %s", found[0].Engine.Kind(), found[0].Path)
	}
	if found[1].Engine.Kind() != browser.KindFirefox {
		t.Errorf("expected firefox second, got %s", found[1].Engine.Kind())
	}
}

func TestDetectPerOS(t *testing.T) {
	tests := []struct {
		goos string
		file string
		kind browser.Kind
	}{
		{"windows", `C:\Program Files\Google\Chrome\Application\chrome.exe`, browser.KindChrome},
		{"windows", `C:\Program Files\Mozilla Firefox\firefox.exe`, browser.KindFirefox},
		{"darwin", "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome", browser.KindChrome},
		{"darwin", "/Applications/Firefox.app/Contents/MacOS/firefox", browser.KindFirefox},
		{"linux", "/snap/bin/chromium", browser.KindChrome},
		{"linux", "/usr/lib/firefox/firefox", browser.KindFirefox},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+string(tt.kind), func(t *testing.T) {
			found, err := newManager(host(t, tt.file), tt.goos).Detect(config.DefaultConfig().Browser)
			if err != nil {
				t.Fatalf("detect: %v", err)
			}
			if found[0].Engine.Kind() != tt.kind || found[0].Path != tt.file {
				t.Errorf("got %s at %q", found[0].Engine.Kind(), found[0].Path)
			}
		})
	}
}

func TestDetectBrowserNotFound(t *testing.T) {
	// a directory at a candidate path is not a browser
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/usr/bin/chromium", 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := newManager(fs, "linux").Detect(config.DefaultConfig().Browser)
	var bnf *types.BrowserNotFoundError
	if !errors.As(err, &bnf) {
		t.Fatalf("expected BrowserNotFoundError, got %v", err)
	}
	if len(bnf.Kinds) != 2 || bnf.Kinds[0] != "chrome" || bnf.Kinds[1] != "firefox" {
		t.Errorf("unexpected kinds %v", bnf.Kinds)
	}
	if len(bnf.Probed) == 0 {
		t.Error("expected probed paths to be reported")
	}
	msg := bnf.Error()
	if !strings.Contains(msg, "Chrome") || !strings.Contains(msg, "Firefox") {
		t.Errorf("error should name both install requirements: %q", msg)
	}
}

func TestDetectExplicitKind(t *testing.T) {
	fs := host(t, "/usr/bin/chromium")
	cfg := config.DefaultConfig().Browser
	cfg.Kind = "firefox"

	_, err := newManager(fs, "linux").Detect(cfg)
	if !types.IsBrowserNotFound(err) {
		t.Fatalf("firefox requested but only chrome installed: expected not found, got %v", err)
	}

	cfg.Kind = "opera"
	_, err = newManager(fs, "linux").Detect(cfg)
	if !errors.Is(err, types.ErrUnsupportedKind) {
		t.Fatalf("expected ErrUnsupportedKind, got %v", err)
	}
}

func TestDetectExtraPathsFirst(t *testing.T) {
	fs := host(t, "/opt/custom/chrome", "/usr/bin/chromium")
	cfg := config.DefaultConfig().Browser
	cfg.ExtraPaths = []string{"/opt/custom/chrome"}

	found, err := newManager(fs, "linux").Detect(cfg)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if found[0].Path != "/opt/custom/chrome" {
		t.Errorf("expected extra path first, got %q", found[0].Path)
	}
}

func TestAcquireFallsBackOnLaunchFailure(t *testing.T) {
	fs := host(t, "/bin/a", "/bin/b")
	sess := &browsertest.Session{}
	broken := &browsertest.Engine{EngineKind: browser.KindChrome, Paths: []string{"/bin/a"}, LaunchErr: errors.New("crashed")}
	working := &browsertest.Engine{EngineKind: browser.KindFirefox, Paths: []string{"/bin/b"}, Session: sess}

	m := browser.NewManager(testLogger,
		browser.WithEngines(broken, working),
		browser.WithLocator(browser.NewSimulatedLocator(fs, "linux")),
		browser.WithUserAgents(browser.NewUserAgentPool([]string{"UA-1"}, nil)),
	)

	cfg := config.DefaultConfig().Browser
	cfg.Headless = false
	s, err := m.Acquire(context.Background(), cfg)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if s != sess {
		t.Fatal("expected session from the working engine")
	}
	if broken.Launches != 1 || working.Launches != 1 {
		t.Errorf("launches: broken=%d working=%d", broken.Launches, working.Launches)
	}
	if working.LastOpts.UserAgent != "UA-1" || working.LastOpts.Headless {
		t.Errorf("unexpected launch options %+v", working.LastOpts)
	}
	if working.LastOpts.WindowWidth != 1920 || working.LastOpts.WindowHeight != 1080 {
		t.Errorf("unexpected window size %dx%d", working.LastOpts.WindowWidth, working.LastOpts.WindowHeight)
	}

	m.Release(s)
	m.Release(nil)
	if sess.CloseCount() != 1 {
		t.Errorf("expected one close, got %d", sess.CloseCount())
	}
}

func TestAcquireAllLaunchesFail(t *testing.T) {
	fs := host(t, "/bin/a")
	broken := &browsertest.Engine{EngineKind: browser.KindChrome, Paths: []string{"/bin/a"}, LaunchErr: errors.New("crashed")}
	m := browser.NewManager(testLogger,
		browser.WithEngines(broken),
		browser.WithLocator(browser.NewSimulatedLocator(fs, "linux")),
	)

	_, err := m.Acquire(context.Background(), config.DefaultConfig().Browser)
	var le *types.LaunchError
	if !errors.As(err, &le) {
		t.Fatalf("expected LaunchError, got %v", err)
	}
	if le.Path != "/bin/a" {
		t.Errorf("unexpected path %q", le.Path)
	}
}

func TestUserAgentPool(t *testing.T) {
	pool := browser.NewUserAgentPool(nil, rand.New(rand.NewPCG(1, 2)))
	for i := 0; i < 50; i++ {
		if ua := pool.Pick(browser.KindFirefox); !strings.Contains(ua, "Firefox") {
			t.Fatalf("firefox pick returned %q", ua)
		}
		if ua := pool.Pick(browser.KindChrome); !strings.Contains(ua, "Chrome") {
			t.Fatalf("chrome pick returned %q", ua)
		}
	}

	custom := browser.NewUserAgentPool([]string{"only"}, nil)
	if got := custom.Pick(browser.KindFirefox); got != "only" {
		t.Errorf("expected custom agent, got %q", got)
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]browser.Kind{"": browser.KindAuto, "auto": browser.KindAuto, "chrome": browser.KindChrome, "firefox": browser.KindFirefox} {
		got, err := browser.ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := browser.ParseKind("edge"); err == nil {
		t.Error("expected error for edge")
	}
}
