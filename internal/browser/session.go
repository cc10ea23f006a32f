// Package browser locates an installed browser, launches it with
// anti-detection settings, and hands out a Session that owns the process.
package browser

import (
	"context"
	"fmt"
	"time"
)

// Kind identifies a browser engine family.
type Kind string

const (
	KindAuto    Kind = "auto"
	KindChrome  Kind = "chrome"
	KindFirefox Kind = "firefox"
)

// ParseKind converts a config string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindAuto:
		return KindAuto, nil
	case KindChrome, KindFirefox:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown browser kind %q", s)
	}
}

// LaunchOptions are the per-launch settings handed to an Engine.
type LaunchOptions struct {
	Headless        bool
	UserAgent       string
	WindowWidth     int
	WindowHeight    int
	PageLoadTimeout time.Duration
	UserDataDir     string
}

// Session is a running browser with a single page. A Session is owned by
// exactly one search and must be closed on every exit path.
type Session interface {
	// Kind returns the engine family that launched this session.
	Kind() Kind

	// Navigate loads url. A page that is slow to settle is not an error;
	// failing to reach the page at all is.
	Navigate(ctx context.Context, url string) error

	// HTML returns the current rendered document.
	HTML(ctx context.Context) (string, error)

	// Scroll moves the viewport to the bottom of the document.
	Scroll(ctx context.Context) error

	// Title returns the page title, or "" if it cannot be read.
	Title(ctx context.Context) string

	// Screenshot captures the visible page as PNG.
	Screenshot(ctx context.Context) ([]byte, error)

	// Close terminates the browser process. It is safe to call more than once.
	Close() error
}

// Engine is one supported browser family.
type Engine interface {
	// Kind returns the family identifier.
	Kind() Kind

	// Candidates returns the fixed install locations for goos, most likely first.
	Candidates(goos string) []string

	// Commands returns executable names to look up on PATH.
	Commands() []string

	// Launch starts the browser binary at path.
	Launch(ctx context.Context, path string, opts LaunchOptions) (Session, error)
}
