package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure modes.
var (
	ErrEmptyQuery       = errors.New("search query is empty")
	ErrInvalidMax       = errors.New("max results must be positive")
	ErrSessionClosed    = errors.New("browser session is closed")
	ErrUnsupportedKind  = errors.New("unsupported browser kind")
	ErrExtractionFailed = errors.New("listing extraction failed")
)

// BrowserNotFoundError is returned when no supported browser binary can be
// located on the host.
type BrowserNotFoundError struct {
	// Kinds are the browser families that were searched for, in order.
	Kinds []string

	// Probed lists every path checked.
	Probed []string
}

func (e *BrowserNotFoundError) Error() string {
	var b strings.Builder
	b.WriteString("no supported browser found (tried ")
	b.WriteString(strings.Join(e.Kinds, ", "))
	b.WriteString("). Install Google Chrome or Chromium, or Mozilla Firefox")
	if len(e.Probed) > 0 {
		fmt.Fprintf(&b, "; probed %d locations", len(e.Probed))
	}
	return b.String()
}

// LaunchError wraps a failure to start a located browser.
type LaunchError struct {
	Kind string
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s (%s): %v", e.Kind, e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// NavigationError wraps errors that occur while loading a page.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation error for %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// ParseError wraps errors that occur while reading a rendered page.
type ParseError struct {
	URL      string
	Selector string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Selector != "" {
		return fmt.Sprintf("parse error for %s (selector=%q): %v", e.URL, e.Selector, e.Err)
	}
	return fmt.Sprintf("parse error for %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur during storage/export.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsBrowserNotFound reports whether err is, or wraps, a BrowserNotFoundError.
func IsBrowserNotFound(err error) bool {
	var bnf *BrowserNotFoundError
	return errors.As(err, &bnf)
}
