package browser

import (
	"os/exec"
	"runtime"

	"github.com/spf13/afero"
)

// Locator probes a filesystem for browser binaries.
type Locator struct {
	fs       afero.Fs
	goos     string
	lookPath func(string) (string, error)
	extra    []string
}

// NewLocator returns a Locator for the real host: the OS filesystem, the
// running GOOS, and PATH lookup.
func NewLocator(extraPaths ...string) *Locator {
	return &Locator{
		fs:       afero.NewOsFs(),
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
		extra:    extraPaths,
	}
}

// NewSimulatedLocator returns a Locator over fs that behaves as if running on
// goos. PATH lookup is disabled.
func NewSimulatedLocator(fs afero.Fs, goos string, extraPaths ...string) *Locator {
	return &Locator{
		fs:    fs,
		goos:  goos,
		extra: extraPaths,
	}
}

// WithExtraPaths returns a copy of l that checks paths before the engine's
// built-in candidates.
func (l *Locator) WithExtraPaths(paths []string) *Locator {
	if len(paths) == 0 {
		return l
	}
	cp := *l
	cp.extra = append(append([]string{}, l.extra...), paths...)
	return &cp
}

// Find returns the first existing binary for e. probed lists every location
// checked, in order, including PATH command names.
func (l *Locator) Find(e Engine) (path string, probed []string, ok bool) {
	candidates := append(append([]string{}, l.extra...), e.Candidates(l.goos)...)
	for _, c := range candidates {
		probed = append(probed, c)
		if l.isFile(c) {
			return c, probed, true
		}
	}

	if l.lookPath == nil {
		return "", probed, false
	}
	for _, cmd := range e.Commands() {
		probed = append(probed, "$PATH/"+cmd)
		if p, err := l.lookPath(cmd); err == nil {
			return p, probed, true
		}
	}
	return "", probed, false
}

func (l *Locator) isFile(path string) bool {
	info, err := l.fs.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
