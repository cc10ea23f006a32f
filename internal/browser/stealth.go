package browser

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// fingerprint is the navigator surface presented to the page.
type fingerprint struct {
	Platform            string
	Language            string
	HardwareConcurrency int
	DeviceMemory        int
}

// fingerprintFor derives a fingerprint consistent with the User-Agent string.
func fingerprintFor(userAgent string) fingerprint {
	platform := "Win32"
	switch {
	case strings.Contains(userAgent, "Macintosh"):
		platform = "MacIntel"
	case strings.Contains(userAgent, "Linux"):
		platform = "Linux x86_64"
	}
	return fingerprint{
		Platform:            platform,
		Language:            "en-SG",
		HardwareConcurrency: 4 + 2*rand.IntN(5), // 4-12 cores
		DeviceMemory:        8,
	}
}

// initScript returns JavaScript injected before any page script runs. It
// hides the automation flag and aligns navigator with the User-Agent.
func (f fingerprint) initScript() string {
	return fmt.Sprintf(`
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'platform', { get: () => '%s' });
Object.defineProperty(navigator, 'language', { get: () => '%s' });
Object.defineProperty(navigator, 'languages', { get: () => ['%s', 'en'] });
Object.defineProperty(navigator, 'hardwareConcurrency', { get: () => %d });
Object.defineProperty(navigator, 'deviceMemory', { get: () => %d });
`, f.Platform, f.Language, f.Language, f.HardwareConcurrency, f.DeviceMemory)
}
