package browser

import (
	"math/rand/v2"
	"sync"
)

// DefaultChromeAgents are realistic desktop Chrome User-Agents.
var DefaultChromeAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
}

// DefaultFirefoxAgents are realistic desktop Firefox User-Agents.
var DefaultFirefoxAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:133.0) Gecko/20100101 Firefox/133.0",
	"Mozilla/5.0 (X11; Linux x86_64; rv:133.0) Gecko/20100101 Firefox/133.0",
}

// UserAgentPool hands out a random User-Agent per launch. Configured agents
// apply to every engine; otherwise each engine draws from its own defaults.
type UserAgentPool struct {
	mu     sync.Mutex
	rng    *rand.Rand
	custom []string
	byKind map[Kind][]string
}

// NewUserAgentPool creates a pool. An empty custom list keeps the defaults.
func NewUserAgentPool(custom []string, rng *rand.Rand) *UserAgentPool {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &UserAgentPool{
		rng:    rng,
		custom: append([]string{}, custom...),
		byKind: map[Kind][]string{
			KindChrome:  DefaultChromeAgents,
			KindFirefox: DefaultFirefoxAgents,
		},
	}
}

// Pick returns a random User-Agent suited to kind.
func (p *UserAgentPool) Pick(kind Kind) string {
	list := p.custom
	if len(list) == 0 {
		list = p.byKind[kind]
	}
	if len(list) == 0 {
		list = DefaultChromeAgents
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return list[p.rng.IntN(len(list))]
}
