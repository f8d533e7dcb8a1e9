package generation

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Providers maps provider names to Reasoners with a default.
type Providers struct {
	mu          sync.RWMutex
	reasoners   map[string]Reasoner
	defaultName string
	logger      *slog.Logger
}

// NewProviders creates an empty registry whose default is defaultName.
func NewProviders(defaultName string, logger *slog.Logger) *Providers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Providers{
		reasoners:   make(map[string]Reasoner),
		defaultName: strings.ToLower(defaultName),
		logger:      logger.With("component", "providers"),
	}
}

// Register adds or replaces the Reasoner for name.
func (p *Providers) Register(name string, r Reasoner) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reasoners[strings.ToLower(name)] = r
}

// Names returns the registered provider names, sorted.
func (p *Providers) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.reasoners))
	for name := range p.reasoners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the Reasoner registered under name. An empty or unknown name
// falls back to the default provider.
func (p *Providers) Resolve(name string) (Reasoner, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	key := strings.ToLower(strings.TrimSpace(name))
	if r, ok := p.reasoners[key]; ok {
		return r, nil
	}
	if key != "" {
		p.logger.Warn("unknown model provider, using default",
			"requested", name,
			"default", p.defaultName)
	}
	if r, ok := p.reasoners[p.defaultName]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("%w: %q (default %q not registered)", ErrUnknownProvider, name, p.defaultName)
}
