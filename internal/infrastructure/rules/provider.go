package rules

import (
	"errors"
	"io/fs"
	"sort"
	"sync"

	"github.com/rentfall/rentfall/internal/domain/rule"
	"github.com/rentfall/rentfall/internal/infrastructure/logging"
)

// Provider caches rule definitions loaded from a directory and serves them
// by category. It implements ports.ConfigProvider and is safe for concurrent
// use so the watcher can refresh it while the engine reads.
type Provider struct {
	mu     sync.RWMutex
	dir    string
	loader *Loader
	cache  map[string][]rule.Definition
	log    *logging.Logger
}

// NewProvider creates a provider over a rules directory and performs the
// initial load. Parse failures in individual files are logged and skipped.
func NewProvider(dir string, log *logging.Logger) (*Provider, error) {
	if log == nil {
		log = logging.Default()
	}
	p := &Provider{
		dir:    dir,
		loader: NewLoader(),
		cache:  make(map[string][]rule.Definition),
		log:    log,
	}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload re-reads the rules directory and swaps the cache. A missing
// directory yields an empty cache; files that fail to parse are logged and
// the rest of the directory still loads.
func (p *Provider) Reload() error {
	byCategory, err := p.loader.LoadDir(p.dir)
	if err != nil && byCategory == nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		p.log.Warn("rules directory does not exist, starting empty", "dir", p.dir)
		byCategory = make(map[string][]rule.Definition)
		err = nil
	}
	if err != nil {
		p.log.Warn("some rule files failed to load", "dir", p.dir, "error", err)
	}

	total := 0
	for _, defs := range byCategory {
		total += len(defs)
	}

	p.mu.Lock()
	p.cache = byCategory
	p.mu.Unlock()

	p.log.Info("rule definitions loaded",
		"dir", p.dir,
		"categories", len(byCategory),
		"rules", total,
	)
	return nil
}

// CachedDefinitions returns the definitions for a category. The returned
// slice is a copy; callers may mutate it freely.
func (p *Provider) CachedDefinitions(category string) []rule.Definition {
	p.mu.RLock()
	defer p.mu.RUnlock()

	defs, ok := p.cache[category]
	if !ok {
		return nil
	}
	out := make([]rule.Definition, len(defs))
	copy(out, defs)
	return out
}

// Categories returns the sorted category names currently cached.
func (p *Provider) Categories() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.cache))
	for name := range p.cache {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Directory returns the directory the provider loads from.
func (p *Provider) Directory() string {
	return p.dir
}
