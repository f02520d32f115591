// Package application provides application-level services and dependency injection.
package application

import (
	"context"
	"fmt"

	"github.com/rentfall/rentfall/internal/adapters/history/sqlite"
	"github.com/rentfall/rentfall/internal/application/engine"
	"github.com/rentfall/rentfall/internal/application/ports"
	"github.com/rentfall/rentfall/internal/application/sim"
	"github.com/rentfall/rentfall/internal/infrastructure/config"
	"github.com/rentfall/rentfall/internal/infrastructure/logging"
	"github.com/rentfall/rentfall/internal/infrastructure/rules"
	"github.com/rentfall/rentfall/internal/infrastructure/tracing"
)

// Container holds all application dependencies and provides a central point
// for dependency injection. It manages the lifecycle of services and ensures
// proper initialization order.
type Container struct {
	config *config.Config

	logger   *logging.Logger
	tracer   *tracing.Tracer
	provider *rules.Provider
	watcher  *rules.Watcher
	archive  ports.HistoryArchive
	host     *sim.Host
}

// NewContainer creates a new dependency injection container with all services
// initialized based on the provided configuration.
func NewContainer(cfg *config.Config, verbose bool) (*Container, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	c := &Container{config: cfg}

	if err := c.initLogging(verbose); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	if err := c.initTracing(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := c.initRules(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to load rule definitions: %w", err)
	}

	if err := c.initArchive(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to open history archive: %w", err)
	}

	c.host = sim.New(sim.Options{
		Provider:        c.provider,
		Archive:         c.archive,
		Logger:          c.logger,
		Tracer:          c.tracer,
		Seed:            cfg.Simulation.Seed,
		StartDay:        cfg.Simulation.StartDay,
		HistoryCapacity: cfg.History.Capacity,
	})

	return c, nil
}

func (c *Container) initLogging(verbose bool) error {
	level := c.config.Logging.Level
	if verbose {
		level = "debug"
	}
	cfg := logging.DefaultConfig()
	cfg.Level = logging.Level(level)
	cfg.Format = logging.Format(c.config.Logging.Format)
	c.logger = logging.Init(cfg)
	return nil
}

func (c *Container) initTracing() error {
	tc := c.config.Observability.Tracing
	tracer, err := tracing.Init(context.Background(), tracing.Config{
		Enabled:      tc.Enabled,
		ExporterType: tracing.ExporterType(tc.ExporterType),
		OTLPEndpoint: tc.OTLPEndpoint,
		SampleRate:   tc.SampleRate,
		ServiceName:  tc.ServiceName,
	})
	if err != nil {
		return err
	}
	c.tracer = tracer
	return nil
}

func (c *Container) initRules() error {
	dir := config.ExpandPath(c.config.Rules.Directory)
	provider, err := rules.NewProvider(dir, c.logger)
	if err != nil {
		return err
	}
	c.provider = provider
	return nil
}

func (c *Container) initArchive() error {
	if !c.config.History.Archive {
		return nil
	}
	archive, err := sqlite.Open(config.ExpandPath(c.config.History.Path))
	if err != nil {
		return err
	}
	c.archive = archive
	return nil
}

// StartRuleWatching begins hot reload of the rules directory. Changed files
// trigger a provider reload and re-registration of every cached definition.
func (c *Container) StartRuleWatching(ctx context.Context) error {
	if !c.config.Rules.Watch {
		return nil
	}

	watcher, err := rules.NewWatcher(rules.DefaultWatcherConfig(), c.logger, func(paths []string) {
		c.logger.Info("rule files changed, reloading", "files", len(paths))
		if err := c.provider.Reload(); err != nil {
			c.logger.Error("rule reload failed", "error", err)
			return
		}
		c.refreshEngineRules()
	})
	if err != nil {
		return err
	}
	if err := watcher.Watch(c.provider.Directory()); err != nil {
		_ = watcher.Close()
		return err
	}
	c.watcher = watcher

	go func() {
		<-ctx.Done()
		_ = watcher.Close()
	}()

	return nil
}

// refreshEngineRules pushes the provider's current definitions into the
// engine. Replacing a rule resets its execution bookkeeping, which is the
// right behavior for an edited definition.
func (c *Container) refreshEngineRules() {
	eng := c.host.Engine()
	for _, category := range c.provider.Categories() {
		for _, def := range c.provider.CachedDefinitions(category) {
			if _, err := eng.ReplaceRule(def); err != nil {
				c.logger.Warn("skipping invalid rule definition on reload",
					"rule_id", def.ID, "error", err)
			}
		}
	}
}

// Host returns the simulation host.
func (c *Container) Host() *sim.Host {
	return c.host
}

// Engine returns the rule engine.
func (c *Container) Engine() *engine.Engine {
	return c.host.Engine()
}

// Provider returns the rule-definition provider.
func (c *Container) Provider() *rules.Provider {
	return c.provider
}

// Archive returns the history archive, or nil when archiving is disabled.
func (c *Container) Archive() ports.HistoryArchive {
	return c.archive
}

// Logger returns the application logger.
func (c *Container) Logger() *logging.Logger {
	return c.logger
}

// Close releases container resources in reverse initialization order.
func (c *Container) Close() error {
	var firstErr error

	if c.watcher != nil {
		if err := c.watcher.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.archive != nil {
		if err := c.archive.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.tracer != nil {
		if err := c.tracer.Shutdown(context.Background()); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
