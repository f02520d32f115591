// Package application provides application-level services and dependency injection.
package application

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rentfall/rentfall/internal/infrastructure/config"
)

const containerTestRules = `category: economy
rules:
  - id: collect_rent
    name: Collect Rent
    effects:
      - type: modifyResource
        resource: gold
        amount: 10
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	rulesDir := t.TempDir()
	path := filepath.Join(rulesDir, "economy.yaml")
	if err := os.WriteFile(path, []byte(containerTestRules), 0o600); err != nil {
		t.Fatalf("writing rule file: %v", err)
	}

	cfg := config.NewDefaultConfig()
	cfg.Rules.Directory = rulesDir
	cfg.Simulation.Seed = 42
	return cfg
}

func TestNewContainer(t *testing.T) {
	container, err := NewContainer(testConfig(t), false)
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	defer container.Close()

	if container.Host() == nil {
		t.Error("Host should not be nil")
	}
	if container.Engine() == nil {
		t.Error("Engine should not be nil")
	}
	if container.Provider() == nil {
		t.Error("Provider should not be nil")
	}
	if container.Logger() == nil {
		t.Error("Logger should not be nil")
	}
	if container.Archive() != nil {
		t.Error("Archive should be nil when archiving is disabled")
	}

	// The provider's definitions must have reached the engine.
	if container.Engine().Rule("collect_rent") == nil {
		t.Error("rules from the configured directory should be registered")
	}
}

func TestNewContainer_NilConfigUsesDefaults(t *testing.T) {
	// The default rules directory may not exist; the container must still
	// come up with an empty rule set.
	container, err := NewContainer(nil, false)
	if err != nil {
		t.Fatalf("NewContainer(nil) failed: %v", err)
	}
	defer container.Close()

	if container.Engine().RuleCount() != 0 {
		t.Errorf("expected no rules, got %d", container.Engine().RuleCount())
	}
}

func TestNewContainer_WithArchive(t *testing.T) {
	cfg := testConfig(t)
	cfg.History.Archive = true
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")

	container, err := NewContainer(cfg, false)
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	defer container.Close()

	if container.Archive() == nil {
		t.Error("Archive should be set when archiving is enabled")
	}
}

func TestStartRuleWatching_DisabledIsNoop(t *testing.T) {
	container, err := NewContainer(testConfig(t), false)
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	defer container.Close()

	if err := container.StartRuleWatching(context.Background()); err != nil {
		t.Errorf("watching disabled should be a no-op, got %v", err)
	}
}

func TestRuleHotReload(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rules.Watch = true

	container, err := NewContainer(cfg, false)
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	defer container.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := container.StartRuleWatching(ctx); err != nil {
		t.Fatalf("StartRuleWatching: %v", err)
	}

	extra := `category: maintenance
rules:
  - id: repair_room
    name: Repair Room
    effects:
      - type: repairRoom
        target: random
`
	path := filepath.Join(cfg.Rules.Directory, "maintenance.yaml")
	if err := os.WriteFile(path, []byte(extra), 0o600); err != nil {
		t.Fatalf("writing rule file: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if container.Engine().Rule("repair_room") != nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Error("new rule file was not picked up by hot reload")
}
