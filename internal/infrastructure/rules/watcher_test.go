package rules

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestNewWatcher(t *testing.T) {
	t.Run("creates watcher with default config", func(t *testing.T) {
		w, err := NewWatcher(DefaultWatcherConfig(), nil, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer w.Close()
	})

	t.Run("non-positive debounce falls back to the default", func(t *testing.T) {
		w, err := NewWatcher(WatcherConfig{}, nil, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer w.Close()

		if w.config.DebounceDuration != 200*time.Millisecond {
			t.Errorf("expected 200ms debounce, got %v", w.config.DebounceDuration)
		}
	})
}

func TestWatcherWatch_DetectsYAMLChanges(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var changed []string
	done := make(chan struct{}, 1)

	w, err := NewWatcher(WatcherConfig{DebounceDuration: 50 * time.Millisecond}, nil,
		func(paths []string) {
			mu.Lock()
			changed = append(changed, paths...)
			mu.Unlock()
			select {
			case done <- struct{}{}:
			default:
			}
		})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Close()

	if err := w.Watch(dir); err != nil {
		t.Fatalf("failed to watch directory: %v", err)
	}

	path := filepath.Join(dir, "economy.yaml")
	if err := os.WriteFile(path, []byte(sampleRuleFile), 0o600); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for change callback")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(changed) == 0 || changed[0] != path {
		t.Errorf("expected callback with %q, got %v", path, changed)
	}
}

func TestWatcherWatch_IgnoresNonYAMLFiles(t *testing.T) {
	dir := t.TempDir()

	fired := make(chan []string, 1)
	w, err := NewWatcher(WatcherConfig{DebounceDuration: 50 * time.Millisecond}, nil,
		func(paths []string) {
			select {
			case fired <- paths:
			default:
			}
		})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Close()

	if err := w.Watch(dir); err != nil {
		t.Fatalf("failed to watch directory: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("scratch"), 0o600); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	select {
	case paths := <-fired:
		t.Errorf("non-YAML file should not trigger a callback, got %v", paths)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherWatch_MissingDirectoryIsNotAnError(t *testing.T) {
	w, err := NewWatcher(DefaultWatcherConfig(), nil, nil)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Close()

	if err := w.Watch(filepath.Join(t.TempDir(), "nope")); err != nil {
		t.Errorf("missing directory should be skipped without error, got %v", err)
	}
}

func TestWatcherClose_Idempotent(t *testing.T) {
	w, err := NewWatcher(DefaultWatcherConfig(), nil, nil)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}
