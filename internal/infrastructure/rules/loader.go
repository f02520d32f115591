// Package rules provides infrastructure for loading rule definitions from
// YAML files and keeping them fresh via filesystem watching.
package rules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rentfall/rentfall/internal/domain/rule"
)

// RuleFile is the YAML structure of a rule-definition file: a category name
// and the definitions filed under it.
type RuleFile struct {
	Category string            `yaml:"category"`
	Rules    []rule.Definition `yaml:"rules"`
}

// Loader errors.
var (
	ErrInvalidPath = errors.New("invalid file path")
	ErrNotYAMLFile = errors.New("file is not a YAML file")
	ErrEmptyFile   = errors.New("file is empty")
	ErrNoRules     = errors.New("file declares no rules")
)

// Loader reads rule-definition files from the filesystem.
type Loader struct{}

// NewLoader creates a new rule loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadFile loads one rule-definition file. The category defaults to
// rule.DefaultGroup when the file does not declare one.
func (l *Loader) LoadFile(path string) (*RuleFile, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	var file RuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRules, path)
	}
	if file.Category == "" {
		file.Category = rule.DefaultGroup
	}

	// Rules without an explicit group inherit the file's category.
	for i := range file.Rules {
		if file.Rules[i].Group == "" {
			file.Rules[i].Group = file.Category
		}
	}

	return &file, nil
}

// LoadDir loads every YAML file in a directory (non-recursive), keyed by
// category. Files that fail to parse are collected into the returned error
// but do not block the rest of the directory.
func (l *Loader) LoadDir(dir string) (map[string][]rule.Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	byCategory := make(map[string][]rule.Definition)
	var loadErrs []error

	// Deterministic order so id collisions resolve the same way every run.
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		file, err := l.LoadFile(filepath.Join(dir, name))
		if err != nil {
			loadErrs = append(loadErrs, err)
			continue
		}
		byCategory[file.Category] = append(byCategory[file.Category], file.Rules...)
	}

	return byCategory, errors.Join(loadErrs...)
}

// validatePath rejects empty and non-YAML paths.
func validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrInvalidPath
	}
	if !isYAMLFile(path) {
		return fmt.Errorf("%w: %s", ErrNotYAMLFile, path)
	}
	return nil
}

func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
