package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DuplicateScenarioError is returned when two files in a suite declare the
// same scenario name. Names are run IDs and golden file names, so they must
// be unique.
type DuplicateScenarioError struct {
	Name  string
	First string
	Again string
}

// Error implements the error interface.
func (e *DuplicateScenarioError) Error() string {
	return fmt.Sprintf("scenario name %q declared by both %s and %s", e.Name, e.First, e.Again)
}

// FindScenarios returns the .yaml and .yml files directly under dir,
// sorted by file name.
func FindScenarios(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	paths := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadSuite loads every scenario in dir.
func LoadSuite(dir string) ([]*Scenario, error) {
	paths, err := FindScenarios(dir)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]string, len(paths))
	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		sc, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		if first, dup := seen[sc.Name]; dup {
			return nil, &DuplicateScenarioError{Name: sc.Name, First: first, Again: p}
		}
		seen[sc.Name] = p
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

// RunSuite runs scenarios in order and returns one result per scenario.
// It stops at the first scenario that cannot run at all.
func RunSuite(ctx context.Context, scenarios []*Scenario, opts ...Option) ([]*Result, error) {
	results := make([]*Result, 0, len(scenarios))
	for _, sc := range scenarios {
		r, err := Run(ctx, sc, opts...)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}
