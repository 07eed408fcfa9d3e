package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TestCase pairs an input file with its expected output
type TestCase struct {
	Name         string
	InputPath    string
	ExpectedPath string
}

// Discovery is the result of scanning a test directory
type Discovery struct {
	// Cases are sorted by name.
	Cases []TestCase
	// Warnings name unexpected files and unpaired inputs or outputs, sorted.
	Warnings []string
}

// DiscoverTestCases pairs <name><inSuffix> with <name><outSuffix> among the
// regular files directly inside dir. Symlinks are followed, subdirectories
// are ignored.
func DiscoverTestCases(dir, inSuffix, outSuffix string) (*Discovery, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading test directory %s: %w", dir, err)
	}

	inputs := make(map[string]struct{})
	outputs := make(map[string]struct{})
	var unexpected []string

	for _, e := range entries {
		info, err := os.Stat(filepath.Join(dir, e.Name()))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		name := e.Name()
		if base, ok := strings.CutSuffix(name, inSuffix); ok {
			inputs[base] = struct{}{}
		} else if base, ok := strings.CutSuffix(name, outSuffix); ok {
			outputs[base] = struct{}{}
		} else {
			unexpected = append(unexpected, name)
		}
	}

	d := &Discovery{}
	sort.Strings(unexpected)
	for _, name := range unexpected {
		d.Warnings = append(d.Warnings, fmt.Sprintf("unexpected test file: %s", name))
	}

	var orphans []string
	for name := range inputs {
		if _, ok := outputs[name]; ok {
			d.Cases = append(d.Cases, TestCase{
				Name:         name,
				InputPath:    filepath.Join(dir, name+inSuffix),
				ExpectedPath: filepath.Join(dir, name+outSuffix),
			})
			continue
		}
		orphans = append(orphans, fmt.Sprintf("found '%s%s' but not '%s%s'", name, inSuffix, name, outSuffix))
	}
	for name := range outputs {
		if _, ok := inputs[name]; !ok {
			orphans = append(orphans, fmt.Sprintf("found '%s%s' but not '%s%s'", name, outSuffix, name, inSuffix))
		}
	}
	sort.Strings(orphans)
	d.Warnings = append(d.Warnings, orphans...)

	sort.Slice(d.Cases, func(i, j int) bool { return d.Cases[i].Name < d.Cases[j].Name })
	return d, nil
}
