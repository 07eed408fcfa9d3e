package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/hochfrequenz/advent-runner/internal/document"
)

// DayConfig locates the project that solves one day
type DayConfig struct {
	Root string
}

// Registry maps day numbers to their projects
type Registry struct {
	Days map[uint8]DayConfig
}

// Lookup returns the project configured for day
func (r *Registry) Lookup(day uint8) (DayConfig, error) {
	dc, ok := r.Days[day]
	if !ok {
		return DayConfig{}, fmt.Errorf("day %d is not configured", day)
	}
	return dc, nil
}

// ParseRegistry reads the 'days' node of a registry document.
//
// Two entries for the same day do not fail: the later one wins.
func ParseRegistry(doc *document.Document) (*Registry, error) {
	days := doc.Get("days")
	if days == nil {
		return nil, errors.New("could not find top-level 'days' node")
	}
	if !days.HasChildren() {
		return nil, errors.New("the 'days' node must have children")
	}

	reg := &Registry{Days: make(map[uint8]DayConfig, len(days.Children))}
	for _, n := range days.Children {
		day, dc, err := parseDay(n)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n.Describe(), err)
		}
		reg.Days[day] = dc
	}
	return reg, nil
}

func parseDay(n *document.Node) (uint8, DayConfig, error) {
	rootVal, ok := n.Prop("root")
	if !ok {
		return 0, DayConfig{}, errors.New("a day must have a 'root' property")
	}
	root, ok := rootVal.AsString()
	if !ok {
		return 0, DayConfig{}, errors.New("the 'root' property must be a string")
	}

	switch len(n.Args) {
	case 0:
		return 0, DayConfig{}, errors.New("found a day without a number")
	case 1:
	default:
		return 0, DayConfig{}, fmt.Errorf("a day must have exactly one number, found %d values", len(n.Args))
	}

	num, ok := n.Args[0].AsInt()
	if !ok {
		return 0, DayConfig{}, fmt.Errorf("the number of the day must be an integer, got %s", n.Args[0])
	}
	if num < 0 || num > math.MaxUint8 {
		return 0, DayConfig{}, fmt.Errorf("day number %d is out of range 0..%d", num, math.MaxUint8)
	}

	return uint8(num), DayConfig{Root: root}, nil
}

// LoadRegistry reads and parses the registry document at path
func LoadRegistry(path string) (*Registry, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry at: %s: %w", path, err)
	}
	reg, err := ParseRegistry(doc)
	if err != nil {
		return nil, fmt.Errorf("reading registry at: %s: %w", path, err)
	}
	return reg, nil
}

func readDocument(path string) (*document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return document.Parse(data)
}
