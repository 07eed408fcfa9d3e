package config

import (
	"errors"
	"fmt"

	"github.com/hochfrequenz/advent-runner/internal/document"
	"github.com/hochfrequenz/advent-runner/internal/program"
)

// RunConfig is the build-and-test plan of one project
type RunConfig struct {
	Build []program.Program
	Clean []string
	Test  *program.Program
}

// runConfigBuilder accumulates entries across repeated top-level blocks
type runConfigBuilder struct {
	cfg RunConfig
}

// ParseRunConfig reads the build, clean and test blocks of a run document.
// Repeated blocks of the same kind append to the same list.
func ParseRunConfig(doc *document.Document) (*RunConfig, error) {
	b := &runConfigBuilder{}
	for _, n := range doc.Nodes {
		var err error
		switch n.Name {
		case "build":
			err = b.addBuild(n)
		case "clean":
			err = b.addClean(n)
		case "test":
			err = b.addTest(n)
		default:
			return nil, fmt.Errorf("unknown node '%s' at top level", n.Name)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n.Describe(), err)
		}
	}
	return &b.cfg, nil
}

func (b *runConfigBuilder) addBuild(n *document.Node) error {
	for i, c := range n.Children {
		if c.Name != "run" {
			return fmt.Errorf("unknown node '%s' inside 'build'", c.Name)
		}
		p, err := parseRun(c)
		if err != nil {
			return fmt.Errorf("'run' #%d: %w", i+1, err)
		}
		b.cfg.Build = append(b.cfg.Build, p)
	}
	return nil
}

func (b *runConfigBuilder) addClean(n *document.Node) error {
	for _, c := range n.Children {
		if c.Name != "delete" {
			return fmt.Errorf("unknown node '%s' inside 'clean'", c.Name)
		}
		switch len(c.Args) {
		case 0:
			return errors.New("found 'delete' without parameters")
		case 1:
		default:
			return errors.New("there may only be one argument to 'delete'")
		}
		path, ok := c.Args[0].AsString()
		if !ok {
			return errors.New("the parameter to 'delete' must be a string")
		}
		b.cfg.Clean = append(b.cfg.Clean, path)
	}
	return nil
}

func (b *runConfigBuilder) addTest(n *document.Node) error {
	for _, c := range n.Children {
		if c.Name != "run" {
			return fmt.Errorf("unknown node '%s' inside 'test'", c.Name)
		}
		p, err := parseRun(c)
		if err != nil {
			return fmt.Errorf("'run': %w", err)
		}
		if b.cfg.Test != nil {
			return errors.New("multiple 'run' nodes are not supported in 'test'")
		}
		b.cfg.Test = &p
	}
	return nil
}

func parseRun(n *document.Node) (program.Program, error) {
	if len(n.Args) == 0 {
		return program.Program{}, errors.New("found 'run' without parameters")
	}

	words := make([]string, 0, len(n.Args))
	for _, v := range n.Args {
		s, ok := v.AsString()
		if !ok {
			return program.Program{}, fmt.Errorf("the arguments of 'run' must be strings, got %s", v)
		}
		words = append(words, s)
	}

	return program.New(words[0]).WithArgs(words[1:]...), nil
}

// LoadRunConfig reads and parses the run document at path
func LoadRunConfig(path string) (*RunConfig, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, fmt.Errorf("reading run config at: %s: %w", path, err)
	}
	cfg, err := ParseRunConfig(doc)
	if err != nil {
		return nil, fmt.Errorf("reading run config at: %s: %w", path, err)
	}
	return cfg, nil
}
