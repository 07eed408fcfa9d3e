// Package program describes executable invocations: a command name plus
// an ordered list of arguments.
package program

import (
	"context"
	"os/exec"
	"slices"
	"strconv"
	"strings"
)

// Program is an immutable command invocation
type Program struct {
	command string
	args    []string
}

// New creates a Program without arguments
func New(command string) Program {
	return Program{command: command}
}

// WithArgs returns a copy of p with args appended
func (p Program) WithArgs(args ...string) Program {
	next := make([]string, 0, len(p.args)+len(args))
	next = append(next, p.args...)
	next = append(next, args...)
	return Program{command: p.command, args: next}
}

// Command returns the executable name or path
func (p Program) Command() string {
	return p.command
}

// Args returns a copy of the argument list
func (p Program) Args() []string {
	return slices.Clone(p.args)
}

// Equal reports whether both programs run the same command line
func (p Program) Equal(other Program) bool {
	return p.command == other.command && slices.Equal(p.args, other.args)
}

// Cmd builds the command for p with dir as its working directory.
// A relative command containing a path separator resolves against dir.
func (p Program) Cmd(ctx context.Context, dir string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, p.command, p.args...)
	cmd.Dir = dir
	return cmd
}

// String renders the command line, quoting words that contain whitespace
func (p Program) String() string {
	words := make([]string, 0, len(p.args)+1)
	for _, w := range append([]string{p.command}, p.args...) {
		if w == "" || strings.ContainsAny(w, " \t\n\"'") {
			w = strconv.Quote(w)
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}
