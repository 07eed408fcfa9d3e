package console

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Op tells whether a diff line is shared, only expected or only actual
type Op int

const (
	OpEqual Op = iota
	OpDelete
	OpInsert
)

// DiffLine is one line of a line-level diff
type DiffLine struct {
	Op   Op
	Text string
}

// LineDiff compares expected and actual line by line. Deleted lines are
// expected but missing, inserted lines were produced but not expected.
func LineDiff(expected, actual string) []DiffLine {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(expected, actual)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out []DiffLine
	for _, d := range diffs {
		op := OpEqual
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		case diffmatchpatch.DiffInsert:
			op = OpInsert
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out = append(out, DiffLine{Op: op, Text: strings.TrimSuffix(line, "\n")})
		}
	}
	return out
}
