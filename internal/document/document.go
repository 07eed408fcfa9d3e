// Package document models configuration documents as a tree of named nodes.
//
// Every node has a name, an ordered list of positional values, a set of named
// properties and an optional block of child nodes. The config package only
// ever consumes this tree; the textual syntax lives in the decoders.
package document

import (
	"fmt"
	"strconv"
)

// Kind identifies the type of a scalar Value
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "boolean"
	default:
		return "null"
	}
}

// Value is a scalar positional value or property value
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	bit  bool
}

// StringValue creates a string Value
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// IntValue creates an integer Value
func IntValue(i int64) Value { return Value{kind: KindInt, num: i} }

// FloatValue creates a float Value
func FloatValue(f float64) Value { return Value{kind: KindFloat, flt: f} }

// BoolValue creates a boolean Value
func BoolValue(b bool) Value { return Value{kind: KindBool, bit: b} }

// NullValue creates a null Value
func NullValue() Value { return Value{} }

// Kind returns the type of the value
func (v Value) Kind() Kind { return v.kind }

// AsString returns the string if v is a string
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsInt returns the integer if v is an integer
func (v Value) AsInt() (int64, bool) {
	return v.num, v.kind == KindInt
}

// String renders the value for diagnostics
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.str)
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		return strconv.FormatFloat(v.flt, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.bit)
	default:
		return "null"
	}
}

// Node is one named element of a document
type Node struct {
	Name  string
	Args  []Value
	Props map[string]Value
	// Children is nil when the node has no child block at all and
	// non-nil (possibly empty) when it has one.
	Children []*Node
	// Line is the 1-based source line, 0 when unknown.
	Line int
}

// Prop returns the named property
func (n *Node) Prop(name string) (Value, bool) {
	v, ok := n.Props[name]
	return v, ok
}

// HasChildren reports whether the node carries a child block
func (n *Node) HasChildren() bool {
	return n.Children != nil
}

// Describe names the node for error messages
func (n *Node) Describe() string {
	if n.Line > 0 {
		return fmt.Sprintf("'%s' node (line %d)", n.Name, n.Line)
	}
	return fmt.Sprintf("'%s' node", n.Name)
}

// Document is an ordered list of top-level nodes
type Document struct {
	Nodes []*Node
}

// Get returns the first top-level node with the given name
func (d *Document) Get(name string) *Node {
	for _, n := range d.Nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}
