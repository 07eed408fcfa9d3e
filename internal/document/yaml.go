package document

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Parse decodes a YAML document into a node tree.
//
// The top level is either a mapping, where every key/value pair is a node, or
// a sequence of node mappings. In a node mapping the first key names the node
// and its value is the body; all further keys are properties. A scalar body is
// one positional value, a sequence body contributes scalars as positional
// values and mappings as children, and a mapping body is a child block with
// one child per key. Repeated keys are kept in document order.
func Parse(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	doc := &Document{}
	if len(root.Content) == 0 {
		return doc, nil
	}

	top := resolve(root.Content[0])
	switch top.Kind {
	case yaml.MappingNode:
		nodes, err := pairsToNodes(top)
		if err != nil {
			return nil, err
		}
		doc.Nodes = nodes
	case yaml.SequenceNode:
		for _, item := range top.Content {
			item = resolve(item)
			if item.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("line %d: top-level sequence items must be nodes", item.Line)
			}
			n, err := nodeFromMapping(item)
			if err != nil {
				return nil, err
			}
			doc.Nodes = append(doc.Nodes, n)
		}
	case yaml.ScalarNode:
		if top.ShortTag() != "!!null" {
			return nil, fmt.Errorf("line %d: expected a mapping or a sequence of nodes at top level", top.Line)
		}
	}

	return doc, nil
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// pairsToNodes turns each key/value pair of a mapping into a node
func pairsToNodes(m *yaml.Node) ([]*Node, error) {
	nodes := make([]*Node, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		name, err := keyName(m.Content[i])
		if err != nil {
			return nil, err
		}
		n := &Node{Name: name, Line: m.Content[i].Line}
		if err := fillBody(n, m.Content[i+1]); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func nodeFromMapping(m *yaml.Node) (*Node, error) {
	if len(m.Content) < 2 {
		return nil, fmt.Errorf("line %d: a node needs at least a name", m.Line)
	}

	name, err := keyName(m.Content[0])
	if err != nil {
		return nil, err
	}
	n := &Node{Name: name, Line: m.Content[0].Line}
	if err := fillBody(n, m.Content[1]); err != nil {
		return nil, err
	}

	for i := 2; i+1 < len(m.Content); i += 2 {
		key, err := keyName(m.Content[i])
		if err != nil {
			return nil, err
		}
		raw := resolve(m.Content[i+1])
		if raw.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: property %q of '%s' must be a scalar", raw.Line, key, name)
		}
		v, err := scalarValue(raw)
		if err != nil {
			return nil, err
		}
		if n.Props == nil {
			n.Props = make(map[string]Value)
		}
		n.Props[key] = v
	}

	return n, nil
}

func fillBody(n *Node, body *yaml.Node) error {
	body = resolve(body)
	switch body.Kind {
	case yaml.ScalarNode:
		v, err := scalarValue(body)
		if err != nil {
			return err
		}
		if v.Kind() != KindNull {
			n.Args = append(n.Args, v)
		}
	case yaml.SequenceNode:
		if len(body.Content) == 0 {
			n.Children = []*Node{}
		}
		for _, item := range body.Content {
			item = resolve(item)
			switch item.Kind {
			case yaml.ScalarNode:
				v, err := scalarValue(item)
				if err != nil {
					return err
				}
				n.Args = append(n.Args, v)
			case yaml.MappingNode:
				child, err := nodeFromMapping(item)
				if err != nil {
					return err
				}
				n.Children = append(n.Children, child)
			default:
				return fmt.Errorf("line %d: nested sequences are not supported in '%s'", item.Line, n.Name)
			}
		}
	case yaml.MappingNode:
		children, err := pairsToNodes(body)
		if err != nil {
			return err
		}
		n.Children = children
	}
	return nil
}

func keyName(k *yaml.Node) (string, error) {
	k = resolve(k)
	if k.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("line %d: node names must be scalars", k.Line)
	}
	return k.Value, nil
}

// Plain digit runs are always decimal. YAML would read "010" as octal and
// "08" as a float.
func scalarValue(s *yaml.Node) (Value, error) {
	if s.Style == 0 && isDigits(s.Value) {
		if i, err := strconv.ParseInt(s.Value, 10, 64); err == nil {
			return IntValue(i), nil
		}
	}

	switch s.ShortTag() {
	case "!!null":
		return NullValue(), nil
	case "!!int":
		var i int64
		if err := s.Decode(&i); err != nil {
			return Value{}, fmt.Errorf("line %d: %w", s.Line, err)
		}
		return IntValue(i), nil
	case "!!float":
		var f float64
		if err := s.Decode(&f); err != nil {
			return Value{}, fmt.Errorf("line %d: %w", s.Line, err)
		}
		return FloatValue(f), nil
	case "!!bool":
		var b bool
		if err := s.Decode(&b); err != nil {
			return Value{}, fmt.Errorf("line %d: %w", s.Line, err)
		}
		return BoolValue(b), nil
	default:
		return StringValue(s.Value), nil
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
