// Package yamlutil builds yaml.Node trees for Unity's serialized value
// shapes. The writer uses it to splice resolved values back into a raw
// document without disturbing surrounding structure.
package yamlutil

import (
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/prefabtools/prefabmerge/internal/unity"
)

// ValueNode converts a decoded value back into its YAML node form. Vectors,
// colors and references render flow-style, matching Unity's own output.
func ValueNode(v unity.Value) *yaml.Node {
	switch val := v.(type) {
	case nil, unity.Null:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case unity.Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: val.String()}
	case unity.Int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: val.String()}
	case unity.Float:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(float64(val), 'g', -1, 64)}
	case unity.String:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(val)}
	case unity.Vector:
		return vectorNode(val)
	case unity.Color:
		return flowMapping(
			"r", floatNode(val.R),
			"g", floatNode(val.G),
			"b", floatNode(val.B),
			"a", floatNode(val.A),
		)
	case unity.Reference:
		return referenceNode(val)
	case unity.List:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range val {
			seq.Content = append(seq.Content, ValueNode(item))
		}
		return seq
	case unity.Record:
		m := &yaml.Node{Kind: yaml.MappingNode}
		for _, f := range val {
			m.Content = append(m.Content, keyNode(f.Name), ValueNode(f.Value))
		}
		return m
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.String()}
}

func vectorNode(v unity.Vector) *yaml.Node {
	pairs := []any{"x", floatNode(v.X), "y", floatNode(v.Y)}
	if v.Dims >= 3 {
		pairs = append(pairs, "z", floatNode(v.Z))
	}
	if v.Dims >= 4 {
		pairs = append(pairs, "w", floatNode(v.W))
	}
	return flowMapping(pairs...)
}

func referenceNode(r unity.Reference) *yaml.Node {
	pairs := []any{"fileID", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: r.FileID}}
	if r.GUID != "" {
		pairs = append(pairs, "guid", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: r.GUID})
	}
	if r.Type != 0 {
		pairs = append(pairs, "type", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(r.Type, 10)})
	}
	return flowMapping(pairs...)
}

func flowMapping(pairs ...any) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode, Style: yaml.FlowStyle}
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Content = append(m.Content, keyNode(pairs[i].(string)), pairs[i+1].(*yaml.Node))
	}
	return m
}

func keyNode(name string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}
}

func floatNode(f float64) *yaml.Node {
	if f == float64(int64(f)) {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(int64(f), 10)}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(f, 'g', -1, 64)}
}
