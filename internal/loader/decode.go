package loader

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/prefabtools/prefabmerge/internal/unity"
)

// decodeValue classifies one YAML node into the closed value variant. The
// classification happens exactly once, here, so diff, merge and rendering all
// see the same shape for a given field.
func decodeValue(n *yaml.Node) unity.Value {
	if n == nil {
		return unity.Null{}
	}

	switch n.Kind {
	case yaml.ScalarNode:
		return decodeScalar(n)
	case yaml.SequenceNode:
		list := make(unity.List, 0, len(n.Content))
		for _, item := range n.Content {
			list = append(list, decodeValue(item))
		}
		return list
	case yaml.MappingNode:
		return decodeMapping(n)
	case yaml.AliasNode:
		return decodeValue(n.Alias)
	}

	// Last resort: stringify whatever shape this is.
	raw, err := yaml.Marshal(n)
	if err != nil {
		return unity.Null{}
	}
	return unity.String(strings.TrimSpace(string(raw)))
}

func decodeScalar(n *yaml.Node) unity.Value {
	switch n.Tag {
	case "!!null":
		return unity.Null{}
	case "!!bool":
		return unity.Bool(n.Value == "true" || n.Value == "True")
	case "!!int":
		if i, err := strconv.ParseInt(n.Value, 10, 64); err == nil {
			return unity.Int(i)
		}
		return unity.String(n.Value)
	case "!!float":
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return unity.Float(f)
		}
		return unity.String(n.Value)
	}
	return unity.String(n.Value)
}

func decodeMapping(n *yaml.Node) unity.Value {
	keys := make([]string, 0, len(n.Content)/2)
	byKey := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		keys = append(keys, key)
		byKey[key] = n.Content[i+1]
	}

	if ref, ok := decodeReference(keys, byKey); ok {
		return ref
	}
	if vec, ok := decodeVector(keys, byKey); ok {
		return vec
	}
	if col, ok := decodeColor(keys, byKey); ok {
		return col
	}

	rec := make(unity.Record, 0, len(keys))
	for _, key := range keys {
		rec = append(rec, unity.Field{Name: key, Value: decodeValue(byKey[key])})
	}
	return rec
}

// decodeReference recognizes {fileID[, guid][, type]} mappings. References
// stay structured: they are the graph edges diff and merge reason about.
func decodeReference(keys []string, byKey map[string]*yaml.Node) (unity.Reference, bool) {
	if _, ok := byKey["fileID"]; !ok {
		return unity.Reference{}, false
	}
	for _, key := range keys {
		if key != "fileID" && key != "guid" && key != "type" {
			return unity.Reference{}, false
		}
	}

	ref := unity.Reference{FileID: byKey["fileID"].Value}
	if g, ok := byKey["guid"]; ok {
		ref.GUID = g.Value
	}
	if t, ok := byKey["type"]; ok {
		ref.Type, _ = strconv.ParseInt(t.Value, 10, 64)
	}
	return ref, true
}

func decodeVector(keys []string, byKey map[string]*yaml.Node) (unity.Vector, bool) {
	var want []string
	switch len(keys) {
	case 2:
		want = []string{"x", "y"}
	case 3:
		want = []string{"x", "y", "z"}
	case 4:
		want = []string{"x", "y", "z", "w"}
	default:
		return unity.Vector{}, false
	}

	vals := map[string]float64{}
	for _, key := range want {
		n, ok := byKey[key]
		if !ok {
			return unity.Vector{}, false
		}
		f, ok := scalarFloat(n)
		if !ok {
			return unity.Vector{}, false
		}
		vals[key] = f
	}

	return unity.Vector{
		X:    vals["x"],
		Y:    vals["y"],
		Z:    vals["z"],
		W:    vals["w"],
		Dims: len(want),
	}, true
}

func decodeColor(keys []string, byKey map[string]*yaml.Node) (unity.Color, bool) {
	if len(keys) != 4 {
		return unity.Color{}, false
	}
	vals := map[string]float64{}
	for _, key := range []string{"r", "g", "b", "a"} {
		n, ok := byKey[key]
		if !ok {
			return unity.Color{}, false
		}
		f, ok := scalarFloat(n)
		if !ok {
			return unity.Color{}, false
		}
		vals[key] = f
	}
	return unity.Color{R: vals["r"], G: vals["g"], B: vals["b"], A: vals["a"]}, true
}

func scalarFloat(n *yaml.Node) (float64, bool) {
	if n.Kind != yaml.ScalarNode {
		return 0, false
	}
	if n.Tag != "!!int" && n.Tag != "!!float" {
		return 0, false
	}
	f, err := strconv.ParseFloat(n.Value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
