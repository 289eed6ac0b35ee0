package writer

import (
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/prefabtools/prefabmerge/internal/loader"
)

const defaultFloatPrecision = 6

// Normalize rewrites a Unity YAML document into a canonical form: entries
// sorted by numeric fileID, m_Modifications lists sorted by target then
// property, floats rendered at the given decimal precision. Normalizing
// already-normalized content is a no-op, so merge output stays byte-stable
// across repeated runs.
func Normalize(data []byte, precision int) ([]byte, error) {
	raw, err := loader.ParseRaw(data, "")
	if err != nil {
		return nil, err
	}

	sort.SliceStable(raw.Entries, func(i, j int) bool {
		return compareFileIDs(raw.Entries[i].FileID, raw.Entries[j].FileID) < 0
	})

	for _, entry := range raw.Entries {
		normalizeNode(entry.Data(), precision)
	}

	return raw.Render()
}

// compareFileIDs orders fileIDs numerically. Unity fileIDs can exceed int64,
// so compare sign, then digit count, then lexicographically.
func compareFileIDs(a, b string) int {
	negA := strings.HasPrefix(a, "-")
	negB := strings.HasPrefix(b, "-")
	if negA != negB {
		if negA {
			return -1
		}
		return 1
	}
	ta, tb := strings.TrimPrefix(a, "-"), strings.TrimPrefix(b, "-")
	ta, tb = strings.TrimLeft(ta, "0"), strings.TrimLeft(tb, "0")
	cmp := 0
	switch {
	case len(ta) != len(tb):
		if len(ta) < len(tb) {
			cmp = -1
		} else {
			cmp = 1
		}
	case ta < tb:
		cmp = -1
	case ta > tb:
		cmp = 1
	}
	if negA {
		return -cmp
	}
	return cmp
}

func normalizeNode(node *yaml.Node, precision int) {
	if node == nil {
		return
	}
	switch node.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, child := range node.Content {
			normalizeNode(child, precision)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			if key.Value == "m_Modifications" && val.Kind == yaml.SequenceNode {
				sortModifications(val)
			}
			normalizeNode(val, precision)
		}
	case yaml.ScalarNode:
		if node.Tag == "!!float" {
			node.Value = canonicalFloat(node.Value, precision)
		}
	}
}

// sortModifications orders a PrefabInstance modification list by
// (target fileID, propertyPath) so equivalent override sets serialize
// identically regardless of edit order.
func sortModifications(seq *yaml.Node) {
	sort.SliceStable(seq.Content, func(i, j int) bool {
		ti, pi := modificationKey(seq.Content[i])
		tj, pj := modificationKey(seq.Content[j])
		if c := compareFileIDs(ti, tj); c != 0 {
			return c < 0
		}
		return pi < pj
	})
}

func modificationKey(mod *yaml.Node) (target, property string) {
	if mod == nil || mod.Kind != yaml.MappingNode {
		return "0", ""
	}
	for i := 0; i+1 < len(mod.Content); i += 2 {
		switch mod.Content[i].Value {
		case "target":
			if t := mod.Content[i+1]; t.Kind == yaml.MappingNode {
				for j := 0; j+1 < len(t.Content); j += 2 {
					if t.Content[j].Value == "fileID" {
						target = t.Content[j+1].Value
					}
				}
			}
		case "propertyPath":
			property = mod.Content[i+1].Value
		}
	}
	if target == "" {
		target = "0"
	}
	return target, property
}

func canonicalFloat(s string, precision int) string {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	rounded := strconv.FormatFloat(f, 'f', precision, 64)
	// Re-parse and render shortest so 1.500000 becomes 1.5 and the result
	// round-trips without further change.
	rf, err := strconv.ParseFloat(rounded, 64)
	if err != nil {
		return rounded
	}
	out := strconv.FormatFloat(rf, 'f', -1, 64)
	if !strings.Contains(out, ".") {
		// Keep the float tag honest: Unity writes "1" for float fields too,
		// but a bare integer literal would re-tag as !!int on reload.
		out += ".0"
	}
	return out
}
