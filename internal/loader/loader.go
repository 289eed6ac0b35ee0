package loader

import (
	"fmt"
	"os"

	"github.com/prefabtools/prefabmerge/internal/unity"
)

// skipTypes are prefab wrapper infrastructure entries: they become neither
// entities nor components.
var skipTypes = map[string]bool{
	"Prefab":         true,
	"PrefabInstance": true,
}

// nullFileID is the canonical null reference anchor.
const nullFileID = "0"

// Load reads and parses one Unity file into a Document.
func Load(path string) (*unity.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse converts Unity YAML text into a Document: entries are indexed by
// anchor, classified into entities and components, their fields decoded into
// the value variant, and the transform hierarchy resolved.
func Parse(data []byte, path string) (*unity.Document, error) {
	raw, err := ParseRaw(data, path)
	if err != nil {
		return nil, err
	}

	doc := unity.NewDocument(path)

	for _, entry := range raw.Entries {
		className := entry.ClassName()
		switch {
		case className == "GameObject":
			doc.Entities[entry.FileID] = parseEntity(entry)
		case skipTypes[className]:
			// prefab wrapper infrastructure, not part of the object graph
		default:
			doc.Components[entry.FileID] = parseComponent(entry, className)
		}
	}

	// Pass A: attach components to their owning entity, in entry order so
	// component lists are stable across loads.
	for _, entry := range raw.Entries {
		comp, ok := doc.Components[entry.FileID]
		if !ok {
			continue
		}
		owner := referenceProperty(comp, "m_GameObject")
		if owner == "" || owner == nullFileID {
			continue
		}
		if e, ok := doc.Entities[owner]; ok {
			e.Components = append(e.Components, comp)
		}
	}

	buildHierarchy(doc)

	for _, entry := range raw.Entries {
		e, ok := doc.Entities[entry.FileID]
		if ok && e.Parent == nil {
			doc.Roots = append(doc.Roots, e)
		}
	}
	doc.SortRoots()

	return doc, nil
}

func parseEntity(entry *RawEntry) *unity.Entity {
	e := &unity.Entity{
		FileID: entry.FileID,
		Name:   "Unnamed",
		Tag:    "Untagged",
		Active: true,
	}

	props := extractProperties(entry)
	if v, ok := props["m_Name"].(unity.String); ok {
		e.Name = string(v)
	}
	if v, ok := props["m_Layer"].(unity.Int); ok {
		e.Layer = int(v)
	}
	if v, ok := props["m_TagString"].(unity.String); ok {
		e.Tag = string(v)
	}
	if v, ok := props["m_IsActive"].(unity.Int); ok {
		e.Active = v != 0
	}

	return e
}

func parseComponent(entry *RawEntry, className string) *unity.Component {
	comp := &unity.Component{
		FileID:   entry.FileID,
		TypeName: className,
	}

	data := entry.Data()
	if data == nil {
		return comp
	}
	for i := 0; i+1 < len(data.Content); i += 2 {
		name := data.Content[i].Value
		comp.Properties = append(comp.Properties, &unity.Property{
			Name:  name,
			Path:  name,
			Value: decodeValue(data.Content[i+1]),
		})
	}

	if className == "MonoBehaviour" {
		annotateScript(comp)
	}

	return comp
}

// annotateScript extracts the script reference GUID and a best-effort display
// name for scripted components.
func annotateScript(comp *unity.Component) {
	if p := comp.Property("m_Script"); p != nil {
		if ref, ok := p.Value.(unity.Reference); ok {
			comp.ScriptGUID = ref.GUID
		}
	}
	for _, name := range []string{"m_Name", "m_ClassName", "m_ScriptName"} {
		p := comp.Property(name)
		if p == nil {
			continue
		}
		if s, ok := p.Value.(unity.String); ok && s != "" {
			comp.ScriptName = string(s)
			return
		}
	}
}

func extractProperties(entry *RawEntry) map[string]unity.Value {
	props := map[string]unity.Value{}
	data := entry.Data()
	if data == nil {
		return props
	}
	for i := 0; i+1 < len(data.Content); i += 2 {
		props[data.Content[i].Value] = decodeValue(data.Content[i+1])
	}
	return props
}

// buildHierarchy is pass B: transform parent/children references resolve to
// owning entities. When child-side and parent-side links disagree the child's
// own m_Father wins, but the parent's children list is still filled in without
// duplicates.
func buildHierarchy(doc *unity.Document) {
	// Transforms are looked up by their own fileID but resolve to the owning
	// entity, so build that mapping first.
	ownerOfTransform := map[string]*unity.Entity{}
	for _, e := range doc.Entities {
		if t := e.Transform(); t != nil {
			ownerOfTransform[t.FileID] = e
		}
	}

	for _, e := range doc.Entities {
		t := e.Transform()
		if t == nil {
			// No transform: implicitly a root with no children.
			continue
		}

		if father := referenceProperty(t, "m_Father"); father != "" && father != nullFileID {
			if parent := ownerOfTransform[father]; parent != nil && parent != e {
				e.Parent = parent
				appendChild(parent, e)
			}
		}

		childrenProp := t.Property("m_Children")
		if childrenProp == nil {
			continue
		}
		children, ok := childrenProp.Value.(unity.List)
		if !ok {
			continue
		}
		for _, item := range children {
			ref, ok := item.(unity.Reference)
			if !ok || ref.IsNull() {
				continue
			}
			child := ownerOfTransform[ref.FileID]
			if child == nil || child == e {
				continue
			}
			if child.Parent == nil {
				child.Parent = e
			}
			appendChild(e, child)
		}
	}
}

func referenceProperty(comp *unity.Component, path string) string {
	p := comp.Property(path)
	if p == nil {
		return ""
	}
	ref, ok := p.Value.(unity.Reference)
	if !ok {
		return ""
	}
	return ref.FileID
}

func appendChild(parent, child *unity.Entity) {
	for _, c := range parent.Children {
		if c == child {
			return
		}
	}
	parent.Children = append(parent.Children, child)
}
