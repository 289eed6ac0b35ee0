package unity

import (
	"sort"
	"strings"
)

// DiffStatus classifies an item's state after a comparison pass.
type DiffStatus string

const (
	StatusUnchanged DiffStatus = "unchanged"
	StatusAdded     DiffStatus = "added"
	StatusRemoved   DiffStatus = "removed"
	StatusModified  DiffStatus = "modified"
)

// Property is one named, pathed value inside a component. Paths are dotted
// (e.g. "m_LocalPosition" or "m_LocalPosition.x") and unique within a
// component.
type Property struct {
	Name  string
	Path  string
	Value Value
}

// Component is a typed data-bag attached to exactly one Entity. Scripted
// components (MonoBehaviour) additionally carry the script's asset GUID and,
// when the entry exposes one, a resolved display name.
type Component struct {
	FileID     string
	TypeName   string
	Properties []*Property
	ScriptName string
	ScriptGUID string
}

// Property returns the property with the given path, or nil.
func (c *Component) Property(path string) *Property {
	for _, p := range c.Properties {
		if p.Path == path {
			return p
		}
	}
	return nil
}

// DisplayName is the script name for scripted components, the type name
// otherwise.
func (c *Component) DisplayName() string {
	if c.ScriptName != "" {
		return c.ScriptName
	}
	return c.TypeName
}

// Entity is a named node in the scene graph. Parent/child links derive from
// the transform hierarchy; every non-root entity has exactly one parent.
type Entity struct {
	FileID     string
	Name       string
	Layer      int
	Tag        string
	Active     bool
	Components []*Component
	Parent     *Entity
	Children   []*Entity
}

// ActiveValue returns m_IsActive in the 0/1 integer form Unity serializes.
func (e *Entity) ActiveValue() Value {
	if e.Active {
		return Int(1)
	}
	return Int(0)
}

// Component returns the first component of the given type, or nil.
func (e *Entity) Component(typeName string) *Component {
	for _, c := range e.Components {
		if c.TypeName == typeName {
			return c
		}
	}
	return nil
}

// Transform returns the transform-equivalent component (Transform or
// RectTransform), or nil for entities that have none.
func (e *Entity) Transform() *Component {
	if t := e.Component("Transform"); t != nil {
		return t
	}
	return e.Component("RectTransform")
}

// maxHierarchyDepth bounds ancestor walks so corrupt input with a parent
// cycle cannot hang path computation.
const maxHierarchyDepth = 10000

// Path returns the slash-joined ancestor path, e.g. "Player/Body/Arm".
func (e *Entity) Path() string {
	parts := []string{e.Name}
	seen := map[*Entity]bool{e: true}
	for p := e.Parent; p != nil && !seen[p] && len(parts) < maxHierarchyDepth; p = p.Parent {
		seen[p] = true
		parts = append(parts, p.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// Descendants calls fn for every entity below this one, depth-first.
func (e *Entity) Descendants(fn func(*Entity)) {
	for _, c := range e.Children {
		fn(c)
		c.Descendants(fn)
	}
}

// Document is one parsed Unity file: a forest of entities plus global
// identifier maps for reference resolution.
type Document struct {
	FilePath    string
	Roots       []*Entity
	Entities    map[string]*Entity
	Components  map[string]*Component
	ProjectRoot string
}

func NewDocument(path string) *Document {
	return &Document{
		FilePath:   path,
		Entities:   map[string]*Entity{},
		Components: map[string]*Component{},
	}
}

// Entity returns the entity with the given fileID, or nil.
func (d *Document) Entity(fileID string) *Entity { return d.Entities[fileID] }

// Component returns the component with the given fileID, or nil.
func (d *Document) Component(fileID string) *Component { return d.Components[fileID] }

// EachEntity calls fn for every entity, roots first, depth-first.
func (d *Document) EachEntity(fn func(*Entity)) {
	for _, r := range d.Roots {
		fn(r)
		r.Descendants(fn)
	}
}

// SortRoots orders roots and every children list by name so diff output is
// reproducible across loads.
func (d *Document) SortRoots() {
	sort.Slice(d.Roots, func(i, j int) bool { return d.Roots[i].Name < d.Roots[j].Name })
	for _, e := range d.Entities {
		children := e.Children
		sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
	}
}
