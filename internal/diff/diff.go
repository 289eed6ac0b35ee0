// Package diff computes property-granular structural diffs between two
// parsed Unity documents. Matching is identifier-keyed throughout: entities
// and components join on their stable fileID, never on structural position,
// so the same conceptual object under a different identifier is reported as
// an add/remove pair rather than fuzzily re-matched.
//
// Change paths name components by DisplayName, so a resolved MonoBehaviour
// appears under its script name rather than the raw type name. Paths present
// on only one side of a matched component are not reported.
package diff

import (
	"sort"

	"github.com/samber/lo"

	"github.com/prefabtools/prefabmerge/internal/unity"
)

// Diff compares two documents and produces a structured, property-granular
// result. It is a pure function: statuses land in the result's annotation
// table, the compared documents are not touched.
func Diff(left, right *unity.Document) *unity.DiffResult {
	res := &unity.DiffResult{
		Left:        left,
		Right:       right,
		Annotations: unity.NewAnnotations(),
	}
	ann := res.Annotations

	for _, fileID := range sortedKeys(right.Entities) {
		if _, ok := left.Entities[fileID]; ok {
			continue
		}
		e := right.Entities[fileID]
		ann.Entities[fileID] = unity.StatusAdded
		res.Summary.AddedObjects++
		res.Changes = append(res.Changes, unity.Change{
			Path:       e.Path(),
			Status:     unity.StatusAdded,
			RightValue: unity.String(e.Name),
			ObjectID:   fileID,
		})
	}

	for _, fileID := range sortedKeys(left.Entities) {
		if _, ok := right.Entities[fileID]; ok {
			continue
		}
		e := left.Entities[fileID]
		ann.Entities[fileID] = unity.StatusRemoved
		res.Summary.RemovedObjects++
		res.Changes = append(res.Changes, unity.Change{
			Path:      e.Path(),
			Status:    unity.StatusRemoved,
			LeftValue: unity.String(e.Name),
			ObjectID:  fileID,
		})
	}

	// Component add/remove updates counts and annotations only; the default
	// report carries object-level and property-level changes.
	for fileID := range right.Components {
		if _, ok := left.Components[fileID]; !ok {
			ann.Components[fileID] = unity.StatusAdded
			res.Summary.AddedComponents++
		}
	}
	for fileID := range left.Components {
		if _, ok := right.Components[fileID]; !ok {
			ann.Components[fileID] = unity.StatusRemoved
			res.Summary.RemovedComponents++
		}
	}

	for _, fileID := range sortedKeys(left.Entities) {
		rightEntity, ok := right.Entities[fileID]
		if !ok {
			continue
		}
		if diffEntityPair(res, left.Entities[fileID], rightEntity) {
			ann.Entities[fileID] = unity.StatusModified
			res.Summary.ModifiedObjects++
		}
	}

	return res
}

// diffEntityPair compares one identifier-matched entity pair and reports
// whether any property under it changed.
func diffEntityPair(res *unity.DiffResult, left, right *unity.Entity) bool {
	changed := diffEntityFields(res, left, right)

	leftComps := lo.KeyBy(left.Components, func(c *unity.Component) string { return c.FileID })
	rightComps := lo.KeyBy(right.Components, func(c *unity.Component) string { return c.FileID })

	for _, compID := range sortedKeys(leftComps) {
		rightComp, ok := rightComps[compID]
		if !ok {
			continue
		}
		if diffComponentPair(res, right, leftComps[compID], rightComp) {
			changed = true
		}
	}
	return changed
}

// diffEntityFields compares the object-level fields (name, tag, layer,
// active) that live on the GameObject entry rather than on any component.
func diffEntityFields(res *unity.DiffResult, left, right *unity.Entity) bool {
	type field struct {
		name   string
		leftV  unity.Value
		rightV unity.Value
	}
	fields := []field{
		{"m_Name", unity.String(left.Name), unity.String(right.Name)},
		{"m_TagString", unity.String(left.Tag), unity.String(right.Tag)},
		{"m_Layer", unity.Int(left.Layer), unity.Int(right.Layer)},
		{"m_IsActive", left.ActiveValue(), right.ActiveValue()},
	}

	changed := false
	for _, f := range fields {
		if unity.Equal(f.leftV, f.rightV) {
			continue
		}
		changed = true
		res.Summary.ModifiedProperties++
		res.Changes = append(res.Changes, unity.Change{
			Path:       right.Path() + "." + f.name,
			Status:     unity.StatusModified,
			LeftValue:  f.leftV,
			RightValue: f.rightV,
			ObjectID:   right.FileID,
		})
	}
	return changed
}

func diffComponentPair(res *unity.DiffResult, rightEntity *unity.Entity, left, right *unity.Component) bool {
	rightProps := lo.KeyBy(right.Properties, func(p *unity.Property) string { return p.Path })

	changed := false
	for _, leftProp := range left.Properties {
		// Paths present on one side only are deliberately not reported;
		// consumers depend on the narrower change set.
		rightProp, ok := rightProps[leftProp.Path]
		if !ok {
			continue
		}
		if unity.Equal(leftProp.Value, rightProp.Value) {
			continue
		}

		changed = true
		res.Summary.ModifiedProperties++
		res.Annotations.Components[left.FileID] = unity.StatusModified
		res.Annotations.Properties[unity.PropertyKey{ComponentID: right.FileID, Path: rightProp.Path}] = unity.PropertyChange{
			Status:   unity.StatusModified,
			OldValue: leftProp.Value,
		}
		res.Changes = append(res.Changes, unity.Change{
			Path:          rightEntity.Path() + "." + right.DisplayName() + "." + rightProp.Path,
			Status:        unity.StatusModified,
			LeftValue:     leftProp.Value,
			RightValue:    rightProp.Value,
			ObjectID:      rightEntity.FileID,
			ComponentType: right.TypeName,
		})
	}
	return changed
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
