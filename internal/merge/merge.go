// Package merge computes three-way merges over parsed Unity documents and
// applies conflict resolutions. Classification is identifier-keyed, the same
// join as the two-way diff but across base, ours and theirs: a location where
// exactly one side diverged from base merges automatically, both sides
// agreeing merges automatically, and both sides disagreeing is a conflict the
// caller must resolve. The ours document is the primary output; auto-merged
// theirs-side values are written into it as they are classified.
package merge

import (
	"sort"

	"github.com/samber/lo"

	"github.com/prefabtools/prefabmerge/internal/unity"
)

// Merge classifies every changed location across base/ours/theirs.
func Merge(base, ours, theirs *unity.Document) *unity.MergeResult {
	res := &unity.MergeResult{
		Base:        base,
		Ours:        ours,
		Theirs:      theirs,
		Annotations: unity.NewAnnotations(),
	}

	for _, fileID := range unionKeys(base.Entities, ours.Entities, theirs.Entities) {
		inBase := base.Entities[fileID] != nil
		inOurs := ours.Entities[fileID] != nil
		inTheirs := theirs.Entities[fileID] != nil

		switch {
		case inBase && inOurs && inTheirs:
			mergeEntity(res, base.Entities[fileID], ours.Entities[fileID], theirs.Entities[fileID])
		case inBase && !inOurs && !inTheirs:
			// deleted on both sides, nothing to do
		case inBase && inOurs && !inTheirs:
			// theirs deleted, ours keeps it: not flagged
			res.Annotations.Entities[fileID] = unity.StatusModified
		case inBase && !inOurs && inTheirs:
			res.Annotations.Entities[fileID] = unity.StatusModified
		case !inBase && inOurs && inTheirs:
			// Two sides independently claiming the same identifier has no
			// principled default.
			res.Conflicts = append(res.Conflicts, &unity.MergeConflict{
				Path:        ours.Entities[fileID].Path() + " (both added)",
				OursValue:   unity.String("added"),
				TheirsValue: unity.String("added"),
				Resolution:  unity.ResolutionUnresolved,
			})
		case inOurs:
			res.Annotations.Entities[fileID] = unity.StatusAdded
		case inTheirs:
			res.Annotations.Entities[fileID] = unity.StatusAdded
		}
	}

	return res
}

func mergeEntity(res *unity.MergeResult, base, ours, theirs *unity.Entity) {
	mergeEntityFields(res, base, ours, theirs)

	baseComps := lo.KeyBy(base.Components, func(c *unity.Component) string { return c.FileID })
	oursComps := lo.KeyBy(ours.Components, func(c *unity.Component) string { return c.FileID })
	theirsComps := lo.KeyBy(theirs.Components, func(c *unity.Component) string { return c.FileID })

	for _, compID := range unionKeys(baseComps, oursComps, theirsComps) {
		baseComp := baseComps[compID]
		oursComp := oursComps[compID]
		theirsComp := theirsComps[compID]
		if baseComp == nil || oursComp == nil || theirsComp == nil {
			continue
		}
		mergeComponent(res, ours, baseComp, oursComp, theirsComp)
	}
}

// mergeEntityFields runs the three-way classification over the object-level
// fields carried on the GameObject entry itself. Conflicts here address the
// entity's own fileID, with "GameObject" standing in for the component type.
func mergeEntityFields(res *unity.MergeResult, base, ours, theirs *unity.Entity) {
	for _, name := range entityFieldNames {
		baseVal := entityField(base, name)
		oursVal := entityField(ours, name)
		theirsVal := entityField(theirs, name)

		oursChanged := !unity.Equal(oursVal, baseVal)
		theirsChanged := !unity.Equal(theirsVal, baseVal)

		switch {
		case !oursChanged && !theirsChanged:

		case oursChanged && theirsChanged && !unity.Equal(oursVal, theirsVal):
			res.Conflicts = append(res.Conflicts, &unity.MergeConflict{
				Path:         ours.Path() + ".GameObject." + name,
				PropertyPath: name,
				BaseValue:    baseVal,
				OursValue:    oursVal,
				TheirsValue:  theirsVal,
				ComponentID:  ours.FileID,
				Resolution:   unity.ResolutionUnresolved,
			})
			res.Annotations.Entities[ours.FileID] = unity.StatusModified

		default:
			merged := oursVal
			if theirsChanged && !oursChanged {
				merged = theirsVal
				setEntityField(ours, name, merged)
			}
			res.Annotations.Entities[ours.FileID] = unity.StatusModified
			res.AutoMerged = append(res.AutoMerged, unity.Change{
				Path:       ours.Path() + ".GameObject." + name,
				Status:     unity.StatusModified,
				LeftValue:  baseVal,
				RightValue: merged,
				ObjectID:   ours.FileID,
			})
		}
	}
}

var entityFieldNames = []string{"m_Name", "m_TagString", "m_Layer", "m_IsActive"}

func entityField(e *unity.Entity, name string) unity.Value {
	switch name {
	case "m_Name":
		return unity.String(e.Name)
	case "m_TagString":
		return unity.String(e.Tag)
	case "m_Layer":
		return unity.Int(e.Layer)
	case "m_IsActive":
		return e.ActiveValue()
	}
	return nil
}

func setEntityField(e *unity.Entity, name string, v unity.Value) {
	switch name {
	case "m_Name":
		if s, ok := v.(unity.String); ok {
			e.Name = string(s)
		}
	case "m_TagString":
		if s, ok := v.(unity.String); ok {
			e.Tag = string(s)
		}
	case "m_Layer":
		if i, ok := v.(unity.Int); ok {
			e.Layer = int(i)
		}
	case "m_IsActive":
		if i, ok := v.(unity.Int); ok {
			e.Active = i != 0
		}
	}
}

func mergeComponent(res *unity.MergeResult, oursEntity *unity.Entity, base, ours, theirs *unity.Component) {
	baseProps := lo.KeyBy(base.Properties, func(p *unity.Property) string { return p.Path })
	oursProps := lo.KeyBy(ours.Properties, func(p *unity.Property) string { return p.Path })
	theirsProps := lo.KeyBy(theirs.Properties, func(p *unity.Property) string { return p.Path })

	for _, path := range unionKeys(baseProps, oursProps, theirsProps) {
		baseVal := propValue(baseProps[path])
		oursVal := propValue(oursProps[path])
		theirsVal := propValue(theirsProps[path])

		oursChanged := !unity.Equal(oursVal, baseVal)
		theirsChanged := !unity.Equal(theirsVal, baseVal)

		switch {
		case !oursChanged && !theirsChanged:
			// unchanged, no entry

		case oursChanged && theirsChanged && !unity.Equal(oursVal, theirsVal):
			res.Conflicts = append(res.Conflicts, &unity.MergeConflict{
				Path:         oursEntity.Path() + "." + ours.DisplayName() + "." + path,
				PropertyPath: path,
				BaseValue:    baseVal,
				OursValue:    oursVal,
				TheirsValue:  theirsVal,
				ComponentID:  ours.FileID,
				Resolution:   unity.ResolutionUnresolved,
			})
			res.Annotations.Components[ours.FileID] = unity.StatusModified
			res.Annotations.Components[theirs.FileID] = unity.StatusModified
			res.Annotations.Entities[oursEntity.FileID] = unity.StatusModified
			res.Annotations.Properties[unity.PropertyKey{ComponentID: ours.FileID, Path: path}] = unity.PropertyChange{
				Status:   unity.StatusModified,
				OldValue: baseVal,
			}

		default:
			// Exactly one side changed, or both changed identically: the
			// merged value is whichever side moved.
			merged := oursVal
			if theirsChanged && !oursChanged {
				merged = theirsVal
				if merged == nil {
					removeProperty(ours, path)
				} else {
					setProperty(ours, path, merged)
				}
			}
			res.Annotations.Components[ours.FileID] = unity.StatusModified
			res.AutoMerged = append(res.AutoMerged, unity.Change{
				Path:          oursEntity.Path() + "." + ours.DisplayName() + "." + path,
				Status:        unity.StatusModified,
				LeftValue:     baseVal,
				RightValue:    merged,
				ObjectID:      oursEntity.FileID,
				ComponentType: ours.TypeName,
			})
		}
	}
}

func propValue(p *unity.Property) unity.Value {
	if p == nil {
		return nil
	}
	return p.Value
}

// setProperty overwrites (or introduces) a property value on the ours-side
// component.
func setProperty(comp *unity.Component, path string, value unity.Value) {
	if p := comp.Property(path); p != nil {
		p.Value = value
		return
	}
	comp.Properties = append(comp.Properties, &unity.Property{
		Name:  path,
		Path:  path,
		Value: value,
	})
}

func removeProperty(comp *unity.Component, path string) {
	for i, p := range comp.Properties {
		if p.Path == path {
			comp.Properties = append(comp.Properties[:i], comp.Properties[i+1:]...)
			return
		}
	}
}

func unionKeys[V any](ms ...map[string]V) []string {
	seen := map[string]bool{}
	var keys []string
	for _, m := range ms {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
