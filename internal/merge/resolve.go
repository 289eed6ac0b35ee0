package merge

import (
	"fmt"

	"github.com/prefabtools/prefabmerge/internal/unity"
)

// Choice selects how a single conflict is resolved.
type Choice struct {
	kind   unity.ConflictResolution
	base   bool
	manual unity.Value
}

func UseOurs() Choice   { return Choice{kind: unity.ResolutionOurs} }
func UseTheirs() Choice { return Choice{kind: unity.ResolutionTheirs} }

// UseBase keeps the common-ancestor value; it is recorded as a manual
// resolution since neither side chose it.
func UseBase() Choice { return Choice{kind: unity.ResolutionManual, base: true} }

func UseManual(v unity.Value) Choice {
	return Choice{kind: unity.ResolutionManual, manual: v}
}

// ApplyResolution records the choice on the conflict and overwrites the target
// property inside the ours document, located by component identifier plus
// property path. Unrelated properties are not touched. Applying the same
// resolution twice yields the same document state.
func ApplyResolution(res *unity.MergeResult, conflict *unity.MergeConflict, choice Choice) error {
	var value unity.Value
	switch {
	case choice.kind == unity.ResolutionOurs:
		value = conflict.OursValue
	case choice.kind == unity.ResolutionTheirs:
		value = conflict.TheirsValue
	case choice.base:
		value = conflict.BaseValue
	default:
		value = choice.manual
	}

	conflict.Resolution = choice.kind
	conflict.ResolvedValue = value

	// Object-existence conflicts carry no property target; the recorded
	// resolution alone is what the writer consumes.
	if conflict.ComponentID == "" || conflict.PropertyPath == "" {
		return nil
	}

	comp := res.Ours.Component(conflict.ComponentID)
	if comp == nil {
		// Object-level field conflicts address the entity itself.
		if e := res.Ours.Entity(conflict.ComponentID); e != nil {
			setEntityField(e, conflict.PropertyPath, value)
			return nil
		}
		return fmt.Errorf("resolve %s: component %s not in ours document", conflict.Path, conflict.ComponentID)
	}
	if value == nil {
		removeProperty(comp, conflict.PropertyPath)
	} else {
		setProperty(comp, conflict.PropertyPath, value)
	}
	return nil
}

// AcceptAllOurs resolves every conflict to the ours value. All conflicts are
// overwritten unconditionally, including ones already resolved.
func AcceptAllOurs(res *unity.MergeResult) {
	for _, c := range res.Conflicts {
		c.Resolution = unity.ResolutionOurs
		c.ResolvedValue = c.OursValue
	}
}

// AcceptAllTheirs resolves every conflict to the theirs value, overwriting
// prior resolutions.
func AcceptAllTheirs(res *unity.MergeResult) {
	for _, c := range res.Conflicts {
		c.Resolution = unity.ResolutionTheirs
		c.ResolvedValue = c.TheirsValue
	}
}
