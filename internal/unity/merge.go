package unity

import "github.com/samber/lo"

// ConflictResolution is how a merge conflict was (or was not yet) resolved.
type ConflictResolution string

const (
	ResolutionUnresolved ConflictResolution = "unresolved"
	ResolutionOurs       ConflictResolution = "ours"
	ResolutionTheirs     ConflictResolution = "theirs"
	ResolutionManual     ConflictResolution = "manual"
)

// MergeConflict is a property changed differently on both non-base sides.
// Resolution and ResolvedValue are the caller-mutable fields; everything else
// is fixed at merge time.
// ComponentID plus PropertyPath locate the underlying property in the ours
// document when a resolution is applied; both are empty for object-existence
// conflicts.
type MergeConflict struct {
	Path          string
	PropertyPath  string
	BaseValue     Value
	OursValue     Value
	TheirsValue   Value
	ComponentID   string
	Resolution    ConflictResolution
	ResolvedValue Value
}

func (c *MergeConflict) IsResolved() bool {
	return c.Resolution != ResolutionUnresolved
}

// MergeResult is the outcome of a three-way merge: conflicts needing a human
// decision plus the changes merged without one. It is created once per merge
// session, mutated as the caller resolves conflicts, and consumed by the
// writer.
type MergeResult struct {
	Base        *Document
	Ours        *Document
	Theirs      *Document
	Conflicts   []*MergeConflict
	AutoMerged  []Change
	Annotations *Annotations
}

func (r *MergeResult) HasConflicts() bool {
	return lo.SomeBy(r.Conflicts, func(c *MergeConflict) bool { return !c.IsResolved() })
}

func (r *MergeResult) ResolvedCount() int {
	return lo.CountBy(r.Conflicts, func(c *MergeConflict) bool { return c.IsResolved() })
}

func (r *MergeResult) UnresolvedCount() int {
	return len(r.Conflicts) - r.ResolvedCount()
}
