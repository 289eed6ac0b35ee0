package unity

// Change is one line-item of a two-way diff.
type Change struct {
	Path          string
	Status        DiffStatus
	LeftValue     Value
	RightValue    Value
	ObjectID      string
	ComponentType string
}

// DiffSummary aggregates change counts across a comparison.
type DiffSummary struct {
	AddedObjects       int
	RemovedObjects     int
	ModifiedObjects    int
	AddedComponents    int
	RemovedComponents  int
	ModifiedProperties int
}

func (s DiffSummary) Added() int    { return s.AddedObjects + s.AddedComponents }
func (s DiffSummary) Removed() int  { return s.RemovedObjects + s.RemovedComponents }
func (s DiffSummary) Modified() int { return s.ModifiedObjects + s.ModifiedProperties }
func (s DiffSummary) Total() int    { return s.Added() + s.Removed() + s.Modified() }

// PropertyKey addresses one property by its owning component and path.
type PropertyKey struct {
	ComponentID string
	Path        string
}

// PropertyChange records a property-level annotation: its status and, when
// modified, the value it changed from.
type PropertyChange struct {
	Status   DiffStatus
	OldValue Value
}

// Annotations is the side table a comparison produces instead of mutating the
// compared documents. Statuses are keyed by stable identifier, so one table
// serves both sides: an added entity only exists on the right, a removed one
// only on the left.
type Annotations struct {
	Entities   map[string]DiffStatus
	Components map[string]DiffStatus
	Properties map[PropertyKey]PropertyChange
}

func NewAnnotations() *Annotations {
	return &Annotations{
		Entities:   map[string]DiffStatus{},
		Components: map[string]DiffStatus{},
		Properties: map[PropertyKey]PropertyChange{},
	}
}

// EntityStatus returns the recorded status for an entity, defaulting to
// unchanged.
func (a *Annotations) EntityStatus(fileID string) DiffStatus {
	if s, ok := a.Entities[fileID]; ok {
		return s
	}
	return StatusUnchanged
}

// ComponentStatus returns the recorded status for a component, defaulting to
// unchanged.
func (a *Annotations) ComponentStatus(fileID string) DiffStatus {
	if s, ok := a.Components[fileID]; ok {
		return s
	}
	return StatusUnchanged
}

// DiffResult is the outcome of comparing two documents.
type DiffResult struct {
	Left        *Document
	Right       *Document
	Changes     []Change
	Summary     DiffSummary
	Annotations *Annotations
}
