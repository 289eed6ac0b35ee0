package unity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityPath(t *testing.T) {
	root := &Entity{FileID: "1", Name: "Player"}
	body := &Entity{FileID: "2", Name: "Body", Parent: root}
	arm := &Entity{FileID: "3", Name: "Arm", Parent: body}

	assert.Equal(t, "Player", root.Path())
	assert.Equal(t, "Player/Body", body.Path())
	assert.Equal(t, "Player/Body/Arm", arm.Path())
}

func TestEntityPathCycleTerminates(t *testing.T) {
	a := &Entity{FileID: "1", Name: "A"}
	b := &Entity{FileID: "2", Name: "B", Parent: a}
	a.Parent = b

	// Corrupt input can produce a parent cycle; Path must still return.
	assert.Equal(t, "B/A", a.Path())
}

func TestComponentLookup(t *testing.T) {
	tr := &Component{FileID: "10", TypeName: "Transform"}
	mb := &Component{FileID: "11", TypeName: "MonoBehaviour", ScriptName: "Health"}
	e := &Entity{FileID: "1", Name: "X", Components: []*Component{tr, mb}}

	assert.Same(t, tr, e.Component("Transform"))
	assert.Same(t, tr, e.Transform())
	assert.Nil(t, e.Component("Camera"))
	assert.Equal(t, "Health", mb.DisplayName())
	assert.Equal(t, "Transform", tr.DisplayName())
}

func TestRectTransformCountsAsTransform(t *testing.T) {
	rt := &Component{FileID: "10", TypeName: "RectTransform"}
	e := &Entity{FileID: "1", Name: "Canvas", Components: []*Component{rt}}
	assert.Same(t, rt, e.Transform())
}

func TestSortRoots(t *testing.T) {
	doc := NewDocument("test.unity")
	b := &Entity{FileID: "2", Name: "Beta"}
	a := &Entity{FileID: "1", Name: "Alpha"}
	child2 := &Entity{FileID: "4", Name: "Z", Parent: a}
	child1 := &Entity{FileID: "3", Name: "A", Parent: a}
	a.Children = []*Entity{child2, child1}
	doc.Roots = []*Entity{b, a}
	for _, e := range []*Entity{a, b, child1, child2} {
		doc.Entities[e.FileID] = e
	}

	doc.SortRoots()

	require.Len(t, doc.Roots, 2)
	assert.Equal(t, "Alpha", doc.Roots[0].Name)
	assert.Equal(t, "Beta", doc.Roots[1].Name)
	assert.Equal(t, "A", a.Children[0].Name)
	assert.Equal(t, "Z", a.Children[1].Name)
}

func TestEachEntityDepthFirst(t *testing.T) {
	doc := NewDocument("test.unity")
	root := &Entity{FileID: "1", Name: "Root"}
	kid := &Entity{FileID: "2", Name: "Kid", Parent: root}
	grand := &Entity{FileID: "3", Name: "Grand", Parent: kid}
	root.Children = []*Entity{kid}
	kid.Children = []*Entity{grand}
	doc.Roots = []*Entity{root}

	var order []string
	doc.EachEntity(func(e *Entity) { order = append(order, e.Name) })
	assert.Equal(t, []string{"Root", "Kid", "Grand"}, order)
}
