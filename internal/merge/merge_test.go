package merge

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prefabtools/prefabmerge/internal/loader"
	"github.com/prefabtools/prefabmerge/internal/unity"
)

func mustParse(t *testing.T, text string) *unity.Document {
	t.Helper()
	doc, err := loader.Parse([]byte(text), "test.unity")
	require.NoError(t, err)
	return doc
}

func sceneWithX(x string) string {
	return fmt.Sprintf(`%%YAML 1.1
%%TAG !u! tag:unity3d.com,2011:
--- !u!1 &100
GameObject:
  m_Name: Player
  m_IsActive: 1
--- !u!4 &400
Transform:
  m_GameObject: {fileID: 100}
  m_LocalPosition: {x: %s, y: 0, z: 0}
  m_Father: {fileID: 0}
`, x)
}

func mergeX(t *testing.T, baseX, oursX, theirsX string) *unity.MergeResult {
	t.Helper()
	return Merge(
		mustParse(t, sceneWithX(baseX)),
		mustParse(t, sceneWithX(oursX)),
		mustParse(t, sceneWithX(theirsX)),
	)
}

func oursX(res *unity.MergeResult) unity.Value {
	return res.Ours.Component("400").Property("m_LocalPosition").Value
}

func TestMergeUnchanged(t *testing.T) {
	res := mergeX(t, "0", "0", "0")
	assert.False(t, res.HasConflicts())
	assert.Empty(t, res.AutoMerged)
	assert.True(t, unity.Equal(oursX(res), unity.Vector{X: 0, Dims: 3}))
}

func TestMergeOursOnlyChange(t *testing.T) {
	res := mergeX(t, "0", "10", "0")
	assert.False(t, res.HasConflicts())
	require.Len(t, res.AutoMerged, 1)
	assert.True(t, unity.Equal(oursX(res), unity.Vector{X: 10, Dims: 3}))
}

func TestMergeTheirsOnlyChange(t *testing.T) {
	res := mergeX(t, "0", "0", "20")
	assert.False(t, res.HasConflicts())
	require.Len(t, res.AutoMerged, 1)
	// Theirs' change lands in the ours document.
	assert.True(t, unity.Equal(oursX(res), unity.Vector{X: 20, Dims: 3}))
}

func TestMergeBothSameChange(t *testing.T) {
	res := mergeX(t, "0", "10", "10")
	assert.False(t, res.HasConflicts())
	require.Len(t, res.AutoMerged, 1)
	assert.True(t, unity.Equal(oursX(res), unity.Vector{X: 10, Dims: 3}))
}

func TestMergeBothDifferConflicts(t *testing.T) {
	res := mergeX(t, "0", "10", "20")
	require.True(t, res.HasConflicts())
	require.Len(t, res.Conflicts, 1)

	c := res.Conflicts[0]
	assert.Equal(t, "Player.Transform.m_LocalPosition", c.Path)
	assert.Equal(t, "m_LocalPosition", c.PropertyPath)
	assert.Equal(t, "400", c.ComponentID)
	assert.True(t, unity.Equal(c.BaseValue, unity.Vector{X: 0, Dims: 3}))
	assert.True(t, unity.Equal(c.OursValue, unity.Vector{X: 10, Dims: 3}))
	assert.True(t, unity.Equal(c.TheirsValue, unity.Vector{X: 20, Dims: 3}))
	assert.False(t, c.IsResolved())

	// The conflicting property stays at the ours value until resolved.
	assert.True(t, unity.Equal(oursX(res), unity.Vector{X: 10, Dims: 3}))
}

func TestMergeFloatNoiseConflicts(t *testing.T) {
	// 0.1+0.2 != 0.3 exactly: precision noise is a genuine difference. Sum at
	// runtime so the compiler cannot fold the expression to an exact 0.3.
	a, b := 0.1, 0.2
	res := mergeX(t, "0", fmt.Sprintf("%.17f", a+b), "0.3")
	assert.True(t, res.HasConflicts())
}

func TestApplyResolutionTheirs(t *testing.T) {
	res := mergeX(t, "0", "10", "20")
	require.Len(t, res.Conflicts, 1)

	require.NoError(t, ApplyResolution(res, res.Conflicts[0], UseTheirs()))
	assert.Equal(t, unity.ResolutionTheirs, res.Conflicts[0].Resolution)
	assert.True(t, unity.Equal(oursX(res), unity.Vector{X: 20, Dims: 3}))
	assert.Equal(t, 1, res.ResolvedCount())
	assert.Zero(t, res.UnresolvedCount())
}

func TestApplyResolutionIdempotent(t *testing.T) {
	res := mergeX(t, "0", "10", "20")
	c := res.Conflicts[0]

	require.NoError(t, ApplyResolution(res, c, UseTheirs()))
	first := oursX(res)
	require.NoError(t, ApplyResolution(res, c, UseTheirs()))
	assert.True(t, unity.Equal(first, oursX(res)))

	// Only one property exists afterward, not a duplicate.
	count := 0
	for _, p := range res.Ours.Component("400").Properties {
		if p.Path == "m_LocalPosition" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestApplyResolutionBaseAndManual(t *testing.T) {
	res := mergeX(t, "0", "10", "20")
	c := res.Conflicts[0]

	require.NoError(t, ApplyResolution(res, c, UseBase()))
	assert.Equal(t, unity.ResolutionManual, c.Resolution)
	assert.True(t, unity.Equal(oursX(res), unity.Vector{X: 0, Dims: 3}))

	manual := unity.Vector{X: 15, Dims: 3}
	require.NoError(t, ApplyResolution(res, c, UseManual(manual)))
	assert.True(t, unity.Equal(oursX(res), manual))
	assert.True(t, unity.Equal(c.ResolvedValue, manual))
}

func TestBulkAcceptOverwritesResolved(t *testing.T) {
	res := mergeX(t, "0", "10", "20")
	c := res.Conflicts[0]
	require.NoError(t, ApplyResolution(res, c, UseOurs()))

	// Bulk accept replaces every resolution, including already-made ones.
	AcceptAllTheirs(res)
	assert.Equal(t, unity.ResolutionTheirs, c.Resolution)
	assert.True(t, unity.Equal(c.ResolvedValue, unity.Vector{X: 20, Dims: 3}))

	AcceptAllOurs(res)
	assert.Equal(t, unity.ResolutionOurs, c.Resolution)
	assert.True(t, unity.Equal(c.ResolvedValue, unity.Vector{X: 10, Dims: 3}))
}

func TestMergeBothAddedSameIdentifier(t *testing.T) {
	base := mustParse(t, "%YAML 1.1\n%TAG !u! tag:unity3d.com,2011:\n--- !u!1 &1\nGameObject:\n  m_Name: Anchor\n  m_IsActive: 1\n")
	ours := mustParse(t, "%YAML 1.1\n%TAG !u! tag:unity3d.com,2011:\n--- !u!1 &1\nGameObject:\n  m_Name: Anchor\n  m_IsActive: 1\n--- !u!1 &2\nGameObject:\n  m_Name: FromOurs\n  m_IsActive: 1\n")
	theirs := mustParse(t, "%YAML 1.1\n%TAG !u! tag:unity3d.com,2011:\n--- !u!1 &1\nGameObject:\n  m_Name: Anchor\n  m_IsActive: 1\n--- !u!1 &2\nGameObject:\n  m_Name: FromTheirs\n  m_IsActive: 1\n")

	res := Merge(base, ours, theirs)
	require.Len(t, res.Conflicts, 1)
	assert.Contains(t, res.Conflicts[0].Path, "both added")
}

func TestMergeOneSidedAdd(t *testing.T) {
	base := mustParse(t, sceneWithX("0"))
	ours := mustParse(t, sceneWithX("0"))
	theirs := mustParse(t, sceneWithX("0")+"--- !u!1 &900\nGameObject:\n  m_Name: New\n  m_IsActive: 1\n")

	res := Merge(base, ours, theirs)
	assert.False(t, res.HasConflicts())
	assert.Equal(t, unity.StatusAdded, res.Annotations.EntityStatus("900"))
}

func TestMergeDeactivationAutoMergesAsInt(t *testing.T) {
	base := mustParse(t, sceneWithX("0"))
	ours := mustParse(t, sceneWithX("0"))
	theirs := mustParse(t, sceneWithX("0"))
	theirs.Entity("100").Active = false

	res := Merge(base, ours, theirs)
	assert.False(t, res.HasConflicts())
	assert.False(t, res.Ours.Entity("100").Active)

	// The merged value carries the 0/1 form the file format uses, so the
	// writer emits m_IsActive: 0 and a reload sees the object inactive.
	var ch *unity.Change
	for i := range res.AutoMerged {
		if strings.HasSuffix(res.AutoMerged[i].Path, "m_IsActive") {
			ch = &res.AutoMerged[i]
		}
	}
	require.NotNil(t, ch)
	assert.True(t, unity.Equal(ch.RightValue, unity.Int(0)))
}

func TestMergeRenameAutoMerges(t *testing.T) {
	base := mustParse(t, sceneWithX("0"))
	ours := mustParse(t, sceneWithX("0"))
	theirs := mustParse(t, sceneWithX("0"))
	theirs.Entity("100").Name = "Renamed"

	res := Merge(base, ours, theirs)
	assert.False(t, res.HasConflicts())
	assert.Equal(t, "Renamed", res.Ours.Entity("100").Name)
}

func TestMergeRenameBothDifferConflicts(t *testing.T) {
	base := mustParse(t, sceneWithX("0"))
	ours := mustParse(t, sceneWithX("0"))
	theirs := mustParse(t, sceneWithX("0"))
	ours.Entity("100").Name = "OurName"
	theirs.Entity("100").Name = "TheirName"

	res := Merge(base, ours, theirs)
	require.Len(t, res.Conflicts, 1)
	c := res.Conflicts[0]
	assert.Equal(t, "m_Name", c.PropertyPath)
	assert.Equal(t, "100", c.ComponentID)

	require.NoError(t, ApplyResolution(res, c, UseTheirs()))
	assert.Equal(t, "TheirName", res.Ours.Entity("100").Name)
}

func TestMergePropertyDeletedOnTheirs(t *testing.T) {
	base := mustParse(t, sceneWithX("0"))
	ours := mustParse(t, sceneWithX("0"))
	theirs := mustParse(t, sceneWithX("0"))

	// Theirs drops the property entirely; ours left it alone.
	tr := theirs.Component("400")
	kept := tr.Properties[:0]
	for _, p := range tr.Properties {
		if p.Path != "m_LocalPosition" {
			kept = append(kept, p)
		}
	}
	tr.Properties = kept

	res := Merge(base, ours, theirs)
	assert.False(t, res.HasConflicts())
	assert.Nil(t, res.Ours.Component("400").Property("m_LocalPosition"))
}
