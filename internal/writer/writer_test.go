package writer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prefabtools/prefabmerge/internal/loader"
	"github.com/prefabtools/prefabmerge/internal/merge"
	"github.com/prefabtools/prefabmerge/internal/unity"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func unityFile(body string) string {
	return "%YAML 1.1\n%TAG !u! tag:unity3d.com,2011:\n" + body
}

func scene(x, health string, extra string) string {
	return unityFile(`--- !u!1 &100
GameObject:
  m_Name: Player
  m_IsActive: 1
--- !u!4 &400
Transform:
  m_GameObject: {fileID: 100}
  m_LocalPosition: {x: ` + x + `, y: 0, z: 0}
  m_Father: {fileID: 0}
--- !u!114 &500
MonoBehaviour:
  m_GameObject: {fileID: 100}
  m_Name: Health
  maxHealth: ` + health + "\n" + extra)
}

func loadScene(t *testing.T, path string) *unity.Document {
	t.Helper()
	doc, err := loader.Load(path)
	require.NoError(t, err)
	return doc
}

func TestWriteObjectMergeAppliesAutoMerges(t *testing.T) {
	dir := t.TempDir()
	basePath := writeTemp(t, dir, "base.unity", scene("0", "100", ""))
	oursPath := writeTemp(t, dir, "ours.unity", scene("10", "100", ""))
	theirsPath := writeTemp(t, dir, "theirs.unity", scene("0", "150", `--- !u!1 &900
GameObject:
  m_Name: Spawned
  m_IsActive: 1
`))
	outPath := filepath.Join(dir, "out.unity")

	res := merge.Merge(loadScene(t, basePath), loadScene(t, oursPath), loadScene(t, theirsPath))
	require.False(t, res.HasConflicts())

	ok := New().WriteObjectMerge(context.Background(), res, outPath)
	require.True(t, ok)

	merged := loadScene(t, outPath)
	// Ours' own change survives.
	pos := merged.Component("400").Property("m_LocalPosition")
	require.NotNil(t, pos)
	assert.True(t, unity.Equal(pos.Value, unity.Vector{X: 10, Dims: 3}))
	// Theirs' change was spliced in.
	hp := merged.Component("500").Property("maxHealth")
	require.NotNil(t, hp)
	assert.True(t, unity.Equal(hp.Value, unity.Int(150)))
	// Theirs' added object was copied over.
	require.NotNil(t, merged.Entity("900"))
	assert.Equal(t, "Spawned", merged.Entity("900").Name)
}

func TestWriteObjectMergeResolvedConflict(t *testing.T) {
	dir := t.TempDir()
	basePath := writeTemp(t, dir, "base.unity", scene("0", "100", ""))
	oursPath := writeTemp(t, dir, "ours.unity", scene("0", "120", ""))
	theirsPath := writeTemp(t, dir, "theirs.unity", scene("0", "150", ""))
	outPath := filepath.Join(dir, "out.unity")

	res := merge.Merge(loadScene(t, basePath), loadScene(t, oursPath), loadScene(t, theirsPath))
	require.Len(t, res.Conflicts, 1)
	require.NoError(t, merge.ApplyResolution(res, res.Conflicts[0], merge.UseTheirs()))

	require.True(t, New().WriteObjectMerge(context.Background(), res, outPath))

	merged := loadScene(t, outPath)
	hp := merged.Component("500").Property("maxHealth")
	require.NotNil(t, hp)
	assert.True(t, unity.Equal(hp.Value, unity.Int(150)))
}

func TestWriteObjectMergeSkipsUnlocatableTarget(t *testing.T) {
	dir := t.TempDir()
	basePath := writeTemp(t, dir, "base.unity", scene("0", "100", ""))
	oursPath := writeTemp(t, dir, "ours.unity", scene("0", "100", ""))
	theirsPath := writeTemp(t, dir, "theirs.unity", scene("0", "100", ""))
	outPath := filepath.Join(dir, "out.unity")

	res := merge.Merge(loadScene(t, basePath), loadScene(t, oursPath), loadScene(t, theirsPath))

	// A resolution whose path cannot be located is skipped, not fatal.
	res.Conflicts = append(res.Conflicts, &unity.MergeConflict{
		Path:          "Ghost.Transform.m_LocalPosition",
		PropertyPath:  "m_LocalPosition",
		ComponentID:   "999",
		Resolution:    unity.ResolutionTheirs,
		TheirsValue:   unity.Vector{X: 1, Dims: 3},
	})

	require.True(t, New().WriteObjectMerge(context.Background(), res, outPath))
	merged := loadScene(t, outPath)
	pos := merged.Component("400").Property("m_LocalPosition")
	assert.True(t, unity.Equal(pos.Value, unity.Vector{X: 0, Dims: 3}))
}

func TestWriteTextMergeMarkers(t *testing.T) {
	dir := t.TempDir()
	basePath := writeTemp(t, dir, "base.txt", "a\nb\nc\n")
	oursPath := writeTemp(t, dir, "ours.txt", "a\nOURS\nc\n")
	theirsPath := writeTemp(t, dir, "theirs.txt", "a\nTHEIRS\nc\n")
	outPath := filepath.Join(dir, "out.txt")

	w := New(WithNormalization(false))
	ok, count, err := w.WriteTextMerge(context.Background(), basePath, oursPath, theirsPath, outPath, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, count)

	out, err := os.ReadFile(outPath)
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "<<<<<<< ours")
	assert.Contains(t, text, "=======")
	assert.Contains(t, text, ">>>>>>> theirs")
	assert.Contains(t, text, "OURS")
	assert.Contains(t, text, "THEIRS")
}

func TestWriteTextMergeClean(t *testing.T) {
	dir := t.TempDir()
	basePath := writeTemp(t, dir, "base.txt", "a\nb\nc\nd\ne\nf\ng\n")
	oursPath := writeTemp(t, dir, "ours.txt", "a\nB\nc\nd\ne\nf\ng\n")
	theirsPath := writeTemp(t, dir, "theirs.txt", "a\nb\nc\nd\ne\nF\ng\n")
	outPath := filepath.Join(dir, "out.txt")

	w := New(WithNormalization(false))
	ok, count, err := w.WriteTextMerge(context.Background(), basePath, oursPath, theirsPath, outPath, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, count)

	out, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(out), "B")
	assert.Contains(t, string(out), "F")
}

func TestWriteObjectMergeDeactivationRoundTrips(t *testing.T) {
	activeScene := func(active string) string {
		return unityFile(`--- !u!1 &100
GameObject:
  m_Name: Player
  m_IsActive: ` + active + `
--- !u!4 &400
Transform:
  m_GameObject: {fileID: 100}
  m_Father: {fileID: 0}
`)
	}
	dir := t.TempDir()
	basePath := writeTemp(t, dir, "base.unity", activeScene("1"))
	oursPath := writeTemp(t, dir, "ours.unity", activeScene("1"))
	theirsPath := writeTemp(t, dir, "theirs.unity", activeScene("0"))
	outPath := filepath.Join(dir, "out.unity")

	res := merge.Merge(loadScene(t, basePath), loadScene(t, oursPath), loadScene(t, theirsPath))
	require.False(t, res.HasConflicts())
	require.True(t, New().WriteObjectMerge(context.Background(), res, outPath))

	out, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(out), "m_IsActive: 0")

	merged := loadScene(t, outPath)
	require.NotNil(t, merged.Entity("100"))
	assert.False(t, merged.Entity("100").Active)
}

func TestNormalizeSortsEntriesByFileID(t *testing.T) {
	input := unityFile(`--- !u!4 &400
Transform:
  m_GameObject: {fileID: 100}
--- !u!1 &-5
GameObject:
  m_Name: Negative
--- !u!1 &100
GameObject:
  m_Name: Positive
`)
	out, err := Normalize([]byte(input), defaultFloatPrecision)
	require.NoError(t, err)

	text := string(out)
	negIdx := strings.Index(text, "&-5")
	posIdx := strings.Index(text, "&100")
	trIdx := strings.Index(text, "&400")
	require.True(t, negIdx >= 0 && posIdx >= 0 && trIdx >= 0)
	assert.Less(t, negIdx, posIdx)
	assert.Less(t, posIdx, trIdx)
}

func TestNormalizeCanonicalFloats(t *testing.T) {
	input := unityFile(`--- !u!4 &400
Transform:
  m_GameObject: {fileID: 100}
  m_LocalScale: {x: 0.30000000000000004, y: 1.5, z: 2.0}
`)
	out, err := Normalize([]byte(input), 6)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "0.3")
	assert.NotContains(t, text, "0.30000000000000004")
	assert.Contains(t, text, "1.5")
}

func TestNormalizeIdempotent(t *testing.T) {
	input := unityFile(`--- !u!4 &400
Transform:
  m_GameObject: {fileID: 100}
  m_LocalScale: {x: 0.1, y: 0.2, z: 0.30000000000000004}
--- !u!1 &100
GameObject:
  m_Name: X
`)
	once, err := Normalize([]byte(input), 6)
	require.NoError(t, err)
	twice, err := Normalize(once, 6)
	require.NoError(t, err)
	assert.Equal(t, string(once), string(twice))
}

func TestNormalizeSortsModifications(t *testing.T) {
	input := unityFile(`--- !u!1001 &7000
PrefabInstance:
  m_Modification:
    m_Modifications:
    - target: {fileID: 200}
      propertyPath: m_Name
      value: B
    - target: {fileID: 100}
      propertyPath: m_IsActive
      value: 1
    - target: {fileID: 100}
      propertyPath: m_Enabled
      value: 0
`)
	out, err := Normalize([]byte(input), 6)
	require.NoError(t, err)

	text := string(out)
	enabledIdx := strings.Index(text, "m_Enabled")
	activeIdx := strings.Index(text, "m_IsActive")
	nameIdx := strings.Index(text, "m_Name")
	require.True(t, enabledIdx >= 0 && activeIdx >= 0 && nameIdx >= 0)
	assert.Less(t, enabledIdx, activeIdx)
	assert.Less(t, activeIdx, nameIdx)
}

func TestCompareFileIDs(t *testing.T) {
	assert.Negative(t, compareFileIDs("-5", "3"))
	assert.Negative(t, compareFileIDs("3", "10"))
	assert.Positive(t, compareFileIDs("10", "3"))
	assert.Zero(t, compareFileIDs("7", "7"))
	// Beyond int64 range, still ordered correctly.
	assert.Negative(t, compareFileIDs("9223372036854775807", "92233720368547758080"))
	// Larger magnitude sorts first among negatives.
	assert.Negative(t, compareFileIDs("-92233720368547758080", "-9223372036854775807"))
	assert.Zero(t, compareFileIDs("007", "7"))
}
