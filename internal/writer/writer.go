// Package writer serializes resolved merges back to Unity YAML. The
// object-level path edits the ours document's raw node tree in place and is
// preferred whenever the graph model is available; the text-level path is a
// line-based diff3 fallback whose resolution substitution is best-effort,
// since text conflicts carry no structural identity.
package writer

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/epiclabs-io/diff3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/prefabtools/prefabmerge/internal/loader"
	"github.com/prefabtools/prefabmerge/internal/log"
	"github.com/prefabtools/prefabmerge/internal/unity"
	"github.com/prefabtools/prefabmerge/internal/yamlutil"
)

const (
	markerOurs      = "<<<<<<< ours"
	markerSeparator = "======="
	markerTheirs    = ">>>>>>> theirs"
)

// Writer writes merge results. With normalization enabled, output entries are
// sorted by identifier and floats rendered at a fixed precision so repeated
// merges of logically-identical content are byte-identical.
type Writer struct {
	normalize bool
	precision int
}

type Option func(*Writer)

func WithNormalization(enabled bool) Option {
	return func(w *Writer) { w.normalize = enabled }
}

func WithFloatPrecision(digits int) Option {
	return func(w *Writer) { w.precision = digits }
}

func New(opts ...Option) *Writer {
	w := &Writer{normalize: true, precision: defaultFloatPrecision}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteObjectMerge materializes a merge result on top of the ours document's
// raw form and saves it to outPath: auto-merged changes and resolved conflicts
// are spliced into the node tree, and objects newly added on theirs are copied
// over wholesale. A change whose target cannot be located is logged and
// skipped; refusing to write the whole file over one bad target would be
// worse. Returns false only when a document cannot be loaded or the output
// cannot be saved.
func (w *Writer) WriteObjectMerge(ctx context.Context, res *unity.MergeResult, outPath string) bool {
	logger := log.From(ctx)

	if res.Ours == nil {
		logger.Error("object merge: no ours document")
		return false
	}

	data, err := os.ReadFile(res.Ours.FilePath)
	if err != nil {
		logger.Error("object merge: read ours document", zap.Error(err))
		return false
	}
	raw, err := loader.ParseRaw(data, res.Ours.FilePath)
	if err != nil {
		logger.Error("object merge: parse ours document", zap.Error(err))
		return false
	}

	if err := copyTheirsAdditions(raw, res); err != nil {
		logger.Error("object merge: copy added objects", zap.Error(err))
		return false
	}

	for _, change := range res.AutoMerged {
		if err := w.applyPropertyValue(raw, res.Ours, change.Path, change.RightValue); err != nil {
			logger.Warn("skipping unreachable auto-merge target", zap.String("path", change.Path), zap.Error(err))
		}
	}

	for _, conflict := range res.Conflicts {
		if !conflict.IsResolved() {
			continue
		}
		if conflict.ComponentID == "" || conflict.PropertyPath == "" {
			// Object-existence conflicts have no property to splice.
			continue
		}
		value := resolvedValue(conflict)
		if value == nil && conflict.Resolution == unity.ResolutionManual {
			value = conflict.OursValue
		}
		if err := w.applyPropertyValue(raw, res.Ours, conflict.Path, value); err != nil {
			logger.Warn("skipping unresolvable conflict target", zap.String("path", conflict.Path), zap.Error(err))
		}
	}

	out, err := raw.Render()
	if err != nil {
		logger.Error("object merge: render", zap.Error(err))
		return false
	}
	if w.normalize {
		if normalized, err := Normalize(out, w.precision); err == nil {
			out = normalized
		} else {
			logger.Warn("normalization failed, writing unnormalized output", zap.Error(err))
		}
	}

	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		logger.Error("object merge: write output", zap.Error(err))
		return false
	}
	return true
}

// copyTheirsAdditions appends the raw entries of every object that exists
// only on theirs relative to base. Objects ours deleted are not resurrected:
// only identifiers absent from both base and ours qualify.
func copyTheirsAdditions(raw *loader.RawDocument, res *unity.MergeResult) error {
	if res.Theirs == nil || res.Base == nil {
		return nil
	}

	wanted := map[string]bool{}
	for fileID, e := range res.Theirs.Entities {
		if res.Base.Entities[fileID] != nil || res.Ours.Entities[fileID] != nil {
			continue
		}
		wanted[fileID] = true
		for _, c := range e.Components {
			wanted[c.FileID] = true
		}
	}
	if len(wanted) == 0 {
		return nil
	}

	data, err := os.ReadFile(res.Theirs.FilePath)
	if err != nil {
		return fmt.Errorf("read theirs document: %w", err)
	}
	theirsRaw, err := loader.ParseRaw(data, res.Theirs.FilePath)
	if err != nil {
		return fmt.Errorf("parse theirs document: %w", err)
	}

	for _, entry := range theirsRaw.Entries {
		if wanted[entry.FileID] && raw.Entry(entry.FileID) == nil {
			raw.Append(entry)
		}
	}
	return nil
}

func resolvedValue(c *unity.MergeConflict) unity.Value {
	switch c.Resolution {
	case unity.ResolutionOurs:
		return c.OursValue
	case unity.ResolutionTheirs:
		return c.TheirsValue
	case unity.ResolutionManual:
		return c.ResolvedValue
	}
	return nil
}

// applyPropertyValue overwrites one property located by its full path:
// "EntityPath.ComponentType.propertyPath", minimum three dot-segments.
func (w *Writer) applyPropertyValue(raw *loader.RawDocument, doc *unity.Document, path string, value unity.Value) error {
	parts := strings.Split(path, ".")
	if len(parts) < 3 {
		return fmt.Errorf("path %q has fewer than three segments", path)
	}
	entityPath, compType := parts[0], parts[1]
	propPath := parts[2:]

	var targetID string
	doc.EachEntity(func(e *unity.Entity) {
		if targetID != "" || e.Path() != entityPath {
			return
		}
		// "GameObject" addresses the entity's own entry.
		if compType == "GameObject" {
			targetID = e.FileID
			return
		}
		for _, c := range e.Components {
			if c.TypeName == compType || c.DisplayName() == compType {
				targetID = c.FileID
				return
			}
		}
	})
	if targetID == "" {
		return fmt.Errorf("no component %q under %q", compType, entityPath)
	}

	entry := raw.Entry(targetID)
	if entry == nil {
		return fmt.Errorf("entry &%s missing from raw document", targetID)
	}

	node := entry.Data()
	for _, seg := range propPath[:len(propPath)-1] {
		node = mappingValue(node, seg)
		if node == nil {
			return fmt.Errorf("path segment %q not found under &%s", seg, targetID)
		}
	}

	final := propPath[len(propPath)-1]
	if node == nil || node.Kind != yaml.MappingNode {
		return fmt.Errorf("property %q not found under &%s", final, targetID)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == final {
			if value == nil {
				node.Content = append(node.Content[:i], node.Content[i+2:]...)
			} else {
				*node.Content[i+1] = *yamlutil.ValueNode(value)
			}
			return nil
		}
	}
	if value == nil {
		// Removing an already-absent property is a no-op, not a failure.
		return nil
	}
	// The merged side introduced a property the ours file never had.
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: final},
		yamlutil.ValueNode(value))
	return nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil {
		return nil
	}
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// WriteTextMerge performs the line-based three-way fallback merge with git
// style conflict markers, optionally substituting resolved values into marker
// blocks, and writes the (optionally normalized) result. Returns whether the
// output is conflict-free and how many conflict blocks were produced.
func (w *Writer) WriteTextMerge(ctx context.Context, basePath, oursPath, theirsPath, outPath string, conflicts []*unity.MergeConflict) (bool, int, error) {
	logger := log.From(ctx)

	base, err := os.ReadFile(basePath)
	if err != nil {
		return false, 0, fmt.Errorf("read base: %w", err)
	}
	ours, err := os.ReadFile(oursPath)
	if err != nil {
		return false, 0, fmt.Errorf("read ours: %w", err)
	}
	theirs, err := os.ReadFile(theirsPath)
	if err != nil {
		return false, 0, fmt.Errorf("read theirs: %w", err)
	}

	merged, err := diff3.Merge(
		strings.NewReader(string(ours)),
		strings.NewReader(string(base)),
		strings.NewReader(string(theirs)),
		true,
		"ours",
		"theirs",
	)
	if err != nil {
		return false, 0, fmt.Errorf("diff3 merge: %w", err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, merged.Result); err != nil {
		return false, 0, fmt.Errorf("read merge result: %w", err)
	}
	content := sb.String()

	conflictCount := strings.Count(content, markerOurs)
	if conflictCount > 0 && len(conflicts) > 0 {
		content = substituteResolutions(content, conflicts)
	}

	out := []byte(content)
	if w.normalize {
		if normalized, err := Normalize(out, w.precision); err == nil {
			out = normalized
		} else {
			logger.Warn("normalization failed, writing unnormalized output", zap.Error(err))
		}
	}

	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return false, conflictCount, fmt.Errorf("write output: %w", err)
	}
	return !merged.Conflicts, conflictCount, nil
}

var conflictBlock = regexp.MustCompile(`(?s)<<<<<<< ours\n(.*?)\n=======\n(.*?)\n>>>>>>> theirs`)

// substituteResolutions replaces conflict marker blocks with resolved values.
// Matching marker blocks to structural conflicts is a textual heuristic: a
// block is claimed by the first resolved conflict whose chosen side's
// rendering appears in the corresponding half of the block, defaulting to the
// ours half otherwise.
func substituteResolutions(content string, conflicts []*unity.MergeConflict) string {
	return conflictBlock.ReplaceAllStringFunc(content, func(block string) string {
		m := conflictBlock.FindStringSubmatch(block)
		oursText, theirsText := m[1], m[2]

		for _, c := range conflicts {
			if !c.IsResolved() {
				continue
			}
			switch c.Resolution {
			case unity.ResolutionOurs:
				if c.OursValue == nil || strings.Contains(oursText, c.OursValue.String()) {
					return oursText
				}
			case unity.ResolutionTheirs:
				if c.TheirsValue == nil || strings.Contains(theirsText, c.TheirsValue.String()) {
					return theirsText
				}
			case unity.ResolutionManual:
				if c.ResolvedValue != nil && c.OursValue != nil && strings.Contains(oursText, c.OursValue.String()) {
					return strings.Replace(oursText, c.OursValue.String(), c.ResolvedValue.String(), 1)
				}
			}
		}
		return oursText
	})
}
