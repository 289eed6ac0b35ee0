package loader

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultHeader is the directive block Unity writes at the top of every
// serialized file.
const DefaultHeader = "%YAML 1.1\n%TAG !u! tag:unity3d.com,2011:\n"

// entryHeader matches one Unity document separator: "--- !u!<classID> &<fileID>"
// with an optional " stripped" suffix on prefab-stripped objects.
var entryHeader = regexp.MustCompile(`^--- !u!(\d+) &(-?\d+)( stripped)?\s*$`)

// ParseError reports graph text that cannot be tokenized. It is fatal: no
// partial document is returned.
type ParseError struct {
	Path string
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("parse %s: %s", e.Path, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RawEntry is one graph entry in its native YAML form. ClassName is the single
// top-level key of the entry body; Data is that key's mapping node.
type RawEntry struct {
	ClassID  int64
	FileID   string
	Stripped bool
	Line     int

	root *yaml.Node
}

// ClassName returns the entry's type tag ("GameObject", "Transform", ...).
func (e *RawEntry) ClassName() string {
	if e.root == nil || len(e.root.Content) < 1 {
		return ""
	}
	return e.root.Content[0].Value
}

// Data returns the entry's field mapping node.
func (e *RawEntry) Data() *yaml.Node {
	if e.root == nil || len(e.root.Content) < 2 {
		return nil
	}
	return e.root.Content[1]
}

// RawDocument is the flat ordered entry list of one Unity file, indexed by
// anchor. It is the representation the writer edits and re-serializes.
type RawDocument struct {
	Path    string
	Header  string
	Entries []*RawEntry

	byID map[string]*RawEntry
}

// Entry returns the entry with the given fileID, or nil.
func (d *RawDocument) Entry(fileID string) *RawEntry { return d.byID[fileID] }

// Append adds an entry to the end of the document, replacing any previous
// entry under the same fileID in the index.
func (d *RawDocument) Append(e *RawEntry) {
	d.Entries = append(d.Entries, e)
	d.byID[e.FileID] = e
}

// ParseRaw tokenizes Unity YAML text into a RawDocument.
func ParseRaw(data []byte, path string) (*RawDocument, error) {
	doc := &RawDocument{
		Path: path,
		byID: map[string]*RawEntry{},
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	var header strings.Builder
	var cur *RawEntry
	var body strings.Builder

	flush := func() error {
		if cur == nil {
			return nil
		}
		if err := parseEntryBody(cur, body.String(), path); err != nil {
			return err
		}
		doc.Entries = append(doc.Entries, cur)
		doc.byID[cur.FileID] = cur
		cur = nil
		body.Reset()
		return nil
	}

	for i, line := range lines {
		if m := entryHeader.FindStringSubmatch(line); m != nil {
			if err := flush(); err != nil {
				return nil, err
			}
			classID, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				return nil, &ParseError{Path: path, Line: i + 1, Msg: "invalid class id " + m[1], Err: err}
			}
			cur = &RawEntry{
				ClassID:  classID,
				FileID:   m[2],
				Stripped: m[3] != "",
				Line:     i + 1,
			}
			continue
		}

		if cur == nil {
			switch {
			case strings.HasPrefix(line, "%"):
				header.WriteString(line)
				header.WriteString("\n")
			case strings.TrimSpace(line) == "":
				// blank preamble
			default:
				return nil, &ParseError{Path: path, Line: i + 1, Msg: "content before first graph entry"}
			}
			continue
		}

		body.WriteString(line)
		body.WriteString("\n")
	}
	if err := flush(); err != nil {
		return nil, err
	}

	if len(doc.Entries) == 0 {
		return nil, &ParseError{Path: path, Msg: "no graph entries found"}
	}

	doc.Header = header.String()
	if doc.Header == "" {
		doc.Header = DefaultHeader
	}

	return doc, nil
}

func parseEntryBody(entry *RawEntry, body, path string) error {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(body), &node); err != nil {
		return &ParseError{Path: path, Line: entry.Line, Msg: "malformed entry &" + entry.FileID, Err: err}
	}
	if node.Kind != yaml.DocumentNode || len(node.Content) != 1 {
		return &ParseError{Path: path, Line: entry.Line, Msg: "empty entry &" + entry.FileID}
	}
	root := node.Content[0]
	if root.Kind != yaml.MappingNode || len(root.Content) < 2 {
		return &ParseError{Path: path, Line: entry.Line, Msg: "entry &" + entry.FileID + " is not a typed mapping"}
	}
	entry.root = root
	return nil
}

// Render serializes the document back to Unity YAML text.
func (d *RawDocument) Render() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(d.Header)

	for _, entry := range d.Entries {
		fmt.Fprintf(&buf, "--- !u!%d &%s", entry.ClassID, entry.FileID)
		if entry.Stripped {
			buf.WriteString(" stripped")
		}
		buf.WriteString("\n")

		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(entry.root); err != nil {
			return nil, fmt.Errorf("render entry &%s: %w", entry.FileID, err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("render entry &%s: %w", entry.FileID, err)
		}
	}

	return buf.Bytes(), nil
}
