// Package assetindex maintains a persistent GUID-to-asset lookup table for a
// Unity project, built by scanning .meta files under Assets/. Cross-file
// references in scenes and prefabs carry only a GUID; the index turns those
// into human-readable asset names and paths.
package assetindex

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/prefabtools/prefabmerge/internal/log"
)

// DBFileName is the index database file kept at the project root.
const DBFileName = ".prefabmerge-index.db"

// Index resolves asset GUIDs against a persistent store.
type Index struct {
	projectRoot string
	store       Store
	persistent  bool
}

// Open attaches an index to a Unity project root. When the on-disk store
// cannot be opened the index degrades to an in-memory store for the life of
// the process; the failure is logged once here, not on every lookup.
func Open(ctx context.Context, projectRoot string) *Index {
	logger := log.From(ctx)

	dbPath := filepath.Join(projectRoot, DBFileName)
	store, err := OpenStore(dbPath)
	if err != nil {
		logger.Warn("asset index database unavailable, using in-memory index",
			zap.String("path", dbPath), zap.Error(err))
		return &Index{projectRoot: projectRoot, store: NewMemStore()}
	}
	return &Index{projectRoot: projectRoot, store: store, persistent: true}
}

func (ix *Index) ProjectRoot() string { return ix.projectRoot }

// Persistent reports whether lookups hit the on-disk database or the
// in-memory fallback.
func (ix *Index) Persistent() bool { return ix.persistent }

// Resolve returns the record for a GUID. GUIDs compare case-insensitively;
// Unity emits them lowercase, but merge inputs from other tools may not.
func (ix *Index) Resolve(ctx context.Context, guid string) (*Record, bool) {
	if guid == "" {
		return nil, false
	}
	rec, ok, err := ix.store.Get(ctx, strings.ToLower(guid))
	if err != nil {
		log.From(ctx).Debug("guid lookup failed", zap.String("guid", guid), zap.Error(err))
		return nil, false
	}
	return rec, ok
}

// ResolveName returns the asset name for a GUID, falling back to a truncated
// GUID placeholder for unknown assets so display code never shows an empty
// label.
func (ix *Index) ResolveName(ctx context.Context, guid string) string {
	if rec, ok := ix.Resolve(ctx, guid); ok {
		return rec.AssetName
	}
	if len(guid) > 8 {
		return guid[:8] + "…"
	}
	return guid
}

// Stats describes the current index contents.
type Stats struct {
	Records       int
	LastIndexTime time.Time
	Persistent    bool
}

func (ix *Index) Stats(ctx context.Context) (Stats, error) {
	n, err := ix.store.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	last, err := ix.store.LastIndexTime(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Records: n, LastIndexTime: last, Persistent: ix.persistent}, nil
}

// Clear drops all records and the last index timestamp.
func (ix *Index) Clear(ctx context.Context) error {
	return ix.store.Clear(ctx)
}

func (ix *Index) Close() error { return ix.store.Close() }
