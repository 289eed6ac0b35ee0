package assetindex

import (
	"bufio"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/prefabtools/prefabmerge/internal/log"
)

const maxScanWorkers = 32

// RefreshOptions tunes a Refresh run. Zero values pick sensible defaults.
type RefreshOptions struct {
	// Concurrency bounds the parse worker pool. Zero means
	// min(32, NumCPU+4); parsing .meta files is I/O bound.
	Concurrency int
	// Progress, when set, is invoked at roughly one-percent intervals with
	// (processed, total) counts for changed files.
	Progress func(done, total int)
}

// RefreshResult summarizes what a Refresh run did.
type RefreshResult struct {
	Scanned   int
	Processed int
	Removed   int
	Duration  time.Duration
}

func (o RefreshOptions) workers() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	n := runtime.NumCPU() + 4
	if n > maxScanWorkers {
		n = maxScanWorkers
	}
	return n
}

// Refresh walks Assets/ for .meta files and brings the store up to date.
// Unchanged files (same modification time as the stored record) are skipped;
// records whose .meta file no longer exists are removed. Ctx cancellation is
// honored between files, so a partial refresh leaves the store consistent,
// just incomplete.
func (ix *Index) Refresh(ctx context.Context, opts RefreshOptions) (RefreshResult, error) {
	logger := log.From(ctx)
	start := time.Now()
	res := RefreshResult{}

	assetsDir := filepath.Join(ix.projectRoot, "Assets")
	var metaPaths []string
	err := filepath.WalkDir(assetsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Debug("skipping unreadable path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !d.IsDir() && strings.HasSuffix(path, ".meta") {
			metaPaths = append(metaPaths, path)
		}
		return nil
	})
	if err != nil {
		return res, err
	}
	res.Scanned = len(metaPaths)

	existing, err := ix.store.All(ctx)
	if err != nil {
		return res, err
	}
	known := make(map[string]int64, len(existing))
	for _, rec := range existing {
		known[rec.MetaPath] = rec.MTime
	}

	seen := make(map[string]bool, len(metaPaths))
	var changed []string
	var mtimes []int64
	for _, path := range metaPaths {
		seen[path] = true
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		mtime := info.ModTime().Unix()
		if prev, ok := known[path]; ok && prev == mtime {
			continue
		}
		changed = append(changed, path)
		mtimes = append(mtimes, mtime)
	}

	recs, err := ix.parseMetaFiles(ctx, changed, mtimes, opts)
	if err != nil {
		return res, err
	}
	res.Processed = len(recs)
	if err := ix.store.Put(ctx, recs); err != nil {
		return res, err
	}

	var stale []string
	for path := range known {
		if !seen[path] {
			stale = append(stale, path)
		}
	}
	if err := ix.store.DeleteByMetaPath(ctx, stale); err != nil {
		return res, err
	}
	res.Removed = len(stale)

	if err := ix.store.SetLastIndexTime(ctx, time.Now()); err != nil {
		return res, err
	}
	res.Duration = time.Since(start)
	logger.Debug("asset index refreshed",
		zap.Int("scanned", res.Scanned),
		zap.Int("processed", res.Processed),
		zap.Int("removed", res.Removed),
		zap.Duration("took", res.Duration))
	return res, nil
}

func (ix *Index) parseMetaFiles(ctx context.Context, paths []string, mtimes []int64, opts RefreshOptions) ([]*Record, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	step := len(paths) / 100
	if step < 1 {
		step = 1
	}

	var (
		mu   sync.Mutex
		recs []*Record
		done int
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			rec, err := parseMetaFile(path, mtimes[i])

			mu.Lock()
			defer mu.Unlock()
			if err == nil && rec != nil {
				recs = append(recs, rec)
			}
			done++
			if opts.Progress != nil && (done%step == 0 || done == len(paths)) {
				opts.Progress(done, len(paths))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return recs, err
	}
	return recs, nil
}

// parseMetaFile pulls the guid out of a .meta file. Meta files are small flat
// YAML documents; a line scan for the guid key avoids a full YAML parse on
// thousands of files.
func parseMetaFile(path string, mtime int64) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var guid string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if rest, ok := strings.CutPrefix(line, "guid:"); ok {
			guid = strings.ToLower(strings.TrimSpace(rest))
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if guid == "" {
		return nil, nil
	}

	assetPath := strings.TrimSuffix(path, ".meta")
	name := filepath.Base(assetPath)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return &Record{
		GUID:      guid,
		AssetName: name,
		AssetPath: assetPath,
		MetaPath:  path,
		MTime:     mtime,
	}, nil
}
