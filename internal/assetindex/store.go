package assetindex

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

// Record is one indexed .meta file: the GUID it declares and the asset it
// belongs to. GUIDs are stored lowercase.
type Record struct {
	GUID      string
	AssetName string
	AssetPath string
	MetaPath  string
	MTime     int64
}

// Store persists GUID records between runs. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, guid string) (*Record, bool, error)
	Put(ctx context.Context, recs []*Record) error
	DeleteByMetaPath(ctx context.Context, metaPaths []string) error
	All(ctx context.Context) ([]*Record, error)
	Count(ctx context.Context) (int, error)
	LastIndexTime(ctx context.Context) (time.Time, error)
	SetLastIndexTime(ctx context.Context, t time.Time) error
	Clear(ctx context.Context) error
	Close() error
}

type sqliteStore struct {
	db *sql.DB
}

// OpenStore opens (or creates) the on-disk index database at path. The schema
// is applied on every open; a version mismatch drops and recreates the tables
// rather than attempting migration, since the index is a rebuildable cache.
func OpenStore(path string) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set synchronous mode: %w", err)
	}

	s := &sqliteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *sqliteStore) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS guid_records (
	guid       TEXT PRIMARY KEY,
	asset_name TEXT NOT NULL,
	asset_path TEXT NOT NULL,
	meta_path  TEXT NOT NULL,
	mtime      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_guid_records_meta_path ON guid_records(meta_path);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var version string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		// fresh database
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case version != schemaVersion:
		if _, err := s.db.Exec(`DELETE FROM guid_records; DELETE FROM meta`); err != nil {
			return fmt.Errorf("reset stale index: %w", err)
		}
	}
	if _, err := s.db.Exec(
		`INSERT INTO meta (key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, schemaVersion); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return nil
}

func (s *sqliteStore) Get(ctx context.Context, guid string) (*Record, bool, error) {
	rec := &Record{GUID: guid}
	err := s.db.QueryRowContext(ctx,
		`SELECT asset_name, asset_path, meta_path, mtime FROM guid_records WHERE guid = ?`, guid,
	).Scan(&rec.AssetName, &rec.AssetPath, &rec.MetaPath, &rec.MTime)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup guid %s: %w", guid, err)
	}
	return rec, true, nil
}

func (s *sqliteStore) Put(ctx context.Context, recs []*Record) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO guid_records (guid, asset_name, asset_path, meta_path, mtime)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(guid) DO UPDATE SET
			asset_name = excluded.asset_name,
			asset_path = excluded.asset_path,
			meta_path  = excluded.meta_path,
			mtime      = excluded.mtime`)
	if err != nil {
		return fmt.Errorf("prepare put: %w", err)
	}
	defer stmt.Close()

	for _, r := range recs {
		if _, err := stmt.ExecContext(ctx, r.GUID, r.AssetName, r.AssetPath, r.MetaPath, r.MTime); err != nil {
			return fmt.Errorf("put guid %s: %w", r.GUID, err)
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) DeleteByMetaPath(ctx context.Context, metaPaths []string) error {
	if len(metaPaths) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM guid_records WHERE meta_path = ?`)
	if err != nil {
		return fmt.Errorf("prepare delete: %w", err)
	}
	defer stmt.Close()

	for _, p := range metaPaths {
		if _, err := stmt.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("delete %s: %w", p, err)
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) All(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT guid, asset_name, asset_path, meta_path, mtime FROM guid_records`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var recs []*Record
	for rows.Next() {
		rec := &Record{}
		if err := rows.Scan(&rec.GUID, &rec.AssetName, &rec.AssetPath, &rec.MetaPath, &rec.MTime); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *sqliteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM guid_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func (s *sqliteStore) LastIndexTime(ctx context.Context) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'last_index_time'`).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read last index time: %w", err)
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, nil
	}
	return t, nil
}

func (s *sqliteStore) SetLastIndexTime(ctx context.Context, t time.Time) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('last_index_time', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		t.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("write last index time: %w", err)
	}
	return nil
}

func (s *sqliteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM guid_records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM meta WHERE key = 'last_index_time'`); err != nil {
		return fmt.Errorf("clear index time: %w", err)
	}
	return nil
}

func (s *sqliteStore) Close() error { return s.db.Close() }

// memStore is the fallback when the on-disk database cannot be opened. It
// serves the same interface from process memory, so resolution still works
// for the current run even though nothing persists.
type memStore struct {
	mu       sync.RWMutex
	byGUID   map[string]*Record
	lastTime time.Time
}

func NewMemStore() Store {
	return &memStore{byGUID: map[string]*Record{}}
}

func (m *memStore) Get(_ context.Context, guid string) (*Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.byGUID[guid]
	return rec, ok, nil
}

func (m *memStore) Put(_ context.Context, recs []*Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range recs {
		m.byGUID[r.GUID] = r
	}
	return nil
}

func (m *memStore) DeleteByMetaPath(_ context.Context, metaPaths []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doomed := map[string]bool{}
	for _, p := range metaPaths {
		doomed[p] = true
	}
	for guid, rec := range m.byGUID {
		if doomed[rec.MetaPath] {
			delete(m.byGUID, guid)
		}
	}
	return nil
}

func (m *memStore) All(_ context.Context) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := make([]*Record, 0, len(m.byGUID))
	for _, r := range m.byGUID {
		recs = append(recs, r)
	}
	return recs, nil
}

func (m *memStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byGUID), nil
}

func (m *memStore) LastIndexTime(_ context.Context) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastTime, nil
}

func (m *memStore) SetLastIndexTime(_ context.Context, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTime = t
	return nil
}

func (m *memStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byGUID = map[string]*Record{}
	m.lastTime = time.Time{}
	return nil
}

func (m *memStore) Close() error { return nil }
