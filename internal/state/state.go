package state

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/sqlite"

	"github.com/jxwalker/ggmod/internal/config"
)

// Fetch statuses.
const (
	StatusDownloading = "downloading"
	StatusExtracted   = "extracted"
	StatusFailed      = "failed"
)

// DB is the fetch ledger: one row per catalog file ever fetched.
type DB struct {
	SQL  *sql.DB
	Path string
}

func Open(cfg *config.Config) (*DB, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if cfg.General.DataRoot == "" {
		return nil, errors.New("general.data_root required")
	}
	if err := os.MkdirAll(cfg.General.DataRoot, 0o755); err != nil {
		return nil, err
	}
	return OpenPath(filepath.Join(cfg.General.DataRoot, "state.db"))
}

// OpenPath opens (creating if needed) the ledger at path.
func OpenPath(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout=5000&_pragma=journal_mode(WAL)", path)
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db := &DB{SQL: sqldb, Path: path}
	if err := db.InitFetchesTable(); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) Close() error {
	if db == nil || db.SQL == nil {
		return nil
	}
	return db.SQL.Close()
}

func (db *DB) InitFetchesTable() error {
	_, err := db.SQL.Exec(`CREATE TABLE IF NOT EXISTS fetches (
		file TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		dir TEXT NOT NULL,
		size INTEGER,
		status TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		last_error TEXT
	);`)
	return err
}

type FetchRow struct {
	File      string `json:"file"`
	URL       string `json:"url"`
	Dir       string `json:"dir"`
	Size      int64  `json:"size"`
	Status    string `json:"status"`
	UpdatedAt int64  `json:"updated_at"`
	LastError string `json:"last_error,omitempty"`
}

func (db *DB) UpsertFetch(row FetchRow) error {
	now := time.Now().Unix()
	_, err := db.SQL.Exec(`INSERT INTO fetches(file, url, dir, size, status, last_error, created_at, updated_at)
		VALUES(?,?,?,?,?,?,?,?)
		ON CONFLICT(file) DO UPDATE SET url=excluded.url, dir=excluded.dir, size=excluded.size, status=excluded.status, last_error=excluded.last_error, updated_at=?`,
		row.File, row.URL, row.Dir, row.Size, row.Status, row.LastError, now, now, now)
	return err
}

// GetFetch returns the row for file; ok is false when none exists.
func (db *DB) GetFetch(file string) (FetchRow, bool, error) {
	var r FetchRow
	err := db.SQL.QueryRow(`SELECT file, url, dir, COALESCE(size, 0), COALESCE(status, ''), updated_at, COALESCE(last_error, '')
		FROM fetches WHERE file=?`, file).
		Scan(&r.File, &r.URL, &r.Dir, &r.Size, &r.Status, &r.UpdatedAt, &r.LastError)
	if errors.Is(err, sql.ErrNoRows) {
		return FetchRow{}, false, nil
	}
	if err != nil {
		return FetchRow{}, false, err
	}
	return r, true, nil
}

// DeleteFetch removes the row for file.
func (db *DB) DeleteFetch(file string) error {
	_, err := db.SQL.Exec(`DELETE FROM fetches WHERE file=?`, file)
	return err
}

// ListFetches returns a snapshot of the ledger, newest first.
func (db *DB) ListFetches() ([]FetchRow, error) {
	rows, err := db.SQL.Query(`SELECT file, url, dir,
		COALESCE(size, 0),
		COALESCE(status, ''),
		updated_at,
		COALESCE(last_error, '')
	FROM fetches
	ORDER BY updated_at DESC, file ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FetchRow
	for rows.Next() {
		var r FetchRow
		if err := rows.Scan(&r.File, &r.URL, &r.Dir, &r.Size, &r.Status, &r.UpdatedAt, &r.LastError); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
