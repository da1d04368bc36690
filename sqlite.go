package quickleaf

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

// durableRow is one recovered cache_entries row, still encoded.
type durableRow struct {
	key       string
	blob      []byte
	createdAt int64
	ttl       sql.NullInt64
}

// durableStore wraps the single-file SQLite database. After construction the
// persistence worker is the only writer; recovery reads happen before the
// worker starts.
type durableStore struct {
	db   *sql.DB
	path string
}

func openDurableStore(path string) (*durableStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &StoreError{Op: "open", Path: path, Err: err}
		}
	}

	dsn := "file:" + path +
		"?_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &StoreError{Op: "open", Path: path, Err: err}
	}
	// One connection only: serial application is the durability contract.
	db.SetMaxOpenConns(1)

	s := &durableStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, &StoreError{Op: "migrate", Path: path, Err: err}
	}
	return s, nil
}

func (s *durableStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cache_entries (
			key           TEXT PRIMARY KEY,
			value_blob    BLOB NOT NULL,
			created_at_ms INTEGER NOT NULL,
			ttl_ms        INTEGER NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_created_at ON cache_entries(created_at_ms)`,
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT)`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}

	var ver string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&ver)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.Exec(`INSERT INTO meta (key, value) VALUES ('schema_version', ?)`, schemaVersion)
		return err
	case err != nil:
		return err
	case ver != schemaVersion:
		return fmt.Errorf("unsupported schema version %s (want %s)", ver, schemaVersion)
	}
	return nil
}

// loadAll returns every row in recovery order: creation time ascending, key
// ascending as tiebreak.
func (s *durableStore) loadAll() ([]durableRow, error) {
	rows, err := s.db.Query(
		`SELECT key, value_blob, created_at_ms, ttl_ms
		 FROM cache_entries
		 ORDER BY created_at_ms ASC, key ASC`)
	if err != nil {
		return nil, &StoreError{Op: "load", Path: s.path, Err: err}
	}
	defer rows.Close()

	var out []durableRow
	for rows.Next() {
		var r durableRow
		if err := rows.Scan(&r.key, &r.blob, &r.createdAt, &r.ttl); err != nil {
			return nil, &StoreError{Op: "load", Path: s.path, Err: err}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "load", Path: s.path, Err: err}
	}
	return out, nil
}

// apply commits a batch of queued operations in order inside one transaction.
func (s *durableStore) apply(ops []persistOp) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	for _, op := range ops {
		switch op.kind {
		case opUpsert:
			var ttl sql.NullInt64
			if op.ttlMillis >= 0 {
				ttl = sql.NullInt64{Int64: op.ttlMillis, Valid: true}
			}
			_, err = tx.Exec(
				`INSERT INTO cache_entries (key, value_blob, created_at_ms, ttl_ms)
				 VALUES (?, ?, ?, ?)
				 ON CONFLICT(key) DO UPDATE SET
				   value_blob    = excluded.value_blob,
				   created_at_ms = excluded.created_at_ms,
				   ttl_ms        = excluded.ttl_ms`,
				op.key, op.blob, op.createdAt, ttl)
		case opDelete:
			_, err = tx.Exec(`DELETE FROM cache_entries WHERE key = ?`, op.key)
		case opClear:
			_, err = tx.Exec(`DELETE FROM cache_entries`)
		}
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// purgeExpired deletes rows whose TTL elapsed before nowMillis.
func (s *durableStore) purgeExpired(nowMillis int64) error {
	_, err := s.db.Exec(
		`DELETE FROM cache_entries WHERE ttl_ms IS NOT NULL AND ? - created_at_ms > ttl_ms`,
		nowMillis)
	return err
}

func (s *durableStore) Close() error { return s.db.Close() }
