// Package jobstore persists decode job and per-article progress to
// sqlite, adapted from the teacher's internal/store/store.go. The
// teacher's release/queue-item schema (Newznab search results, PAR2
// repair state) belongs to a different scope; this keeps its
// connection-setup idiom (WAL + busy_timeout pragmas via the DSN,
// directory creation, a Ping after Open) and its plain
// database/sql-with-DBO-structs mapping style, against a much smaller
// schema of just decode jobs and decoded articles.
//
// The teacher's migrate.go pulls in golang-migrate, a dependency its
// own go.mod never actually lists (an inconsistency inherited, not
// fixed, by copying) — this store applies its schema with a plain
// CREATE TABLE IF NOT EXISTS instead, which is all two small tables
// need.
package jobstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS decode_jobs (
	id          TEXT PRIMARY KEY,
	nzb_path    TEXT NOT NULL,
	out_dir     TEXT NOT NULL,
	status      TEXT NOT NULL,
	error       TEXT,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS decoded_articles (
	id            TEXT PRIMARY KEY,
	job_id        TEXT NOT NULL REFERENCES decode_jobs(id),
	message_id    TEXT NOT NULL,
	file_name     TEXT,
	part_begin    INTEGER NOT NULL,
	part_end      INTEGER NOT NULL,
	part_size     INTEGER NOT NULL,
	bytes_decoded INTEGER NOT NULL,
	crc_expected  INTEGER,
	crc_computed  INTEGER,
	status        TEXT NOT NULL,
	error         TEXT,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_decoded_articles_job_id ON decoded_articles(job_id);
`

// Store is a sqlite-backed record of decode jobs and the articles
// decoded within them.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) the directory holding dbPath, opens the
// database, and applies the schema.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("jobstore: create directory for %s: %w", dbPath, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("jobstore: open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("jobstore: connect to sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("jobstore: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
