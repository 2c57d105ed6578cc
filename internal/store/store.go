// Package store provides SQLite persistence for examdeck's batch cache.
// Annotation rounds loaded from backend JSON are cached here so a review
// session can be reopened, and so the previous round is available for
// cross-round comparison without keeping the original files around.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kbenson/examdeck/internal/model"
)

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex // Protects all database operations
}

// BatchInfo describes one cached annotation round.
type BatchInfo struct {
	ID       int64
	TaskID   string
	Round    int
	Loaded   time.Time
	SourcePath string
	ItemCount  int
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// For in-memory databases, use shared cache mode so all connections
		// in the pool see the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

// createTables creates the required tables and indexes if they don't exist.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS batches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id TEXT NOT NULL,
		round INTEGER NOT NULL,
		loaded_at DATETIME NOT NULL,
		source_path TEXT,
		UNIQUE(task_id, round)
	);

	CREATE TABLE IF NOT EXISTS examples (
		batch_id INTEGER NOT NULL,
		uid TEXT,
		text_to_annotate TEXT,
		cluster INTEGER,
		pca_x REAL,
		pca_y REAL,
		raw_annotations TEXT,
		analyses TEXT,
		annotation TEXT,
		confidence REAL,
		has_confidence INTEGER DEFAULT 0,
		guideline_improvement TEXT,
		new_edge_case INTEGER DEFAULT 0,
		is_reannotated INTEGER DEFAULT 0,
		FOREIGN KEY (batch_id) REFERENCES batches(id)
	);

	CREATE INDEX IF NOT EXISTS idx_batches_task ON batches(task_id, round DESC);
	CREATE INDEX IF NOT EXISTS idx_examples_batch ON examples(batch_id);
	CREATE INDEX IF NOT EXISTS idx_examples_uid ON examples(uid);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveBatch caches one annotation round, replacing any existing cache for
// the same (task, round). Thread-safe: acquires write lock.
func (s *Store) SaveBatch(taskID string, round int, sourcePath string, items []model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Replace semantics: a reloaded round overwrites the stale cache.
	var oldID int64
	err = tx.QueryRow("SELECT id FROM batches WHERE task_id = ? AND round = ?", taskID, round).Scan(&oldID)
	if err == nil {
		if _, err := tx.Exec("DELETE FROM examples WHERE batch_id = ?", oldID); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM batches WHERE id = ?", oldID); err != nil {
			return err
		}
	} else if err != sql.ErrNoRows {
		return err
	}

	res, err := tx.Exec(
		"INSERT INTO batches (task_id, round, loaded_at, source_path) VALUES (?, ?, ?, ?)",
		taskID, round, time.Now().UTC(), sourcePath,
	)
	if err != nil {
		return err
	}
	batchID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO examples (
			batch_id, uid, text_to_annotate, cluster, pca_x, pca_y,
			raw_annotations, analyses, annotation, confidence, has_confidence,
			guideline_improvement, new_edge_case, is_reannotated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, item := range items {
		_, err := stmt.Exec(
			batchID,
			item.UID,
			item.TextToAnnotate,
			item.Cluster,
			item.PCAX,
			item.PCAY,
			item.RawAnnotations,
			item.Analyses,
			item.Annotation,
			item.Confidence,
			boolToInt(item.HasConfidence),
			item.GuidelineImprovement,
			boolToInt(item.NewEdgeCase),
			boolToInt(item.IsReannotated),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadBatch returns the cached items for one (task, round).
// Thread-safe: acquires read lock.
func (s *Store) LoadBatch(taskID string, round int) ([]model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var batchID int64
	err := s.db.QueryRow(
		"SELECT id FROM batches WHERE task_id = ? AND round = ?", taskID, round,
	).Scan(&batchID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no cached batch for task %q round %d", taskID, round)
	}
	if err != nil {
		return nil, err
	}

	return s.queryItems(batchID)
}

// LatestRounds returns the most recent round and, when present, the round
// before it for a task. previous is nil when only one round is cached.
// Thread-safe: acquires read lock.
func (s *Store) LatestRounds(taskID string) (current, previous []model.Item, round int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT id, round FROM batches WHERE task_id = ? ORDER BY round DESC LIMIT 2", taskID,
	)
	if err != nil {
		return nil, nil, 0, err
	}
	defer rows.Close()

	type batchRow struct {
		id    int64
		round int
	}
	var batches []batchRow
	for rows.Next() {
		var b batchRow
		if err := rows.Scan(&b.id, &b.round); err != nil {
			return nil, nil, 0, err
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, 0, err
	}
	if len(batches) == 0 {
		return nil, nil, 0, fmt.Errorf("no cached batches for task %q", taskID)
	}

	current, err = s.queryItems(batches[0].id)
	if err != nil {
		return nil, nil, 0, err
	}
	if len(batches) > 1 {
		previous, err = s.queryItems(batches[1].id)
		if err != nil {
			return nil, nil, 0, err
		}
	}

	return current, previous, batches[0].round, nil
}

// ListBatches returns all cached rounds, newest first.
// Thread-safe: acquires read lock.
func (s *Store) ListBatches() ([]BatchInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT b.id, b.task_id, b.round, b.loaded_at, COALESCE(b.source_path, ''),
			(SELECT COUNT(*) FROM examples e WHERE e.batch_id = b.id)
		FROM batches b
		ORDER BY b.loaded_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []BatchInfo
	for rows.Next() {
		var info BatchInfo
		if err := rows.Scan(&info.ID, &info.TaskID, &info.Round, &info.Loaded, &info.SourcePath, &info.ItemCount); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// queryItems loads all examples of one batch in insertion order.
// Caller must hold s.mu (read lock is sufficient).
func (s *Store) queryItems(batchID int64) ([]model.Item, error) {
	rows, err := s.db.Query(`
		SELECT uid, text_to_annotate, cluster, pca_x, pca_y, raw_annotations,
			analyses, annotation, confidence, has_confidence,
			guideline_improvement, new_edge_case, is_reannotated
		FROM examples
		WHERE batch_id = ?
		ORDER BY rowid
	`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		var item model.Item
		var hasConf, edge, rean int
		err := rows.Scan(
			&item.UID,
			&item.TextToAnnotate,
			&item.Cluster,
			&item.PCAX,
			&item.PCAY,
			&item.RawAnnotations,
			&item.Analyses,
			&item.Annotation,
			&item.Confidence,
			&hasConf,
			&item.GuidelineImprovement,
			&edge,
			&rean,
		)
		if err != nil {
			return nil, err
		}
		item.HasConfidence = hasConf != 0
		item.NewEdgeCase = edge != 0
		item.IsReannotated = rean != 0
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// boolToInt converts a bool to an int for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
