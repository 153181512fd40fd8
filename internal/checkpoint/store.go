package checkpoint

import (
	"context"
	"crypto/sha256"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/chemputer/chempiler/internal/rig"
)

//go:embed schema.sql
var schemaSQL string

// TokenGenerator mints run identifiers. Production uses UUIDv7Generator;
// tests pin the token for reproducible logs.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run tokens, so run rows
// sort chronologically by id.
type UUIDv7Generator struct{}

func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Fingerprint returns the SHA-256 content fingerprint used to bind a
// checkpoint to the exact script and topology it was produced against.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Run is one row of the runs table.
type Run struct {
	ID           string
	ScriptHash   string
	TopologyHash string
	Completed    bool
}

// ExecutionState is what resume hands back to the caller: the first
// uncommitted command index and the device-state snapshot to restore.
type ExecutionState struct {
	RunID     string
	Cursor    int
	Snapshot  rig.Snapshot
	Completed bool
}

// Store is the durable checkpoint log, one SQLite file per rig.
type Store struct {
	db *sql.DB
}

// Open creates or opens the checkpoint database. WAL mode allows an
// operator to inspect the log while a run is writing; a single
// connection avoids SQLITE_BUSY on the write path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect checkpoint db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply checkpoint schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun records a new run bound to the given content fingerprints.
// Idempotent on run id.
func (s *Store) BeginRun(ctx context.Context, id, scriptHash, topologyHash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, script_hash, topology_hash)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, scriptHash, topologyHash)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// Commit appends one committed command to the log. Idempotent on
// (run, index): re-committing an index a crash already persisted is a
// no-op, never a duplicate.
func (s *Store) Commit(ctx context.Context, runID string, index int, verb string, line int, snap rig.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO commits (run_id, idx, verb, line, snapshot)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, idx) DO NOTHING
	`, runID, index, verb, line, string(body))
	if err != nil {
		return fmt.Errorf("commit index %d: %w", index, err)
	}
	return nil
}

// MarkCompleted flags a run as finished; completed runs are not resumed.
func (s *Store) MarkCompleted(ctx context.Context, runID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE runs SET completed = 1 WHERE id = ?`, runID)
	if err != nil {
		return fmt.Errorf("mark run completed: %w", err)
	}
	return nil
}

// LatestRun returns the newest run row, or sql.ErrNoRows wrapped when
// the log is empty.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	var r Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, script_hash, topology_hash, completed
		FROM runs
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&r.ID, &r.ScriptHash, &r.TopologyHash, &r.Completed)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("no runs recorded: %w", err)
	}
	if err != nil {
		return Run{}, fmt.Errorf("load latest run: %w", err)
	}
	return r, nil
}

// Resume loads the execution state of a run, verifying that the current
// script and topology fingerprints match the ones the checkpoint was
// produced against. The returned cursor is the first uncommitted index.
func (s *Store) Resume(ctx context.Context, runID, scriptHash, topologyHash string) (*ExecutionState, error) {
	var r Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, script_hash, topology_hash, completed
		FROM runs WHERE id = ?
	`, runID).Scan(&r.ID, &r.ScriptHash, &r.TopologyHash, &r.Completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s not found: %w", runID, err)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	if r.ScriptHash != scriptHash {
		return nil, &MismatchError{RunID: runID, Field: "script", Want: r.ScriptHash, Got: scriptHash}
	}
	if r.TopologyHash != topologyHash {
		return nil, &MismatchError{RunID: runID, Field: "topology", Want: r.TopologyHash, Got: topologyHash}
	}

	st := &ExecutionState{RunID: runID, Completed: r.Completed}

	var idx int
	var body string
	err = s.db.QueryRowContext(ctx, `
		SELECT idx, snapshot
		FROM commits
		WHERE run_id = ?
		ORDER BY idx DESC
		LIMIT 1
	`, runID).Scan(&idx, &body)
	if errors.Is(err, sql.ErrNoRows) {
		// Run began but nothing committed: start from the top.
		st.Cursor = 0
		st.Snapshot = rig.Snapshot{}
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load last commit of run %s: %w", runID, err)
	}

	st.Cursor = idx + 1
	if err := json.Unmarshal([]byte(body), &st.Snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot of run %s: %w", runID, err)
	}
	return st, nil
}

// CommitCount reports how many commands a run has committed.
func (s *Store) CommitCount(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM commits WHERE run_id = ?`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count commits: %w", err)
	}
	return n, nil
}
