// Package inspect persists value snapshots to SQLite for later inspection.
package inspect

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/t10/vm"
	"github.com/chazu/t10/wire"
)

var log = commonlog.GetLogger("t10.inspect")

// ErrSnapshotNotFound indicates no snapshot is stored under the label.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Store keeps labelled snapshots in a single SQLite table.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Summary describes a stored snapshot without decoding it.
type Summary struct {
	Label   string
	Heap    uuid.UUID
	TakenAt time.Time
}

// Open opens or creates the store at path. Use ":memory:" for a private
// in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Each pooled connection to ":memory:" would see its own database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		label    TEXT PRIMARY KEY,
		heap     TEXT NOT NULL,
		taken_at TEXT NOT NULL,
		data     BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	log.Debugf("opened snapshot store %s", path)
	return &Store{db: db, path: path}, nil
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save stores snap under label, replacing any previous snapshot.
func (s *Store) Save(label string, snap *wire.Snapshot) error {
	if label == "" {
		return errors.New("saving snapshot: empty label")
	}
	data, err := wire.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot %q: %w", label, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO snapshots (label, heap, taken_at, data) VALUES (?, ?, ?, ?)",
		label, snap.Heap.String(), snap.TakenAt.UTC().Format(time.RFC3339Nano), data,
	)
	if err != nil {
		return fmt.Errorf("saving snapshot %q: %w", label, err)
	}
	log.Debugf("saved snapshot %q (%d values, %d bytes)", label, len(snap.Values), len(data))
	return nil
}

// Load retrieves the snapshot stored under label.
func (s *Store) Load(label string) (*wire.Snapshot, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM snapshots WHERE label = ?", label).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", ErrSnapshotNotFound, label)
		}
		return nil, fmt.Errorf("querying snapshot %q: %w", label, err)
	}
	return wire.Unmarshal(data)
}

// Delete removes the snapshot stored under label.
func (s *Store) Delete(label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM snapshots WHERE label = ?", label)
	if err != nil {
		return fmt.Errorf("deleting snapshot %q: %w", label, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", ErrSnapshotNotFound, label)
	}
	return nil
}

// List returns every stored snapshot, oldest first.
func (s *Store) List() ([]Summary, error) {
	rows, err := s.db.Query("SELECT label, heap, taken_at FROM snapshots ORDER BY taken_at, label")
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var label, heap, taken string
		if err := rows.Scan(&label, &heap, &taken); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		sum := Summary{Label: label}
		if sum.Heap, err = uuid.Parse(heap); err != nil {
			return nil, fmt.Errorf("snapshot %q: heap id: %w", label, err)
		}
		if sum.TakenAt, err = time.Parse(time.RFC3339Nano, taken); err != nil {
			return nil, fmt.Errorf("snapshot %q: timestamp: %w", label, err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Print writes a human-readable listing of snap to w.
func Print(w io.Writer, snap *wire.Snapshot) {
	fmt.Fprintf(w, "heap:  %s\n", snap.Heap)
	fmt.Fprintf(w, "taken: %s\n", snap.TakenAt.Format(time.RFC3339))
	if len(snap.Types) > 0 {
		fmt.Fprintln(w, "types:")
		for _, t := range snap.Types {
			fmt.Fprintf(w, "  %3d  %s\n", t.ID, t.Name)
		}
	}
	fmt.Fprintf(w, "values (%d):\n", len(snap.Values))
	for i, e := range snap.Values {
		if e.IsScalar() || e.Ownership() == vm.Null {
			fmt.Fprintf(w, "  %3d  %s\n", i, e)
			continue
		}
		fmt.Fprintf(w, "  %3d  %s as %s\n", i, e, snap.TypeName(e.TypeID))
	}
}
