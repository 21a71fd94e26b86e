// Package sqlite provides a SQLite-backed persistent store that snapshots the
// in-memory record store into a single bucketed table.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"marinecore/internal/infra/persistence/memory"
	"marinecore/pkg/domain"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const defaultPath = "marinecore.db"

const (
	bucketTaxonomies    = "taxonomies"
	bucketMarineSpecies = "marine_species"
	bucketCounters      = "counters"
)

var sqliteBuckets = []string{bucketTaxonomies, bucketMarineSpecies, bucketCounters}

type counters struct {
	LastTaxonomyID     uint64 `json:"last_taxonomy_id"`
	LastMarineSpecieID uint64 `json:"last_marine_specie_id"`
}

// Store persists the in-memory state to a single SQLite table as JSON blobs.
// The full state is written inside the commit of every mutating transaction,
// so a failed write leaves both the file and memory unchanged.
type Store struct {
	*memory.Store
	db *sql.DB
}

// NewStore opens (or creates) the database at path and hydrates the store
// from any previously persisted snapshot.
func NewStore(path string, opts ...memory.Option) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{db: db}
	opts = append(opts, memory.WithCommitHook(s.persist))
	s.Store = memory.NewStore(opts...)
	if err := s.load(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		snapshot memory.Snapshot
		cnt      counters
		found    bool
	)
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		found = true
		var target any
		switch bucket {
		case bucketTaxonomies:
			target = &snapshot.Taxonomies
		case bucketMarineSpecies:
			target = &snapshot.MarineSpecies
		case bucketCounters:
			target = &cnt
		default:
			continue
		}
		if err := json.Unmarshal(payload, target); err != nil {
			return fmt.Errorf("decode %s: %w", bucket, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if !found {
		return nil
	}
	snapshot.LastTaxonomyID = cnt.LastTaxonomyID
	snapshot.LastMarineSpecieID = cnt.LastMarineSpecieID
	s.ImportState(snapshot)
	return nil
}

func (s *Store) persist(ctx context.Context, snapshot memory.Snapshot) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range sqliteBuckets {
		var data []byte
		switch bucket {
		case bucketTaxonomies:
			data, err = json.Marshal(snapshot.Taxonomies)
		case bucketMarineSpecies:
			data, err = json.Marshal(snapshot.MarineSpecies)
		case bucketCounters:
			data, err = json.Marshal(counters{
				LastTaxonomyID:     snapshot.LastTaxonomyID,
				LastMarineSpecieID: snapshot.LastMarineSpecieID,
			})
		}
		if err != nil {
			return fmt.Errorf("encode %s: %w", bucket, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
