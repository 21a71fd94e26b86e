// Package objectstore persists record store snapshots as versioned JSON
// objects in a blob.Store (filesystem, S3/MinIO or memory).
package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"marinecore/internal/blob"
	"marinecore/internal/infra/persistence/memory"
	"marinecore/pkg/domain"
	"path"
	"strconv"
	"strings"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const (
	snapshotDir      = "snapshots/"
	snapshotExt      = ".json"
	defaultRetention = 3
)

// Store mirrors the in-memory record store into a blob bucket. Every
// committed transaction writes a new snapshot object; blob writes are
// create-only, so snapshots are never overwritten in place.
type Store struct {
	*memory.Store
	blobs     blob.Store
	prefix    string
	seq       uint64
	retention int
	memOpts   []memory.Option
}

// Option configures the objectstore driver.
type Option func(*Store)

// WithRetention sets how many snapshot objects are kept after each commit.
func WithRetention(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.retention = n
		}
	}
}

// WithMemoryOptions forwards options to the wrapped record store.
func WithMemoryOptions(opts ...memory.Option) Option {
	return func(s *Store) { s.memOpts = append(s.memOpts, opts...) }
}

// NewStore hydrates from the newest snapshot under prefix, if any.
func NewStore(ctx context.Context, blobs blob.Store, prefix string, opts ...Option) (*Store, error) {
	if blobs == nil {
		return nil, errors.New("objectstore: blob store required")
	}
	s := &Store{blobs: blobs, prefix: prefix, retention: defaultRetention}
	for _, opt := range opts {
		opt(s)
	}
	memOpts := append(s.memOpts, memory.WithCommitHook(s.persist))
	s.memOpts = nil
	s.Store = memory.NewStore(memOpts...)
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Blobs exposes the underlying blob store.
func (s *Store) Blobs() blob.Store { return s.blobs }

// Sequence returns the sequence number of the newest persisted snapshot.
func (s *Store) Sequence() uint64 { return s.seq }

func (s *Store) keyFor(seq uint64) string {
	return fmt.Sprintf("%s%s%020d%s", s.prefix, snapshotDir, seq, snapshotExt)
}

func (s *Store) listSnapshots(ctx context.Context) ([]blob.Info, error) {
	infos, err := s.blobs.List(ctx, s.prefix+snapshotDir)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := infos[:0]
	for _, info := range infos {
		if _, ok := seqFromKey(info.Key); ok {
			out = append(out, info)
		}
	}
	return out, nil
}

func seqFromKey(key string) (uint64, bool) {
	base := path.Base(key)
	if !strings.HasSuffix(base, snapshotExt) {
		return 0, false
	}
	seq, err := strconv.ParseUint(strings.TrimSuffix(base, snapshotExt), 10, 64)
	return seq, err == nil
}

func (s *Store) load(ctx context.Context) error {
	infos, err := s.listSnapshots(ctx)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		return nil
	}
	// Zero-padded sequence numbers sort lexically.
	latest := infos[len(infos)-1]
	_, rc, err := s.blobs.Get(ctx, latest.Key)
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", latest.Key, err)
	}
	defer func() { _ = rc.Close() }()
	var snapshot memory.Snapshot
	if err := json.NewDecoder(rc).Decode(&snapshot); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", latest.Key, err)
	}
	s.seq, _ = seqFromKey(latest.Key)
	s.ImportState(snapshot)
	return nil
}

// persist runs under the record store's writer lock, so seq needs no
// further synchronisation.
func (s *Store) persist(ctx context.Context, snapshot memory.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	next := s.seq + 1
	if _, err := s.blobs.Put(ctx, s.keyFor(next), bytes.NewReader(data), blob.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"sequence": strconv.FormatUint(next, 10)},
	}); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	s.seq = next
	s.prune(ctx)
	return nil
}

// prune is best effort: the new snapshot is already durable, so a failure
// here only leaves extra objects behind.
func (s *Store) prune(ctx context.Context) {
	infos, err := s.listSnapshots(ctx)
	if err != nil || len(infos) <= s.retention {
		return
	}
	for _, info := range infos[:len(infos)-s.retention] {
		_, _ = s.blobs.Delete(ctx, info.Key)
	}
}
