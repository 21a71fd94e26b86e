package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"marinecore/internal/blob"
	"marinecore/internal/infra/persistence/memory"
	"marinecore/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyBlobs struct {
	blob.Store
	failPut  bool
	failList bool
}

func (f *flakyBlobs) Put(ctx context.Context, key string, r io.Reader, opts blob.PutOptions) (blob.Info, error) {
	if f.failPut {
		return blob.Info{}, errors.New("bucket unavailable")
	}
	return f.Store.Put(ctx, key, r, opts)
}

func (f *flakyBlobs) List(ctx context.Context, prefix string) ([]blob.Info, error) {
	if f.failList {
		return nil, errors.New("list unavailable")
	}
	return f.Store.List(ctx, prefix)
}

func createTaxonomy(t *testing.T, s *Store, kingdom string) domain.Taxonomy {
	t.Helper()
	var created domain.Taxonomy
	_, err := s.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateTaxonomy(domain.Taxonomy{Kingdom: kingdom})
		return err
	})
	require.NoError(t, err)
	return created
}

func TestSnapshotsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemory()
	fixed := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	s, err := NewStore(ctx, blobs, "tenant/", WithMemoryOptions(memory.WithClock(func() time.Time { return fixed })))
	require.NoError(t, err)
	first := createTaxonomy(t, s, "Animalia")
	createTaxonomy(t, s, "Plantae")
	_, err = s.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.DeleteTaxonomy(2)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), s.Sequence())
	assert.Equal(t, fixed, first.CreatedAt)

	reopened, err := NewStore(ctx, blobs, "tenant/")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), reopened.Sequence())
	got, ok := findTaxonomy(reopened, first.ID)
	require.True(t, ok)
	assert.Equal(t, "Animalia", got.Kingdom)
	assert.Len(t, listTaxonomies(reopened), 1)

	// The deleted id is not reissued after a reload.
	next := createTaxonomy(t, reopened, "Fungi")
	assert.Equal(t, uint64(3), next.ID)
}

func TestRetentionPrunesOldSnapshots(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemory()
	s, err := NewStore(ctx, blobs, "", WithRetention(2))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		createTaxonomy(t, s, "Animalia")
	}
	infos, err := blobs.List(ctx, "snapshots/")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "snapshots/00000000000000000004.json", infos[0].Key)
	assert.Equal(t, "snapshots/00000000000000000005.json", infos[1].Key)
}

func TestFailedWriteLeavesMemoryUnchanged(t *testing.T) {
	ctx := context.Background()
	blobs := &flakyBlobs{Store: blob.NewMemory()}
	s, err := NewStore(ctx, blobs, "")
	require.NoError(t, err)
	createTaxonomy(t, s, "Animalia")

	blobs.failPut = true
	_, err = s.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateTaxonomy(domain.Taxonomy{Kingdom: "Plantae"})
		return err
	})
	require.ErrorContains(t, err, "write snapshot")
	assert.Len(t, listTaxonomies(s), 1)
	assert.Equal(t, uint64(1), s.Sequence())

	// Failed prune listing does not fail the commit.
	blobs.failPut = false
	blobs.failList = true
	createTaxonomy(t, s, "Plantae")
	assert.Equal(t, uint64(2), s.Sequence())
}

func TestNewStoreErrors(t *testing.T) {
	ctx := context.Background()
	_, err := NewStore(ctx, nil, "")
	require.Error(t, err)

	_, err = NewStore(ctx, &flakyBlobs{Store: blob.NewMemory(), failList: true}, "")
	require.ErrorContains(t, err, "list snapshots")

	blobs := blob.NewMemory()
	_, err = blobs.Put(ctx, "snapshots/00000000000000000001.json", bytes.NewReader([]byte("{oops")), blob.PutOptions{})
	require.NoError(t, err)
	_, err = NewStore(ctx, blobs, "")
	require.ErrorContains(t, err, "decode snapshot")
}

func TestForeignObjectsAreIgnored(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemory()
	_, err := blobs.Put(ctx, "snapshots/README.txt", bytes.NewReader([]byte("notes")), blob.PutOptions{})
	require.NoError(t, err)
	s, err := NewStore(ctx, blobs, "")
	require.NoError(t, err)
	assert.Empty(t, listTaxonomies(s))
	assert.Equal(t, blobs, s.Blobs())
}
