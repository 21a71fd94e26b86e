package memory

import (
	"bytes"
	"context"
	"io"
	"testing"

	"marinecore/internal/blob/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	assert.Equal(t, core.DriverMemory, s.Driver())

	meta := map[string]string{"k": "v"}
	info, err := s.Put(ctx, "a/1", bytes.NewReader([]byte("one")), core.PutOptions{ContentType: "text/plain", Metadata: meta})
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size)
	meta["k"] = "mutated"

	_, err = s.Put(ctx, "a/1", bytes.NewReader(nil), core.PutOptions{})
	require.ErrorIs(t, err, core.ErrExists)

	got, rc, err := s.Get(ctx, "a/1")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "one", string(body))
	assert.Equal(t, "v", got.Metadata["k"], "stored metadata is isolated from caller maps")

	_, err = s.Put(ctx, "b/2", bytes.NewReader([]byte("two")), core.PutOptions{})
	require.NoError(t, err)
	list, err := s.List(ctx, "a/")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a/1", list[0].Key)

	ok, err := s.Delete(ctx, "a/1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Delete(ctx, "a/1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = s.Get(ctx, "a/1")
	require.ErrorIs(t, err, core.ErrNotFound)
}
