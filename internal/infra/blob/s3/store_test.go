package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"marinecore/internal/blob/core"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
}

// fakeClient is an in-process bucket that pages list results two at a time.
type fakeClient struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	failAll error
}

func newFakeClient() *fakeClient { return &fakeClient{objects: make(map[string]fakeObject)} }

func notFound(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: "missing"}
}

func (f *fakeClient) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = fakeObject{data: data, contentType: aws.ToString(in.ContentType), metadata: in.Metadata}
	return &s3.PutObjectOutput{ETag: aws.String(`"etag"`), Size: aws.Int64(int64(len(data)))}, nil
}

func (f *fakeClient) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, notFound("NoSuchKey")
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentLength: aws.Int64(int64(len(obj.data))),
		ContentType:   aws.String(obj.contentType),
		Metadata:      obj.metadata,
		LastModified:  aws.Time(time.Unix(0, 0).UTC()),
	}, nil
}

func (f *fakeClient) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, notFound("NotFound")
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeClient) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeClient) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) && k > aws.ToString(in.ContinuationToken) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	if len(keys) > 2 {
		keys = keys[:2]
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[1])
	}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k), Size: aws.Int64(int64(len(f.objects[k].data)))})
	}
	return out, nil
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	store := NewWithClient(client, "bucket")
	assert.Equal(t, core.DriverS3, store.Driver())

	info, err := store.Put(ctx, "snap/1", strings.NewReader("payload"), core.PutOptions{ContentType: "application/json", Metadata: map[string]string{"seq": "1"}})
	require.NoError(t, err)
	assert.Equal(t, "etag", info.ETag)
	assert.Equal(t, int64(7), info.Size)

	_, err = store.Put(ctx, "snap/1", strings.NewReader("again"), core.PutOptions{})
	require.ErrorIs(t, err, core.ErrExists)

	got, rc, err := store.Get(ctx, "snap/1")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "payload", string(body))
	assert.Equal(t, "application/json", got.ContentType)
	assert.Equal(t, "1", got.Metadata["seq"])

	_, _, err = store.Get(ctx, "snap/missing")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestStoreListPaginatesAndDeleteReportsExistence(t *testing.T) {
	ctx := context.Background()
	store := NewWithClient(newFakeClient(), "bucket")
	for _, k := range []string{"p/c", "p/a", "p/b", "q/z"} {
		_, err := store.Put(ctx, k, strings.NewReader(k), core.PutOptions{})
		require.NoError(t, err)
	}
	list, err := store.List(ctx, "p/")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"p/a", "p/b", "p/c"}, []string{list[0].Key, list[1].Key, list[2].Key})

	ok, err := store.Delete(ctx, "p/a")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.Delete(ctx, "p/a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorePropagatesBackendErrors(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	client.failAll = errors.New("boom")
	store := NewWithClient(client, "bucket")

	_, err := store.Put(ctx, "k", strings.NewReader(""), core.PutOptions{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrExists)
	_, _, err = store.Get(ctx, "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrNotFound)
	_, err = store.Delete(ctx, "k")
	require.Error(t, err)
	_, err = store.List(ctx, "")
	require.Error(t, err)
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
}

func TestNewBuildsClientWithStaticCredentials(t *testing.T) {
	store, err := New(context.Background(), Config{
		Bucket:          "bucket",
		Endpoint:        "http://127.0.0.1:9000",
		AccessKeyID:     "id",
		SecretAccessKey: "secret",
		PathStyle:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, "bucket", store.bucket)
	_, ok := store.client.(*s3.Client)
	assert.True(t, ok)
}
