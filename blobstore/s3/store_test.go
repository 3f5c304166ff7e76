package s3

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/pairci/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) result(args mock.Arguments) error { return args.Error(1) }

func (m *mockClient) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.HeadObjectOutput)
	return out, m.result(args)
}

func (m *mockClient) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, m.result(args)
}

func (m *mockClient) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, m.result(args)
}

func (m *mockClient) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.DeleteObjectOutput)
	return out, m.result(args)
}

func (m *mockClient) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.ListObjectsV2Output)
	return out, m.result(args)
}

func (m *mockClient) UploadPart(ctx context.Context, in *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.UploadPartOutput)
	return out, m.result(args)
}

func (m *mockClient) CreateMultipartUpload(ctx context.Context, in *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.CreateMultipartUploadOutput)
	return out, m.result(args)
}

func (m *mockClient) CompleteMultipartUpload(ctx context.Context, in *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.CompleteMultipartUploadOutput)
	return out, m.result(args)
}

func (m *mockClient) AbortMultipartUpload(ctx context.Context, in *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.AbortMultipartUploadOutput)
	return out, m.result(args)
}

func TestStore_Open(t *testing.T) {
	client := new(mockClient)
	store := NewStore(client, "bucket", "runs")

	client.On("HeadObject", mock.Anything, mock.MatchedBy(func(in *s3.HeadObjectInput) bool {
		return *in.Key == "runs/missing.pci"
	})).Return(nil, &types.NotFound{}).Once()
	client.On("HeadObject", mock.Anything, mock.MatchedBy(func(in *s3.HeadObjectInput) bool {
		return *in.Bucket == "bucket" && *in.Key == "runs/a.pci"
	})).Return(&s3.HeadObjectOutput{ContentLength: aws.Int64(100)}, nil).Once()

	_, err := store.Open(t.Context(), "missing.pci")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	b, err := store.Open(t.Context(), "a.pci")
	require.NoError(t, err)
	assert.Equal(t, int64(100), b.Size())
	client.AssertExpectations(t)
}

func TestStore_Put(t *testing.T) {
	client := new(mockClient)
	store := NewStore(client, "bucket", "runs")

	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		// CRC32C("hello") = 0x9a71bb4c
		return *in.Key == "runs/a.pci" && *in.ContentLength == 5 && *in.ChecksumCRC32C == "mnG7TA=="
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	require.NoError(t, store.Put(t.Context(), "a.pci", []byte("hello")))
	client.AssertExpectations(t)
}

func TestStore_Create(t *testing.T) {
	client := new(mockClient)
	store := NewStore(client, "bucket", "runs")

	var body string
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return *in.Key == "runs/new.pci"
	})).Run(func(args mock.Arguments) {
		data, _ := io.ReadAll(args.Get(1).(*s3.PutObjectInput).Body)
		body = string(data)
	}).Return(&s3.PutObjectOutput{}, nil).Once()

	w, err := store.Create(t.Context(), "new.pci")
	require.NoError(t, err)
	_, err = w.Write([]byte("content"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, "content", body)
	assert.ErrorIs(t, w.Close(), io.ErrClosedPipe)
}

func TestStore_Delete(t *testing.T) {
	client := new(mockClient)
	store := NewStore(client, "bucket", "runs")

	client.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return *in.Key == "runs/a.pci"
	})).Return(&s3.DeleteObjectOutput{}, nil).Once()

	require.NoError(t, store.Delete(t.Context(), "a.pci"))
	client.AssertExpectations(t)
}

func TestStore_ListPagination(t *testing.T) {
	client := new(mockClient)
	store := NewStore(client, "bucket", "runs/")

	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return *in.Prefix == "runs" && in.ContinuationToken == nil
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("token"),
		Contents:              []types.Object{{Key: aws.String("runs/b.pci")}},
	}, nil).Once()
	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return in.ContinuationToken != nil && *in.ContinuationToken == "token"
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated: aws.Bool(false),
		Contents:    []types.Object{{Key: aws.String("runs/a/c.pci")}},
	}, nil).Once()

	names, err := store.List(t.Context(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/c.pci", "b.pci"}, names)
}

func TestBlob_ReadAt(t *testing.T) {
	client := new(mockClient)
	b := &s3Blob{client: client, bucket: "bucket", key: "k", size: 10}

	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return *in.Range == "bytes=0-4"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("hello"))}, nil).Once()
	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return *in.Range == "bytes=8-9"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("ld"))}, nil).Once()

	p := make([]byte, 5)
	n, err := b.ReadAt(t.Context(), p, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(p[:n]))

	n, err = b.ReadAt(t.Context(), p, 8)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "ld", string(p[:n]))

	_, err = b.ReadAt(t.Context(), p, 10)
	assert.ErrorIs(t, err, io.EOF)
}

func TestBlob_ReadRange(t *testing.T) {
	client := new(mockClient)
	b := &s3Blob{client: client, bucket: "bucket", key: "k", size: 10}

	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return *in.Range == "bytes=2-9"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("llo worl"))}, nil).Once()

	rc, err := b.ReadRange(t.Context(), 2, 100)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "llo worl", string(data))
}

// TestStore_Integration runs against the bucket in PAIRCI_S3_BUCKET with
// the default AWS configuration.
func TestStore_Integration(t *testing.T) {
	bucket := os.Getenv("PAIRCI_S3_BUCKET")
	if bucket == "" {
		t.Skip("PAIRCI_S3_BUCKET not set")
	}
	ctx := t.Context()

	store, err := New(ctx, bucket, WithPrefix("pairci-it/"))
	require.NoError(t, err)

	w, err := store.Create(ctx, "a.pci")
	require.NoError(t, err)
	_, err = w.Write([]byte("integration"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	b, err := store.Open(ctx, "a.pci")
	require.NoError(t, err)
	assert.Equal(t, int64(11), b.Size())
	require.NoError(t, store.Delete(ctx, "a.pci"))
}
