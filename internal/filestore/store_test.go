package filestore

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/redline/internal/config"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := New(config.FileStoreConfig{Type: "local", Dir: t.TempDir()})
	require.NoError(t, err)
	require.Equal(t, "local", store.Type())

	require.NoError(t, store.Save(ctx, "snapshots/a.json", bytes.NewReader([]byte("v1")), 2))
	require.NoError(t, store.Save(ctx, "snapshots/a.json", bytes.NewReader([]byte("v2")), 2))

	rc, err := store.Open(ctx, "snapshots/a.json")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "v2", string(data))
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := New(config.FileStoreConfig{Type: "local", Dir: t.TempDir()})
	require.NoError(t, err)
	err = store.Save(context.Background(), "../escape.json", bytes.NewReader(nil), 0)
	require.Error(t, err)
	_, err = store.Open(context.Background(), "")
	require.Error(t, err)
}

func TestNewUnknownType(t *testing.T) {
	_, err := New(config.FileStoreConfig{Type: "ftp"})
	require.Error(t, err)
}

type memoryS3 struct {
	objects map[string][]byte
}

func (m *memoryS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	m.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *memoryS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data := m.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)]
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3StorePrefixesKeys(t *testing.T) {
	ctx := context.Background()
	api := &memoryS3{objects: map[string][]byte{}}
	store := newS3Store(api, "bucket", "/redline/")

	require.NoError(t, store.Save(ctx, "snapshots/a.json", strings.NewReader("payload"), 7))
	require.Contains(t, api.objects, "bucket/redline/snapshots/a.json")

	rc, err := store.Open(ctx, "snapshots/a.json")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "payload", string(data))
}

func TestBuildS3Endpoint(t *testing.T) {
	require.Equal(t, "", buildS3Endpoint("", true))
	require.Equal(t, "https://minio:9000", buildS3Endpoint("minio:9000", true))
	require.Equal(t, "http://minio:9000", buildS3Endpoint("minio:9000", false))
	require.Equal(t, "http://x", buildS3Endpoint("http://x", true))
}
