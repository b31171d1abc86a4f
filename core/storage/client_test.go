package storage_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"sapataria/core/storage"
	"sapataria/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		ssl      bool
	}{
		{"Bare", "localhost:9000", false},
		{"HTTP", "http://localhost:9000", false},
		{"HTTPS", "https://s3.amazonaws.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := storage.NewClient(storage.Config{
				Endpoint:  tt.endpoint,
				AccessKey: "testkey",
				SecretKey: "testsecret",
				UseSSL:    tt.ssl,
				Region:    "us-east-1",
			})
			assert.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestEnsureBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("Exists", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", ctx, "inventory").Return(true, nil)

		assert.NoError(t, storage.EnsureBucket(ctx, client, "inventory"))
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Created", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", ctx, "inventory").Return(false, nil)
		client.On("MakeBucket", ctx, "inventory", mock.Anything).Return(nil)

		assert.NoError(t, storage.EnsureBucket(ctx, client, "inventory"))
		client.AssertExpectations(t)
	})

	t.Run("Error", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", ctx, "inventory").Return(false, errors.New("refused"))

		assert.ErrorContains(t, storage.EnsureBucket(ctx, client, "inventory"), "refused")
	})
}

func TestDownloadAndUpload(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)

	client.On("GetObject", ctx, "inventory", "imports/stock.xlsx", mock.Anything).
		Return(io.NopCloser(strings.NewReader("payload")), nil)
	client.On("PutObject", ctx, "inventory", "reports/rejects.csv", mock.Anything, int64(3), mock.MatchedBy(func(o minio.PutObjectOptions) bool {
		return o.ContentType == "text/csv"
	})).Return(minio.UploadInfo{}, nil)

	data, err := storage.Download(ctx, client, "inventory", "imports/stock.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	assert.NoError(t, storage.Upload(ctx, client, "inventory", "reports/rejects.csv", []byte("a,b"), "text/csv"))
	client.AssertExpectations(t)
}

func TestListKeys(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)

	ch := make(chan minio.ObjectInfo, 2)
	ch <- minio.ObjectInfo{Key: "imports/a.xlsx"}
	ch <- minio.ObjectInfo{Key: "imports/b.xlsx"}
	close(ch)
	client.On("ListObjects", ctx, "inventory", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))

	keys, err := storage.ListKeys(ctx, client, "inventory", "imports/")
	require.NoError(t, err)
	assert.Equal(t, []string{"imports/a.xlsx", "imports/b.xlsx"}, keys)
}
