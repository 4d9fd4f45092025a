package s3

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrooksCoder/RegistrationApp/pkg/config"
)

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{S3Region: "us-east-1"})
	assert.ErrorContains(t, err, "bucket")

	_, err = New(context.Background(), config.StorageConfig{S3Bucket: "images"})
	assert.ErrorContains(t, err, "region")
}

func TestNewWithStaticKeysAndEndpoint(t *testing.T) {
	s, err := New(context.Background(), config.StorageConfig{
		S3Bucket:    "images",
		S3Region:    "us-east-1",
		S3Endpoint:  "http://localhost:9000",
		S3AccessKey: "minio",
		S3SecretKey: "minio123",
	})
	require.NoError(t, err)
	assert.Equal(t, "images", s.bucket)
	assert.NotNil(t, s.presign)
}
