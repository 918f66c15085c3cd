package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greencart/internal/adapters/config"
)

func TestS3Key(t *testing.T) {
	s, err := NewS3(context.Background(), config.StorageConfig{
		Endpoint:       "http://localhost:9000",
		Region:         "us-east-1",
		AccessKey:      "minio",
		SecretKey:      "minio123",
		ForcePathStyle: true,
		Bucket:         "greencart",
		Prefix:         "/static/",
	})
	require.NoError(t, err)

	assert.Equal(t, "greencart", s.Bucket())
	assert.Equal(t, "static/css/app.css", s.Key("css/app.css"))
	assert.Equal(t, "static/js/app.js", s.Key("/js/app.js"))

	s.prefix = ""
	assert.Equal(t, "img/logo.png", s.Key("img/logo.png"))
}
