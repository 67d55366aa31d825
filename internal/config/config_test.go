package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, 900, cfg.SignedURLTTL)
	assert.Equal(t, 25, cfg.MaxUploadMB)
	assert.Equal(t, "auto", cfg.S3Region)
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("ADDR", ":8081")
	t.Setenv("MAX_UPLOAD_MB", "5")
	t.Setenv("S3_ENDPOINT", "https://minio.local:9000")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.Addr)
	assert.Equal(t, int64(5*1024*1024), cfg.MaxUploadBytes())
	assert.Equal(t, "https://minio.local:9000", cfg.S3BaseEndpoint())
}

func TestS3BaseEndpoint_DerivedFromAccount(t *testing.T) {
	cfg := &Config{AccountID: "abc123"}
	assert.Equal(t, "https://abc123.r2.cloudflarestorage.com", cfg.S3BaseEndpoint())
}
