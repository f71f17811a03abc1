package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	t.Run("accepts local backend", func(t *testing.T) {
		cfg := Config{Backend: BackendLocal, DataDir: "/tmp/data"}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("accepts gcs backend with bucket", func(t *testing.T) {
		cfg := Config{Backend: BackendGCS, Bucket: "geotest-store001"}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("rejects empty backend", func(t *testing.T) {
		assert.ErrorIs(t, Config{}.Validate(), ErrBackendEmpty)
	})

	t.Run("rejects unknown backend", func(t *testing.T) {
		cfg := Config{Backend: "s3"}
		assert.ErrorIs(t, cfg.Validate(), ErrBackendUnknown)
	})

	t.Run("rejects gcs without bucket", func(t *testing.T) {
		cfg := Config{Backend: BackendGCS}
		assert.ErrorIs(t, cfg.Validate(), ErrBucketEmpty)
	})

	t.Run("rejects negative workers", func(t *testing.T) {
		cfg := Config{Backend: BackendLocal, Workers: -1}
		assert.ErrorIs(t, cfg.Validate(), ErrWorkersInvalid)
	})
}
