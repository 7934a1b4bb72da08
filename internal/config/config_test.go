package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should fall back to defaults when file is missing", func(t *testing.T) {
		// when
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		require.NoError(t, err)
		assert.Equal(t, 8181, cfg.Server.Port)
		assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, "burnwise", cfg.Database.Schema)
		assert.False(t, cfg.Access.AllowAll)
	})

	t.Run("should layer yaml file and environment over defaults", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "application.yaml")
		content := []byte("db:\n  host: db.internal\n  port: 6543\naccess:\n  managers:\n    - alice\n")
		require.NoError(t, os.WriteFile(path, content, 0o600))
		t.Setenv("BURNWISE_DB_NAME", "analytics")
		t.Setenv("BURNWISE_ACCESS_ALLOWALL", "true")

		// when
		cfg, err := Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, 6543, cfg.Database.Port)
		assert.Equal(t, "analytics", cfg.Database.Name)
		assert.Equal(t, []string{"alice"}, cfg.Access.Managers)
		assert.True(t, cfg.Access.AllowAll)
	})
}
