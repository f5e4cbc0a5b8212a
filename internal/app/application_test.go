package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"echocore/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Auth.Secret = "0123456789abcdef0123456789abcdef"
	cfg.Database.Path = filepath.Join(dir, "echo.db")
	cfg.Import.TempDir = filepath.Join(dir, "temp")
	cfg.Import.MediaDir = filepath.Join(dir, "media")
	return cfg
}

func TestNewApplication(t *testing.T) {
	app, err := NewApplication(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, app)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, app.Stop(ctx))
}

func TestNewApplication_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.Secret = "short"

	app, err := NewApplication(cfg, zap.NewNop())
	assert.Error(t, err)
	assert.Nil(t, app)
}

func TestNewApplication_RejectsUnwritableDatabasePath(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Path = filepath.Join(cfg.Database.Path, "nested", "echo.db")

	app, err := NewApplication(cfg, zap.NewNop())
	assert.Error(t, err)
	assert.Nil(t, app)
}
