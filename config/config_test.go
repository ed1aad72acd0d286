package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "127.0.0.1:7000", cfg.Viewer.Addr)
	assert.False(t, cfg.Viewer.OpenBrowser)
	assert.Equal(t, "robot", cfg.Model.Name)
	assert.Empty(t, cfg.Model.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
viewer:
  addr: ":7001"
  open_browser: true

model:
  path: /opt/robots/arm.urdf
  name: arm
  considered_joints: [shoulder, elbow]
  package_dirs: [/opt/robots/share]
  color: [0.2, 0.4, 0.6]

logging:
  level: debug
  log_file: /tmp/robot_viewer.log
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, ":7001", cfg.Viewer.Addr)
	assert.True(t, cfg.Viewer.OpenBrowser)
	assert.Equal(t, "/opt/robots/arm.urdf", cfg.Model.Path)
	assert.Equal(t, "arm", cfg.Model.Name)
	assert.Equal(t, []string{"shoulder", "elbow"}, cfg.Model.ConsideredJoints)
	assert.Equal(t, []string{"/opt/robots/share"}, cfg.Model.PackageDirs)
	assert.Equal(t, []float64{0.2, 0.4, 0.6}, cfg.Model.Color)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/robot_viewer.log", cfg.Logging.LogFile)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("model:\n  path: a.urdf\n"), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "a.urdf", cfg.Model.Path)
	assert.Equal(t, "robot", cfg.Model.Name)
	assert.Equal(t, "127.0.0.1:7000", cfg.Viewer.Addr)
}

func TestLoadRejectsBadColor(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("model:\n  color: [1, 0]\n"), 0644))

	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("viewer: [unterminated"), 0644))

	_, err := Load(configPath)
	assert.Error(t, err)
}
