package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "com.starhop.agent", cfg.ServiceLabel)
	assert.Equal(t, "python3", cfg.PythonTool)
	assert.Equal(t, "arm64", cfg.TargetArch)
	assert.NotEmpty(t, cfg.InstallRoot)
	assert.Contains(t, cfg.APIBaseURL, "api.nasa.gov")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("STARHOP_SERVICE_LABEL", "com.example.custom")
	t.Setenv("STARHOP_PYTHON_TOOL", "python3.12")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "com.example.custom", cfg.ServiceLabel)
	assert.Equal(t, "python3.12", cfg.PythonTool)
}

func TestDerivedPaths(t *testing.T) {
	cfg := &Config{
		InstallRoot:     "/Users/u/Library/Application Support/StarHop",
		ServiceLabel:    "com.starhop.agent",
		LaunchAgentsDir: "/Users/u/Library/LaunchAgents",
	}

	assert.Equal(t, filepath.Join(cfg.InstallRoot, "nasa_apod_key"), cfg.CredentialPath())
	assert.Equal(t, filepath.Join(cfg.InstallRoot, "venv"), cfg.VenvPath())
	assert.Equal(t, filepath.Join(cfg.InstallRoot, "install.json"), cfg.RecordPath())
	assert.Equal(t, filepath.Join(cfg.InstallRoot, "logs", "installer.log"), cfg.LogFilePath())
	assert.Equal(t, filepath.Join(cfg.InstallRoot, "starhop.py"), cfg.PayloadPath())
	assert.Equal(t, "/Users/u/Library/LaunchAgents/com.starhop.agent.plist", cfg.DescriptorPath())
}
