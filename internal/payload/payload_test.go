package payload

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "requirements.txt")

	require.NoError(t, WriteManifest(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Pillow")
}

func TestStageScript(t *testing.T) {
	src := filepath.Join(t.TempDir(), "starhop.py")
	require.NoError(t, os.WriteFile(src, []byte("print('v1')\n"), 0o644))
	dest := filepath.Join(t.TempDir(), "root", "starhop.py")

	require.NoError(t, StageScript(src, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "print('v1')\n", string(data))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(dest)
		require.NoError(t, err)
		assert.NotZero(t, info.Mode()&0o111, "staged payload must be executable")
	}

	// restaging overwrites
	require.NoError(t, os.WriteFile(src, []byte("print('v2')\n"), 0o644))
	require.NoError(t, StageScript(src, dest))
	data, err = os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "print('v2')\n", string(data))
}

func TestLocateScript_Override(t *testing.T) {
	src := filepath.Join(t.TempDir(), "starhop.py")
	require.NoError(t, os.WriteFile(src, []byte("print()\n"), 0o644))

	path, err := LocateScript(src)
	require.NoError(t, err)
	assert.Equal(t, src, path)

	_, err = LocateScript(filepath.Join(t.TempDir(), "missing.py"))
	require.Error(t, err)
}
