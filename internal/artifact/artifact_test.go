package artifact_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homepanel/homepanel/internal/artifact"
)

func TestWriteFile_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aqi.html")

	require.NoError(t, artifact.WriteFile(path, []byte("first, and longer")))
	require.NoError(t, artifact.WriteFile(path, []byte("second")))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))
}

func TestWriteFile_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.html")

	require.NoError(t, artifact.WriteFile(path, []byte("<b>Saturday</b>")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "events.html", entries[0].Name())
}

func TestWriteFile_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "aqi.html")

	err := artifact.WriteFile(path, []byte("x"))
	assert.Error(t, err)
}

func TestAppendLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "get_events.log")

	require.NoError(t, artifact.AppendLine(path, "one"))
	require.NoError(t, artifact.AppendLine(path, "two\n"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(content))
}
