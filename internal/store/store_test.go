package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Languages []string `json:"languages"`
	TempDir   string   `json:"tempDir"`
}

func TestReadMissing(t *testing.T) {
	var s sample
	found, err := Read(t.TempDir(), &s)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, sample{}, s)
}

func TestWriteThenRead(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "nested")
	written := sample{Languages: []string{"go", "java"}, TempDir: tempDir}
	require.NoError(t, Write(tempDir, written))

	raw, err := os.ReadFile(filepath.Join(tempDir, "config"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"tempDir": `)

	var read sample
	found, err := Read(tempDir, &read)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, written, read)
}

func TestReadCorrupt(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(Location(tempDir), []byte("{"), 0644))

	var s sample
	_, err := Read(tempDir, &s)
	assert.Error(t, err)
}

func TestWriteUnencodable(t *testing.T) {
	tempDir := t.TempDir()
	err := Write(tempDir, map[string]interface{}{
		"extra": map[interface{}]interface{}{true: "yes"},
	})
	require.Error(t, err)

	_, statErr := os.Stat(Location(tempDir))
	assert.True(t, os.IsNotExist(statErr))
}
