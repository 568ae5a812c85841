package fsatomic

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSONReadJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "record.json")

	type record struct {
		Name string `json:"name"`
		N    int    `json:"n"`
	}

	require.NoError(t, WriteJSON(path, record{Name: "a1", N: 3}, 0644))

	var got record
	require.NoError(t, ReadJSON(path, &got))
	assert.Equal(t, "a1", got.Name)
	assert.Equal(t, 3, got.N)
}

func TestWriteFileLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")

	require.NoError(t, WriteFile(path, []byte("hello"), 0644))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "f.txt", entries[0].Name())
}

func TestReadJSONMissingFile(t *testing.T) {
	var v map[string]string
	err := ReadJSON(filepath.Join(t.TempDir(), "missing.json"), &v)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestAppendLineCreatesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")

	require.NoError(t, AppendLine(path, []byte(`{"n":1}`), 0644))
	require.NoError(t, AppendLine(path, []byte(`{"n":2}`), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"n\":1}\n{\"n\":2}\n", string(data))
}

func TestMkdirAtomicity(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "lock")

	created, err := Mkdir(dir)
	require.NoError(t, err)
	assert.True(t, created)

	createdAgain, err := Mkdir(dir)
	require.NoError(t, err)
	assert.False(t, createdAgain)
}
