package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeDataset creates sensors_<n>.txt in dir with the given body.
func writeDataset(t *testing.T, dir string, n int, body string) {
	t.Helper()
	seq := NewSequence(dir, "")
	require.NoError(t, os.WriteFile(seq.Path(n), []byte(body), 0o644))
}

func TestNewSequence_Defaults(t *testing.T) {
	seq := NewSequence("", "")
	require.Equal(t, filepath.Join("sensors", "sensors_3.txt"), seq.Path(3))
	require.Zero(t, seq.Index())
}

func TestSequence_WalksNumberedFiles(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, 1, "1 1 1 1 1\n2 2 2 2 2\n")
	writeDataset(t, dir, 2, "1 1 9 9 9\n")

	seq := NewSequence(dir, "")
	first, err := seq.OpenFirst()
	require.NoError(t, err)
	require.Equal(t, 1, first.Index)
	require.Len(t, first.Records, 2)

	next, err := seq.OpenNext()
	require.NoError(t, err)
	require.Equal(t, 2, next.Index)
	require.Equal(t, 9, next.Records[0].Temperature)

	// The cursor stays on the last good file once the sequence runs out.
	_, err = seq.OpenNext()
	require.ErrorIs(t, err, ErrNoMoreDatasets)
	require.Equal(t, 2, seq.Index())

	writeDataset(t, dir, 3, "")
	last, err := seq.OpenNext()
	require.NoError(t, err)
	require.Equal(t, 3, last.Index)
	require.Empty(t, last.Records)
}

func TestSequence_MissingFirstDataset(t *testing.T) {
	seq := NewSequence(t.TempDir(), "")
	_, err := seq.OpenFirst()
	require.ErrorIs(t, err, ErrDatasetNotFound)
	require.Zero(t, seq.Index())
}

func TestSequence_MalformedDatasetKeepsCursor(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, 1, "1 1 1 1 1\n")
	writeDataset(t, dir, 2, "oops\n")

	seq := NewSequence(dir, "")
	_, err := seq.OpenFirst()
	require.NoError(t, err)

	_, err = seq.OpenNext()
	require.ErrorIs(t, err, ErrMalformedRecord)
	require.Equal(t, 1, seq.Index())
}
