package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogFileWriter_TruncatesToNewestBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "padron.log")
	w, file, err := newLogFileWriter(path)
	require.NoError(t, err)
	t.Cleanup(func() { file.Close() })

	chunk := bytes.Repeat([]byte("a"), 1024*1024)
	for range 6 {
		_, err := w.Write(chunk)
		require.NoError(t, err)
	}
	_, err = w.Write([]byte("tail\n"))
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(keepLogSizeBytes), info.Size())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasSuffix(data, []byte("tail\n")))

	_, err = w.Write([]byte("more\n"))
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasSuffix(data, []byte("tail\nmore\n")))
}
