package platform

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func copyViaPlatform(t *testing.T, content []byte) []byte {
	t.Helper()
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src")
	dstPath := filepath.Join(dir, "dst")
	require.NoError(t, os.WriteFile(srcPath, content, 0644))

	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE, 0644)
	require.NoError(t, err)

	res, err := CopyFile(CopyFileParams{
		DstFd:   dst,
		SrcPath: srcPath,
		SrcSize: int64(len(content)),
	})
	require.NoError(t, err)
	require.NoError(t, dst.Close())
	assert.Equal(t, int64(len(content)), res.BytesWritten)

	got, err := os.ReadFile(dstPath)
	require.NoError(t, err)
	return got
}

func TestCopyFileSmall(t *testing.T) {
	content := []byte("small file content")
	assert.Equal(t, content, copyViaPlatform(t, content))
}

func TestCopyFileLarge(t *testing.T) {
	content := make([]byte, 2*readWriteBufSize+17)
	_, err := rand.Read(content)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(content, copyViaPlatform(t, content)))
}

func TestCopyReadWrite(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src")
	dstPath := filepath.Join(dir, "dst")
	content := []byte("read write fallback")
	require.NoError(t, os.WriteFile(srcPath, content, 0644))

	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE, 0644)
	require.NoError(t, err)
	defer dst.Close()

	res, err := copyReadWrite(CopyFileParams{DstFd: dst, SrcPath: srcPath, SrcSize: int64(len(content))})
	require.NoError(t, err)
	assert.Equal(t, ReadWrite, res.Method)
	assert.Equal(t, int64(len(content)), res.BytesWritten)
}

func TestCopyFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	dst, err := os.OpenFile(filepath.Join(dir, "dst"), os.O_WRONLY|os.O_CREATE, 0644)
	require.NoError(t, err)
	defer dst.Close()

	_, err = CopyFile(CopyFileParams{DstFd: dst, SrcPath: filepath.Join(dir, "missing"), SrcSize: 10})
	assert.Error(t, err)
}

func TestCopyMethodString(t *testing.T) {
	assert.Equal(t, "read_write", ReadWrite.String())
	assert.Equal(t, "copy_file_range", CopyFileRange.String())
	assert.Equal(t, "sendfile", Sendfile.String())
	assert.Equal(t, "unknown", CopyMethod(99).String())
}
