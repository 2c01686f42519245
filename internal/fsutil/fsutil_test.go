package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep/nested/file.txt")
	require.NoError(t, WriteText(path, "hello\n"))

	content, err := ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", content)
}

func TestCopyFileOverwrites(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "sub/dst.txt")
	require.NoError(t, WriteText(src, "new\n"))
	require.NoError(t, WriteText(dst, "old\n"))

	require.NoError(t, CopyFile(src, dst))

	content, err := ReadText(dst)
	require.NoError(t, err)
	assert.Equal(t, "new\n", content)
}

func TestCopyFileRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, CopyFile(dir, filepath.Join(dir, "out.txt")))
}

func TestCopyTree(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, WriteText(filepath.Join(src, "a.txt"), "a\n"))
	require.NoError(t, WriteText(filepath.Join(src, "sub/b.txt"), "b\n"))
	require.NoError(t, WriteText(filepath.Join(dst, "keep.txt"), "keep\n"))
	require.NoError(t, WriteText(filepath.Join(dst, "a.txt"), "stale\n"))

	require.NoError(t, CopyTree(src, dst))

	a, err := ReadText(filepath.Join(dst, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a\n", a)
	assert.FileExists(t, filepath.Join(dst, "sub/b.txt"))
	// files only present in the destination survive
	assert.FileExists(t, filepath.Join(dst, "keep.txt"))
}

func TestExistsAndIsDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.True(t, Exists(dir))
	assert.True(t, Exists(file))
	assert.False(t, Exists(filepath.Join(dir, "nope")))
	assert.True(t, IsDir(dir))
	assert.False(t, IsDir(file))
}

func TestHumanSize(t *testing.T) {
	assert.Contains(t, HumanSize(1536), "1.5")
	assert.Contains(t, HumanSize(1536), "KB")
	assert.Contains(t, HumanSize(10), "10")
}
