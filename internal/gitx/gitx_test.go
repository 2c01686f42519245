package gitx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePorcelain(t *testing.T) {
	out := " M src/a.go\n" +
		"?? new_file.txt\n" +
		"A  added.txt\n" +
		"R  old.txt -> new.txt\n" +
		"M  \"sp ace.txt\"\n"

	files := parsePorcelain(out)
	assert.Equal(t, []string{"src/a.go", "new_file.txt", "added.txt", "new.txt", "sp ace.txt"}, files)
}

func TestParsePorcelainEmpty(t *testing.T) {
	assert.Empty(t, parsePorcelain(""))
}

func TestUnquotePorcelainEscapes(t *testing.T) {
	assert.Equal(t, "tab\there", unquotePorcelain(`"tab\there"`))
	assert.Equal(t, "plain.txt", unquotePorcelain("plain.txt"))
}

func TestAuthHint(t *testing.T) {
	hint := authHint("git@github.com:org/repo.git", "fatal: Authentication failed")
	assert.NotEmpty(t, hint)

	hint = authHint("git@github.com:org/repo.git", "Permission denied (publickey)")
	assert.NotEmpty(t, hint)

	// unrelated stderr on a known host gets no hint
	assert.Empty(t, authHint("git@github.com:org/repo.git", "fatal: repository not found"))

	// auth-looking stderr on an unknown host gets no hint
	assert.Empty(t, authHint("https://git.internal.example/repo.git", "403 forbidden"))
}

func TestLocalPath(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, dir, LocalPath("file://"+dir))
	assert.Equal(t, dir, LocalPath(dir))
	assert.Empty(t, LocalPath("https://example.com/repo.git"))
	assert.Empty(t, LocalPath(filepath.Join(dir, "does-not-exist")))
}

func TestGitErrorMessages(t *testing.T) {
	exit := &GitError{Kind: KindExit, Args: []string{"clone", "url"}, Stderr: "boom"}
	assert.Contains(t, exit.Error(), "git clone url failed")
	assert.Contains(t, exit.Error(), "boom")

	timeout := &GitError{Kind: KindTimeout, Args: []string{"fetch"}}
	assert.Contains(t, timeout.Error(), "timed out")

	notFound := &GitError{Kind: KindNotFound}
	assert.Contains(t, notFound.Error(), "git executable not found")

	hinted := &GitError{Kind: KindExit, Args: []string{"clone"}, Stderr: "403", Hint: "check your token"}
	assert.Contains(t, hinted.Error(), "hint: check your token")
}

func TestFakeDriverTempCloneCopiesFixture(t *testing.T) {
	fixture := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(fixture, "a.txt"), []byte("a\n"), 0o644))

	driver := NewFakeDriver()
	driver.CloneSources["url"] = fixture

	clone, err := driver.TempClone("url", "main")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(clone.Dir, "a.txt"))

	clone.Remove()
	_, statErr := os.Stat(clone.Dir)
	assert.True(t, os.IsNotExist(statErr))
	assert.Equal(t, []string{clone.Dir}, driver.RemovedClones)

	// Remove is idempotent
	clone.Remove()
	assert.Len(t, driver.RemovedClones, 1)
}

func TestCloneRemoveNilSafe(t *testing.T) {
	var c *Clone
	c.Remove()
}
