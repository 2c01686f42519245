package gitx

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/FanaticPythoner/git-brain/internal/fsutil"
	"github.com/FanaticPythoner/git-brain/internal/logger"
)

// Clone is a handle on a temporary brain clone. Remove is idempotent and
// safe to defer; the directory never outlives the sync or export call that
// created it.
type Clone struct {
	Dir string

	removed bool
	remove  func(dir string) error
}

// Remove deletes the clone directory. Errors are logged, not returned,
// because removal runs on every exit path.
func (c *Clone) Remove() {
	if c == nil || c.removed {
		return
	}
	c.removed = true
	rm := c.remove
	if rm == nil {
		rm = os.RemoveAll
	}
	if err := rm(c.Dir); err != nil {
		logger.Warn("Failed to remove temporary clone", "dir", c.Dir, "error", err)
	}
}

// LocalPath resolves url to a local directory path when it refers to one:
// either a file:// URL or an absolute path to an existing directory.
// Returns "" for remote URLs.
func LocalPath(url string) string {
	if strings.HasPrefix(url, "file://") {
		return strings.TrimPrefix(url, "file://")
	}
	if filepath.IsAbs(url) && fsutil.IsDir(url) {
		return url
	}
	return ""
}

// TempClone clones url at branch into a freshly created temp directory.
// Remote URLs are cloned shallow; local repos get a full quiet clone so
// file:// remotes work regardless of the server's shallow support.
func (d *ExecDriver) TempClone(url, branch string) (*Clone, error) {
	target := filepath.Join(os.TempDir(), "git-brain-"+uuid.NewString())

	args := []string{"--quiet"}
	if LocalPath(url) == "" {
		args = []string{"--depth=1", "--quiet"}
	}
	if branch != "" {
		args = append(args, "--branch", branch)
	}

	if err := d.Clone(url, target, args...); err != nil {
		_ = os.RemoveAll(target)
		if ge, ok := AsGitError(err); ok && ge.Hint == "" {
			ge.Hint = authHint(url, ge.Stderr)
		}
		return nil, err
	}
	return &Clone{Dir: target}, nil
}
