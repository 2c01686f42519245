// Package gitx wraps the git executable behind a narrow driver interface.
// Every subprocess call of the sync and export engines goes through this
// package (the CLI's pass-through wrappers run git directly with inherited
// stdio), and all porcelain output parsing is centralized here so the
// engines never see raw git output. Tests substitute the FakeDriver for the subprocess-backed
// ExecDriver.
package gitx

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/FanaticPythoner/git-brain/internal/logger"
)

// DefaultTimeout bounds every git subprocess call unless overridden.
const DefaultTimeout = 60 * time.Second

// Driver is the set of git operations the sync and export engines depend on.
type Driver interface {
	// Run executes git with the given arguments in dir and returns stdout
	// with trailing whitespace trimmed.
	Run(dir string, args ...string) (string, error)

	// IsRepo reports whether path is inside a working tree or a bare repo.
	IsRepo(path string) bool

	// IsBare reports whether path is a bare repository. Non-repo paths
	// return false without error.
	IsBare(path string) (bool, error)

	// Toplevel returns the absolute root of the working tree containing path.
	Toplevel(path string) (string, error)

	// CurrentBranch returns the branch currently checked out in dir.
	CurrentBranch(dir string) (string, error)

	// IsTracked reports whether path is tracked by the repo at dir.
	IsTracked(path, dir string) bool

	// IsModified reports whether path has uncommitted changes in dir.
	IsModified(path, dir string) (bool, error)

	// BlobHashAtHead returns the hex blob hash of path at HEAD.
	BlobHashAtHead(path, dir string) (string, error)

	// ChangedFiles lists repo-relative paths with non-clean porcelain status.
	ChangedFiles(dir string) ([]string, error)

	// Clone clones url into target with optional extra arguments.
	Clone(url, target string, extra ...string) error

	// TempClone clones url at branch into a fresh temporary directory and
	// returns a handle that removes it. Shallow for remote URLs, full for
	// local paths.
	TempClone(url, branch string) (*Clone, error)

	// MergeFile performs a 3-way merge of local and brain against base and
	// returns the merged bytes plus whether conflict markers were emitted.
	MergeFile(local, brain, base []byte) ([]byte, bool, error)
}

// ExecDriver runs the real git executable.
type ExecDriver struct {
	// Timeout bounds each subprocess call. Zero means DefaultTimeout.
	Timeout time.Duration
}

// NewExecDriver returns an ExecDriver with the default timeout.
func NewExecDriver() *ExecDriver {
	return &ExecDriver{Timeout: DefaultTimeout}
}

func (d *ExecDriver) timeout() time.Duration {
	if d.Timeout > 0 {
		return d.Timeout
	}
	return DefaultTimeout
}

// Run executes git with args in dir and returns trimmed stdout.
func (d *ExecDriver) Run(dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout())
	defer cancel()

	logger.GitExecution(args, dir)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &GitError{Kind: KindTimeout, Args: args, Err: err}
		}
		if errors.Is(err, exec.ErrNotFound) {
			return "", &GitError{Kind: KindNotFound, Args: args, Err: err}
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &GitError{
				Kind:   KindExit,
				Args:   args,
				Stderr: strings.TrimSpace(stderr.String()),
				Err:    err,
			}
		}
		return "", &GitError{Kind: KindExec, Args: args, Err: err}
	}

	return strings.TrimRight(stdout.String(), " \t\r\n"), nil
}

// IsRepo reports whether path is inside a git working tree or a bare repo.
func (d *ExecDriver) IsRepo(path string) bool {
	out, err := d.Run(path, "rev-parse", "--is-inside-work-tree")
	if err == nil && out == "true" {
		return true
	}
	bare, bErr := d.IsBare(path)
	return bErr == nil && bare
}

// IsBare reports whether path is a bare repository.
func (d *ExecDriver) IsBare(path string) (bool, error) {
	out, err := d.Run(path, "rev-parse", "--is-bare-repository")
	if err != nil {
		if ge, ok := AsGitError(err); ok && strings.Contains(strings.ToLower(ge.Stderr), "not a git repository") {
			return false, nil
		}
		return false, err
	}
	return out == "true", nil
}

// Toplevel returns the absolute root of the working tree containing path.
func (d *ExecDriver) Toplevel(path string) (string, error) {
	out, err := d.Run(path, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return filepath.Clean(out), nil
}

// CurrentBranch returns the branch checked out in dir.
func (d *ExecDriver) CurrentBranch(dir string) (string, error) {
	return d.Run(dir, "rev-parse", "--abbrev-ref", "HEAD")
}

// IsTracked reports whether path is tracked by the repo at dir.
func (d *ExecDriver) IsTracked(path, dir string) bool {
	_, err := d.Run(dir, "ls-files", "--error-unmatch", path)
	return err == nil
}

// IsModified reports whether path has uncommitted changes in dir.
func (d *ExecDriver) IsModified(path, dir string) (bool, error) {
	out, err := d.Run(dir, "status", "--porcelain", path)
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// BlobHashAtHead returns the hex blob hash of path at HEAD.
func (d *ExecDriver) BlobHashAtHead(path, dir string) (string, error) {
	return d.Run(dir, "rev-parse", "HEAD:"+filepath.ToSlash(path))
}

// ChangedFiles lists repo-relative paths whose porcelain status is non-clean.
func (d *ExecDriver) ChangedFiles(dir string) ([]string, error) {
	out, err := d.Run(dir, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	return parsePorcelain(out), nil
}

// Clone clones url into target.
func (d *ExecDriver) Clone(url, target string, extra ...string) error {
	args := append([]string{"clone"}, extra...)
	args = append(args, url, target)
	_, err := d.Run("", args...)
	return err
}

// MergeFile performs a 3-way merge via `git merge-file -p`.
// It returns the merged contents and whether conflict markers were produced.
func (d *ExecDriver) MergeFile(local, brain, base []byte) ([]byte, bool, error) {
	tmp, err := os.MkdirTemp("", "git-brain-merge-")
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	localPath := filepath.Join(tmp, "local")
	basePath := filepath.Join(tmp, "base")
	brainPath := filepath.Join(tmp, "brain")
	for _, f := range []struct {
		path string
		data []byte
	}{{localPath, local}, {basePath, base}, {brainPath, brain}} {
		if err := os.WriteFile(f.path, f.data, 0o600); err != nil {
			return nil, false, err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "merge-file", "-p",
		"-L", "local", "-L", "base", "-L", "brain",
		localPath, basePath, brainPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// merge-file exits with the number of conflicts, so a non-zero exit
	// with captured stdout still carries the merged result.
	runErr := cmd.Run()
	hadConflicts := false
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) && exitErr.ExitCode() > 0 {
			hadConflicts = true
		} else {
			return nil, false, &GitError{
				Kind:   KindExec,
				Args:   []string{"merge-file"},
				Stderr: strings.TrimSpace(stderr.String()),
				Err:    runErr,
			}
		}
	}
	return stdout.Bytes(), hadConflicts, nil
}
