package gitx

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/FanaticPythoner/git-brain/internal/fsutil"
)

// FakeDriver is a canned-response Driver for tests. It records every Run
// invocation and materializes temp clones by copying fixture directories,
// so the engines can be exercised without a git executable.
type FakeDriver struct {
	// Calls records the argument vector of every Run call in order.
	Calls [][]string

	// RunFunc, when set, supplies Run results after the call is recorded.
	RunFunc func(dir string, args ...string) (string, error)

	// CloneSources maps a remote URL to a local fixture directory that
	// TempClone copies into a fresh temp dir.
	CloneSources map[string]string

	// CloneErr, when set, makes TempClone fail.
	CloneErr error

	// RemovedClones records the directories removed by Clone.Remove.
	RemovedClones []string

	// ChangedByDir maps a repo root to its changed-file list.
	ChangedByDir map[string][]string

	// BranchByDir maps a repo root to its checked-out branch.
	BranchByDir map[string]string

	// Repos marks paths that IsRepo reports true for.
	Repos map[string]bool

	// BarePaths marks paths that IsBare reports true for.
	BarePaths map[string]bool

	// TrackedPaths marks "dir::path" pairs that IsTracked reports true for.
	TrackedPaths map[string]bool

	// MergeResult and MergeConflicts are returned by MergeFile.
	MergeResult    []byte
	MergeConflicts bool
}

var _ Driver = (*FakeDriver)(nil)

// NewFakeDriver returns an empty FakeDriver.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{
		CloneSources: make(map[string]string),
		ChangedByDir: make(map[string][]string),
		BranchByDir:  make(map[string]string),
		Repos:        make(map[string]bool),
		BarePaths:    make(map[string]bool),
		TrackedPaths: make(map[string]bool),
	}
}

// Run records the call and delegates to RunFunc when present.
func (f *FakeDriver) Run(dir string, args ...string) (string, error) {
	recorded := append([]string{dir}, args...)
	f.Calls = append(f.Calls, recorded)
	if f.RunFunc != nil {
		return f.RunFunc(dir, args...)
	}
	return "", nil
}

// IsRepo reports whether path was registered via Repos.
func (f *FakeDriver) IsRepo(path string) bool { return f.Repos[path] }

// IsBare reports whether path was registered via BarePaths.
func (f *FakeDriver) IsBare(path string) (bool, error) { return f.BarePaths[path], nil }

// Toplevel echoes path back.
func (f *FakeDriver) Toplevel(path string) (string, error) { return path, nil }

// CurrentBranch returns the branch registered for dir.
func (f *FakeDriver) CurrentBranch(dir string) (string, error) {
	if b, ok := f.BranchByDir[dir]; ok {
		return b, nil
	}
	return "main", nil
}

// IsTracked reports whether dir::path was registered via TrackedPaths.
func (f *FakeDriver) IsTracked(path, dir string) bool {
	return f.TrackedPaths[dir+"::"+path]
}

// IsModified reports whether path appears in dir's changed list.
func (f *FakeDriver) IsModified(path, dir string) (bool, error) {
	for _, c := range f.ChangedByDir[dir] {
		if c == path {
			return true, nil
		}
	}
	return false, nil
}

// BlobHashAtHead returns a deterministic pseudo-hash.
func (f *FakeDriver) BlobHashAtHead(path, _ string) (string, error) {
	return fmt.Sprintf("fake-%s", filepath.ToSlash(path)), nil
}

// ChangedFiles returns the list registered for dir.
func (f *FakeDriver) ChangedFiles(dir string) ([]string, error) {
	return f.ChangedByDir[dir], nil
}

// Clone copies the fixture registered for url into target.
func (f *FakeDriver) Clone(url, target string, _ ...string) error {
	if f.CloneErr != nil {
		return f.CloneErr
	}
	src, ok := f.CloneSources[url]
	if !ok {
		return &GitError{Kind: KindExit, Args: []string{"clone", url}, Stderr: "repository not found"}
	}
	if err := fsutil.EnsureDir(target); err != nil {
		return err
	}
	return fsutil.CopyTree(src, target)
}

// TempClone copies the fixture for url into a fresh temp dir and returns a
// handle whose removal is recorded.
func (f *FakeDriver) TempClone(url, _ string) (*Clone, error) {
	target := filepath.Join(os.TempDir(), "git-brain-fake-"+uuid.NewString())
	if err := f.Clone(url, target); err != nil {
		_ = os.RemoveAll(target)
		return nil, err
	}
	return &Clone{
		Dir: target,
		remove: func(dir string) error {
			f.RemovedClones = append(f.RemovedClones, dir)
			return os.RemoveAll(dir)
		},
	}, nil
}

// MergeFile returns the canned merge result.
func (f *FakeDriver) MergeFile(_, _, _ []byte) ([]byte, bool, error) {
	return f.MergeResult, f.MergeConflicts, nil
}
