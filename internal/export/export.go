// Package export commits locally modified neurons back into their brain
// repositories, either directly into a local non-bare working tree or
// through a temporary clone-commit-push cycle.
package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/FanaticPythoner/git-brain/internal/config"
	"github.com/FanaticPythoner/git-brain/internal/fsutil"
	"github.com/FanaticPythoner/git-brain/internal/gitx"
	"github.com/FanaticPythoner/git-brain/internal/logger"
	"github.com/FanaticPythoner/git-brain/internal/syncer"
)

// PolicyError is returned when export is requested but the consumer's
// ALLOW_PUSH_TO_BRAIN policy disallows it.
type PolicyError struct {
	Msg string
}

func (e *PolicyError) Error() string { return e.Msg }

// ErrUserAborted is returned when the user declines the export confirmation.
var ErrUserAborted = errors.New("export aborted by user")

// Status is the per-brain export outcome.
type Status string

const (
	// StatusSuccess means the brain received a commit with the exported neurons.
	StatusSuccess Status = "success"
	// StatusError means the brain's export failed; Message explains why.
	StatusError Status = "error"
)

// Result reports the export outcome for one brain.
type Result struct {
	Status          Status
	Message         string
	Commit          string
	Pushed          bool
	ExportedNeurons []config.Mapping
}

// Engine exports modified neurons grouped by brain.
type Engine struct {
	Driver gitx.Driver

	// Message overrides the generated commit message when non-empty.
	Message string
}

// NewEngine returns an export Engine over driver.
func NewEngine(driver gitx.Driver) *Engine {
	return &Engine{Driver: driver}
}

// Export commits the given modified neurons back to their brains. When
// mappings is nil the modified set is computed from git status. The return
// maps brain id to its outcome; a failing brain never blocks the others.
func (e *Engine) Export(cfg *config.NeuronsConfig, mappings []config.Mapping, repoRoot string) (map[string]Result, error) {
	if !cfg.Policy.AllowPushToBrain {
		return nil, &PolicyError{Msg: "export requested but ALLOW_PUSH_TO_BRAIN is false"}
	}

	if mappings == nil {
		var err error
		mappings, err = syncer.ModifiedNeurons(e.Driver, cfg, repoRoot)
		if err != nil {
			return nil, fmt.Errorf("failed to detect modified neurons: %w", err)
		}
	}

	groups, order := groupByBrain(mappings)
	results := make(map[string]Result, len(groups))
	for _, brainID := range order {
		results[brainID] = e.exportBrain(cfg, brainID, groups[brainID], repoRoot)
	}
	return results, nil
}

func groupByBrain(mappings []config.Mapping) (map[string][]config.Mapping, []string) {
	groups := make(map[string][]config.Mapping)
	var order []string
	for _, m := range mappings {
		if _, seen := groups[m.BrainID]; !seen {
			order = append(order, m.BrainID)
		}
		groups[m.BrainID] = append(groups[m.BrainID], m)
	}
	return groups, order
}

func (e *Engine) exportBrain(cfg *config.NeuronsConfig, brainID string, group []config.Mapping, repoRoot string) Result {
	brain, ok := cfg.Brain(brainID)
	if !ok {
		return Result{Status: StatusError, Message: fmt.Sprintf("Unknown brain '%s'", brainID)}
	}

	message := e.Message
	if message == "" {
		message = commitMessage(brainID, group)
	}

	if dir := e.localDirectTarget(brain); dir != "" {
		return e.exportLocalDirect(dir, group, repoRoot, message)
	}
	return e.exportViaClone(brain, group, repoRoot, message)
}

// localDirectTarget returns the brain's working tree path when the
// local-direct shortcut applies: a file:// remote resolving to an existing
// non-bare repo sitting on the configured branch (or any branch when none
// is configured) with a clean tree.
func (e *Engine) localDirectTarget(brain config.BrainEntry) string {
	if !strings.HasPrefix(brain.Remote, "file://") {
		return ""
	}
	dir := strings.TrimPrefix(brain.Remote, "file://")
	if !fsutil.IsDir(dir) || !e.Driver.IsRepo(dir) {
		return ""
	}
	if bare, err := e.Driver.IsBare(dir); err != nil || bare {
		return ""
	}
	if brain.Branch != "" {
		current, err := e.Driver.CurrentBranch(dir)
		if err != nil || current != brain.Branch {
			return ""
		}
	}
	changed, err := e.Driver.ChangedFiles(dir)
	if err != nil || len(changed) > 0 {
		return ""
	}
	return dir
}

// exportLocalDirect commits straight into the brain's working tree. No push.
func (e *Engine) exportLocalDirect(brainDir string, group []config.Mapping, repoRoot, message string) Result {
	if err := copyNeurons(group, repoRoot, brainDir); err != nil {
		return Result{Status: StatusError, Message: err.Error()}
	}
	commit, err := e.addAndCommit(brainDir, message)
	if err != nil {
		return Result{Status: StatusError, Message: err.Error()}
	}
	logger.Info("Exported neurons directly into local brain", "dir", brainDir, "commit", commit)
	return Result{
		Status:          StatusSuccess,
		Message:         fmt.Sprintf("committed directly into local brain at %s", brainDir),
		Commit:          commit,
		ExportedNeurons: group,
	}
}

// exportViaClone clones the brain, commits the neurons, and pushes back.
func (e *Engine) exportViaClone(brain config.BrainEntry, group []config.Mapping, repoRoot, message string) Result {
	clone, err := e.Driver.TempClone(brain.Remote, brain.TrackedBranch())
	if err != nil {
		return Result{Status: StatusError, Message: fmt.Sprintf("failed to clone brain: %v", err)}
	}
	defer clone.Remove()

	if err := copyNeurons(group, repoRoot, clone.Dir); err != nil {
		return Result{Status: StatusError, Message: err.Error()}
	}
	commit, err := e.addAndCommit(clone.Dir, message)
	if err != nil {
		return Result{Status: StatusError, Message: err.Error()}
	}
	if _, err := e.Driver.Run(clone.Dir, "push", "origin", "HEAD"); err != nil {
		return Result{Status: StatusError, Message: fmt.Sprintf("failed to push to brain: %v", err)}
	}

	logger.Info("Exported neurons via clone", "remote", brain.Remote, "commit", commit)
	return Result{
		Status:          StatusSuccess,
		Message:         fmt.Sprintf("pushed to %s", brain.Remote),
		Commit:          commit,
		Pushed:          true,
		ExportedNeurons: group,
	}
}

func (e *Engine) addAndCommit(dir, message string) (string, error) {
	if _, err := e.Driver.Run(dir, "add", "."); err != nil {
		return "", fmt.Errorf("failed to stage exported neurons: %w", err)
	}
	if _, err := e.Driver.Run(dir, "commit", "-m", message); err != nil {
		return "", fmt.Errorf("failed to commit exported neurons: %w", err)
	}
	commit, err := e.Driver.Run(dir, "rev-parse", "HEAD")
	if err != nil {
		// the commit exists even if its id could not be read back
		return "", nil
	}
	return commit, nil
}

// copyNeurons copies each modified neuron's consumer content onto the brain
// tree at its brain-relative source path, in the provided order.
func copyNeurons(group []config.Mapping, repoRoot, brainDir string) error {
	for _, m := range group {
		src := filepath.Join(repoRoot, filepath.FromSlash(m.Destination))
		dst := filepath.Join(brainDir, filepath.FromSlash(m.Source))
		if !fsutil.Exists(src) {
			return fmt.Errorf("neuron destination %s does not exist", m.Destination)
		}
		var err error
		if fsutil.IsDir(src) {
			err = fsutil.CopyTree(src, dst)
		} else {
			err = fsutil.CopyFile(src, dst)
		}
		if err != nil {
			return fmt.Errorf("failed to copy neuron %s: %w", m.Destination, err)
		}
	}
	return nil
}

// commitMessage enumerates each exported pair as "source <- destination".
func commitMessage(brainID string, group []config.Mapping) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Export %d neuron(s) to brain '%s'\n\n", len(group), brainID)
	for _, m := range group {
		fmt.Fprintf(&b, "%s <- %s\n", m.Source, m.Destination)
	}
	return strings.TrimRight(b.String(), "\n")
}
