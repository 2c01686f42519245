// Package syncer materializes neurons from their brains into a consumer
// repository and detects which neurons carry local modifications.
package syncer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/FanaticPythoner/git-brain/internal/config"
	"github.com/FanaticPythoner/git-brain/internal/conflict"
	"github.com/FanaticPythoner/git-brain/internal/fsutil"
	"github.com/FanaticPythoner/git-brain/internal/gitx"
	"github.com/FanaticPythoner/git-brain/internal/logger"
	"github.com/FanaticPythoner/git-brain/internal/requirements"
)

// Options tune a single sync invocation. They come from CLI flags.
type Options struct {
	// StrategyOverride replaces the policy's conflict strategy when set.
	StrategyOverride config.Strategy
	// Reset forces allow-local-modifications for this call, suppressing the
	// prompt-to-prefer-brain degradation.
	Reset bool
	// Interactive marks stdin as a TTY; without it prompt degrades to
	// prefer-brain.
	Interactive bool
	// In and Out carry the interactive conflict dialogue.
	In  io.Reader
	Out io.Writer
}

func (o Options) reader() io.Reader {
	if o.In != nil {
		return o.In
	}
	return os.Stdin
}

func (o Options) writer() io.Writer {
	if o.Out != nil {
		return o.Out
	}
	return os.Stdout
}

// Engine performs neuron synchronization against a git driver.
type Engine struct {
	Driver gitx.Driver
	Opts   Options
}

// NewEngine returns an Engine over driver with the given options.
func NewEngine(driver gitx.Driver, opts Options) *Engine {
	return &Engine{Driver: driver, Opts: opts}
}

// SyncAll synchronizes every mapped neuron in mapping order. A failing
// neuron is reported in its result and never aborts the batch.
func (e *Engine) SyncAll(cfg *config.NeuronsConfig, repoRoot string) []Result {
	results := make([]Result, 0, len(cfg.Mappings))
	for _, m := range cfg.Mappings {
		results = append(results, e.SyncOne(cfg, m.BrainID, m.Source, m.Destination, repoRoot))
	}
	return results
}

// SyncPaths synchronizes only the mappings whose destination matches one of
// the given consumer-relative paths.
func (e *Engine) SyncPaths(cfg *config.NeuronsConfig, repoRoot string, paths []string) []Result {
	normalized := make([]string, 0, len(paths))
	for _, p := range paths {
		normalized = append(normalized, normalizePath(p))
	}
	var results []Result
	for _, m := range cfg.Mappings {
		dst := normalizePath(m.Destination)
		for _, p := range normalized {
			if p == dst || strings.HasPrefix(p, dst+"/") || strings.HasPrefix(dst, p+"/") {
				results = append(results, e.SyncOne(cfg, m.BrainID, m.Source, m.Destination, repoRoot))
				break
			}
		}
	}
	return results
}

// SyncOne materializes a single neuron from its brain at the tracked branch,
// resolving conflicts with the effective strategy and folding any
// neuron-owned requirements manifest into the consumer's root manifest.
func (e *Engine) SyncOne(cfg *config.NeuronsConfig, brainID, source, destination, repoRoot string) Result {
	brain, ok := cfg.Brain(brainID)
	if !ok {
		return errorResult(brainID, source, destination, fmt.Sprintf("Unknown brain '%s'", brainID))
	}

	strategy := cfg.Policy.ConflictStrategy
	if e.Opts.StrategyOverride != "" {
		strategy = e.Opts.StrategyOverride
	}
	allowLocal := cfg.Policy.AllowLocalModifications || e.Opts.Reset
	effective := conflict.EffectiveStrategy(strategy, allowLocal)

	clone, err := e.Driver.TempClone(brain.Remote, brain.TrackedBranch())
	if err != nil {
		return errorResult(brainID, source, destination, fmt.Sprintf("failed to clone brain '%s': %v", brainID, err))
	}
	defer clone.Remove()

	src := filepath.Join(clone.Dir, filepath.FromSlash(source))
	dst := filepath.Join(repoRoot, filepath.FromSlash(destination))
	if err := fsutil.EnsureDir(filepath.Dir(dst)); err != nil {
		return errorResult(brainID, source, destination, err.Error())
	}

	if !fsutil.Exists(src) {
		return errorResult(brainID, source, destination,
			fmt.Sprintf("source path not found in brain '%s': %s", brainID, source))
	}

	resolver := &conflict.Resolver{
		Strategy:    effective,
		Interactive: e.Opts.Interactive,
		In:          e.Opts.reader(),
		Out:         e.Opts.writer(),
		Merge:       e.Driver.MergeFile,
	}

	result := Result{
		Status:      StatusSuccess,
		BrainID:     brainID,
		Source:      source,
		Destination: destination,
	}

	var action Action
	if fsutil.IsDir(src) {
		action, err = e.syncDirectory(src, dst, source, resolver)
	} else {
		action, err = e.syncFile(src, dst, destination, resolver)
	}
	if err != nil {
		return errorResult(brainID, source, destination, err.Error())
	}
	result.Action = action

	merged, err := e.mergeRequirements(clone.Dir, source, repoRoot)
	if err != nil {
		return errorResult(brainID, source, destination, err.Error())
	}
	result.RequirementsMerged = merged

	logger.Debug("Synced neuron", "brain", brainID, "source", source, "destination", destination, "action", action)
	return result
}

// syncDirectory mirrors a brain directory onto dst, resolving per-file
// conflicts and skipping the neuron-owned manifest files.
func (e *Engine) syncDirectory(src, dst, source string, resolver *conflict.Resolver) (Action, error) {
	skip := manifestNamesForDir(source)

	if !fsutil.IsDir(dst) {
		action := ActionAdded
		if fsutil.Exists(dst) {
			// a file is in the way of the directory
			if err := os.RemoveAll(dst); err != nil {
				return "", fmt.Errorf("failed to replace %s: %w", dst, err)
			}
			action = ActionUpdated
		}
		if err := copyTreeSkipping(src, dst, skip); err != nil {
			return "", err
		}
		return action, nil
	}

	anyAdded := false
	anyUpdated := false
	err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return fsutil.EnsureDir(target)
		}
		if skip[filepath.ToSlash(rel)] {
			return nil
		}

		brainBytes, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if !fsutil.Exists(target) {
			anyAdded = true
			return fsutil.WriteBytes(target, brainBytes)
		}
		localBytes, err := os.ReadFile(target)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", target, err)
		}
		if !conflict.Detect(localBytes, brainBytes) {
			return nil
		}
		resolved, err := resolver.Resolve(filepath.ToSlash(target), localBytes, brainBytes)
		if err != nil {
			return err
		}
		if conflict.Detect(localBytes, resolved.Content) {
			anyUpdated = true
			return fsutil.WriteBytes(target, resolved.Content)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	switch {
	case anyUpdated:
		return ActionUpdated, nil
	case anyAdded:
		return ActionUpdated, nil
	default:
		return ActionUnchanged, nil
	}
}

// syncFile materializes a single-file neuron at dst.
func (e *Engine) syncFile(src, dst, destination string, resolver *conflict.Resolver) (Action, error) {
	brainBytes, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", src, err)
	}

	if fsutil.IsDir(dst) {
		// a directory is in the way of the file
		if err := os.RemoveAll(dst); err != nil {
			return "", fmt.Errorf("failed to replace %s: %w", dst, err)
		}
		if err := fsutil.WriteBytes(dst, brainBytes); err != nil {
			return "", err
		}
		return ActionUpdated, nil
	}
	if !fsutil.Exists(dst) {
		if err := fsutil.WriteBytes(dst, brainBytes); err != nil {
			return "", err
		}
		return ActionAdded, nil
	}

	localBytes, err := os.ReadFile(dst)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", dst, err)
	}
	if !conflict.Detect(localBytes, brainBytes) {
		return ActionUnchanged, nil
	}
	resolved, err := resolver.Resolve(destination, localBytes, brainBytes)
	if err != nil {
		return "", err
	}
	if !conflict.Detect(localBytes, resolved.Content) {
		return ActionUnchanged, nil
	}
	if err := fsutil.WriteBytes(dst, resolved.Content); err != nil {
		return "", err
	}
	return ActionUpdated, nil
}

// mergeRequirements looks for the neuron's manifest next to its source and
// folds it into the consumer's root requirements.txt. Returns whether a
// merge happened.
func (e *Engine) mergeRequirements(cloneDir, source, repoRoot string) (bool, error) {
	manifest := findNeuronManifest(cloneDir, source)
	if manifest == "" {
		return false, nil
	}

	neuronContent, err := fsutil.ReadText(manifest)
	if err != nil {
		return false, err
	}

	rootManifest := filepath.Join(repoRoot, config.RequirementsFileName)
	rootContent := ""
	if fsutil.Exists(rootManifest) {
		rootContent, err = fsutil.ReadText(rootManifest)
		if err != nil {
			return false, err
		}
	}

	merged := requirements.MergeFiles(rootContent, neuronContent)
	if err := fsutil.WriteText(rootManifest, merged); err != nil {
		return false, err
	}
	return true, nil
}

// manifestNamesForDir returns the source-relative manifest names that a
// directory neuron owns and the copy pass must skip.
func manifestNamesForDir(source string) map[string]bool {
	base := filepath.Base(strings.TrimRight(filepath.FromSlash(source), string(filepath.Separator)))
	return map[string]bool{
		config.RequirementsFileName:        true,
		base + config.RequirementsFileName: true,
	}
}

// findNeuronManifest locates the neuron-owned requirements file for source
// inside the brain clone, or returns "".
//
// Directory neurons may carry either "<dir>/requirements.txt" or the
// concatenated "<dir>/<basename>requirements.txt"; file neurons carry
// "<file><ext>requirements.txt" adjacent to the file. The concatenation has
// no separator on purpose: the manifest sits next to the file it belongs to.
func findNeuronManifest(cloneDir, source string) string {
	src := filepath.Join(cloneDir, filepath.FromSlash(source))
	var candidates []string
	if fsutil.IsDir(src) {
		base := filepath.Base(strings.TrimRight(filepath.FromSlash(source), string(filepath.Separator)))
		candidates = []string{
			filepath.Join(src, config.RequirementsFileName),
			filepath.Join(src, base+config.RequirementsFileName),
		}
	} else {
		candidates = []string{src + config.RequirementsFileName}
	}
	for _, c := range candidates {
		if fsutil.Exists(c) && !fsutil.IsDir(c) {
			return c
		}
	}
	return ""
}

// copyTreeSkipping copies src into dst, skipping the given source-relative
// file names.
func copyTreeSkipping(src, dst string, skip map[string]bool) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fsutil.EnsureDir(filepath.Join(dst, rel))
		}
		if skip[filepath.ToSlash(rel)] {
			return nil
		}
		return fsutil.CopyFile(path, filepath.Join(dst, rel))
	})
}

// normalizePath cleans a consumer-relative path to slash form without a
// trailing separator.
func normalizePath(p string) string {
	return strings.TrimSuffix(filepath.ToSlash(filepath.Clean(filepath.FromSlash(p))), "/")
}
