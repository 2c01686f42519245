// Package conflict detects and resolves divergences between a neuron's
// local working copy and the brain's version of the same file.
package conflict

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/FanaticPythoner/git-brain/internal/config"
)

// Resolution labels the outcome of resolving one file.
type Resolution string

const (
	// ResolutionBrain means the brain's bytes were taken.
	ResolutionBrain Resolution = "brain"
	// ResolutionLocal means the local bytes were kept.
	ResolutionLocal Resolution = "local"
	// ResolutionMerged means a clean 3-way merge was produced.
	ResolutionMerged Resolution = "merged"
	// ResolutionMergedWithConflicts means the merge left conflict markers.
	ResolutionMergedWithConflicts Resolution = "merged_with_conflicts"
)

// Result is the single final content chosen for a conflicted file.
type Result struct {
	Resolution Resolution
	Content    []byte
}

// Merger performs a 3-way file merge; the git driver's MergeFile satisfies it.
type Merger func(local, brain, base []byte) ([]byte, bool, error)

// Detect reports whether local and brain content differ. The compare is
// byte-level; when both sides are valid UTF-8 a string compare confirms the
// difference for parity with text-normalized diffs.
func Detect(local, brain []byte) bool {
	if bytes.Equal(local, brain) {
		return false
	}
	if utf8.Valid(local) && utf8.Valid(brain) {
		return string(local) != string(brain)
	}
	return true
}

// EffectiveStrategy applies the degradation rule: a prompt strategy with
// local modifications disallowed behaves as prefer-brain regardless of TTY.
func EffectiveStrategy(strategy config.Strategy, allowLocalModifications bool) config.Strategy {
	if strategy == config.StrategyPrompt && !allowLocalModifications {
		return config.StrategyPreferBrain
	}
	return strategy
}

// Resolver chooses the final content for a conflicted file. The non-prompt
// strategies are pure functions of the inputs; the prompt branch talks to
// the user through the injected reader and writer.
type Resolver struct {
	Strategy    config.Strategy
	Interactive bool
	In          io.Reader
	Out         io.Writer
	Merge       Merger
}

// Resolve returns the resolution for destination's local and brain bytes.
func (r *Resolver) Resolve(destination string, local, brain []byte) (Result, error) {
	switch r.Strategy {
	case config.StrategyPreferBrain:
		return Result{Resolution: ResolutionBrain, Content: brain}, nil
	case config.StrategyPreferLocal:
		return Result{Resolution: ResolutionLocal, Content: local}, nil
	}

	if !r.Interactive {
		return Result{Resolution: ResolutionBrain, Content: brain}, nil
	}
	return r.prompt(destination, local, brain)
}

func (r *Resolver) prompt(destination string, local, brain []byte) (Result, error) {
	localText, localOK := decodeText(local)
	brainText, brainOK := decodeText(brain)
	isText := localOK && brainOK

	fmt.Fprintf(r.Out, "Conflict in %s\n", destination)
	if isText {
		r.showDiff(localText, brainText)
	} else {
		fmt.Fprintln(r.Out, "Binary content differs (no diff available).")
	}

	choices := "(b)rain, (l)ocal"
	if isText {
		choices += ", (m)erge"
	}

	scanner := bufio.NewScanner(r.In)
	for {
		fmt.Fprintf(r.Out, "Keep %s? ", choices)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return Result{}, fmt.Errorf("failed to read conflict choice: %w", err)
			}
			// EOF on the prompt falls back to the brain version
			return Result{Resolution: ResolutionBrain, Content: brain}, nil
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "b", "brain":
			return Result{Resolution: ResolutionBrain, Content: brain}, nil
		case "l", "local":
			return Result{Resolution: ResolutionLocal, Content: local}, nil
		case "m", "merge":
			if !isText {
				continue
			}
			return r.merge(local, brain)
		}
		fmt.Fprintln(r.Out, "Unrecognized choice.")
	}
}

func (r *Resolver) merge(local, brain []byte) (Result, error) {
	if r.Merge == nil {
		return Result{}, fmt.Errorf("merge is not available")
	}
	merged, hadConflicts, err := r.Merge(local, brain, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to merge: %w", err)
	}
	resolution := ResolutionMerged
	if hadConflicts || bytes.Contains(merged, []byte("<<<<<<<")) {
		resolution = ResolutionMergedWithConflicts
	}
	return Result{Resolution: resolution, Content: merged}, nil
}

// showDiff prints a compact inline diff of the two text versions.
func (r *Resolver) showDiff(localText, brainText string) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(localText, brainText, false))

	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			fmt.Fprintf(r.Out, "- %q\n", diff.Text)
		case diffmatchpatch.DiffInsert:
			fmt.Fprintf(r.Out, "+ %q\n", diff.Text)
		case diffmatchpatch.DiffEqual:
			if len(diff.Text) > 50 {
				fmt.Fprintf(r.Out, "  %q...\n", diff.Text[:47])
			} else {
				fmt.Fprintf(r.Out, "  %q\n", diff.Text)
			}
		}
	}
}

// decodeText returns the UTF-8 text of data, or ok=false for binary content.
func decodeText(data []byte) (string, bool) {
	if !utf8.Valid(data) {
		return "", false
	}
	return string(data), true
}
