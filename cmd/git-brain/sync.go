package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/FanaticPythoner/git-brain/internal/config"
	"github.com/FanaticPythoner/git-brain/internal/gitx"
	"github.com/FanaticPythoner/git-brain/internal/syncer"
)

var (
	syncStrategy string
	syncReset    bool
)

var syncCmd = &cobra.Command{
	Use:   "sync [paths...]",
	Short: "Synchronize neurons from their brain repositories",
	Long: `Synchronize every mapped neuron (or only those matching the given
consumer-relative paths) from its brain repository at the tracked branch,
resolving conflicts with the configured strategy.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncStrategy, "strategy", "", "Override conflict strategy (prompt|prefer_brain|prefer_local)")
	syncCmd.Flags().BoolVar(&syncReset, "reset", false, "Allow local modifications for this sync only")
	rootCmd.AddCommand(syncCmd)
}

func runSync(_ *cobra.Command, args []string) error {
	driver := gitx.NewExecDriver()
	cfg, root, err := loadConsumerConfig(driver)
	if err != nil {
		return err
	}

	opts := syncer.Options{
		Reset:       syncReset,
		Interactive: isatty.IsTerminal(os.Stdin.Fd()),
		In:          os.Stdin,
		Out:         newPrinter().Writer(),
	}
	if syncStrategy != "" {
		strategy, ok := config.ParseStrategy(syncStrategy)
		if !ok {
			return fmt.Errorf("invalid strategy '%s'", syncStrategy)
		}
		opts.StrategyOverride = strategy
	}

	engine := syncer.NewEngine(driver, opts)
	var results []syncer.Result
	if len(args) > 0 {
		results = engine.SyncPaths(cfg, root, args)
		if len(results) == 0 {
			return fmt.Errorf("no mapped neuron matches the given path(s)")
		}
	} else {
		results = engine.SyncAll(cfg, root)
	}

	return printSyncSummary(results)
}

// printSyncSummary renders the per-neuron outcome table and returns an
// error when any neuron failed.
func printSyncSummary(results []syncer.Result) error {
	printer := newPrinter()
	failed := 0
	for _, r := range results {
		label := fmt.Sprintf("%s (%s::%s)", r.Destination, r.BrainID, r.Source)
		switch {
		case r.Status == syncer.StatusError:
			failed++
			printer.Error(fmt.Sprintf("error      %s: %s", label, r.Message))
		case r.Action == syncer.ActionAdded:
			printer.Success("added      " + label)
		case r.Action == syncer.ActionUpdated:
			printer.Success("updated    " + label)
		case r.Action == syncer.ActionSkipped:
			printer.Warning("skipped    " + label)
		default:
			printer.Dim("unchanged  " + label)
		}
		if r.RequirementsMerged {
			printer.Dim("           merged requirements from " + r.Source)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d neuron(s) failed to sync", failed, len(results))
	}
	return nil
}
