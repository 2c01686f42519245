package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/FanaticPythoner/git-brain/internal/config"
	"github.com/FanaticPythoner/git-brain/internal/export"
	"github.com/FanaticPythoner/git-brain/internal/gitx"
	"github.com/FanaticPythoner/git-brain/internal/syncer"
)

var (
	exportForce   bool
	exportMessage string
)

var exportCmd = &cobra.Command{
	Use:   "export [paths...]",
	Short: "Export locally modified neurons back to their brains",
	Long: `Detect neurons with local modifications (or take the given
consumer-relative paths) and commit them back into their brain
repositories. Requires ALLOW_PUSH_TO_BRAIN=true in the sync policy.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().BoolVar(&exportForce, "force", false, "Skip the interactive confirmation")
	exportCmd.Flags().StringVarP(&exportMessage, "message", "m", "", "Commit message override")
	rootCmd.AddCommand(exportCmd)
}

func runExport(_ *cobra.Command, args []string) error {
	driver := gitx.NewExecDriver()
	cfg, root, err := loadConsumerConfig(driver)
	if err != nil {
		return err
	}
	printer := newPrinter()

	modified, err := syncer.ModifiedNeurons(driver, cfg, root)
	if err != nil {
		return fmt.Errorf("failed to detect modified neurons: %w", err)
	}
	if len(args) > 0 {
		modified = filterMappings(modified, args)
	}
	if len(modified) == 0 {
		printer.Info("No modified neurons to export.")
		return nil
	}

	if !exportForce {
		if err := confirmExport(printer, modified); err != nil {
			return err
		}
	}

	engine := export.NewEngine(driver)
	engine.Message = exportMessage
	results, err := engine.Export(cfg, modified, root)
	if err != nil {
		return err
	}

	failed := 0
	for brainID, r := range results {
		switch r.Status {
		case export.StatusSuccess:
			line := fmt.Sprintf("%s: %s", brainID, r.Message)
			if r.Commit != "" {
				line += fmt.Sprintf(" (commit %s)", shortCommit(r.Commit))
			}
			printer.Success(line)
		default:
			failed++
			printer.Error(fmt.Sprintf("%s: %s", brainID, r.Message))
		}
	}
	if failed > 0 {
		return fmt.Errorf("export failed for %d brain(s)", failed)
	}
	return nil
}

// confirmExport asks the user to confirm the export set. Non-TTY stdin
// counts as a decline, matching the policy of never exporting silently.
func confirmExport(printer interface{ Printf(string, ...interface{}) }, modified []config.Mapping) error {
	printer.Printf("About to export %d neuron(s):\n", len(modified))
	for _, m := range modified {
		printer.Printf("  %s <- %s\n", m.Source, m.Destination)
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return export.ErrUserAborted
	}
	printer.Printf("Proceed? [y/N] ")
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return export.ErrUserAborted
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	if answer != "y" && answer != "yes" {
		return export.ErrUserAborted
	}
	return nil
}

// filterMappings keeps the mappings whose destination matches one of the
// given paths.
func filterMappings(mappings []config.Mapping, paths []string) []config.Mapping {
	var out []config.Mapping
	for _, m := range mappings {
		dst := strings.TrimSuffix(m.Destination, "/")
		for _, p := range paths {
			if strings.TrimSuffix(p, "/") == dst {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

func shortCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
