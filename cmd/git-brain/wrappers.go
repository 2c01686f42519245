package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/FanaticPythoner/git-brain/internal/config"
	"github.com/FanaticPythoner/git-brain/internal/gitx"
	"github.com/FanaticPythoner/git-brain/internal/syncer"
)

// runGitPassthrough executes git with inherited stdio, returning git's own
// exit code on failure so the wrappers stay transparent.
func runGitPassthrough(dir string, args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &gitx.GitError{Kind: gitx.KindExit, Args: args, Err: exitErr}
		}
		return &gitx.GitError{Kind: gitx.KindExec, Args: args, Err: err}
	}
	return nil
}

// autoSync runs a full sync after a lifecycle command; each caller decides
// whether one is due. Sync failures are reported but do not fail the
// wrapped command.
func autoSync(driver gitx.Driver, cfg *config.NeuronsConfig, root string) {
	engine := syncer.NewEngine(driver, syncer.Options{Out: newPrinter().Writer()})
	if err := printSyncSummary(engine.SyncAll(cfg, root)); err != nil {
		newPrinter().Warning(err.Error())
	}
}

var pullCmd = &cobra.Command{
	Use:                "pull [git pull args...]",
	Short:              "git pull, then sync neurons when AUTO_SYNC_ON_PULL is set",
	DisableFlagParsing: true,
	RunE: func(_ *cobra.Command, args []string) error {
		if err := runGitPassthrough("", append([]string{"pull"}, args...)...); err != nil {
			return err
		}
		driver := gitx.NewExecDriver()
		cfg, root, err := loadConsumerConfig(driver)
		if err != nil {
			// not a neuron consumer; plain pull is all there is to do
			return nil
		}
		if cfg.Policy.AutoSyncOnPull {
			autoSync(driver, cfg, root)
		}
		return nil
	},
}

var checkoutCmd = &cobra.Command{
	Use:                "checkout [git checkout args...]",
	Short:              "git checkout, then sync neurons when AUTO_SYNC_ON_CHECKOUT is set",
	DisableFlagParsing: true,
	RunE: func(_ *cobra.Command, args []string) error {
		if err := runGitPassthrough("", append([]string{"checkout"}, args...)...); err != nil {
			return err
		}
		driver := gitx.NewExecDriver()
		cfg, root, err := loadConsumerConfig(driver)
		if err != nil {
			return nil
		}
		if cfg.Policy.AutoSyncOnCheckout {
			autoSync(driver, cfg, root)
		}
		return nil
	},
}

var pushCmd = &cobra.Command{
	Use:                "push [git push args...]",
	Short:              "git push, warning when modified neurons cannot be exported",
	DisableFlagParsing: true,
	RunE: func(_ *cobra.Command, args []string) error {
		driver := gitx.NewExecDriver()
		if cfg, root, err := loadConsumerConfig(driver); err == nil {
			if dirty, dErr := driver.IsModified(config.NeuronsFileName, root); dErr == nil && dirty {
				newPrinter().Warning("Uncommitted changes in " + config.NeuronsFileName + " will not be pushed until committed.")
			}
			modified, mErr := syncer.ModifiedNeurons(driver, cfg, root)
			if mErr == nil && len(modified) > 0 {
				printer := newPrinter()
				if cfg.Policy.AllowPushToBrain {
					printer.Info(fmt.Sprintf("%d modified neuron(s); run `git-brain export` to send them upstream.", len(modified)))
				} else {
					printer.Warning(fmt.Sprintf("%d modified neuron(s) will NOT reach their brains (ALLOW_PUSH_TO_BRAIN=false).", len(modified)))
				}
			}
		}
		return runGitPassthrough("", append([]string{"push"}, args...)...)
	},
}

var cloneCmd = &cobra.Command{
	Use:                "clone <url> [dir] [git clone args...]",
	Short:              "git clone, then sync neurons when the clone has a .neurons descriptor",
	DisableFlagParsing: true,
	RunE: func(_ *cobra.Command, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("clone requires a repository URL")
		}
		if err := runGitPassthrough("", append([]string{"clone"}, args...)...); err != nil {
			return err
		}

		dir := cloneTargetDir(args)
		if dir == "" {
			return nil
		}
		path := filepath.Join(dir, config.NeuronsFileName)
		if _, err := os.Stat(path); err != nil {
			return nil
		}
		cfg, err := config.LoadNeuronsConfig(path)
		if err != nil {
			return err
		}
		driver := gitx.NewExecDriver()
		autoSync(driver, cfg, dir)
		return nil
	},
}

// cloneTargetDir recovers the directory a `git clone` produced from its
// argument list: the explicit target when present, else the repo basename.
func cloneTargetDir(args []string) string {
	var positional []string
	for _, a := range args {
		if len(a) > 0 && a[0] == '-' {
			continue
		}
		positional = append(positional, a)
	}
	switch len(positional) {
	case 0:
		return ""
	case 1:
		base := filepath.Base(positional[0])
		if ext := filepath.Ext(base); ext == ".git" {
			base = base[:len(base)-len(ext)]
		}
		return base
	default:
		return positional[len(positional)-1]
	}
}

func init() {
	rootCmd.AddCommand(pullCmd, checkoutCmd, pushCmd, cloneCmd)
}
