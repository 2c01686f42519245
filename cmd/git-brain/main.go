// Package main provides the git-brain CLI entry point. Installed on PATH as
// git-brain, it also works as a Git extension: `git brain sync`.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FanaticPythoner/git-brain/internal/config"
	"github.com/FanaticPythoner/git-brain/internal/gitx"
	"github.com/FanaticPythoner/git-brain/internal/logger"
	"github.com/FanaticPythoner/git-brain/internal/output"
)

var (
	logLevel string
	logFile  string
	plain    bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "git-brain",
	Short: "git-brain - share versioned files across repositories",
	Long: `git-brain lets a consumer repository import versioned files and directories
("neurons") from upstream "brain" repositories, keep them synchronized, and
export local modifications back upstream.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// A .env beside the consumer descriptor can hold BRAIN_* settings.
		if root, err := consumerRootQuiet(); err == nil {
			_ = godotenv.Load(filepath.Join(root, ".env"))
		}
		if logLevel == "" {
			logLevel = viper.GetString("log-level")
		}
		return logger.Configure(logLevel, logFile)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps an error to the process exit code: git's own exit code
// for external failures, 1 for policy and core errors.
func exitCodeFor(err error) int {
	if ge, ok := gitx.AsGitError(err); ok && ge.Kind == gitx.KindExit {
		type exitCoder interface{ ExitCode() int }
		if ec, ok := ge.Err.(exitCoder); ok && ec.ExitCode() > 0 {
			return ec.ExitCode()
		}
	}
	return 1
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr")
	rootCmd.PersistentFlags().BoolVar(&plain, "plain", false, "Disable styled output")

	viper.SetEnvPrefix("BRAIN")
	viper.AutomaticEnv()
	if err := viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-level flag: %v\n", err)
		os.Exit(1)
	}
}

// newPrinter builds the printer honoring the --plain flag.
func newPrinter() *output.Printer {
	if plain {
		return output.NewPrinter(output.WithPlain())
	}
	return output.NewPrinter()
}

// consumerRoot resolves the repository root of the current directory.
func consumerRoot(driver gitx.Driver) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	root, err := driver.Toplevel(cwd)
	if err != nil {
		return "", fmt.Errorf("not inside a git repository: %w", err)
	}
	return root, nil
}

// consumerRootQuiet resolves the repo root with a fresh ExecDriver, for use
// before logging is configured.
func consumerRootQuiet() (string, error) {
	return consumerRoot(gitx.NewExecDriver())
}

// loadConsumerConfig loads the .neurons descriptor at the consumer root.
func loadConsumerConfig(driver gitx.Driver) (*config.NeuronsConfig, string, error) {
	root, err := consumerRoot(driver)
	if err != nil {
		return nil, "", err
	}
	path := filepath.Join(root, config.NeuronsFileName)
	if _, err := os.Stat(path); err != nil {
		return nil, "", fmt.Errorf("no %s found at %s; run `git-brain init` first", config.NeuronsFileName, root)
	}
	cfg, err := config.LoadNeuronsConfig(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, root, nil
}
