package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FanaticPythoner/git-brain/internal/config"
	"github.com/FanaticPythoner/git-brain/internal/gitx"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an empty .neurons descriptor in this repository",
	RunE: func(_ *cobra.Command, _ []string) error {
		driver := gitx.NewExecDriver()
		root, err := consumerRoot(driver)
		if err != nil {
			return err
		}
		path := filepath.Join(root, config.NeuronsFileName)
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		cfg := &config.NeuronsConfig{
			Brains: map[string]config.BrainEntry{},
			Policy: config.DefaultSyncPolicy(),
		}
		if err := config.SaveNeuronsConfig(cfg, path); err != nil {
			return err
		}
		newPrinter().Success("Created " + path)
		return nil
	},
}

var (
	brainInitID          string
	brainInitDescription string
	brainInitExports     []string
)

var brainInitCmd = &cobra.Command{
	Use:   "brain-init",
	Short: "Create a .brain descriptor making this repository a brain",
	RunE: func(_ *cobra.Command, _ []string) error {
		if brainInitID == "" {
			return fmt.Errorf("--id is required")
		}
		driver := gitx.NewExecDriver()
		root, err := consumerRoot(driver)
		if err != nil {
			return err
		}
		path := filepath.Join(root, config.BrainFileName)
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}

		cfg := &config.BrainConfig{
			ID:          brainInitID,
			Description: brainInitDescription,
			Export:      map[string]config.ExportPermission{},
		}
		for _, spec := range brainInitExports {
			pattern, perm, err := parseExportFlag(spec)
			if err != nil {
				return err
			}
			cfg.Export[pattern] = perm
		}
		if len(cfg.Export) == 0 {
			// default: everything syncable, nothing writable
			cfg.Export["*"] = config.PermReadOnly
		}

		if err := config.SaveBrainConfig(cfg, path); err != nil {
			return err
		}
		newPrinter().Success("Created " + path)
		return nil
	},
}

// parseExportFlag splits "pattern=readonly|readwrite"; a bare pattern means
// readonly.
func parseExportFlag(spec string) (string, config.ExportPermission, error) {
	pattern, value, found := strings.Cut(spec, "=")
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return "", "", fmt.Errorf("invalid export spec '%s'", spec)
	}
	if !found || strings.TrimSpace(value) == "" {
		return pattern, config.PermReadOnly, nil
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "readonly":
		return pattern, config.PermReadOnly, nil
	case "readwrite":
		return pattern, config.PermReadWrite, nil
	}
	return "", "", fmt.Errorf("invalid export permission in '%s' (want readonly or readwrite)", spec)
}

func init() {
	brainInitCmd.Flags().StringVar(&brainInitID, "id", "", "Brain identifier (required)")
	brainInitCmd.Flags().StringVar(&brainInitDescription, "description", "", "Brain description")
	brainInitCmd.Flags().StringArrayVar(&brainInitExports, "export", nil, "Export pattern, pattern=readonly|readwrite (repeatable)")
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(brainInitCmd)
}
