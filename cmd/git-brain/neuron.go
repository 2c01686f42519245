package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FanaticPythoner/git-brain/internal/config"
	"github.com/FanaticPythoner/git-brain/internal/gitx"
	"github.com/FanaticPythoner/git-brain/internal/syncer"
)

var addBrainBranch string

var addBrainCmd = &cobra.Command{
	Use:   "add-brain <id> <remote>",
	Short: "Register a brain repository in the .neurons descriptor",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		driver := gitx.NewExecDriver()
		cfg, root, err := loadConsumerConfig(driver)
		if err != nil {
			return err
		}
		id, remote := args[0], args[1]
		if _, exists := cfg.Brains[id]; exists {
			return fmt.Errorf("brain '%s' is already registered", id)
		}
		cfg.Brains[id] = config.BrainEntry{Remote: remote, Branch: addBrainBranch}
		cfg.BrainOrder = append(cfg.BrainOrder, id)
		if err := config.SaveNeuronsConfig(cfg, filepath.Join(root, config.NeuronsFileName)); err != nil {
			return err
		}
		newPrinter().Success(fmt.Sprintf("Registered brain '%s' -> %s", id, remote))
		return nil
	},
}

var removeBrainCmd = &cobra.Command{
	Use:   "remove-brain <id>",
	Short: "Deregister a brain from the .neurons descriptor",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		driver := gitx.NewExecDriver()
		cfg, root, err := loadConsumerConfig(driver)
		if err != nil {
			return err
		}
		id := args[0]
		if _, exists := cfg.Brains[id]; !exists {
			return fmt.Errorf("unknown brain '%s'", id)
		}
		for _, m := range cfg.Mappings {
			if m.BrainID == id {
				return fmt.Errorf("brain '%s' is still referenced by mapping %s; remove its neurons first", id, m.Destination)
			}
		}
		delete(cfg.Brains, id)
		for i, ordered := range cfg.BrainOrder {
			if ordered == id {
				cfg.BrainOrder = append(cfg.BrainOrder[:i], cfg.BrainOrder[i+1:]...)
				break
			}
		}
		if err := config.SaveNeuronsConfig(cfg, filepath.Join(root, config.NeuronsFileName)); err != nil {
			return err
		}
		newPrinter().Success(fmt.Sprintf("Removed brain '%s'", id))
		return nil
	},
}

var addNeuronCmd = &cobra.Command{
	Use:   "add-neuron <brain::source::destination>",
	Short: "Map a neuron and sync it immediately",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		driver := gitx.NewExecDriver()
		cfg, root, err := loadConsumerConfig(driver)
		if err != nil {
			return err
		}

		parts := strings.Split(args[0], "::")
		var mapping config.Mapping
		switch len(parts) {
		case 3:
			mapping = config.Mapping{BrainID: parts[0], Source: parts[1], Destination: parts[2]}
		case 2:
			if len(cfg.BrainOrder) != 1 {
				return fmt.Errorf("mapping omits the brain id but %d brains are defined", len(cfg.Brains))
			}
			mapping = config.Mapping{BrainID: cfg.BrainOrder[0], Source: parts[0], Destination: parts[1]}
		default:
			return fmt.Errorf("invalid mapping '%s': expected brain::source::destination", args[0])
		}
		if _, ok := cfg.Brains[mapping.BrainID]; !ok {
			return fmt.Errorf("unknown brain '%s'", mapping.BrainID)
		}
		for _, m := range cfg.Mappings {
			if m.Triple() == mapping.Triple() {
				return fmt.Errorf("neuron %s is already mapped", mapping.Destination)
			}
		}

		cfg.Mappings = append(cfg.Mappings, mapping)
		if err := config.SaveNeuronsConfig(cfg, filepath.Join(root, config.NeuronsFileName)); err != nil {
			return err
		}

		engine := syncer.NewEngine(driver, syncer.Options{Out: newPrinter().Writer()})
		result := engine.SyncOne(cfg, mapping.BrainID, mapping.Source, mapping.Destination, root)
		return printSyncSummary([]syncer.Result{result})
	},
}

var removeNeuronDelete bool

var removeNeuronCmd = &cobra.Command{
	Use:   "remove-neuron <destination>",
	Short: "Drop a neuron mapping, optionally deleting its local copy",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		driver := gitx.NewExecDriver()
		cfg, root, err := loadConsumerConfig(driver)
		if err != nil {
			return err
		}
		target := strings.TrimSuffix(args[0], "/")

		idx := -1
		for i, m := range cfg.Mappings {
			if strings.TrimSuffix(m.Destination, "/") == target {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("no neuron is mapped at '%s'", args[0])
		}
		removed := cfg.Mappings[idx]
		cfg.Mappings = append(cfg.Mappings[:idx], cfg.Mappings[idx+1:]...)
		if err := config.SaveNeuronsConfig(cfg, filepath.Join(root, config.NeuronsFileName)); err != nil {
			return err
		}

		printer := newPrinter()
		printer.Success(fmt.Sprintf("Removed mapping %s", removed.Destination))
		if removeNeuronDelete {
			local := filepath.Join(root, filepath.FromSlash(removed.Destination))
			if err := os.RemoveAll(local); err != nil {
				return fmt.Errorf("failed to delete %s: %w", local, err)
			}
			printer.Warning("Deleted " + local)
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered brains and mapped neurons",
	RunE: func(_ *cobra.Command, _ []string) error {
		driver := gitx.NewExecDriver()
		cfg, root, err := loadConsumerConfig(driver)
		if err != nil {
			return err
		}
		printer := newPrinter()

		printer.Info("Brains:")
		for _, id := range cfg.BrainOrder {
			b := cfg.Brains[id]
			line := fmt.Sprintf("  %s -> %s (branch %s)", id, b.Remote, b.TrackedBranch())
			printer.Println(line)
		}

		modified, err := syncer.ModifiedNeurons(driver, cfg, root)
		if err != nil {
			return err
		}
		modifiedSet := make(map[string]bool, len(modified))
		for _, m := range modified {
			modifiedSet[m.Triple()] = true
		}

		printer.Info("Neurons:")
		for _, m := range cfg.Mappings {
			marker := " "
			if modifiedSet[m.Triple()] {
				marker = "M"
			}
			printer.Println(fmt.Sprintf("  %s %s::%s -> %s", marker, m.BrainID, m.Source, m.Destination))
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report which neurons carry local modifications",
	RunE: func(_ *cobra.Command, _ []string) error {
		driver := gitx.NewExecDriver()
		cfg, root, err := loadConsumerConfig(driver)
		if err != nil {
			return err
		}
		printer := newPrinter()

		modified, err := syncer.ModifiedNeurons(driver, cfg, root)
		if err != nil {
			return err
		}
		if len(modified) == 0 {
			printer.Success("All neurons are clean.")
			return nil
		}
		printer.Warning(fmt.Sprintf("%d neuron(s) modified locally:", len(modified)))
		for _, m := range modified {
			line := fmt.Sprintf("  %s (from %s::%s)", m.Destination, m.BrainID, m.Source)
			if !driver.IsTracked(m.Destination, root) {
				line += " [untracked]"
			}
			printer.Println(line)
		}
		if !cfg.Policy.AllowPushToBrain {
			printer.Dim("ALLOW_PUSH_TO_BRAIN is false; these changes cannot be exported.")
		}
		return nil
	},
}

func init() {
	addBrainCmd.Flags().StringVar(&addBrainBranch, "branch", "", "Branch to track (default main)")
	removeNeuronCmd.Flags().BoolVar(&removeNeuronDelete, "delete", false, "Also delete the local copy")
	rootCmd.AddCommand(addBrainCmd, removeBrainCmd, addNeuronCmd, removeNeuronCmd, listCmd, statusCmd)
}
