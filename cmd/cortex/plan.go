package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tickwise/cortex/internal/config"
	"github.com/tickwise/cortex/internal/core"
	"github.com/tickwise/cortex/internal/executor"
	"github.com/tickwise/cortex/internal/provider"
)

func newPlanCommand() *cobra.Command {
	var (
		configPath   string
		snapshotPath string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Request a single plan for a snapshot from the reasoning backend",
		Long: `Reads a world snapshot from a JSON file, sends one blocking plan
request to the configured backend, and prints the resulting plan as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath == "" {
				configPath = os.Getenv("CORTEX_CONFIG")
			}
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			data, err := os.ReadFile(snapshotPath)
			if err != nil {
				return fmt.Errorf("failed to read snapshot: %w", err)
			}
			var snap core.WorldSnapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				return fmt.Errorf("failed to parse snapshot: %w", err)
			}

			registry := provider.NewRegistry()
			if err := registry.Register(&cfg.Provider); err != nil {
				return err
			}
			p, err := registry.Get(cfg.Provider.ID)
			if err != nil {
				return err
			}

			exec := executor.New(p, executor.NewPool(1)).
				WithRequestTimeout(cfg.RequestTimeout())
			plan, err := exec.GeneratePlanSync(cmd.Context(), &snap)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(plan, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "Path to a world snapshot JSON file")
	cmd.MarkFlagRequired("snapshot")

	return cmd
}
