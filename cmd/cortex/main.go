package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "cortex",
		Short: "cortex - AI decision core for simulated agents",
		Long: `cortex arbitrates each agent tick between a fast synchronous planner,
plans produced asynchronously by a reasoning backend, and a behavior-tree
fallback. The simulate command runs a headless world; plan sends a single
snapshot to the backend.`,
		Version: version,
	}

	rootCmd.AddCommand(newSimulateCommand())
	rootCmd.AddCommand(newPlanCommand())
	rootCmd.AddCommand(newVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the cortex version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("cortex %s\n", version)
		},
	}
}
