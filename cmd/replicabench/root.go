package main

import (
	"context"
	"fmt"
	"os"

	"github.com/outofforest/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "replicabench",
	Short: "Load and verification tool for the replica registry",
	Long: `replicabench drives a replica registry from many goroutines to measure
throughput and to verify that replicas survive concurrent growth.`,
}

func execute() {
	ctx := logger.WithLogger(context.Background(), logger.New(logger.ToolDefaultConfig))
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
