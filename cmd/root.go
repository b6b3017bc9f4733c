package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/profile-wizard/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "profile-wizard",
	Short: "Asynchronous generation wizard for dashboard profiles",
	Long:  "Submits profile generation jobs to the backend, polls them to completion, lets you review and edit the generated fields, and confirms the result for persistence.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
