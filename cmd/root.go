package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/roadaudit/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "roadaudit",
	Short: "County-boundary containment and route-clipping engine",
	Long:  "Extracts road segments from county CMS workbooks, checks routed geometry against the county boundary, repairs or clips out-of-bounds routes, and serves the inventory for review.",
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
