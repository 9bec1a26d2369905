package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/llmbridge/llmbridge/internal/process"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show gateway service status",
	Long:  `Display the current status of the LLM gateway service.`,
	Run:   runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) {
	procMgr := process.NewManager(baseDir)
	mgr := resolveConfigManager(cmd)
	cfg := mgr.Get()

	color.Blue("Status for %s:", AppName)
	fmt.Printf("  %-15s: %v\n", "Running", procMgr.IsRunning())
	fmt.Printf("  %-15s: %d\n", "PID", procMgr.ReadPID())

	if cfg != nil {
		fmt.Printf("  %-15s: %s\n", "Host", cfg.Host)
		fmt.Printf("  %-15s: %d\n", "Port", cfg.Port)
		fmt.Printf("  %-15s: http://%s:%d\n", "Endpoint", cfg.Host, cfg.Port)
		fmt.Printf("  %-15s: %s\n", "Backend", cfg.Backend.Endpoint)
		fmt.Printf("  %-15s: %d\n", "Overrides", len(cfg.Overrides))
	}

	fmt.Printf("  %-15s: %s\n", "Config Path", mgr.GetPath())
	fmt.Printf("  %-15s: v%s\n", "Version", Version)
}
