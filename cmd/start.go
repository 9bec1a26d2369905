package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/llmbridge/llmbridge/internal/process"
	"github.com/llmbridge/llmbridge/internal/server"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the gateway service",
	Long:  `Start the LLM gateway service in the foreground.`,
	RunE:  runStart,
}

func runStart(cmd *cobra.Command, _ []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	setupLogging(verbose)

	mgr := resolveConfigManager(cmd)

	cfg, err := mgr.Load()
	if err != nil {
		color.Yellow("Configuration not found, run 'llm-bridge config init' first")
		return err
	}

	color.Green("Starting %s v%s...", AppName, Version)
	logger.Info("starting gateway",
		"host", cfg.Host,
		"port", cfg.Port,
		"backend", cfg.Backend.Endpoint,
	)

	procMgr := process.NewManager(baseDir)
	if err := procMgr.WritePID(); err != nil {
		return err
	}
	defer procMgr.CleanupPID()

	srv := server.New(mgr, logger)

	return srv.Start()
}
