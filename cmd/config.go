package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/llmbridge/llmbridge/internal/config"
	"github.com/llmbridge/llmbridge/internal/registry"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Manage the LLM gateway configuration.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration interactively",
	Long:  `Initialize configuration by prompting for backend details.`,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	RunE:  runConfigValidate,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	color.Blue("%s Configuration Setup", AppName)
	color.Yellow("Follow the prompts to configure the backend provider.")

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("\nBackend Endpoint URL: ")
	endpoint, _ := reader.ReadString('\n')
	endpoint = strings.TrimSpace(endpoint)

	fmt.Print("Backend API Key: ")
	backendKey, _ := reader.ReadString('\n')
	backendKey = strings.TrimSpace(backendKey)

	fmt.Print("Gateway API Key (optional, for inbound auth): ")
	gatewayKey, _ := reader.ReadString('\n')
	gatewayKey = strings.TrimSpace(gatewayKey)

	cfg := &config.Config{
		Host:   config.DefaultHost,
		Port:   config.DefaultPort,
		APIKey: gatewayKey,
		Backend: config.Backend{
			Endpoint: endpoint,
			APIKey:   backendKey,
		},
	}

	mgr := resolveConfigManager(cmd)

	if err := mgr.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	color.Green("Configuration saved successfully to: %s", mgr.GetPath())
	color.Cyan("You can now start the gateway with: llm-bridge start")

	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	mgr := resolveConfigManager(cmd)

	if !mgr.Exists() {
		color.Yellow("No configuration found. Run 'llm-bridge config init' to create one.")
		return nil
	}

	cfg, err := mgr.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	color.Blue("Current Configuration:")
	fmt.Printf("  %-15s: %s\n", "Host", cfg.Host)
	fmt.Printf("  %-15s: %d\n", "Port", cfg.Port)
	fmt.Printf("  %-15s: %s\n", "API Key", maskString(cfg.APIKey))
	fmt.Printf("  %-15s: %s\n", "Backend", cfg.Backend.Endpoint)
	fmt.Printf("  %-15s: %s\n", "Backend Key", maskString(cfg.Backend.APIKey))
	fmt.Printf("  %-15s: %s\n", "Config Path", mgr.GetPath())

	for model, override := range cfg.Overrides {
		fmt.Printf("  override %-20s -> %s\n", model, override.BackendType)
	}

	return nil
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	mgr := resolveConfigManager(cmd)

	if !mgr.Exists() {
		return fmt.Errorf("no configuration found at %s", mgr.GetPath())
	}

	cfg, err := mgr.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var problems []string

	if cfg.Backend.Endpoint == "" {
		problems = append(problems, "backend.endpoint is empty")
	}

	validBackends := map[string]bool{
		string(registry.BackendOpenAI):    true,
		string(registry.BackendAnthropic): true,
		string(registry.BackendGemini):    true,
		string(registry.BackendGeneric):   true,
	}

	for model, override := range cfg.Overrides {
		if !validBackends[override.BackendType] {
			problems = append(problems, fmt.Sprintf("override %q has unknown backend_type %q", model, override.BackendType))
		}
	}

	if len(problems) > 0 {
		color.Red("Configuration has problems:")

		for _, problem := range problems {
			fmt.Printf("  - %s\n", problem)
		}

		return fmt.Errorf("%d configuration problem(s)", len(problems))
	}

	color.Green("Configuration is valid")

	return nil
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}

	if len(s) <= 8 {
		return "****"
	}

	return s[:4] + "..." + s[len(s)-4:]
}
