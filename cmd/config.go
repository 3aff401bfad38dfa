package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/longkey1/kitlend/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Long: `Show current configuration settings.

Displays the effective configuration from environment variables,
config file, and token file. Secrets are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfig()
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	configDir, _ := config.GetConfigDir()

	fmt.Println("Current Configuration")
	fmt.Println("=====================")
	fmt.Println()

	fmt.Printf("Backend:         %s\n", cfg.Backend)
	fmt.Printf("Token:           %s\n", maskToken(cfg.Token))
	fmt.Printf("Client ID:       %s\n", maskToken(cfg.ClientID))
	fmt.Printf("Client Secret:   %s\n", setOrNot(cfg.ClientSecret))
	fmt.Println()

	switch cfg.Backend {
	case config.BackendNotion:
		fmt.Printf("Root page:       %s\n", orNotSet(cfg.Notion.RootPageID))
		fmt.Printf("DB prefix:       %q\n", cfg.Notion.DBPrefix)
		fmt.Printf("API version:     %s\n", cfg.Notion.APIVersion)
	case config.BackendSanity:
		fmt.Printf("Project:         %s\n", orNotSet(cfg.Sanity.ProjectID))
		fmt.Printf("Dataset:         %s\n", cfg.Sanity.Dataset)
		fmt.Printf("Sanity token:    %s\n", setOrNot(cfg.Sanity.Token))
		fmt.Printf("Use CDN:         %t\n", cfg.Sanity.UseCDN)
	}

	fmt.Printf("SendGrid key:    %s\n", setOrNot(cfg.SendGrid.APIKey))
	fmt.Printf("Server address:  %s\n", cfg.Server.Addr)
	fmt.Printf("Cache TTL:       %s\n", cfg.Server.CacheTTL)
	fmt.Printf("Redis:           %s\n", orNotSet(cfg.Server.RedisAddr))
	fmt.Printf("Log level:       %s\n", cfg.Log.Level)

	fmt.Println()
	fmt.Println("Sources")
	fmt.Println("-------")

	for _, name := range []string{
		config.EnvPrefix + "_BACKEND",
		config.EnvPrefix + "_TOKEN",
		"NOTION_TOKEN",
		config.EnvPrefix + "_CLIENT_ID",
		config.EnvPrefix + "_CLIENT_SECRET",
		config.EnvPrefix + "_NOTION_ROOT_PAGE_ID",
		config.EnvPrefix + "_SANITY_TOKEN",
		config.EnvPrefix + "_SENDGRID_API_KEY",
	} {
		if os.Getenv(name) != "" {
			fmt.Printf("%-30s set\n", name+":")
		}
	}

	configPath := filepath.Join(configDir, config.ConfigFileName+"."+config.ConfigFileType)
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("%-30s %s\n", "Config file:", configPath)
	} else {
		fmt.Printf("%-30s (not found)\n", "Config file:")
	}

	tokenPath := filepath.Join(configDir, config.TokenFileName)
	if _, err := os.Stat(tokenPath); err == nil {
		fmt.Printf("%-30s %s\n", "Token file:", tokenPath)
	} else {
		fmt.Printf("%-30s (not found)\n", "Token file:")
	}

	return nil
}

func maskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}

func setOrNot(s string) string {
	if s == "" {
		return "(not set)"
	}
	return "(set)"
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
