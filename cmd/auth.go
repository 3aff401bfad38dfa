package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/longkey1/kitlend/internal/config"
	"github.com/longkey1/kitlend/internal/notion"
)

const (
	defaultCallbackPort = 8080
	callbackTimeout     = 5 * time.Minute
)

type authOptions struct {
	port  int
	force bool
}

var authOpts = &authOptions{}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the Notion OAuth token",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with Notion using OAuth",
	Long: `Authenticate with Notion using OAuth.
This command initiates the OAuth flow and saves the access token.

When the integration is installed from the kit template, the duplicated
template page becomes the root page that holds the kit databases.

Before running this command, configure your OAuth credentials:
  - Set KITLEND_CLIENT_ID and KITLEND_CLIENT_SECRET environment variables
  - Or add client_id and client_secret to ~/.config/kitlend/config.toml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuthLogin(cmd.Context(), authOpts)
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete the saved Notion token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.DeleteToken(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

func init() {
	authLoginCmd.Flags().IntVarP(&authOpts.port, "port", "p", defaultCallbackPort, "Local callback server port")
	authLoginCmd.Flags().BoolVar(&authOpts.force, "force", false, "Re-authenticate without asking when a token exists")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(ctx context.Context, opts *authOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateOAuth(); err != nil {
		return err
	}

	configDir, _ := config.GetConfigDir()
	tokenPath := filepath.Join(configDir, config.TokenFileName)
	if _, err := os.Stat(tokenPath); err == nil && !opts.force {
		fmt.Printf("Token file already exists: %s\n", tokenPath)
		fmt.Print("Do you want to re-authenticate? [y/N]: ")
		var response string
		_, _ = fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	server, err := notion.NewCallbackServer(opts.port)
	if err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}
	defer server.Close()

	// CSRF protection
	state, err := generateState()
	if err != nil {
		return fmt.Errorf("failed to generate state: %w", err)
	}

	oauthClient := notion.NewOAuthClient(&notion.OAuthConfig{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  server.RedirectURI(),
	})
	authURL := oauthClient.GetAuthURL(state)

	fmt.Println("Opening browser for Notion authorization...")
	fmt.Printf("If the browser doesn't open, visit this URL:\n%s\n\n", authURL)
	if err := openBrowser(authURL); err != nil {
		fmt.Printf("Failed to open browser: %v\n", err)
	}

	fmt.Println("Waiting for authorization...")

	ctx, cancel := context.WithTimeout(ctx, callbackTimeout)
	defer cancel()

	code, err := server.Wait(ctx, state)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	fmt.Println("Authorization received, exchanging code for token...")

	token, err := oauthClient.ExchangeCode(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange code: %w", err)
	}

	tokenData := &config.TokenData{
		AccessToken:          token.AccessToken,
		TokenType:            token.TokenType,
		BotID:                token.BotID,
		WorkspaceID:          token.WorkspaceID,
		WorkspaceName:        token.WorkspaceName,
		DuplicatedTemplateID: token.DuplicatedTemplateID,
	}
	if err := config.SaveToken(tokenData); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	fmt.Printf("Authenticated with workspace %q.\n", token.WorkspaceName)
	if token.DuplicatedTemplateID != "" {
		fmt.Printf("Root page: %s\n", token.DuplicatedTemplateID)
	}
	return nil
}

func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	default:
		return fmt.Errorf("unsupported platform")
	}

	return exec.Command(cmd, args...).Start()
}
