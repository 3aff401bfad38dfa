package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix for environment variables
	EnvPrefix = "KITLEND"

	// ConfigFileName is the name of the config file
	ConfigFileName = "config"
	// ConfigFileType is the type of the config file
	ConfigFileType = "toml"

	// TokenFileName is the name of the token file
	TokenFileName = "token.json"
)

// Backends
const (
	BackendNotion = "notion"
	BackendSanity = "sanity"
)

// Config holds the application configuration
type Config struct {
	Backend      string         `mapstructure:"backend"`
	Token        string         `mapstructure:"token"`
	ClientID     string         `mapstructure:"client_id"`
	ClientSecret string         `mapstructure:"client_secret"`
	Notion       NotionConfig   `mapstructure:"notion"`
	Sanity       SanityConfig   `mapstructure:"sanity"`
	SendGrid     SendGridConfig `mapstructure:"sendgrid"`
	Server       ServerConfig   `mapstructure:"server"`
	Log          LogConfig      `mapstructure:"log"`
}

// NotionConfig locates the kit databases in a Notion workspace
type NotionConfig struct {
	RootPageID string `mapstructure:"root_page_id"`
	DBPrefix   string `mapstructure:"db_prefix"`
	APIVersion string `mapstructure:"api_version"`
}

// SanityConfig addresses a Sanity dataset
type SanityConfig struct {
	ProjectID  string `mapstructure:"project_id"`
	Dataset    string `mapstructure:"dataset"`
	Token      string `mapstructure:"token"`
	APIVersion string `mapstructure:"api_version"`
	UseCDN     bool   `mapstructure:"use_cdn"`
}

// SendGridConfig configures confirmation mails. Mail is disabled when
// APIKey is empty.
type SendGridConfig struct {
	APIKey     string `mapstructure:"api_key"`
	FromEmail  string `mapstructure:"from_email"`
	FromName   string `mapstructure:"from_name"`
	TemplateID string `mapstructure:"template_id"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr      string        `mapstructure:"addr"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	RedisAddr string        `mapstructure:"redis_addr"`
}

// LogConfig configures the logger
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// TokenData holds the OAuth token data
type TokenData struct {
	AccessToken          string `json:"access_token"`
	TokenType            string `json:"token_type"`
	BotID                string `json:"bot_id"`
	WorkspaceID          string `json:"workspace_id"`
	WorkspaceName        string `json:"workspace_name"`
	DuplicatedTemplateID string `json:"duplicated_template_id,omitempty"`
}

var defaults = map[string]any{
	"backend":              BackendNotion,
	"token":                "",
	"client_id":            "",
	"client_secret":        "",
	"notion.root_page_id":  "",
	"notion.db_prefix":     "db: ",
	"notion.api_version":   "2022-06-28",
	"sanity.project_id":    "",
	"sanity.dataset":       "production",
	"sanity.token":         "",
	"sanity.api_version":   "2021-10-21",
	"sanity.use_cdn":       false,
	"sendgrid.api_key":     "",
	"sendgrid.from_email":  "",
	"sendgrid.from_name":   "",
	"sendgrid.template_id": "",
	"server.addr":          ":8080",
	"server.cache_ttl":     "30s",
	"server.redis_addr":    "",
	"log.level":            "info",
	"log.development":      false,
}

// Load loads configuration from the config directory
func Load() (*Config, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	return LoadFrom(configDir)
}

// LoadFrom loads configuration from defaults, the config file in dir and
// KITLEND_* environment variables, in increasing precedence. The Notion
// token is taken from KITLEND_TOKEN, NOTION_TOKEN, the OAuth token file
// and the config file, in that order.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(ConfigFileName)
	v.SetConfigType(ConfigFileType)
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	switch {
	case os.Getenv(EnvPrefix+"_TOKEN") != "":
		cfg.Token = os.Getenv(EnvPrefix + "_TOKEN")
	case os.Getenv("NOTION_TOKEN") != "":
		cfg.Token = os.Getenv("NOTION_TOKEN")
	default:
		if tokenData, err := loadToken(dir); err == nil && tokenData.AccessToken != "" {
			cfg.Token = tokenData.AccessToken
			if cfg.Notion.RootPageID == "" {
				cfg.Notion.RootPageID = tokenData.DuplicatedTemplateID
			}
		}
	}

	return &cfg, nil
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "kitlend"), nil
}

// SaveToken saves the OAuth token to the token file
func SaveToken(token *TokenData) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}
	return saveToken(configDir, token)
}

func saveToken(dir string, token *TokenData) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, TokenFileName), data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// LoadToken loads the OAuth token from the token file
func LoadToken() (*TokenData, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}
	return loadToken(configDir)
}

func loadToken(dir string) (*TokenData, error) {
	data, err := os.ReadFile(filepath.Join(dir, TokenFileName))
	if err != nil {
		return nil, err
	}

	var token TokenData
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return &token, nil
}

// DeleteToken deletes the OAuth token file
func DeleteToken() error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(configDir, TokenFileName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

// Validate checks that the selected backend has its credentials
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendNotion:
		if c.Token == "" {
			return fmt.Errorf("token is required. Run 'kitlend auth login' or set KITLEND_TOKEN/NOTION_TOKEN environment variable")
		}
		if c.Notion.RootPageID == "" {
			return fmt.Errorf("notion.root_page_id is required. Set KITLEND_NOTION_ROOT_PAGE_ID or configure it in ~/.config/kitlend/config.toml")
		}
	case BackendSanity:
		if c.Sanity.ProjectID == "" || c.Sanity.Dataset == "" {
			return fmt.Errorf("sanity.project_id and sanity.dataset are required for the sanity backend")
		}
	default:
		return fmt.Errorf("unknown backend %q (valid: %s, %s)", c.Backend, BackendNotion, BackendSanity)
	}
	return nil
}

// ValidateOAuth checks if the OAuth configuration is valid
func (c *Config) ValidateOAuth() error {
	if c.ClientID == "" {
		return fmt.Errorf("client_id is required. Set KITLEND_CLIENT_ID environment variable or configure in ~/.config/kitlend/config.toml")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("client_secret is required. Set KITLEND_CLIENT_SECRET environment variable or configure in ~/.config/kitlend/config.toml")
	}
	return nil
}
