package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/longkey1/kitlend/internal/config"
	"github.com/longkey1/kitlend/internal/lending"
	"github.com/longkey1/kitlend/internal/logging"
	"github.com/longkey1/kitlend/internal/mail"
	"github.com/longkey1/kitlend/internal/notion"
	"github.com/longkey1/kitlend/internal/notiondb"
	"github.com/longkey1/kitlend/internal/sanity"
)

var _ notiondb.Provider = (*notion.Client)(nil)

// setup loads and validates the configuration and builds the logger
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// newCatalog builds the catalog of the configured backend
func newCatalog(cfg *config.Config, logger *zap.Logger) (lending.Catalog, error) {
	switch cfg.Backend {
	case config.BackendNotion:
		client := notion.NewClient(cfg.Token, notion.Options{APIVersion: cfg.Notion.APIVersion})
		db := notiondb.New(client, lending.Schemas, notiondb.Config{
			RootPageID: cfg.Notion.RootPageID,
			Prefix:     cfg.Notion.DBPrefix,
			Logger:     logger.Named("notiondb"),
		})
		return lending.NewNotionCatalog(db), nil
	case config.BackendSanity:
		client := sanity.NewClient(sanity.Options{
			ProjectID:  cfg.Sanity.ProjectID,
			Dataset:    cfg.Sanity.Dataset,
			Token:      cfg.Sanity.Token,
			APIVersion: cfg.Sanity.APIVersion,
			UseCDN:     cfg.Sanity.UseCDN,
		})
		return lending.NewSanityCatalog(client), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// newNotifier returns the SendGrid mailer, or nil when mail is not configured
func newNotifier(cfg *config.Config) lending.Notifier {
	if cfg.SendGrid.APIKey == "" {
		return nil
	}
	return mail.New(mail.Options{
		APIKey:     cfg.SendGrid.APIKey,
		FromEmail:  cfg.SendGrid.FromEmail,
		FromName:   cfg.SendGrid.FromName,
		TemplateID: cfg.SendGrid.TemplateID,
	})
}

func newService() (*lending.Service, *config.Config, *zap.Logger, error) {
	cfg, logger, err := setup()
	if err != nil {
		return nil, nil, nil, err
	}
	catalog, err := newCatalog(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return lending.NewService(catalog, newNotifier(cfg), logger), cfg, logger, nil
}
