package cli

import (
	"fmt"
	"os"

	"github.com/labstack/gommon/log"

	"github.com/ppiankov/notionblog/internal/config"
	"github.com/ppiankov/notionblog/internal/content"
	"github.com/ppiankov/notionblog/internal/logging"
	"github.com/ppiankov/notionblog/internal/notion"
	"github.com/ppiankov/notionblog/internal/posts"
)

// app holds the acquisition layer built from one configuration.
type app struct {
	cfg     *config.Config
	log     *log.Logger
	client  *notion.Client
	repo    *posts.Repository
	fetcher *content.Fetcher
}

// loadApp reads the config dir and wires the Notion client, post repository
// and content fetcher. Logs go to stderr so stdout stays clean for output.
func loadApp() (*app, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logging.New(level, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}

	client := newClient(cfg)
	return &app{
		cfg:     cfg,
		log:     logger,
		client:  client,
		repo:    posts.NewRepository(client, cfg.Notion.DatabaseID, cfg.Properties, cfg.Retry, logger),
		fetcher: content.NewFetcher(client, cfg.Retry.ContentPolicy(), cfg.Content.MaxDepth, logger),
	}, nil
}

func newClient(cfg *config.Config) *notion.Client {
	opts := []notion.Option{
		notion.WithVersion(cfg.Notion.Version),
		notion.WithTimeout(cfg.Notion.Timeout.Duration),
	}
	if cfg.Notion.BaseURL != "" {
		opts = append(opts, notion.WithBaseURL(cfg.Notion.BaseURL))
	}
	return notion.New(cfg.Notion.Token, opts...)
}
