package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ppiankov/notionblog/internal/config"
	"github.com/ppiankov/notionblog/internal/listing"
	"github.com/ppiankov/notionblog/internal/store"
)

var (
	listFormat  string
	listOffline bool
	noColor     bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List published posts, newest first",
	RunE:  listAction,
}

func init() {
	listCmd.Flags().StringVar(&listFormat, "format", "", "output format: terminal, json, markdown")
	listCmd.Flags().BoolVar(&listOffline, "offline", false, "read the local snapshot written by sync")
	listCmd.Flags().BoolVar(&noColor, "no-color", false, "disable ANSI colors")
}

func listAction(cmd *cobra.Command, _ []string) error {
	formatter, err := listing.New(listFormat, useColor())
	if err != nil {
		return err
	}

	input := listing.Input{Now: time.Now()}
	if listOffline {
		cfg, err := config.Load(configDir)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		input.SiteURL = cfg.Server.SiteURL

		db, err := store.Open(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer func() { _ = db.Close() }()

		input.Origin = "snapshot"
		if input.Posts, err = db.ListPosts(cmd.Context()); err != nil {
			return fmt.Errorf("list snapshot: %w", err)
		}
		if input.SyncedAt, err = db.LastSync(cmd.Context()); err != nil {
			return fmt.Errorf("last sync: %w", err)
		}
	} else {
		a, err := loadApp()
		if err != nil {
			return err
		}
		input.Origin = "notion"
		input.SiteURL = a.cfg.Server.SiteURL
		input.Posts = a.repo.ListPublished(cmd.Context())
	}

	return formatter.Format(os.Stdout, input)
}

// useColor enables ANSI colors only when stdout is a terminal and --no-color is unset.
func useColor() bool {
	if noColor {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
