package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/ppiankov/notionblog/internal/config"
	"github.com/ppiankov/notionblog/internal/notionid"
	"github.com/ppiankov/notionblog/internal/posts"
	"github.com/ppiankov/notionblog/internal/store"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	showJSON    bool
	showOffline bool
)

var showCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Show one published post by slug",
	Args:  cobra.ExactArgs(1),
	RunE:  showAction,
}

var contentCmd = &cobra.Command{
	Use:   "content <slug|page-id>",
	Short: "Print the block tree of a post as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  contentAction,
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the post as JSON")
	showCmd.Flags().BoolVar(&showOffline, "offline", false, "read the local snapshot written by sync")
}

func showAction(cmd *cobra.Command, args []string) error {
	p, ok, err := findPost(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("post %q not found", args[0])
	}

	if showJSON {
		return writeJSON(p)
	}

	tags := "-"
	if len(p.Tags) > 0 {
		tags = strings.Join(p.Tags, ", ")
	}
	fmt.Printf("Title:   %s\n", p.Title)
	fmt.Printf("Date:    %s\n", p.Date)
	fmt.Printf("Slug:    %s\n", p.Slug)
	fmt.Printf("Lang:    %s\n", p.Lang)
	fmt.Printf("Tags:    %s\n", tags)
	fmt.Printf("ID:      %s\n", p.ID)
	fmt.Printf("Preview: %s\n", p.Preview)
	return nil
}

// findPost resolves slug from Notion, or from the snapshot with --offline.
func findPost(ctx context.Context, slug string) (posts.Post, bool, error) {
	if !showOffline {
		a, err := loadApp()
		if err != nil {
			return posts.Post{}, false, err
		}
		p, ok := a.repo.FindBySlug(ctx, slug)
		return p, ok, nil
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		return posts.Post{}, false, fmt.Errorf("load config: %w", err)
	}
	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return posts.Post{}, false, fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()
	return db.PostBySlug(ctx, slug)
}

func contentAction(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pageID := args[0]
	if !notionid.Valid(pageID) {
		p, ok := a.repo.FindBySlug(ctx, pageID)
		if !ok {
			return fmt.Errorf("post %q not found", pageID)
		}
		pageID = p.ID
	}

	tree, err := a.fetcher.Fetch(ctx, pageID)
	if err != nil {
		return err
	}
	return writeJSON(tree)
}

func writeJSON(v any) error {
	data, err := jsonAPI.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}
