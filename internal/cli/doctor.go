package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/notionblog/internal/cache"
	"github.com/ppiankov/notionblog/internal/config"
	"github.com/ppiankov/notionblog/internal/diag"
	"github.com/ppiankov/notionblog/internal/store"
)

const cachePingTimeout = 3 * time.Second

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, local storage and the Notion connection",
	RunE:  doctorAction,
}

func doctorAction(cmd *cobra.Command, _ []string) error {
	ok := true
	ctx := cmd.Context()

	// Config dir is optional; env vars and defaults are enough to run.
	if info, err := os.Stat(configDir); err != nil || !info.IsDir() {
		printInfo("config directory %s not found, using defaults (run notionblog init)", configDir)
	} else {
		printCheck(true, "config directory %s", configDir)
	}

	a, err := loadApp()
	if err != nil {
		printCheck(false, "config.yaml: %v", err)
		return fmt.Errorf("some checks failed")
	}
	cfg := a.cfg
	printCheck(true, "config.yaml (cache %s, log level %s)", cfg.Cache.Backend, cfg.Log.Level)

	// Database
	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		printCheck(false, "snapshot database: %v", err)
		ok = false
	} else {
		defer func() { _ = db.Close() }()
		printCheck(true, "snapshot database %s", cfg.Storage.Path)
		if last, err := db.LastSync(ctx); err == nil {
			if last.IsZero() {
				printInfo("snapshot never synced (run notionblog sync)")
			} else {
				printInfo("snapshot last synced %s", last.Local().Format(time.RFC3339))
			}
		}
	}

	// Cache
	if !checkCache(ctx, cfg.Cache) {
		ok = false
	}

	// Notion
	report := diag.Run(ctx, a.client, cfg.Notion.Token, cfg.Notion.DatabaseID)
	if !checkNotion(cfg, report) {
		ok = false
	}

	if !ok {
		return fmt.Errorf("some checks failed")
	}
	fmt.Println("\nAll checks passed.")
	return nil
}

func checkCache(ctx context.Context, cfg config.CacheConfig) bool {
	st, err := cache.New(cfg)
	if err != nil {
		printCheck(false, "cache: %v", err)
		return false
	}

	r, isRedis := st.(*cache.Redis)
	if !isRedis {
		printCheck(true, "cache %s (list %s, post %s)", cfg.Backend, cfg.ListTTL.Duration, cfg.PostTTL.Duration)
		return true
	}
	defer func() { _ = r.Close() }()

	pingCtx, cancel := context.WithTimeout(ctx, cachePingTimeout)
	defer cancel()
	if err := r.Ping(pingCtx); err != nil {
		printCheck(false, "cache redis %s: %v", cfg.Redis.Addr, err)
		return false
	}
	printCheck(true, "cache redis %s", cfg.Redis.Addr)
	return true
}

func checkNotion(cfg *config.Config, report diag.Report) bool {
	ok := true

	if cfg.Notion.Token == "" {
		printCheck(false, "notion token %s (set %s)", report.Token, cfg.Notion.TokenEnv)
		ok = false
	} else {
		printCheck(true, "notion token %s", report.Token)
	}

	switch {
	case cfg.Notion.DatabaseID == "":
		printCheck(false, "database id %s (set %s)", report.DatabaseID, cfg.Notion.DatabaseIDEnv)
		ok = false
	case !report.DatabaseValid:
		printCheck(false, "database id %s is not a valid Notion id", report.DatabaseID)
		ok = false
	default:
		printCheck(true, "database id %s", report.DatabaseID)
	}

	if !report.OK() {
		if report.Error != nil && report.Error.Status != 0 {
			printCheck(false, "notion connection: %s (%d %s)", report.Error.Message, report.Error.Status, report.Error.Code)
		} else if report.Error != nil {
			printCheck(false, "notion connection: %s", report.Error.Message)
		} else {
			printCheck(false, "notion connection: %s", report.Status)
		}
		return false
	}

	printCheck(true, "notion database %q (%d properties)", report.Database.Title, len(report.Database.Properties))

	present := make(map[string]bool, len(report.Database.Properties))
	for _, name := range report.Database.Properties {
		present[name] = true
	}
	p := cfg.Properties
	for _, name := range []string{p.Title, p.Date, p.Slug, p.Tags, p.Lang, p.Published} {
		if !present[name] {
			printInfo("property %q not found in database; posts will use its default", name)
		}
	}

	return ok
}

func printCheck(pass bool, format string, args ...any) {
	mark := "FAIL"
	if pass {
		mark = " OK "
	}
	fmt.Printf("[%s] %s\n", mark, fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...any) {
	fmt.Printf("[INFO] %s\n", fmt.Sprintf(format, args...))
}
