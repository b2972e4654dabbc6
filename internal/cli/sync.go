package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/notionblog/internal/store"
)

var syncEvery string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Snapshot published posts into the local database",
	RunE:  syncAction,
}

func init() {
	syncCmd.Flags().StringVar(&syncEvery, "every", "", "repeat the sync at this interval (e.g. 15m)")
}

func syncAction(cmd *cobra.Command, _ []string) error {
	every, err := parseSyncEvery(syncEvery)
	if err != nil {
		return err
	}

	a, err := loadApp()
	if err != nil {
		return err
	}

	db, err := store.Open(a.cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	runOnce := func() error {
		list := a.repo.ListPublished(ctx)
		res, err := db.Sync(ctx, list, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("sync: %w", err)
		}
		if len(list) == 0 {
			fmt.Println("No posts returned; snapshot left unchanged.")
			return nil
		}
		fmt.Printf("Synced %d posts", res.Upserted)
		if res.Pruned > 0 {
			fmt.Printf(" (%d unpublished posts pruned)", res.Pruned)
		}
		fmt.Println()
		return nil
	}

	if every == 0 {
		return runOnce()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runWatch(ctx, every, runOnce)
}

func parseSyncEvery(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse --every: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("--every must be positive, got %s", value)
	}
	return d, nil
}

// runWatch runs runOnce immediately and then on every tick until ctx is done.
func runWatch(ctx context.Context, every time.Duration, runOnce func() error) error {
	if err := runOnce(); err != nil {
		return err
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := runOnce(); err != nil {
				return err
			}
		}
	}
}
