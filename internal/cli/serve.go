package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/notionblog/internal/cache"
	"github.com/ppiankov/notionblog/internal/diag"
	"github.com/ppiankov/notionblog/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve posts, content, feed and diagnostics over HTTP",
	RunE:  serveAction,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func serveAction(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	cfg := a.cfg

	st, err := cache.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}
	if r, ok := st.(*cache.Redis); ok {
		defer func() { _ = r.Close() }()
	}
	cached := cache.NewPosts(a.repo, st, cfg.Cache.ListTTL.Duration, cfg.Cache.PostTTL.Duration, a.log)

	diagnose := func(ctx context.Context) diag.Report {
		return diag.Run(ctx, a.client, cfg.Notion.Token, cfg.Notion.DatabaseID)
	}
	srv := server.New(cfg.Server, cached, a.fetcher, diagnose, a.log)

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(addr)
	}()
	a.log.Infof("serving %s on %s (cache %s)", cfg.Server.SiteName, addr, cfg.Cache.Backend)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
