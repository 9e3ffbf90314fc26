package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	web "addressbook/internal/adapters/http"
	"addressbook/internal/application/orchestrators"
)

const (
	shutdownTimeout      = 10 * time.Second
	receiptRetryInterval = time.Minute
)

func newServeCmd(o *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the address book over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := o.mustApp()
			cfg := app.Config
			if addr != "" {
				cfg.Web.Addr = addr
			}
			key, err := cfg.CSRFKey()
			if err != nil {
				return err
			}
			if cfg.Web.Secret == "" {
				app.Logger.Warn("no web secret configured, csrf tokens will not survive a restart")
			}

			srv, err := web.NewServer(web.Deps{
				Book:               app.Book,
				DeletionLog:        app.DeletionLog,
				AfterDelete:        app.AfterDelete,
				Logger:             app.Logger,
				CSRFKey:            key,
				SecureCookies:      cfg.Web.SecureCookies,
				RateLimitPerSecond: cfg.Web.RateLimitPerSecond,
			})
			if err != nil {
				return err
			}
			defer srv.Close()

			httpSrv := &http.Server{
				Addr:              cfg.Web.Addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			g, gctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				app.Logger.Info("server_started", zap.String("addr", cfg.Web.Addr), zap.Int("contacts", app.Book.Size()))
				if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			if app.Receipts != nil {
				processor := orchestrators.NewReceiptProcessor(app.Outbox, app.Receipts)
				g.Go(func() error { return processor.Run(gctx, receiptRetryInterval) })
			}
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				app.Logger.Info("server_stopping")
				return httpSrv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides web.addr)")
	return cmd
}
