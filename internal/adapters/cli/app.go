package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"addressbook/internal/adapters/email"
	"addressbook/internal/adapters/storage"
	contactstore "addressbook/internal/adapters/storage/contact"
	deletionstore "addressbook/internal/adapters/storage/deletion"
	outboxstore "addressbook/internal/adapters/storage/outbox"
	viewstore "addressbook/internal/adapters/storage/viewstate"
	"addressbook/internal/application/book"
	"addressbook/internal/application/orchestrators"
	"addressbook/internal/config"
)

// App is one opened address book with everything the commands share.
type App struct {
	Config      config.Config
	Logger      *zap.Logger
	Book        *book.Book
	DeletionLog *deletionstore.SQLiteStore
	Receipts    orchestrators.ReceiptSender // nil when receipts are disabled
	Outbox      *outboxstore.SQLiteStore

	db *storage.TimedDB
}

// OpenApp opens and migrates the database and loads the book.
// PRE: cfg passed Validate
// POST: Caller must Close the app
func OpenApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	raw, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := storage.MigrateDB(raw); err != nil {
		raw.Close()
		return nil, fmt.Errorf("migrate %s: %w", cfg.Database.Path, err)
	}
	db := storage.NewTimedDB(raw, logger, cfg.Database.SlowQueryMs)

	b, err := book.Open(ctx, contactstore.NewSQLiteStore(db), viewstore.NewSQLiteStore(db))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load address book: %w", err)
	}

	app := &App{
		Config:      cfg,
		Logger:      logger,
		Book:        b,
		DeletionLog: deletionstore.NewSQLiteStore(db),
		Outbox:      outboxstore.NewSQLiteStore(db),
		db:          db,
	}
	if cfg.Receipts.Enabled {
		app.Receipts = newReceiptSender(cfg.Receipts, logger)
	}
	return app, nil
}

func newReceiptSender(cfg config.ReceiptsConfig, logger *zap.Logger) orchestrators.ReceiptSender {
	var next email.Sender
	if cfg.ResendKey != "" {
		next = email.NewResendSender(cfg.ResendKey, cfg.From, logger)
	} else {
		next = email.NewNoopSender(logger)
	}
	return email.NewBreakerSender(next, email.BreakerSettings{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		OpenTimeout:      cfg.Breaker.OpenTimeout,
	}, logger)
}

// AfterDelete mails a receipt for a completed deletion when receipts are enabled.
// A failed receipt is queued for retry; it never undoes or fails the deletion.
func (a *App) AfterDelete(ctx context.Context, res orchestrators.DeleteContactResult) {
	if a.Receipts == nil {
		return
	}
	err := orchestrators.ExecuteSendDeletionReceipt(ctx, orchestrators.SendDeletionReceiptInput{
		Result: res,
		To:     a.Config.Receipts.To,
		From:   a.Config.Receipts.From,
	}, orchestrators.SendDeletionReceiptDeps{Sender: a.Receipts, Outbox: a.Outbox})
	if err != nil {
		a.Logger.Debug("receipt_not_sent", zap.String("contact_id", res.Deleted.ID), zap.Error(err))
	}
}

// Close closes the database.
func (a *App) Close() error {
	return a.db.Close()
}
