package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"addressbook/internal/adapters/email"
	"addressbook/internal/domain/outbox"
	"addressbook/internal/logging"
	"addressbook/internal/metrics"
)

// Receipt results besides metrics.ResultFailed.
const (
	ReceiptSent   = "sent"
	ReceiptQueued = "queued"
)

// ReceiptSender delivers a single e-mail.
type ReceiptSender interface {
	Send(ctx context.Context, req email.SendRequest) (email.SendResult, error)
}

// ReceiptOutbox keeps receipts that must be retried.
type ReceiptOutbox interface {
	Save(ctx context.Context, e outbox.Entry) error
	ListPending(ctx context.Context, limit, offset int) ([]outbox.Entry, error)
}

// SendDeletionReceiptInput carries the deletion that just completed.
type SendDeletionReceiptInput struct {
	Result DeleteContactResult
	To     []string
	From   string
}

// SendDeletionReceiptDeps holds dependencies for SendDeletionReceipt.
type SendDeletionReceiptDeps struct {
	Sender     ReceiptSender
	Outbox     ReceiptOutbox    // optional; failed receipts are dropped without it
	GenerateID func() string    // defaults to uuid.NewString
	Now        func() time.Time // defaults to time.Now
}

// ExecuteSendDeletionReceipt mails the success message of a completed deletion.
// PRE: input.Result came from a successful ExecuteDeleteContact
// POST: One e-mail is handed to the sender; on failure it is queued in the outbox when one is set
// INVARIANT: the deletion itself is never affected
func ExecuteSendDeletionReceipt(ctx context.Context, input SendDeletionReceiptInput, deps SendDeletionReceiptDeps) error {
	if len(input.To) == 0 {
		return errors.New("receipt recipient is required")
	}
	if input.Result.Message == "" {
		return errors.New("receipt needs a completed deletion")
	}
	if deps.GenerateID == nil {
		deps.GenerateID = uuid.NewString
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	msg := outbox.Message{
		To:      input.To,
		From:    input.From,
		Subject: "Contact deleted: " + input.Result.Deleted.Name,
		HTML:    fmt.Sprintf("<p>%s</p>", html.EscapeString(input.Result.Message)),
	}
	logger := logging.FromContext(ctx).With(zap.String("contact_id", input.Result.Deleted.ID))

	res, err := deps.Sender.Send(ctx, sendRequest(msg))
	if err == nil {
		metrics.ReceiptsTotal.WithLabelValues(ReceiptSent).Inc()
		logger.Info("receipt_event", zap.String("event", "receipt_sent"), zap.String("message_id", res.MessageID))
		return nil
	}

	if deps.Outbox == nil {
		metrics.ReceiptsTotal.WithLabelValues(metrics.ResultFailed).Inc()
		logger.Warn("receipt_event", zap.String("event", "receipt_failed"), zap.Error(err))
		return fmt.Errorf("send receipt: %w", err)
	}

	entry := outbox.NewFailedEntry(deps.GenerateID(), input.Result.Deleted.ID, msg, err, deps.Now())
	if saveErr := deps.Outbox.Save(ctx, entry); saveErr != nil {
		metrics.ReceiptsTotal.WithLabelValues(metrics.ResultFailed).Inc()
		logger.Error("receipt_event", zap.String("event", "receipt_lost"), zap.Error(err), zap.NamedError("save_error", saveErr))
		return fmt.Errorf("send receipt: %w", errors.Join(err, saveErr))
	}
	metrics.ReceiptsTotal.WithLabelValues(ReceiptQueued).Inc()
	logger.Warn("receipt_event", zap.String("event", "receipt_queued"), zap.String("entry_id", entry.ID), zap.Error(err))
	return fmt.Errorf("send receipt (queued for retry): %w", err)
}

func sendRequest(msg outbox.Message) email.SendRequest {
	return email.SendRequest{To: msg.To, From: msg.From, Subject: msg.Subject, HTML: msg.HTML}
}
