package orchestrators

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"addressbook/internal/domain/outbox"
	"addressbook/internal/logging"
	"addressbook/internal/metrics"
)

// Receipt retry defaults.
const (
	DefaultReceiptBaseDelay = 30 * time.Second
	DefaultReceiptMaxDelay  = time.Hour
	DefaultReceiptBatchSize = 10
)

// ReceiptProcessor retries queued deletion receipts.
type ReceiptProcessor struct {
	store     ReceiptOutbox
	sender    ReceiptSender
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
	now       func() time.Time
}

// NewReceiptProcessor creates a processor with the default backoff.
func NewReceiptProcessor(store ReceiptOutbox, sender ReceiptSender) *ReceiptProcessor {
	return &ReceiptProcessor{
		store:     store,
		sender:    sender,
		baseDelay: DefaultReceiptBaseDelay,
		maxDelay:  DefaultReceiptMaxDelay,
		batchSize: DefaultReceiptBatchSize,
		now:       time.Now,
	}
}

// ReceiptRunStats summarises one pass over the outbox.
type ReceiptRunStats struct {
	Sent    int
	Failed  int // attempted and failed again
	Waiting int // skipped because the backoff has not elapsed
}

// ProcessPending tries up to one batch of due entries once.
// PRE: Context is valid
// POST: Due entries are attempted and saved with their new status
// INVARIANT: Entries still in backoff never hide due entries queued after them
func (p *ReceiptProcessor) ProcessPending(ctx context.Context) (ReceiptRunStats, error) {
	var stats ReceiptRunStats
	now := p.now()
	due, waiting, err := p.collectDue(ctx, now)
	stats.Waiting = waiting
	if err != nil {
		return stats, err
	}

	logger := logging.FromContext(ctx)
	for _, entry := range due {
		entry.MarkAttempt(now)
		res, sendErr := p.sender.Send(ctx, sendRequest(entry.Message))
		if sendErr != nil {
			entry.MarkFailed(sendErr)
			stats.Failed++
			logger.Warn("receipt_event", zap.String("event", "receipt_retry_failed"),
				zap.String("entry_id", entry.ID), zap.Int("attempt", entry.Attempts), zap.Error(sendErr))
			if entry.Status == outbox.StatusFailed {
				metrics.ReceiptsTotal.WithLabelValues(metrics.ResultFailed).Inc()
			}
		} else {
			entry.MarkSuccess(res.MessageID)
			stats.Sent++
			metrics.ReceiptsTotal.WithLabelValues(ReceiptSent).Inc()
			logger.Info("receipt_event", zap.String("event", "receipt_retry_sent"),
				zap.String("entry_id", entry.ID), zap.String("message_id", res.MessageID))
		}
		if err := p.store.Save(ctx, entry); err != nil {
			return stats, fmt.Errorf("save receipt %s: %w", entry.ID, err)
		}
	}
	return stats, nil
}

// collectDue pages through the pending entries until it has a batch of due ones.
// INVARIANT: nothing is saved while paging
func (p *ReceiptProcessor) collectDue(ctx context.Context, now time.Time) (due []outbox.Entry, waiting int, err error) {
	for offset := 0; len(due) < p.batchSize; offset += p.batchSize {
		page, err := p.store.ListPending(ctx, p.batchSize, offset)
		if err != nil {
			return nil, waiting, fmt.Errorf("list pending receipts: %w", err)
		}
		for _, entry := range page {
			if !entry.CanRetry() {
				continue
			}
			if now.Before(entry.DueAt(p.baseDelay, p.maxDelay)) {
				waiting++
				continue
			}
			if len(due) < p.batchSize {
				due = append(due, entry)
			}
		}
		if len(page) < p.batchSize {
			break
		}
	}
	return due, waiting, nil
}

// Run processes the outbox every interval until ctx is done.
// POST: Returns nil when ctx is cancelled; pass errors are logged, not returned
func (p *ReceiptProcessor) Run(ctx context.Context, interval time.Duration) error {
	logger := logging.FromContext(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("receipt_worker_stopped")
			return nil
		case <-ticker.C:
			if _, err := p.ProcessPending(ctx); err != nil {
				logger.Error("receipt_worker_pass_failed", zap.Error(err))
			}
		}
	}
}
