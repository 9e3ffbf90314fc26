// Package outbox models deletion receipts that could not be sent right away
// and wait to be retried.
package outbox

import (
	"errors"
	"time"
)

// Status constants for the entry lifecycle.
const (
	StatusPending  = "pending"
	StatusRetrying = "retrying"
	StatusDone     = "done"
	StatusFailed   = "failed"
)

// DefaultMaxAttempts bounds how often one receipt is tried, the first send included.
const DefaultMaxAttempts = 5

// Domain errors.
var (
	ErrEmptyRecipients = errors.New("receipt needs at least one recipient")
	ErrEmptySubject    = errors.New("receipt subject is required")
	ErrNotRetryable    = errors.New("receipt is not retryable")
)

// Message is the e-mail the entry delivers.
type Message struct {
	To      []string `json:"to"`
	From    string   `json:"from"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Entry is one queued receipt.
type Entry struct {
	ID              string
	ContactID       string
	Message         Message
	Status          string
	Attempts        int
	MaxAttempts     int
	LastAttemptedAt time.Time
	CreatedAt       time.Time
	MessageID       string // provider ID once sent
	ErrorMessage    string // last send error
}

// NewFailedEntry queues a receipt whose first send already failed.
// POST: Attempts is 1 and the entry is retryable unless maxAttempts <= 1
func NewFailedEntry(id, contactID string, msg Message, sendErr error, now time.Time) Entry {
	e := Entry{
		ID:          id,
		ContactID:   contactID,
		Message:     msg,
		Status:      StatusPending,
		MaxAttempts: DefaultMaxAttempts,
		CreatedAt:   now,
	}
	e.MarkAttempt(now)
	e.MarkFailed(sendErr)
	return e
}

// Validate checks that the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid, error otherwise
func (e *Entry) Validate() error {
	if e.ID == "" {
		return errors.New("entry id is required")
	}
	if len(e.Message.To) == 0 {
		return ErrEmptyRecipients
	}
	if e.Message.Subject == "" {
		return ErrEmptySubject
	}
	if e.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	if e.MaxAttempts <= 0 {
		return errors.New("max_attempts must be positive")
	}
	return nil
}

// CanRetry returns true if the entry can be retried.
// PRE: Status and Attempts fields are set
// POST: Returns true for pending/retrying with attempts < max
func (e *Entry) CanRetry() bool {
	return (e.Status == StatusPending || e.Status == StatusRetrying) && e.Attempts < e.MaxAttempts
}

// IsTerminal returns true once the receipt is sent or has run out of attempts.
func (e *Entry) IsTerminal() bool {
	return e.Status == StatusDone || e.Status == StatusFailed
}

// MarkAttempt records a send attempt.
// PRE: Entry is in a retryable state
// POST: Attempts incremented, LastAttemptedAt updated, status set to retrying
func (e *Entry) MarkAttempt(now time.Time) {
	e.Attempts++
	e.LastAttemptedAt = now
	e.Status = StatusRetrying
}

// MarkSuccess marks the receipt as sent.
func (e *Entry) MarkSuccess(messageID string) {
	e.Status = StatusDone
	e.MessageID = messageID
	e.ErrorMessage = ""
}

// MarkFailed records a send error.
// POST: Status becomes failed once attempts are used up, otherwise stays retrying
func (e *Entry) MarkFailed(err error) {
	e.ErrorMessage = err.Error()
	if e.Attempts >= e.MaxAttempts {
		e.Status = StatusFailed
	}
}

// NextRetryDelay calculates the delay before the next retry attempt.
// Uses exponential backoff: 2^attempts * baseDelay, capped at maxDelay.
// PRE: Attempts is set
// POST: Returns duration for next retry
func (e *Entry) NextRetryDelay(baseDelay time.Duration, maxDelay time.Duration) time.Duration {
	delay := baseDelay * (1 << e.Attempts)
	if delay > maxDelay || delay <= 0 {
		return maxDelay
	}
	return delay
}

// DueAt is when the entry may next be tried.
func (e *Entry) DueAt(baseDelay, maxDelay time.Duration) time.Time {
	if e.LastAttemptedAt.IsZero() {
		return e.CreatedAt
	}
	return e.LastAttemptedAt.Add(e.NextRetryDelay(baseDelay, maxDelay))
}
