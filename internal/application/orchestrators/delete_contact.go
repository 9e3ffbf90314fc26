package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"addressbook/internal/domain/contact"
	"addressbook/internal/domain/deletion"
	"addressbook/internal/logging"
	"addressbook/internal/metrics"
)

// BookForDeletion is the part of the record store the executor needs.
type BookForDeletion interface {
	FilteredView() []contact.Contact
	Remove(ctx context.Context, c contact.Contact) error
}

// Confirmer is the confirmation surface. Both calls block until the user answers.
type Confirmer interface {
	// ConfirmSingle asks whether c should be deleted.
	ConfirmSingle(ctx context.Context, c contact.Contact) (bool, error)
	// Choose asks the user to pick one of candidates; ok is false when they decline.
	Choose(ctx context.Context, candidates []contact.Contact) (chosen contact.Contact, ok bool, err error)
}

// Notifier is the notification surface.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// DeletionLogStore records completed deletions.
type DeletionLogStore interface {
	Append(ctx context.Context, entry deletion.Entry) error
}

// DeleteContactInput carries input for the delete orchestrator.
type DeleteContactInput struct {
	Request deletion.Request
}

// DeleteContactDeps holds dependencies for DeleteContact.
type DeleteContactDeps struct {
	Book        BookForDeletion
	Confirmer   Confirmer
	Notifier    Notifier
	Format      func(contact.Contact) string // defaults to contact.Format
	DeletionLog DeletionLogStore             // optional
	GenerateID  func() string                // defaults to uuid.NewString
	Now         func() time.Time             // defaults to time.Now
}

// DeleteContactResult is returned on success.
type DeleteContactResult struct {
	Message string
	Deleted contact.Contact
	Outcome string
}

// ErrChoiceNotOffered means the confirmation surface returned a contact it was not offered.
var ErrChoiceNotOffered = errors.New("chosen contact was not one of the candidates")

// ExecuteDeleteContact resolves a deletion request against the filtered view and,
// once the user agrees, removes the contact.
// PRE: input.Request is non-nil; Book, Confirmer and Notifier are set
// POST: On success exactly one contact is removed and Message embeds its formatted fields
// POST: On any failure the book is unchanged
// INVARIANT: the confirmer and notifier are each called at most once
func ExecuteDeleteContact(ctx context.Context, input DeleteContactInput, deps DeleteContactDeps) (DeleteContactResult, error) {
	if input.Request == nil {
		return DeleteContactResult{}, errors.New("deletion request is required")
	}
	logger := logging.FromContext(ctx).With(
		zap.String("request_kind", deletion.Kind(input.Request)),
		zap.String("request", input.Request.String()),
	)

	outcome := deletion.Resolve(input.Request, deps.Book.FilteredView())
	label := deletion.Label(outcome)

	var target contact.Contact
	switch o := outcome.(type) {
	case deletion.InvalidIndex:
		return failDeletion(logger, label, deletion.ErrInvalidIndex)

	case deletion.NoMatch:
		deps.Notifier.Notify(ctx, deletion.ErrNoMatchesFound.Error())
		return failDeletion(logger, label, deletion.ErrNoMatchesFound)

	case deletion.ByIndex:
		target = o.Contact
	case deletion.SingleMatch:
		target = o.Contact

	case deletion.MultipleMatches:
		chosen, ok, err := deps.Confirmer.Choose(ctx, o.Candidates)
		if err != nil {
			return failDeletion(logger, label, fmt.Errorf("choose contact: %w", err))
		}
		if !ok {
			return failDeletion(logger, label, deletion.ErrDeletionCancelled)
		}
		if !offered(chosen, o.Candidates) {
			return failDeletion(logger, label, fmt.Errorf("%w: %s", ErrChoiceNotOffered, chosen.ID))
		}
		return removeContact(ctx, logger, label, input.Request, chosen, deps)

	default:
		panic(fmt.Sprintf("orchestrators: unhandled deletion outcome %T", outcome))
	}

	ok, err := deps.Confirmer.ConfirmSingle(ctx, target)
	if err != nil {
		return failDeletion(logger, label, fmt.Errorf("confirm deletion: %w", err))
	}
	if !ok {
		return failDeletion(logger, label, deletion.ErrDeletionCancelled)
	}
	return removeContact(ctx, logger, label, input.Request, target, deps)
}

func removeContact(ctx context.Context, logger *zap.Logger, label string, req deletion.Request, target contact.Contact, deps DeleteContactDeps) (DeleteContactResult, error) {
	if err := deps.Book.Remove(ctx, target); err != nil {
		logger.Error("contact_event", zap.String("event", "contact_remove_failed"), zap.String("contact_id", target.ID), zap.Error(err))
		metrics.DeletionOutcomesTotal.WithLabelValues(label, metrics.ResultFailed).Inc()
		return DeleteContactResult{}, err
	}

	format := deps.Format
	if format == nil {
		format = contact.Format
	}
	result := DeleteContactResult{
		Message: deletion.MessageDeleteSuccess + format(target),
		Deleted: target,
		Outcome: label,
	}

	if deps.DeletionLog != nil {
		if err := deps.DeletionLog.Append(ctx, logEntry(req, target, deps)); err != nil {
			// the contact is already gone; a missing log line must not undo that
			logger.Warn("deletion_log_append_failed", zap.String("contact_id", target.ID), zap.Error(err))
		}
	}

	metrics.DeletionOutcomesTotal.WithLabelValues(label, metrics.ResultDeleted).Inc()
	logger.Info("contact_event",
		zap.String("event", "contact_deleted"),
		zap.String("outcome", label),
		zap.String("contact_id", target.ID),
	)
	return result, nil
}

func failDeletion(logger *zap.Logger, label string, err error) (DeleteContactResult, error) {
	result := metrics.ResultFailed
	if errors.Is(err, deletion.ErrDeletionCancelled) {
		result = metrics.ResultCancelled
	}
	metrics.DeletionOutcomesTotal.WithLabelValues(label, result).Inc()

	if deletion.IsUserFacing(err) {
		logger.Info("contact_event", zap.String("event", "deletion_"+result), zap.String("outcome", label), zap.String("reason", err.Error()))
	} else {
		logger.Error("contact_event", zap.String("event", "deletion_surface_failed"), zap.String("outcome", label), zap.Error(err))
	}
	return DeleteContactResult{}, err
}

func offered(chosen contact.Contact, candidates []contact.Contact) bool {
	for _, c := range candidates {
		if c.ID == chosen.ID {
			return true
		}
	}
	return false
}

func logEntry(req deletion.Request, target contact.Contact, deps DeleteContactDeps) deletion.Entry {
	genID := deps.GenerateID
	if genID == nil {
		genID = uuid.NewString
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	var query string
	switch r := req.(type) {
	case deletion.ByPosition:
		query = strconv.Itoa(r.Index)
	case deletion.ByName:
		query = r.Name
	}
	return deletion.Entry{
		ID:          genID(),
		ContactID:   target.ID,
		ContactName: target.Name,
		RequestKind: deletion.Kind(req),
		Query:       query,
		DeletedAt:   now(),
	}
}
