package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/ideaforge/internal/model"
	"github.com/sakif/ideaforge/internal/repository"
)

const (
	defaultBatchSize = 50

	// recordTimeout bounds the status write that follows a send.
	recordTimeout = 5 * time.Second
)

// Sender delivers one message on its channel.
type Sender interface {
	Send(ctx context.Context, msg model.ScheduledMessage) error
}

// Dispatcher drains due messages from the outbox.
//
// THE OUTBOX PATTERN:
// Handlers never talk to WhatsApp directly. ScheduleWhatsApp only inserts a
// row into scheduled_messages, which is a fast local write that cannot fail
// because a third party is down. The Dispatcher runs on a timer, picks the
// rows that are due and delivers them.
//
// DELIVERY GUARANTEE (AT MOST ONCE):
// A customer getting the same WhatsApp twice is worse than a message that
// has to be re-sent by hand, so every row goes through:
//
//	pending ──claim──▶ sending ──send ok──▶ sent
//	                          └─send err──▶ failed
//
//  1. Claim: an UPDATE ... WHERE status = 'pending'. If two runs race for
//     the same row, SQLite lets exactly one of them change it.
//  2. Send: only the run that claimed the row calls the Sender.
//  3. Record: the outcome is written with a context that is NOT the run's
//     context. If the run's deadline expires while the provider is
//     answering, the provider may already have accepted the message; the
//     row must still become "sent" instead of staying claimable.
//
// A crash between claim and record leaves the row in "sending". It is
// never retried automatically.
type Dispatcher struct {
	repo   repository.MessageRepository
	sender Sender
	logger *slog.Logger
	now    func() time.Time
	batch  int
}

func NewDispatcher(repo repository.MessageRepository, sender Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		repo:   repo,
		sender: sender,
		logger: logger,
		now:    time.Now,
		batch:  defaultBatchSize,
	}
}

// RunOnce sends every pending message whose time has come and records the
// outcome of each one. A failed send never stops the batch.
func (d *Dispatcher) RunOnce(ctx context.Context) (sent, failed int, err error) {
	due, err := d.repo.DueScheduledMessages(ctx, d.now(), d.batch)
	if err != nil {
		return 0, 0, fmt.Errorf("notify: loading due messages: %w", err)
	}

	for _, msg := range due {
		// Stop before claiming: an unclaimed row is simply picked up by the
		// next run.
		if err := ctx.Err(); err != nil {
			return sent, failed, err
		}

		claimed, err := d.repo.ClaimScheduledMessage(ctx, msg.ID)
		if err != nil {
			return sent, failed, fmt.Errorf("notify: claiming message %s: %w", msg.ID, err)
		}
		if !claimed {
			d.logger.Debug("scheduled message already claimed", "id", msg.ID)
			continue
		}

		sendErr := d.sender.Send(ctx, msg)

		if sendErr != nil {
			failed++
			d.logger.Warn("scheduled message failed", "id", msg.ID, "channel", msg.Channel, "error", sendErr)
		} else {
			sent++
		}
		if err := d.record(ctx, msg.ID, sendErr); err != nil {
			return sent, failed, err
		}
	}

	if len(due) > 0 {
		d.logger.Info("dispatched scheduled messages", "sent", sent, "failed", failed)
	}
	return sent, failed, nil
}

// record stores the outcome of one send. context.WithoutCancel keeps the
// values (trace IDs) of ctx but drops its deadline and cancellation.
func (d *Dispatcher) record(ctx context.Context, id string, sendErr error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if sendErr != nil {
		return d.repo.MarkMessageFailed(ctx, id, sendErr.Error())
	}
	return d.repo.MarkMessageSent(ctx, id, d.now())
}

// Job adapts RunOnce to a cron callback with its own deadline.
func (d *Dispatcher) Job(timeout time.Duration) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, _, err := d.RunOnce(ctx); err != nil {
			d.logger.Error("dispatching scheduled messages", "error", err)
		}
	}
}
