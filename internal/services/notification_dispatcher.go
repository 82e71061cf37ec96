package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"andesgo/intake/internal/config"
	"andesgo/intake/internal/email"
	"andesgo/intake/internal/models"
	"andesgo/intake/internal/retry"
)

// ErrCriticalDispatch means the operator notification could not be
// delivered; the submission must not be reported as accepted.
var ErrCriticalDispatch = errors.New("critical dispatch failure: operator notification not delivered")

type DispatchStatus string

const (
	DispatchConfirmed           DispatchStatus = "confirmed"
	DispatchPendingConfirmation DispatchStatus = "pending_confirmation"
)

const warningCustomerNotNotified = "No se pudo enviar confirmación al cliente"

// NotificationOutcome records what happened on each step of one dispatch.
type NotificationOutcome struct {
	OperatorSent      bool
	OperatorMessageID string
	OperatorErr       error
	OperatorAttempts  int

	CustomerSent      bool
	CustomerMessageID string
	CustomerErr       error

	FailureNoticeAttempted bool
	FailureNoticeSent      bool
	FailureNoticeErr       error
}

// Status is confirmed only when the customer received their copy.
func (o *NotificationOutcome) Status() DispatchStatus {
	if o.CustomerSent {
		return DispatchConfirmed
	}
	return DispatchPendingConfirmation
}

func (o *NotificationOutcome) Warnings() []string {
	if o.OperatorSent && !o.CustomerSent {
		return []string{warningCustomerNotNotified}
	}
	return []string{}
}

// INotificationDispatcher delivers composed messages following the
// operator-first protocol.
type INotificationDispatcher interface {
	Dispatch(ctx context.Context, record *models.RequestRecord, msgs *ComposedMessages) (*NotificationOutcome, error)
}

// notificationDispatcher implements INotificationDispatcher.
type notificationDispatcher struct {
	sender          email.Sender
	composer        INotificationComposer
	sendTimeout     time.Duration
	operatorRetries int
	retryBackoff    time.Duration
}

// NewNotificationDispatcher creates a dispatcher. composer is used only to
// build the failure notice when the customer send fails.
func NewNotificationDispatcher(cfg *config.Config, sender email.Sender, composer INotificationComposer) INotificationDispatcher {
	return &notificationDispatcher{
		sender:          sender,
		composer:        composer,
		sendTimeout:     cfg.MailSendTimeout,
		operatorRetries: cfg.OperatorSendRetries,
		retryBackoff:    cfg.OperatorRetryDelay,
	}
}

// Dispatch sends the operator message (with bounded retry), then the
// customer message once. A customer failure triggers one failure notice to
// the operator whose own failure is only logged. The record is never modified.
func (d *notificationDispatcher) Dispatch(ctx context.Context, record *models.RequestRecord, msgs *ComposedMessages) (*NotificationOutcome, error) {
	outcome := &NotificationOutcome{}

	err := retry.WithRetries(ctx, func(attempt int) error {
		outcome.OperatorAttempts = attempt + 1
		id, err := d.send(ctx, msgs.Operator)
		if err != nil {
			log.Printf("Operator notification for %s failed (attempt %d): %v", record.ID, attempt+1, err)
			return err
		}
		outcome.OperatorMessageID = id
		return nil
	}, d.operatorRetries, d.retryBackoff, retry.Always)
	if err != nil {
		outcome.OperatorErr = err
		c := record.Customer()
		log.Printf("CRITICAL: lead %s (%s) not delivered to operator after %d attempts: customer=%q email=%q phone=%q: %v",
			record.ID, record.Kind, outcome.OperatorAttempts, c.DisplayName(), c.Email, c.FullPhone(), err)
		if dump, jerr := json.Marshal(record.WithoutImageData()); jerr != nil {
			log.Printf("CRITICAL: lead %s could not be serialized for recovery: %v", record.ID, jerr)
		} else {
			log.Printf("CRITICAL: lead %s recovery record: %s", record.ID, dump)
		}
		return outcome, fmt.Errorf("%w: request %s: %v", ErrCriticalDispatch, record.ID, err)
	}
	outcome.OperatorSent = true

	id, err := d.send(ctx, msgs.Customer)
	if err == nil {
		outcome.CustomerSent = true
		outcome.CustomerMessageID = id
		log.Printf("Notifications for %s delivered (operator: %s, customer: %s)", record.ID, outcome.OperatorMessageID, id)
		return outcome, nil
	}

	outcome.CustomerErr = err
	log.Printf("Customer confirmation for %s failed: %v", record.ID, err)

	outcome.FailureNoticeAttempted = true
	notice, cerr := d.composer.ComposeFailureNotice(ctx, record, err.Error())
	if cerr != nil {
		outcome.FailureNoticeErr = cerr
		log.Printf("Failed to compose failure notice for %s: %v", record.ID, cerr)
		return outcome, nil
	}
	if _, nerr := d.send(ctx, notice); nerr != nil {
		outcome.FailureNoticeErr = nerr
		log.Printf("Failure notice for %s could not be sent: %v", record.ID, nerr)
		return outcome, nil
	}
	outcome.FailureNoticeSent = true
	log.Printf("Failure notice for %s sent to operator", record.ID)
	return outcome, nil
}

type sendResult struct {
	id  string
	err error
}

// send bounds a single delivery by the per-send timeout, including senders
// that ignore their context.
func (d *notificationDispatcher) send(ctx context.Context, msg *email.Message) (string, error) {
	if d.sendTimeout <= 0 {
		return d.sender.Send(ctx, msg)
	}

	ctx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	done := make(chan sendResult, 1)
	go func() {
		id, err := d.sender.Send(ctx, msg)
		done <- sendResult{id: id, err: err}
	}()

	select {
	case r := <-done:
		return r.id, r.err
	case <-ctx.Done():
		return "", fmt.Errorf("send to %v timed out after %s: %w", msg.To, d.sendTimeout, ctx.Err())
	}
}
