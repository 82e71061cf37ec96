package email

import (
	"context"
	"fmt"
	"log"
)

// CompositeEmailSender delivers through a primary Sender and mirrors every
// message to any number of secondary Senders (file log, mock sink).
// Only the primary result is reported; secondary failures are logged.
type CompositeEmailSender struct {
	primary     Sender
	secondaries []Sender
}

// NewCompositeEmailSender creates a new CompositeEmailSender around primary.
func NewCompositeEmailSender(primary Sender, secondaries ...Sender) *CompositeEmailSender {
	cs := &CompositeEmailSender{primary: primary}
	for _, s := range secondaries {
		cs.AddSender(s)
	}
	return cs
}

// AddSender adds a secondary sender.
func (cs *CompositeEmailSender) AddSender(sender Sender) {
	if sender != nil {
		cs.secondaries = append(cs.secondaries, sender)
	}
}

func (cs *CompositeEmailSender) Send(ctx context.Context, msg *Message) (string, error) {
	if cs.primary == nil {
		return "", fmt.Errorf("no primary sender configured in CompositeEmailSender")
	}

	id, err := cs.primary.Send(ctx, msg)

	for _, sender := range cs.secondaries {
		if _, serr := sender.Send(ctx, msg); serr != nil {
			log.Printf("CompositeEmailSender: secondary sender %T failed for %v: %v", sender, msg.To, serr)
		}
	}

	if err != nil {
		return "", err
	}
	return id, nil
}
