package models

import (
	"fmt"
	"time"
)

type RequestStatus string

const StatusPending RequestStatus = "pending"

// RequestRecord is an accepted submission. It is written once and never updated.
type RequestRecord struct {
	ID        string        `bson:"_id" json:"id"`
	Kind      RequestKind   `bson:"kind" json:"kind"`
	Status    RequestStatus `bson:"status" json:"status"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
	Amount    *int64        `bson:"amount,omitempty" json:"amount,omitempty"`

	StorageBooking *StorageBooking       `bson:"storage_booking,omitempty" json:"storage_booking,omitempty"`
	MailboxRequest *MailboxRequest       `bson:"mailbox_request,omitempty" json:"mailbox_request,omitempty"`
	ShoppingQuote  *ShoppingQuoteRequest `bson:"shopping_quote,omitempty" json:"shopping_quote,omitempty"`
}

// Customer returns the identity of whichever variant the record carries.
func (r *RequestRecord) Customer() Customer {
	switch {
	case r.StorageBooking != nil:
		return r.StorageBooking.Customer
	case r.MailboxRequest != nil:
		return r.MailboxRequest.Customer
	case r.ShoppingQuote != nil:
		return r.ShoppingQuote.Customer
	}
	return Customer{}
}

// Category is the plan for storage bookings, "mailbox" for mailbox requests
// and the delivery method for shopping quotes.
func (r *RequestRecord) Category() string {
	switch {
	case r.StorageBooking != nil:
		return r.StorageBooking.Plan
	case r.MailboxRequest != nil:
		return "mailbox"
	case r.ShoppingQuote != nil:
		return r.ShoppingQuote.Delivery.Method
	}
	return ""
}

// RecordSummary is the reduced projection shown in operator listings.
type RecordSummary struct {
	ID           string        `json:"id"`
	Kind         RequestKind   `json:"kind"`
	CustomerName string        `json:"customer_name"`
	Category     string        `json:"category"`
	Amount       *int64        `json:"amount,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	Status       RequestStatus `json:"status"`
}

func (r *RequestRecord) Summary() RecordSummary {
	return RecordSummary{
		ID:           r.ID,
		Kind:         r.Kind,
		CustomerName: r.Customer().DisplayName(),
		Category:     r.Category(),
		Amount:       r.Amount,
		CreatedAt:    r.CreatedAt,
		Status:       r.Status,
	}
}

// Clone returns a deep copy of r.
func (r *RequestRecord) Clone() *RequestRecord {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Amount != nil {
		amount := *r.Amount
		cp.Amount = &amount
	}
	if b := r.StorageBooking; b != nil {
		booking := *b
		if b.Hours != nil {
			hours := *b.Hours
			booking.Hours = &hours
		}
		cp.StorageBooking = &booking
	}
	if m := r.MailboxRequest; m != nil {
		req := *m
		if m.Items != nil {
			req.Items = make([]PackageItem, len(m.Items))
			for i, item := range m.Items {
				if item.Image != nil {
					img := *item.Image
					item.Image = &img
				}
				req.Items[i] = item
			}
		}
		cp.MailboxRequest = &req
	}
	if q := r.ShoppingQuote; q != nil {
		req := *q
		if q.Delivery.Hotel != nil {
			hotel := *q.Delivery.Hotel
			req.Delivery.Hotel = &hotel
		}
		if q.Products != nil {
			req.Products = append([]ProductItem(nil), q.Products...)
		}
		cp.ShoppingQuote = &req
	}
	return &cp
}

// WithoutImageData returns a deep copy of r whose inline images keep their
// filename and type while the payload is replaced by its length.
func (r *RequestRecord) WithoutImageData() *RequestRecord {
	cp := r.Clone()
	if cp == nil || cp.MailboxRequest == nil {
		return cp
	}
	for _, item := range cp.MailboxRequest.Items {
		if item.Image != nil {
			item.Image.Data = fmt.Sprintf("[%d bytes elided]", len(item.Image.Data))
		}
	}
	return cp
}
