// Package store persists accepted request records. Records are append-only:
// once written they are never updated or deleted.
package store

import (
	"context"
	"errors"

	"andesgo/intake/internal/models"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrDuplicateID = errors.New("record id already exists")
)

// RecordStore is the capability the intake pipeline needs from persistence.
// ListAll returns records in insertion (creation) order.
type RecordStore interface {
	Append(ctx context.Context, record *models.RequestRecord) error
	GetByID(ctx context.Context, id string) (*models.RequestRecord, error)
	ListAll(ctx context.Context) ([]*models.RequestRecord, error)
}
