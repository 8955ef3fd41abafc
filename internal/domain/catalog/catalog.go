// Package catalog provides the fixed service catalog users browse and book.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested service does not exist.
var ErrNotFound = errors.New("service not found")

// Service represents a bookable service in the catalog.
type Service struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
}

// Repository defines read operations for the service catalog.
type Repository interface {
	List(ctx context.Context) ([]Service, error)
	GetByID(ctx context.Context, id string) (*Service, error)
}
