package store

import (
	"context"
	"errors"
	"time"

	"safiri-mazao-api/models"
)

var (
	// ErrNotFound is returned when an id or track number is absent from the store
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when creating a record whose id already exists
	ErrConflict = errors.New("already exists")
)

// TransitionFunc vets a status change. It runs inside the store's critical
// section so the checked status is the one being overwritten.
type TransitionFunc func(from, to models.OrderStatus) error

// StatusChange is the result of a successful status update
type StatusChange struct {
	Previous models.OrderStatus
	Order    models.Order
}

// OrderStore holds crop transport orders. Orders originate from external
// intake channels; besides creation only their status is mutable.
type OrderStore interface {
	List(ctx context.Context) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (models.Order, error)
	GetByTrackNumber(ctx context.Context, code string) (models.Order, error)
	// Create assigns ID and TrackNumber when they are empty
	Create(ctx context.Context, o models.Order) (models.Order, error)
	// UpdateStatus replaces the status and bumps StatusUpdatedAt; guard may be nil
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus, guard TransitionFunc) (StatusChange, error)
}

type TransporterStore interface {
	List(ctx context.Context) ([]models.Transporter, error)
	GetByID(ctx context.Context, id string) (models.Transporter, error)
	Create(ctx context.Context, t models.Transporter) (models.Transporter, error)
	Update(ctx context.Context, id string, patch models.TransporterPatch) (models.Transporter, error)
	Remove(ctx context.Context, id string) (models.Transporter, error)
}

type CargoStore interface {
	Create(ctx context.Context, r models.CargoRequest) (models.CargoRequest, error)
	Get(ctx context.Context, id string) (models.CargoRequest, error)
	ApplyCallback(ctx context.Context, cb models.CargoCallback) (models.CargoRequest, error)
}

// Clock returns the current time; stores take one so tests can pin it
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// nextStatusTime keeps StatusUpdatedAt monotonic even if the clock steps back
func nextStatusTime(now, prev time.Time) time.Time {
	if now.Before(prev) {
		return prev
	}
	return now
}

func checkCtx(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
