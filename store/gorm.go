package store

import (
	"context"
	"errors"
	"fmt"

	"safiri-mazao-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderStore persists orders through GORM (SQLite or Postgres)
type GormOrderStore struct {
	db  *gorm.DB
	now Clock
}

func NewGormOrderStore(db *gorm.DB, clock Clock) *GormOrderStore {
	if clock == nil {
		clock = systemClock
	}
	return &GormOrderStore{db: db, now: clock}
}

// lockRow adds SELECT ... FOR UPDATE where the dialect supports it.
// SQLite serializes writers on its own.
func lockRow(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

func (s *GormOrderStore) List(ctx context.Context) ([]models.Order, error) {
	var recs []orderRecord
	if err := s.db.WithContext(ctx).Order("seq asc").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]models.Order, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *GormOrderStore) GetByID(ctx context.Context, id string) (models.Order, error) {
	var rec orderRecord
	if err := s.db.WithContext(ctx).Where("order_id = ?", id).First(&rec).Error; err != nil {
		return models.Order{}, notFound(err, "order "+id)
	}
	return rec.model(), nil
}

func (s *GormOrderStore) GetByTrackNumber(ctx context.Context, code string) (models.Order, error) {
	var rec orderRecord
	if err := s.db.WithContext(ctx).Where("track_number = ?", code).First(&rec).Error; err != nil {
		return models.Order{}, notFound(err, "order with track number "+code)
	}
	return rec.model(), nil
}

// identityAttempts bounds how often a generated identity is re-picked after
// losing an insert race to another connection.
const identityAttempts = 5

// orderIdentityLock is the Postgres advisory lock key serialising order intake
const orderIdentityLock = 0x5afe0001

// lockOrderIdentity holds a transaction-scoped advisory lock on Postgres so
// concurrent intakes count and probe one at a time.
func lockOrderIdentity(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(?)", orderIdentityLock).Error
}

// retryOnDuplicate reruns create while it fails on a unique index, up to
// attempts times. A duplicate that persists is reported as ErrConflict.
func retryOnDuplicate(attempts int, what string, create func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = create(); !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return fmt.Errorf("%s: %w", what, ErrConflict)
}

func (s *GormOrderStore) Create(ctx context.Context, in models.Order) (models.Order, error) {
	attempts := identityAttempts
	if in.ID != "" && in.TrackNumber != "" {
		attempts = 1
	}
	what := "order " + in.ID
	if in.ID == "" {
		what = "order identity"
	}
	var o models.Order
	err := retryOnDuplicate(attempts, what, func() error {
		o = in.Clone()
		return s.create(ctx, &o)
	})
	if err != nil {
		return models.Order{}, err
	}
	return o.Clone(), nil
}

func (s *GormOrderStore) create(ctx context.Context, o *models.Order) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOrderIdentity(tx); err != nil {
			return err
		}
		var n int64
		if o.ID != "" || o.TrackNumber != "" {
			if err := tx.Model(&orderRecord{}).
				Where("order_id = ? OR track_number = ?", o.ID, o.TrackNumber).
				Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("order %s / %s: %w", o.ID, o.TrackNumber, ErrConflict)
			}
		}

		prepareOrder(o, s.now())

		var total int64
		if err := tx.Model(&orderRecord{}).Count(&total).Error; err != nil {
			return err
		}
		var lookupErr error
		assignOrderIdentity(o, int(total)+1, func(id, track string) bool {
			var c int64
			if err := tx.Model(&orderRecord{}).
				Where("order_id = ? OR track_number = ?", id, track).
				Count(&c).Error; err != nil {
				lookupErr = err
				return false
			}
			return c > 0
		})
		if lookupErr != nil {
			return lookupErr
		}

		rec := newOrderRecord(*o)
		return tx.Create(&rec).Error
	})
}

func (s *GormOrderStore) UpdateStatus(ctx context.Context, id string, status models.OrderStatus, guard TransitionFunc) (StatusChange, error) {
	var change StatusChange
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec orderRecord
		if err := lockRow(tx).Where("order_id = ?", id).First(&rec).Error; err != nil {
			return notFound(err, "order "+id)
		}
		from := models.OrderStatus(rec.Status)
		if guard != nil {
			if err := guard(from, status); err != nil {
				return err
			}
		}
		ts := nextStatusTime(s.now(), rec.StatusUpdatedAt)
		if err := tx.Model(&rec).Updates(map[string]any{
			"status":            string(status),
			"status_updated_at": ts,
		}).Error; err != nil {
			return err
		}
		rec.Status = string(status)
		rec.StatusUpdatedAt = ts
		change = StatusChange{Previous: from, Order: rec.model()}
		return nil
	})
	if err != nil {
		return StatusChange{}, err
	}
	return change, nil
}

// GormTransporterStore persists transporters through GORM
type GormTransporterStore struct {
	db  *gorm.DB
	now Clock
}

func NewGormTransporterStore(db *gorm.DB, clock Clock) *GormTransporterStore {
	if clock == nil {
		clock = systemClock
	}
	return &GormTransporterStore{db: db, now: clock}
}

func (s *GormTransporterStore) List(ctx context.Context) ([]models.Transporter, error) {
	var recs []transporterRecord
	if err := s.db.WithContext(ctx).Order("seq asc").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]models.Transporter, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *GormTransporterStore) GetByID(ctx context.Context, id string) (models.Transporter, error) {
	var rec transporterRecord
	if err := s.db.WithContext(ctx).Where("transporter_id = ?", id).First(&rec).Error; err != nil {
		return models.Transporter{}, notFound(err, "transporter "+id)
	}
	return rec.model(), nil
}

func (s *GormTransporterStore) Create(ctx context.Context, in models.Transporter) (models.Transporter, error) {
	attempts := identityAttempts
	if in.ID != "" {
		attempts = 1
	}
	what := "transporter " + in.ID
	if in.ID == "" {
		what = "transporter identity"
	}
	var t models.Transporter
	err := retryOnDuplicate(attempts, what, func() error {
		t = in
		return s.create(ctx, &t)
	})
	if err != nil {
		return models.Transporter{}, err
	}
	return t, nil
}

func (s *GormTransporterStore) create(ctx context.Context, t *models.Transporter) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists := func(id string) (bool, error) {
			var n int64
			err := tx.Model(&transporterRecord{}).Where("transporter_id = ?", id).Count(&n).Error
			return n > 0, err
		}
		now := s.now()
		if t.ID == "" {
			var lookupErr error
			t.ID = transporterID(now, func(id string) bool {
				taken, err := exists(id)
				if err != nil {
					lookupErr = err
					return false
				}
				return taken
			})
			if lookupErr != nil {
				return lookupErr
			}
		} else {
			taken, err := exists(t.ID)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("transporter %s: %w", t.ID, ErrConflict)
			}
		}
		t.ApplyDefaults(now)
		rec := newTransporterRecord(*t)
		return tx.Create(&rec).Error
	})
}

func (s *GormTransporterStore) Update(ctx context.Context, id string, patch models.TransporterPatch) (models.Transporter, error) {
	var out models.Transporter
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec transporterRecord
		if err := lockRow(tx).Where("transporter_id = ?", id).First(&rec).Error; err != nil {
			return notFound(err, "transporter "+id)
		}
		t := rec.model()
		patch.Apply(&t)
		next := newTransporterRecord(t)
		next.Seq = rec.Seq
		if err := tx.Save(&next).Error; err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return models.Transporter{}, err
	}
	return out, nil
}

func (s *GormTransporterStore) Remove(ctx context.Context, id string) (models.Transporter, error) {
	var out models.Transporter
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec transporterRecord
		if err := lockRow(tx).Where("transporter_id = ?", id).First(&rec).Error; err != nil {
			return notFound(err, "transporter "+id)
		}
		if err := tx.Delete(&rec).Error; err != nil {
			return err
		}
		out = rec.model()
		return nil
	})
	if err != nil {
		return models.Transporter{}, err
	}
	return out, nil
}

// GormCargoStore persists partner cargo requests through GORM
type GormCargoStore struct {
	db *gorm.DB
}

func NewGormCargoStore(db *gorm.DB) *GormCargoStore {
	return &GormCargoStore{db: db}
}

func (s *GormCargoStore) Create(ctx context.Context, r models.CargoRequest) (models.CargoRequest, error) {
	if r.Status == "" {
		r.Status = models.CargoStatusPending
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&cargoRecord{}).Where("request_id = ?", r.ID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("cargo request %s: %w", r.ID, ErrConflict)
		}
		rec := cargoRecord{
			RequestID:    r.ID,
			Sender:       r.Sender,
			Destination:  r.Destination,
			CargoType:    r.CargoType,
			Status:       r.Status,
			LastCallback: r.UpdatedAt,
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return models.CargoRequest{}, err
	}
	return r, nil
}

func (s *GormCargoStore) Get(ctx context.Context, id string) (models.CargoRequest, error) {
	var rec cargoRecord
	if err := s.db.WithContext(ctx).Where("request_id = ?", id).First(&rec).Error; err != nil {
		return models.CargoRequest{}, notFound(err, "cargo request "+id)
	}
	return rec.model(), nil
}

func (s *GormCargoStore) ApplyCallback(ctx context.Context, cb models.CargoCallback) (models.CargoRequest, error) {
	var out models.CargoRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec cargoRecord
		if err := lockRow(tx).Where("request_id = ?", cb.CargoRequestID).First(&rec).Error; err != nil {
			return notFound(err, "cargo request "+cb.CargoRequestID)
		}
		if err := tx.Model(&rec).Updates(map[string]any{
			"status":        cb.StatusUpdate,
			"last_callback": cb.Timestamp,
		}).Error; err != nil {
			return err
		}
		rec.Status = cb.StatusUpdate
		rec.LastCallback = cb.Timestamp
		out = rec.model()
		return nil
	})
	if err != nil {
		return models.CargoRequest{}, err
	}
	return out, nil
}
