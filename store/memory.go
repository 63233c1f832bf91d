package store

import (
	"context"
	"fmt"
	"sync"

	"safiri-mazao-api/models"
)

// MemoryOrderStore keeps orders in process memory. Every mutation holds the
// write lock across its read-modify-write, so two concurrent status updates
// are serialized and the later one wins.
type MemoryOrderStore struct {
	mu      sync.RWMutex
	orders  map[string]models.Order
	order   []string          // insertion order of ids
	byTrack map[string]string // track number -> id
	now     Clock
}

func NewMemoryOrderStore(clock Clock) *MemoryOrderStore {
	if clock == nil {
		clock = systemClock
	}
	return &MemoryOrderStore{
		orders:  make(map[string]models.Order),
		byTrack: make(map[string]string),
		now:     clock,
	}
}

func (s *MemoryOrderStore) List(ctx context.Context) ([]models.Order, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Order, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.orders[id].Clone())
	}
	return out, nil
}

func (s *MemoryOrderStore) GetByID(ctx context.Context, id string) (models.Order, error) {
	if err := checkCtx(ctx); err != nil {
		return models.Order{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return o.Clone(), nil
}

func (s *MemoryOrderStore) GetByTrackNumber(ctx context.Context, code string) (models.Order, error) {
	if err := checkCtx(ctx); err != nil {
		return models.Order{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byTrack[code]
	if !ok {
		return models.Order{}, fmt.Errorf("order with track number %s: %w", code, ErrNotFound)
	}
	return s.orders[id].Clone(), nil
}

func (s *MemoryOrderStore) Create(ctx context.Context, o models.Order) (models.Order, error) {
	if err := checkCtx(ctx); err != nil {
		return models.Order{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.orders[o.ID]; o.ID != "" && dup {
		return models.Order{}, fmt.Errorf("order %s: %w", o.ID, ErrConflict)
	}
	if _, dup := s.byTrack[o.TrackNumber]; o.TrackNumber != "" && dup {
		return models.Order{}, fmt.Errorf("track number %s: %w", o.TrackNumber, ErrConflict)
	}

	prepareOrder(&o, s.now())
	assignOrderIdentity(&o, len(s.order)+1, func(id, track string) bool {
		_, idTaken := s.orders[id]
		_, trackTaken := s.byTrack[track]
		return idTaken || trackTaken
	})

	o = o.Clone()
	s.orders[o.ID] = o
	s.byTrack[o.TrackNumber] = o.ID
	s.order = append(s.order, o.ID)
	return o.Clone(), nil
}

func (s *MemoryOrderStore) UpdateStatus(ctx context.Context, id string, status models.OrderStatus, guard TransitionFunc) (StatusChange, error) {
	if err := checkCtx(ctx); err != nil {
		return StatusChange{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return StatusChange{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if guard != nil {
		if err := guard(o.Status, status); err != nil {
			return StatusChange{}, err
		}
	}
	prev := o.Status
	o.Status = status
	o.StatusUpdatedAt = nextStatusTime(s.now(), o.StatusUpdatedAt)
	s.orders[id] = o
	return StatusChange{Previous: prev, Order: o.Clone()}, nil
}

// MemoryTransporterStore keeps transporters in process memory
type MemoryTransporterStore struct {
	mu           sync.RWMutex
	transporters map[string]models.Transporter
	order        []string
	now          Clock
}

func NewMemoryTransporterStore(clock Clock) *MemoryTransporterStore {
	if clock == nil {
		clock = systemClock
	}
	return &MemoryTransporterStore{
		transporters: make(map[string]models.Transporter),
		now:          clock,
	}
}

func (s *MemoryTransporterStore) List(ctx context.Context) ([]models.Transporter, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Transporter, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.transporters[id])
	}
	return out, nil
}

func (s *MemoryTransporterStore) GetByID(ctx context.Context, id string) (models.Transporter, error) {
	if err := checkCtx(ctx); err != nil {
		return models.Transporter{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transporters[id]
	if !ok {
		return models.Transporter{}, fmt.Errorf("transporter %s: %w", id, ErrNotFound)
	}
	return t, nil
}

func (s *MemoryTransporterStore) Create(ctx context.Context, t models.Transporter) (models.Transporter, error) {
	if err := checkCtx(ctx); err != nil {
		return models.Transporter{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if t.ID == "" {
		t.ID = transporterID(now, func(id string) bool {
			_, taken := s.transporters[id]
			return taken
		})
	} else if _, dup := s.transporters[t.ID]; dup {
		return models.Transporter{}, fmt.Errorf("transporter %s: %w", t.ID, ErrConflict)
	}
	t.ApplyDefaults(now)

	s.transporters[t.ID] = t
	s.order = append(s.order, t.ID)
	return t, nil
}

func (s *MemoryTransporterStore) Update(ctx context.Context, id string, patch models.TransporterPatch) (models.Transporter, error) {
	if err := checkCtx(ctx); err != nil {
		return models.Transporter{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transporters[id]
	if !ok {
		return models.Transporter{}, fmt.Errorf("transporter %s: %w", id, ErrNotFound)
	}
	patch.Apply(&t)
	s.transporters[id] = t
	return t, nil
}

func (s *MemoryTransporterStore) Remove(ctx context.Context, id string) (models.Transporter, error) {
	if err := checkCtx(ctx); err != nil {
		return models.Transporter{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transporters[id]
	if !ok {
		return models.Transporter{}, fmt.Errorf("transporter %s: %w", id, ErrNotFound)
	}
	delete(s.transporters, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return t, nil
}

// MemoryCargoStore backs the partner cargo-request endpoints
type MemoryCargoStore struct {
	mu       sync.RWMutex
	requests map[string]models.CargoRequest
}

func NewMemoryCargoStore() *MemoryCargoStore {
	return &MemoryCargoStore{requests: make(map[string]models.CargoRequest)}
}

func (s *MemoryCargoStore) Create(ctx context.Context, r models.CargoRequest) (models.CargoRequest, error) {
	if err := checkCtx(ctx); err != nil {
		return models.CargoRequest{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.requests[r.ID]; dup {
		return models.CargoRequest{}, fmt.Errorf("cargo request %s: %w", r.ID, ErrConflict)
	}
	if r.Status == "" {
		r.Status = models.CargoStatusPending
	}
	s.requests[r.ID] = r
	return r, nil
}

func (s *MemoryCargoStore) Get(ctx context.Context, id string) (models.CargoRequest, error) {
	if err := checkCtx(ctx); err != nil {
		return models.CargoRequest{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return models.CargoRequest{}, fmt.Errorf("cargo request %s: %w", id, ErrNotFound)
	}
	return r, nil
}

func (s *MemoryCargoStore) ApplyCallback(ctx context.Context, cb models.CargoCallback) (models.CargoRequest, error) {
	if err := checkCtx(ctx); err != nil {
		return models.CargoRequest{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[cb.CargoRequestID]
	if !ok {
		return models.CargoRequest{}, fmt.Errorf("cargo request %s: %w", cb.CargoRequestID, ErrNotFound)
	}
	r.Status = cb.StatusUpdate
	r.UpdatedAt = cb.Timestamp
	s.requests[r.ID] = r
	return r, nil
}
