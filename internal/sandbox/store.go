// Package sandbox is an in-memory implementation of the records HTTP API.
// It backs the `records sandbox` command and the client tests.
package sandbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tailscale/hujson"

	"github.com/idilsaglam/records/internal/model"
)

var errNotFound = errors.New("record not found")

// Store keeps records in server order. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records []model.Record
	idField string
	now     func() time.Time
	persist func([]model.Record) error
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithIDField selects the identity field the store emits: "id" (default)
// or "_id".
func WithIDField(field string) StoreOption {
	return func(s *Store) {
		if field == "_id" {
			s.idField = field
		}
	}
}

// WithClock overrides the clock used for createdAt.
func WithClock(fn func() time.Time) StoreOption {
	return func(s *Store) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithPersist calls fn with the full collection after every change.
// Failures are logged; the in-memory change stands.
func WithPersist(fn func([]model.Record) error) StoreOption {
	return func(s *Store) { s.persist = fn }
}

// NewStore returns an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		idField: "id",
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed appends records as given. Records without identity get one.
func (s *Store) Seed(recs []model.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recs {
		if r.Key() == "" {
			r = s.withIdentity(r, uuid.NewString())
		}
		s.records = append(s.records, r)
	}
}

// LoadSeed reads a JSON (comments allowed) array of records from path.
func LoadSeed(path string) ([]model.Record, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONC: %w", err)
	}
	var recs []model.Record
	if err := json.Unmarshal(standardized, &recs); err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}
	return recs, nil
}

// List returns a copy of all records.
func (s *Store) List() []model.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Create appends a new record with a fresh identity.
func (s *Store) Create(p model.Payload) model.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.withIdentity(model.Record{
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   s.now().Format(time.RFC3339),
	}, uuid.NewString())
	s.records = append(s.records, r)
	s.changed()
	return r
}

// Update merges p into record id.
func (s *Store) Update(id string, p model.Patch) (model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return model.Record{}, errNotFound
	}
	r := s.records[i]
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	s.records[i] = r
	s.changed()
	return r, nil
}

// Delete removes record id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return errNotFound
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	s.changed()
	return nil
}

// changed runs the persist hook. Callers hold s.mu.
func (s *Store) changed() {
	if s.persist == nil {
		return
	}
	out := make([]model.Record, len(s.records))
	copy(out, s.records)
	if err := s.persist(out); err != nil {
		slog.Warn("sandbox: persist failed", "error", err)
	}
}

func (s *Store) indexOf(id string) int {
	for i, r := range s.records {
		if r.Key() == id {
			return i
		}
	}
	return -1
}

func (s *Store) withIdentity(r model.Record, id string) model.Record {
	if s.idField == "_id" {
		r.AltID = id
	} else {
		r.ID = id
	}
	return r
}
