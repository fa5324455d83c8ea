// Package store owns the lifetime of evidence units: created at ingestion,
// never mutated, retired only by a full rebuild. Indices are derived,
// disposable caches that can be rebuilt from a Store snapshot at any time.
package store

import (
	"sort"

	"github.com/ppiankov/anamnesis/internal/model"
)

// Store is an immutable snapshot of evidence units keyed by evidence id.
// It is safe for unlimited concurrent readers.
type Store struct {
	units map[string]model.EvidenceUnit
	order []string // Evidence ids, ascending
}

// New builds a Store from a sequence of evidence units. Byte-identical
// duplicates collapse to one unit; conflicting duplicates are rejected.
func New(units []model.EvidenceUnit) (*Store, error) {
	byID := make(map[string]model.EvidenceUnit, len(units))
	for _, u := range units {
		if u.EvidenceID == "" {
			return nil, ErrEmptyID
		}
		if existing, ok := byID[u.EvidenceID]; ok {
			if existing != u {
				return nil, ErrDuplicateID
			}
			continue
		}
		byID[u.EvidenceID] = u
	}

	order := make([]string, 0, len(byID))
	for id := range byID {
		order = append(order, id)
	}
	sort.Strings(order)

	return &Store{units: byID, order: order}, nil
}

// Get returns the full evidence unit for click-through audit.
func (s *Store) Get(evidenceID string) (model.EvidenceUnit, error) {
	u, ok := s.units[evidenceID]
	if !ok {
		return model.EvidenceUnit{}, ErrNotFound
	}
	return u, nil
}

// Has reports whether the id resolves to a live unit.
func (s *Store) Has(evidenceID string) bool {
	_, ok := s.units[evidenceID]
	return ok
}

// All returns every unit in evidence id order.
func (s *Store) All() []model.EvidenceUnit {
	out := make([]model.EvidenceUnit, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.units[id])
	}
	return out
}

// Scope returns the patient scope of an evidence id, with ok=false for ids
// absent from the store.
func (s *Store) Scope(evidenceID string) (model.PatientScope, bool) {
	u, ok := s.units[evidenceID]
	if !ok {
		return "", false
	}
	return u.PatientScope, true
}

// Len returns the number of live units.
func (s *Store) Len() int {
	return len(s.order)
}
