package badger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/ppiankov/anamnesis/internal/model"
	"github.com/ppiankov/anamnesis/internal/store"
)

// EvidenceRepository persists evidence units in BadgerDB.
type EvidenceRepository struct {
	backend *Backend
}

// NewEvidenceRepository creates a new EvidenceRepository.
func NewEvidenceRepository(backend *Backend) *EvidenceRepository {
	return &EvidenceRepository{backend: backend}
}

// PutUnits writes evidence units. Re-ingesting a byte-identical unit is a
// no-op; a byte-different unit under an existing id is rejected, because
// evidence ids must be stable across rebuilds.
func (r *EvidenceRepository) PutUnits(ctx context.Context, units ...model.EvidenceUnit) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, u := range units {
			if u.EvidenceID == "" {
				return store.ErrEmptyID
			}

			value, err := json.Marshal(u)
			if err != nil {
				return fmt.Errorf("marshal evidence %s: %w", u.EvidenceID, err)
			}

			key := makeUnitKey(u.EvidenceID)
			item, err := tx.Get(key)
			switch err {
			case nil:
				var existing []byte
				existing, err = item.ValueCopy(nil)
				if err != nil {
					return err
				}
				if !bytes.Equal(existing, value) {
					return fmt.Errorf("evidence %s: %w", u.EvidenceID, store.ErrDuplicateID)
				}
				continue
			case badger.ErrKeyNotFound:
				// New unit
			default:
				return err
			}

			if err := tx.Set(key, value); err != nil {
				return err
			}
			if err := tx.Set(makeTypeKey(string(u.EvidenceType), u.EvidenceID), nil); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetUnit returns the full evidence unit for an id.
func (r *EvidenceRepository) GetUnit(ctx context.Context, evidenceID string) (model.EvidenceUnit, error) {
	var unit model.EvidenceUnit
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeUnitKey(evidenceID))
		if err == badger.ErrKeyNotFound {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &unit)
		})
	}, false)
	return unit, err
}

// AllUnits returns every stored unit in evidence id order. Badger iterates
// keys lexicographically, which matches the id ordering the engine relies on.
func (r *EvidenceRepository) AllUnits(ctx context.Context) ([]model.EvidenceUnit, error) {
	var units []model.EvidenceUnit
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(evidenceUnitPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var unit model.EvidenceUnit
			err := iter.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &unit)
			})
			if err != nil {
				return err
			}
			units = append(units, unit)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return units, nil
}

// UnitsByType returns ids of units with the given evidence type, in id order.
func (r *EvidenceRepository) UnitsByType(ctx context.Context, t model.EvidenceType) ([]string, error) {
	var ids []string
	prefix := makePartialTypeKey(string(t))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			ids = append(ids, string(key[len(prefix):]))
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Count returns the number of stored units.
func (r *EvidenceRepository) Count(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(evidenceUnitPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Clear removes every unit. Used only for a full rebuild: units are never
// retired individually.
func (r *EvidenceRepository) Clear(ctx context.Context) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, prefix := range []string{evidenceUnitPrefix + ":", evidenceTypePrefix + ":"} {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(prefix)
			opts.PrefetchValues = false
			iter := tx.NewIterator(opts)

			var keys [][]byte
			for iter.Rewind(); iter.Valid(); iter.Next() {
				keys = append(keys, iter.Item().KeyCopy(nil))
			}
			iter.Close()

			for _, key := range keys {
				if err := tx.Delete(key); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)
}

// Snapshot loads every stored unit into an immutable in-memory store.
func (r *EvidenceRepository) Snapshot(ctx context.Context) (*store.Store, error) {
	units, err := r.AllUnits(ctx)
	if err != nil {
		return nil, err
	}
	return store.New(units)
}
