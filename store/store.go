package store

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Store is an in-memory record store over named collections with
// relationship-aware deletes and variant subtree cloning.
type Store struct {
	mu       sync.RWMutex
	data     collections
	ids      *Allocator
	config   Config
	registry *Registry
	logger   *slog.Logger
	sink     ChangeSink
	seq      uint64
	nowFn    func() time.Time
}

// New creates a Store seeded with a copy of seed and the default product
// hierarchy relationships. The seed is trusted; loaders check it with
// Seed.Validate first.
func New(config Config, seed Seed) *Store {
	return NewWithRegistry(config, seed, DefaultRegistry())
}

// NewWithRegistry creates a Store with a custom relationship registry.
func NewWithRegistry(config Config, seed Seed, registry *Registry) *Store {
	config.validate()
	if registry == nil {
		registry = NewRegistry()
	}
	start := highestID(seed)
	if config.IDFloor > start {
		start = config.IDFloor
	}
	return &Store{
		data:     newCollections(seed),
		ids:      NewAllocator(start),
		config:   config,
		registry: registry,
		logger:   slog.Default(),
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}

// SetRegistry sets the relationship registry for cascade operations.
func (s *Store) SetRegistry(registry *Registry) {
	if registry == nil {
		registry = NewRegistry()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry = registry
}

// Registry returns the relationship registry.
func (s *Store) Registry() *Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry
}

// SetLogger replaces the logger; nil restores slog.Default().
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// SetChangeSink installs a sink for committed changes; nil disables publishing.
func (s *Store) SetChangeSink(sink ChangeSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// Allocator exposes the shared identity allocator.
func (s *Store) Allocator() *Allocator {
	return s.ids
}

// write runs fn under the write lock and publishes its changes afterwards.
func (s *Store) write(ctx context.Context, latency time.Duration, fn func(tx *txn) error) error {
	if err := wait(ctx, latency); err != nil {
		return err
	}
	tx, logger, err := s.locked(fn)
	if err != nil {
		return err
	}
	if tx.sink != nil && len(tx.changes) > 0 {
		if perr := tx.sink.Publish(ctx, tx.changes); perr != nil {
			logger.Warn("failed to publish changes",
				"count", len(tx.changes),
				"error", perr,
			)
		}
	}
	return nil
}

func (s *Store) locked(fn func(tx *txn) error) (*txn, *slog.Logger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &txn{store: s, sink: s.sink, now: s.nowFn()}
	return tx, s.logger, fn(tx)
}

// List returns one page of the records in resource that pass every filter.
// An unknown resource is an empty collection.
func (s *Store) List(ctx context.Context, resource string, filters []Filter, page Pagination) (ListResult, error) {
	if err := wait(ctx, s.config.Latency.Read); err != nil {
		return ListResult{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return query(s.data.all(resource), filters, page), nil
}

// Get retrieves a copy of a record by id.
func (s *Store) Get(ctx context.Context, resource string, id int64) (Record, error) {
	if err := wait(ctx, s.config.Latency.Read); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.data.get(resource, id)
	if err != nil {
		return nil, err
	}
	return r.Clone(), nil
}

// GetMany returns copies of the records found, in the order of ids.
// Missing ids are silently omitted.
func (s *Store) GetMany(ctx context.Context, resource string, ids []int64) ([]Record, error) {
	if err := wait(ctx, s.config.Latency.Read); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		if r, err := s.data.get(resource, id); err == nil {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// Create inserts a copy of r under a freshly allocated id and returns it.
// Any id carried by r is ignored. A spec line keeps its id only when that id
// is above every id issued so far; other lines receive a fresh one.
func (s *Store) Create(ctx context.Context, resource string, r Record) (Record, error) {
	var created Record
	err := s.write(ctx, s.config.Latency.Write, func(tx *txn) error {
		rec := r.Clone()
		if rec == nil {
			rec = Record{}
		}
		if err := s.checkParents(resource, rec); err != nil {
			return err
		}
		id := s.ids.Next()
		rec[IDAttr] = NumberAttr(id)
		s.assignSpecIDs(rec, nil)
		if err := s.data.insert(resource, rec); err != nil {
			return err
		}
		tx.record(Change{Resource: resource, Action: ActionInsert, ID: id, New: rec})
		s.logger.Debug("record created", "resource", resource, "id", id)
		created = rec.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CreateEntity encodes a typed model and creates it in its own collection.
func (s *Store) CreateEntity(ctx context.Context, e Entity) (Record, error) {
	r, err := Encode(e)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, e.Resource(), r)
}

// Update merges patch into the record field by field. The id is never overwritten.
func (s *Store) Update(ctx context.Context, resource string, id int64, patch Record) (Record, error) {
	var updated Record
	err := s.write(ctx, s.config.Latency.Write, func(tx *txn) error {
		merged, err := s.merge(resource, id, patch)
		if err != nil {
			return err
		}
		s.commitUpdate(tx, resource, id, merged)
		updated = merged.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateMany applies the same patch to every existing id and returns the ids
// updated. Missing ids are skipped; a partial batch is a success.
func (s *Store) UpdateMany(ctx context.Context, resource string, ids []int64, patch Record) ([]int64, error) {
	var updated []int64
	err := s.write(ctx, s.config.Latency.Write, func(tx *txn) error {
		merged := make([]Record, 0, len(ids))
		targets := make([]int64, 0, len(ids))
		seen := make(map[int64]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			m, err := s.merge(resource, id, patch)
			if err != nil {
				if isNotFound(err) {
					continue
				}
				return err
			}
			merged = append(merged, m)
			targets = append(targets, id)
		}
		for i, id := range targets {
			s.commitUpdate(tx, resource, id, merged[i])
		}
		updated = targets
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// merge builds the updated record without touching the collection.
func (s *Store) merge(resource string, id int64, patch Record) (Record, error) {
	current, err := s.data.get(resource, id)
	if err != nil {
		return nil, err
	}
	merged := current.Clone()
	for k, v := range patch {
		if k == IDAttr {
			continue
		}
		merged[k] = cloneAttr(v)
	}
	if err := s.checkParents(resource, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

func (s *Store) commitUpdate(tx *txn, resource string, id int64, merged Record) {
	old, _ := s.data.get(resource, id)
	s.assignSpecIDs(merged, specIDs(old))
	if err := s.data.replace(resource, id, merged); err != nil {
		return
	}
	tx.record(Change{Resource: resource, Action: ActionModify, ID: id, Old: old, New: merged})
	s.logger.Debug("record updated", "resource", resource, "id", id)
}

// Delete removes a record and, through the registry, its direct children.
// The removed primary record is returned.
func (s *Store) Delete(ctx context.Context, resource string, id int64) (Record, error) {
	var removed Record
	err := s.write(ctx, s.config.Latency.Write, func(tx *txn) error {
		r, err := s.data.remove(resource, id)
		if err != nil {
			return err
		}
		tx.record(Change{Resource: resource, Action: ActionRemove, ID: id, Old: r})
		children := s.cascade(tx, resource, id)
		s.logger.Debug("record deleted",
			"resource", resource,
			"id", id,
			"childrenRemoved", children,
		)
		removed = r.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// DeleteMany removes every existing id and returns the ids removed.
// Bulk deletion is shallow: no relationship cascade is applied.
func (s *Store) DeleteMany(ctx context.Context, resource string, ids []int64) ([]int64, error) {
	var deleted []int64
	err := s.write(ctx, s.config.Latency.Write, func(tx *txn) error {
		for _, id := range ids {
			r, err := s.data.remove(resource, id)
			if err != nil {
				continue
			}
			tx.record(Change{Resource: resource, Action: ActionRemove, ID: id, Old: r})
			deleted = append(deleted, id)
		}
		s.logger.Debug("records deleted", "resource", resource, "count", len(deleted))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if deleted == nil {
		deleted = []int64{}
	}
	return deleted, nil
}

// CloneVariant copies a variant and its whole subtree under new identities.
// On failure nothing is inserted.
func (s *Store) CloneVariant(ctx context.Context, variantID int64, colorName string) (CloneSummary, error) {
	var summary CloneSummary
	err := s.write(ctx, s.config.Latency.Clone, func(tx *txn) error {
		var err error
		summary, err = s.cloneVariant(tx, variantID, colorName)
		return err
	})
	if err != nil {
		return CloneSummary{}, err
	}
	return summary, nil
}
