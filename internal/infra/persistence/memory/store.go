// Package memory provides the in-memory record store that backs every
// persistence driver. Durable drivers wrap it and snapshot its state.
package memory

import (
	"context"
	"fmt"
	"marinecore/pkg/domain"
	"sync"
	"time"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Taxonomy aliases domain.Taxonomy for in-memory persistence operations.
	Taxonomy = domain.Taxonomy
	// MarineSpecie aliases domain.MarineSpecie.
	MarineSpecie = domain.MarineSpecie
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

// CommitHook runs after a transaction callback succeeds and before its state
// becomes visible. Returning an error aborts the commit.
type CommitHook func(ctx context.Context, snapshot Snapshot) error

type memoryState struct {
	taxonomies *Table[Taxonomy, *Taxonomy]
	species    *Table[MarineSpecie, *MarineSpecie]
}

func newMemoryState() memoryState {
	return memoryState{
		taxonomies: NewTable[Taxonomy, *Taxonomy](domain.EntityTaxonomy),
		species:    NewTable[MarineSpecie, *MarineSpecie](domain.EntityMarineSpecie),
	}
}

func (s memoryState) clone() memoryState {
	return memoryState{
		taxonomies: s.taxonomies.clone(),
		species:    s.species.clone(),
	}
}

// Snapshot captures a point-in-time copy of the store state, counters included.
type Snapshot struct {
	Taxonomies         map[uint64]Taxonomy     `json:"taxonomies"`
	MarineSpecies      map[uint64]MarineSpecie `json:"marine_species"`
	LastTaxonomyID     uint64                  `json:"last_taxonomy_id"`
	LastMarineSpecieID uint64                  `json:"last_marine_specie_id"`
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	return Snapshot{
		Taxonomies:         state.taxonomies.export(),
		MarineSpecies:      state.species.export(),
		LastTaxonomyID:     state.taxonomies.LastID(),
		LastMarineSpecieID: state.species.LastID(),
	}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	state.taxonomies.load(s.Taxonomies, s.LastTaxonomyID)
	state.species.load(s.MarineSpecies, s.LastMarineSpecieID)
	return state
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// WithCommitHook registers a hook invoked before each commit.
func WithCommitHook(hook CommitHook) Option {
	return func(s *Store) { s.hook = hook }
}

// Store provides an in-memory transactional store for the catalogue. Writers
// are serialized by the store mutex, so each call runs to completion before
// the next mutation starts.
type Store struct {
	mu    sync.RWMutex
	state memoryState
	nowFn func() time.Time
	hook  CommitHook
}

// NewStore constructs an empty in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		state: newMemoryState(),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

type transaction struct {
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

func (v transactionView) FindTaxonomy(id uint64) (Taxonomy, bool) {
	return v.state.taxonomies.Get(id)
}

func (v transactionView) ListTaxonomies() []Taxonomy {
	return v.state.taxonomies.Scan(nil)
}

func (v transactionView) FindMarineSpecie(id uint64) (MarineSpecie, bool) {
	return v.state.species.Get(id)
}

func (v transactionView) ListMarineSpecies() []MarineSpecie {
	return v.state.species.Scan(nil)
}

func (v transactionView) ScanMarineSpecies(match func(MarineSpecie) bool) []MarineSpecie {
	return v.state.species.Scan(match)
}

// RunInTransaction executes fn within a transactional copy of the store
// state. The copy replaces committed state only when fn and the commit hook
// both succeed, so a failed call never leaves partial writes behind.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) ([]Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		state: s.state.clone(),
		now:   s.nowFn(),
	}
	if err := fn(tx); err != nil {
		return nil, err
	}
	if s.hook != nil && len(tx.changes) > 0 {
		if err := s.hook(ctx, snapshotFromMemoryState(tx.state)); err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
	}
	s.state = tx.state
	return tx.changes, nil
}

// View executes fn against a read-only view of committed state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(newTransactionView(&s.state))
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

func (tx *transaction) FindTaxonomy(id uint64) (Taxonomy, bool) {
	return tx.state.taxonomies.Get(id)
}

func (tx *transaction) FindMarineSpecie(id uint64) (MarineSpecie, bool) {
	return tx.state.species.Get(id)
}

// CreateTaxonomy stores a new taxonomy under a fresh identifier.
func (tx *transaction) CreateTaxonomy(t Taxonomy) (Taxonomy, error) {
	created := tx.state.taxonomies.Insert(t, tx.now)
	tx.recordChange(Change{Entity: domain.EntityTaxonomy, Action: domain.ActionCreate, EntityID: created.ID, After: created})
	return created, nil
}

// UpdateTaxonomy mutates an existing taxonomy.
func (tx *transaction) UpdateTaxonomy(id uint64, mutator func(*Taxonomy) error) (Taxonomy, error) {
	before, after, err := tx.state.taxonomies.Update(id, tx.now, mutator)
	if err != nil {
		return Taxonomy{}, err
	}
	tx.recordChange(Change{Entity: domain.EntityTaxonomy, Action: domain.ActionUpdate, EntityID: id, Before: before, After: after})
	return after, nil
}

// DeleteTaxonomy removes a taxonomy. Species referencing it are left alone.
func (tx *transaction) DeleteTaxonomy(id uint64) (Taxonomy, error) {
	removed, err := tx.state.taxonomies.Delete(id)
	if err != nil {
		return Taxonomy{}, err
	}
	tx.recordChange(Change{Entity: domain.EntityTaxonomy, Action: domain.ActionDelete, EntityID: id, Before: removed})
	return removed, nil
}

// CreateMarineSpecie stores a new species record under a fresh identifier.
func (tx *transaction) CreateMarineSpecie(m MarineSpecie) (MarineSpecie, error) {
	created := tx.state.species.Insert(m, tx.now)
	tx.recordChange(Change{Entity: domain.EntityMarineSpecie, Action: domain.ActionCreate, EntityID: created.ID, After: created})
	return created, nil
}

// UpdateMarineSpecie mutates an existing species record.
func (tx *transaction) UpdateMarineSpecie(id uint64, mutator func(*MarineSpecie) error) (MarineSpecie, error) {
	before, after, err := tx.state.species.Update(id, tx.now, mutator)
	if err != nil {
		return MarineSpecie{}, err
	}
	tx.recordChange(Change{Entity: domain.EntityMarineSpecie, Action: domain.ActionUpdate, EntityID: id, Before: before, After: after})
	return after, nil
}

// DeleteMarineSpecie removes a species record.
func (tx *transaction) DeleteMarineSpecie(id uint64) (MarineSpecie, error) {
	removed, err := tx.state.species.Delete(id)
	if err != nil {
		return MarineSpecie{}, err
	}
	tx.recordChange(Change{Entity: domain.EntityMarineSpecie, Action: domain.ActionDelete, EntityID: id, Before: removed})
	return removed, nil
}
