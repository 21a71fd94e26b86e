// Package core hosts the taxonomy and marine species services that sit
// between the call dispatcher and the record store.
package core

import (
	"context"

	"marinecore/pkg/domain"
)

// Operation names, shared with the dispatcher's wire contract.
const (
	OpAddTaxonomy    = "add_taxonomy"
	OpGetTaxonomy    = "get_taxonomy"
	OpGetAllTaxonomy = "get_all_taxonomy"
	OpUpdateTaxonomy = "update_taxonomy"
	OpDeleteTaxonomy = "delete_taxonomy"
)

// TaxonomyService provides validated CRUD over taxonomy records.
type TaxonomyService struct {
	store domain.PersistentStore
	obs   observer
}

// NewTaxonomyService constructs a service backed by store.
func NewTaxonomyService(store domain.PersistentStore, opts ...Option) *TaxonomyService {
	return &TaxonomyService{store: store, obs: newObserver(opts)}
}

// Store returns the underlying persistence implementation.
func (s *TaxonomyService) Store() domain.PersistentStore { return s.store }

// lookup resolves id against a consistent view. Species writes call it
// inside their own transaction so the reference check and the write see the
// same state.
func (s *TaxonomyService) lookup(view domain.TransactionView, id uint64) (domain.Taxonomy, error) {
	t, ok := view.FindTaxonomy(id)
	if !ok {
		return domain.Taxonomy{}, domain.NotFoundEntity(domain.EntityTaxonomy, id)
	}
	return t, nil
}

// AddTaxonomy validates payload and stores it under a fresh identifier.
func (s *TaxonomyService) AddTaxonomy(ctx context.Context, payload domain.TaxonomyPayload) (domain.Taxonomy, error) {
	var created domain.Taxonomy
	err := s.obs.run(ctx, OpAddTaxonomy, domain.EntityTaxonomy, func(ctx context.Context) (uint64, error) {
		if err := payload.Validate(); err != nil {
			return 0, err
		}
		_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var t domain.Taxonomy
			payload.Apply(&t)
			var err error
			created, err = tx.CreateTaxonomy(t)
			return err
		})
		if err != nil {
			return 0, err
		}
		return created.ID, nil
	})
	if err != nil {
		return domain.Taxonomy{}, err
	}
	return created, nil
}

// GetTaxonomy returns the taxonomy with id or NotFound.
func (s *TaxonomyService) GetTaxonomy(ctx context.Context, id uint64) (domain.Taxonomy, error) {
	var found domain.Taxonomy
	err := s.obs.run(ctx, OpGetTaxonomy, domain.EntityTaxonomy, func(ctx context.Context) (uint64, error) {
		return id, s.store.View(ctx, func(view domain.TransactionView) error {
			var err error
			found, err = s.lookup(view, id)
			return err
		})
	})
	return found, err
}

// ListTaxonomies returns every taxonomy ordered by id; an empty store yields
// an empty slice.
func (s *TaxonomyService) ListTaxonomies(ctx context.Context) ([]domain.Taxonomy, error) {
	var all []domain.Taxonomy
	err := s.obs.run(ctx, OpGetAllTaxonomy, domain.EntityTaxonomy, func(ctx context.Context) (uint64, error) {
		return 0, s.store.View(ctx, func(view domain.TransactionView) error {
			all = view.ListTaxonomies()
			return nil
		})
	})
	return all, err
}

// UpdateTaxonomy validates payload and overwrites the taxonomy's fields.
func (s *TaxonomyService) UpdateTaxonomy(ctx context.Context, id uint64, payload domain.TaxonomyPayload) (domain.Taxonomy, error) {
	var updated domain.Taxonomy
	err := s.obs.run(ctx, OpUpdateTaxonomy, domain.EntityTaxonomy, func(ctx context.Context) (uint64, error) {
		if err := payload.Validate(); err != nil {
			return id, err
		}
		_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			updated, err = tx.UpdateTaxonomy(id, func(t *domain.Taxonomy) error {
				payload.Apply(t)
				return nil
			})
			return err
		})
		return id, err
	})
	if err != nil {
		return domain.Taxonomy{}, err
	}
	return updated, nil
}

// DeleteTaxonomy removes the taxonomy and returns it. Species referencing it
// are left untouched.
func (s *TaxonomyService) DeleteTaxonomy(ctx context.Context, id uint64) (domain.Taxonomy, error) {
	var removed domain.Taxonomy
	err := s.obs.run(ctx, OpDeleteTaxonomy, domain.EntityTaxonomy, func(ctx context.Context) (uint64, error) {
		_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			removed, err = tx.DeleteTaxonomy(id)
			return err
		})
		return id, err
	})
	if err != nil {
		return domain.Taxonomy{}, err
	}
	return removed, nil
}
