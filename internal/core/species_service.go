package core

import (
	"context"
	"fmt"

	"marinecore/pkg/domain"
)

// Operation names for species calls.
const (
	OpAddMarineSpecie         = "add_marinespecie"
	OpGetMarineSpecie         = "get_marinespecie"
	OpGetAllMarineSpecie      = "get_all_marinespecie"
	OpGetMarineSpecieByStatus = "get_marinespecie_by_conservation_status"
	OpUpdateMarineSpecie      = "update_marinespecie"
	OpDeleteMarineSpecie      = "delete_marinespecie"
)

// SpeciesService provides validated CRUD over marine species records and
// checks taxonomy references through the taxonomy service.
type SpeciesService struct {
	store      domain.PersistentStore
	taxonomies *TaxonomyService
	obs        observer
}

// NewSpeciesService constructs a species service. Both services must share
// the same store.
func NewSpeciesService(taxonomies *TaxonomyService, opts ...Option) *SpeciesService {
	return &SpeciesService{store: taxonomies.Store(), taxonomies: taxonomies, obs: newObserver(opts)}
}

// resolveTaxonomy maps a missing reference to InvalidInput: the caller sent
// a payload that cannot be accepted, not a lookup for a missing record.
func (s *SpeciesService) resolveTaxonomy(view domain.TransactionView, id uint64) error {
	if _, err := s.taxonomies.lookup(view, id); err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return domain.InvalidInput(fmt.Sprintf("taxonomy_id %d does not reference an existing taxonomy", id))
		}
		return err
	}
	return nil
}

// AddMarineSpecie validates payload, resolves its taxonomy and stores it.
func (s *SpeciesService) AddMarineSpecie(ctx context.Context, payload domain.MarineSpeciePayload) (domain.MarineSpecie, error) {
	var created domain.MarineSpecie
	err := s.obs.run(ctx, OpAddMarineSpecie, domain.EntityMarineSpecie, func(ctx context.Context) (uint64, error) {
		if err := payload.Validate(); err != nil {
			return 0, err
		}
		_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			if err := s.resolveTaxonomy(tx.Snapshot(), payload.TaxonomyID); err != nil {
				return err
			}
			var m domain.MarineSpecie
			payload.Apply(&m)
			var err error
			created, err = tx.CreateMarineSpecie(m)
			return err
		})
		if err != nil {
			return 0, err
		}
		return created.ID, nil
	})
	if err != nil {
		return domain.MarineSpecie{}, err
	}
	return created, nil
}

// GetMarineSpecie returns the species record with id or NotFound.
func (s *SpeciesService) GetMarineSpecie(ctx context.Context, id uint64) (domain.MarineSpecie, error) {
	var found domain.MarineSpecie
	err := s.obs.run(ctx, OpGetMarineSpecie, domain.EntityMarineSpecie, func(ctx context.Context) (uint64, error) {
		return id, s.store.View(ctx, func(view domain.TransactionView) error {
			m, ok := view.FindMarineSpecie(id)
			if !ok {
				return domain.NotFoundEntity(domain.EntityMarineSpecie, id)
			}
			found = m
			return nil
		})
	})
	return found, err
}

// ListMarineSpecies returns every species record ordered by id.
func (s *SpeciesService) ListMarineSpecies(ctx context.Context) ([]domain.MarineSpecie, error) {
	var all []domain.MarineSpecie
	err := s.obs.run(ctx, OpGetAllMarineSpecie, domain.EntityMarineSpecie, func(ctx context.Context) (uint64, error) {
		return 0, s.store.View(ctx, func(view domain.TransactionView) error {
			all = view.ListMarineSpecies()
			return nil
		})
	})
	return all, err
}

// ListMarineSpeciesByConservationStatus returns the records whose status
// equals status exactly. No match is an empty slice, not an error.
func (s *SpeciesService) ListMarineSpeciesByConservationStatus(ctx context.Context, status string) ([]domain.MarineSpecie, error) {
	var matches []domain.MarineSpecie
	err := s.obs.run(ctx, OpGetMarineSpecieByStatus, domain.EntityMarineSpecie, func(ctx context.Context) (uint64, error) {
		return 0, s.store.View(ctx, func(view domain.TransactionView) error {
			matches = view.ScanMarineSpecies(func(m domain.MarineSpecie) bool {
				return m.ConservationStatus == status
			})
			return nil
		})
	})
	return matches, err
}

// UpdateMarineSpecie validates payload, resolves its taxonomy, then
// overwrites the record's fields.
func (s *SpeciesService) UpdateMarineSpecie(ctx context.Context, id uint64, payload domain.MarineSpeciePayload) (domain.MarineSpecie, error) {
	var updated domain.MarineSpecie
	err := s.obs.run(ctx, OpUpdateMarineSpecie, domain.EntityMarineSpecie, func(ctx context.Context) (uint64, error) {
		if err := payload.Validate(); err != nil {
			return id, err
		}
		_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			if err := s.resolveTaxonomy(tx.Snapshot(), payload.TaxonomyID); err != nil {
				return err
			}
			var err error
			updated, err = tx.UpdateMarineSpecie(id, func(m *domain.MarineSpecie) error {
				payload.Apply(m)
				return nil
			})
			return err
		})
		return id, err
	})
	if err != nil {
		return domain.MarineSpecie{}, err
	}
	return updated, nil
}

// DeleteMarineSpecie removes the species record and returns it.
func (s *SpeciesService) DeleteMarineSpecie(ctx context.Context, id uint64) (domain.MarineSpecie, error) {
	var removed domain.MarineSpecie
	err := s.obs.run(ctx, OpDeleteMarineSpecie, domain.EntityMarineSpecie, func(ctx context.Context) (uint64, error) {
		_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			removed, err = tx.DeleteMarineSpecie(id)
			return err
		})
		return id, err
	})
	if err != nil {
		return domain.MarineSpecie{}, err
	}
	return removed, nil
}
