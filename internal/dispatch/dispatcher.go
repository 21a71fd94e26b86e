package dispatch

import (
	"context"

	"marinecore/internal/core"
	"marinecore/pkg/domain"
)

// Dispatcher maps each operation onto a single service call.
type Dispatcher struct {
	taxonomies *core.TaxonomyService
	species    *core.SpeciesService
}

// New returns a dispatcher over the two services.
func New(taxonomies *core.TaxonomyService, species *core.SpeciesService) *Dispatcher {
	return &Dispatcher{taxonomies: taxonomies, species: species}
}

// AddTaxonomy handles add_taxonomy.
func (d *Dispatcher) AddTaxonomy(ctx context.Context, p domain.TaxonomyPayload) (Result[domain.Taxonomy], error) {
	return fromService(d.taxonomies.AddTaxonomy(ctx, p))
}

// GetTaxonomy handles get_taxonomy.
func (d *Dispatcher) GetTaxonomy(ctx context.Context, id uint64) (Result[domain.Taxonomy], error) {
	return fromService(d.taxonomies.GetTaxonomy(ctx, id))
}

// GetAllTaxonomy handles get_all_taxonomy.
func (d *Dispatcher) GetAllTaxonomy(ctx context.Context) (Result[[]domain.Taxonomy], error) {
	return fromService(d.taxonomies.ListTaxonomies(ctx))
}

// UpdateTaxonomy handles update_taxonomy.
func (d *Dispatcher) UpdateTaxonomy(ctx context.Context, id uint64, p domain.TaxonomyPayload) (Result[domain.Taxonomy], error) {
	return fromService(d.taxonomies.UpdateTaxonomy(ctx, id, p))
}

// DeleteTaxonomy handles delete_taxonomy.
func (d *Dispatcher) DeleteTaxonomy(ctx context.Context, id uint64) (Result[domain.Taxonomy], error) {
	return fromService(d.taxonomies.DeleteTaxonomy(ctx, id))
}

// AddMarineSpecie handles add_marinespecie.
func (d *Dispatcher) AddMarineSpecie(ctx context.Context, p domain.MarineSpeciePayload) (Result[domain.MarineSpecie], error) {
	return fromService(d.species.AddMarineSpecie(ctx, p))
}

// GetMarineSpecie handles get_marinespecie.
func (d *Dispatcher) GetMarineSpecie(ctx context.Context, id uint64) (Result[domain.MarineSpecie], error) {
	return fromService(d.species.GetMarineSpecie(ctx, id))
}

// GetAllMarineSpecie handles get_all_marinespecie.
func (d *Dispatcher) GetAllMarineSpecie(ctx context.Context) (Result[[]domain.MarineSpecie], error) {
	return fromService(d.species.ListMarineSpecies(ctx))
}

// GetMarineSpecieByConservationStatus handles get_marinespecie_by_conservation_status.
func (d *Dispatcher) GetMarineSpecieByConservationStatus(ctx context.Context, status string) (Result[[]domain.MarineSpecie], error) {
	return fromService(d.species.ListMarineSpeciesByConservationStatus(ctx, status))
}

// UpdateMarineSpecie handles update_marinespecie.
func (d *Dispatcher) UpdateMarineSpecie(ctx context.Context, id uint64, p domain.MarineSpeciePayload) (Result[domain.MarineSpecie], error) {
	return fromService(d.species.UpdateMarineSpecie(ctx, id, p))
}

// DeleteMarineSpecie handles delete_marinespecie.
func (d *Dispatcher) DeleteMarineSpecie(ctx context.Context, id uint64) (Result[domain.MarineSpecie], error) {
	return fromService(d.species.DeleteMarineSpecie(ctx, id))
}
