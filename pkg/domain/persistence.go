package domain

import "context"

// Transaction exposes the record operations a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateTaxonomy(Taxonomy) (Taxonomy, error)
	UpdateTaxonomy(id uint64, mutator func(*Taxonomy) error) (Taxonomy, error)
	DeleteTaxonomy(id uint64) (Taxonomy, error)
	CreateMarineSpecie(MarineSpecie) (MarineSpecie, error)
	UpdateMarineSpecie(id uint64, mutator func(*MarineSpecie) error) (MarineSpecie, error)
	DeleteMarineSpecie(id uint64) (MarineSpecie, error)
	FindTaxonomy(id uint64) (Taxonomy, bool)
	FindMarineSpecie(id uint64) (MarineSpecie, bool)
}

// TransactionView provides read-only access to a consistent state.
type TransactionView interface {
	FindTaxonomy(id uint64) (Taxonomy, bool)
	ListTaxonomies() []Taxonomy
	FindMarineSpecie(id uint64) (MarineSpecie, bool)
	ListMarineSpecies() []MarineSpecie
	ScanMarineSpecies(match func(MarineSpecie) bool) []MarineSpecie
}

// PersistentStore is the abstraction over memory and durable backends used
// by the service layer.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) ([]Change, error)
	View(ctx context.Context, fn func(TransactionView) error) error
}
