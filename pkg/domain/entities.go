// Package domain defines the persistent entities, payloads, and call error
// contract shared by the marinecore store, services, and dispatcher.
package domain

import "time"

// EntityType identifies the type of record stored in the catalogue.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityTaxonomy identifies a taxonomic classification record.
	EntityTaxonomy EntityType = "taxonomy"
	// EntityMarineSpecie identifies a marine species record.
	EntityMarineSpecie EntityType = "marine_specie"
)

// Label returns the human readable name used in messages.
func (e EntityType) Label() string {
	switch e {
	case EntityMarineSpecie:
		return "marine specie"
	default:
		return string(e)
	}
}

// Base carries the store-assigned identity and timestamps of a record.
type Base struct {
	ID        uint64     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// Record exposes the embedded Base for generic storage.
func (b *Base) Record() *Base { return b }

// Taxonomy is a biological classification from kingdom down to species.
type Taxonomy struct {
	Base
	Kingdom string `json:"kingdom"`
	Phylum  string `json:"phylum"`
	Class   string `json:"class"`
	Order   string `json:"order"`
	Family  string `json:"family"`
	Genus   string `json:"genus"`
	Species string `json:"species"`
}

// MarineSpecie is a species record referencing a Taxonomy by identifier.
type MarineSpecie struct {
	Base
	TaxonomyID         uint64 `json:"taxonomy_id"`
	Name               string `json:"name"`
	Habitat            string `json:"habitat"`
	ConservationStatus string `json:"conservation_status"`
}

// TaxonomyPayload is the caller-supplied subset of Taxonomy.
type TaxonomyPayload struct {
	Kingdom string `json:"kingdom"`
	Phylum  string `json:"phylum"`
	Class   string `json:"class"`
	Order   string `json:"order"`
	Family  string `json:"family"`
	Genus   string `json:"genus"`
	Species string `json:"species"`
}

// Apply copies the payload fields onto t.
func (p TaxonomyPayload) Apply(t *Taxonomy) {
	t.Kingdom = p.Kingdom
	t.Phylum = p.Phylum
	t.Class = p.Class
	t.Order = p.Order
	t.Family = p.Family
	t.Genus = p.Genus
	t.Species = p.Species
}

// MarineSpeciePayload is the caller-supplied subset of MarineSpecie.
type MarineSpeciePayload struct {
	TaxonomyID         uint64 `json:"taxonomy_id"`
	Name               string `json:"name"`
	Habitat            string `json:"habitat"`
	ConservationStatus string `json:"conservation_status"`
}

// Apply copies the payload fields onto m.
func (p MarineSpeciePayload) Apply(m *MarineSpecie) {
	m.TaxonomyID = p.TaxonomyID
	m.Name = p.Name
	m.Habitat = p.Habitat
	m.ConservationStatus = p.ConservationStatus
}

// Action indicates the type of modification performed.
type Action string

// Supported mutation actions recorded on Change entries.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Change records a single committed mutation.
type Change struct {
	Entity   EntityType
	Action   Action
	EntityID uint64
	Before   any
	After    any
}
