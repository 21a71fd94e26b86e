package postgres

import (
	"context"

	"marinecore/pkg/domain"
)

func listTaxonomies(s domain.PersistentStore) []domain.Taxonomy {
	var out []domain.Taxonomy
	_ = s.View(context.Background(), func(v domain.TransactionView) error {
		out = v.ListTaxonomies()
		return nil
	})
	return out
}

func listMarineSpecies(s domain.PersistentStore) []domain.MarineSpecie {
	var out []domain.MarineSpecie
	_ = s.View(context.Background(), func(v domain.TransactionView) error {
		out = v.ListMarineSpecies()
		return nil
	})
	return out
}
