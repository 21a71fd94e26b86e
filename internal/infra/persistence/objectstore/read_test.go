package objectstore

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

func findTaxonomy(s domain.PersistentStore, id uint64) (domain.Taxonomy, bool) {
	var (
		out domain.Taxonomy
		ok  bool
	)
	_ = s.View(context.Background(), func(v domain.TransactionView) error {
		out, ok = v.FindTaxonomy(id)
		return nil
	})
	return out, ok
}
