package domain

import "strings"

type requiredField struct {
	name  string
	value string
}

func requireNonEmpty(fields ...requiredField) *CallError {
	var missing []string
	for _, f := range fields {
		if f.value == "" {
			missing = append(missing, f.name+": must not be empty")
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return ValidationFailed(strings.Join(missing, "; "))
}

// Validate checks that every classification rank is present. The returned
// error names each empty field in declaration order.
func (p TaxonomyPayload) Validate() error {
	if err := requireNonEmpty(
		requiredField{"kingdom", p.Kingdom},
		requiredField{"phylum", p.Phylum},
		requiredField{"class", p.Class},
		requiredField{"order", p.Order},
		requiredField{"family", p.Family},
		requiredField{"genus", p.Genus},
		requiredField{"species", p.Species},
	); err != nil {
		return err
	}
	return nil
}

// Validate checks the required text fields. The taxonomy reference is
// resolved separately by the species service.
func (p MarineSpeciePayload) Validate() error {
	if err := requireNonEmpty(
		requiredField{"name", p.Name},
		requiredField{"habitat", p.Habitat},
		requiredField{"conservation_status", p.ConservationStatus},
	); err != nil {
		return err
	}
	return nil
}
