package catalog

import (
	"sort"

	"github.com/aretw0/enroll/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Decode turns a raw product document into a normalized product.
// Products are active unless the document says otherwise, rule logic defaults to "all"
// and disclaimers are sorted by display order.
func Decode(data map[string]any) (domain.Product, error) {
	p := domain.Product{Active: true}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &p,
		ErrorUnused: true,
		TagName:     "mapstructure",
	})
	if err != nil {
		return domain.Product{}, err
	}
	if err := dec.Decode(data); err != nil {
		id, _ := data["id"].(string)
		return domain.Product{}, &domain.ConfigurationError{Subject: "product", ID: id, Reason: "cannot decode", Cause: err}
	}

	Normalize(&p)
	return p, nil
}

// Normalize applies defaults that programmatic registration shares with decoding.
func Normalize(p *domain.Product) {
	for i := range p.EligibilityRules {
		if p.EligibilityRules[i].Logic == "" {
			p.EligibilityRules[i].Logic = domain.LogicAll
		}
	}
	sort.SliceStable(p.Disclaimers, func(i, j int) bool {
		return p.Disclaimers[i].DisplayOrder < p.Disclaimers[j].DisplayOrder
	})
}
