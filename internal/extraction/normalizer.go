package extraction

import (
	"strings"

	"github.com/williampepple1/listing-scraper/pkg/models"
)

// Normalizer maps free-text labels to canonical fields
type Normalizer struct {
	rules []LabelRule
}

// NewNormalizer creates a normalizer over an ordered rule list
func NewNormalizer(rules []LabelRule) *Normalizer {
	compiled := make([]LabelRule, 0, len(rules))
	for _, rule := range rules {
		keywords := make([]string, 0, len(rule.Keywords))
		for _, kw := range rule.Keywords {
			if kw = normalizeLabel(kw); kw != "" {
				keywords = append(keywords, kw)
			}
		}
		compiled = append(compiled, LabelRule{Keywords: keywords, Field: rule.Field})
	}
	return &Normalizer{rules: compiled}
}

// Normalize returns the field of the first rule with a keyword contained in
// the label, or FieldUnknown.
func (n *Normalizer) Normalize(label string) models.Field {
	label = normalizeLabel(label)
	if label == "" {
		return models.FieldUnknown
	}
	for _, rule := range n.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(label, kw) {
				return rule.Field
			}
		}
	}
	return models.FieldUnknown
}

// normalizeLabel lower-cases a label and collapses whitespace runs
func normalizeLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}
