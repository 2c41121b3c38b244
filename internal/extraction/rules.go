package extraction

import (
	"fmt"
	"strings"

	"github.com/williampepple1/listing-scraper/pkg/models"
)

// LabelRule maps any of its keywords, found inside a lower-cased label, to a field
type LabelRule struct {
	Keywords []string     `yaml:"keywords"`
	Field    models.Field `yaml:"field"`
}

// PlatformPattern lists the URL fragments identifying one social platform
type PlatformPattern struct {
	Platform string   `yaml:"platform"`
	Patterns []string `yaml:"patterns"`
}

// Rules holds everything the extractor needs to map page fragments to fields.
// Rule order is significant: the first matching label rule wins.
type Rules struct {
	LabelRules        []LabelRule       `yaml:"label_rules"`
	PlatformPatterns  []PlatformPattern `yaml:"platform_patterns"`
	PlaceholderTokens []string          `yaml:"placeholder_tokens"`
	AddressMinLength  int               `yaml:"address_min_length"`
	CategoryMaxLength int               `yaml:"category_max_length"`
}

// DefaultRules returns the rule set used for Indonesian and English listing pages
func DefaultRules() Rules {
	return Rules{
		LabelRules: []LabelRule{
			{Keywords: []string{"sektor", "sector", "kategori", "category"}, Field: models.FieldSector},
			{Keywords: []string{"situs", "website"}, Field: models.FieldWebsite},
			{Keywords: []string{"email", "e-mail", "surel"}, Field: models.FieldEmail},
			{Keywords: []string{"telepon", "phone", "kontak"}, Field: models.FieldPhone},
			{Keywords: []string{"alamat", "address"}, Field: models.FieldAddress},
			{Keywords: []string{"nama", "name"}, Field: models.FieldName},
			{Keywords: []string{"rating"}, Field: models.FieldRating},
			{Keywords: []string{"review", "ulasan"}, Field: models.FieldReviewCount},
			{Keywords: []string{"maps", "url"}, Field: models.FieldMapsURL},
		},
		PlatformPatterns: []PlatformPattern{
			{Platform: "facebook", Patterns: []string{"facebook.com", "fb.com"}},
			{Platform: "twitter", Patterns: []string{"twitter.com", "x.com"}},
			{Platform: "linkedin", Patterns: []string{"linkedin.com"}},
			{Platform: "instagram", Patterns: []string{"instagram.com"}},
			{Platform: "youtube", Patterns: []string{"youtube.com"}},
		},
		PlaceholderTokens: []string{"-"},
		AddressMinLength:  10,
		CategoryMaxLength: 50,
	}
}

// Validate checks that the rules can drive an extractor
func (r Rules) Validate() error {
	for i, rule := range r.LabelRules {
		if len(rule.Keywords) == 0 {
			return fmt.Errorf("label rule %d has no keywords", i)
		}
		if rule.Field == models.FieldUnknown || rule.Field == models.FieldSocialLinks {
			return fmt.Errorf("label rule %d maps to unsupported field %s", i, rule.Field)
		}
		for _, kw := range rule.Keywords {
			if strings.TrimSpace(kw) == "" {
				return fmt.Errorf("label rule %d has an empty keyword", i)
			}
		}
	}
	for _, p := range r.PlatformPatterns {
		if len(p.Patterns) == 0 {
			return fmt.Errorf("platform %q has no patterns", p.Platform)
		}
	}
	if r.AddressMinLength < 0 {
		return fmt.Errorf("address_min_length must not be negative")
	}
	if r.CategoryMaxLength <= 0 {
		return fmt.Errorf("category_max_length must be positive")
	}
	return nil
}

// isPlaceholder reports whether a trimmed value stands for "no value"
func (r Rules) isPlaceholder(value string) bool {
	if value == "" {
		return true
	}
	for _, tok := range r.PlaceholderTokens {
		if value == tok {
			return true
		}
	}
	return false
}
