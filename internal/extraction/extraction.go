package extraction

import (
	"github.com/kataras/golog"
	"github.com/williampepple1/listing-scraper/pkg/models"
)

// Extractor turns pages into finalized records using one rule set.
// It holds no per-subject state and can be shared between workers.
type Extractor struct {
	Rules      Rules
	normalizer *Normalizer
	classifier *Classifier
	links      *LinkClassifier
	log        *golog.Logger
}

// NewExtractor creates an extractor. A nil logger discards output.
func NewExtractor(rules Rules, log *golog.Logger) *Extractor {
	if log == nil {
		log = golog.New()
		log.SetLevel("disable")
	}
	return &Extractor{
		Rules:      rules,
		normalizer: NewNormalizer(rules.LabelRules),
		classifier: NewClassifier(rules.AddressMinLength, rules.CategoryMaxLength),
		links:      NewLinkClassifier(rules.PlatformPatterns),
		log:        log,
	}
}

// NewAccumulator starts a record for subject sharing the compiled rules
func (e *Extractor) NewAccumulator(subject string) *Accumulator {
	return newAccumulator(subject, e.Rules, e.normalizer, e.classifier, e.links)
}

// Apply feeds a page's fragments and links into acc
func (e *Extractor) Apply(acc *Accumulator, page *models.Page) error {
	for _, frag := range page.Fragments {
		out, err := acc.AddFragment(frag)
		if err != nil {
			return err
		}
		if !out.Classified() && frag.Text != "" {
			e.log.Debugf("%s: dropped fragment label=%q text=%q", acc.Subject(), frag.Label, frag.Text)
		}
	}
	for _, link := range page.Links {
		if _, err := acc.AddLink(link); err != nil {
			return err
		}
	}
	return nil
}

// Extract builds and finalizes the record for a single page
func (e *Extractor) Extract(page *models.Page) (*models.Record, error) {
	acc := e.NewAccumulator(page.Subject)
	if err := e.Apply(acc, page); err != nil {
		return nil, err
	}
	return acc.Finalize()
}

// ExtractAll extracts each page in order and stops at the first error
func (e *Extractor) ExtractAll(pages []models.Page) ([]*models.Record, error) {
	records := make([]*models.Record, 0, len(pages))
	for i := range pages {
		rec, err := e.Extract(&pages[i])
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}
