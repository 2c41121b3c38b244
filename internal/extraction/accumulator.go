package extraction

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/williampepple1/listing-scraper/pkg/models"
)

// ErrAlreadyFinalized is returned when a finalized record is mutated again.
// It means the caller lost track of where one subject ends.
var ErrAlreadyFinalized = errors.New("record already finalized")

// State is the lifecycle position of an accumulator
type State int

const (
	StateEmpty State = iota
	StateAccumulating
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateAccumulating:
		return "accumulating"
	case StateFinalized:
		return "finalized"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Accumulator builds one subject's record from fragments and links.
// It is not safe for concurrent use; each worker owns its own.
type Accumulator struct {
	subject    string
	rules      Rules
	normalizer *Normalizer
	classifier *Classifier
	links      *LinkClassifier

	state   State
	scalars map[models.Field]string
	social  map[string]struct{}
	dropped int
}

// NewAccumulator starts an empty record for subject
func NewAccumulator(subject string, rules Rules) *Accumulator {
	return newAccumulator(subject, rules,
		NewNormalizer(rules.LabelRules),
		NewClassifier(rules.AddressMinLength, rules.CategoryMaxLength),
		NewLinkClassifier(rules.PlatformPatterns),
	)
}

func newAccumulator(subject string, rules Rules, n *Normalizer, c *Classifier, l *LinkClassifier) *Accumulator {
	return &Accumulator{
		subject:    subject,
		rules:      rules,
		normalizer: n,
		classifier: c,
		links:      l,
		scalars:    make(map[models.Field]string),
		social:     make(map[string]struct{}),
	}
}

// Subject returns the subject identifier
func (a *Accumulator) Subject() string { return a.subject }

// State returns the lifecycle state
func (a *Accumulator) State() State { return a.state }

// Dropped counts fragments that matched no label rule and no shape rule
func (a *Accumulator) Dropped() int { return a.dropped }

// Get returns the current value of a scalar field
func (a *Accumulator) Get(f models.Field) string { return a.scalars[f] }

func (a *Accumulator) mutate() error {
	if a.state == StateFinalized {
		return fmt.Errorf("%w: %s", ErrAlreadyFinalized, a.subject)
	}
	a.state = StateAccumulating
	return nil
}

// Set merges a value into a scalar field. Placeholder and empty values never
// overwrite; otherwise the last value wins.
func (a *Accumulator) Set(f models.Field, value string) error {
	if err := a.mutate(); err != nil {
		return err
	}
	if f == models.FieldSocialLinks {
		a.addLink(value)
		return nil
	}
	if f == models.FieldUnknown {
		return nil
	}
	value = strings.TrimSpace(value)
	if a.rules.isPlaceholder(value) {
		return nil
	}
	a.scalars[f] = value
	return nil
}

// AddFragment routes a fragment through the label normalizer, falling back to
// the content classifier. The returned outcome is unclassified when the
// fragment was dropped or held a placeholder.
func (a *Accumulator) AddFragment(frag models.Fragment) (Outcome, error) {
	if err := a.mutate(); err != nil {
		return unclassified(), err
	}

	text := strings.TrimSpace(frag.Text)
	if a.rules.isPlaceholder(text) {
		return unclassified(), nil
	}

	var out Outcome
	if f := a.normalizer.Normalize(frag.Label); f != models.FieldUnknown {
		out = classified(Assignment{Field: f, Value: text})
	} else {
		out = a.classifier.Classify(text)
	}

	if !out.Classified() {
		a.dropped++
		return out, nil
	}
	for _, as := range out.Assignments {
		if err := a.Set(as.Field, as.Value); err != nil {
			return out, err
		}
	}
	return out, nil
}

// AddLink keeps the URL as a social link when it matches a platform pattern.
// It reports whether the link was recognised.
func (a *Accumulator) AddLink(rawURL string) (bool, error) {
	if err := a.mutate(); err != nil {
		return false, err
	}
	return a.addLink(rawURL), nil
}

func (a *Accumulator) addLink(rawURL string) bool {
	if _, ok := a.links.Platform(rawURL); !ok {
		return false
	}
	a.social[NormalizeURL(rawURL)] = struct{}{}
	return true
}

// Finalize freezes the accumulator and returns the record
func (a *Accumulator) Finalize() (*models.Record, error) {
	if a.state == StateFinalized {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyFinalized, a.subject)
	}
	a.state = StateFinalized

	rec := &models.Record{Subject: a.subject}
	for f, v := range a.scalars {
		rec.Set(f, v)
	}
	rec.SocialLinks = make([]string, 0, len(a.social))
	for link := range a.social {
		rec.SocialLinks = append(rec.SocialLinks, link)
	}
	sort.Strings(rec.SocialLinks)
	return rec, nil
}
