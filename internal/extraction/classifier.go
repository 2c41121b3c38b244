package extraction

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/williampepple1/listing-scraper/pkg/models"
)

// Assignment is one field value produced by classification
type Assignment struct {
	Field models.Field
	Value string
}

// Outcome is the tagged result of classifying a fragment. An empty
// Assignments slice means the fragment was unclassified.
type Outcome struct {
	Assignments []Assignment
}

// Classified reports whether the fragment mapped to at least one field
func (o Outcome) Classified() bool {
	return len(o.Assignments) > 0
}

func unclassified() Outcome {
	return Outcome{}
}

func classified(assignments ...Assignment) Outcome {
	return Outcome{Assignments: assignments}
}

// Classifier guesses the field of unlabelled text from its shape
type Classifier struct {
	addressMinLength  int
	categoryMaxLength int
}

// NewClassifier creates a classifier with the given length thresholds
func NewClassifier(addressMinLength, categoryMaxLength int) *Classifier {
	return &Classifier{
		addressMinLength:  addressMinLength,
		categoryMaxLength: categoryMaxLength,
	}
}

// Classify applies the shape rules in order; they overlap, so order decides:
//  1. parentheses and a digit: "4.5 (1,234)" is rating and review count
//  2. longer than addressMinLength without "·" or "(": address
//  3. shorter than categoryMaxLength: category
//  4. anything else is dropped
func (c *Classifier) Classify(text string) Outcome {
	text = strings.TrimSpace(text)
	if text == "" {
		return unclassified()
	}

	if strings.Contains(text, "(") && strings.Contains(text, ")") && hasDigit(text) {
		parts := strings.SplitN(text, "(", 2)
		rating := strings.TrimSpace(parts[0])
		reviews := strings.TrimSpace(strings.ReplaceAll(parts[1], ")", ""))
		var out []Assignment
		if rating != "" {
			out = append(out, Assignment{Field: models.FieldRating, Value: rating})
		}
		if reviews != "" {
			out = append(out, Assignment{Field: models.FieldReviewCount, Value: reviews})
		}
		return classified(out...)
	}

	length := utf8.RuneCountInString(text)
	if length > c.addressMinLength && !strings.Contains(text, "·") && !strings.Contains(text, "(") {
		return classified(Assignment{Field: models.FieldAddress, Value: text})
	}
	if length < c.categoryMaxLength {
		return classified(Assignment{Field: models.FieldSector, Value: text})
	}
	return unclassified()
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
