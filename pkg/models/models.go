package models

import (
	"fmt"
	"strings"
	"time"
)

// Field identifies one canonical output attribute of a Record
type Field int

const (
	FieldUnknown Field = iota
	FieldName
	FieldSector
	FieldWebsite
	FieldPhone
	FieldEmail
	FieldAddress
	FieldRating
	FieldReviewCount
	FieldMapsURL
	FieldSocialLinks
)

var fieldNames = map[Field]string{
	FieldUnknown:     "unknown",
	FieldName:        "name",
	FieldSector:      "sector",
	FieldWebsite:     "website",
	FieldPhone:       "phone",
	FieldEmail:       "email",
	FieldAddress:     "address",
	FieldRating:      "rating",
	FieldReviewCount: "review_count",
	FieldMapsURL:     "maps_url",
	FieldSocialLinks: "social_links",
}

// ScalarFields lists the single-valued fields in output order
var ScalarFields = []Field{
	FieldName,
	FieldSector,
	FieldWebsite,
	FieldPhone,
	FieldEmail,
	FieldAddress,
	FieldRating,
	FieldReviewCount,
	FieldMapsURL,
}

// String returns the config/wire name of the field
func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// ParseField resolves a field name, accepting "category" as an alias of sector
func ParseField(name string) (Field, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "category" {
		return FieldSector, nil
	}
	for f, n := range fieldNames {
		if n == name {
			return f, nil
		}
	}
	return FieldUnknown, fmt.Errorf("unknown field %q", name)
}

// MarshalText lets fields appear by name in YAML and JSON
func (f Field) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText parses a field name
func (f *Field) UnmarshalText(text []byte) error {
	parsed, err := ParseField(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Fragment is a label/text pair pulled from one region of a page.
// Label is empty when the region carried no label.
type Fragment struct {
	Label string
	Text  string
}

// Page is everything a source found for one subject
type Page struct {
	Subject   string
	URL       string
	Fragments []Fragment
	Links     []string
}

// Record is a finalized subject with its canonical fields
type Record struct {
	Subject     string   `json:"subject"`
	Name        string   `json:"name"`
	Sector      string   `json:"sector"`
	Website     string   `json:"website"`
	Phone       string   `json:"phone"`
	Email       string   `json:"email"`
	Address     string   `json:"address"`
	Rating      string   `json:"rating"`
	ReviewCount string   `json:"review_count"`
	MapsURL     string   `json:"maps_url"`
	SocialLinks []string `json:"social_links"`
}

// Get returns the value of a scalar field, or the joined social links
func (r *Record) Get(f Field) string {
	switch f {
	case FieldName:
		return r.Name
	case FieldSector:
		return r.Sector
	case FieldWebsite:
		return r.Website
	case FieldPhone:
		return r.Phone
	case FieldEmail:
		return r.Email
	case FieldAddress:
		return r.Address
	case FieldRating:
		return r.Rating
	case FieldReviewCount:
		return r.ReviewCount
	case FieldMapsURL:
		return r.MapsURL
	case FieldSocialLinks:
		return strings.Join(r.SocialLinks, "\n")
	}
	return ""
}

// Set assigns a scalar field. Social links and unknown fields are ignored.
func (r *Record) Set(f Field, value string) {
	switch f {
	case FieldName:
		r.Name = value
	case FieldSector:
		r.Sector = value
	case FieldWebsite:
		r.Website = value
	case FieldPhone:
		r.Phone = value
	case FieldEmail:
		r.Email = value
	case FieldAddress:
		r.Address = value
	case FieldRating:
		r.Rating = value
	case FieldReviewCount:
		r.ReviewCount = value
	case FieldMapsURL:
		r.MapsURL = value
	}
}

// Result represents the outcome of profiling one subject
type Result struct {
	Subject   string        `json:"subject"`
	Record    *Record       `json:"record,omitempty"`
	Err       string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	Dropped   int           `json:"dropped,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
