package models

import "github.com/go-playground/validator/v10"

// CloudType tags a post with the kind of formation it shows.
type CloudType string

const (
	Cumulus      CloudType = "cumulus"
	Stratus      CloudType = "stratus"
	Cirrus       CloudType = "cirrus"
	Nimbus       CloudType = "nimbus"
	Cumulonimbus CloudType = "cumulonimbus"
	Other        CloudType = "other"
)

// CloudTypeOption pairs a cloud type with its display label.
type CloudTypeOption struct {
	Value CloudType
	Label string
}

// CloudTypeOptions lists the selectable cloud types in display order.
var CloudTypeOptions = []CloudTypeOption{
	{Cumulus, "Cumulus - Fluffy cotton-like clouds"},
	{Stratus, "Stratus - Flat, layered clouds"},
	{Cirrus, "Cirrus - Thin, wispy clouds"},
	{Nimbus, "Nimbus - Rain clouds"},
	{Cumulonimbus, "Cumulonimbus - Thunderstorm clouds"},
	{Other, "Other cloud formation"},
}

func init() {
	_ = validate.RegisterValidation("cloudtype", func(fl validator.FieldLevel) bool {
		return CloudType(fl.Field().String()).Valid()
	})
}

// Valid reports whether c is one of the known cloud types.
func (c CloudType) Valid() bool {
	for _, opt := range CloudTypeOptions {
		if opt.Value == c {
			return true
		}
	}
	return false
}

// Label returns the display label. Untagged and unknown values fall back to
// the "other" label.
func (c CloudType) Label() string {
	for _, opt := range CloudTypeOptions {
		if opt.Value == c {
			return opt.Label
		}
	}
	return "Other cloud formation"
}

// OrOther returns c, or Other when c is empty.
func (c CloudType) OrOther() CloudType {
	if c == "" {
		return Other
	}
	return c
}
