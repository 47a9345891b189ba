// Package validation decides whether a candidate record is complete enough to store.
package validation

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/cv-intake/internal/types"
)

// MinPhoneLength is the shortest phone value accepted as contact information.
const MinPhoneLength = 10

// Names reported in Result.
const (
	FieldName         = "name"
	FieldEmailOrPhone = "email or phone"
)

// optionalFields are tracked but never invalidate a record.
var optionalFields = []string{"skills", "experience", "education", "location"}

// Result is the outcome of validating one record. A failed check is a
// value, not an error.
type Result struct {
	Valid              bool     `json:"valid"`
	MissingMandatory   []string `json:"missing_mandatory,omitempty"`
	MissingOptional    []string `json:"missing_optional,omitempty"`
	HasMissingOptional bool     `json:"has_missing_optional"`
}

// mandatory is the subset of a record the storage policy requires.
type mandatory struct {
	Name  string `validate:"available"`
	Email string
	Phone string
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("available", func(fl validator.FieldLevel) bool {
		return types.IsAvailable(fl.Field().String())
	})
	v.RegisterStructValidation(contactLevel, mandatory{})
	return v
}

// contactLevel requires at least one usable contact channel.
func contactLevel(sl validator.StructLevel) {
	m := sl.Current().Interface().(mandatory)
	if HasEmail(m.Email) || HasPhone(m.Phone) {
		return
	}
	sl.ReportError(m.Email, "Email", "Email", "email_or_phone", "")
}

// HasEmail reports whether email is usable contact information.
func HasEmail(email string) bool {
	return types.IsAvailable(email) && strings.Contains(email, "@")
}

// HasPhone reports whether phone is usable contact information.
func HasPhone(phone string) bool {
	return types.IsAvailable(phone) && len(strings.TrimSpace(phone)) >= MinPhoneLength
}

// Validate checks rec: a name is mandatory, and so is an email or a phone of
// at least MinPhoneLength characters. Missing optional fields are listed.
func Validate(rec types.CandidateRecord) Result {
	res := Result{}

	err := validate.Struct(mandatory{Name: rec.Name, Email: rec.Email, Phone: rec.Phone})
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.Tag() {
			case "available":
				res.MissingMandatory = append(res.MissingMandatory, FieldName)
			case "email_or_phone":
				res.MissingMandatory = append(res.MissingMandatory, FieldEmailOrPhone)
			}
		}
	}

	values := map[string]string{
		"skills":     rec.Skills,
		"experience": rec.Experience,
		"education":  rec.Education,
		"location":   rec.Location,
	}
	for _, f := range optionalFields {
		if !types.IsAvailable(values[f]) {
			res.MissingOptional = append(res.MissingOptional, f)
		}
	}

	res.Valid = len(res.MissingMandatory) == 0
	res.HasMissingOptional = len(res.MissingOptional) > 0
	return res
}
