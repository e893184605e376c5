// Package lead handles the landing page contact form: validation, the
// form editing protocol and delivery of accepted leads.
package lead

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/ashureev/softsell/internal/domain"
	"github.com/go-playground/validator/v10"
)

// Validation messages shown next to form fields.
const (
	MsgNameRequired    = "Name is required"
	MsgEmailRequired   = "Email is required"
	MsgEmailInvalid    = "Email is invalid"
	MsgCompanyRequired = "Company is required"
	MsgLicenseRequired = "Please select a license type"
)

// looseEmailPattern only checks the rough shape something@something.something
// anywhere in the value. It is deliberately not RFC validation.
var looseEmailPattern = regexp.MustCompile(
	`[^\s\v\x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}]+` +
		`@` +
		`[^\s\v\x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}]+` +
		`\.` +
		`[^\s\v\x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}]+`,
)

// formInput mirrors domain.LeadFormData with the validation rules attached.
// Message carries no rule.
type formInput struct {
	Name        string `json:"name" validate:"notblank"`
	Email       string `json:"email" validate:"notblank,looseemail"`
	Company     string `json:"company" validate:"notblank"`
	LicenseType string `json:"licenseType" validate:"licensetype"`
}

// messages maps field and failing tag to the message shown to the visitor.
var messages = map[string]map[string]string{
	domain.FieldName:        {"notblank": MsgNameRequired},
	domain.FieldEmail:       {"notblank": MsgEmailRequired, "looseemail": MsgEmailInvalid},
	domain.FieldCompany:     {"notblank": MsgCompanyRequired},
	domain.FieldLicenseType: {"licensetype": MsgLicenseRequired},
}

// Validator checks lead forms. It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a Validator with the lead rules registered.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("notblank", validateNotBlank)
	_ = v.RegisterValidation("looseemail", validateLooseEmail)
	_ = v.RegisterValidation("licensetype", validateLicenseType)
	return &Validator{v: v}
}

// isFormSpace reports the characters a browser strips when trimming form
// input: Unicode space separators, line terminators and the BOM. U+0085 is
// not among them.
func isFormSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\u00a0', '\u1680',
		'\u2028', '\u2029', '\u202f', '\u205f', '\u3000', '\ufeff':
		return true
	}
	return r >= '\u2000' && r <= '\u200a'
}

func trimFormSpace(s string) string {
	return strings.TrimFunc(s, isFormSpace)
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return trimFormSpace(fl.Field().String()) != ""
}

func validateLooseEmail(fl validator.FieldLevel) bool {
	return looseEmailPattern.MatchString(fl.Field().String())
}

func validateLicenseType(fl validator.FieldLevel) bool {
	return domain.LicenseType(fl.Field().String()).Valid()
}

// Validate returns the failing fields of form. Every rule is evaluated; an
// empty result means the form may be submitted.
func (val *Validator) Validate(form domain.LeadFormData) domain.FormErrors {
	errs := domain.FormErrors{}

	err := val.v.Struct(formInput{
		Name:        form.Name,
		Email:       form.Email,
		Company:     form.Company,
		LicenseType: form.LicenseType,
	})
	if err == nil {
		return errs
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// Only reachable with a broken rule set; report the form as invalid
		// rather than accepting it.
		errs[domain.FieldName] = err.Error()
		return errs
	}
	for _, fe := range fieldErrs {
		if msg, ok := messages[fe.Field()][fe.Tag()]; ok {
			errs[fe.Field()] = msg
		}
	}
	return errs
}

var defaultValidator = NewValidator()

// Validate checks form with the default validator.
func Validate(form domain.LeadFormData) domain.FormErrors {
	return defaultValidator.Validate(form)
}
