package lead

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/ashureev/softsell/internal/domain"
	"github.com/google/uuid"
)

// ErrUnknownField is returned when editing a field the form does not have.
var ErrUnknownField = errors.New("unknown form field")

// Form holds the contact form while a visitor fills it in.
// It is not safe for concurrent use.
type Form struct {
	data      domain.LeadFormData
	errors    domain.FormErrors
	validator *Validator
	now       func() time.Time
}

// NewForm returns an empty form using the default validator.
func NewForm() *Form {
	return &Form{
		errors:    domain.FormErrors{},
		validator: defaultValidator,
		now:       time.Now,
	}
}

// FormFrom returns a form prefilled with data, as if every field had been
// typed in.
func FormFrom(data domain.LeadFormData) *Form {
	f := NewForm()
	f.data = data
	return f
}

// Set updates one field and clears any error shown for it.
func (f *Form) Set(field, value string) error {
	switch field {
	case domain.FieldName:
		f.data.Name = value
	case domain.FieldEmail:
		f.data.Email = value
	case domain.FieldCompany:
		f.data.Company = value
	case domain.FieldLicenseType:
		f.data.LicenseType = value
	case domain.FieldMessage:
		f.data.Message = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	delete(f.errors, field)
	return nil
}

// Data returns the current field values.
func (f *Form) Data() domain.LeadFormData {
	return f.data
}

// Errors returns a copy of the errors from the last submission attempt,
// minus the fields edited since.
func (f *Form) Errors() domain.FormErrors {
	return maps.Clone(f.errors)
}

// Reset empties every field and error.
func (f *Form) Reset() {
	f.data = domain.LeadFormData{}
	f.errors = domain.FormErrors{}
}

// Submit validates the form and hands it to submitter. Validation failures
// are returned as FormErrors with a nil error and leave the fields intact.
// A submitter error also leaves the fields intact. On success the form is
// reset and the accepted lead returned.
func (f *Form) Submit(ctx context.Context, submitter Submitter, visitorID string) (*domain.Lead, domain.FormErrors, error) {
	errs := f.validator.Validate(f.data)
	f.errors = errs
	if !errs.Valid() {
		return nil, maps.Clone(errs), nil
	}

	lead := &domain.Lead{
		ID:          uuid.NewString(),
		VisitorID:   visitorID,
		Form:        f.data,
		SubmittedAt: f.now().UTC(),
	}
	if err := submitter.SubmitLead(ctx, lead); err != nil {
		return nil, domain.FormErrors{}, fmt.Errorf("submit lead %s: %w", lead.ID, err)
	}

	f.Reset()
	return lead, domain.FormErrors{}, nil
}
