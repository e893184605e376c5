package domain

import (
	"fmt"
	"strings"
	"time"
)

// LicenseType is the closed set of vendors a lead can select.
type LicenseType string

const (
	LicenseMicrosoft LicenseType = "microsoft"
	LicenseAdobe     LicenseType = "adobe"
	LicenseAutodesk  LicenseType = "autodesk"
	LicenseOracle    LicenseType = "oracle"
	LicenseSAP       LicenseType = "sap"
	LicenseOther     LicenseType = "other"
)

// LicenseTypes lists every selectable license type in display order.
var LicenseTypes = []LicenseType{
	LicenseMicrosoft,
	LicenseAdobe,
	LicenseAutodesk,
	LicenseOracle,
	LicenseSAP,
	LicenseOther,
}

var licenseLabels = map[LicenseType]string{
	LicenseMicrosoft: "Microsoft (Office, Windows, Server)",
	LicenseAdobe:     "Adobe Creative Suite",
	LicenseAutodesk:  "Autodesk",
	LicenseOracle:    "Oracle",
	LicenseSAP:       "SAP",
	LicenseOther:     "Other",
}

// Label returns the human readable name shown in the license select.
func (t LicenseType) Label() string {
	return licenseLabels[t]
}

// Valid reports whether t is one of the known license types.
func (t LicenseType) Valid() bool {
	_, ok := licenseLabels[t]
	return ok
}

// ParseLicenseType accepts a license value or its label, ignoring case.
func ParseLicenseType(s string) (LicenseType, error) {
	s = strings.TrimSpace(s)
	for _, t := range LicenseTypes {
		if strings.EqualFold(s, string(t)) || strings.EqualFold(s, t.Label()) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown license type %q", s)
}

// Lead form field names. They double as FormErrors keys and JSON names.
const (
	FieldName        = "name"
	FieldEmail       = "email"
	FieldCompany     = "company"
	FieldLicenseType = "licenseType"
	FieldMessage     = "message"
)

// LeadFormData is the raw content of the contact form.
type LeadFormData struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Company     string `json:"company"`
	LicenseType string `json:"licenseType"`
	Message     string `json:"message"`
}

// FormErrors maps a form field name to its validation message.
// An empty map means the form is valid.
type FormErrors map[string]string

// Valid reports whether no field failed validation.
func (e FormErrors) Valid() bool {
	return len(e) == 0
}

// Lead is a validated form submission handed to a lead submitter.
type Lead struct {
	ID          string       `json:"id"`
	VisitorID   string       `json:"visitor_id,omitempty"`
	Form        LeadFormData `json:"form"`
	SubmittedAt time.Time    `json:"submitted_at"`
}

// LicenseType returns the typed license selection of the lead.
func (l *Lead) LicenseType() LicenseType {
	return LicenseType(l.Form.LicenseType)
}
