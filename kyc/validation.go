package kyc

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"megacoop-kyc/shared"
)

// IDType enumerates the identity documents accepted at the ID card step.
type IDType string

const (
	IDNationalID            IDType = "national_id"
	IDDriversLicense        IDType = "drivers_license"
	IDInternationalPassport IDType = "international_passport"
	IDVotersCard            IDType = "voters_card"
)

// Submission is the payload of one wizard step.
type Submission interface {
	StepNumber() int
}

// Document is an uploaded file.
type Document struct {
	Name string
	Data []byte
}

// ContentType is the MIME type detected from the file's bytes.
func (d Document) ContentType() string {
	return mimetype.Detect(d.Data).String()
}

// NINSubmission is step 1, the National Identification Number.
type NINSubmission struct {
	NIN string `json:"nin" validate:"len=11"`
}

// BVNSubmission is step 2, the Bank Verification Number.
type BVNSubmission struct {
	BVN string `json:"bvn" validate:"len=11"`
}

// IDCardSubmission is step 3, an identity document and its type.
type IDCardSubmission struct {
	IDType   IDType   `json:"id_type" validate:"required,oneof=national_id drivers_license international_passport voters_card"`
	Document Document `json:"file"`
}

// AddressSubmission is step 4, the residential address and a proof of it.
type AddressSubmission struct {
	Address  string   `json:"address" validate:"required,notblank"`
	Document Document `json:"file"`
}

// FaceSubmission carries a captured image as a base64 data URI.
type FaceSubmission struct {
	Image string `json:"image" validate:"required,max=1048576,datauri"`
}

// StepNumber places each submission in the wizard.
func (NINSubmission) StepNumber() int     { return 1 }
func (BVNSubmission) StepNumber() int     { return 2 }
func (IDCardSubmission) StepNumber() int  { return 3 }
func (AddressSubmission) StepNumber() int { return 4 }
func (FaceSubmission) StepNumber() int    { return 5 }

var allowedDocumentTypes = []string{"image/png", "image/jpeg"}

// FieldError is a field-level validation message.
type FieldError struct {
	Field   string
	Message string
}

// ValidationErrors is returned when a submission fails client-side checks.
// Nothing is sent to the backend in that case.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, fe := range v {
		msgs = append(msgs, fe.Message)
	}
	return strings.Join(msgs, "; ")
}

// Field returns the message for field, if any.
func (v ValidationErrors) Field(field string) (string, bool) {
	for _, fe := range v {
		if fe.Field == field {
			return fe.Message, true
		}
	}
	return "", false
}

// Validator applies the client-side rules to submissions.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a validator with the document rules registered.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.RegisterStructValidation(validateDocument, Document{})
	return &Validator{validate: v}
}

func validateDocument(sl validator.StructLevel) {
	doc := sl.Current().Interface().(Document)
	if len(doc.Data) == 0 {
		sl.ReportError(doc.Data, "file", "Data", "required", "")
		return
	}
	if len(doc.Data) > shared.MaxDocumentSize {
		sl.ReportError(doc.Data, "file", "Data", "maxsize", "")
		return
	}
	if !mimetype.EqualsAny(doc.ContentType(), allowedDocumentTypes...) {
		sl.ReportError(doc.Data, "file", "Data", "imagetype", "")
	}
}

// Validate checks s and returns ValidationErrors on failure.
func (v *Validator) Validate(s Submission) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate step %d: %w", s.StepNumber(), err)
	}
	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", strings.ToUpper(fe.Field()), fe.Param())
	case "required", "notblank":
		if fe.Field() == "file" {
			return "Please upload a document"
		}
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "maxsize":
		return "File size must not exceed 3MB"
	case "imagetype":
		return "Only PNG and JPEG images are allowed"
	case "max":
		if fe.Field() == "image" {
			return "Captured image must not exceed 1MB"
		}
		return fmt.Sprintf("%s is too long", fe.Field())
	case "datauri":
		return "Captured image is not a valid data URI"
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
