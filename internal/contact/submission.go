// Package contact turns contact-form submissions into outbound email.
//
// The pipeline is validate -> render -> build envelope -> send. Each form
// variant is a tagged struct decoded with gorilla/schema and checked with
// go-playground/validator; subjects and bodies are Liquid templates.
package contact

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/dukerupert/armstrong/internal/domain"
)

// Kind identifies a contact form variant.
type Kind string

const (
	// KindBase is the general contact form. Mail goes to the configured staff list.
	KindBase Kind = "base"

	// KindCompany is the Armstrong form. It adds a company field and replies
	// to the submitter with the sending address in cc.
	KindCompany Kind = "company"
)

// Kinds lists every supported variant.
var Kinds = []Kind{KindBase, KindCompany}

// ParseKind converts a route or CLI value into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindBase, "general":
		return KindBase, nil
	case KindCompany, "armstrong":
		return KindCompany, nil
	}
	return "", domain.Invalid("contact.parse_kind", fmt.Sprintf("unknown contact form %q", s))
}

// Submission is validated contact-form input.
// The only way to obtain a usable Submission is Validate.
type Submission struct {
	Kind    Kind
	Name    string
	Email   string
	Body    string
	Company string

	validated bool
}

// Validated reports whether the submission came out of Validate and its
// fields still satisfy the form constraints.
func (s *Submission) Validated() bool {
	if s == nil || !s.validated {
		return false
	}
	for _, v := range []string{s.Name, s.Email, s.Body, s.Company} {
		if v != strings.TrimSpace(v) {
			return false
		}
	}

	var form any
	switch s.Kind {
	case KindBase:
		if s.Company != "" {
			return false
		}
		form = &baseForm{Name: s.Name, Email: s.Email, Body: s.Body}
	case KindCompany:
		form = &companyForm{Name: s.Name, Email: s.Email, Body: s.Body, Company: s.Company}
	default:
		return false
	}
	return validate.Struct(form) == nil
}

// baseForm is the general contact form.
type baseForm struct {
	Name  string `schema:"name" json:"name" validate:"required,max=100"`
	Email string `schema:"email" json:"email" validate:"required,email"`
	Body  string `schema:"body" json:"body" validate:"required"`
}

// companyForm is the Armstrong contact form.
type companyForm struct {
	Name    string `schema:"name" json:"name" validate:"required,max=100"`
	Email   string `schema:"email" json:"email" validate:"required,email"`
	Body    string `schema:"body" json:"body" validate:"required"`
	Company string `schema:"company" json:"company" validate:"required,max=100"`
}

var (
	decoder  = newDecoder()
	validate = newValidator()
)

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	// csrf tokens and honeypots ride along with the form fields
	d.IgnoreUnknownKeys(true)
	return d
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("schema"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate decodes raw form fields for the given variant and enforces the
// field constraints. Every failing field is reported in a single
// *domain.ValidationError; nothing is partially accepted.
func Validate(kind Kind, raw url.Values) (*Submission, error) {
	const op = "contact.validate"

	var (
		form any
		sub  func() *Submission
	)
	switch kind {
	case KindBase:
		f := &baseForm{}
		form = f
		sub = func() *Submission {
			return &Submission{Kind: kind, Name: f.Name, Email: f.Email, Body: f.Body}
		}
	case KindCompany:
		f := &companyForm{}
		form = f
		sub = func() *Submission {
			return &Submission{Kind: kind, Name: f.Name, Email: f.Email, Body: f.Body, Company: f.Company}
		}
	default:
		return nil, domain.Invalid(op, fmt.Sprintf("unknown contact form %q", kind))
	}

	if err := decoder.Decode(form, raw); err != nil {
		return nil, domain.WrapError(err, domain.EINVALID, op, "could not read form fields")
	}
	trimFields(form)

	if err := validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, domain.Internal(err, op, "validation failed")
		}
		ve := &domain.ValidationError{Op: op, Fields: make(map[string]string, len(verrs))}
		for _, fe := range verrs {
			ve.Fields[fe.Field()] = fieldMessage(fe)
		}
		return nil, ve
	}

	s := sub()
	s.validated = true
	return s, nil
}

// trimFields strips surrounding whitespace from every string field so a
// whitespace-only value counts as missing.
func trimFields(form any) {
	v := reflect.ValueOf(form).Elem()
	for i := 0; i < v.NumField(); i++ {
		if f := v.Field(i); f.Kind() == reflect.String && f.CanSet() {
			f.SetString(strings.TrimSpace(f.String()))
		}
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters (it has %d).",
			fe.Param(), len([]rune(fmt.Sprint(fe.Value()))))
	}
	return "Enter a valid value."
}
