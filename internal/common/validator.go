package common

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/asaskevich/govalidator"
)

// Error kinds. A ValidationError unwraps to one of these so callers can
// branch with errors.Is without caring about the field messages.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrConflict       = errors.New("conflict")
	ErrRecordNotFound = errors.New("record not found")
	ErrInvalidState   = errors.New("invalid state")
	ErrForbidden      = errors.New("forbidden")
	ErrEmptyResult    = errors.New("empty result")
)

type ValidationError struct {
	Kind   error
	Errors map[string]string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %+v", e.Errors)
}

func (e ValidationError) Unwrap() error {
	if e.Kind == nil {
		return ErrInvalidInput
	}
	return e.Kind
}

// FieldError builds a single-field ValidationError of the given kind.
func FieldError(kind error, field, message string) ValidationError {
	return ValidationError{Kind: kind, Errors: map[string]string{field: message}}
}

type Validator struct {
	Errors map[string]string
}

func NewValidator() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

func (v *Validator) AddError(field, message string) {
	if _, ok := v.Errors[field]; !ok {
		v.Errors[field] = message
	}
}

func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// CheckStringLength counts runes, so Cyrillic titles are measured the same
// way as Latin ones.
func (v *Validator) CheckStringLength(s string, min, max int) bool {
	return govalidator.RuneLength(s, strconv.Itoa(min), strconv.Itoa(max))
}

func (v *Validator) ValidationError() error {
	return ValidationError{Kind: ErrInvalidInput, Errors: v.Errors}
}
