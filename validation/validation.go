package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Violations maps a field name (json name) to a violation code.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Fields returns the violated field names, sorted.
func (v Violations) Fields() []string {
	out := make([]string, 0, len(v))
	for f := range v {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Err returns nil when there is no violation, an *Error otherwise.
func (v Violations) Err() error {
	if v.Empty() {
		return nil
	}
	return &Error{Violations: v}
}

// Error is the local, pre-network validation failure. It carries every violation at once.
type Error struct {
	Violations Violations
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, f := range e.Violations.Fields() {
		parts = append(parts, f+"="+e.Violations[f])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func RequiredID(field string, id uint, v Violations) {
	if id == 0 {
		v[field] = "required"
	}
}

func NonEmptyIDs(field string, ids []uint, v Violations) {
	if len(ids) == 0 {
		v[field] = "required"
	}
}

// NotBefore flags field when end is earlier than start.
func NotBefore(field string, start, end time.Time, v Violations) {
	if end.Before(start) {
		v[field] = "before_start"
	}
}

var (
	code3Regex       = regexp.MustCompile(`^[A-Z]{3}$`)
	productCodeRegex = regexp.MustCompile(`^(VTE|EC)\d+$`)
)

// IsCode3 reports whether value is exactly 3 uppercase ASCII letters.
func IsCode3(value string) bool { return code3Regex.MatchString(value) }

// IsProductCode reports whether value belongs to a known product family (VTE or EC).
func IsProductCode(value string) bool { return productCodeRegex.MatchString(value) }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	mustRegister(v, "code3", func(fl validator.FieldLevel) bool {
		return IsCode3(fl.Field().String())
	})
	mustRegister(v, "productcode", func(fl validator.FieldLevel) bool {
		return IsProductCode(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

// Struct runs the `validate` tags of s and records every failure into v.
func Struct(s any, v Violations) {
	err := validate.Struct(s)
	if err == nil {
		return
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		v["_"] = "invalid"
		return
	}
	for _, fe := range errs {
		v[fe.Field()] = code(fe)
	}
}

// Check is Struct with a fresh Violations set.
func Check(s any) Violations {
	v := make(Violations)
	Struct(s, v)
	return v
}

func code(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "min":
		if fe.Kind() == reflect.Slice && fe.Param() == "1" {
			return "required"
		}
		return "too_short"
	case "code3", "productcode":
		return "invalid_code"
	case "email":
		return "invalid_email"
	}
	return "invalid"
}
