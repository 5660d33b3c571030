package validation

import (
	"errors"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/diewo77/gersa/i18n"
	"github.com/shopspring/decimal"
)

// ErrInvalid matches every *Error.
var ErrInvalid = errors.New("invalid input")

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Err returns nil when there is nothing to report.
func (v Violations) Err() error {
	if v.Empty() {
		return nil
	}
	return &Error{Violations: v}
}

// Error carries field violations as codes, translatable with i18n.T.
type Error struct {
	Violations Violations
}

func (e *Error) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for f := range e.Violations {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e.Violations[f])
	}
	return "invalid input: " + strings.Join(parts, ", ")
}

func (e *Error) Is(target error) bool { return target == ErrInvalid }

// Messages translates every violation for lang.
func (e *Error) Messages(lang string) map[string]string {
	out := make(map[string]string, len(e.Violations))
	for f, code := range e.Violations {
		out[f] = i18n.T(lang, code)
	}
	return out
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func MaxLen(field, value string, max int, v Violations) {
	if utf8.RuneCountInString(value) > max {
		v[field] = "too_long"
	}
}

// MaxLenPtr checks an optional string.
func MaxLenPtr(field string, value *string, max int, v Violations) {
	if value != nil {
		MaxLen(field, *value, max, v)
	}
}

func PositiveInt(field string, val int, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func NonNegativeInt(field string, val int, v Violations) {
	if val < 0 {
		v[field] = "must_not_be_negative"
	}
}

func NonNegativeDecimal(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() {
		v[field] = "must_not_be_negative"
	}
}

func RangeDecimal(field string, val, minVal, maxVal decimal.Decimal, v Violations) {
	if val.LessThan(minVal) || val.GreaterThan(maxVal) {
		v[field] = "out_of_range"
	}
}
