package validation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidators(t *testing.T) {
	v := Violations{}
	Required("nom", "  ", v)
	MaxLen("code_acte", "ABCDEFGHIJK", 10, v)
	NonNegativeDecimal("surface", decimal.RequireFromString("-0.5"), v)
	RangeDecimal("valeur_supp_gfa", decimal.NewFromInt(120), decimal.Zero, decimal.NewFromInt(100), v)
	PositiveInt("num_part", 0, v)
	NonNegativeInt("nb_parts", 3, v)
	MaxLenPtr("prenom", nil, 5, v)

	want := map[string]string{
		"nom":             "required",
		"code_acte":       "too_long",
		"surface":         "must_not_be_negative",
		"valeur_supp_gfa": "out_of_range",
		"num_part":        "must_be_positive",
	}
	if len(v) != len(want) {
		t.Fatalf("violations = %#v", v)
	}
	for f, code := range want {
		if v[f] != code {
			t.Errorf("%s = %q want %q", f, v[f], code)
		}
	}
}

func TestErr(t *testing.T) {
	if (Violations{}).Err() != nil {
		t.Fatal("empty violations must not be an error")
	}
	err := Violations{"nom": "required"}.Err()
	if !errors.Is(err, ErrInvalid) {
		t.Fatal("expected ErrInvalid")
	}
	var ve *Error
	if !errors.As(err, &ve) {
		t.Fatal("expected *Error")
	}
	if ve.Messages("en")["nom"] != "Required" || ve.Messages("fr")["nom"] != "Requis" {
		t.Fatalf("messages = %#v", ve.Messages("en"))
	}
	if err.Error() != "invalid input: nom: required" {
		t.Fatalf("message = %q", err.Error())
	}
}
