package fermage

import (
	"testing"

	"github.com/diewo77/gersa/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func vp2024() *models.ValeurPoint {
	return &models.ValeurPoint{
		Annee:           2024,
		ValeurPointGFA:  d("1.69"),
		ValeurPointSCTL: d("2.10"),
		ValeurSuppGFA:   d("10"),
		ValeurSuppSCTL:  d("5.5"),
	}
}

func TestBase(t *testing.T) {
	assert.True(t, d("0.0025").Equal(Base(d("10"), d("2.5"))))
}

func TestCompute(t *testing.T) {
	cases := []struct {
		name string
		in   Input
		want string
	}{
		{"gfa", Input{Points: d("10"), Surface: d("2.5")}, "0.004225"},
		{"gfa with supplement", Input{Points: d("10"), Surface: d("2.5"), Supplement: true}, "0.0046475"},
		{"sctl", Input{Points: d("65"), Surface: d("12.3456"), SCTL: true}, "0.16851744"},
		{"sctl with supplement", Input{Points: d("100"), Surface: d("100"), SCTL: true, Supplement: true}, "2.2155"},
		{"zero points", Input{Points: decimal.Zero, Surface: d("4")}, "0"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Compute(c.in, vp2024())
			assert.False(t, got.SansValeurPoint)
			assert.True(t, d(c.want).Equal(got.Montant), "got %s want %s", got.Montant, c.want)
		})
	}
}

func TestComputeWithoutPointValue(t *testing.T) {
	got := Compute(Input{Points: d("10"), Surface: d("2.5")}, nil)
	assert.True(t, got.SansValeurPoint)
	assert.True(t, got.Montant.IsZero())
}

func TestSupplementIsNeverImplied(t *testing.T) {
	in := Input{Points: d("10"), Surface: d("2.5")}
	got := Compute(in, vp2024())
	assert.True(t, got.Supplement.IsZero())
	assert.True(t, d("0.004225").Equal(got.Montant))
}

func TestEffectivePoints(t *testing.T) {
	t1 := &models.TypeFermage{Libelle: "T1", Points: d("65")}
	assert.True(t, d("3").Equal(EffectivePoints(decimal.NewNullDecimal(d("3")), t1)))
	assert.True(t, d("65").Equal(EffectivePoints(decimal.NullDecimal{}, t1)))
	assert.True(t, EffectivePoints(decimal.NullDecimal{}, nil).IsZero())
}
