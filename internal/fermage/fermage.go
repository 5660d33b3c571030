// Package fermage computes annual land rent from rent points, surface and the
// year's point values.
//
//	base    = points × surface / 10000
//	montant = base × point value (GFA or SCTL rate)
//	montant += montant × supplement% / 100   when the duration supplement applies
//
// All arithmetic is fixed-point.
package fermage

import (
	"github.com/diewo77/gersa/internal/models"
	"github.com/shopspring/decimal"
)

var (
	tenThousand = decimal.NewFromInt(10000)
	hundred     = decimal.NewFromInt(100)
)

// Input describes one leased unit.
type Input struct {
	Points  decimal.Decimal
	Surface decimal.Decimal
	// SCTL selects the tenant-trust rate instead of the GFA rate.
	SCTL bool
	// Supplement applies the duration supplement. It is never inferred.
	Supplement bool
}

// Result is a computed rent. SansValeurPoint reports that no point value row
// was available: Montant is then zero and must not be read as a real rent.
type Result struct {
	Montant         decimal.Decimal `json:"montant"`
	ValeurPoint     decimal.Decimal `json:"valeur_point"`
	Supplement      decimal.Decimal `json:"supplement"`
	SansValeurPoint bool            `json:"sans_valeur_point"`
}

// Base returns points × surface / 10000.
func Base(points, surface decimal.Decimal) decimal.Decimal {
	return points.Mul(surface).Div(tenThousand)
}

// Rates picks the point value and supplement percentage for the owner kind.
func Rates(vp *models.ValeurPoint, sctl bool) (valeur, supp decimal.Decimal) {
	if sctl {
		return vp.ValeurPointSCTL, vp.ValeurSuppSCTL
	}
	return vp.ValeurPointGFA, vp.ValeurSuppGFA
}

// Compute returns the rent for in using vp. A nil vp yields a zero rent flagged
// SansValeurPoint.
func Compute(in Input, vp *models.ValeurPoint) Result {
	if vp == nil {
		return Result{Montant: decimal.Zero, SansValeurPoint: true}
	}
	valeur, supp := Rates(vp, in.SCTL)
	montant := Base(in.Points, in.Surface).Mul(valeur)
	res := Result{ValeurPoint: valeur}
	if in.Supplement {
		res.Supplement = supp
		montant = montant.Add(montant.Mul(supp).Div(hundred))
	}
	res.Montant = montant
	return res
}

// EffectivePoints returns the subdivision's own points, else its lease type's
// default, else zero.
func EffectivePoints(own decimal.NullDecimal, tf *models.TypeFermage) decimal.Decimal {
	if own.Valid {
		return own.Decimal
	}
	if tf != nil {
		return tf.Points
	}
	return decimal.Zero
}
