package db_test

import (
	"testing"

	"github.com/diewo77/gersa/internal/db"
	"github.com/diewo77/gersa/internal/db/dbtest"
	"github.com/diewo77/gersa/internal/models"
	"github.com/shopspring/decimal"
)

func TestSeedIdempotent(t *testing.T) {
	d := dbtest.Open(t)
	if err := db.Seed(d); err != nil {
		t.Fatal(err)
	}
	if err := db.Seed(d); err != nil {
		t.Fatal(err)
	}
	var count int64
	d.Model(&models.TypeFermage{}).Count(&count)
	if count != 13 {
		t.Fatalf("expected 13 types fermage got %d", count)
	}
	var t1 models.TypeFermage
	if err := d.Where("libelle = ?", "T1").First(&t1).Error; err != nil {
		t.Fatal(err)
	}
	if !t1.Points.Equal(decimal.NewFromInt(65)) {
		t.Fatalf("T1 points = %s", t1.Points)
	}
}

func TestSeedKeepsEditedPoints(t *testing.T) {
	d := dbtest.Open(t)
	if err := d.Create(&models.TypeFermage{Libelle: "B", Points: decimal.NewFromInt(7)}).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Seed(d); err != nil {
		t.Fatal(err)
	}
	var b models.TypeFermage
	d.Where("libelle = ?", "B").First(&b)
	if !b.Points.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("seed overwrote existing row: %s", b.Points)
	}
}
