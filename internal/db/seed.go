package db

import (
	"errors"
	"fmt"

	"github.com/diewo77/gersa/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// defaultTypesFermage lists the lease categories and their default rent points.
var defaultTypesFermage = []struct {
	Libelle string
	Points  int64
}{
	{"B", 1}, {"BP2", 3}, {"BP3", 2}, {"MAI", 0},
	{"P1", 6}, {"P2", 4}, {"P3", 2}, {"S", 0},
	{"T1", 65}, {"T2", 42}, {"T3", 31}, {"T4", 26}, {"J", 10},
}

// Seed inserts the reference rows that are missing. Safe to run repeatedly.
func Seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, tf := range defaultTypesFermage {
			var existing models.TypeFermage
			err := tx.Where("libelle = ?", tf.Libelle).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			row := models.TypeFermage{Libelle: tf.Libelle, Points: decimal.NewFromInt(tf.Points)}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("seed type fermage %s: %w", tf.Libelle, err)
			}
		}
		return nil
	})
}
