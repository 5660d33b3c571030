// Package services implements the shareholder registry and the fermage engine
// on top of the store repositories.
package services

import (
	"github.com/diewo77/gersa/internal/logger"
	"github.com/diewo77/gersa/internal/metrics"
	"gorm.io/gorm"
)

// Services wires every service on one database handle.
type Services struct {
	References *ReferenceService
	Personnes  *PersonneService
	Parts      *PartService
	Mouvements *MouvementService
	Actes      *ActeService
	Cadastre   *CadastreService
	Anomalies  *AnomalyService
}

func New(db *gorm.DB, log *logger.Logger, m *metrics.Metrics) *Services {
	if m == nil {
		m = metrics.Nop()
	}
	refs := NewReferenceService(db, log)
	parts := NewPartService(db, log, m)
	return &Services{
		References: refs,
		Personnes:  NewPersonneService(db, log, parts),
		Parts:      parts,
		Mouvements: NewMouvementService(db, log),
		Actes:      NewActeService(db, log),
		Cadastre:   NewCadastreService(db, log, m, refs.Rates()),
		Anomalies:  NewAnomalyService(db, log, m),
	}
}
