package services

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/gersa/i18n"
	"github.com/diewo77/gersa/internal/logger"
	"github.com/diewo77/gersa/internal/metrics"
	"github.com/diewo77/gersa/internal/models"
	"gorm.io/gorm"
)

// AnomalyService runs read-only consistency checks over the share ledger.
// Anomalies are tolerated by writes; they are only reported here.
type AnomalyService struct {
	db      *gorm.DB
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewAnomalyService(db *gorm.DB, log *logger.Logger, m *metrics.Metrics) *AnomalyService {
	return &AnomalyService{db: db, log: log.With("service", "anomalies"), metrics: m}
}

func partsSansMouvements(db *gorm.DB, structureID *int) *gorm.DB {
	q := db.Model(&models.NumeroPart{}).Where("id_mouvement IS NULL")
	if structureID != nil {
		q = q.Where("id_structure = ?", *structureID)
	}
	return q
}

// Mouvement has no structure of its own; scoping goes through its owner.
func mouvementsSansActes(db *gorm.DB, structureID *int) *gorm.DB {
	q := db.Model(&models.Mouvement{}).Where("mouvements.id_acte IS NULL")
	if structureID != nil {
		q = q.Joins("JOIN personnes ON personnes.id = mouvements.id_personne").
			Where("personnes.id_structure = ?", *structureID)
	}
	return q
}

func partsSansActionnaires(db *gorm.DB) *gorm.DB {
	return db.Model(&models.NumeroPart{}).
		Joins("LEFT JOIN personnes ON personnes.id = numeros_parts.id_personne").
		Where("personnes.id IS NULL")
}

func mouvementsSansActionnaires(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Mouvement{}).
		Joins("LEFT JOIN personnes ON personnes.id = mouvements.id_personne").
		Where("personnes.id IS NULL")
}

// PartsSansMouvements lists shares with no originating movement.
func (s *AnomalyService) PartsSansMouvements(ctx context.Context, structureID *int) ([]models.NumeroPart, error) {
	out := []models.NumeroPart{}
	if err := partsSansMouvements(s.db.WithContext(ctx), structureID).Order("num_part, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("parts sans mouvements: %w", err)
	}
	return out, nil
}

// MouvementsSansActes lists movements with no legal act, optionally scoped by
// the owner's structure.
func (s *AnomalyService) MouvementsSansActes(ctx context.Context, structureID *int) ([]models.Mouvement, error) {
	out := []models.Mouvement{}
	err := mouvementsSansActes(s.db.WithContext(ctx), structureID).
		Select("mouvements.*").
		Order("mouvements.id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("mouvements sans actes: %w", err)
	}
	return out, nil
}

// PartsSansActionnaires lists shares whose owner row no longer exists.
func (s *AnomalyService) PartsSansActionnaires(ctx context.Context) ([]models.NumeroPart, error) {
	out := []models.NumeroPart{}
	err := partsSansActionnaires(s.db.WithContext(ctx)).
		Select("numeros_parts.*").
		Order("numeros_parts.num_part, numeros_parts.id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("parts sans actionnaires: %w", err)
	}
	return out, nil
}

// MouvementsSansActionnaires lists movements referencing a missing personne.
func (s *AnomalyService) MouvementsSansActionnaires(ctx context.Context) ([]models.Mouvement, error) {
	out := []models.Mouvement{}
	err := mouvementsSansActionnaires(s.db.WithContext(ctx)).
		Select("mouvements.*").
		Order("mouvements.id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("mouvements sans actionnaires: %w", err)
	}
	return out, nil
}

// Summary counts every anomaly kind with labels in lang. The orphan-owner
// checks are not structure scoped.
func (s *AnomalyService) Summary(ctx context.Context, structureID *int, lang string) (models.AnomalySummary, error) {
	defer s.metrics.ObserveSince("anomalies_summary", time.Now())
	db := s.db.WithContext(ctx)
	checks := []struct {
		kind  string
		query *gorm.DB
	}{
		{models.AnomalyPartsSansMouvements, partsSansMouvements(db, structureID)},
		{models.AnomalyMouvementsSansActes, mouvementsSansActes(db, structureID)},
		{models.AnomalyPartsSansActionnaires, partsSansActionnaires(db)},
		{models.AnomalyMouvementsSansActionnaires, mouvementsSansActionnaires(db)},
	}
	sum := models.AnomalySummary{Anomalies: make([]models.AnomalyCount, 0, len(checks))}
	for _, c := range checks {
		var n int64
		if err := c.query.Count(&n).Error; err != nil {
			return models.AnomalySummary{}, fmt.Errorf("count %s: %w", c.kind, err)
		}
		sum.Anomalies = append(sum.Anomalies, models.AnomalyCount{
			Kind:  c.kind,
			Label: i18n.T(lang, c.kind),
			Count: n,
		})
		sum.Total += n
		s.metrics.Anomalies.WithLabelValues(c.kind).Set(float64(n))
	}
	if sum.Total > 0 {
		s.log.Warn("anomalies detected", "total", sum.Total, "structure", structureID)
	}
	return sum, nil
}
