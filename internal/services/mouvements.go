package services

import (
	"context"
	"fmt"

	"github.com/diewo77/gersa/internal/logger"
	"github.com/diewo77/gersa/internal/models"
	"github.com/diewo77/gersa/internal/store"
	"github.com/diewo77/gersa/validation"
	"gorm.io/gorm"
)

// Effective date of a movement: its own date, else the date of its act.
// Undated movements sort last.
const (
	effectiveDate      = "COALESCE(m.date_operation, a.date_acte)"
	mouvementsByRecent = effectiveDate + " IS NULL, " + effectiveDate + " DESC, m.id DESC"
)

type MouvementFilter struct {
	IDPersonne *int
	IDActe     *int
	Sens       *bool
}

func (f MouvementFilter) predicates() []store.Predicate {
	return []store.Predicate{
		store.Eq("m.id_personne", f.IDPersonne),
		store.Eq("m.id_acte", f.IDActe),
		store.Eq("m.sens", f.Sens),
	}
}

type MouvementService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo *store.Repository[models.Mouvement]

	personnes          *store.Repository[models.Personne]
	actes              *store.Repository[models.Acte]
	typesApport        *store.Repository[models.TypeApport]
	typesRemboursement *store.Repository[models.TypeRemboursement]
}

func NewMouvementService(db *gorm.DB, log *logger.Logger) *MouvementService {
	log = log.With("service", "mouvements")
	return &MouvementService{
		db:                 db,
		log:                log,
		repo:               store.NewRepository[models.Mouvement](db, log, "mouvement", "id"),
		personnes:          store.NewRepository[models.Personne](db, log, "personne", "nom, prenom"),
		actes:              store.NewRepository[models.Acte](db, log, "acte", "id"),
		typesApport:        store.NewRepository[models.TypeApport](db, log, "type_apport", "libelle"),
		typesRemboursement: store.NewRepository[models.TypeRemboursement](db, log, "type_remboursement", "libelle"),
	}
}

func (s *MouvementService) Get(ctx context.Context, id int) (*models.Mouvement, error) {
	return s.repo.Get(ctx, nil, id)
}

func (s *MouvementService) base(ctx context.Context, preds []store.Predicate) *gorm.DB {
	return store.Apply(s.db.WithContext(ctx).Table("mouvements AS m"), preds...)
}

// List returns movements by effective date, most recent first.
func (s *MouvementService) List(ctx context.Context, f MouvementFilter, page store.Page) ([]models.Mouvement, int64, error) {
	preds := f.predicates()
	var total int64
	if err := s.base(ctx, preds).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count mouvements: %w", err)
	}
	out := []models.Mouvement{}
	q := s.base(ctx, preds).
		Select("m.*").
		Joins("LEFT JOIN actes a ON a.id = m.id_acte").
		Order(mouvementsByRecent)
	if err := page.Scope(q).Find(&out).Error; err != nil {
		return nil, 0, fmt.Errorf("list mouvements: %w", err)
	}
	return out, total, nil
}

// ListWithDetails is List plus owner and act labels and the share numbers
// attached to each movement (the first MaxMouvementParts, ascending).
func (s *MouvementService) ListWithDetails(ctx context.Context, f MouvementFilter, page store.Page) ([]models.MouvementWithDetails, int64, error) {
	preds := f.predicates()
	var total int64
	if err := s.base(ctx, preds).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count mouvements: %w", err)
	}
	out := []models.MouvementWithDetails{}
	q := s.base(ctx, preds).
		Select(`m.*, p.nom AS personne_nom, p.prenom AS personne_prenom,
			a.code_acte AS code_acte, a.date_acte AS date_acte`).
		Joins("LEFT JOIN personnes p ON p.id = m.id_personne").
		Joins("LEFT JOIN actes a ON a.id = m.id_acte").
		Order(mouvementsByRecent)
	if err := page.Scope(q).Scan(&out).Error; err != nil {
		return nil, 0, fmt.Errorf("list mouvements: %w", err)
	}
	if len(out) == 0 {
		return out, total, nil
	}

	ids := make([]int, len(out))
	for i := range out {
		ids[i] = out[i].ID
	}
	var parts []struct {
		IDMouvement int
		NumPart     int
	}
	err := s.db.WithContext(ctx).Model(&models.NumeroPart{}).
		Select("id_mouvement, num_part").
		Where("id_mouvement IN ?", ids).
		Order("id_mouvement, num_part").
		Scan(&parts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("mouvement parts: %w", err)
	}
	nums := map[int][]int{}
	counts := map[int]int64{}
	for _, p := range parts {
		counts[p.IDMouvement]++
		if len(nums[p.IDMouvement]) < models.MaxMouvementParts {
			nums[p.IDMouvement] = append(nums[p.IDMouvement], p.NumPart)
		}
	}
	for i := range out {
		out[i].NumerosParts = nums[out[i].ID]
		if out[i].NumerosParts == nil {
			out[i].NumerosParts = []int{}
		}
		out[i].NumerosPartsCount = counts[out[i].ID]
	}
	return out, total, nil
}

func (s *MouvementService) validate(ctx context.Context, tx *gorm.DB, m *models.Mouvement) error {
	v := validation.Violations{}
	validation.NonNegativeInt("nb_parts", m.NbParts, v)
	if err := v.Err(); err != nil {
		return err
	}
	if err := mustExist(ctx, tx, s.personnes, "mouvement", "id_personne", m.IDPersonne); err != nil {
		return err
	}
	if err := mustExistOpt(ctx, tx, s.actes, "mouvement", "id_acte", m.IDActe); err != nil {
		return err
	}
	if err := mustExistOpt(ctx, tx, s.typesApport, "mouvement", "id_type_apport", m.IDTypeApport); err != nil {
		return err
	}
	return mustExistOpt(ctx, tx, s.typesRemboursement, "mouvement", "id_type_remboursement", m.IDTypeRemboursement)
}

// Create requires an existing owner; the act and type references are optional.
func (s *MouvementService) Create(ctx context.Context, m *models.Mouvement) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.validate(ctx, tx, m); err != nil {
			return err
		}
		return s.repo.Create(ctx, tx, m)
	})
}

func (s *MouvementService) Update(ctx context.Context, id int, patch models.MouvementPatch) (*models.Mouvement, error) {
	v := validation.Violations{}
	notNull("id_personne", patch.IDPersonne, v)
	notNull("sens", patch.Sens, v)
	notNull("nb_parts", patch.NbParts, v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	var out *models.Mouvement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.repo.Update(ctx, tx, id, patch)
		if err != nil || m == nil {
			return err
		}
		if err := s.validate(ctx, tx, m); err != nil {
			return err
		}
		out = m
		return nil
	})
	return out, err
}

// Delete refuses to remove a movement that shares still point to.
func (s *MouvementService) Delete(ctx context.Context, id int) (bool, error) {
	var deleted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := notReferenced(ctx, tx, &models.NumeroPart{}, "id_mouvement", id, "mouvement", "shares"); err != nil {
			return err
		}
		ok, err := s.repo.Delete(ctx, tx, id)
		deleted = ok
		return err
	})
	return deleted, err
}
