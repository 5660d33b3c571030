package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/diewo77/gersa/internal/logger"
	"github.com/diewo77/gersa/internal/models"
	"github.com/diewo77/gersa/internal/store"
	"github.com/diewo77/gersa/validation"
	"gorm.io/gorm"
)

type ActeFilter struct {
	IDStructure *int
	Provisoire  *bool
}

func (f ActeFilter) predicates() []store.Predicate {
	return []store.Predicate{
		store.Eq("a.id_structure", f.IDStructure),
		store.Eq("a.provisoire", f.Provisoire),
	}
}

const actesByRecent = "a.date_acte IS NULL, a.date_acte DESC, a.id DESC"

type ActeService struct {
	db         *gorm.DB
	log        *logger.Logger
	repo       *store.Repository[models.Acte]
	structures *store.Repository[models.Structure]
}

func NewActeService(db *gorm.DB, log *logger.Logger) *ActeService {
	log = log.With("service", "actes")
	return &ActeService{
		db:         db,
		log:        log,
		repo:       store.NewRepository[models.Acte](db, log, "acte", "id"),
		structures: store.NewRepository[models.Structure](db, log, "structure", "nom_structure"),
	}
}

func (s *ActeService) Get(ctx context.Context, id int) (*models.Acte, error) {
	return s.repo.Get(ctx, nil, id)
}

// ByCode returns the first act carrying code, nil when none does.
func (s *ActeService) ByCode(ctx context.Context, code string) (*models.Acte, error) {
	var a models.Acte
	err := s.db.WithContext(ctx).Where("code_acte = ?", code).Order("id").Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("acte by code %q: %w", code, err)
	}
	return &a, nil
}

// List orders by act date, most recent first, undated acts last.
func (s *ActeService) List(ctx context.Context, f ActeFilter, page store.Page) ([]models.Acte, int64, error) {
	return store.List[models.Acte](s.db.WithContext(ctx).Table("actes AS a"), f.predicates(), actesByRecent, page)
}

// ListWithDetails adds the structure name.
func (s *ActeService) ListWithDetails(ctx context.Context, f ActeFilter, page store.Page) ([]models.ActeWithDetails, int64, error) {
	preds := f.predicates()
	var total int64
	if err := store.Apply(s.db.WithContext(ctx).Table("actes AS a"), preds...).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count actes: %w", err)
	}
	out := []models.ActeWithDetails{}
	q := store.Apply(s.db.WithContext(ctx).Table("actes AS a"), preds...).
		Select("a.*, s.nom_structure AS structure_nom").
		Joins("LEFT JOIN structures s ON s.id = a.id_structure").
		Order(actesByRecent)
	if err := page.Scope(q).Scan(&out).Error; err != nil {
		return nil, 0, fmt.Errorf("list actes: %w", err)
	}
	return out, total, nil
}

func (s *ActeService) validate(ctx context.Context, tx *gorm.DB, a *models.Acte) error {
	v := validation.Violations{}
	validation.Required("code_acte", a.CodeActe, v)
	validation.MaxLen("code_acte", a.CodeActe, 50, v)
	validation.MaxLenPtr("libelle_acte", a.LibelleActe, 255, v)
	if err := v.Err(); err != nil {
		return err
	}
	return mustExistOpt(ctx, tx, s.structures, "acte", "id_structure", a.IDStructure)
}

func (s *ActeService) Create(ctx context.Context, a *models.Acte) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.validate(ctx, tx, a); err != nil {
			return err
		}
		return s.repo.Create(ctx, tx, a)
	})
}

func (s *ActeService) Update(ctx context.Context, id int, patch models.ActePatch) (*models.Acte, error) {
	v := validation.Violations{}
	notNull("code_acte", patch.CodeActe, v)
	notNull("provisoire", patch.Provisoire, v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	var out *models.Acte
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.repo.Update(ctx, tx, id, patch)
		if err != nil || a == nil {
			return err
		}
		if err := s.validate(ctx, tx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	return out, err
}

// Delete refuses to remove an act that movements still point to.
func (s *ActeService) Delete(ctx context.Context, id int) (bool, error) {
	var deleted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := notReferenced(ctx, tx, &models.Mouvement{}, "id_acte", id, "acte", "movements"); err != nil {
			return err
		}
		ok, err := s.repo.Delete(ctx, tx, id)
		deleted = ok
		return err
	})
	return deleted, err
}
