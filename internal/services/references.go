package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/gersa/internal/logger"
	"github.com/diewo77/gersa/internal/models"
	"github.com/diewo77/gersa/internal/store"
	"github.com/diewo77/gersa/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const ratesTTL = 5 * time.Minute

var maxSupplement = decimal.NewFromInt(100)

// ReferenceService manages the lookup tables. Plain tables are exposed as
// repositories; tables with rules go through methods.
type ReferenceService struct {
	db  *gorm.DB
	log *logger.Logger

	Structures         *store.Repository[models.Structure]
	TypesApport        *store.Repository[models.TypeApport]
	TypesRemboursement *store.Repository[models.TypeRemboursement]
	Communes           *store.Repository[models.Commune]
	LieuxDits          *store.Repository[models.LieuDit]
	Exploitants        *store.Repository[models.Exploitant]
	TypesCadastre      *store.Repository[models.TypeCadastre]
	ClassesCadastre    *store.Repository[models.ClasseCadastre]
	TypesFermage       *store.Repository[models.TypeFermage]

	// Point values are only written through the methods below so the rate
	// cache stays coherent.
	valeursPoints *store.Repository[models.ValeurPoint]
	rates         *CachedRates
}

func NewReferenceService(db *gorm.DB, log *logger.Logger) *ReferenceService {
	log = log.With("service", "references")
	s := &ReferenceService{
		db:                 db,
		log:                log,
		Structures:         store.NewRepository[models.Structure](db, log, "structure", "nom_structure"),
		TypesApport:        store.NewRepository[models.TypeApport](db, log, "type_apport", "libelle"),
		TypesRemboursement: store.NewRepository[models.TypeRemboursement](db, log, "type_remboursement", "libelle"),
		Communes:           store.NewRepository[models.Commune](db, log, "commune", "nom_com"),
		LieuxDits:          store.NewRepository[models.LieuDit](db, log, "lieu_dit", "nom"),
		Exploitants:        store.NewRepository[models.Exploitant](db, log, "exploitant", "nom, prenom"),
		TypesCadastre:      store.NewRepository[models.TypeCadastre](db, log, "type_cadastre", "libelle"),
		ClassesCadastre:    store.NewRepository[models.ClasseCadastre](db, log, "classe_cadastre", "libelle"),
		TypesFermage:       store.NewRepository[models.TypeFermage](db, log, "type_fermage", "libelle"),
		valeursPoints:      store.NewRepository[models.ValeurPoint](db, log, "valeur_point", "annee DESC"),
	}
	s.rates = NewCachedRates(yearLookup{db}, ratesTTL)
	return s
}

// Rates is the cached year resolver shared with the fermage engine.
func (s *ReferenceService) Rates() RatesResolver { return s.rates }

// ListStructures filters by kind; KindAll lists every kind.
func (s *ReferenceService) ListStructures(ctx context.Context, kind models.StructureKind, page store.Page) ([]models.Structure, int64, error) {
	var pred store.Predicate
	if kind != models.KindAll {
		pred = store.Eq("type_structure", &kind)
	}
	return s.Structures.List(ctx, page, pred)
}

func (s *ReferenceService) CreateStructure(ctx context.Context, st *models.Structure) error {
	v := validation.Violations{}
	validation.Required("nom_structure", st.NomStructure, v)
	validation.MaxLen("nom_structure", st.NomStructure, 100, v)
	validateKind(st.TypeStructure, v)
	if err := v.Err(); err != nil {
		return err
	}
	return s.Structures.Create(ctx, nil, st)
}

func validateKind(k models.StructureKind, v validation.Violations) {
	switch k {
	case models.KindGFA, models.KindAssociation, models.KindTSL:
	default:
		v["type_structure"] = "out_of_range"
	}
}

func (s *ReferenceService) UpdateStructure(ctx context.Context, id int, patch models.StructurePatch) (*models.Structure, error) {
	v := validation.Violations{}
	if patch.NomStructure.Set {
		validation.Required("nom_structure", deref(patch.NomStructure.Value), v)
	}
	if patch.TypeStructure.Set {
		validateKind(deref(patch.TypeStructure.Value), v)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return s.Structures.Update(ctx, nil, id, patch)
}

func (s *ReferenceService) CreateCommune(ctx context.Context, c *models.Commune) error {
	v := validation.Violations{}
	validation.Required("num_com", c.NumCom, v)
	validation.MaxLen("num_com", c.NumCom, 10, v)
	validation.Required("nom_com", c.NomCom, v)
	if err := v.Err(); err != nil {
		return err
	}
	return s.Communes.Create(ctx, nil, c)
}

// ListLieuxDits lists localities, optionally within one commune.
func (s *ReferenceService) ListLieuxDits(ctx context.Context, communeID *int, page store.Page) ([]models.LieuDit, int64, error) {
	return s.LieuxDits.List(ctx, page, store.Eq("id_commune", communeID))
}

func (s *ReferenceService) CreateLieuDit(ctx context.Context, l *models.LieuDit) error {
	v := validation.Violations{}
	validation.Required("nom", l.Nom, v)
	if err := v.Err(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(ctx, tx, s.Communes, "lieu_dit", "id_commune", l.IDCommune); err != nil {
			return err
		}
		return s.LieuxDits.Create(ctx, tx, l)
	})
}

// ListExploitants filters by a case-insensitive name fragment.
func (s *ReferenceService) ListExploitants(ctx context.Context, nom string, page store.Page) ([]models.Exploitant, int64, error) {
	return s.Exploitants.List(ctx, page, store.Contains("nom", nom))
}

func (s *ReferenceService) CreateExploitant(ctx context.Context, e *models.Exploitant) error {
	v := validation.Violations{}
	validation.Required("nom", e.Nom, v)
	validation.MaxLen("nom", e.Nom, 100, v)
	if err := v.Err(); err != nil {
		return err
	}
	return s.Exploitants.Create(ctx, nil, e)
}

func (s *ReferenceService) CreateTypeFermage(ctx context.Context, tf *models.TypeFermage) error {
	v := validation.Violations{}
	validation.Required("libelle", tf.Libelle, v)
	validation.NonNegativeDecimal("points", tf.Points, v)
	if err := v.Err(); err != nil {
		return err
	}
	return s.TypesFermage.Create(ctx, nil, tf)
}

// ValeurPointByYear returns the year's row or nil, bypassing the cache.
func (s *ReferenceService) ValeurPointByYear(ctx context.Context, annee int) (*models.ValeurPoint, error) {
	return yearLookup{s.db}.ValeurPointByYear(ctx, annee)
}

// ListValeursPoints pages the point-value table, latest year first.
func (s *ReferenceService) ListValeursPoints(ctx context.Context, page store.Page) ([]models.ValeurPoint, int64, error) {
	return s.valeursPoints.List(ctx, page)
}

func validateValeurPoint(vp *models.ValeurPoint) error {
	v := validation.Violations{}
	validation.PositiveInt("annee", vp.Annee, v)
	validation.NonNegativeDecimal("valeur_point_gfa", vp.ValeurPointGFA, v)
	validation.NonNegativeDecimal("valeur_point_sctl", vp.ValeurPointSCTL, v)
	validation.RangeDecimal("valeur_supp_gfa", vp.ValeurSuppGFA, decimal.Zero, maxSupplement, v)
	validation.RangeDecimal("valeur_supp_sctl", vp.ValeurSuppSCTL, decimal.Zero, maxSupplement, v)
	return v.Err()
}

// CreateValeurPoint rejects a second row for the same year.
func (s *ReferenceService) CreateValeurPoint(ctx context.Context, vp *models.ValeurPoint) error {
	if err := validateValeurPoint(vp); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.yearIsFree(ctx, tx, vp.Annee, 0); err != nil {
			return err
		}
		return s.valeursPoints.Create(ctx, tx, vp)
	})
	if err != nil {
		return err
	}
	s.rates.Invalidate(vp.Annee)
	return nil
}

// UpdateValeurPoint merges patch, re-validates the row and keeps years unique.
func (s *ReferenceService) UpdateValeurPoint(ctx context.Context, id int, patch models.ValeurPointPatch) (*models.ValeurPoint, error) {
	var out *models.ValeurPoint
	v := validation.Violations{}
	notNull("annee", patch.Annee, v)
	notNull("valeur_point_gfa", patch.ValeurPointGFA, v)
	notNull("valeur_point_sctl", patch.ValeurPointSCTL, v)
	notNull("valeur_supp_gfa", patch.ValeurSuppGFA, v)
	notNull("valeur_supp_sctl", patch.ValeurSuppSCTL, v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if patch.Annee.Set {
			if err := s.yearIsFree(ctx, tx, *patch.Annee.Value, id); err != nil {
				return err
			}
		}
		vp, err := s.valeursPoints.Update(ctx, tx, id, patch)
		if err != nil || vp == nil {
			return err
		}
		if err := validateValeurPoint(vp); err != nil {
			return err
		}
		out = vp
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.rates.InvalidateAll()
	return out, nil
}

func (s *ReferenceService) DeleteValeurPoint(ctx context.Context, id int) (bool, error) {
	ok, err := s.valeursPoints.Delete(ctx, nil, id)
	if ok {
		s.rates.InvalidateAll()
	}
	return ok, err
}

func (s *ReferenceService) yearIsFree(ctx context.Context, tx *gorm.DB, annee, exceptID int) error {
	var n int64
	if err := tx.WithContext(ctx).Model(&models.ValeurPoint{}).
		Where("annee = ? AND id <> ?", annee, exceptID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return store.Violation("valeur_point", "annee", fmt.Sprintf("year %d already has point values", annee))
	}
	return nil
}

type yearLookup struct {
	db *gorm.DB
}

func (y yearLookup) ValeurPointByYear(ctx context.Context, annee int) (*models.ValeurPoint, error) {
	var vp models.ValeurPoint
	err := y.db.WithContext(ctx).Where("annee = ?", annee).First(&vp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("valeur point %d: %w", annee, err)
	}
	return &vp, nil
}

// mustExist turns a dangling reference into a ConstraintError.
func mustExist[T any](ctx context.Context, tx *gorm.DB, repo *store.Repository[T], entity, field string, id int) error {
	ok, err := repo.Exists(ctx, tx, id)
	if err != nil {
		return err
	}
	if !ok {
		return store.Violation(entity, field, fmt.Sprintf("%d does not exist", id))
	}
	return nil
}

// notReferenced fails when rows of model still point to id through column.
func notReferenced(ctx context.Context, tx *gorm.DB, model any, column string, id int, entity, what string) error {
	var n int64
	if err := tx.WithContext(ctx).Model(model).Where(column+" = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return store.Violation(entity, "id", fmt.Sprintf("still referenced by %d %s", n, what))
	}
	return nil
}

// mustExistOpt checks an optional reference.
func mustExistOpt[T any](ctx context.Context, tx *gorm.DB, repo *store.Repository[T], entity, field string, id *int) error {
	if id == nil {
		return nil
	}
	return mustExist(ctx, tx, repo, entity, field, *id)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// notNull rejects an explicit NULL for a mandatory column.
func notNull[T any](field string, f models.Field[T], v validation.Violations) {
	if f.Set && f.Value == nil {
		v[field] = "required"
	}
}
