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

// PersonneFilter narrows shareholder listings. Zero fields are ignored.
type PersonneFilter struct {
	Nom         string
	Ville       string
	CodePostal  *string
	IDStructure *int
	Flags       map[models.PersonneFlag]bool
}

func (f PersonneFilter) predicates() ([]store.Predicate, error) {
	preds := []store.Predicate{
		store.Contains("nom", f.Nom),
		store.Contains("ville", f.Ville),
		store.Eq("code_postal", f.CodePostal),
		store.Eq("id_structure", f.IDStructure),
	}
	v := validation.Violations{}
	for flag, want := range f.Flags {
		if !flag.Valid() {
			v[string(flag)] = "out_of_range"
			continue
		}
		preds = append(preds, store.Where(string(flag)+" = ?", want))
	}
	return preds, v.Err()
}

type PersonneService struct {
	db    *gorm.DB
	log   *logger.Logger
	repo  *store.Repository[models.Personne]
	parts *PartService

	structures *store.Repository[models.Structure]
}

func NewPersonneService(db *gorm.DB, log *logger.Logger, parts *PartService) *PersonneService {
	log = log.With("service", "personnes")
	return &PersonneService{
		db:         db,
		log:        log,
		repo:       store.NewRepository[models.Personne](db, log, "personne", "nom, prenom, id"),
		parts:      parts,
		structures: store.NewRepository[models.Structure](db, log, "structure", "nom_structure"),
	}
}

func (s *PersonneService) Get(ctx context.Context, id int) (*models.Personne, error) {
	return s.repo.Get(ctx, nil, id)
}

// GetWithParts returns the shareholder with live share counts, nil when absent.
func (s *PersonneService) GetWithParts(ctx context.Context, id int) (*models.PersonneWithParts, error) {
	p, err := s.repo.Get(ctx, nil, id)
	if err != nil || p == nil {
		return nil, err
	}
	counts, err := s.parts.Counts(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.PersonneWithParts{Personne: *p, PartCounts: counts}, nil
}

// List orders by name then first name.
func (s *PersonneService) List(ctx context.Context, f PersonneFilter, page store.Page) ([]models.Personne, int64, error) {
	preds, err := f.predicates()
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, page, preds...)
}

// ListWithParts is List plus live share counts, fetched in one grouped query.
func (s *PersonneService) ListWithParts(ctx context.Context, f PersonneFilter, page store.Page) ([]models.PersonneWithParts, int64, error) {
	items, total, err := s.List(ctx, f, page)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]int, len(items))
	for i, p := range items {
		ids[i] = p.ID
	}
	counts, err := s.parts.CountsBatch(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	out := make([]models.PersonneWithParts, len(items))
	for i, p := range items {
		out[i] = models.PersonneWithParts{Personne: p, PartCounts: counts[p.ID]}
	}
	return out, total, nil
}

// Membres lists the members attached to a legal entity.
func (s *PersonneService) Membres(ctx context.Context, personneMoraleID int, page store.Page) ([]models.Personne, int64, error) {
	return s.repo.List(ctx, page, store.Eq("id_personne_morale", &personneMoraleID))
}

func validatePersonne(p *models.Personne) error {
	v := validation.Violations{}
	validation.Required("nom", p.Nom, v)
	validation.MaxLen("nom", p.Nom, 100, v)
	validation.MaxLenPtr("prenom", p.Prenom, 100, v)
	validation.MaxLenPtr("civilite", p.Civilite, 20, v)
	validation.MaxLenPtr("code_postal", p.CodePostal, 15, v)
	validation.MaxLenPtr("ville", p.Ville, 100, v)
	validation.MaxLenPtr("mail", p.Mail, 255, v)
	return v.Err()
}

// checkLinks enforces the structure reference and the legal-entity rules:
// the parent exists, is flagged as a legal entity, is not p itself and has no
// parent of its own; p cannot gain a parent while it has members, and cannot
// drop its legal-entity flag while members point at it.
func (s *PersonneService) checkLinks(ctx context.Context, tx *gorm.DB, p *models.Personne) error {
	if err := mustExistOpt(ctx, tx, s.structures, "personne", "id_structure", p.IDStructure); err != nil {
		return err
	}
	members := int64(0)
	if p.ID != 0 {
		if err := tx.WithContext(ctx).Model(&models.Personne{}).
			Where("id_personne_morale = ?", p.ID).Count(&members).Error; err != nil {
			return err
		}
	}
	if members > 0 && !p.EstPersonneMorale {
		return store.Violation("personne", "est_personne_morale", "legal entity still has members")
	}
	if p.IDPersonneMorale == nil {
		return nil
	}
	target := *p.IDPersonneMorale
	if p.ID != 0 && target == p.ID {
		return store.Violation("personne", "id_personne_morale", "cannot reference itself")
	}
	parent, err := s.repo.Get(ctx, tx, target)
	if err != nil {
		return err
	}
	switch {
	case parent == nil:
		return store.Violation("personne", "id_personne_morale", fmt.Sprintf("%d does not exist", target))
	case !parent.EstPersonneMorale:
		return store.Violation("personne", "id_personne_morale", "target is not a legal entity")
	case parent.IDPersonneMorale != nil:
		return store.Violation("personne", "id_personne_morale", "target is itself a member of a legal entity")
	case members > 0:
		return store.Violation("personne", "id_personne_morale", "a legal entity with members cannot join another")
	}
	return nil
}

func (s *PersonneService) Create(ctx context.Context, p *models.Personne) error {
	if err := validatePersonne(p); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkLinks(ctx, tx, p); err != nil {
			return err
		}
		return s.repo.Create(ctx, tx, p)
	})
}

// Update merges patch and re-checks the merged row; nothing is written on failure.
func (s *PersonneService) Update(ctx context.Context, id int, patch models.PersonnePatch) (*models.Personne, error) {
	var out *models.Personne
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.repo.Update(ctx, tx, id, patch)
		if err != nil || p == nil {
			return err
		}
		if err := validatePersonne(p); err != nil {
			return err
		}
		if err := s.checkLinks(ctx, tx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

// Delete refuses to remove a shareholder still referenced by shares or
// movements; members of a deleted legal entity are detached.
func (s *PersonneService) Delete(ctx context.Context, id int) (bool, error) {
	var deleted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ref := range []struct {
			model any
			what  string
		}{
			{&models.NumeroPart{}, "shares"},
			{&models.Mouvement{}, "movements"},
		} {
			var n int64
			if err := tx.Model(ref.model).Where("id_personne = ?", id).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return store.Violation("personne", "id", fmt.Sprintf("still referenced by %d %s", n, ref.what))
			}
		}
		if err := tx.Model(&models.Personne{}).Where("id_personne_morale = ?", id).
			Update("id_personne_morale", nil).Error; err != nil {
			return err
		}
		ok, err := s.repo.Delete(ctx, tx, id)
		deleted = ok
		return err
	})
	return deleted, err
}
