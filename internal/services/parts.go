package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/gersa/internal/logger"
	"github.com/diewo77/gersa/internal/metrics"
	"github.com/diewo77/gersa/internal/models"
	"github.com/diewo77/gersa/internal/store"
	"github.com/diewo77/gersa/validation"
	"gorm.io/gorm"
)

// PartFilter narrows share listings. Nil fields are ignored.
type PartFilter struct {
	IDPersonne  *int
	IDStructure *int
	Termine     *bool
	Distribue   *bool
	NumMin      *int
	NumMax      *int
	Num         *int
}

func (f PartFilter) predicates() []store.Predicate {
	return []store.Predicate{
		store.Eq("np.id_personne", f.IDPersonne),
		store.Eq("np.id_structure", f.IDStructure),
		store.Eq("np.termine", f.Termine),
		store.Eq("np.distribue", f.Distribue),
		store.Gte("np.num_part", f.NumMin),
		store.Lte("np.num_part", f.NumMax),
		store.Eq("np.num_part", f.Num),
	}
}

// PartService owns numbered shares: listings, live counts and transfers.
type PartService struct {
	db      *gorm.DB
	log     *logger.Logger
	metrics *metrics.Metrics

	repo       *store.Repository[models.NumeroPart]
	personnes  *store.Repository[models.Personne]
	mouvements *store.Repository[models.Mouvement]
	structures *store.Repository[models.Structure]
}

func NewPartService(db *gorm.DB, log *logger.Logger, m *metrics.Metrics) *PartService {
	log = log.With("service", "parts")
	return &PartService{
		db:         db,
		log:        log,
		metrics:    m,
		repo:       store.NewRepository[models.NumeroPart](db, log, "numero_part", "num_part"),
		personnes:  store.NewRepository[models.Personne](db, log, "personne", "nom, prenom"),
		mouvements: store.NewRepository[models.Mouvement](db, log, "mouvement", "id"),
		structures: store.NewRepository[models.Structure](db, log, "structure", "nom_structure"),
	}
}

func (s *PartService) Get(ctx context.Context, id int) (*models.NumeroPart, error) {
	return s.repo.Get(ctx, nil, id)
}

// ByNumber finds a share by its number, optionally within one structure.
func (s *PartService) ByNumber(ctx context.Context, num int, structureID *int) (*models.NumeroPart, error) {
	var p models.NumeroPart
	q := store.Apply(s.db.WithContext(ctx).Table("numeros_parts AS np"),
		store.Eq("np.num_part", &num), store.Eq("np.id_structure", structureID))
	err := q.Order("np.id").Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("numero part by number %d: %w", num, err)
	}
	return &p, nil
}

func (s *PartService) List(ctx context.Context, f PartFilter, page store.Page) ([]models.NumeroPart, int64, error) {
	return store.List[models.NumeroPart](s.db.WithContext(ctx).Table("numeros_parts AS np"), f.predicates(), "np.num_part, np.id", page)
}

// ListWithDetails adds owner, structure and movement labels to each share.
func (s *PartService) ListWithDetails(ctx context.Context, f PartFilter, page store.Page) ([]models.NumeroPartWithDetails, int64, error) {
	preds := f.predicates()
	var total int64
	if err := store.Apply(s.db.WithContext(ctx).Table("numeros_parts AS np"), preds...).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count numeros parts: %w", err)
	}
	out := []models.NumeroPartWithDetails{}
	q := store.Apply(s.db.WithContext(ctx).Table("numeros_parts AS np"), preds...).
		Select(`np.*, p.nom AS personne_nom, p.prenom AS personne_prenom,
			s.nom_structure AS structure_nom, m.sens AS mouvement_sens,
			m.date_operation AS mouvement_date, a.code_acte AS mouvement_code_acte`).
		Joins("LEFT JOIN personnes p ON p.id = np.id_personne").
		Joins("LEFT JOIN structures s ON s.id = np.id_structure").
		Joins("LEFT JOIN mouvements m ON m.id = np.id_mouvement").
		Joins("LEFT JOIN actes a ON a.id = m.id_acte").
		Order("np.num_part, np.id")
	if err := page.Scope(q).Scan(&out).Error; err != nil {
		return nil, 0, fmt.Errorf("list numeros parts: %w", err)
	}
	return out, total, nil
}

func (s *PartService) validate(ctx context.Context, tx *gorm.DB, p *models.NumeroPart) error {
	v := validation.Violations{}
	validation.PositiveInt("num_part", p.NumPart, v)
	if err := v.Err(); err != nil {
		return err
	}
	if err := mustExist(ctx, tx, s.personnes, "numero_part", "id_personne", p.IDPersonne); err != nil {
		return err
	}
	if err := mustExistOpt(ctx, tx, s.mouvements, "numero_part", "id_mouvement", p.IDMouvement); err != nil {
		return err
	}
	if err := mustExistOpt(ctx, tx, s.structures, "numero_part", "id_structure", p.IDStructure); err != nil {
		return err
	}
	return s.numberIsFree(ctx, tx, p)
}

// numberIsFree enforces one share per number within a structure.
func (s *PartService) numberIsFree(ctx context.Context, tx *gorm.DB, p *models.NumeroPart) error {
	if p.IDStructure == nil {
		return nil
	}
	var n int64
	if err := tx.WithContext(ctx).Model(&models.NumeroPart{}).
		Where("id_structure = ? AND num_part = ? AND id <> ?", *p.IDStructure, p.NumPart, p.ID).
		Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return store.Violation("numero_part", "num_part", fmt.Sprintf("share %d already exists in structure %d", p.NumPart, *p.IDStructure))
	}
	return nil
}

func (s *PartService) Create(ctx context.Context, p *models.NumeroPart) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.validate(ctx, tx, p); err != nil {
			return err
		}
		return s.repo.Create(ctx, tx, p)
	})
}

// Update merges patch; the result must still satisfy the create rules.
func (s *PartService) Update(ctx context.Context, id int, patch models.NumeroPartPatch) (*models.NumeroPart, error) {
	v := validation.Violations{}
	notNull("num_part", patch.NumPart, v)
	notNull("id_personne", patch.IDPersonne, v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	var out *models.NumeroPart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.repo.Update(ctx, tx, id, patch)
		if err != nil || p == nil {
			return err
		}
		if err := s.validate(ctx, tx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

func (s *PartService) Delete(ctx context.Context, id int) (bool, error) {
	return s.repo.Delete(ctx, nil, id)
}

type kindCount struct {
	IDPersonne    int
	TypeStructure int
	N             int64
}

func liveParts(db *gorm.DB) *gorm.DB {
	return db.Table("numeros_parts AS np").
		Joins("JOIN structures s ON s.id = np.id_structure").
		Where("np.termine = ?", false)
}

// Counts returns the live GFA and SCTL share counts of one owner.
func (s *PartService) Counts(ctx context.Context, personneID int) (models.PartCounts, error) {
	var row struct {
		GFA  int64
		SCTL int64
	}
	err := liveParts(s.db.WithContext(ctx)).
		Select(`COALESCE(SUM(CASE WHEN s.type_structure = ? THEN 1 ELSE 0 END), 0) AS gfa,
			COALESCE(SUM(CASE WHEN s.type_structure = ? THEN 1 ELSE 0 END), 0) AS sctl`,
			int(models.KindGFA), int(models.KindTSL)).
		Where("np.id_personne = ?", personneID).
		Scan(&row).Error
	if err != nil {
		return models.PartCounts{}, fmt.Errorf("part counts for %d: %w", personneID, err)
	}
	return models.NewPartCounts(row.GFA, row.SCTL), nil
}

// CountsBatch computes Counts for many owners in one grouped query.
// Every requested id is present in the result, zero when it holds nothing.
func (s *PartService) CountsBatch(ctx context.Context, personneIDs []int) (map[int]models.PartCounts, error) {
	out := make(map[int]models.PartCounts, len(personneIDs))
	if len(personneIDs) == 0 {
		return out, nil
	}
	var rows []kindCount
	err := liveParts(s.db.WithContext(ctx)).
		Select("np.id_personne AS id_personne, s.type_structure AS type_structure, COUNT(*) AS n").
		Where("np.id_personne IN ?", personneIDs).
		Where("s.type_structure IN ?", []int{int(models.KindGFA), int(models.KindTSL)}).
		Group("np.id_personne, s.type_structure").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("batch part counts: %w", err)
	}
	gfa := map[int]int64{}
	sctl := map[int]int64{}
	for _, r := range rows {
		switch models.StructureKind(r.TypeStructure) {
		case models.KindGFA:
			gfa[r.IDPersonne] = r.N
		case models.KindTSL:
			sctl[r.IDPersonne] = r.N
		}
	}
	for _, id := range personneIDs {
		out[id] = models.NewPartCounts(gfa[id], sctl[id])
	}
	return out, nil
}

// Totaux counts live shares over all owners, plus distinct owners of live shares.
func (s *PartService) Totaux(ctx context.Context) (models.PartsTotaux, error) {
	defer s.metrics.ObserveSince("parts_totaux", time.Now())
	var rows []kindCount
	err := liveParts(s.db.WithContext(ctx)).
		Select("s.type_structure AS type_structure, COUNT(*) AS n").
		Where("s.type_structure IN ?", []int{int(models.KindGFA), int(models.KindTSL)}).
		Group("s.type_structure").
		Scan(&rows).Error
	if err != nil {
		return models.PartsTotaux{}, fmt.Errorf("parts totaux: %w", err)
	}
	var t models.PartsTotaux
	for _, r := range rows {
		switch models.StructureKind(r.TypeStructure) {
		case models.KindGFA:
			t.GFA = r.N
		case models.KindTSL:
			t.SCTL = r.N
		}
	}
	t.Total = t.GFA + t.SCTL
	err = s.db.WithContext(ctx).Model(&models.NumeroPart{}).
		Where("termine = ?", false).
		Distinct("id_personne").
		Count(&t.Actionnaires).Error
	if err != nil {
		return models.PartsTotaux{}, fmt.Errorf("count actionnaires: %w", err)
	}
	return t, nil
}

// Transfer reassigns the given shares to newOwner under mouvementID in one
// transaction. Unknown share ids are skipped; the found shares are returned in
// request order. A share modified concurrently aborts the whole transfer.
func (s *PartService) Transfer(ctx context.Context, partIDs []int, newOwner, mouvementID int) ([]models.NumeroPart, error) {
	out := []models.NumeroPart{}
	if len(partIDs) == 0 {
		return out, nil
	}
	skipped := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(ctx, tx, s.personnes, "transfer", "id_personne", newOwner); err != nil {
			return err
		}
		if err := mustExist(ctx, tx, s.mouvements, "transfer", "id_mouvement", mouvementID); err != nil {
			return err
		}
		var found []models.NumeroPart
		if err := tx.Where("id IN ?", partIDs).Find(&found).Error; err != nil {
			return err
		}
		byID := make(map[int]models.NumeroPart, len(found))
		for _, p := range found {
			byID[p.ID] = p
		}
		seen := map[int]bool{}
		for _, id := range partIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			p, ok := byID[id]
			if !ok {
				skipped++
				continue
			}
			res := tx.Model(&models.NumeroPart{}).
				Where("id = ? AND version = ?", p.ID, p.Version).
				Updates(map[string]any{
					"id_personne":  newOwner,
					"id_mouvement": mouvementID,
					"version":      gorm.Expr("version + 1"),
				})
			if res.Error != nil {
				return store.Translate("numero_part", res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("numero part %d: %w", p.ID, store.ErrConcurrentUpdate)
			}
			mid := mouvementID
			p.IDPersonne = newOwner
			p.IDMouvement = &mid
			p.Version++
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrConcurrentUpdate) {
			s.metrics.ConcurrentConflicts.Inc()
		}
		return nil, err
	}
	s.metrics.PartsTransferred.Add(float64(len(out)))
	s.metrics.PartsSkipped.Add(float64(skipped))
	s.log.Info("parts transferred", "to", newOwner, "mouvement", mouvementID, "count", len(out), "skipped", skipped)
	return out, nil
}
