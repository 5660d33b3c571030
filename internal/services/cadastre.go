package services

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/gersa/internal/fermage"
	"github.com/diewo77/gersa/internal/logger"
	"github.com/diewo77/gersa/internal/metrics"
	"github.com/diewo77/gersa/internal/models"
	"github.com/diewo77/gersa/internal/store"
	"github.com/diewo77/gersa/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ParcelleFilter narrows parcel listings. IDExploitant and IDTypeFermage match
// parcels having at least one such subdivision.
type ParcelleFilter struct {
	IDCommune      *int
	IDLieuDit      *int
	IDTypeCadastre *int
	IDGFA          *int
	SCTL           *bool
	IDExploitant   *int
	IDTypeFermage  *int
}

func (f ParcelleFilter) bySubdivision() bool {
	return f.IDExploitant != nil || f.IDTypeFermage != nil
}

type SubdivisionFilter struct {
	IDParcelle    *int
	IDExploitant  *int
	IDTypeFermage *int
}

// FermageFilter scopes rent totals. Annee selects the point values; without a
// matching row the totals are flagged SansValeurPoint.
type FermageFilter struct {
	IDExploitant *int
	IDCommune    *int
	SCTL         *bool
	Annee        *int
	Supplement   bool
}

// CalculRequest is a single rent preview.
type CalculRequest struct {
	Points     decimal.Decimal
	Surface    decimal.Decimal
	SCTL       bool
	Annee      int
	Supplement bool
}

type CadastreService struct {
	db      *gorm.DB
	log     *logger.Logger
	metrics *metrics.Metrics
	rates   RatesResolver

	parcelles       *store.Repository[models.Parcelle]
	subdivisions    *store.Repository[models.Subdivision]
	communes        *store.Repository[models.Commune]
	lieuxDits       *store.Repository[models.LieuDit]
	exploitants     *store.Repository[models.Exploitant]
	typesFermage    *store.Repository[models.TypeFermage]
	typesCadastre   *store.Repository[models.TypeCadastre]
	classesCadastre *store.Repository[models.ClasseCadastre]
	structures      *store.Repository[models.Structure]
}

func NewCadastreService(db *gorm.DB, log *logger.Logger, m *metrics.Metrics, rates RatesResolver) *CadastreService {
	log = log.With("service", "cadastre")
	return &CadastreService{
		db:              db,
		log:             log,
		metrics:         m,
		rates:           rates,
		parcelles:       store.NewRepository[models.Parcelle](db, log, "parcelle", "parcelle, id"),
		subdivisions:    store.NewRepository[models.Subdivision](db, log, "subdivision", "division, subdivision, id"),
		communes:        store.NewRepository[models.Commune](db, log, "commune", "nom_com"),
		lieuxDits:       store.NewRepository[models.LieuDit](db, log, "lieu_dit", "nom"),
		exploitants:     store.NewRepository[models.Exploitant](db, log, "exploitant", "nom"),
		typesFermage:    store.NewRepository[models.TypeFermage](db, log, "type_fermage", "libelle"),
		typesCadastre:   store.NewRepository[models.TypeCadastre](db, log, "type_cadastre", "libelle"),
		classesCadastre: store.NewRepository[models.ClasseCadastre](db, log, "classe_cadastre", "libelle"),
		structures:      store.NewRepository[models.Structure](db, log, "structure", "nom_structure"),
	}
}

// Parcelles

func (s *CadastreService) GetParcelle(ctx context.Context, id int) (*models.Parcelle, error) {
	return s.parcelles.Get(ctx, nil, id)
}

// parcellePredicates resolves subdivision-level filters to a parcel id set first.
func (s *CadastreService) parcellePredicates(ctx context.Context, f ParcelleFilter) ([]store.Predicate, error) {
	preds := []store.Predicate{
		store.Eq("p.id_commune", f.IDCommune),
		store.Eq("p.id_lieu_dit", f.IDLieuDit),
		store.Eq("p.id_type_cadastre", f.IDTypeCadastre),
		store.Eq("p.id_gfa", f.IDGFA),
		store.Eq("p.sctl", f.SCTL),
	}
	if !f.bySubdivision() {
		return preds, nil
	}
	ids := []int{}
	err := store.Apply(s.db.WithContext(ctx).Model(&models.Subdivision{}),
		store.Eq("id_exploitant", f.IDExploitant),
		store.Eq("id_type_fermage", f.IDTypeFermage),
	).Distinct().Pluck("id_parcelle", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("parcel ids by subdivision: %w", err)
	}
	return append(preds, store.In("p.id", ids)), nil
}

// ListParcelles orders by cadastral reference.
func (s *CadastreService) ListParcelles(ctx context.Context, f ParcelleFilter, page store.Page) ([]models.Parcelle, int64, error) {
	preds, err := s.parcellePredicates(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return store.List[models.Parcelle](s.db.WithContext(ctx).Table("parcelles AS p"), preds, "p.parcelle, p.id", page)
}

type subdivisionRow struct {
	ID               int
	IDParcelle       int
	Division         int
	Subdivision      int
	Surface          decimal.Decimal
	IDExploitant     *int
	ExploitantNom    *string
	ExploitantPrenom *string
}

func (r subdivisionRow) exploitantName() *string {
	if r.ExploitantNom == nil {
		return nil
	}
	name := models.FullName(*r.ExploitantNom, r.ExploitantPrenom)
	return &name
}

// ListWithSubdivisions returns parcels with commune and locality names, their
// subdivisions ordered by (division, subdivision) and surface totals.
func (s *CadastreService) ListWithSubdivisions(ctx context.Context, f ParcelleFilter, page store.Page) ([]models.ParcelleWithSubdivisions, int64, error) {
	preds, err := s.parcellePredicates(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := store.Apply(s.db.WithContext(ctx).Table("parcelles AS p"), preds...).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count parcelles: %w", err)
	}
	out := []models.ParcelleWithSubdivisions{}
	q := store.Apply(s.db.WithContext(ctx).Table("parcelles AS p"), preds...).
		Select("p.*, c.nom_com AS nom_commune, l.nom AS nom_lieu_dit").
		Joins("LEFT JOIN communes c ON c.id = p.id_commune").
		Joins("LEFT JOIN lieux_dits l ON l.id = p.id_lieu_dit").
		Order("p.parcelle, p.id")
	if err := page.Scope(q).Scan(&out).Error; err != nil {
		return nil, 0, fmt.Errorf("list parcelles: %w", err)
	}
	if len(out) == 0 {
		return out, total, nil
	}

	ids := make([]int, len(out))
	for i := range out {
		ids[i] = out[i].ID
	}
	var rows []subdivisionRow
	err = s.db.WithContext(ctx).Table("subdivisions AS s").
		Select(`s.id, s.id_parcelle, s.division, s.subdivision, s.surface, s.id_exploitant,
			e.nom AS exploitant_nom, e.prenom AS exploitant_prenom`).
		Joins("LEFT JOIN exploitants e ON e.id = s.id_exploitant").
		Where("s.id_parcelle IN ?", ids).
		Order("s.id_parcelle, s.division, s.subdivision, s.id").
		Scan(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list subdivisions: %w", err)
	}
	byParcelle := map[int][]subdivisionRow{}
	for _, r := range rows {
		byParcelle[r.IDParcelle] = append(byParcelle[r.IDParcelle], r)
	}
	for i := range out {
		p := &out[i]
		subs := byParcelle[p.ID]
		p.Subdivisions = make([]models.SubdivisionSummary, 0, len(subs))
		p.TotalSurface = decimal.Zero
		for _, r := range subs {
			p.TotalSurface = p.TotalSurface.Add(r.Surface)
			p.Subdivisions = append(p.Subdivisions, models.SubdivisionSummary{
				ID:            r.ID,
				Division:      r.Division,
				Subdivision:   r.Subdivision,
				Surface:       r.Surface,
				NomExploitant: r.exploitantName(),
				IDExploitant:  r.IDExploitant,
			})
		}
		p.NbSubdivisions = len(subs)
		if len(subs) > 0 {
			first := subs[0]
			div := first.Division
			p.FirstDivision = &div
			p.FirstExploitant = first.exploitantName()
			p.FirstExploitantID = first.IDExploitant
		}
	}
	return out, total, nil
}

func (s *CadastreService) validateParcelle(ctx context.Context, tx *gorm.DB, p *models.Parcelle) error {
	v := validation.Violations{}
	validation.Required("parcelle", p.Ref, v)
	validation.MaxLen("parcelle", p.Ref, 50, v)
	if err := v.Err(); err != nil {
		return err
	}
	if err := mustExist(ctx, tx, s.communes, "parcelle", "id_commune", p.IDCommune); err != nil {
		return err
	}
	if err := mustExistOpt(ctx, tx, s.lieuxDits, "parcelle", "id_lieu_dit", p.IDLieuDit); err != nil {
		return err
	}
	if err := mustExistOpt(ctx, tx, s.typesCadastre, "parcelle", "id_type_cadastre", p.IDTypeCadastre); err != nil {
		return err
	}
	if err := mustExistOpt(ctx, tx, s.classesCadastre, "parcelle", "id_classe_cadastre", p.IDClasseCadastre); err != nil {
		return err
	}
	return mustExistOpt(ctx, tx, s.structures, "parcelle", "id_gfa", p.IDGFA)
}

func (s *CadastreService) CreateParcelle(ctx context.Context, p *models.Parcelle) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.validateParcelle(ctx, tx, p); err != nil {
			return err
		}
		return s.parcelles.Create(ctx, tx, p)
	})
}

func (s *CadastreService) UpdateParcelle(ctx context.Context, id int, patch models.ParcellePatch) (*models.Parcelle, error) {
	v := validation.Violations{}
	notNull("parcelle", patch.Ref, v)
	notNull("sctl", patch.SCTL, v)
	notNull("id_commune", patch.IDCommune, v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	var out *models.Parcelle
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.parcelles.Update(ctx, tx, id, patch)
		if err != nil || p == nil {
			return err
		}
		if err := s.validateParcelle(ctx, tx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

// DeleteParcelle removes the parcel and its subdivisions in one transaction.
func (s *CadastreService) DeleteParcelle(ctx context.Context, id int) (bool, error) {
	var deleted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id_parcelle = ?", id).Delete(&models.Subdivision{})
		if res.Error != nil {
			return res.Error
		}
		ok, err := s.parcelles.Delete(ctx, tx, id)
		if err != nil {
			return err
		}
		deleted = ok
		if ok {
			s.log.Info("parcelle deleted", "id", id, "subdivisions", res.RowsAffected)
		}
		return nil
	})
	return deleted, err
}

// Subdivisions

func (s *CadastreService) GetSubdivision(ctx context.Context, id int) (*models.Subdivision, error) {
	return s.subdivisions.Get(ctx, nil, id)
}

func (s *CadastreService) ListSubdivisions(ctx context.Context, f SubdivisionFilter, page store.Page) ([]models.Subdivision, int64, error) {
	return s.subdivisions.List(ctx, page,
		store.Eq("id_parcelle", f.IDParcelle),
		store.Eq("id_exploitant", f.IDExploitant),
		store.Eq("id_type_fermage", f.IDTypeFermage),
	)
}

// SubdivisionsByParcelle lists every subdivision of a parcel by (division, subdivision).
func (s *CadastreService) SubdivisionsByParcelle(ctx context.Context, parcelleID int) ([]models.Subdivision, error) {
	items, _, err := s.ListSubdivisions(ctx, SubdivisionFilter{IDParcelle: &parcelleID}, store.Page{})
	return items, err
}

func (s *CadastreService) validateSubdivision(ctx context.Context, tx *gorm.DB, sd *models.Subdivision) error {
	v := validation.Violations{}
	validation.NonNegativeInt("division", sd.Division, v)
	validation.NonNegativeInt("subdivision", sd.Subdivision, v)
	validation.NonNegativeDecimal("surface", sd.Surface, v)
	validation.NonNegativeDecimal("revenu", sd.Revenu, v)
	validation.NonNegativeInt("duree_fermage", sd.DureeFermage, v)
	if sd.PointFermage.Valid {
		validation.NonNegativeDecimal("point_fermage", sd.PointFermage.Decimal, v)
	}
	validation.MaxLenPtr("gfa", sd.GFA, 10, v)
	if err := v.Err(); err != nil {
		return err
	}
	checks := []error{
		mustExist(ctx, tx, s.parcelles, "subdivision", "id_parcelle", sd.IDParcelle),
		mustExistOpt(ctx, tx, s.exploitants, "subdivision", "id_exploitant", sd.IDExploitant),
		mustExistOpt(ctx, tx, s.typesFermage, "subdivision", "id_type_fermage", sd.IDTypeFermage),
		mustExistOpt(ctx, tx, s.typesCadastre, "subdivision", "id_type_cadastre", sd.IDTypeCadastre),
		mustExistOpt(ctx, tx, s.classesCadastre, "subdivision", "id_classe_cadastre", sd.IDClasseCadastre),
		mustExistOpt(ctx, tx, s.communes, "subdivision", "id_commune", sd.IDCommune),
		mustExistOpt(ctx, tx, s.lieuxDits, "subdivision", "id_lieu_dit", sd.IDLieuDit),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *CadastreService) CreateSubdivision(ctx context.Context, sd *models.Subdivision) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.validateSubdivision(ctx, tx, sd); err != nil {
			return err
		}
		return s.subdivisions.Create(ctx, tx, sd)
	})
}

func (s *CadastreService) UpdateSubdivision(ctx context.Context, id int, patch models.SubdivisionPatch) (*models.Subdivision, error) {
	v := validation.Violations{}
	notNull("division", patch.Division, v)
	notNull("subdivision", patch.Subdivision, v)
	notNull("surface", patch.Surface, v)
	notNull("revenu", patch.Revenu, v)
	notNull("duree_fermage", patch.DureeFermage, v)
	notNull("id_parcelle", patch.IDParcelle, v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	var out *models.Subdivision
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sd, err := s.subdivisions.Update(ctx, tx, id, patch)
		if err != nil || sd == nil {
			return err
		}
		if err := s.validateSubdivision(ctx, tx, sd); err != nil {
			return err
		}
		out = sd
		return nil
	})
	return out, err
}

func (s *CadastreService) DeleteSubdivision(ctx context.Context, id int) (bool, error) {
	return s.subdivisions.Delete(ctx, nil, id)
}

// Fermage

func (s *CadastreService) resolveRates(ctx context.Context, annee *int) (*models.ValeurPoint, error) {
	if annee == nil {
		return nil, nil
	}
	return s.rates.ValeurPointByYear(ctx, *annee)
}

func (s *CadastreService) record(res fermage.Result) {
	outcome := "computed"
	if res.SansValeurPoint {
		outcome = "no_rates"
	}
	s.metrics.FermageComputations.WithLabelValues(outcome).Inc()
}

// Calculate previews the rent of one unit for a year.
func (s *CadastreService) Calculate(ctx context.Context, req CalculRequest) (fermage.Result, error) {
	vp, err := s.rates.ValeurPointByYear(ctx, req.Annee)
	if err != nil {
		return fermage.Result{}, err
	}
	res := fermage.Compute(fermage.Input{
		Points:     req.Points,
		Surface:    req.Surface,
		SCTL:       req.SCTL,
		Supplement: req.Supplement,
	}, vp)
	s.record(res)
	return res, nil
}

type rentRow struct {
	ParcelleID   int
	SCTL         bool
	Surface      decimal.Decimal
	Revenu       decimal.Decimal
	PointFermage decimal.NullDecimal
	TypePoints   decimal.NullDecimal
}

func (r rentRow) input(supplement bool) fermage.Input {
	var tf *models.TypeFermage
	if r.TypePoints.Valid {
		tf = &models.TypeFermage{Points: r.TypePoints.Decimal}
	}
	return fermage.Input{
		Points:     fermage.EffectivePoints(r.PointFermage, tf),
		Surface:    r.Surface,
		SCTL:       r.SCTL,
		Supplement: supplement,
	}
}

const rentColumns = `p.id AS parcelle_id, p.sctl AS sctl, s.surface AS surface, s.revenu AS revenu,
	s.point_fermage AS point_fermage, tf.points AS type_points`

func rentRows(db *gorm.DB, columns string) *gorm.DB {
	return db.Table("subdivisions AS s").
		Select(columns).
		Joins("JOIN parcelles p ON p.id = s.id_parcelle").
		Joins("LEFT JOIN types_fermage tf ON tf.id = s.id_type_fermage")
}

type firstSubdivisionRow struct {
	ParcelleID       int
	SCTL             bool
	Surface          decimal.Decimal
	Revenu           decimal.Decimal
	PointFermage     decimal.NullDecimal
	TypePoints       decimal.NullDecimal
	ExploitantNom    *string
	ExploitantPrenom *string
}

func (r firstSubdivisionRow) rent() rentRow {
	return rentRow{
		ParcelleID:   r.ParcelleID,
		SCTL:         r.SCTL,
		Surface:      r.Surface,
		Revenu:       r.Revenu,
		PointFermage: r.PointFermage,
		TypePoints:   r.TypePoints,
	}
}

// Details returns a parcel with the rent of its first subdivision. Without a
// point value row for annee the rent is zero and SansValeurPoint is set.
func (s *CadastreService) Details(ctx context.Context, parcelleID int, annee *int, supplement bool) (*models.ParcelleWithDetails, error) {
	var rows []models.ParcelleWithDetails
	err := s.db.WithContext(ctx).Table("parcelles AS p").
		Select("p.*, c.nom_com AS nom_commune, l.nom AS nom_lieu_dit").
		Joins("LEFT JOIN communes c ON c.id = p.id_commune").
		Joins("LEFT JOIN lieux_dits l ON l.id = p.id_lieu_dit").
		Where("p.id = ?", parcelleID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("parcelle details %d: %w", parcelleID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	out := rows[0]
	out.MontantFermage = decimal.Zero

	var first []firstSubdivisionRow
	err = rentRows(s.db.WithContext(ctx), rentColumns+", e.nom AS exploitant_nom, e.prenom AS exploitant_prenom").
		Joins("LEFT JOIN exploitants e ON e.id = s.id_exploitant").
		Where("s.id_parcelle = ?", parcelleID).
		Order("s.division, s.subdivision, s.id").
		Limit(1).
		Scan(&first).Error
	if err != nil {
		return nil, fmt.Errorf("parcelle details %d: %w", parcelleID, err)
	}
	vp, err := s.resolveRates(ctx, annee)
	if err != nil {
		return nil, err
	}
	out.SansValeurPoint = vp == nil
	if len(first) == 0 {
		return &out, nil
	}
	if first[0].ExploitantNom != nil {
		name := models.FullName(*first[0].ExploitantNom, first[0].ExploitantPrenom)
		out.NomExploitant = &name
	}
	res := fermage.Compute(first[0].rent().input(supplement), vp)
	s.record(res)
	out.MontantFermage = res.Montant
	return &out, nil
}

// Totaux sums surface, cadastral income and rent over the matching
// subdivisions. Each row is priced with its own parcel's owner kind.
func (s *CadastreService) Totaux(ctx context.Context, f FermageFilter) (models.FermageTotaux, error) {
	defer s.metrics.ObserveSince("fermage_totaux", time.Now())
	var rows []rentRow
	err := store.Apply(rentRows(s.db.WithContext(ctx), rentColumns),
		store.Eq("s.id_exploitant", f.IDExploitant),
		store.Eq("p.id_commune", f.IDCommune),
		store.Eq("p.sctl", f.SCTL),
	).Scan(&rows).Error
	if err != nil {
		return models.FermageTotaux{}, fmt.Errorf("fermage totaux: %w", err)
	}
	vp, err := s.resolveRates(ctx, f.Annee)
	if err != nil {
		return models.FermageTotaux{}, err
	}
	t := models.FermageTotaux{
		TotalSurface:    decimal.Zero,
		TotalRevenu:     decimal.Zero,
		TotalMontant:    decimal.Zero,
		SansValeurPoint: vp == nil,
	}
	parcels := map[int]struct{}{}
	for _, r := range rows {
		t.TotalSurface = t.TotalSurface.Add(r.Surface)
		t.TotalRevenu = t.TotalRevenu.Add(r.Revenu)
		parcels[r.ParcelleID] = struct{}{}
		if vp != nil {
			res := fermage.Compute(r.input(f.Supplement), vp)
			t.TotalMontant = t.TotalMontant.Add(res.Montant)
		}
	}
	t.NbParcelles = len(parcels)
	outcome := "computed"
	if vp == nil {
		outcome = "no_rates"
	}
	s.metrics.FermageComputations.WithLabelValues(outcome).Add(float64(len(rows)))
	return t, nil
}
