package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/gersa/internal/models"
	"github.com/diewo77/gersa/internal/services"
	"github.com/diewo77/gersa/internal/store"
	"github.com/diewo77/gersa/validation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cadastre struct {
	*fixture
	commune    *models.Commune
	lieuDit    *models.LieuDit
	exploitant *models.Exploitant
	prairie    *models.TypeFermage
	gfa        *models.Parcelle // two subdivisions, one leased to exploitant
	sctl       *models.Parcelle // one subdivision priced by its lease type
}

func setupCadastre(t *testing.T) *cadastre {
	f := setup(t)
	c := &cadastre{fixture: f}
	c.commune = &models.Commune{NumCom: "12145", NomCom: "La Cavalerie"}
	f.insert(c.commune)
	c.lieuDit = &models.LieuDit{Nom: "Montredon", IDCommune: c.commune.ID}
	f.insert(c.lieuDit)
	c.exploitant = &models.Exploitant{Nom: "Martin", Prenom: ptr("Paul")}
	f.insert(c.exploitant)
	c.prairie = &models.TypeFermage{Libelle: "Prairie", Points: dec("5")}
	f.insert(c.prairie)

	c.gfa = &models.Parcelle{Ref: "ZA-12", IDCommune: c.commune.ID, IDLieuDit: &c.lieuDit.ID}
	c.sctl = &models.Parcelle{Ref: "AB-01", SCTL: true, IDCommune: c.commune.ID}
	f.insert(c.gfa, c.sctl)
	f.insert(
		&models.Subdivision{IDParcelle: c.gfa.ID, Division: 2, Surface: dec("5000"), Revenu: dec("3")},
		&models.Subdivision{
			IDParcelle: c.gfa.ID, Division: 1, Surface: dec("10000"), Revenu: dec("7"),
			PointFermage: decimal.NewNullDecimal(dec("10")), IDExploitant: &c.exploitant.ID,
		},
		&models.Subdivision{IDParcelle: c.sctl.ID, Division: 1, Surface: dec("20000"), IDTypeFermage: &c.prairie.ID},
	)
	return c
}

func TestParcelleDetails(t *testing.T) {
	ctx := context.Background()
	c := setupCadastre(t)
	require.NoError(t, c.svc.References.CreateValeurPoint(ctx, valeurPoint(2024)))

	d, err := c.svc.Cadastre.Details(ctx, c.gfa.ID, ptr(2024), false)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "ZA-12", d.Ref)
	require.NotNil(t, d.NomCommune)
	assert.Equal(t, "La Cavalerie", *d.NomCommune)
	require.NotNil(t, d.NomExploitant)
	assert.Equal(t, "Martin Paul", *d.NomExploitant)
	assert.False(t, d.SansValeurPoint)
	// 10 points × 10000 m² / 10000 × 1.69
	assert.True(t, dec("16.9").Equal(d.MontantFermage), "got %s", d.MontantFermage)

	withSupp, err := c.svc.Cadastre.Details(ctx, c.gfa.ID, ptr(2024), true)
	require.NoError(t, err)
	assert.True(t, dec("18.59").Equal(withSupp.MontantFermage), "got %s", withSupp.MontantFermage)

	missing, err := c.svc.Cadastre.Details(ctx, 999, ptr(2024), false)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestParcelleDetailsWithoutPointValue(t *testing.T) {
	ctx := context.Background()
	c := setupCadastre(t)

	for _, annee := range []*int{ptr(1999), nil} {
		d, err := c.svc.Cadastre.Details(ctx, c.gfa.ID, annee, false)
		require.NoError(t, err)
		assert.True(t, d.SansValeurPoint)
		assert.True(t, d.MontantFermage.IsZero())
	}
}

func TestFermageTotaux(t *testing.T) {
	ctx := context.Background()
	c := setupCadastre(t)
	require.NoError(t, c.svc.References.CreateValeurPoint(ctx, valeurPoint(2024)))

	all, err := c.svc.Cadastre.Totaux(ctx, services.FermageFilter{Annee: ptr(2024)})
	require.NoError(t, err)
	assert.Equal(t, 2, all.NbParcelles)
	assert.True(t, dec("35000").Equal(all.TotalSurface))
	assert.True(t, dec("10").Equal(all.TotalRevenu))
	// gfa: 10 × 1 × 1.69 = 16.9, unleased half has no points; sctl: 5 × 2 × 2.10 = 21
	assert.True(t, dec("37.9").Equal(all.TotalMontant), "got %s", all.TotalMontant)
	assert.False(t, all.SansValeurPoint)

	sctl, err := c.svc.Cadastre.Totaux(ctx, services.FermageFilter{Annee: ptr(2024), SCTL: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, 1, sctl.NbParcelles)
	assert.True(t, dec("21").Equal(sctl.TotalMontant), "got %s", sctl.TotalMontant)

	byExploitant, err := c.svc.Cadastre.Totaux(ctx, services.FermageFilter{Annee: ptr(2024), IDExploitant: &c.exploitant.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, byExploitant.NbParcelles)
	assert.True(t, dec("10000").Equal(byExploitant.TotalSurface))

	noRates, err := c.svc.Cadastre.Totaux(ctx, services.FermageFilter{Annee: ptr(2030)})
	require.NoError(t, err)
	assert.True(t, noRates.SansValeurPoint)
	assert.True(t, noRates.TotalMontant.IsZero())
	assert.True(t, dec("35000").Equal(noRates.TotalSurface))
}

func TestListWithSubdivisions(t *testing.T) {
	ctx := context.Background()
	c := setupCadastre(t)

	all, total, err := c.svc.Cadastre.ListWithSubdivisions(ctx, services.ParcelleFilter{}, store.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, all, 2)
	assert.Equal(t, "AB-01", all[0].Ref, "ordered by parcel reference")

	got, total, err := c.svc.Cadastre.ListWithSubdivisions(ctx, services.ParcelleFilter{IDExploitant: &c.exploitant.ID}, store.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, got, 1)
	p := got[0]
	assert.Equal(t, c.gfa.ID, p.ID)
	require.NotNil(t, p.NomLieuDit)
	assert.Equal(t, "Montredon", *p.NomLieuDit)
	assert.Equal(t, 2, p.NbSubdivisions)
	require.Len(t, p.Subdivisions, 2)
	assert.Equal(t, 1, p.Subdivisions[0].Division)
	assert.Equal(t, 2, p.Subdivisions[1].Division)
	assert.True(t, dec("15000").Equal(p.TotalSurface))
	require.NotNil(t, p.FirstDivision)
	assert.Equal(t, 1, *p.FirstDivision)
	require.NotNil(t, p.FirstExploitant)
	assert.Equal(t, "Martin Paul", *p.FirstExploitant)
	assert.Equal(t, &c.exploitant.ID, p.FirstExploitantID)

	byType, _, err := c.svc.Cadastre.ListWithSubdivisions(ctx, services.ParcelleFilter{IDTypeFermage: &c.prairie.ID}, store.Page{})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, c.sctl.ID, byType[0].ID)

	none, total, err := c.svc.Cadastre.ListWithSubdivisions(ctx, services.ParcelleFilter{IDExploitant: ptr(999)}, store.Page{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, none)
}

func TestDeleteParcelleCascades(t *testing.T) {
	ctx := context.Background()
	c := setupCadastre(t)

	ok, err := c.svc.Cadastre.DeleteParcelle(ctx, c.gfa.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	subs, err := c.svc.Cadastre.SubdivisionsByParcelle(ctx, c.gfa.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)

	remaining, err := c.svc.Cadastre.SubdivisionsByParcelle(ctx, c.sctl.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestSubdivisionWrites(t *testing.T) {
	ctx := context.Background()
	c := setupCadastre(t)
	svc := c.svc.Cadastre

	err := svc.CreateSubdivision(ctx, &models.Subdivision{IDParcelle: 999})
	assert.True(t, errors.Is(err, store.ErrConstraint))

	err = svc.CreateSubdivision(ctx, &models.Subdivision{IDParcelle: c.sctl.ID, Surface: dec("-1")})
	assert.True(t, errors.Is(err, validation.ErrInvalid))

	sd := &models.Subdivision{IDParcelle: c.sctl.ID, Division: 1, Subdivision: 2, Surface: dec("100")}
	require.NoError(t, svc.CreateSubdivision(ctx, sd))

	updated, err := svc.UpdateSubdivision(ctx, sd.ID, models.SubdivisionPatch{PointFermage: models.Set(dec("12.5"))})
	require.NoError(t, err)
	require.True(t, updated.PointFermage.Valid)
	assert.True(t, dec("12.5").Equal(updated.PointFermage.Decimal))

	cleared, err := svc.UpdateSubdivision(ctx, sd.ID, models.SubdivisionPatch{PointFermage: models.Null[decimal.Decimal]()})
	require.NoError(t, err)
	assert.False(t, cleared.PointFermage.Valid)

	_, err = svc.UpdateSubdivision(ctx, sd.ID, models.SubdivisionPatch{IDParcelle: models.Set(999)})
	assert.True(t, errors.Is(err, store.ErrConstraint))

	subs, err := svc.SubdivisionsByParcelle(ctx, c.sctl.ID)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, 0, subs[0].Subdivision)
	assert.Equal(t, 2, subs[1].Subdivision)
}

func TestCreateParcelleNeedsCommune(t *testing.T) {
	ctx := context.Background()
	c := setupCadastre(t)

	err := c.svc.Cadastre.CreateParcelle(ctx, &models.Parcelle{Ref: "ZZ-1", IDCommune: 999})
	assert.True(t, errors.Is(err, store.ErrConstraint))
	err = c.svc.Cadastre.CreateParcelle(ctx, &models.Parcelle{IDCommune: c.commune.ID})
	assert.True(t, errors.Is(err, validation.ErrInvalid))

	p := &models.Parcelle{Ref: "ZZ-1", IDCommune: c.commune.ID, SCTL: true}
	require.NoError(t, c.svc.Cadastre.CreateParcelle(ctx, p))
	got, _, err := c.svc.Cadastre.ListParcelles(ctx, services.ParcelleFilter{SCTL: ptr(true)}, store.Page{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCalculatePreview(t *testing.T) {
	ctx := context.Background()
	c := setupCadastre(t)

	res, err := c.svc.Cadastre.Calculate(ctx, services.CalculRequest{Points: dec("10"), Surface: dec("2.5"), Annee: 2024})
	require.NoError(t, err)
	assert.True(t, res.SansValeurPoint)

	require.NoError(t, c.svc.References.CreateValeurPoint(ctx, valeurPoint(2024)))
	res, err = c.svc.Cadastre.Calculate(ctx, services.CalculRequest{Points: dec("10"), Surface: dec("2.5"), Annee: 2024})
	require.NoError(t, err)
	assert.False(t, res.SansValeurPoint)
	assert.True(t, dec("0.004225").Equal(res.Montant), "got %s", res.Montant)
}
