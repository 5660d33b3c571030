package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/gersa/internal/logger"
	"github.com/diewo77/gersa/internal/metrics"
	"github.com/diewo77/gersa/internal/models"
	"github.com/diewo77/gersa/internal/services"
	"github.com/diewo77/gersa/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCountsAddUp(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	gfa := f.structure("GFA Larzac", models.KindGFA)
	tsl := f.structure("SCTL", models.KindTSL)
	asso := f.structure("APAL", models.KindAssociation)
	alice := f.personne("Alice")
	bob := f.personne("Bob")

	for n := 1; n <= 3; n++ {
		f.part(n, alice.ID, gfa, false)
	}
	f.part(4, alice.ID, gfa, true)
	f.part(1, alice.ID, tsl, false)
	f.part(2, alice.ID, tsl, false)
	f.part(1, alice.ID, asso, false)
	f.part(5, bob.ID, gfa, false)

	c, err := f.svc.Parts.Counts(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PartCounts{GFA: 3, SCTL: 2, Total: 5}, c)
	assert.Equal(t, c.GFA+c.SCTL, c.Total)

	batch, err := f.svc.Parts.CountsBatch(ctx, []int{alice.ID, bob.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, c, batch[alice.ID])
	single, err := f.svc.Parts.Counts(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, single, batch[bob.ID])
	assert.Equal(t, models.PartCounts{}, batch[999])
}

func TestPartsTotaux(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	gfa := f.structure("GFA Larzac", models.KindGFA)
	tsl := f.structure("SCTL", models.KindTSL)
	a := f.personne("A")
	b := f.personne("B")
	c := f.personne("C")
	f.part(1, a.ID, gfa, false)
	f.part(1, b.ID, tsl, false)
	f.part(2, c.ID, gfa, true)

	tot, err := f.svc.Parts.Totaux(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.PartsTotaux{GFA: 1, SCTL: 1, Total: 2, Actionnaires: 2}, tot)
}

func TestTransferSkipsMissingShares(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	seller := f.personne("Vendeur")
	f.insert(&models.Personne{ID: 42, Nom: "Acheteur"})
	f.insert(&models.Mouvement{ID: 7, IDPersonne: 42, Sens: true, NbParts: 2})
	f.insert(
		&models.NumeroPart{ID: 1, NumPart: 101, IDPersonne: seller.ID},
		&models.NumeroPart{ID: 3, NumPart: 103, IDPersonne: seller.ID},
	)

	got, err := f.svc.Parts.Transfer(ctx, []int{1, 2, 3}, 42, 7)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, 3, got[1].ID)
	for _, p := range got {
		assert.Equal(t, 42, p.IDPersonne)
		require.NotNil(t, p.IDMouvement)
		assert.Equal(t, 7, *p.IDMouvement)
		assert.Equal(t, 1, p.Version)
	}

	stored, _, err := f.svc.Parts.List(ctx, services.PartFilter{IDPersonne: ptr(42)}, store.Page{})
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestTransferAbortsOnConcurrentUpdate(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	m := metrics.New(prometheus.NewRegistry())
	svc := services.New(f.db, logger.NewNop(), m)
	seller := f.personne("Vendeur")
	buyer := f.personne("Acheteur")
	mv := &models.Mouvement{IDPersonne: buyer.ID, Sens: true, NbParts: 2}
	f.insert(mv)
	a := f.part(1, seller.ID, nil, false)
	b := f.part(2, seller.ID, nil, false)

	// Another writer moves every share on before the guarded update lands.
	bumped := false
	require.NoError(t, f.db.Callback().Update().Before("gorm:update").Register("test:concurrent_writer", func(tx *gorm.DB) {
		if bumped || tx.Statement.Table != "numeros_parts" {
			return
		}
		bumped = true
		_ = tx.Session(&gorm.Session{NewDB: true}).Exec("UPDATE numeros_parts SET version = version + 1").Error
	}))

	got, err := svc.Parts.Transfer(ctx, []int{a.ID, b.ID}, buyer.ID, mv.ID)
	require.True(t, bumped)
	assert.True(t, errors.Is(err, store.ErrConcurrentUpdate))
	assert.Nil(t, got)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConcurrentConflicts))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.PartsTransferred))

	for _, id := range []int{a.ID, b.ID} {
		p, err := svc.Parts.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, seller.ID, p.IDPersonne)
		assert.Nil(t, p.IDMouvement)
		assert.Zero(t, p.Version)
	}
}

func TestTransferRequiresMouvementAndOwner(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	owner := f.personne("Owner")
	p := f.part(1, owner.ID, nil, false)

	_, err := f.svc.Parts.Transfer(ctx, []int{p.ID}, owner.ID, 999)
	assert.True(t, errors.Is(err, store.ErrConstraint))

	f.insert(&models.Mouvement{ID: 5, IDPersonne: owner.ID})
	_, err = f.svc.Parts.Transfer(ctx, []int{p.ID}, 999, 5)
	assert.True(t, errors.Is(err, store.ErrConstraint))

	unchanged, err := f.svc.Parts.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, unchanged.IDMouvement)
	assert.Zero(t, unchanged.Version)
}

func TestPartByNumberWithinStructure(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	gfa := f.structure("GFA", models.KindGFA)
	tsl := f.structure("SCTL", models.KindTSL)
	o := f.personne("O")
	f.part(12, o.ID, gfa, false)
	want := f.part(12, o.ID, tsl, false)

	got, err := f.svc.Parts.ByNumber(ctx, 12, &tsl.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)

	none, err := f.svc.Parts.ByNumber(ctx, 13, &tsl.ID)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestShareNumberUniqueWithinStructure(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	gfa := f.structure("GFA", models.KindGFA)
	tsl := f.structure("SCTL", models.KindTSL)
	o := f.personne("O")

	first := &models.NumeroPart{NumPart: 12, IDPersonne: o.ID, IDStructure: &gfa.ID}
	require.NoError(t, f.svc.Parts.Create(ctx, first))

	dup := &models.NumeroPart{NumPart: 12, IDPersonne: o.ID, IDStructure: &gfa.ID}
	err := f.svc.Parts.Create(ctx, dup)
	var ce *store.ConstraintError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "num_part", ce.Field)
	assert.Zero(t, dup.ID)

	other := &models.NumeroPart{NumPart: 12, IDPersonne: o.ID, IDStructure: &tsl.ID}
	require.NoError(t, f.svc.Parts.Create(ctx, other))

	_, err = f.svc.Parts.Update(ctx, other.ID, models.NumeroPartPatch{IDStructure: models.Set(gfa.ID)})
	assert.True(t, errors.Is(err, store.ErrConstraint))
	kept, err := f.svc.Parts.Get(ctx, other.ID)
	require.NoError(t, err)
	require.NotNil(t, kept.IDStructure)
	assert.Equal(t, tsl.ID, *kept.IDStructure)

	renumbered, err := f.svc.Parts.Update(ctx, first.ID, models.NumeroPartPatch{NumPart: models.Set(12), Etat: models.Set(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, renumbered.Etat)
}
