package services_test

import (
	"testing"
	"time"

	"github.com/diewo77/gersa/internal/db/dbtest"
	"github.com/diewo77/gersa/internal/logger"
	"github.com/diewo77/gersa/internal/metrics"
	"github.com/diewo77/gersa/internal/models"
	"github.com/diewo77/gersa/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fixture struct {
	t   *testing.T
	db  *gorm.DB
	svc *services.Services
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	return &fixture{t: t, db: db, svc: services.New(db, logger.NewNop(), metrics.Nop())}
}

// insert writes rows directly, bypassing service checks.
func (f *fixture) insert(rows ...any) {
	f.t.Helper()
	for _, r := range rows {
		require.NoError(f.t, f.db.Create(r).Error)
	}
}

func (f *fixture) structure(name string, kind models.StructureKind) *models.Structure {
	s := &models.Structure{NomStructure: name, TypeStructure: kind}
	f.insert(s)
	return s
}

func (f *fixture) personne(nom string) *models.Personne {
	p := &models.Personne{Nom: nom}
	f.insert(p)
	return p
}

func (f *fixture) part(num, owner int, structure *models.Structure, termine bool) *models.NumeroPart {
	p := &models.NumeroPart{NumPart: num, IDPersonne: owner, Termine: termine}
	if structure != nil {
		p.IDStructure = &structure.ID
	}
	f.insert(p)
	return p
}

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(s string) *datatypes.Date {
	tm, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	d := datatypes.Date(tm)
	return &d
}
