package services

import (
	"context"
	"testing"
	"time"

	"github.com/diewo77/gersa/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRates struct {
	calls int
	rows  map[int]*models.ValeurPoint
}

func (c *countingRates) ValeurPointByYear(_ context.Context, annee int) (*models.ValeurPoint, error) {
	c.calls++
	return c.rows[annee], nil
}

func TestCachedRates(t *testing.T) {
	ctx := context.Background()
	inner := &countingRates{rows: map[int]*models.ValeurPoint{
		2024: {Annee: 2024, ValeurPointGFA: decimal.RequireFromString("1.69")},
	}}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewCachedRates(inner, time.Minute)
	r.now = func() time.Time { return now }

	vp, err := r.ValeurPointByYear(ctx, 2024)
	require.NoError(t, err)
	require.NotNil(t, vp)
	vp.ValeurPointGFA = decimal.Zero

	again, err := r.ValeurPointByYear(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, "1.69", again.ValeurPointGFA.String(), "callers get copies")

	missing, err := r.ValeurPointByYear(ctx, 2030)
	require.NoError(t, err)
	assert.Nil(t, missing)
	_, _ = r.ValeurPointByYear(ctx, 2030)
	assert.Equal(t, 2, inner.calls, "absent years are cached")

	r.Invalidate(2030)
	_, _ = r.ValeurPointByYear(ctx, 2030)
	assert.Equal(t, 3, inner.calls)

	now = now.Add(2 * time.Minute)
	_, _ = r.ValeurPointByYear(ctx, 2024)
	assert.Equal(t, 4, inner.calls, "expired entries are refetched")

	r.InvalidateAll()
	_, _ = r.ValeurPointByYear(ctx, 2024)
	assert.Equal(t, 5, inner.calls)
}
