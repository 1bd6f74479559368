package db

import (
	"math"
	"testing"

	"shinsen_rewards/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPrizeTables(t *testing.T) {
	tables := DefaultPrizeTables()
	codes := map[string]bool{}
	for _, v := range DefaultVouchers() {
		codes[v.Code] = true
	}

	for _, mode := range domain.GameModes {
		table, ok := tables[mode]
		require.True(t, ok, "missing table for %s", mode)
		require.NotEmpty(t, table)

		var sum float64
		var hasNone bool
		for i, p := range table {
			assert.Equal(t, mode, p.GameMode)
			assert.Equal(t, i, p.Ordinal)
			assert.GreaterOrEqual(t, p.Weight, 0.0)
			sum += p.Weight
			switch p.Kind {
			case domain.PayoutNone:
				hasNone = true
			case domain.PayoutVoucher:
				assert.True(t, codes[p.Value], "%s references unknown voucher %q", mode, p.Value)
			case domain.PayoutTicket:
				_, err := domain.ParseTicketType(p.Value)
				assert.NoError(t, err, "%s references unknown ticket %q", mode, p.Value)
				assert.Positive(t, p.Amount)
			case domain.PayoutCurrency:
				assert.Positive(t, p.Amount)
			}
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "weights of %s", mode)
		assert.True(t, hasNone, "%s needs a losing slice for the fallback", mode)
	}
}

func TestSkillTablesAreIndependent(t *testing.T) {
	tables := DefaultPrizeTables()
	tables[domain.GameMemory][0].Weight = math.NaN()
	assert.Equal(t, 0.40, tables[domain.GameSnake][0].Weight)
}

func TestModelsCoverEveryTable(t *testing.T) {
	assert.Len(t, Models(), 6)
}
