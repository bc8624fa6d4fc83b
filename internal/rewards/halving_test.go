package rewards

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdjustedPool(t *testing.T) {
	halving := MonthsPerHalving * SecondsPerMonth

	tests := []struct {
		name string
		pool uint64
		now  int64
		want uint64
	}{
		{"genesis", 1_000, 0, 1_000},
		{"just before first halving", 1_000, halving - 1, 1_000},
		{"first halving", 1_000, halving, 500},
		{"third halving", 1_000, 3 * halving, 125},
		{"pool smaller than factor floors to zero", 1, halving, 0},
		{"factor not representable", 1_000, 64 * halving, 1},
		{"last representable factor", 1 << 63, 63 * halving, 1},
		{"negative period", 1_000, -halving, 1},
		{"small negative time truncates to epoch zero", 1_000, -1, 1_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AdjustedPool(tt.pool, tt.now))
		})
	}
}

func TestHalvingPeriods(t *testing.T) {
	assert.Equal(t, int64(0), HalvingPeriods(0))
	assert.Equal(t, int64(0), HalvingPeriods(5*SecondsPerMonth))
	assert.Equal(t, int64(1), HalvingPeriods(6*SecondsPerMonth))
	assert.Equal(t, int64(2), HalvingPeriods(17*SecondsPerMonth+1))
}
