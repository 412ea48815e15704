package opt

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveMultiStartIndependentOfParallelism(t *testing.T) {
	pts := circlePoints(15, 6)
	opts := DefaultAnnealOptions()
	serial, err := SolveMultiStart(context.Background(), pts, opts, 77, 4, 1)
	require.NoError(t, err)
	parallel, err := SolveMultiStart(context.Background(), pts, opts, 77, 4, 0)
	require.NoError(t, err)

	assert.Equal(t, serial.Stops, parallel.Stops)
	assert.Equal(t, serial.Start, parallel.Start)
	require.Len(t, serial.Costs, 4)
	for _, c := range serial.Costs {
		assert.LessOrEqual(t, serial.Cost, c)
	}
}

func TestSolveMultiStartValidatesFirst(t *testing.T) {
	opts := DefaultAnnealOptions()
	opts.CoolingFactor = 2
	_, err := SolveMultiStart(context.Background(), circlePoints(5, 1), opts, 1, 2, 0)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestDeriveSeedStreamsDiffer(t *testing.T) {
	seen := map[int64]bool{}
	for k := uint64(0); k < 64; k++ {
		s := DeriveSeed(1, k)
		assert.False(t, seen[s])
		seen[s] = true
	}
	assert.Equal(t, DeriveSeed(5, 3), DeriveSeed(5, 3))
}

func TestParallelLimitDefaultsToGOMAXPROCS(t *testing.T) {
	assert.Equal(t, runtime.GOMAXPROCS(0), parallelLimit(0))
	assert.Equal(t, runtime.GOMAXPROCS(0), parallelLimit(-2))
	assert.Equal(t, 3, parallelLimit(3))
}
