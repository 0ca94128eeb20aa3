package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStageShares(t *testing.T) {
	shares := DefaultStageShares()
	require.NoError(t, shares.Validate())
	assert.Len(t, shares, 7)

	var sum float64
	for _, s := range shares {
		sum += s.Share
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestParseStageShares(t *testing.T) {
	t.Run("valid override", func(t *testing.T) {
		shares, err := ParseStageShares("farming=0.6, transport=0.4")
		require.NoError(t, err)
		require.Len(t, shares, 2)
		assert.Equal(t, StageShare{Stage: "farming", Share: 0.6}, shares[0])
		assert.Equal(t, StageShare{Stage: "transport", Share: 0.4}, shares[1])
	})

	t.Run("malformed entry", func(t *testing.T) {
		_, err := ParseStageShares("farming")
		require.Error(t, err)
	})

	t.Run("shares must sum to one", func(t *testing.T) {
		_, err := ParseStageShares("farming=0.5,transport=0.1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sum")
	})

	t.Run("share out of range", func(t *testing.T) {
		_, err := ParseStageShares("farming=1.5,transport=-0.5")
		require.Error(t, err)
	})
}

func TestEmissionBreakdown(t *testing.T) {
	rec := FootprintRecord{CountryNorm: "Brazil", TotalEmissionKgCO2e: 1000}
	shares := DefaultStageShares()

	breakdown := EmissionBreakdown(rec, shares)
	require.Len(t, breakdown, len(shares))

	var total float64
	for i, se := range breakdown {
		assert.Equal(t, "Brazil", se.CountryNorm)
		assert.Equal(t, shares[i].Stage, se.Stage)
		assert.Equal(t, 1000*shares[i].Share, se.EmissionKgCO2e)
		total += se.EmissionKgCO2e
	}
	assert.InDelta(t, 1000, total, 1e-9)
}
