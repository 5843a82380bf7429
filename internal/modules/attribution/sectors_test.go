package attribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateSectors(t *testing.T) {
	// Two sectors: Tech wp=0.6 wb=0.4 Rp=0.10 Rb=0.08, Energy wp=0.4 wb=0.6
	// Rp=0.02 Rb=0.04.
	positions := []Position{
		NewPosition("AAPL", 0.6, 0.10, 60000, "Tech"),
		NewPosition("XOM", 0.4, 0.02, 40000, "Energy"),
	}
	benchmark := Benchmark{
		Name:        "Composite",
		Weights:     map[string]float64{"MSFT": 0.4, "CVX": 0.6},
		Returns:     map[string]float64{"MSFT": 0.08, "CVX": 0.04},
		TotalReturn: 0.056,
	}
	lookup := SectorLookup{"MSFT": "Tech", "CVX": "Energy"}

	buckets := AggregateSectors(positions, benchmark, lookup)
	require.Len(t, buckets, 2)

	// Sorted sector order: Energy, Tech.
	energy, tech := buckets[0], buckets[1]
	require.Equal(t, "Energy", energy.Sector)
	require.Equal(t, "Tech", tech.Sector)

	assert.InDelta(t, 0.016, tech.Allocation, 1e-12)
	assert.InDelta(t, 0.008, tech.Selection, 1e-12)
	assert.InDelta(t, 0.004, tech.Interaction, 1e-12)

	assert.InDelta(t, -0.008, energy.Allocation, 1e-12)
	assert.InDelta(t, -0.012, energy.Selection, 1e-12)
	assert.InDelta(t, 0.004, energy.Interaction, 1e-12)

	// Bucket total effects sum to the active return 0.012.
	assert.InDelta(t, 0.012, tech.TotalEffect+energy.TotalEffect, 1e-12)
}

func TestAggregateSectorsUnknownBucket(t *testing.T) {
	positions := []Position{
		NewPosition("MYSTERY", 1.0, 0.05, 1000, ""),
	}
	benchmark := Benchmark{
		Weights:     map[string]float64{"SPY": 1.0},
		Returns:     map[string]float64{"SPY": 0.03},
		TotalReturn: 0.03,
	}

	// No lookup at all: everything classifies without error.
	buckets := AggregateSectors(positions, benchmark, nil)
	require.Len(t, buckets, 1)
	assert.Equal(t, UnknownSector, buckets[0].Sector)
	assert.InDelta(t, 1.0, buckets[0].PortfolioWeight, 1e-12)
	assert.InDelta(t, 1.0, buckets[0].BenchmarkWeight, 1e-12)
}

func TestAggregateSectorsZeroWeightSides(t *testing.T) {
	// A sector held only by the portfolio and one held only by the benchmark.
	positions := []Position{
		NewPosition("AAPL", 0.5, 0.10, 500, "Tech"),
	}
	benchmark := Benchmark{
		Weights:     map[string]float64{"CVX": 1.0},
		Returns:     map[string]float64{"CVX": 0.04},
		TotalReturn: 0.04,
	}
	lookup := SectorLookup{"CVX": "Energy"}

	buckets := AggregateSectors(positions, benchmark, lookup)
	require.Len(t, buckets, 2)

	energy, tech := buckets[0], buckets[1]

	// Zero-weight sides normalize to a 0 return, never NaN.
	assert.Equal(t, 0.0, energy.PortfolioReturn)
	assert.Equal(t, 0.0, tech.BenchmarkReturn)

	// Tech: wb=0, Rb=0 -> allocation 0, selection 0, interaction wp*Rp.
	assert.Equal(t, 0.0, tech.Allocation)
	assert.Equal(t, 0.0, tech.Selection)
	assert.InDelta(t, 0.05, tech.Interaction, 1e-12)
}

func TestAggregateSectorsPositionTagWinsOverLookup(t *testing.T) {
	positions := []Position{
		NewPosition("AAPL", 1.0, 0.10, 1000, "Hardware"),
	}
	benchmark := Benchmark{}
	lookup := SectorLookup{"AAPL": "Tech"}

	buckets := AggregateSectors(positions, benchmark, lookup)
	require.Len(t, buckets, 1)
	assert.Equal(t, "Hardware", buckets[0].Sector)
}
