package attribution

import "sort"

// AggregateSectors groups portfolio positions and benchmark constituents into
// sector buckets and computes the per-sector Brinson effects:
//
//	allocation  = (wp - wb) * Rb
//	selection   = wb * (Rp - Rb)
//	interaction = (wp - wb) * (Rp - Rb)
//
// Sector labels come from the position tag first, then the lookup, then the
// Unknown bucket. A missing classification never raises an error. Sector
// returns are weight-normalized averages of constituent returns; when a side
// has zero weight in a sector its normalized return is 0 so the sums stay
// well-defined. Buckets are returned in sorted sector order.
func AggregateSectors(positions []Position, benchmark Benchmark, lookup SectorLookup) []SectorBucket {
	type accumulator struct {
		portfolioWeight   float64
		portfolioWeighted float64
		benchmarkWeight   float64
		benchmarkWeighted float64
		positionCount     int
		constituentCount  int
	}

	buckets := make(map[string]*accumulator)
	bucket := func(sector string) *accumulator {
		if acc, ok := buckets[sector]; ok {
			return acc
		}
		acc := &accumulator{}
		buckets[sector] = acc
		return acc
	}

	for _, pos := range positions {
		acc := bucket(classify(pos.Ticker, pos.Sector, lookup))
		acc.portfolioWeight += pos.Weight
		acc.portfolioWeighted += pos.Weight * pos.Return
		acc.positionCount++
	}

	for _, ticker := range benchmark.Tickers() {
		weight := benchmark.Weights[ticker]
		acc := bucket(classify(ticker, "", lookup))
		acc.benchmarkWeight += weight
		acc.benchmarkWeighted += weight * benchmark.Returns[ticker]
		acc.constituentCount++
	}

	sectors := make([]string, 0, len(buckets))
	for sector := range buckets {
		sectors = append(sectors, sector)
	}
	sort.Strings(sectors)

	out := make([]SectorBucket, 0, len(sectors))
	for _, sector := range sectors {
		acc := buckets[sector]

		portfolioReturn := 0.0
		if acc.portfolioWeight != 0 {
			portfolioReturn = acc.portfolioWeighted / acc.portfolioWeight
		}
		benchmarkReturn := 0.0
		if acc.benchmarkWeight != 0 {
			benchmarkReturn = acc.benchmarkWeighted / acc.benchmarkWeight
		}

		allocation := (acc.portfolioWeight - acc.benchmarkWeight) * benchmarkReturn
		selection := acc.benchmarkWeight * (portfolioReturn - benchmarkReturn)
		interaction := (acc.portfolioWeight - acc.benchmarkWeight) * (portfolioReturn - benchmarkReturn)

		out = append(out, SectorBucket{
			Sector:           sector,
			PortfolioWeight:  acc.portfolioWeight,
			PortfolioReturn:  portfolioReturn,
			BenchmarkWeight:  acc.benchmarkWeight,
			BenchmarkReturn:  benchmarkReturn,
			Allocation:       allocation,
			Selection:        selection,
			Interaction:      interaction,
			TotalEffect:      allocation + selection + interaction,
			PositionCount:    acc.positionCount,
			ConstituentCount: acc.constituentCount,
		})
	}

	return out
}

func classify(ticker, tag string, lookup SectorLookup) string {
	if tag != "" {
		return tag
	}
	if sector, ok := lookup[ticker]; ok && sector != "" {
		return sector
	}
	return UnknownSector
}
