package risk

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/attribution/internal/domain"
	"github.com/aristath/attribution/pkg/formulas"
)

// Matrix is a covariance matrix with its deterministic symbol ordering.
type Matrix struct {
	Symbols []string    `msgpack:"symbols"`
	Data    [][]float64 `msgpack:"data"`
}

// At returns the covariance between symbol indexes i and j.
func (m Matrix) At(i, j int) float64 {
	return m.Data[i][j]
}

// Dim returns the matrix dimension.
func (m Matrix) Dim() int {
	return len(m.Symbols)
}

// QuadraticForm computes wᵗ Σ w for a weight vector aligned to the matrix
// symbol order. Volatility and active risk are derived from this; the matrix
// is never inverted, so near-singular models cannot blow up.
func (m Matrix) QuadraticForm(weights []float64) float64 {
	n := m.Dim()
	if len(weights) != n || n == 0 {
		return 0
	}
	sigma := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sigma.Set(i, j, m.Data[i][j])
		}
	}
	w := mat.NewVecDense(n, weights)
	var sigmaW mat.VecDense
	sigmaW.MulVec(sigma, w)
	return mat.Dot(w, &sigmaW)
}

// MulVec computes (Σ w)_i for each symbol index.
func (m Matrix) MulVec(weights []float64) []float64 {
	n := m.Dim()
	out := make([]float64, n)
	if len(weights) != n {
		return out
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[i] += m.Data[i][j] * weights[j]
		}
	}
	return out
}

// ModelBuilder builds covariance matrices from historical return series,
// reading through an optional external cache. Calculators never mutate the
// cache beyond the read-through Put.
type ModelBuilder struct {
	cache MatrixCache
	log   zerolog.Logger
}

// NewModelBuilder creates a covariance model builder. cache may be nil.
func NewModelBuilder(cache MatrixCache, log zerolog.Logger) *ModelBuilder {
	return &ModelBuilder{
		cache: cache,
		log:   log.With().Str("component", "risk_model").Logger(),
	}
}

// Covariance builds the sample covariance matrix (n-1 denominator) for the
// given symbols. Pairs with mismatched or empty series covary 0 rather than
// erroring. At least 2 observations are required overall.
func (b *ModelBuilder) Covariance(ctx context.Context, returns map[string][]float64, symbols []string) (Matrix, error) {
	if len(symbols) == 0 {
		return Matrix{}, fmt.Errorf("%w: no symbols for covariance model", domain.ErrInvalidInput)
	}
	ordered := make([]string, len(symbols))
	copy(ordered, symbols)
	sort.Strings(ordered)

	if Observations(returns, ordered) < 2 {
		return Matrix{}, fmt.Errorf("%w: covariance needs at least 2 return observations", domain.ErrInvalidInput)
	}

	key := cacheKey(ordered, Observations(returns, ordered), returns)
	if b.cache != nil {
		if cached, ok, err := b.cache.Get(ctx, key); err != nil {
			b.log.Warn().Err(err).Str("key", key).Msg("Covariance cache read failed")
		} else if ok {
			b.log.Debug().Str("key", key).Msg("Covariance cache hit")
			return cached, nil
		}
	}

	n := len(ordered)
	data := make([][]float64, n)
	for i := range data {
		data[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov := formulas.Covariance(returns[ordered[i]], returns[ordered[j]])
			data[i][j] = cov
			data[j][i] = cov
		}
	}

	matrix := Matrix{Symbols: ordered, Data: data}
	if b.cache != nil {
		if err := b.cache.Put(ctx, key, matrix); err != nil {
			b.log.Warn().Err(err).Str("key", key).Msg("Covariance cache write failed")
		}
	}

	b.log.Debug().
		Int("symbols", n).
		Msg("Built sample covariance matrix")

	return matrix, nil
}

// Observations returns the modal series length across the requested symbols;
// series that disagree with it are the mismatched ones that covary 0.
func Observations(returns map[string][]float64, symbols []string) int {
	counts := make(map[int]int)
	for _, symbol := range symbols {
		if n := len(returns[symbol]); n > 0 {
			counts[n]++
		}
	}
	best, bestCount := 0, 0
	for length, count := range counts {
		if count > bestCount || (count == bestCount && length > best) {
			best, bestCount = length, count
		}
	}
	return best
}

// Volatility converts a quadratic form to a volatility, clamping negative
// floating-point noise to 0.
func Volatility(quadraticForm float64) float64 {
	if quadraticForm <= 0 {
		return 0
	}
	return math.Sqrt(quadraticForm)
}

// cacheKey identifies a covariance model by its instrument set, observation
// count and a digest of the return data itself. Same-shape requests over
// different returns must never collide.
func cacheKey(symbols []string, observations int, returns map[string][]float64) string {
	digest := xxhash.New()
	var word [8]byte
	for _, symbol := range symbols {
		_, _ = digest.WriteString(symbol)
		_, _ = digest.Write([]byte{0})
		for _, r := range returns[symbol] {
			binary.LittleEndian.PutUint64(word[:], math.Float64bits(r))
			_, _ = digest.Write(word[:])
		}
	}
	return fmt.Sprintf("cov:%s:%d:%016x", strings.Join(symbols, ","), observations, digest.Sum64())
}
