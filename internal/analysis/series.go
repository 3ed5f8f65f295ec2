package analysis

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrShortSeries = errors.New("analysis: series too short")

// Finite returns the finite values of x. Energy columns are NaN when energy
// was not sampled, and pressure is zero before the first window closes.
func Finite(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

type Summary struct {
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64

	// Slope is the least-squares drift per unit time.
	Slope float64
}

// Summarize describes a series sampled every dt. Non-finite values are
// skipped.
func Summarize(x []float64, dt float64) (Summary, error) {
	x = Finite(x)
	if len(x) < 2 {
		return Summary{N: len(x)}, ErrShortSeries
	}

	mean, std := stat.MeanStdDev(x, nil)
	t := make([]float64, len(x))
	floats.Span(t, 0, dt*float64(len(x)-1))
	_, slope := stat.LinearRegression(t, x, nil, false)

	return Summary{
		N:      len(x),
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(x),
		Max:    floats.Max(x),
		Slope:  slope,
	}, nil
}

// Autocorrelation returns the normalized autocorrelation for lags
// 0..maxLag. A constant series has no defined correlation and yields NaN
// beyond lag 0.
func Autocorrelation(x []float64, maxLag int) ([]float64, error) {
	x = Finite(x)
	if len(x) < 2 {
		return nil, ErrShortSeries
	}
	maxLag = min(maxLag, len(x)-1)

	mean := stat.Mean(x, nil)
	d := make([]float64, len(x))
	copy(d, x)
	floats.AddConst(-mean, d)
	variance := floats.Dot(d, d)

	out := make([]float64, maxLag+1)
	out[0] = 1
	for lag := 1; lag <= maxLag; lag++ {
		if variance == 0 {
			out[lag] = math.NaN()
			continue
		}
		out[lag] = floats.Dot(d[:len(d)-lag], d[lag:]) / variance
	}
	return out, nil
}

// Equilibrated reports the first index after which a trailing window of the
// series stays within tol of its own mean, relative to that mean, or -1.
func Equilibrated(x []float64, window int, tol float64) int {
	if window < 2 || len(x) < window {
		return -1
	}
	for start := 0; start+window <= len(x); start++ {
		w := x[start : start+window]
		mean := stat.Mean(w, nil)
		if mean == 0 || math.IsNaN(mean) {
			continue
		}
		if (floats.Max(w)-floats.Min(w))/2 <= tol*math.Abs(mean) {
			return start
		}
	}
	return -1
}
