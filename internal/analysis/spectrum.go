package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns frequencies and the one-sided power of x sampled
// every dt, with the mean removed so the zero bin carries no offset.
func PowerSpectrum(x []float64, dt float64) (freqs, power []float64, err error) {
	x = Finite(x)
	if len(x) < 4 {
		return nil, nil, ErrShortSeries
	}

	d := make([]float64, len(x))
	copy(d, x)
	floats.AddConst(-stat.Mean(d, nil), d)

	spectrum := fft.FFTReal(d)
	half := len(spectrum) / 2
	freqs = make([]float64, half)
	power = make([]float64, half)
	n := float64(len(d))
	for k := 0; k < half; k++ {
		freqs[k] = float64(k) / (n * dt)
		a := cmplx.Abs(spectrum[k])
		power[k] = a * a / n
	}
	return freqs, power, nil
}

// DominantFrequency is the non-zero frequency carrying the most power.
func DominantFrequency(freqs, power []float64) float64 {
	if len(power) < 2 {
		return 0
	}
	return freqs[1+floats.MaxIdx(power[1:])]
}
