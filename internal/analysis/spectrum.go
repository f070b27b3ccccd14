package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Spectrum holds the single-sided power spectrum of a uniformly sampled signal.
type Spectrum struct {
	Power []float64
	Freqs []float64
}

// PowerSpectrum computes the magnitude spectrum of data sampled at interval dt.
// The mean is removed first so the DC bin does not dominate.
func PowerSpectrum(data []float64, dt float64) Spectrum {
	n := len(data)
	if n < 2 || dt <= 0 {
		return Spectrum{}
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)

	centered := make([]float64, n)
	for i, v := range data {
		centered[i] = v - mean
	}

	spectrum := fft.FFTReal(centered)

	half := n / 2
	power := make([]float64, half)
	freqs := make([]float64, half)
	for i := 0; i < half; i++ {
		power[i] = cmplx.Abs(spectrum[i])
		freqs[i] = float64(i) / (float64(n) * dt)
	}

	return Spectrum{Power: power, Freqs: freqs}
}

// DominantPeriod returns the period of the strongest non-DC component,
// or 0 when no oscillation stands out.
func DominantPeriod(data []float64, dt float64) float64 {
	s := PowerSpectrum(data, dt)
	if len(s.Power) < 2 {
		return 0
	}

	peakIdx := 0
	peakPower := 0.0
	for i := 1; i < len(s.Power); i++ {
		if s.Power[i] > peakPower {
			peakPower = s.Power[i]
			peakIdx = i
		}
	}
	if peakIdx == 0 || s.Freqs[peakIdx] == 0 {
		return 0
	}

	total := 0.0
	for i := 1; i < len(s.Power); i++ {
		total += s.Power[i]
	}
	if total == 0 || peakPower < 0.1*total {
		return 0
	}

	return 1.0 / s.Freqs[peakIdx]
}

// OscillationAmplitude estimates the peak deviation of data from its mean.
func OscillationAmplitude(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	peak := 0.0
	for _, v := range data {
		if d := math.Abs(v - mean); d > peak {
			peak = d
		}
	}
	return peak
}
