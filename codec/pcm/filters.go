/*
NAME
  filters.go

DESCRIPTION
  filters.go contains the windowed-sinc low-pass filter used to band limit
  pcm before downsampling.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pcm

import (
	"errors"
	"math"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// LowPass is a linear phase FIR low-pass filter.
type LowPass struct {
	coeffs []float64
	taps   int
}

// NewLowPass generates a low-pass filter with cutoff fc Hz for audio at rate
// Hz, of length taps+1.
func NewLowPass(fc float64, rate, taps int) (*LowPass, error) {
	// Ensure that all input values are valid.
	if fc <= 0 || fc >= float64(rate)/2 {
		return nil, errors.New("cutoff frequency out of bounds")
	} else if taps <= 0 {
		return nil, errors.New("cannot create filter with length <= 0")
	}

	size := taps + 1
	lp := &LowPass{coeffs: make([]float64, size), taps: taps}
	fd := fc / float64(rate)
	b := 2 * math.Pi * fd
	winData := window.FlatTop(size)
	for n := 0; n < taps/2; n++ {
		c := float64(n) - float64(taps)/2
		y := math.Sin(c*b) / (math.Pi * c)
		lp.coeffs[n] = y * winData[n]
		lp.coeffs[size-1-n] = lp.coeffs[n]
	}
	lp.coeffs[taps/2] = 2 * fd * winData[taps/2]

	// Normalise for unity gain at DC.
	var sum float64
	for _, c := range lp.coeffs {
		sum += c
	}
	for i := range lp.coeffs {
		lp.coeffs[i] /= sum
	}
	return lp, nil
}

// Apply filters x and returns a result of the same length, compensated for
// the filter's group delay.
func (lp *LowPass) Apply(x []int16) []int16 {
	if len(x) == 0 {
		return nil
	}
	f := make([]float64, len(x))
	for i, v := range x {
		f[i] = float64(v)
	}
	conv := fastConvolve(f, lp.coeffs)

	delay := lp.taps / 2
	y := make([]int16, len(x))
	for i := range y {
		v := math.Round(conv[i+delay])
		switch {
		case v > math.MaxInt16:
			v = math.MaxInt16
		case v < math.MinInt16:
			v = math.MinInt16
		}
		y[i] = int16(v)
	}
	return y
}

// fastConvolve takes in a signal and an FIR filter and computes the convolution (runs in O(nlog(n)) time).
func fastConvolve(x, h []float64) []float64 {
	// Calculate the length of the linear convolution.
	convLen := len(x) + len(h) - 1

	// Pad signals to the next largest power of 2 larger than convLen.
	padLen := 1
	for padLen < convLen {
		padLen <<= 1
	}
	xp := make([]float64, padLen)
	copy(xp, x)
	hp := make([]float64, padLen)
	copy(hp, h)

	// Compute the multiplication of the two signals in the freq domain.
	xFFT, hFFT := fft.FFTReal(xp), fft.FFTReal(hp)
	for i := range xFFT {
		xFFT[i] *= hFFT[i]
	}
	iy := fft.IFFT(xFFT)

	y := make([]float64, convLen)
	for i := range y {
		y[i] = real(iy[i])
	}
	return y
}
