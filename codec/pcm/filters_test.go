/*
NAME
  filters_test.go

DESCRIPTION
  filters_test.go contains functions for testing functions in filters.go.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pcm

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Set constant values for testing.
const (
	sampleRate   = 44100
	filterLength = 500
	freqTest     = 1000
)

// TestLowPass is used to test the lowpass constructor and application by
// checking the frequency response of a filtered multi-tone signal.
func TestLowPass(t *testing.T) {
	const fc = 4500.0
	lp, err := NewLowPass(fc, sampleRate, filterLength)
	if err != nil {
		t.Fatal(err)
	}

	filtered := lp.Apply(generate())
	if len(filtered) != sampleRate {
		t.Fatalf("unexpected output length: got %d, want %d", len(filtered), sampleRate)
	}
	// Window the output so the filter's edge transients do not leak.
	win := window.Hann(len(filtered))
	f := make([]float64, len(filtered))
	for i, v := range filtered {
		f[i] = win[i] * float64(v) / (math.MaxInt16 + 1)
	}
	filteredFFT := fft.FFTReal(f)

	// Any high values in filteredFFT above the cutoff frequency result in fail.
	for i := int(fc) + 500; i < sampleRate/2; i++ {
		mag := math.Pow(cmplx.Abs(filteredFFT[i]), 2)
		if mag > freqTest {
			t.Errorf("lowpass filter failed to attenuate %d Hz (%v)", i, mag)
			break
		}
	}

	// Tones in the pass band are kept.
	if mag := math.Pow(cmplx.Abs(filteredFFT[1000]), 2); mag < freqTest {
		t.Errorf("lowpass filter attenuated 1000 Hz (%v)", mag)
	}
}

func TestLowPassDC(t *testing.T) {
	lp, err := NewLowPass(1000, sampleRate, 64)
	if err != nil {
		t.Fatal(err)
	}
	x := make([]int16, 1000)
	for i := range x {
		x[i] = 5000
	}
	y := lp.Apply(x)
	for i := 64; i < len(y)-64; i++ {
		if y[i] < 4999 || y[i] > 5001 {
			t.Fatalf("unexpected DC gain at %d: %d", i, y[i])
		}
	}
}

func TestNewLowPassErrors(t *testing.T) {
	tests := []struct {
		fc   float64
		taps int
	}{
		{fc: 0, taps: 10},
		{fc: sampleRate / 2, taps: 10},
		{fc: 1000, taps: 0},
	}
	for _, test := range tests {
		if _, err := NewLowPass(test.fc, sampleRate, test.taps); err == nil {
			t.Errorf("expected error for cutoff %v, taps %d", test.fc, test.taps)
		}
	}
}

// generate returns one second of 16-bit audio holding tones at every 1 kHz
// step from 1 kHz to 20 kHz.
func generate() []int16 {
	const (
		deltaFreq = 1000
		maxFreq   = 21000
		amplitude = float64(deltaFreq) / float64((maxFreq - deltaFreq))
	)
	s := make([]int16, sampleRate)
	for n := range s {
		t := float64(n) / float64(sampleRate)
		var v float64
		for f := deltaFreq; f < maxFreq; f += deltaFreq {
			v += amplitude * math.Sin(float64(f)*2*math.Pi*t)
		}
		s[n] = int16(v * math.MaxInt16)
	}
	return s
}
