/*
NAME
  pcm.go

DESCRIPTION
  pcm.go contains functions for converting the sample rate of decoded pcm.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pcm provides functions for processing decoded 16-bit pcm audio.
package pcm

import (
	"math"

	"github.com/pkg/errors"

	"github.com/ausocean/bemani/sample"
)

// Number of taps of the anti-alias filter used when downsampling.
const antiAliasTaps = 128

// Cutoff of the anti-alias filter as a fraction of the output rate.
const antiAliasCutoff = 0.45

// Resample returns s converted to rate Hz. If antiAlias is true and rate is
// lower than the rate of s, each channel is low-pass filtered before
// decimation. Integer decimation ratios average the input samples; other
// ratios interpolate linearly.
func Resample(s *sample.Decoded, rate int, antiAlias bool) (*sample.Decoded, error) {
	if s.Rate == rate {
		return s, nil
	}
	if s.Rate <= 0 {
		return nil, errors.Errorf("unable to convert from: %v Hz", s.Rate)
	}
	if rate <= 0 {
		return nil, errors.Errorf("unable to convert to: %v Hz", rate)
	}

	var lp *LowPass
	if antiAlias && rate < s.Rate {
		var err error
		lp, err = NewLowPass(antiAliasCutoff*float64(rate), s.Rate, antiAliasTaps)
		if err != nil {
			return nil, errors.Wrap(err, "could not create anti-alias filter")
		}
	}

	// Calculate sample rate ratio ratioFrom:ratioTo.
	rateGcd := gcd(uint(rate), uint(s.Rate))
	ratioFrom := int(uint(s.Rate) / rateGcd)
	ratioTo := int(uint(rate) / rateGcd)

	out := &sample.Decoded{Rate: rate, Channels: make([][]int16, len(s.Channels))}
	for i, ch := range s.Channels {
		if lp != nil {
			ch = lp.Apply(ch)
		}
		if ratioTo == 1 {
			out.Channels[i] = decimate(ch, ratioFrom)
		} else {
			out.Channels[i] = interpolate(ch, ratioFrom, ratioTo)
		}
	}
	return out, nil
}

// decimate averages each run of n samples of x into one sample. A final
// partial run is dropped.
func decimate(x []int16, n int) []int16 {
	y := make([]int16, len(x)/n)
	for i := range y {
		var sum int
		for _, v := range x[i*n : (i+1)*n] {
			sum += int(v)
		}
		y[i] = int16(sum / n)
	}
	return y
}

// interpolate resamples x by the ratio to:from using linear interpolation.
func interpolate(x []int16, from, to int) []int16 {
	if len(x) == 0 {
		return nil
	}
	n := (len(x)*to + from - 1) / from
	y := make([]int16, n)
	for i := range y {
		pos := i * from
		j, frac := pos/to, float64(pos%to)/float64(to)
		a := float64(x[j])
		b := a
		if j+1 < len(x) {
			b = float64(x[j+1])
		}
		y[i] = int16(math.Round(a + (b-a)*frac))
	}
	return y
}

// gcd is used for calculating the greatest common divisor of two positive integers, a and b.
// assumes given a and b are positive.
func gcd(a, b uint) uint {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
