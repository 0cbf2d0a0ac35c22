/*
NAME
  tables.go

DESCRIPTION
  tables.go holds the constant tables of the WMA decoder and the Tables
  type that carries the built code tables, transforms and windows shared by
  every Decoder.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package wma

import (
	"math"

	"github.com/pkg/errors"
)

// Transform sizes built by NewTables, as log2 of the MDCT output length.
const (
	minMDCTBits = 7
	maxMDCTBits = 13
)

// Smallest block, as log2 of its length.
const minBlockBits = 7

// Exponent codes share the AAC scale factor Huffman table; a symbol minus
// expBias is the exponent delta.
const expBias = 60

var scalefactorCodes = []uint32{
	0x3ffe8, 0x3ffe6, 0x3ffe7, 0x3ffe5, 0x7fff5, 0x7fff1, 0x7ffed, 0x7fff6,
	0x7ffee, 0x7ffef, 0x7fff0, 0x7fffc, 0x7fffd, 0x7ffff, 0x7fffe, 0x7fff7,
	0x7fff8, 0x7fffb, 0x7fff9, 0x3ffe4, 0x7fffa, 0x3ffe3, 0x1ffef, 0x1fff0,
	0x0fff5, 0x1ffee, 0x0fff2, 0x0fff3, 0x0fff4, 0x0fff1, 0x07ff6, 0x07ff7,
	0x03ff9, 0x03ff5, 0x03ff7, 0x03ff3, 0x03ff6, 0x03ff2, 0x01ff7, 0x01ff5,
	0x00ff9, 0x00ff7, 0x00ff6, 0x007f9, 0x00ff4, 0x007f8, 0x003f9, 0x003f7,
	0x003f5, 0x001f8, 0x001f7, 0x000fa, 0x000f8, 0x000f6, 0x00079, 0x0003a,
	0x00038, 0x0001a, 0x0000b, 0x00004, 0x00000, 0x0000a, 0x0000c, 0x0001b,
	0x00039, 0x0003b, 0x00078, 0x0007a, 0x000f7, 0x000f9, 0x001f6, 0x001f9,
	0x003f4, 0x003f6, 0x003f8, 0x007f5, 0x007f4, 0x007f6, 0x007f7, 0x00ff5,
	0x00ff8, 0x01ff4, 0x01ff6, 0x01ff8, 0x03ff8, 0x03ff4, 0x0fff0, 0x07ff4,
	0x0fff6, 0x07ff5, 0x3ffe2, 0x7ffd9, 0x7ffda, 0x7ffdb, 0x7ffdc, 0x7ffdd,
	0x7ffde, 0x7ffd8, 0x7ffd2, 0x7ffd3, 0x7ffd4, 0x7ffd5, 0x7ffd6, 0x7fff2,
	0x7ffdf, 0x7ffe7, 0x7ffe8, 0x7ffe9, 0x7ffea, 0x7ffeb, 0x7ffe6, 0x7ffe0,
	0x7ffe1, 0x7ffe2, 0x7ffe3, 0x7ffe4, 0x7ffe5, 0x7ffd7, 0x7ffec, 0x7fff4,
	0x7fff3,
}

var scalefactorLens = []uint8{
	18, 18, 18, 18, 19, 19, 19, 19, 19, 19, 19, 19, 19, 19, 19, 19,
	19, 19, 19, 18, 19, 18, 17, 17, 16, 17, 16, 16, 16, 16, 15, 15,
	14, 14, 14, 14, 14, 14, 13, 13, 12, 12, 12, 11, 12, 11, 10, 10,
	10, 9, 9, 8, 8, 8, 7, 6, 6, 5, 4, 3, 1, 4, 4, 5,
	6, 6, 7, 7, 8, 8, 9, 9, 10, 10, 10, 11, 11, 11, 11, 12,
	12, 13, 13, 13, 14, 14, 16, 15, 16, 15, 18, 19, 19, 19, 19, 19,
	19, 19, 19, 19, 19, 19, 19, 19, 19, 19, 19, 19, 19, 19, 19, 19,
	19, 19, 19, 19, 19, 19, 19, 19, 19,
}

// Band edges in Hz used to derive exponent bands for long blocks.
var criticalFreqs = []int{
	100, 200, 300, 400, 510, 630, 770, 920,
	1080, 1270, 1480, 1720, 2000, 2320, 2700, 3150,
	3700, 4400, 5300, 6400, 7700, 9500, 12000, 15500,
	24500,
}

// CoefSpec describes a run/level coefficient code table.
type CoefSpec struct {
	Codes  []uint32
	Lens   []uint8
	Levels []uint16
}

// Tables holds the code tables, transforms and windows used by Decoders.
// A Tables is read-only once built and may be shared between goroutines.
type Tables struct {
	Exp  *VLC
	Coef [2]*VLC

	// bands holds explicit exponent band widths by sample rate for the three
	// shortest block sizes, shortest first. Missing rates fall back to the
	// critical band rule.
	bands map[int][3][]int

	mdct    map[int]*MDCT
	windows map[int][]float64
}

// NewTables builds Tables from the two WMAv2 coefficient tables. bands
// optionally gives exponent band widths by sample rate.
func NewTables(a, b CoefSpec, bands map[int][3][]int) (*Tables, error) {
	exp, err := NewVLC(scalefactorCodes, scalefactorLens)
	if err != nil {
		return nil, errors.Wrap(err, "could not build exponent table")
	}
	t := &Tables{
		Exp:     exp,
		bands:   bands,
		mdct:    make(map[int]*MDCT),
		windows: make(map[int][]float64),
	}
	for i, spec := range []CoefSpec{a, b} {
		t.Coef[i], err = NewCoefVLC(spec.Codes, spec.Lens, spec.Levels)
		if err != nil {
			return nil, errors.Wrapf(err, "could not build coefficient table %d", i)
		}
	}
	for n := minMDCTBits; n <= maxMDCTBits; n++ {
		t.mdct[n] = NewMDCT(n)
	}
	for n := minBlockBits - 1; n < maxMDCTBits; n++ {
		t.windows[1<<n] = sineWindow(1 << n)
	}
	return t, nil
}

// MDCT returns the inverse transform producing 1<<bits samples.
func (t *Tables) MDCT(bits int) (*MDCT, bool) {
	m, ok := t.mdct[bits]
	return m, ok
}

// window returns the rising half sine window of length n.
func (t *Tables) window(n int) []float64 {
	if w, ok := t.windows[n]; ok {
		return w
	}
	return sineWindow(n)
}

// sineWindow returns sin((i+0.5)*pi/(2n)) for i in [0,n).
func sineWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = math.Sin((float64(i) + 0.5) * math.Pi / float64(2*n))
	}
	return w
}

// bandTable returns exponent band widths for a block of 1<<blockBits
// coefficients at the given rate.
func (t *Tables) bandTable(rate, blockBits int) []int {
	a := blockBits - minBlockBits
	if a < 3 {
		if b, ok := t.bands[rate]; ok && len(b[a]) > 0 {
			return b[a]
		}
	}
	return criticalBands(rate, 1<<blockBits)
}

// criticalBands derives band widths from the critical frequencies.
func criticalBands(rate, blockLen int) []int {
	var bands []int
	last := 0
	for _, f := range criticalFreqs {
		pos := (blockLen*2*f + rate*2) / (4 * rate) * 4
		if pos > blockLen {
			pos = blockLen
		}
		if pos > last {
			bands = append(bands, pos-last)
		}
		if pos >= blockLen {
			break
		}
		last = pos
	}
	return bands
}

// totalGainToBits returns the escape level width for a block gain.
func totalGainToBits(gain int) int {
	switch {
	case gain < 15:
		return 13
	case gain < 32:
		return 12
	case gain < 40:
		return 11
	case gain < 45:
		return 10
	default:
		return 9
	}
}
