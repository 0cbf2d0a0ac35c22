/*
NAME
  mdct.go

DESCRIPTION
  mdct.go provides the inverse modified discrete cosine transform, computed
  through a quarter length complex FFT.

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
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// MDCT computes the inverse MDCT of size N = 1<<bits from N/2 coefficients:
//
//	y[n] = sum_k X[k] cos(pi/M (n + M/2 + 1/2)(k + 1/2)), M = N/2.
//
// The twiddle tables are read-only; FFT work areas come from a pool so one
// MDCT may be used by several goroutines.
type MDCT struct {
	bits int
	n    int // Output length.
	m    int // Coefficient count.

	pre  []complex128 // exp(-i pi p / M), p < M/2.
	post []complex128 // exp(-i pi (j + 1/4) / M), j < M/2.

	pool sync.Pool
}

type mdctWork struct {
	fft *fourier.CmplxFFT
	buf []complex128
	u   []float64
}

// NewMDCT returns the inverse transform with 1<<bits outputs. bits must be
// at least 3.
func NewMDCT(bits int) *MDCT {
	n := 1 << bits
	m := n / 2
	l := m / 2
	t := &MDCT{
		bits: bits,
		n:    n,
		m:    m,
		pre:  make([]complex128, l),
		post: make([]complex128, l),
	}
	for p := 0; p < l; p++ {
		t.pre[p] = cmplx.Exp(complex(0, -math.Pi*float64(p)/float64(m)))
		t.post[p] = cmplx.Exp(complex(0, -math.Pi*(float64(p)+0.25)/float64(m)))
	}
	t.pool.New = func() interface{} {
		return &mdctWork{
			fft: fourier.NewCmplxFFT(l),
			buf: make([]complex128, l),
			u:   make([]float64, m),
		}
	}
	return t
}

// Size returns the number of output samples.
func (t *MDCT) Size() int { return t.n }

// Inverse writes the inverse transform of src, which holds Size()/2
// coefficients, into dst, which holds Size() samples.
func (t *MDCT) Inverse(dst, src []float64) {
	w := t.pool.Get().(*mdctWork)
	defer t.pool.Put(w)

	m, l := t.m, t.m/2

	// DCT-IV of src into u.
	for p := 0; p < l; p++ {
		w.buf[p] = complex(src[2*p], src[m-1-2*p]) * t.pre[p]
	}
	w.fft.Coefficients(w.buf, w.buf)
	for j := 0; j < l; j++ {
		s := w.buf[j] * t.post[j]
		w.u[2*j] = real(s)
		w.u[m-1-2*j] = -imag(s)
	}

	// Unfold the M point DCT-IV into 2M outputs.
	h := m / 2
	for i := 0; i < h; i++ {
		dst[i] = w.u[i+h]
	}
	for i := h; i < 3*h; i++ {
		dst[i] = -w.u[3*h-1-i]
	}
	for i := 3 * h; i < 2*m; i++ {
		dst[i] = -w.u[i-3*h]
	}
}
