/*
NAME
  mdct_test.go

DESCRIPTION
  mdct_test.go checks the fast inverse MDCT against its definition.

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
	"math/rand"
	"sync"
	"testing"
)

// directIMDCT evaluates output n of the inverse MDCT by definition.
func directIMDCT(src []float64, n int) float64 {
	m := len(src)
	var sum float64
	for k, x := range src {
		sum += x * math.Cos(math.Pi/float64(m)*(float64(n)+float64(m)/2+0.5)*(float64(k)+0.5))
	}
	return sum
}

func TestMDCTInverse(t *testing.T) {
	const tol = 1e-6
	rng := rand.New(rand.NewSource(1))
	for bits := 3; bits <= 13; bits++ {
		mdct := NewMDCT(bits)
		n := mdct.Size()
		if n != 1<<bits {
			t.Fatalf("unexpected size: got %d, want %d", n, 1<<bits)
		}

		src := make([]float64, n/2)
		for i := range src {
			src[i] = rng.Float64()*2 - 1
		}
		dst := make([]float64, n)
		mdct.Inverse(dst, src)

		// Check a spread of outputs to keep the direct sum cheap.
		step := 1 + n/128
		for i := 0; i < n; i += step {
			want := directIMDCT(src, i)
			if math.Abs(dst[i]-want) > tol {
				t.Fatalf("bits %d: output %d differs\nGot: %v\nWant: %v", bits, i, dst[i], want)
			}
		}
	}
}

func TestMDCTZero(t *testing.T) {
	for bits := 10; bits <= 13; bits++ {
		mdct := NewMDCT(bits)
		dst := make([]float64, mdct.Size())
		for i := range dst {
			dst[i] = 1
		}
		mdct.Inverse(dst, make([]float64, mdct.Size()/2))
		for i, v := range dst {
			if v != 0 {
				t.Fatalf("bits %d: expected zero output at %d, got %v", bits, i, v)
			}
		}
	}
}

func TestMDCTConcurrent(t *testing.T) {
	mdct := NewMDCT(8)
	src := make([]float64, mdct.Size()/2)
	src[3] = 1
	want := make([]float64, mdct.Size())
	mdct.Inverse(want, src)

	var wg sync.WaitGroup
	errs := make(chan int, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dst := make([]float64, mdct.Size())
			for rep := 0; rep < 50; rep++ {
				mdct.Inverse(dst, src)
				for i := range dst {
					if dst[i] != want[i] {
						errs <- i
						return
					}
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for i := range errs {
		t.Errorf("concurrent inverse differs at %d", i)
	}
}
