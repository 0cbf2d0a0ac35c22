/*
NAME
  load_test.go

DESCRIPTION
  load_test.go provides tests for loading decoder tables from a C header.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package wma

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const header = `
/* Synthetic tables. */
static const uint8_t exponent_band_44100[3][25] = {
    { 4, 32, 32, 32, 32, },
    { 2, 128, 128, },
    { 1, 512 },
};

// Run/level tables.
static const uint32_t coef4_huffcodes[3] = { 0x0, 0x1, 0x1 };
static const uint8_t coef4_huffbits[3] = { 2, 2, 1, };
static const uint16_t levels4[1] = { 1 };

static const uint32_t coef5_huffcodes[4] = {
    0x00, 0x01, 0x02, 0x3, /* 3 */
};
static const uint8_t coef5_huffbits[4] = { 2, 2, 2, 2 };
static const uint16_t levels5[2] = { 1, 1, };
`

func TestLoadTables(t *testing.T) {
	tab, err := LoadTables(strings.NewReader(header))
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if tab.Coef[0].Len() != 3 || tab.Coef[1].Len() != 4 {
		t.Errorf("unexpected coefficient table sizes: %d, %d", tab.Coef[0].Len(), tab.Coef[1].Len())
	}
	if run, level := tab.Coef[1].RunLevel(3); run != 0 || level != 2 {
		t.Errorf("unexpected run/level for symbol 3: %d, %v", run, level)
	}

	want := [3][]int{{32, 32, 32, 32}, {128, 128}, {512}}
	if !cmp.Equal(tab.bands[44100], want) {
		t.Errorf("did not get expected bands\n%s", cmp.Diff(want, tab.bands[44100]))
	}

	// Explicit bands only apply to the three shortest blocks.
	if got := tab.bandTable(44100, 8); !cmp.Equal(got, want[1]) {
		t.Errorf("unexpected band table for 256 coefficients: %v", got)
	}
	if got := tab.bandTable(44100, 11); !cmp.Equal(got, criticalBands(44100, 2048)) {
		t.Errorf("unexpected band table for 2048 coefficients: %v", got)
	}
	if got := tab.bandTable(22050, 7); !cmp.Equal(got, criticalBands(22050, 128)) {
		t.Errorf("unexpected band table for missing rate: %v", got)
	}
}

func TestLoadTablesMissing(t *testing.T) {
	src := strings.Replace(header, "levels5", "levels6", 1)
	_, err := LoadTables(strings.NewReader(src))
	if err == nil {
		t.Error("expected error for missing table")
	}

	src = strings.Replace(header, "{ 1, 512 }", "{ 5, 512 }", 1)
	_, err = LoadTables(strings.NewReader(src))
	if err == nil {
		t.Error("expected error for bad band row")
	}
}

func TestCriticalBands(t *testing.T) {
	for _, rate := range []int{22050, 32000, 44100} {
		for bits := minBlockBits; bits <= 11; bits++ {
			n := 1 << bits
			sum := 0
			for _, w := range criticalBands(rate, n) {
				if w <= 0 {
					t.Errorf("rate %d, block %d: non-positive band width %d", rate, n, w)
				}
				sum += w
			}
			if sum != n {
				t.Errorf("rate %d, block %d: bands cover %d coefficients", rate, n, sum)
			}
		}
	}
}
