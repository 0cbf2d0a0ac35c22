/*
NAME
  vlc.go

DESCRIPTION
  vlc.go provides canonical variable length code tables for the WMA
  exponent and run/level coefficient codes.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package wma

import (
	"github.com/pkg/errors"

	"github.com/ausocean/bemani/sample"
)

// maxCodeLen bounds the prefix search in Decode.
const maxCodeLen = 31

// Reserved run/level symbols.
const (
	symEscape = 0
	symEnd    = 1
)

// BitSource is a source of single bits, MSB first.
type BitSource interface {
	ReadBit() (uint64, error)
}

// VLC is a prefix code table. Keys are codes with a 1 bit set above the code
// length, so prefixes of differing lengths never collide.
type VLC struct {
	lookup map[uint32]uint16

	// Run and level by symbol for coefficient tables.
	run   []int
	level []float64
}

// NewVLC returns a VLC mapping code i, of length lens[i] bits, to symbol i.
func NewVLC(codes []uint32, lens []uint8) (*VLC, error) {
	if len(codes) != len(lens) {
		return nil, errors.Errorf("code and length tables differ in size (%d, %d)", len(codes), len(lens))
	}
	v := &VLC{lookup: make(map[uint32]uint16, len(codes))}
	for i, c := range codes {
		if lens[i] == 0 || lens[i] > maxCodeLen {
			return nil, errors.Errorf("code %d has invalid length %d", i, lens[i])
		}
		key := c | 1<<lens[i]
		if _, dup := v.lookup[key]; dup {
			return nil, errors.Errorf("code %d duplicates an earlier code", i)
		}
		v.lookup[key] = uint16(i)
	}
	return v, nil
}

// NewCoefVLC returns a run/level coefficient VLC. levels[k] gives the number
// of runs coded at level k+1; symbols from 2 upwards enumerate them in order.
func NewCoefVLC(codes []uint32, lens []uint8, levels []uint16) (*VLC, error) {
	v, err := NewVLC(codes, lens)
	if err != nil {
		return nil, err
	}
	v.run = []int{0, 0}
	v.level = []float64{0, 0}
	for k, n := range levels {
		for j := 0; j < int(n); j++ {
			v.run = append(v.run, j)
			v.level = append(v.level, float64(k+1))
		}
	}
	if len(v.run) > len(codes) {
		return nil, errors.Errorf("levels describe %d symbols, only %d codes", len(v.run), len(codes))
	}
	return v, nil
}

// Decode reads one code from src and returns its symbol.
func (v *VLC) Decode(src BitSource) (int, error) {
	var prefix uint32
	pad := uint32(2)
	for i := 0; i < maxCodeLen; i++ {
		b, err := src.ReadBit()
		if err != nil {
			return 0, err
		}
		prefix = prefix<<1 | uint32(b)
		if sym, ok := v.lookup[prefix|pad]; ok {
			return int(sym), nil
		}
		pad <<= 1
	}
	return 0, sample.Malformedf("no code within %d bits", maxCodeLen)
}

// RunLevel returns the run and level of coefficient symbol sym.
func (v *VLC) RunLevel(sym int) (int, float64) {
	if sym < 0 || sym >= len(v.run) {
		return 0, 0
	}
	return v.run[sym], v.level[sym]
}

// Len returns the number of codes in v.
func (v *VLC) Len() int { return len(v.lookup) }
