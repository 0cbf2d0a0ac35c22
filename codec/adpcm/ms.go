/*
NAME
  ms.go

DESCRIPTION
  ms.go decodes Microsoft ADPCM as stored in WAVE files.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package adpcm

import (
	"encoding/binary"

	"github.com/ausocean/bemani/sample"
)

// DefaultCoefs is the standard MS-ADPCM predictor coefficient table.
var DefaultCoefs = [][2]int{
	{256, 0}, {512, -256}, {0, 0}, {192, 64}, {240, 0}, {460, -208}, {392, -232},
}

var msAdapt = []int{
	230, 230, 230, 230, 307, 409, 512, 614,
	768, 614, 512, 409, 307, 230, 230, 230,
}

const msMinDelta = 16

type msState struct {
	c1, c2       int
	delta        int
	samp1, samp2 int16
}

func (s *msState) decode(nibble byte) int16 {
	n := int(nibble)
	if n >= 8 {
		n -= 16
	}
	pred := (int(s.samp1)*s.c1 + int(s.samp2)*s.c2) / 256
	v := capAdd16(pred, n*s.delta)
	s.samp2, s.samp1 = s.samp1, v
	s.delta = msAdapt[nibble] * s.delta >> 8
	if s.delta < msMinDelta {
		s.delta = msMinDelta
	}
	return v
}

// msBlock decodes one block. The header holds the predictor index of each
// channel, then the initial delta, then the two history samples. Nibbles
// follow high first, alternating channels when stereo.
func msBlock(f Format, b []byte, out [][]int16) ([][]int16, error) {
	coefs := f.Coefs
	if len(coefs) == 0 {
		coefs = DefaultCoefs
	}
	nch := f.Channels
	st := make([]msState, nch)
	for ch := range st {
		p := int(b[ch])
		if p >= len(coefs) {
			return out, sample.Malformedf("MS-ADPCM predictor %d", p)
		}
		st[ch].c1, st[ch].c2 = coefs[p][0], coefs[p][1]
		st[ch].delta = int(int16(binary.LittleEndian.Uint16(b[nch+2*ch:])))
		st[ch].samp1 = int16(binary.LittleEndian.Uint16(b[3*nch+2*ch:]))
		st[ch].samp2 = int16(binary.LittleEndian.Uint16(b[5*nch+2*ch:]))
	}
	for ch := range st {
		out[ch] = append(out[ch], st[ch].samp2, st[ch].samp1)
	}

	ch := 0
	for _, v := range b[7*nch:] {
		for _, nib := range [2]byte{v >> 4, v & 0xf} {
			out[ch] = append(out[ch], st[ch].decode(nib))
			ch = (ch + 1) % nch
		}
	}
	return out, nil
}
