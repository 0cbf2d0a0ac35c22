/*
NAME
  oki.go

DESCRIPTION
  oki.go decodes headerless 4-bit OKI ADPCM scaled to 16-bit output.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package adpcm

// OKI step sizes for 12-bit output; shifted by okiShift for 16 bits.
var okiSteps = []int{
	16, 17, 19, 21, 23, 25, 28, 31, 34, 37, 41, 45, 50, 55, 60, 66,
	73, 80, 88, 97, 107, 118, 130, 143, 157, 173, 190, 209, 230, 253, 279, 307,
	337, 371, 408, 449, 494, 544, 598, 658, 724, 796, 876, 963, 1060, 1166, 1282, 1411,
	1552,
}

const okiShift = 4

var okiIndex = []int{-1, -1, -1, -1, 2, 4, 6, 8}

type okiState struct {
	est int16
	idx int
}

func (s *okiState) decode(nibble byte) int16 {
	step := okiSteps[s.idx] << okiShift
	diff := step >> 3
	if nibble&1 != 0 {
		diff += step >> 2
	}
	if nibble&2 != 0 {
		diff += step >> 1
	}
	if nibble&4 != 0 {
		diff += step
	}
	if nibble&8 != 0 {
		diff = -diff
	}
	s.est = capAdd16(int(s.est), diff)

	s.idx += okiIndex[nibble&7]
	if s.idx < 0 {
		s.idx = 0
	} else if s.idx > len(okiSteps)-1 {
		s.idx = len(okiSteps) - 1
	}
	return s.est
}

// decodeOKI decodes OKI4s data. Mono data holds two samples per byte, high
// nibble first; stereo data holds the left sample in the high nibble and the
// right in the low nibble.
func decodeOKI(nch int, b []byte) [][]int16 {
	out := make([][]int16, nch)
	st := make([]okiState, nch)
	if nch == 1 {
		out[0] = make([]int16, 0, 2*len(b))
		for _, v := range b {
			out[0] = append(out[0], st[0].decode(v>>4), st[0].decode(v&0xf))
		}
		return out
	}
	out[0] = make([]int16, 0, len(b))
	out[1] = make([]int16, 0, len(b))
	for _, v := range b {
		out[0] = append(out[0], st[0].decode(v>>4))
		out[1] = append(out[1], st[1].decode(v&0xf))
	}
	return out
}
