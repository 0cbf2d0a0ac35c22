/*
NAME
  ima.go

DESCRIPTION
  ima.go decodes IMA ADPCM as stored in WAVE files.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package adpcm

import "encoding/binary"

// Table of index changes.
var indexTable = []int{
	-1, -1, -1, -1, 2, 4, 6, 8,
	-1, -1, -1, -1, 2, 4, 6, 8,
}

// Quantize step size table.
var stepTable = []int{
	7, 8, 9, 10, 11, 12, 13, 14,
	16, 17, 19, 21, 23, 25, 28, 31,
	34, 37, 41, 45, 50, 55, 60, 66,
	73, 80, 88, 97, 107, 118, 130, 143,
	157, 173, 190, 209, 230, 253, 279, 307,
	337, 371, 408, 449, 494, 544, 598, 658,
	724, 796, 876, 963, 1060, 1166, 1282, 1411,
	1552, 1707, 1878, 2066, 2272, 2499, 2749, 3024,
	3327, 3660, 4026, 4428, 4871, 5358, 5894, 6484,
	7132, 7845, 8630, 9493, 10442, 11487, 12635, 13899,
	15289, 16818, 18500, 20350, 22385, 24623, 27086, 29794,
	32767,
}

// imaState is the predictor state of one IMA channel.
type imaState struct {
	est int16 // Estimation of sample based on quantised ADPCM nibble.
	idx int   // Index to step used for estimation.
}

// decode takes a 4 bit ADPCM nibble and returns the decoded sample.
func (s *imaState) decode(nibble byte) int16 {
	step := stepTable[s.idx]
	diff := step >> 3
	if nibble&4 != 0 {
		diff += step
	}
	if nibble&2 != 0 {
		diff += step >> 1
	}
	if nibble&1 != 0 {
		diff += step >> 2
	}
	if nibble&8 != 0 {
		diff = -diff
	}
	s.est = capAdd16(int(s.est), diff)

	s.idx += indexTable[nibble&0xf]
	if s.idx < 0 {
		s.idx = 0
	} else if s.idx > len(stepTable)-1 {
		s.idx = len(stepTable) - 1
	}
	return s.est
}

// imaBlock decodes one block: a 4 byte header per channel holding the first
// sample and step index, then groups of 4 bytes per channel in turn, each
// byte holding two samples low nibble first.
func imaBlock(f Format, b []byte, out [][]int16) ([][]int16, error) {
	nch := f.Channels
	st := make([]imaState, nch)
	for ch := range st {
		h := b[4*ch:]
		st[ch].est = int16(binary.LittleEndian.Uint16(h))
		st[ch].idx = int(h[2])
		if st[ch].idx > len(stepTable)-1 {
			st[ch].idx = len(stepTable) - 1
		}
		out[ch] = append(out[ch], st[ch].est)
	}

	data := b[4*nch:]
	for off := 0; off+4*nch <= len(data); off += 4 * nch {
		for ch := 0; ch < nch; ch++ {
			for _, v := range data[off+4*ch : off+4*ch+4] {
				out[ch] = append(out[ch], st[ch].decode(v&0xf), st[ch].decode(v>>4))
			}
		}
	}
	return out, nil
}
