/*
NAME
  one.go

DESCRIPTION
  one.go provides parsing of IIDX .1 charts and the pop'n chart variant.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package sequence

import (
	"encoding/binary"

	"github.com/ausocean/bemani/container/bank"
	"github.com/ausocean/bemani/sample"
)

// .1 chart commands.
const (
	cmdKeyP1     = 0
	cmdKeyP2     = 1
	cmdBindP1    = 2
	cmdBindP2    = 3
	cmdEnd       = 6
	cmdBG        = 7
	cmdBindAlias = 16
)

// pop'n record types.
const (
	popnKey  = 1
	popnBind = 2
	popnBG   = 3
)

const (
	endOffset    = 0x7fffffff
	oneRecordLen = 8
	oneKeys      = 8
	retrigger    = 7 // Key param whose value is a retrigger delay in ms.
	popnMarker   = 0x45
	popnKeys     = 16
	probeRecords = 4
)

// Parse parses a .1 chart, detecting the pop'n variant.
func Parse(b []byte) (*BasicTrack, error) {
	if popnRecordLen(b) != 0 {
		return ParsePopn(b)
	}
	return ParseOne(b)
}

// ParseOne parses an IIDX .1 chart. The header holds the offset and byte
// length of the chart's 8-byte records. Running out of records before the
// end marker is an error.
func ParseOne(b []byte) (*BasicTrack, error) {
	if len(b) < 8 {
		return nil, sample.Malformedf(".1 header truncated")
	}
	le := binary.LittleEndian
	start := int(le.Uint32(b))
	n := int(le.Uint32(b[4:]) / oneRecordLen)

	var keys [2][oneKeys]sample.ID
	t := &BasicTrack{}
	for i := 0; i < n; i++ {
		pos := start + i*oneRecordLen
		if pos < 0 || pos+oneRecordLen > len(b) {
			return nil, sample.Malformedf("unexpected end of chart at record %d", i)
		}
		r := b[pos : pos+oneRecordLen]
		off := le.Uint32(r)
		if off == endOffset {
			break
		}
		cmd, param, value := r[4], int(r[5]), le.Uint16(r[6:])
		if cmd == cmdBindAlias {
			cmd = cmdBindP1
		}

		switch cmd {
		case cmdKeyP1, cmdKeyP2:
			if param >= oneKeys {
				continue
			}
			id := keys[cmd][param]
			trigger(t, ms(off), id)
			if param == retrigger && value != 0 {
				trigger(t, ms(off+uint32(value)), id)
			}
		case cmdBindP1, cmdBindP2:
			if param < oneKeys {
				keys[cmd-cmdBindP1][param] = sample.ID(value)
			}
		case cmdEnd:
			return t, nil
		case cmdBG:
			trigger(t, ms(off), sample.ID(value))
		}
	}
	return t, nil
}

// ParsePopn parses a pop'n chart. Records start at the beginning of the
// file and hold an offset, a 0x45 marker, a type and a 16-bit field. The
// record length is 8 or 12 bytes depending on the game version. The end of
// the data is a normal end of chart.
func ParsePopn(b []byte) (*BasicTrack, error) {
	size := popnRecordLen(b)
	if size == 0 {
		return nil, sample.Malformedf("not a pop'n chart")
	}
	le := binary.LittleEndian

	var keys [popnKeys]sample.ID
	t := &BasicTrack{}
	for pos := 0; pos+size <= len(b); pos += size {
		r := b[pos : pos+size]
		off := le.Uint32(r)
		if off == endOffset {
			break
		}
		if r[4] != popnMarker {
			continue
		}
		field := le.Uint16(r[6:])
		switch r[5] {
		case popnKey:
			trigger(t, ms(off), keys[field&0xf])
		case popnBind:
			keys[field>>12] = sample.ID(field & 0xfff)
		case popnBG:
			trigger(t, ms(off), bank.BackgroundID(1))
		}
	}
	return t, nil
}

// popnRecordLen returns the record length of the pop'n chart in b, or zero
// if b does not look like one. The length whose first records carry the
// most markers wins; ties go to 8.
func popnRecordLen(b []byte) int {
	if len(b) < 8 || b[4] != popnMarker {
		return 0
	}
	count := func(size int) int {
		var n int
		for i := 1; i <= probeRecords; i++ {
			if p := i*size + 4; p < len(b) && b[p] == popnMarker {
				n++
			}
		}
		return n
	}
	short, long := count(8), count(12)
	switch {
	case short == 0 && long == 0:
		if len(b) < 20 {
			return 8
		}
		return 0
	case long > short:
		return 12
	}
	return 8
}

func trigger(t *BasicTrack, at float64, id sample.ID) {
	if id == 0 {
		return
	}
	t.Add(&SampleEvent{Time: at, ID: id, Volume: 1, Pan: Centre})
}

func ms(v uint32) float64 { return float64(v) / 1000 }
