/*
NAME
  twodx.go

DESCRIPTION
  twodx.go provides loading of 2DX banks, which hold RIFF/WAVE samples.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package bank

import (
	"bytes"
	"encoding/binary"

	"github.com/ausocean/bemani/codec/wav"
	"github.com/ausocean/bemani/sample"
)

// 2DX layout.
const (
	twoDXCountOff     = 20 // Entry count offset for banks without a name prefix.
	twoDXPrefixedOff  = 28 // Entry count offset for banks starting with '%'.
	twoDXPrefixedBase = 8  // Added to offsets of banks starting with '%'.
	twoDXTableSkip    = 48 // Bytes between the entry count and the offsets.
	twoDXEntryLen     = 18
	twoDXTypeBG       = 0x3230
)

var twoDXMagics = [][]byte{[]byte("2DX9"), []byte("SD9\x00")}

// BackgroundID returns the ID of the n'th background sample of a 2DX bank,
// counting from one.
func BackgroundID(n int) sample.ID { return sample.SpaceDrums | sample.ID(n) }

// twoDXEntry is a parsed 2DX table entry.
type twoDXEntry struct {
	index      int // 1-based table position.
	data       []byte
	background bool
}

// twoDXOffsets returns the 2DX entry table of b. Empty slots are zero.
func twoDXOffsets(b []byte) ([]int, error) {
	pos, base := twoDXCountOff, 0
	if len(b) > 0 && b[0] == '%' {
		pos, base = twoDXPrefixedOff, twoDXPrefixedBase
	}
	if len(b) < pos+4 {
		return nil, sample.Malformedf("2DX header truncated")
	}
	n := int(binary.LittleEndian.Uint32(b[pos:]))
	pos += 4 + twoDXTableSkip
	if n < 0 || pos > len(b) || n > (len(b)-pos)/4 {
		return nil, sample.Malformedf("2DX offset table of %d entries truncated", n)
	}
	offs := make([]int, n)
	for i := range offs {
		v := int(binary.LittleEndian.Uint32(b[pos+4*i:]))
		if v != 0 {
			offs[i] = v + base
		}
	}
	return offs, nil
}

// twoDXEntries parses every entry of the 2DX bank b, or only the 1-based
// entry only if it is non-zero. Any bad entry header fails the whole bank.
func twoDXEntries(b []byte, only int) ([]twoDXEntry, error) {
	offs, err := twoDXOffsets(b)
	if err != nil {
		return nil, err
	}
	if only > len(offs) {
		return nil, sample.Malformedf("entry %d of %d requested", only, len(offs))
	}

	var entries []twoDXEntry
	for i, off := range offs {
		if off == 0 || (only != 0 && i != only-1) {
			continue
		}
		if off+twoDXEntryLen > len(b) {
			return nil, sample.Malformedf("2DX entry %d at %d truncated", i+1, off)
		}
		h := b[off : off+twoDXEntryLen]
		if !bytes.Equal(h[:4], twoDXMagics[0]) && !bytes.Equal(h[:4], twoDXMagics[1]) {
			return nil, sample.Malformedf("2DX entry %d has bad magic %q", i+1, h[:4])
		}
		start := off + int(binary.LittleEndian.Uint32(h[4:]))
		size := int(binary.LittleEndian.Uint32(h[8:]))
		if start < off || size < 0 || start+size > len(b) {
			return nil, sample.Malformedf("2DX entry %d data truncated", i+1)
		}
		typ := binary.LittleEndian.Uint16(h[12:])
		tracks := binary.LittleEndian.Uint16(h[14:])
		entries = append(entries, twoDXEntry{
			index:      i + 1,
			data:       b[start : start+size : start+size],
			background: typ == twoDXTypeBG && tracks == 0,
		})
	}
	return entries, nil
}

// TwoDX decodes the 2DX bank b into the cache and returns the number of
// samples stored. Entries are stored under their 1-based table index;
// background entries are also stored under BackgroundID, numbered in table
// order. An error is returned if the bank header or any entry header
// is bad, in which case nothing is decoded.
func (d *Decoder) TwoDX(b []byte, o Options) (int, error) {
	entries, err := twoDXEntries(b, 0)
	if err != nil {
		return 0, err
	}

	var jobs []job
	var bg int
	for _, e := range entries {
		var alias sample.ID
		if e.background {
			bg++
			alias = BackgroundID(bg) | o.Space
		}
		if o.Only != 0 && e.index != o.Only {
			continue
		}
		data := e.data
		jobs = append(jobs, job{
			index:  e.index,
			id:     sample.ID(e.index) | o.Space,
			alias:  alias,
			decode: func() (*sample.Decoded, error) { return wav.Decode(data) },
		})
	}
	return d.run(jobs, o.Workers), nil
}

// IsTwoDX reports whether b holds a 2DX bank with at least one entry.
func IsTwoDX(b []byte) bool {
	offs, err := twoDXOffsets(b)
	if err != nil {
		return false
	}
	for _, off := range offs {
		if off == 0 {
			continue
		}
		if off+4 > len(b) {
			return false
		}
		return bytes.Equal(b[off:off+4], twoDXMagics[0]) || bytes.Equal(b[off:off+4], twoDXMagics[1])
	}
	return false
}

// TwoDXIDs lists the sample IDs of the 2DX bank b without decoding.
func TwoDXIDs(b []byte, space sample.ID) ([]sample.ID, error) {
	offs, err := twoDXOffsets(b)
	if err != nil {
		return nil, err
	}
	var ids []sample.ID
	for i, off := range offs {
		if off != 0 {
			ids = append(ids, sample.ID(i+1)|space)
		}
	}
	return ids, nil
}

// TwoDXSample decodes the 1-based entry index of the 2DX bank b.
func TwoDXSample(b []byte, index int) (*sample.Decoded, error) {
	if index < 1 {
		return nil, sample.Malformedf("bad entry index %d", index)
	}
	entries, err := twoDXEntries(b, index)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, sample.Malformedf("entry %d is empty", index)
	}
	return wav.Decode(entries[0].data)
}
