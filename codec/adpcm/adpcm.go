/*
NAME
  adpcm.go

DESCRIPTION
  adpcm.go provides the common entry point of the ADPCM decoders.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package adpcm decodes the ADPCM variants found in BEMANI sample data:
// IMA and Microsoft ADPCM from WAVE files, and the OKI 4-bit variant used by
// VA3 tables and BMP streams.
package adpcm

import (
	"math"

	"github.com/ausocean/bemani/sample"
)

// Codec is an ADPCM variant.
type Codec int

const (
	IMA Codec = iota
	MS
	OKI4s
)

// String returns the name of c.
func (c Codec) String() string {
	switch c {
	case IMA:
		return "IMA-ADPCM"
	case MS:
		return "MS-ADPCM"
	case OKI4s:
		return "OKI4s"
	}
	return "unknown"
}

// Format describes an ADPCM stream.
type Format struct {
	Codec    Codec
	Channels int

	// BlockAlign is the size in bytes of one block of IMA or MS data. It is
	// not used by OKI4s, which has no block headers.
	BlockAlign int

	// Coefs optionally replaces the MS-ADPCM predictor table.
	Coefs [][2]int
}

// Decode decodes the ADPCM data in b and returns one sample slice per
// channel. A trailing partial block is decoded as far as its data goes.
func Decode(f Format, b []byte) ([][]int16, error) {
	if f.Channels < 1 || f.Channels > 2 {
		return nil, sample.Unsupportedf("%s with %d channels", f.Codec, f.Channels)
	}
	switch f.Codec {
	case IMA:
		return decodeBlocks(f, b, 4, imaBlock)
	case MS:
		return decodeBlocks(f, b, 7, msBlock)
	case OKI4s:
		return decodeOKI(f.Channels, b), nil
	}
	return nil, sample.Unsupportedf("ADPCM codec %d", f.Codec)
}

// blockFunc decodes one block, appending to out.
type blockFunc func(f Format, b []byte, out [][]int16) ([][]int16, error)

// decodeBlocks splits b into blocks of f.BlockAlign bytes. headLen is the
// per channel header size; a final block shorter than the headers is
// ignored.
func decodeBlocks(f Format, b []byte, headLen int, fn blockFunc) ([][]int16, error) {
	if f.BlockAlign <= headLen*f.Channels {
		return nil, sample.Malformedf("%s block align %d", f.Codec, f.BlockAlign)
	}
	out := make([][]int16, f.Channels)
	for off := 0; off+headLen*f.Channels <= len(b); off += f.BlockAlign {
		end := off + f.BlockAlign
		if end > len(b) {
			end = len(b)
		}
		var err error
		out, err = fn(f, b[off:end], out)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// capAdd16 adds two ints and caps at max/min int16 instead of overflowing.
func capAdd16(a, b int) int16 {
	c := a + b
	switch {
	case c < math.MinInt16:
		return math.MinInt16
	case c > math.MaxInt16:
		return math.MaxInt16
	default:
		return int16(c)
	}
}
