/*
NAME
  asf.go

DESCRIPTION
  asf.go locates the header objects and data packets of an ASF file holding
  a single WMA stream and decodes the stream with package wma.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package asf demultiplexes single stream ASF files carrying WMAv2 audio.
package asf

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/ausocean/bemani/codec/wma"
	"github.com/ausocean/bemani/sample"
)

// Object GUIDs in their on-disk byte order.
var (
	guidFileProps   = []byte{0xa1, 0xdc, 0xab, 0x8c, 0x47, 0xa9, 0xcf, 0x11, 0x8e, 0xe4, 0x00, 0xc0, 0x0c, 0x20, 0x53, 0x65}
	guidStreamProps = []byte{0x91, 0x07, 0xdc, 0xb7, 0xb7, 0xa9, 0xcf, 0x11, 0x8e, 0xe6, 0x00, 0xc0, 0x0c, 0x20, 0x53, 0x65}
	guidData        = []byte{0x36, 0x26, 0xb2, 0x75, 0x8e, 0x66, 0xcf, 0x11, 0xa6, 0xd9, 0x00, 0xaa, 0x00, 0x62, 0xce, 0x6c}
)

// Field offsets, relative to the end of the owning object's GUID.
const (
	fileDurationOff  = 48 // Play duration, 100 ns units.
	fileMaxPacketOff = 80

	streamTypeLenOff = 48 // Length of the type specific data.
	streamFormatOff  = 62 // Type specific data; a WAVEFORMATEX for audio.

	dataPacketsOff = 34 // Size, file ID, packet count and reserved fields.
)

const guidLen = 16

// File describes the WMA stream of an ASF file.
type File struct {
	Format        wma.Format
	MaxPacketSize int
	Duration      time.Duration

	// Packets holds the data object's packets.
	Packets []byte
}

// Parse locates the file properties, stream properties and data objects of
// the ASF file in b.
func Parse(b []byte) (*File, error) {
	props := find(b, guidStreamProps, 0)
	if props < 0 || props+streamFormatOff > len(b) {
		return nil, sample.Malformedf("no stream properties")
	}
	fmtEnd := props + streamFormatOff + int(binary.LittleEndian.Uint32(b[props+streamTypeLenOff:]))
	if fmtEnd > len(b) {
		return nil, sample.Malformedf("stream properties overrun file (%d > %d)", fmtEnd, len(b))
	}
	format, err := wma.ParseFormat(b[props+streamFormatOff : fmtEnd])
	if err != nil {
		return nil, err
	}

	f := &File{Format: format}
	if fp := find(b, guidFileProps, 0); fp >= 0 && fp+fileMaxPacketOff+4 <= len(b) {
		f.MaxPacketSize = int(binary.LittleEndian.Uint32(b[fp+fileMaxPacketOff:]))
		f.Duration = time.Duration(binary.LittleEndian.Uint64(b[fp+fileDurationOff:])) * 100
	}

	data := find(b, guidData, fmtEnd)
	if data < 0 || data+dataPacketsOff > len(b) {
		return nil, sample.Malformedf("no data object")
	}
	end := len(b)
	if size := binary.LittleEndian.Uint64(b[data:]); size < uint64(end-data+guidLen) {
		end = data - guidLen + int(size)
	}
	if end < data+dataPacketsOff {
		return nil, sample.Malformedf("data object too small")
	}
	f.Packets = b[data+dataPacketsOff : end]
	return f, nil
}

// Decode decodes the WMA stream of the ASF file in b using tables t. A
// partially decoded stream is returned along with the error that ended it.
func Decode(t *wma.Tables, b []byte) (*sample.Decoded, error) {
	f, err := Parse(b)
	if err != nil {
		return nil, err
	}
	if f.Format.Tag != wma.FormatWMAv2 {
		return nil, sample.Unsupportedf("format tag %#x", f.Format.Tag)
	}
	d, err := wma.NewDecoder(t, f.Format, f.MaxPacketSize)
	if err != nil {
		return nil, err
	}
	return d.Decode(f.Packets)
}

// Duration returns the play duration recorded in the file properties of the
// ASF file in b, and false if there is none.
func Duration(b []byte) (time.Duration, bool) {
	fp := find(b, guidFileProps, 0)
	if fp < 0 || fp+fileDurationOff+8 > len(b) {
		return 0, false
	}
	return time.Duration(binary.LittleEndian.Uint64(b[fp+fileDurationOff:])) * 100, true
}

// find returns the offset just past the first occurrence of guid in b at or
// after from, or -1.
func find(b, guid []byte, from int) int {
	if from > len(b) {
		return -1
	}
	i := bytes.Index(b[from:], guid)
	if i < 0 {
		return -1
	}
	return from + i + len(guid)
}
