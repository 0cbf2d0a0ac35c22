/*
NAME
  s3p.go

DESCRIPTION
  s3p.go provides loading of S3P banks, which hold ASF wrapped WMA samples.

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

	"github.com/ausocean/bemani/codec/asf"
	"github.com/ausocean/bemani/codec/wma"
	"github.com/ausocean/bemani/sample"
)

// S3P layout.
const (
	s3pHeaderLen   = 8
	s3pTableStride = 8
	s3vHeaderLen   = 12
)

var (
	s3pMagic = []byte("S3P0")
	s3vMagic = []byte("S3V0")
)

// IsS3P reports whether b starts with an S3P header.
func IsS3P(b []byte) bool { return bytes.HasPrefix(b, s3pMagic) }

// s3pEntries returns the ASF data of every entry of the S3P bank b. Any bad
// entry header fails the whole bank.
func s3pEntries(b []byte) ([][]byte, error) {
	if len(b) < s3pHeaderLen || !IsS3P(b) {
		return nil, sample.Malformedf("bad S3P header")
	}
	n := int(binary.LittleEndian.Uint32(b[4:]))
	if n < 0 || n > (len(b)-s3pHeaderLen)/s3pTableStride {
		return nil, sample.Malformedf("S3P offset table of %d entries truncated", n)
	}

	entries := make([][]byte, n)
	for i := range entries {
		off := int(binary.LittleEndian.Uint32(b[s3pHeaderLen+i*s3pTableStride:]))
		if off+s3vHeaderLen > len(b) {
			return nil, sample.Malformedf("S3P entry %d at %d truncated", i+1, off)
		}
		h := b[off : off+s3vHeaderLen]
		if !bytes.Equal(h[:4], s3vMagic) {
			return nil, sample.Malformedf("S3P entry %d has bad magic %q", i+1, h[:4])
		}
		start := off + int(binary.LittleEndian.Uint32(h[4:]))
		size := int(binary.LittleEndian.Uint32(h[8:]))
		if start < off || size < 0 || start+size > len(b) {
			return nil, sample.Malformedf("S3P entry %d data truncated", i+1)
		}
		entries[i] = b[start : start+size : start+size]
	}
	return entries, nil
}

// S3P decodes the S3P bank b into the cache and returns the number of
// samples stored. Entry i is stored under ID i+1. An error is returned if
// the bank header or any entry header is bad, in which case nothing is
// decoded.
func (d *Decoder) S3P(b []byte, o Options) (int, error) {
	if d.tables == nil {
		return 0, sample.Unsupportedf("S3P bank without WMA tables")
	}
	entries, err := s3pEntries(b)
	if err != nil {
		return 0, err
	}
	if o.Only > len(entries) {
		return 0, sample.Malformedf("entry %d of %d requested", o.Only, len(entries))
	}

	var jobs []job
	for i, data := range entries {
		if o.Only != 0 && i != o.Only-1 {
			continue
		}
		data := data
		jobs = append(jobs, job{
			index:  i + 1,
			id:     sample.ID(i+1) | o.Space,
			decode: func() (*sample.Decoded, error) { return asf.Decode(d.tables, data) },
		})
	}
	return d.run(jobs, o.Workers), nil
}

// S3PIDs lists the sample IDs of the S3P bank b without decoding.
func S3PIDs(b []byte, space sample.ID) ([]sample.ID, error) {
	if len(b) < s3pHeaderLen || !IsS3P(b) {
		return nil, sample.Malformedf("bad S3P header")
	}
	n := int(binary.LittleEndian.Uint32(b[4:]))
	if n < 0 || n > (len(b)-s3pHeaderLen)/s3pTableStride {
		return nil, sample.Malformedf("S3P offset table of %d entries truncated", n)
	}
	ids := make([]sample.ID, n)
	for i := range ids {
		ids[i] = sample.ID(i+1) | space
	}
	return ids, nil
}

// S3PSample decodes the 1-based entry index of the S3P bank b.
func S3PSample(t *wma.Tables, b []byte, index int) (*sample.Decoded, error) {
	entries, err := s3pEntries(b)
	if err != nil {
		return nil, err
	}
	if index < 1 || index > len(entries) {
		return nil, sample.Malformedf("entry %d of %d requested", index, len(entries))
	}
	return asf.Decode(t, entries[index-1])
}
