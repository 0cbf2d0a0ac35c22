/*
NAME
  va3.go

DESCRIPTION
  va3.go provides parsing of VA3 sample tables and decoding of their OKI
  ADPCM samples.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package bank

import (
	"encoding/binary"
	"strconv"

	"github.com/ausocean/bemani/codec/adpcm"
	"github.com/ausocean/bemani/sample"
)

// VA3 layout.
const (
	va3HeaderLen   = 28
	va3EntryLen    = 0x40
	va3NameOff     = 32
	gdxMagic       = "GDXG"
	gdxDrums       = 9
	otherDrums     = 6
	maxVolume      = 127.0
	panCentreScale = 128.0
)

// VA3Entry is one sample record of a VA3 table.
type VA3Entry struct {
	Name     string
	Offset   int // From the start of the VA3 file.
	Size     int
	Channels int
	Bits     int
	Rate     int
	Volume   float64 // 0 to 1.
	Pan      float64 // 0 to 1, 0.5 is centred.
	Index    int
}

// VA3 is a parsed VA3 sample table.
type VA3 struct {
	Version uint32
	Entries []VA3Entry

	// DefaultDrums maps drum note numbers to sample IDs, without a space.
	DefaultDrums []int
}

// ParseVA3 parses the VA3 table in b.
func ParseVA3(b []byte) (*VA3, error) {
	if len(b) < va3HeaderLen {
		return nil, sample.Malformedf("VA3 header truncated")
	}
	le := binary.LittleEndian
	v := &VA3{Version: binary.BigEndian.Uint32(b[4:])}
	n := int(le.Uint32(b[8:]))
	gdx := int(le.Uint32(b[16:]))
	entryStart := int(le.Uint32(b[20:]))
	dataStart := int(le.Uint32(b[24:]))

	if gdx+4 > len(b) {
		return nil, sample.Malformedf("VA3 drum table at %d out of range", gdx)
	}
	drums := otherDrums
	if string(b[gdx:gdx+4]) == gdxMagic {
		drums = gdxDrums
	}
	if gdx+4+2*drums > len(b) {
		return nil, sample.Malformedf("VA3 drum table truncated")
	}
	v.DefaultDrums = make([]int, drums)
	for i := range v.DefaultDrums {
		v.DefaultDrums[i] = int(le.Uint16(b[gdx+4+2*i:]))
	}

	if n < 0 || entryStart < 0 || entryStart > len(b) || n > (len(b)-entryStart)/va3EntryLen {
		return nil, sample.Malformedf("VA3 entry table of %d entries truncated", n)
	}
	v.Entries = make([]VA3Entry, n)
	for i := range v.Entries {
		e := b[entryStart+i*va3EntryLen : entryStart+(i+1)*va3EntryLen]
		name := e[va3NameOff:]
		for j, c := range name {
			if c == 0 {
				name = name[:j]
				break
			}
		}
		v.Entries[i] = VA3Entry{
			Name:     string(name),
			Offset:   int(le.Uint32(e)) + dataStart,
			Size:     int(le.Uint32(e[4:])),
			Channels: int(le.Uint16(e[8:])),
			Bits:     int(le.Uint16(e[10:])),
			Rate:     int(le.Uint32(e[12:])),
			Volume:   float64(e[24]) / maxVolume,
			Pan:      float64(e[25]) / panCentreScale,
			Index:    int(le.Uint16(e[26:])),
		}
	}
	return v, nil
}

// Data returns the sample bytes of e within the VA3 file b, clipped to the
// end of b.
func (e VA3Entry) Data(b []byte) []byte {
	start, end := e.Offset, e.Offset+e.Size
	if start > len(b) {
		start = len(b)
	}
	if end > len(b) {
		end = len(b)
	}
	if end < start {
		end = start
	}
	return b[start:end]
}

// Duration returns the playing time of e in seconds.
func (e VA3Entry) Duration() float64 {
	if e.Rate <= 0 {
		return 0
	}
	perByte := 2.0
	if e.Channels > 1 {
		perByte = 1
	}
	return float64(e.Size) * perByte / float64(e.Rate)
}

// FileNumber returns the entry's name read as a hexadecimal number.
func (e VA3Entry) FileNumber() (int, bool) {
	n, err := strconv.ParseUint(e.Name, 16, 16)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// VA3 decodes every sample of the VA3 table in b into the cache under
// space|Index and records its volume and pan. Playback metadata is also
// recorded under space|SpaceByFilename|FileNumber and, for the default
// drum mapping, under space|SpaceByNote|note.
func (d *Decoder) VA3(b []byte, space sample.ID) (*VA3, error) {
	v, err := ParseVA3(b)
	if err != nil {
		return nil, err
	}

	var jobs []job
	for _, e := range v.Entries {
		e := e
		id := space | sample.ID(e.Index)
		info := sample.Info{Volume: e.Volume, Pan: e.Pan, ID: id, Name: e.Name}
		d.cache.SetInfo(id, info)
		if n, ok := e.FileNumber(); ok {
			fn := sample.SpaceByFilename | space | sample.ID(n)
			if _, dup := d.cache.Info(fn); !dup {
				d.cache.SetInfo(fn, info)
			}
		}
		jobs = append(jobs, job{
			index: e.Index,
			id:    id,
			decode: func() (*sample.Decoded, error) {
				ch, err := adpcm.Decode(adpcm.Format{Codec: adpcm.OKI4s, Channels: stereo(e.Channels)}, e.Data(b))
				if err != nil {
					return nil, err
				}
				return &sample.Decoded{Rate: e.Rate, Channels: ch}, nil
			},
		})
	}
	for note, idx := range v.DefaultDrums {
		if info, ok := d.cache.Info(space | sample.ID(idx)); ok {
			d.cache.SetInfo(sample.SpaceByNote|space|sample.ID(note), info)
		}
	}
	d.run(jobs, 1)
	return v, nil
}

// stereo maps a channel count field to one or two channels.
func stereo(n int) int {
	if n > 1 {
		return 2
	}
	return 1
}
