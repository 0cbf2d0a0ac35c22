/*
NAME
  sq.go

DESCRIPTION
  sq.go provides tracks for the SQ2 and SQ3 multi-instrument chart formats.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package sequence

import (
	"bytes"
	"encoding/binary"

	"github.com/ausocean/bemani/sample"
)

// Chart header layout shared by both generations.
const (
	chartMinLen    = 22
	chartMetaOff   = 21
	chartHeaderOff = 12
	chartCountOff  = 16
	chartEvSizeOff = 28
	sq2EventLen    = 16
	sq3MinEventLen = 49
	ticksPerSecond = 300.0
	maxEventVolume = 127.0
	sq3NoteEvent   = 0x10
	sq3SampleOff   = 32
	sq3DurationOff = 36
	sq3VolumeOff   = 45
	sq3NoteOff     = 48
	sq2KindOff     = 5
	sq2SampleOff   = 8
	sq2VolumeOff   = 12
	sq3KindOff     = 4
	sq2KindNote    = 0
	sq2KindNoteAlt = 1
)

var (
	sq2Magic = []byte("SEQT")
	sq3Magic = []byte("SQ3T")
)

// locate returns b from the first note chart starting with magic,
// skipping metadata charts, or nil if there is none.
func locate(b, magic []byte) []byte {
	for {
		i := bytes.Index(b, magic)
		if i < 0 || len(b)-i < chartMinLen {
			return nil
		}
		b = b[i:]
		if b[chartMetaOff] == 0 {
			return b
		}
		b = b[1:]
	}
}

// chart locates the first note chart starting with magic in b and returns
// its event records and their size. evSize reads the record size from a
// chart header.
func chart(b, magic []byte, evSize func(h []byte) int) ([]byte, int, error) {
	b = locate(b, magic)
	if b == nil {
		return nil, 0, sample.Malformedf("no %s chart found", magic)
	}
	size := evSize(b)
	if size <= 0 {
		return nil, 0, sample.Malformedf("%s chart header truncated", magic)
	}
	hdr := int(binary.LittleEndian.Uint32(b[chartHeaderOff:]))
	n := int(binary.LittleEndian.Uint32(b[chartCountOff:]))
	if hdr > len(b) || n > (len(b)-hdr)/size {
		return nil, 0, sample.Malformedf("%s chart truncated", magic)
	}
	return b[hdr : hdr+n*size], size, nil
}

func sq2Size([]byte) int { return sq2EventLen }

func sq3Size(h []byte) int {
	if len(h) < chartEvSizeOff+4 {
		return 0
	}
	n := int(binary.LittleEndian.Uint32(h[chartEvSizeOff:]))
	if n < sq3MinEventLen {
		return 0
	}
	return n
}

// lastTime returns the time of the final record of events.
func lastTime(events []byte, size int) float64 {
	if len(events) < size {
		return 0
	}
	return float64(binary.LittleEndian.Uint32(events[len(events)-size:])) / ticksPerSecond
}

// sqTrack holds the state shared by SQ2 and SQ3 tracks.
type sqTrack struct {
	events []byte
	size   int
	pos    int
	space  sample.ID
	info   InfoSource
	length float64

	hold   *SampleEvent
	last   uint64
	nextID uint64
}

// Finished implements Track.
func (t *sqTrack) Finished() bool { return t.hold == nil && t.pos >= len(t.events) }

// Length implements Track.
func (t *sqTrack) Length() float64 { return t.length }

// Reset implements Track.
func (t *sqTrack) Reset() {
	t.pos = 0
	t.hold = nil
	t.last = 0
	t.nextID = 0
}

// emit assigns e a playback ID and, if kill is set, returns a KillEvent for
// the previous playback with e held back until the next call.
func (t *sqTrack) emit(e *SampleEvent, kill bool) Event {
	t.nextID++
	e.PlaybackID = t.nextID
	if !kill {
		return e
	}
	prev := t.last
	t.last = e.PlaybackID
	if prev == 0 {
		return e
	}
	t.hold = e
	return &KillEvent{Time: e.Time, PlaybackID: prev}
}

func (t *sqTrack) held() (Event, bool) {
	if t.hold == nil {
		return nil, false
	}
	e := t.hold
	t.hold = nil
	return e, true
}

// resolve applies the metadata found for e to it, trying the filename
// mapping, then the sample ID, then the default sample for note.
func (t *sqTrack) resolve(e *SampleEvent, note byte) {
	if t.info == nil {
		return
	}
	for _, k := range []sample.ID{
		e.ID | sample.SpaceByFilename,
		e.ID,
		sample.SpaceByNote | t.space | sample.ID(note),
	} {
		if i, ok := t.info.Info(k); ok {
			e.Volume *= i.Volume
			e.Pan = i.Pan
			e.ID = t.space | sample.ID(i.ID.Index())
			return
		}
	}
}

// Sq2Track is a Track over an SQ2 chart. Notes on parts other than drums
// stop the part's previous note.
type Sq2Track struct {
	sqTrack
}

// NewSq2 returns a track over the first note chart in the SQ2 file b. Note
// sample IDs are ORed with space and resolved through info as for SQ3.
func NewSq2(b []byte, space sample.ID, info InfoSource) (*Sq2Track, error) {
	events, size, err := chart(b, sq2Magic, sq2Size)
	if err != nil {
		return nil, err
	}
	return &Sq2Track{sqTrack{events: events, size: size, space: space, info: info, length: lastTime(events, size)}}, nil
}

// Next implements Track.
func (t *Sq2Track) Next() (Event, bool) {
	if e, ok := t.held(); ok {
		return e, true
	}
	le := binary.LittleEndian
	for t.pos < len(t.events) {
		r := t.events[t.pos : t.pos+t.size]
		t.pos += t.size
		if k := r[sq2KindOff]; k != sq2KindNote && k != sq2KindNoteAlt {
			continue
		}
		idx := le.Uint16(r[sq2SampleOff:])
		if idx == 0 {
			continue
		}
		e := &SampleEvent{
			Time:   float64(le.Uint32(r)) / ticksPerSecond,
			ID:     t.space | sample.ID(idx),
			Volume: float64(r[sq2VolumeOff]) / maxEventVolume,
			Pan:    Centre,
		}
		// SQ2 records carry no note; the index stands in for it.
		t.resolve(e, byte(idx))
		return t.emit(e, t.space != sample.SpaceDrums), true
	}
	return nil, false
}

// Sq3Track is a Track over an SQ3 chart. A note with a sustain stops the
// previous sustained note of the part.
type Sq3Track struct {
	sqTrack
}

// NewSq3 returns a track over the first note chart in the SQ3 file b. Files
// holding an SQ2 chart ahead of any SQ3 chart give an *Sq2Track. Note
// sample IDs are resolved through info, trying the filename mapping, then
// the sample ID, then the default drum for the note.
func NewSq3(b []byte, space sample.ID, info InfoSource) (Track, error) {
	i2, i3 := bytes.Index(b, sq2Magic), bytes.Index(b, sq3Magic)
	if i2 >= 0 && (i3 < 0 || i2 < i3) {
		t, err := NewSq2(b, space, info)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	events, size, err := chart(b, sq3Magic, sq3Size)
	if err != nil {
		return nil, err
	}
	return &Sq3Track{sqTrack{events: events, size: size, space: space, info: info, length: lastTime(events, size)}}, nil
}

// Next implements Track.
func (t *Sq3Track) Next() (Event, bool) {
	if e, ok := t.held(); ok {
		return e, true
	}
	le := binary.LittleEndian
	for t.pos < len(t.events) {
		r := t.events[t.pos : t.pos+t.size]
		t.pos += t.size
		if r[sq3KindOff] != sq3NoteEvent {
			continue
		}
		e := &SampleEvent{
			Time:   float64(le.Uint32(r)) / ticksPerSecond,
			ID:     t.space | sample.ID(le.Uint32(r[sq3SampleOff:]))&sample.IndexMask,
			Volume: float64(r[sq3VolumeOff]) / maxEventVolume,
			Pan:    Centre,
		}
		t.resolve(e, r[sq3NoteOff])
		return t.emit(e, le.Uint32(r[sq3DurationOff:]) > 0), true
	}
	return nil, false
}

// ChartLength returns the time of the last event of the first chart in b
// without building a track. A truncated chart is measured up to its last
// complete record. Zero is returned if no chart is found.
func ChartLength(b []byte, sq3 bool) float64 {
	magic, evSize := sq2Magic, sq2Size
	if sq3 {
		i2, i3 := bytes.Index(b, sq2Magic), bytes.Index(b, sq3Magic)
		if i3 >= 0 && (i2 < 0 || i3 < i2) {
			magic, evSize = sq3Magic, sq3Size
		}
	}
	b = locate(b, magic)
	if b == nil {
		return 0
	}
	size := evSize(b)
	if size <= 0 {
		return 0
	}
	hdr := int(binary.LittleEndian.Uint32(b[chartHeaderOff:]))
	n := int(binary.LittleEndian.Uint32(b[chartCountOff:]))
	if hdr > len(b) {
		return 0
	}
	if avail := (len(b) - hdr) / size; n > avail {
		n = avail
	}
	return lastTime(b[hdr:hdr+n*size], size)
}
