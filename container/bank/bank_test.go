/*
NAME
  bank_test.go

DESCRIPTION
  bank_test.go contains tests for the 2DX, S3P, VA3 and BMP loaders.

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
	"testing"

	"github.com/ausocean/utils/logging"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/ausocean/bemani/sample"
)

var le = binary.LittleEndian

// pcmWave returns a mono 16-bit RIFF/WAVE file holding s.
func pcmWave(rate int, s ...int16) []byte {
	var b []byte
	b = append(b, "RIFF"...)
	b = le.AppendUint32(b, 0)
	b = append(b, "WAVEfmt "...)
	b = le.AppendUint32(b, 16)
	b = le.AppendUint16(b, 1)
	b = le.AppendUint16(b, 1)
	b = le.AppendUint32(b, uint32(rate))
	b = le.AppendUint32(b, uint32(rate*2))
	b = le.AppendUint16(b, 2)
	b = le.AppendUint16(b, 16)
	b = append(b, "data"...)
	b = le.AppendUint32(b, uint32(2*len(s)))
	for _, v := range s {
		b = le.AppendUint16(b, uint16(v))
	}
	le.PutUint32(b[4:], uint32(len(b)-8))
	return b
}

// twoDXItem is one entry of a synthetic 2DX bank. A nil data leaves the
// slot empty.
type twoDXItem struct {
	data       []byte
	magic      string
	background bool
}

// twoDX builds a 2DX bank without a name prefix.
func twoDX(items ...twoDXItem) []byte {
	const tableOff = twoDXCountOff + 4 + twoDXTableSkip
	b := make([]byte, tableOff+4*len(items))
	le.PutUint32(b[twoDXCountOff:], uint32(len(items)))
	for i, it := range items {
		if it.data == nil {
			continue
		}
		le.PutUint32(b[tableOff+4*i:], uint32(len(b)))
		magic := it.magic
		if magic == "" {
			magic = "2DX9"
		}
		h := make([]byte, twoDXEntryLen)
		copy(h, magic)
		le.PutUint32(h[4:], twoDXEntryLen)
		le.PutUint32(h[8:], uint32(len(it.data)))
		if it.background {
			le.PutUint16(h[12:], twoDXTypeBG)
		} else {
			le.PutUint16(h[14:], 1)
		}
		b = append(b, h...)
		b = append(b, it.data...)
	}
	return b
}

func newDecoder(t *testing.T) (*Decoder, *sample.Cache) {
	c := sample.NewCache()
	return NewDecoder(nil, c, (*logging.TestLogger)(t)), c
}

func TestTwoDX(t *testing.T) {
	tests := []struct {
		name  string
		bank  []byte
		opts  Options
		want  map[sample.ID][]int16
		count int
	}{
		{
			name: "empty slot",
			bank: twoDX(twoDXItem{data: pcmWave(44100, 1, -1)}, twoDXItem{}),
			opts: Options{Space: sample.SpaceKeyboard},
			want: map[sample.ID][]int16{
				1 | sample.SpaceKeyboard: {1, -1},
			},
			count: 1,
		},
		{
			name:  "positional IDs",
			bank:  twoDX(twoDXItem{}, twoDXItem{data: pcmWave(44100, 7)}),
			want:  map[sample.ID][]int16{2: {7}},
			count: 1,
		},
		{
			name: "background",
			bank: twoDX(
				twoDXItem{data: pcmWave(44100, 1)},
				twoDXItem{data: pcmWave(44100, 2), background: true},
				twoDXItem{data: pcmWave(44100, 3), magic: "SD9\x00"},
				twoDXItem{data: pcmWave(44100, 4), background: true},
			),
			want: map[sample.ID][]int16{
				1:               {1},
				2:               {2},
				BackgroundID(1): {2},
				3:               {3},
				4:               {4},
				BackgroundID(2): {4},
			},
			count: 4,
		},
		{
			name:  "only",
			bank:  twoDX(twoDXItem{data: pcmWave(44100, 1)}, twoDXItem{data: pcmWave(44100, 2)}),
			opts:  Options{Only: 2},
			want:  map[sample.ID][]int16{2: {2}},
			count: 1,
		},
		{
			name:  "bad sample skipped",
			bank:  twoDX(twoDXItem{data: []byte("junk")}, twoDXItem{data: pcmWave(44100, 5)}),
			opts:  Options{Workers: 4},
			want:  map[sample.ID][]int16{2: {5}},
			count: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, c := newDecoder(t)
			n, err := d.TwoDX(tt.bank, tt.opts)
			if err != nil {
				t.Fatalf("TwoDX() error = %v", err)
			}
			if n != tt.count {
				t.Errorf("TwoDX() = %d, want %d", n, tt.count)
			}
			got := make(map[sample.ID][]int16)
			for _, id := range c.IDs() {
				s, _ := c.Get(id)
				got[id] = s.Channels[0]
			}
			if !cmp.Equal(got, tt.want) {
				t.Errorf("did not get expected samples\n%s", cmp.Diff(tt.want, got))
			}
		})
	}
}

func TestTwoDXErrors(t *testing.T) {
	truncated := twoDX(twoDXItem{data: pcmWave(44100, 1)})
	tests := []struct {
		name string
		bank []byte
	}{
		{name: "short header", bank: make([]byte, 10)},
		{name: "bad magic", bank: twoDX(twoDXItem{data: pcmWave(44100, 1)}, twoDXItem{data: pcmWave(44100, 2), magic: "XXXX"})},
		{name: "truncated data", bank: truncated[:len(truncated)-1]},
	}

	for _, tt := range tests {
		d, c := newDecoder(t)
		n, err := d.TwoDX(tt.bank, Options{})
		if errors.Cause(err) != sample.ErrMalformed {
			t.Errorf("%s: got error %v, want %v", tt.name, err, sample.ErrMalformed)
		}
		if n != 0 || c.Len() != 0 {
			t.Errorf("%s: got %d samples stored, want none", tt.name, c.Len())
		}
	}
}

func TestTwoDXSample(t *testing.T) {
	bank := twoDX(twoDXItem{}, twoDXItem{data: pcmWave(22050, 3, 4)})
	if !IsTwoDX(bank) {
		t.Errorf("IsTwoDX() = false, want true")
	}
	if IsTwoDX([]byte("S3P0")) {
		t.Errorf("IsTwoDX(S3P) = true, want false")
	}

	got, err := TwoDXSample(bank, 2)
	if err != nil {
		t.Fatalf("TwoDXSample() error = %v", err)
	}
	want := &sample.Decoded{Rate: 22050, Channels: [][]int16{{3, 4}}}
	if !cmp.Equal(got, want) {
		t.Errorf("did not get expected result\n%s", cmp.Diff(want, got))
	}
	if _, err := TwoDXSample(bank, 1); err == nil {
		t.Errorf("TwoDXSample() of empty slot did not fail")
	}

	ids, err := TwoDXIDs(bank, sample.SpaceDrums)
	if err != nil {
		t.Fatalf("TwoDXIDs() error = %v", err)
	}
	if !cmp.Equal(ids, []sample.ID{2 | sample.SpaceDrums}) {
		t.Errorf("TwoDXIDs() = %v", ids)
	}
}

// s3p builds an S3P bank whose entries hold the given payloads.
func s3p(magic string, payloads ...[]byte) []byte {
	b := []byte("S3P0")
	b = le.AppendUint32(b, uint32(len(payloads)))
	b = append(b, make([]byte, s3pTableStride*len(payloads))...)
	for i, p := range payloads {
		le.PutUint32(b[s3pHeaderLen+i*s3pTableStride:], uint32(len(b)))
		b = append(b, magic...)
		b = le.AppendUint32(b, s3vHeaderLen)
		b = le.AppendUint32(b, uint32(len(p)))
		b = append(b, p...)
	}
	return b
}

func TestS3P(t *testing.T) {
	bank := s3p("S3V0", []byte("one"), []byte("two"))
	ids, err := S3PIDs(bank, sample.SpaceBass)
	if err != nil {
		t.Fatalf("S3PIDs() error = %v", err)
	}
	if want := []sample.ID{1 | sample.SpaceBass, 2 | sample.SpaceBass}; !cmp.Equal(ids, want) {
		t.Errorf("S3PIDs() = %v, want %v", ids, want)
	}

	entries, err := s3pEntries(bank)
	if err != nil {
		t.Fatalf("s3pEntries() error = %v", err)
	}
	if want := [][]byte{[]byte("one"), []byte("two")}; !cmp.Equal(entries, want) {
		t.Errorf("s3pEntries() = %q, want %q", entries, want)
	}
}

func TestS3PErrors(t *testing.T) {
	d, _ := newDecoder(t)
	if _, err := d.S3P(s3p("S3V0"), Options{}); errors.Cause(err) != sample.ErrUnsupported {
		t.Errorf("S3P() without tables: got error %v, want %v", err, sample.ErrUnsupported)
	}

	truncated := s3p("S3V0", []byte("payload"))
	tests := []struct {
		name string
		bank []byte
	}{
		{name: "magic", bank: []byte("S2P0\x00\x00\x00\x00")},
		{name: "count", bank: []byte("S3P0\x05\x00\x00\x00")},
		{name: "entry magic", bank: s3p("S3V1", []byte("x"))},
		{name: "truncated", bank: truncated[:len(truncated)-2]},
	}
	for _, tt := range tests {
		if _, err := s3pEntries(tt.bank); errors.Cause(err) != sample.ErrMalformed {
			t.Errorf("%s: got error %v, want %v", tt.name, err, sample.ErrMalformed)
		}
	}
}

// va3Item is one sample of a synthetic VA3 table.
type va3Item struct {
	name   string
	index  uint16
	volume byte
	pan    byte
	data   []byte
}

// va3 builds a VA3 table with a GDXG drum map.
func va3(drums []uint16, items ...va3Item) []byte {
	const gdxStart = va3HeaderLen
	entryStart := gdxStart + 4 + 2*gdxDrums
	dataStart := entryStart + va3EntryLen*len(items)

	b := make([]byte, dataStart)
	copy(b, "VA3\x00")
	binary.BigEndian.PutUint32(b[4:], 2)
	le.PutUint32(b[8:], uint32(len(items)))
	le.PutUint32(b[16:], gdxStart)
	le.PutUint32(b[20:], uint32(entryStart))
	le.PutUint32(b[24:], uint32(dataStart))
	copy(b[gdxStart:], gdxMagic)
	for i, v := range drums {
		le.PutUint16(b[gdxStart+4+2*i:], v)
	}

	var data []byte
	for i, it := range items {
		e := b[entryStart+i*va3EntryLen:]
		le.PutUint32(e, uint32(len(data)))
		le.PutUint32(e[4:], uint32(len(it.data)))
		le.PutUint16(e[8:], 1)
		le.PutUint16(e[10:], 4)
		le.PutUint32(e[12:], 16000)
		e[24] = it.volume
		e[25] = it.pan
		le.PutUint16(e[26:], it.index)
		copy(e[va3NameOff:va3EntryLen-1], it.name)
		data = append(data, it.data...)
	}
	return append(b, data...)
}

func TestVA3(t *testing.T) {
	b := va3([]uint16{2, 1},
		va3Item{name: "1a", index: 1, volume: 127, pan: 128, data: []byte{0x00}},
		va3Item{name: "kick", index: 2, volume: 0, pan: 0, data: []byte{0x00, 0x00}},
	)
	d, c := newDecoder(t)
	v, err := d.VA3(b, sample.SpaceDrums)
	if err != nil {
		t.Fatalf("VA3() error = %v", err)
	}
	if want := []int{2, 1, 0, 0, 0, 0, 0, 0, 0}; !cmp.Equal(v.DefaultDrums, want) {
		t.Errorf("DefaultDrums = %v, want %v", v.DefaultDrums, want)
	}

	s, ok := c.Get(1 | sample.SpaceDrums)
	if !ok {
		t.Fatalf("sample 1 not stored")
	}
	if want := [][]int16{{32, 64}}; !cmp.Equal(s.Channels, want) {
		t.Errorf("sample 1 = %v, want %v", s.Channels, want)
	}
	if s.Rate != 16000 {
		t.Errorf("sample 1 rate = %d, want 16000", s.Rate)
	}
	if s, _ := c.Get(2 | sample.SpaceDrums); s.Len() != 4 {
		t.Errorf("sample 2 length = %d, want 4", s.Len())
	}

	kick := sample.Info{Volume: 0, Pan: 0, ID: 2 | sample.SpaceDrums, Name: "kick"}
	hex := sample.Info{Volume: 1, Pan: 1, ID: 1 | sample.SpaceDrums, Name: "1a"}
	for _, tt := range []struct {
		id   sample.ID
		want sample.Info
	}{
		{id: 1 | sample.SpaceDrums, want: hex},
		{id: sample.SpaceByFilename | sample.SpaceDrums | 0x1a, want: hex},
		{id: sample.SpaceByNote | sample.SpaceDrums | 0, want: kick},
		{id: sample.SpaceByNote | sample.SpaceDrums | 1, want: hex},
	} {
		got, ok := c.Info(tt.id)
		if !ok {
			t.Errorf("no info for %v", tt.id)
			continue
		}
		if !cmp.Equal(got, tt.want) {
			t.Errorf("info for %v\n%s", tt.id, cmp.Diff(tt.want, got))
		}
	}
}

func TestVA3Errors(t *testing.T) {
	good := va3(nil, va3Item{name: "x", index: 1, data: []byte{1}})
	tests := []struct {
		name string
		in   []byte
	}{
		{name: "short", in: good[:10]},
		{name: "entries", in: good[:va3HeaderLen+4+2*gdxDrums+10]},
	}
	for _, tt := range tests {
		if _, err := ParseVA3(tt.in); errors.Cause(err) != sample.ErrMalformed {
			t.Errorf("%s: got error %v, want %v", tt.name, err, sample.ErrMalformed)
		}
	}
}

func TestDecodeBMP(t *testing.T) {
	b := make([]byte, bmpDataOff)
	b[bmpChannelsOff] = 2
	binary.BigEndian.PutUint32(b[bmpRateOff:], 32000)
	b = append(b, 0x00, 0x00)

	got, err := DecodeBMP(b)
	if err != nil {
		t.Fatalf("DecodeBMP() error = %v", err)
	}
	want := &sample.Decoded{Rate: 32000, Channels: [][]int16{{32, 64}, {32, 64}}}
	if !cmp.Equal(got, want) {
		t.Errorf("did not get expected result\n%s", cmp.Diff(want, got))
	}
	if d := BMPDuration(b); d != 2.0/32000 {
		t.Errorf("BMPDuration() = %v, want %v", d, 2.0/32000)
	}

	if _, err := DecodeBMP(b[:bmpDataOff-1]); errors.Cause(err) != sample.ErrMalformed {
		t.Errorf("truncated: got error %v, want %v", err, sample.ErrMalformed)
	}
}
