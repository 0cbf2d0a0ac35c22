/*
NAME
  wma.go

DESCRIPTION
  wma.go provides a decoder for the WMAv2 variant used in BEMANI sample
  banks: bit reservoir enabled, VLC coded exponents, no noise coding.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package wma decodes WMAv2 audio carried in ASF data packets.
package wma

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/ausocean/bemani/codec/bits"
	"github.com/ausocean/bemani/sample"
)

// WAVE format tags.
const (
	FormatWMAv2 = 0x161
	FormatWMA9  = 0x162
)

// Extra data flags.
const (
	flagExpVLC    = 1 << 0
	flagReservoir = 1 << 1
	flagVBR       = 1 << 2
)

// Initial exponent index.
const expStart = 36

// Format describes a WMA stream, as given by its WAVEFORMATEX.
type Format struct {
	Tag        uint16
	Channels   int
	Rate       int
	ByteRate   int
	BlockAlign int
	Bits       int
	Extra      []byte
}

// ParseFormat parses a little endian WAVEFORMATEX structure.
func ParseFormat(b []byte) (Format, error) {
	if len(b) < 16 {
		return Format{}, sample.Malformedf("wave format too short (%d bytes)", len(b))
	}
	f := Format{
		Tag:        binary.LittleEndian.Uint16(b[0:]),
		Channels:   int(binary.LittleEndian.Uint16(b[2:])),
		Rate:       int(binary.LittleEndian.Uint32(b[4:])),
		ByteRate:   int(binary.LittleEndian.Uint32(b[8:])),
		BlockAlign: int(binary.LittleEndian.Uint16(b[12:])),
		Bits:       int(binary.LittleEndian.Uint16(b[14:])),
	}
	if len(b) >= 18 {
		n := int(binary.LittleEndian.Uint16(b[16:]))
		if 18+n > len(b) {
			n = len(b) - 18
		}
		f.Extra = b[18 : 18+n]
	}
	return f, nil
}

// Errors that end decoding of the current packet.
var (
	errBadFrameCount = sample.Malformedf("bad frame count")
	errBadOffset     = sample.Malformedf("bad superframe bit offset")
)

// Decoder decodes WMAv2 packets for one stream format. A Decoder is not safe
// for concurrent use, but several Decoders may share one Tables.
type Decoder struct {
	t         *Tables
	f         Format
	maxPacket int

	frameBits      int
	frameLen       int
	blockSizeBits  int
	byteOffsetBits int
	numCoefsBase   int
	bands          map[int][]int // Exponent band widths by block bits.

	// Decode state.
	r             *reader
	blockBits     int
	lastBlockSize int
	samplesDone   int
	expBits       [2]int
	maxExp        [2]float64
	exps          [2][]float64
	raw           [2][]float64
	coefs         [2][]float64
	tmp           []float64
	out           [2][]float64
}

// NewDecoder returns a Decoder for streams of format f carried in packets of
// maxPacketSize bytes. Formats other than reservoir and VLC exponent coded
// WMAv2 at 22050, 32000 or 44100 Hz give an error satisfying
// errors.Is(err, sample.ErrUnsupported).
func NewDecoder(t *Tables, f Format, maxPacketSize int) (*Decoder, error) {
	if f.Tag != FormatWMAv2 && f.Tag != FormatWMA9 {
		return nil, sample.Unsupportedf("format tag %#x", f.Tag)
	}
	if f.Channels < 1 || f.Channels > 2 {
		return nil, sample.Unsupportedf("%d channels", f.Channels)
	}
	if f.BlockAlign <= 0 || f.ByteRate <= 0 {
		return nil, sample.Malformedf("block align %d, byte rate %d", f.BlockAlign, f.ByteRate)
	}
	off := 4
	if f.Tag == FormatWMA9 {
		off = 6
	}
	if len(f.Extra) < off+2 {
		return nil, sample.Malformedf("extra data too short (%d bytes)", len(f.Extra))
	}
	flags := binary.LittleEndian.Uint16(f.Extra[off:])
	switch {
	case flags&flagExpVLC == 0, flags&flagReservoir == 0:
		return nil, sample.Unsupportedf("flags %#x", flags)
	case f.Rate != 22050 && f.Rate != 32000 && f.Rate != 44100:
		return nil, sample.Unsupportedf("sample rate %d", f.Rate)
	}

	if t == nil {
		return nil, sample.Unsupportedf("no coefficient tables loaded")
	}

	d := &Decoder{t: t, f: f, maxPacket: maxPacketSize}
	d.frameBits = 10
	if f.Rate > 22050 {
		d.frameBits = 11
	}
	d.frameLen = 1 << d.frameBits

	if flags&flagVBR != 0 {
		d.blockSizeBits = 1
		if (flags>>3)&3 >= 2 {
			d.blockSizeBits = 2
		}
		if f.ByteRate/f.Channels >= 4000 {
			d.blockSizeBits += 2
		}
	}

	bps := float64(f.ByteRate*8) / float64(f.Channels*f.Rate)
	d.byteOffsetBits = int(math.Log2(float64(int(bps*float64(d.frameLen)/8+0.5)))) + 2
	d.numCoefsBase = int(float64(d.frameLen)*0.91 + 0.99)

	d.bands = make(map[int][]int)
	for b := d.frameBits; b >= minBlockBits && b >= d.frameBits-(1<<d.blockSizeBits)+1; b-- {
		d.bands[b] = t.bandTable(f.Rate, b)
	}

	for ch := 0; ch < f.Channels; ch++ {
		d.exps[ch] = make([]float64, d.frameLen)
		d.raw[ch] = make([]float64, d.frameLen)
		d.coefs[ch] = make([]float64, d.frameLen)
	}
	d.tmp = make([]float64, 2*d.frameLen)
	return d, nil
}

// Decode decodes the packets in data. If decoding stops on a structural
// error, the samples decoded so far are returned with the error.
func (d *Decoder) Decode(data []byte) (*sample.Decoded, error) {
	d.r = &reader{Reader: bits.NewReader(data, d.maxPacket)}
	d.blockBits = d.frameBits
	d.lastBlockSize = d.frameLen
	d.samplesDone = 0
	for ch := 0; ch < d.f.Channels; ch++ {
		d.expBits[ch] = d.frameBits
		d.maxExp[ch] = 0
		d.out[ch] = nil
	}

	var err error
	for d.r.Remaining() > 0 {
		err = d.superframe()
		if err != nil && err != errBadOffset {
			break
		}
		err = nil
		if d.r.NextPacket() != nil {
			break
		}
	}
	if errors.Is(err, bits.ErrOverflow) {
		err = sample.Malformedf("stream truncated")
	}
	return d.output(), err
}

// output converts the accumulated output to 16-bit samples.
func (d *Decoder) output() *sample.Decoded {
	n := 0
	for ch := 0; ch < d.f.Channels; ch++ {
		if len(d.out[ch]) > n {
			n = len(d.out[ch])
		}
	}
	s := sample.New(d.f.Rate, d.f.Channels, n)
	for ch, buf := range s.Channels {
		for i, v := range d.out[ch] {
			buf[i] = clamp16(v)
		}
	}
	return s
}

func clamp16(v float64) int16 {
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < -math.MaxInt16:
		return -math.MaxInt16
	}
	return int16(math.Round(v))
}

// superframe decodes the frames of one packet.
func (d *Decoder) superframe() error {
	r := d.r
	r.ResetBitsConsumed()
	r.bits(4) // Superframe index.
	frames := r.bits(4)
	if r.err != nil {
		return r.err
	}
	if frames <= 0 {
		return errBadFrameCount
	}
	if r.BitsReserved() == 0 {
		frames--
	}

	off := r.bits(d.byteOffsetBits + 3)
	if r.err != nil {
		return r.err
	}
	if off > r.Remaining() || off+d.byteOffsetBits+11 > d.f.BlockAlign*8 {
		return errBadOffset
	}

	start := 0
	if r.BitsReserved() > 0 {
		frames--
		start = -1
	}
	for i := start; i < frames; i++ {
		if d.blockSizeBits > 0 && i == 0 {
			d.lastBlockSize = 1 << (d.frameBits - r.bits(d.blockSizeBits))
			d.blockBits = d.frameBits - r.bits(d.blockSizeBits)
		}
		err := d.frame(i < 0)
		if err != nil {
			return err
		}
	}
	r.Reserve(d.f.BlockAlign*8 - r.BitsConsumed())
	return nil
}

// frame decodes the blocks of one frame, reading from the reservoir if
// reserved is true.
func (d *Decoder) frame(reserved bool) error {
	if reserved {
		d.r.UseReserved()
	}
	for left := d.frameLen; left > 0; left -= d.lastBlockSize {
		err := d.block()
		if err != nil {
			return err
		}
	}
	if reserved {
		d.r.FlushReserved()
	}
	return nil
}

// block decodes one transform block and overlap-adds it into the output.
func (d *Decoder) block() error {
	r := d.r
	nch := d.f.Channels
	blockSize := 1 << d.blockBits
	if d.blockBits < minBlockBits || d.blockBits > d.frameBits {
		return sample.Malformedf("block size bits %d", d.blockBits)
	}

	nextBits := d.frameBits
	if d.blockSizeBits > 0 {
		nextBits -= r.bits(d.blockSizeBits)
	}
	ms := nch == 2 && r.bits(1) == 1
	var coded [2]bool
	for ch := 0; ch < nch; ch++ {
		coded[ch] = r.bits(1) == 1
	}
	if r.err != nil {
		return r.err
	}

	if coded[0] || coded[1] {
		gain := 1
		for {
			a := r.bits(7)
			gain += a
			if a != 127 || r.err != nil {
				break
			}
		}

		if blockSize == d.frameLen || r.bits(1) == 1 {
			for ch := 0; ch < nch; ch++ {
				if !coded[ch] {
					continue
				}
				err := d.exponents(ch, blockSize)
				if err != nil {
					return err
				}
			}
		}

		err := d.runLevels(coded, ms, gain, blockSize)
		if err != nil {
			return err
		}
		if ms && coded[1] {
			if !coded[0] {
				for i := range d.coefs[0] {
					d.coefs[0][i] = 0
				}
				coded[0] = true
			}
			for j := 0; j < blockSize; j++ {
				a, b := d.coefs[0][j], d.coefs[1][j]
				d.coefs[0][j] = a + b
				d.coefs[1][j] = a - b
			}
		}
	}

	if nextBits < minBlockBits {
		return sample.Malformedf("next block size bits %d", nextBits)
	}
	mdct, ok := d.t.MDCT(d.blockBits + 1)
	if !ok {
		return sample.Malformedf("no transform for block size %d", blockSize)
	}
	base := d.samplesDone + (d.frameLen-blockSize)/2
	for ch := 0; ch < nch; ch++ {
		d.grow(ch, base+2*blockSize)
		if !coded[ch] {
			continue
		}
		tmp := d.tmp[:2*blockSize]
		mdct.Inverse(tmp, d.coefs[ch][:blockSize])
		d.window(d.out[ch][base:], tmp, blockSize, 1<<nextBits)
	}

	d.samplesDone += blockSize
	d.lastBlockSize = blockSize
	d.blockBits = nextBits
	return nil
}

// exponents decodes the exponents of channel ch for a block.
func (d *Decoder) exponents(ch, blockSize int) error {
	r := d.r
	d.expBits[ch] = d.frameBits - d.blockBits
	band := d.bands[d.blockBits]
	index := expStart
	d.maxExp[ch] = 0
	for j, pos := 0, 0; pos < blockSize; j++ {
		if j >= len(band) {
			return sample.Malformedf("exponent bands cover %d of %d coefficients", pos, blockSize)
		}
		code := r.vlc(d.t.Exp) - expBias
		if r.err != nil {
			return r.err
		}
		index += code
		v := math.Pow(10, float64(index)/16)
		if v > d.maxExp[ch] {
			d.maxExp[ch] = v
		}
		for k := 0; pos < blockSize && k < band[j]; k, pos = k+1, pos+1 {
			d.exps[ch][pos] = v
		}
	}
	return nil
}

// runLevels decodes the run/level coded coefficients of each coded channel
// and scales them into d.coefs.
func (d *Decoder) runLevels(coded [2]bool, ms bool, gain, blockSize int) error {
	r := d.r
	escBits := totalGainToBits(gain)
	numCoefs := d.numCoefsBase >> (d.frameBits - d.blockBits)
	mask := d.frameLen - 1

	for ch := 0; ch < d.f.Channels; ch++ {
		if !coded[ch] {
			continue
		}
		if d.maxExp[ch] == 0 {
			return sample.Malformedf("channel %d coded before its exponents", ch)
		}
		vlc := d.t.Coef[0]
		if ch == 1 && ms {
			vlc = d.t.Coef[1]
		}
		raw := d.raw[ch]
		for i := range raw {
			raw[i] = 0
		}

		off := 0
		for ; off < numCoefs; off++ {
			sym := r.vlc(vlc)
			if r.err != nil {
				return r.err
			}
			switch sym {
			case symEnd:
			case symEscape:
				level := float64(r.bits(escBits))
				off += r.bits(d.frameBits)
				if r.bits(1) == 0 {
					level = -level
				}
				raw[off&mask] = level
			default:
				run, level := vlc.RunLevel(sym)
				off += run
				if r.bits(1) == 0 {
					level = -level
				}
				raw[off&mask] = level
			}
			if r.err != nil {
				return r.err
			}
			if sym == symEnd {
				break
			}
		}
		if off > numCoefs {
			return sample.Malformedf("run length overflow (%d > %d)", off, numCoefs)
		}

		mult := 2 / float64(blockSize) * math.Pow(10, float64(gain)*0.05) / d.maxExp[ch]
		shift := d.frameBits - d.blockBits
		coefs := d.coefs[ch]
		for i := range coefs {
			coefs[i] = 0
		}
		for j := 0; j < numCoefs; j++ {
			coefs[j] = raw[j] * d.exps[ch][j<<shift>>d.expBits[ch]] * mult
		}
	}
	return nil
}

// window applies the sine window to the 2*blockSize samples of src and adds
// them into dst. Fades are the length of the smaller neighbouring block.
func (d *Decoder) window(dst, src []float64, blockSize, nextSize int) {
	if blockSize <= d.lastBlockSize {
		w := d.t.window(blockSize)
		for i := 0; i < blockSize; i++ {
			dst[i] += src[i] * w[i]
		}
	} else {
		n := (blockSize - d.lastBlockSize) / 2
		w := d.t.window(d.lastBlockSize)
		for i := 0; i < d.lastBlockSize; i++ {
			dst[n+i] += src[n+i] * w[i]
		}
		for i := n + d.lastBlockSize; i < blockSize; i++ {
			dst[i] += src[i]
		}
	}

	dst, src = dst[blockSize:], src[blockSize:]
	if blockSize <= nextSize {
		w := d.t.window(blockSize)
		for i := 0; i < blockSize; i++ {
			dst[i] += src[i] * w[blockSize-1-i]
		}
		return
	}
	n := (blockSize - nextSize) / 2
	for i := 0; i < n; i++ {
		dst[i] += src[i]
	}
	w := d.t.window(nextSize)
	for i := 0; i < nextSize; i++ {
		dst[n+i] += src[n+i] * w[nextSize-1-i]
	}
}

// grow extends the output of channel ch to at least n samples.
func (d *Decoder) grow(ch, n int) {
	if len(d.out[ch]) < n {
		d.out[ch] = append(d.out[ch], make([]float64, n-len(d.out[ch]))...)
	}
}

// reader wraps a bits.Reader, keeping the first error so that a run of
// reads may be checked once.
type reader struct {
	*bits.Reader
	err error
}

func (r *reader) bits(n int) int {
	if r.err != nil {
		return 0
	}
	v, err := r.ReadBits(n)
	if err != nil {
		r.err = err
		return 0
	}
	return int(v)
}

func (r *reader) vlc(v *VLC) int {
	if r.err != nil {
		return 0
	}
	sym, err := v.Decode(r.Reader)
	if err != nil {
		r.err = err
		return 0
	}
	return sym
}
