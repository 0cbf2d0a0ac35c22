/*
NAME
  reader.go

DESCRIPTION
  reader.go provides a bit reader over a buffer of ASF data packets. The
  reader hides packet framing so that callers see one continuous bitstream,
  and supports the WMA bit reservoir.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package bits provides a packet aware bit reader for WMA payloads carried
// in ASF data packets.
package bits

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrOverflow is returned when a read goes past the end of the buffer.
var ErrOverflow = errors.New("read past end of buffer")

// ASF error correction marker in the first packet byte.
const (
	eccMask    = 0xe0
	eccPresent = 0x80
	eccLenMask = 0x0f
)

// Bytes following the padding length field: 4 bytes send time and 2 bytes
// duration.
const timingLen = 6

// Pos is a saved reader position. See Tell and Seek.
type Pos struct {
	ptr         int
	packetEnd   int
	nextPadding int
	bitOff      uint
}

// Reader reads bits MSB first from a sequence of ASF data packets. The zero
// value is not usable; use NewReader.
type Reader struct {
	buf []byte

	ptr         int  // Index of the current byte.
	bitOff      uint // Offset of the next bit within buf[ptr].
	packetEnd   int  // End of the current packet's payload.
	nextPadding int  // Padding to skip before the next packet.
	maxPacket   int  // Packet size used when a packet does not declare one.

	reserving bool
	resStart  int
	resOff    uint
	resEnd    int
	resEndOff uint

	consumed int // Bits read from the main cursor since ResetBitsConsumed.
}

// NewReader returns a Reader over buf. maxPacketSize is the packet size used
// for packets whose header omits the size field. The first read parses the
// first packet header.
func NewReader(buf []byte, maxPacketSize int) *Reader {
	return &Reader{
		buf:       buf,
		maxPacket: maxPacketSize,
		resStart:  len(buf),
		resEnd:    len(buf),
	}
}

// ReadBit reads a single bit.
func (r *Reader) ReadBit() (uint64, error) {
	if r.ptr >= len(r.buf) {
		return 0, ErrOverflow
	}
	if r.ptr >= r.packetEnd {
		err := r.startPacket()
		if err != nil {
			return 0, err
		}
	}

	p, o := &r.ptr, &r.bitOff
	if r.reserving {
		p, o = &r.resStart, &r.resOff
	}
	if *p >= len(r.buf) {
		return 0, ErrOverflow
	}

	b := uint64(r.buf[*p]>>(7-*o)) & 1
	*o++
	if *o == 8 {
		*p++
		*o = 0
	}

	if !r.reserving {
		r.consumed++
	} else if r.resStart == r.resEnd && r.resOff == r.resEndOff {
		r.reserving = false
	}
	return b, nil
}

// ReadBits reads n bits and returns them in the least significant part of a
// uint64, first bit read most significant. n must be at most 64.
func (r *Reader) ReadBits(n int) (uint64, error) {
	var v uint64
	for ; n > 0; n-- {
		b, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		v = v<<1 | b
	}
	return v, nil
}

// PeekBits returns the next n bits without advancing the main cursor.
func (r *Reader) PeekBits(n int) (uint64, error) {
	pos := r.Tell()
	consumed := r.consumed
	v, err := r.ReadBits(n)
	r.Seek(pos)
	r.consumed = consumed
	return v, err
}

// Skip discards n bits.
func (r *Reader) Skip(n int) error {
	_, err := r.ReadBits(n)
	return err
}

// ByteAlign advances the main cursor to the next byte boundary.
func (r *Reader) ByteAlign() {
	if r.bitOff > 0 {
		r.ptr++
		r.bitOff = 0
	}
}

// ByteAligned returns true if the main cursor is at the start of a byte.
func (r *Reader) ByteAligned() bool { return r.bitOff == 0 }

// NextPacket abandons the rest of the current packet and parses the header of
// the next.
func (r *Reader) NextPacket() error {
	r.ptr = r.packetEnd
	r.bitOff = 0
	return r.startPacket()
}

// Tell returns the current main cursor position.
func (r *Reader) Tell() Pos {
	return Pos{ptr: r.ptr, packetEnd: r.packetEnd, nextPadding: r.nextPadding, bitOff: r.bitOff}
}

// Seek restores a position returned by Tell.
func (r *Reader) Seek(p Pos) {
	r.ptr = p.ptr
	r.packetEnd = p.packetEnd
	r.nextPadding = p.nextPadding
	r.bitOff = p.bitOff
}

// Remaining returns the number of bits left in the buffer, including any
// reserved bits while the reservoir is in use.
func (r *Reader) Remaining() int {
	if r.ptr >= len(r.buf) {
		return 0
	}
	n := (len(r.buf)-r.ptr)*8 - int(r.bitOff)
	if r.reserving {
		n += r.BitsReserved()
	}
	return n
}

// BitsConsumed returns the number of bits read from the main cursor since the
// last call to ResetBitsConsumed. Reservoir reads are not counted.
func (r *Reader) BitsConsumed() int { return r.consumed }

// ResetBitsConsumed zeroes the consumed bit counter.
func (r *Reader) ResetBitsConsumed() { r.consumed = 0 }

// Reserve records the next n bits at the main cursor as the reservoir.
func (r *Reader) Reserve(n int) {
	r.resStart = r.ptr
	r.resOff = r.bitOff
	end := int(r.bitOff) + n
	r.resEnd = r.ptr + end>>3
	r.resEndOff = uint(end & 7)
}

// UseReserved directs subsequent reads to the reservoir until it is
// exhausted or FlushReserved is called.
func (r *Reader) UseReserved() { r.reserving = true }

// FlushReserved stops reading from the reservoir and empties it.
func (r *Reader) FlushReserved() {
	r.reserving = false
	r.resStart = r.resEnd
	r.resOff = r.resEndOff
}

// UsingReserved returns true while reads are drawn from the reservoir.
func (r *Reader) UsingReserved() bool { return r.reserving }

// BitsReserved returns the number of unread reservoir bits. An empty or
// inverted range holds zero bits.
func (r *Reader) BitsReserved() int {
	if r.resEnd > r.resStart || (r.resEnd == r.resStart && r.resEndOff > r.resOff) {
		return (r.resEnd-r.resStart)*8 - int(r.resOff) + int(r.resEndOff)
	}
	return 0
}

// fieldSize converts the 2-bit length type at bit off of flags into a byte
// count.
func fieldSize(flags byte, off uint) int {
	switch (flags >> off) & 3 {
	case 1:
		return 1
	case 2:
		return 2
	case 3:
		return 4
	}
	return 0
}

// field reads a little endian field of the given byte width at buf[i],
// returning def for a zero width field.
func (r *Reader) field(i, size, def int) (int, error) {
	if i+size > len(r.buf) {
		return 0, errors.Wrap(ErrOverflow, "packet header truncated")
	}
	switch size {
	case 1:
		return int(r.buf[i]), nil
	case 2:
		return int(binary.LittleEndian.Uint16(r.buf[i:])), nil
	case 4:
		return int(binary.LittleEndian.Uint32(r.buf[i:])), nil
	}
	return def, nil
}

// startPacket parses the header of the packet at the main cursor after
// skipping the previous packet's padding.
func (r *Reader) startPacket() error {
	r.ptr += r.nextPadding
	r.nextPadding = 0
	start := r.ptr

	if r.ptr+2 > len(r.buf) {
		return errors.Wrap(ErrOverflow, "no packet header")
	}
	flags := r.buf[r.ptr]
	r.ptr++
	if flags&eccMask == eccPresent {
		r.ptr += int(flags & eccLenMask)
		if r.ptr+2 > len(r.buf) {
			return errors.Wrap(ErrOverflow, "packet header truncated")
		}
		flags = r.buf[r.ptr]
		r.ptr++
	}
	props := r.buf[r.ptr]
	r.ptr++

	packetSizeLen := fieldSize(flags, 5)
	paddingLen := fieldSize(flags, 3)
	sequenceLen := fieldSize(flags, 1)

	packetSize, err := r.field(r.ptr, packetSizeLen, r.maxPacket)
	if err != nil {
		return err
	}
	r.ptr += packetSizeLen + sequenceLen
	r.nextPadding, err = r.field(r.ptr, paddingLen, 0)
	if err != nil {
		return err
	}
	r.ptr += paddingLen + timingLen
	r.packetEnd = start + packetSize - r.nextPadding

	// Replicated data fields are skipped.
	for _, off := range []uint{6, 4, 2} {
		r.ptr += fieldSize(props, off)
	}
	repLen := fieldSize(props, 0)
	rep, err := r.field(r.ptr, repLen, 0)
	if err != nil {
		return err
	}
	r.ptr += repLen + rep
	r.bitOff = 0
	return nil
}
