/*
NAME
  sample.go

DESCRIPTION
  sample.go defines sample identifiers, instrument spaces and decoded
  sample buffers shared by the codecs, banks and mixer.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package sample provides the sample identifier, decoded sample and sample
// cache types used throughout bemani.
package sample

import (
	"fmt"
	"strings"
)

// ID identifies a decoded sample. The low bits hold a 1-based bank index and
// the bits from SpaceDrums upwards hold the sample's space.
type ID uint64

// Spaces. The instrument spaces name the part a sample belongs to, the
// remaining bits modify how the index was derived.
const (
	SpaceDrums      ID = 0x10000
	SpaceGuitar     ID = 0x20000
	SpaceBass       ID = 0x40000
	SpaceKeyboard   ID = 0x80000
	SpaceBacking    ID = 0x100000
	SpaceByFilename ID = 0x200000
	SpaceByNote     ID = 0x400000
	SpaceInverted   ID = 0x800000
)

// Masks over an ID.
const (
	IndexMask ID = 0xFFFF
	PartMask  ID = SpaceDrums | SpaceGuitar | SpaceBass | SpaceKeyboard | SpaceBacking
)

// Index returns the bank-local index of id.
func (id ID) Index() int { return int(id & IndexMask) }

// Space returns the space bits of id.
func (id ID) Space() ID { return id &^ IndexMask }

// Part returns the instrument part bits of id.
func (id ID) Part() ID { return id & PartMask }

// String implements fmt.Stringer.
func (id ID) String() string {
	return fmt.Sprintf("%#x", uint64(id))
}

var spaceLetters = []struct {
	letter byte
	space  ID
}{
	{'d', SpaceDrums},
	{'g', SpaceGuitar},
	{'b', SpaceBass},
	{'k', SpaceKeyboard},
	{'s', SpaceBacking},
}

// ParseSpaces converts a string of part letters (d, g, b, k and s for drums,
// guitar, bass, keyboard and streamed backing) into a space mask. Unknown
// letters are ignored and letters are case insensitive.
func ParseSpaces(s string) ID {
	var mask ID
	for _, c := range []byte(strings.ToLower(s)) {
		for _, l := range spaceLetters {
			if c == l.letter {
				mask |= l.space
			}
		}
	}
	return mask
}

// Decoded holds the PCM output of a codec, one buffer of signed 16-bit
// samples per channel.
type Decoded struct {
	Rate     int
	Channels [][]int16
}

// New returns a Decoded with n channels of the given length.
func New(rate, n, length int) *Decoded {
	d := &Decoded{Rate: rate, Channels: make([][]int16, n)}
	for i := range d.Channels {
		d.Channels[i] = make([]int16, length)
	}
	return d
}

// Len returns the number of samples per channel.
func (d *Decoded) Len() int {
	if d == nil || len(d.Channels) == 0 {
		return 0
	}
	return len(d.Channels[0])
}

// Duration returns the playing time of d in seconds.
func (d *Decoded) Duration() float64 {
	if d == nil || d.Rate <= 0 {
		return 0
	}
	return float64(d.Len()) / float64(d.Rate)
}

// Info is per-sample playback metadata taken from bank tables.
type Info struct {
	Volume float64
	Pan    float64
	ID     ID
	Name   string
}
