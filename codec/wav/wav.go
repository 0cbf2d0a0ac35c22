/*
NAME
  wav.go

DESCRIPTION
  wav.go contains the WAV sink used to write rendered audio.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package wav reads the RIFF/WAVE sub-files found in sample banks and writes
// rendered audio as WAV.
package wav

import (
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

// WAVE format tags.
const (
	PCMFormat     = 1 // PCMFormat defines the value for pcm audio as defined by the wav std.
	MSADPCMFormat = 2
	IMAFormat     = 0x11
)

// software is recorded in the INFO chunk of written files.
const software = "bemani2wav"

var (
	errInvalidFormat   = errors.New("invalid or no format defined")
	errInvalidRate     = errors.New("invalid or no sample rate defined")
	errInvalidChannels = errors.New("invalid or no number of channels defined")
	errInvalidBitDepth = errors.New("invalid or no bit depth defined")
	errUnevenChannels  = errors.New("channels differ in length")
)

// Metadata defines the format of a WAV file.
type Metadata struct {
	AudioFormat int
	Channels    int
	SampleRate  int
	BitDepth    int
}

// validate checks that m describes 16-bit PCM that can be written.
func (m Metadata) validate() error {
	switch {
	case m.AudioFormat != PCMFormat:
		return errInvalidFormat
	case m.Channels <= 0:
		return errInvalidChannels
	case m.SampleRate <= 0:
		return errInvalidRate
	case m.BitDepth != 16:
		return errInvalidBitDepth
	}
	return nil
}

// Sink writes one WAV file to a WriteSeeker.
type Sink struct {
	w     io.WriteSeeker
	title string
}

// NewSink returns a Sink writing to w. A non-empty title is stored in the
// file's INFO chunk.
func NewSink(w io.WriteSeeker, title string) *Sink {
	return &Sink{w: w, title: title}
}

// Write encodes the given channels of 16-bit samples at rate Hz as a
// complete WAV file. It should be called once per Sink.
func (s *Sink) Write(rate int, channels [][]int16) error {
	md := Metadata{AudioFormat: PCMFormat, Channels: len(channels), SampleRate: rate, BitDepth: 16}
	err := md.validate()
	if err != nil {
		return err
	}
	n := len(channels[0])
	for _, ch := range channels[1:] {
		if len(ch) != n {
			return errUnevenChannels
		}
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: md.Channels, SampleRate: rate},
		Data:           make([]int, 0, n*md.Channels),
		SourceBitDepth: md.BitDepth,
	}
	for i := 0; i < n; i++ {
		for _, ch := range channels {
			buf.Data = append(buf.Data, int(ch[i]))
		}
	}

	enc := wav.NewEncoder(s.w, rate, md.BitDepth, md.Channels, md.AudioFormat)
	if s.title != "" {
		enc.Metadata = &wav.Metadata{Title: s.title, Software: software}
	}
	err = enc.Write(buf)
	if err != nil {
		return errors.Wrap(err, "could not write samples")
	}
	return errors.Wrap(enc.Close(), "could not finish file")
}
