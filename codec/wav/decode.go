/*
NAME
  decode.go

DESCRIPTION
  decode.go decodes RIFF/WAVE blobs holding PCM, MS-ADPCM or IMA-ADPCM audio.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package wav

import (
	"bytes"
	"io"

	"github.com/go-audio/riff"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"

	"github.com/ausocean/bemani/codec/adpcm"
	"github.com/ausocean/bemani/sample"
)

// Decode decodes the RIFF/WAVE file in b. Data chunks that run past the end
// of b are decoded as far as they go.
func Decode(b []byte) (*sample.Decoded, error) {
	r := bytes.NewReader(b)
	p := riff.New(r)
	err := p.ParseHeaders()
	if err != nil {
		return nil, sample.Malformedf("not a RIFF file: %v", err)
	}
	if p.Format != riff.WavFormatID {
		return nil, sample.Malformedf("RIFF form %q is not WAVE", p.Format[:])
	}

	var (
		haveFmt bool
		data    []byte
		dataEnd int
	)
	for data == nil {
		ch, err := p.NextChunk()
		if err != nil {
			break
		}
		switch ch.ID {
		case riff.FmtID:
			err = ch.DecodeWavHeader(p)
			if err != nil {
				return nil, sample.Malformedf("bad format chunk: %v", err)
			}
			haveFmt = true
		case riff.DataFormatID:
			data = make([]byte, ch.Size)
			n, _ := io.ReadFull(ch, data)
			data = data[:n]
			dataEnd = len(b) - r.Len()
		default:
			ch.Drain()
		}
	}
	if !haveFmt {
		return nil, sample.Malformedf("no format chunk")
	}
	if data == nil {
		return nil, sample.Malformedf("no data chunk")
	}

	nch := int(p.NumChannels)
	rate := int(p.SampleRate)
	if nch < 1 || nch > 2 {
		return nil, sample.Unsupportedf("%d channels", nch)
	}

	var channels [][]int16
	switch p.WavAudioFormat {
	case PCMFormat:
		channels, err = decodePCM(b[:dataEnd], len(data), nch, int(p.BitsPerSample))
	case MSADPCMFormat:
		channels, err = adpcm.Decode(adpcm.Format{Codec: adpcm.MS, Channels: nch, BlockAlign: int(p.BlockAlign)}, data)
	case IMAFormat:
		channels, err = adpcm.Decode(adpcm.Format{Codec: adpcm.IMA, Channels: nch, BlockAlign: int(p.BlockAlign)}, data)
	default:
		return nil, sample.Unsupportedf("WAVE format %#x", p.WavAudioFormat)
	}
	if err != nil {
		return nil, err
	}
	return &sample.Decoded{Rate: rate, Channels: channels}, nil
}

// decodePCM decodes 8 or 16-bit PCM from the WAVE file b, which ends with
// the n bytes of its data chunk. A trailing partial frame is dropped.
func decodePCM(b []byte, n, nch, depth int) ([][]int16, error) {
	if depth != 8 && depth != 16 {
		return nil, sample.Unsupportedf("%d-bit PCM", depth)
	}
	b = b[:len(b)-n%(nch*depth/8)]
	buf, err := wav.NewDecoder(bytes.NewReader(b)).FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "could not read PCM data")
	}

	channels := make([][]int16, nch)
	for ch := range channels {
		channels[ch] = make([]int16, 0, len(buf.Data)/nch)
	}
	for i := 0; i+nch <= len(buf.Data); i += nch {
		for ch := range channels {
			v := buf.Data[i+ch]
			if depth == 8 {
				v = (v - 128) << 8
			}
			channels[ch] = append(channels[ch], int16(v))
		}
	}
	return channels, nil
}
