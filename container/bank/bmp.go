/*
NAME
  bmp.go

DESCRIPTION
  bmp.go decodes the OKI ADPCM backing streams stored as bgm*.bin files.

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

	"github.com/ausocean/bemani/codec/adpcm"
	"github.com/ausocean/bemani/sample"
)

// BMP layout.
const (
	bmpChannelsOff = 16
	bmpRateOff     = 20
	bmpDataOff     = 32
)

// DecodeBMP decodes the backing stream in b.
func DecodeBMP(b []byte) (*sample.Decoded, error) {
	if len(b) < bmpDataOff {
		return nil, sample.Malformedf("BMP header truncated")
	}
	rate := int(int32(binary.BigEndian.Uint32(b[bmpRateOff:])))
	if rate <= 0 {
		return nil, sample.Malformedf("BMP sample rate %d", rate)
	}
	ch, err := adpcm.Decode(adpcm.Format{Codec: adpcm.OKI4s, Channels: stereo(int(b[bmpChannelsOff]))}, b[bmpDataOff:])
	if err != nil {
		return nil, err
	}
	return &sample.Decoded{Rate: rate, Channels: ch}, nil
}

// BMPDuration returns the playing time of the backing stream in b in
// seconds without decoding it.
func BMPDuration(b []byte) float64 {
	if len(b) < bmpDataOff {
		return 0
	}
	rate := int(int32(binary.BigEndian.Uint32(b[bmpRateOff:])))
	if rate <= 0 {
		return 0
	}
	perByte := 2.0
	if b[bmpChannelsOff] > 1 {
		perByte = 1
	}
	return float64(len(b)-bmpDataOff) * perByte / float64(rate)
}
