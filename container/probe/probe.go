/*
NAME
  probe.go

DESCRIPTION
  probe.go provides identification of input files so they can be routed to
  the right loader.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package probe identifies the format of an input file.
package probe

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ausocean/bemani/container/bank"
	"github.com/ausocean/bemani/container/ifs"
)

// Kind is an input file format.
type Kind int

const (
	Unknown Kind = iota
	IFS
	S3P
	TwoDX
	OneChart
	WAVE
	ASF
)

// String returns the name of k.
func (k Kind) String() string {
	switch k {
	case IFS:
		return "IFS"
	case S3P:
		return "S3P"
	case TwoDX:
		return "2DX"
	case OneChart:
		return ".1 chart"
	case WAVE:
		return "WAVE"
	case ASF:
		return "ASF"
	}
	return "unknown"
}

// MIME types of the formats recognised by content sniffing.
const (
	mimeWAVE = "audio/wav"
	mimeASF  = "video/x-ms-asf"
)

// OpenFunc returns the contents of the named file.
type OpenFunc func(name string) ([]byte, error)

// Format identifies the file name holding b. A .1 chart is only recognised
// if open can supply a paired .s3p or .2dx bank. open may be nil.
func Format(name string, b []byte, open OpenFunc) Kind {
	if ext := filepath.Ext(name); ext == ".1" {
		base := strings.TrimSuffix(name, ext)
		if open == nil {
			return Unknown
		}
		for _, pair := range []struct {
			ext  string
			kind Kind
		}{
			{".s3p", S3P},
			{".2dx", TwoDX},
		} {
			p, err := open(base + pair.ext)
			if err != nil {
				continue
			}
			if Format(base+pair.ext, p, nil) == pair.kind {
				return OneChart
			}
		}
		return Unknown
	}

	switch {
	case ifs.Valid(b):
		return IFS
	case bank.IsS3P(b):
		return S3P
	case bank.IsTwoDX(b):
		return TwoDX
	}

	switch m := mimetype.Detect(b); {
	case m.Is(mimeWAVE):
		return WAVE
	case m.Is(mimeASF):
		return ASF
	}
	return Unknown
}
