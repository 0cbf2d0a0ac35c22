/*
NAME
  timeline.go

DESCRIPTION
  timeline.go provides the Timeline type, a set of tracks ready to render.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mixer

import (
	"path"
	"strings"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/bemani/container/bank"
	"github.com/ausocean/bemani/container/ifs"
	"github.com/ausocean/bemani/sample"
	"github.com/ausocean/bemani/sequence"
)

// Timeline is a loaded song: tracks of events whose samples are held in a
// cache.
type Timeline struct {
	// Rate is the output sample rate in Hz.
	Rate int

	Tracks []sequence.Track

	cache     *sample.Cache
	log       logging.Logger
	mute      sample.ID
	antiAlias bool
}

func newTimeline(c *sample.Cache, o Options, rate int) *Timeline {
	return &Timeline{
		Rate:      rate,
		cache:     c,
		log:       o.Log,
		mute:      o.Mute,
		antiAlias: o.AntiAlias,
	}
}

// Playable returns sample.ErrNoPlayableTracks if t has no tracks.
func (t *Timeline) Playable() error {
	if len(t.Tracks) == 0 {
		return sample.ErrNoPlayableTracks
	}
	return nil
}

// Duration returns the length in seconds of the longest track.
func (t *Timeline) Duration() float64 {
	var d float64
	for _, tr := range t.Tracks {
		if l := tr.Length(); l > d {
			d = l
		}
	}
	return d
}

// SongDuration estimates the length of the song in set without decoding
// any audio, from its charts and backing streams.
func SongDuration(set ifs.Set) float64 {
	var d float64
	for _, name := range set.Names() {
		b, _ := set.Find(name)
		var l float64
		switch ext := path.Ext(name); {
		case ext == streamExt && strings.HasPrefix(name, streamPrefix):
			l = bank.BMPDuration(b)
		case strings.HasPrefix(ext, chartExtPrefix):
			l = sequence.ChartLength(b, strings.HasSuffix(name, "3"))
		}
		if l > d {
			d = l
		}
	}
	return d
}
