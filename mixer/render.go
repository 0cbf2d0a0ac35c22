/*
NAME
  render.go

DESCRIPTION
  render.go provides mixing of a Timeline's tracks into stereo 16-bit PCM.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mixer

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/ausocean/bemani/codec/pcm"
	"github.com/ausocean/bemani/sample"
	"github.com/ausocean/bemani/sequence"
)

// Sink receives rendered audio. *wav.Sink implements it.
type Sink interface {
	Write(rate int, channels [][]int16) error
}

// voice is one sounding sample, spanning output frames [start, end).
type voice struct {
	src        [][]float64
	start, end int
	left       float64
	right      float64
}

// Render mixes every track of t into stereo and writes the result to s.
// Samples missing from the cache are skipped. A kill event cuts its voice
// short at the time of the kill.
func (t *Timeline) Render(s Sink) error {
	if err := t.Playable(); err != nil {
		return err
	}

	sources := make(map[sample.ID][][]float64)
	var voices []*voice
	for _, tr := range t.Tracks {
		vs, err := t.voices(tr, sources)
		if err != nil {
			return err
		}
		voices = append(voices, vs...)
	}

	n := int(math.Ceil(t.Duration() * float64(t.Rate)))
	for _, v := range voices {
		if v.end > n {
			n = v.end
		}
	}

	left := make([]float64, n)
	right := make([]float64, n)
	for _, v := range voices {
		if v.end <= v.start {
			continue
		}
		l := v.src[0][:v.end-v.start]
		r := l
		if len(v.src) > 1 {
			r = v.src[1][:v.end-v.start]
		}
		floats.AddScaled(left[v.start:v.end], v.left, l)
		floats.AddScaled(right[v.start:v.end], v.right, r)
	}

	t.log.Debug("rendered timeline", "voices", len(voices), "frames", n, "rate", t.Rate)
	return s.Write(t.Rate, [][]int16{clip(left), clip(right)})
}

// voices walks tr from the start and returns the voices it plays.
func (t *Timeline) voices(tr sequence.Track, sources map[sample.ID][][]float64) ([]*voice, error) {
	tr.Reset()
	defer tr.Reset()

	var vs []*voice
	playing := make(map[uint64]*voice)
	for {
		e, ok := tr.Next()
		if !ok {
			break
		}
		at := t.frame(e.Timestamp())

		switch e := e.(type) {
		case *sequence.SampleEvent:
			src, err := t.source(e.ID, sources)
			if err != nil {
				return nil, err
			}
			if src == nil {
				t.log.Debug("sample not loaded", "id", e.ID)
				continue
			}
			length := len(src[0])
			if e.Duration > 0 {
				if d := t.frame(e.Duration); d < length {
					length = d
				}
			}
			v := &voice{src: src, start: at, end: at + length}
			v.left, v.right = gains(e.Volume, e.Pan)
			if v.start < 0 {
				v.src = trim(src, -v.start)
				v.start = 0
			}
			vs = append(vs, v)
			playing[e.PlaybackID] = v
		case *sequence.KillEvent:
			v, ok := playing[e.PlaybackID]
			if !ok {
				continue
			}
			if at < v.end {
				v.end = at
			}
			if v.end < v.start {
				v.end = v.start
			}
			delete(playing, e.PlaybackID)
		}
	}
	return vs, nil
}

func (t *Timeline) frame(sec float64) int { return int(math.Round(sec * float64(t.Rate))) }

// source returns the channels of sample id at the output rate, or nil if
// it is not in the cache.
func (t *Timeline) source(id sample.ID, sources map[sample.ID][][]float64) ([][]float64, error) {
	if src, ok := sources[id]; ok {
		return src, nil
	}
	s, ok := t.cache.Get(id)
	if !ok || s.Len() == 0 {
		sources[id] = nil
		return nil, nil
	}
	s, err := pcm.Resample(s, t.Rate, t.antiAlias)
	if err != nil {
		return nil, errors.Wrapf(err, "could not resample %v", id)
	}
	src := make([][]float64, len(s.Channels))
	for i, ch := range s.Channels {
		src[i] = make([]float64, len(ch))
		for j, v := range ch {
			src[i][j] = float64(v)
		}
	}
	sources[id] = src
	return src, nil
}

// gains returns the left and right gains for a voice of volume vol panned
// to pan. Centre gives full volume on both sides.
func gains(vol, pan float64) (float64, float64) {
	return vol * clamp(2*(1-pan)), vol * clamp(2*pan)
}

func clamp(g float64) float64 { return math.Max(0, math.Min(1, g)) }

func trim(src [][]float64, n int) [][]float64 {
	out := make([][]float64, len(src))
	for i, ch := range src {
		if n > len(ch) {
			n = len(ch)
		}
		out[i] = ch[n:]
	}
	return out
}

func clip(x []float64) []int16 {
	y := make([]int16, len(x))
	for i, v := range x {
		y[i] = int16(math.Max(math.MinInt16, math.Min(math.MaxInt16, math.Round(v))))
	}
	return y
}
