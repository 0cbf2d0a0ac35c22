/*
NAME
  phase.go

DESCRIPTION
  phase.go provides selection and alignment of partial backing streams that
  together reconstruct a complete backing track.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package phase chooses a set of backing streams, some of them phase
// inverted, whose sum covers each instrument part exactly once, and aligns
// them into a single track.
//
// A stream's ID carries the parts it contains in its instrument space bits.
// Adding an inverted stream cancels parts already present, so a part's count
// is odd when it is audible and even when it has been cancelled out.
package phase

import (
	"github.com/pkg/errors"

	"github.com/ausocean/bemani/sample"
	"github.com/ausocean/bemani/sequence"
)

// Part channels. Backing is not a part channel.
const (
	channels    = 4
	channelBase = 16
	channelMask = 0xf
)

// Scores of a part heard once, three times and five or more times.
const (
	scoreOnce  = 10
	scoreThree = 7
	scoreMany  = 6
)

// Amplitude a stream must rise above before its first falling sample marks
// the stream start.
const startThreshold = 128

// Result is a scored combination of streams.
type Result struct {
	Score   int
	Streams []sample.ID
}

// Candidates returns each stream followed by its inverted form, the order
// Select expects.
func Candidates(streams []sample.ID) []sample.ID {
	c := make([]sample.ID, 0, 2*len(streams))
	for _, s := range streams {
		c = append(c, s, s|sample.SpaceInverted)
	}
	return c
}

// Select returns the highest scoring combination of candidates that leaves
// every part outside mute audible. Streams containing a muted part are not
// used, nor is a stream in both polarities. A normal stream may only add
// parts that are not audible, and an inverted stream may only cancel parts
// that are. Among equal scores the first combination found in candidate
// order wins. An empty Result means no combination covers the parts.
func Select(candidates []sample.ID, mute sample.ID) Result {
	s := selector{
		cands: candidates,
		mute:  partBits(mute),
	}
	s.search([channels]int{}, nil)
	return s.best
}

type selector struct {
	cands []sample.ID
	mute  uint
	best  Result
}

// search tries every unused candidate on top of chosen. The order streams
// are added in matters, since a normal stream can restore a part an
// inverted one cancelled.
func (s *selector) search(counts [channels]int, chosen []sample.ID) {
	for _, id := range s.cands {
		v := partBits(id)
		if v&s.mute != 0 || used(chosen, id) {
			continue
		}
		inv := id&sample.SpaceInverted != 0
		next, ok := add(counts, v, inv)
		if !ok {
			continue
		}
		combo := append(chosen[:len(chosen):len(chosen)], id)
		if score, done := s.score(next); done {
			if score > s.best.Score {
				s.best = Result{Score: score, Streams: combo}
			}
			continue
		}
		s.search(next, combo)
	}
}

// add returns counts with the parts in v added. It fails if a normal stream
// adds an audible part or an inverted stream cancels a silent one.
func add(counts [channels]int, v uint, inv bool) ([channels]int, bool) {
	for c := 0; c < channels; c++ {
		if v&(1<<c) == 0 {
			continue
		}
		if audible := counts[c]%2 == 1; audible != inv {
			return counts, false
		}
		counts[c]++
	}
	return counts, true
}

// score returns the score of counts and whether every unmuted part is
// audible.
func (s *selector) score(counts [channels]int) (int, bool) {
	var score int
	for c := 0; c < channels; c++ {
		if s.mute&(1<<c) != 0 {
			continue
		}
		switch n := counts[c]; {
		case n%2 == 0:
			return 0, false
		case n == 1:
			score += scoreOnce
		case n == 3:
			score += scoreThree
		default:
			score += scoreMany
		}
	}
	return score, true
}

func partBits(id sample.ID) uint { return uint(id>>channelBase) & channelMask }

func used(chosen []sample.ID, id sample.ID) bool {
	for _, c := range chosen {
		if c&^sample.SpaceInverted == id&^sample.SpaceInverted {
			return true
		}
	}
	return false
}

// Getter returns a decoded stream.
type Getter interface {
	Get(id sample.ID) (*sample.Decoded, bool)
}

// Align returns a track playing the selected streams together. Each stream
// is shifted so that its start, the first fall in its first channel after
// rising above a fixed amplitude, lines up with the others, and the track
// is then offset so the earliest event starts at zero. Inverted streams
// play with a volume of -1. Streams are looked up without their inverted
// flag.
func Align(g Getter, streams []sample.ID) (*sequence.BasicTrack, error) {
	evs := make([]*sequence.SampleEvent, 0, len(streams))
	var earliest float64
	for _, id := range streams {
		base := id &^ sample.SpaceInverted
		s, ok := g.Get(base)
		if !ok {
			return nil, errors.Wrapf(sample.ErrNotFound, "stream %v not decoded", base)
		}
		if s.Rate <= 0 || len(s.Channels) == 0 {
			return nil, sample.Malformedf("stream %v has no audio", base)
		}
		e := &sequence.SampleEvent{
			Time:     -float64(start(s.Channels[0])) / float64(s.Rate),
			Duration: s.Duration(),
			ID:       base,
			Volume:   1,
			Pan:      sequence.Centre,
		}
		if id&sample.SpaceInverted != 0 {
			e.Volume = -1
		}
		if e.Time < earliest {
			earliest = e.Time
		}
		evs = append(evs, e)
	}

	t := &sequence.BasicTrack{}
	for _, e := range evs {
		e.Time -= earliest
		t.Add(e)
	}
	return t, nil
}

// start returns the index of the first sample lower than its predecessor
// when the predecessor is above startThreshold, or zero.
func start(ch []int16) int {
	var prev int16
	for i, s := range ch {
		if s < prev && prev > startThreshold {
			return i
		}
		prev = s
	}
	return 0
}
