/*
NAME
  sequence.go

DESCRIPTION
  sequence.go provides the event and track types shared by every chart
  format.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package sequence models charts as tracks producing time ordered sample
// trigger and kill events, and parses the chart formats that produce them.
package sequence

import (
	"sort"

	"github.com/ausocean/bemani/sample"
)

// Centre is the pan value of a sample played equally on both sides.
const Centre = 0.5

// Event is either a SampleEvent or a KillEvent.
type Event interface {
	// Timestamp returns the event time in seconds from the start of the track.
	Timestamp() float64
	event()
}

// SampleEvent starts playback of a cached sample.
type SampleEvent struct {
	Time float64

	// Duration limits playback in seconds. Zero plays the whole sample.
	Duration float64

	ID sample.ID

	// PlaybackID identifies this playback within its track so that a later
	// KillEvent can stop it. Playback IDs start at one.
	PlaybackID uint64

	// Volume scales the sample. Negative values invert its phase.
	Volume float64

	// Pan runs from 0 (left) to 1 (right).
	Pan float64
}

func (e *SampleEvent) Timestamp() float64 { return e.Time }
func (*SampleEvent) event()               {}

// KillEvent stops the playback started by the SampleEvent with the same
// PlaybackID on the same track.
type KillEvent struct {
	Time       float64
	PlaybackID uint64
}

func (e *KillEvent) Timestamp() float64 { return e.Time }
func (*KillEvent) event()               {}

// Track is a source of events in time order.
type Track interface {
	// Next returns the next event, or false when the track is finished.
	Next() (Event, bool)

	// Finished reports whether Next has no more events to return.
	Finished() bool

	// Length returns the time in seconds of the track's last event.
	Length() float64

	// Reset rewinds the track to its first event. Playback IDs are
	// reassigned identically.
	Reset()
}

// InfoSource provides per-sample playback metadata; *sample.Cache
// implements it.
type InfoSource interface {
	Info(id sample.ID) (sample.Info, bool)
}

// BasicTrack is a Track holding a fixed list of events.
type BasicTrack struct {
	events []Event
	pos    int
	nextID uint64
	length float64
}

// Add appends e to the track, keeping events ordered by time. Sample events
// without a playback ID are given the track's next one.
func (t *BasicTrack) Add(e Event) {
	if se, ok := e.(*SampleEvent); ok {
		if se.PlaybackID == 0 {
			t.nextID++
			se.PlaybackID = t.nextID
		}
		if end := se.Time + se.Duration; end > t.length {
			t.length = end
		}
	}
	if e.Timestamp() > t.length {
		t.length = e.Timestamp()
	}

	i := sort.Search(len(t.events), func(i int) bool { return t.events[i].Timestamp() > e.Timestamp() })
	t.events = append(t.events, nil)
	copy(t.events[i+1:], t.events[i:])
	t.events[i] = e
}

// Next implements Track.
func (t *BasicTrack) Next() (Event, bool) {
	if t.pos >= len(t.events) {
		return nil, false
	}
	e := t.events[t.pos]
	t.pos++
	return e, true
}

// Finished implements Track.
func (t *BasicTrack) Finished() bool { return t.pos >= len(t.events) }

// Length implements Track. Sample events with a duration count to their end.
func (t *BasicTrack) Length() float64 { return t.length }

// Reset implements Track.
func (t *BasicTrack) Reset() { t.pos = 0 }

// Len returns the number of events in the track.
func (t *BasicTrack) Len() int { return len(t.events) }

// Events returns every event of t in time order.
func Events(t Track) []Event {
	t.Reset()
	var evs []Event
	for {
		e, ok := t.Next()
		if !ok {
			break
		}
		evs = append(evs, e)
	}
	t.Reset()
	return evs
}
