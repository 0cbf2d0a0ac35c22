/*
NAME
  load.go

DESCRIPTION
  load.go provides loading of IFS and IIDX songs into a Timeline.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package mixer loads songs into timelines of tracks and renders them to
// stereo PCM.
package mixer

import (
	"os"
	"path"
	"sort"
	"strings"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/bemani/codec/wma"
	"github.com/ausocean/bemani/container/bank"
	"github.com/ausocean/bemani/container/ifs"
	"github.com/ausocean/bemani/sample"
	"github.com/ausocean/bemani/sequence"
	"github.com/ausocean/bemani/sequence/phase"
)

// Default output rates.
const (
	SongRate = 48000
	IIDXRate = 44100
)

// Backing streams carry no volume of their own and are mixed at this level.
const streamVolume = 2.0

const (
	streamPrefix   = "bgm"
	streamExt      = ".bin"
	previewSuffix  = "_pre"
	partLetters    = 4
	chartExtPrefix = ".sq"
)

// Options control song loading and rendering.
type Options struct {
	// Mute holds the parts left out of the mix. See MuteMask and SoloMask.
	Mute sample.ID

	// Preview plays a song's preview stream, if it has one, instead of its
	// charts.
	Preview bool

	// Rate overrides the output sample rate when non-zero.
	Rate int

	// AntiAlias low-pass filters samples that are downsampled to the output
	// rate.
	AntiAlias bool

	// Workers is the number of goroutines decoding bank entries.
	Workers int

	// Tables holds the WMA tables used by S3P banks. It may be nil if no
	// S3P bank is loaded.
	Tables *wma.Tables

	// Open reads a file by name. It defaults to reading from disk.
	Open func(name string) ([]byte, error)

	Log logging.Logger // Must be set.
}

// MuteMask returns the mute mask leaving out the parts named by letters.
func MuteMask(letters string) sample.ID { return sample.PartMask & sample.ParseSpaces(letters) }

// SoloMask returns the mute mask leaving out every part not named by
// letters.
func SoloMask(letters string) sample.ID { return sample.PartMask &^ sample.ParseSpaces(letters) }

func (o *Options) rate(def int) int {
	if o.Rate > 0 {
		return o.Rate
	}
	return def
}

func (o *Options) open(name string) ([]byte, error) {
	if o.Open != nil {
		return o.Open(name)
	}
	b, err := os.ReadFile(name)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(sample.ErrNotFound, name)
	}
	return b, err
}

// LoadSong loads the song held by the IFS archives in set. Samples are
// decoded into c, which must have been purged of any previous song.
//
// Charts of muted parts are not loaded. If the song has no charts its
// backing is rebuilt from its partial backing streams; otherwise the
// backing stream covering the most parts is added unless backing is muted.
// A backing stream that fails to decode beside loaded charts is skipped.
// A song that yields no tracks is not an error; see Timeline.Playable.
func LoadSong(c *sample.Cache, set ifs.Set, o Options) (*Timeline, error) {
	dec := bank.NewDecoder(o.Tables, c, o.Log)
	t := newTimeline(c, o, o.rate(SongRate))

	streams := make(map[sample.ID]string)
	var previews, charts []string
	var sq3 bool
	for _, name := range set.Names() {
		ext := path.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		switch {
		case ext == ".va3":
			if stem == "" {
				continue
			}
			b, _ := set.Find(name)
			space := sample.ParseSpaces(stem[len(stem)-1:])
			if _, err := dec.VA3(b, space); err != nil {
				o.Log.Warning("skipping sample table", "file", name, "error", err)
			}
		case ext == streamExt && strings.HasPrefix(name, streamPrefix):
			if strings.HasSuffix(stem, previewSuffix) {
				previews = append(previews, name)
				continue
			}
			parts := strings.TrimPrefix(stem, streamPrefix)
			if len(parts) > partLetters {
				parts = parts[len(parts)-partLetters:]
			}
			streams[sample.ParseSpaces(parts)|sample.SpaceBacking] = name
		case strings.HasPrefix(ext, chartExtPrefix):
			sq3 = sq3 || strings.HasSuffix(name, "3")
			charts = append(charts, name)
		}
	}

	if o.Preview {
		if len(previews) > 0 {
			err := t.addStream(set, previews[0], sample.SpaceBacking)
			return t, err
		}
		o.Log.Warning("no preview stream, playing full song")
	}

	var sequences sample.ID
	for _, name := range charts {
		data, _ := set.Find(name)
		space := sample.ParseSpaces(name[:1])

		var (
			tr  sequence.Track
			err error
		)
		switch {
		case strings.HasSuffix(name, "3"):
			if !sq3 {
				continue
			}
			if space&o.Mute == 0 {
				tr, err = sequence.NewSq3(data, space, c)
			}
		case strings.HasSuffix(name, "2"):
			if sq3 {
				continue
			}
			if space&o.Mute == 0 {
				tr, err = sequence.NewSq2(data, space, c)
			}
		default:
			o.Log.Warning("unknown chart type", "file", name)
			continue
		}
		if err != nil {
			o.Log.Warning("skipping chart", "file", name, "error", err)
			continue
		}
		sequences |= space
		if tr != nil {
			t.Tracks = append(t.Tracks, tr)
		}
	}

	ids := make([]sample.ID, 0, len(streams))
	for id := range streams {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if sequences == 0 {
		return t, t.addPhased(set, streams, ids)
	}
	if o.Mute&sample.SpaceBacking != 0 {
		return t, nil
	}

	best, bestScore := sample.ID(0), 0
	for _, id := range ids {
		if s := streamScore(id, sequences); s > bestScore {
			best, bestScore = id, s
		}
	}
	if bestScore == 0 {
		return t, nil
	}
	if err := t.addStream(set, streams[best], best); err != nil {
		o.Log.Warning("skipping backing stream", "file", streams[best], "error", err)
	}
	return t, nil
}

// streamScore rates a backing stream against the parts that have charts.
// Streams that complete the song score above 100 and prefer leaving out the
// most charted parts; others score the number of parts covered.
func streamScore(id, sequences sample.ID) int {
	const all = sample.SpaceDrums | sample.SpaceGuitar | sample.SpaceBass | sample.SpaceKeyboard
	covered := (id | sequences) & all
	if covered == all {
		return countParts(all&^id) + 100
	}
	return countParts(covered)
}

func countParts(id sample.ID) int {
	var n int
	for ; id != 0; id &= id - 1 {
		n++
	}
	return n
}

// addStream decodes the named backing stream under id and adds a track
// playing it from the start.
func (t *Timeline) addStream(set ifs.Set, name string, id sample.ID) error {
	if err := t.decodeStream(set, name, id); err != nil {
		return err
	}
	s, _ := t.cache.Get(id)
	tr := &sequence.BasicTrack{}
	tr.Add(&sequence.SampleEvent{
		Duration: s.Duration(),
		ID:       id,
		Volume:   streamVolume,
		Pan:      sequence.Centre,
	})
	t.Tracks = append(t.Tracks, tr)
	return nil
}

// addPhased rebuilds the backing from the song's partial streams. Finding
// no covering combination leaves the timeline empty.
func (t *Timeline) addPhased(set ifs.Set, streams map[sample.ID]string, ids []sample.ID) error {
	res := phase.Select(phase.Candidates(ids), t.mute)
	if len(res.Streams) == 0 {
		t.log.Info("no combination of backing streams covers the song", "streams", len(ids))
		return nil
	}
	for _, id := range res.Streams {
		base := id &^ sample.SpaceInverted
		if err := t.decodeStream(set, streams[base], base); err != nil {
			return err
		}
	}
	tr, err := phase.Align(t.cache, res.Streams)
	if err != nil {
		return err
	}
	t.log.Debug("using phased backing streams", "score", res.Score, "streams", res.Streams)
	t.Tracks = append(t.Tracks, tr)
	return nil
}

func (t *Timeline) decodeStream(set ifs.Set, name string, id sample.ID) error {
	data, ok := set.Find(name)
	if !ok {
		return errors.Wrapf(sample.ErrNotFound, "stream %s", name)
	}
	s, err := bank.DecodeBMP(data)
	if err != nil {
		return errors.Wrapf(err, "could not decode stream %s", name)
	}
	t.cache.Insert(id, s)
	return nil
}

// LoadIIDX loads the song of an IIDX .1 chart named name. Samples come from
// the S3P bank of the same base name or, failing that, the 2DX bank, and
// are decoded into c, which is purged first.
func LoadIIDX(c *sample.Cache, name string, o Options) (*Timeline, error) {
	ext := path.Ext(name)
	if ext == "" {
		return nil, errors.Errorf("chart %s has no extension", name)
	}
	base := strings.TrimSuffix(name, ext)

	b, err := o.open(base + ".1")
	if err != nil {
		return nil, errors.Wrap(err, "could not read chart")
	}
	tr, err := sequence.Parse(b)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse chart")
	}

	dec := bank.NewDecoder(o.Tables, c, o.Log)
	opts := bank.Options{Workers: o.Workers}
	loaders := []struct {
		ext  string
		load func([]byte, bank.Options) (int, error)
	}{
		{".s3p", dec.S3P},
		{".2dx", dec.TwoDX},
	}

	var last error
	loaded := false
	for _, l := range loaders {
		c.PurgeAll()
		b, err := o.open(base + l.ext)
		if err != nil {
			if errors.Cause(err) != sample.ErrNotFound {
				last = err
			}
			continue
		}
		n, err := l.load(b, opts)
		if err != nil {
			o.Log.Warning("could not load bank", "file", base+l.ext, "error", err)
			last = err
			continue
		}
		o.Log.Debug("loaded bank", "file", base+l.ext, "samples", n)
		loaded = true
		break
	}
	if !loaded {
		if last == nil {
			last = errors.Wrap(sample.ErrNotFound, "no sample data found")
		}
		return nil, last
	}

	t := newTimeline(c, o, o.rate(IIDXRate))
	t.Tracks = append(t.Tracks, tr)
	return t, nil
}
