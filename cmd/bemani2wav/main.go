/*
DESCRIPTION
  bemani2wav renders BEMANI game songs to WAV files, and extracts samples
  and archived files from game data.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package bemani2wav is a command line program that decodes BEMANI audio
// data to WAV.
//
// Usage:
//
//	bemani2wav [flags] song_bgm.ifs [song_seq.ifs]
//	bemani2wav [flags] chart.1
//	bemani2wav -subsong 3 bank.2dx
//	bemani2wav -wma -tables wmadata.h sample.asf
//	bemani2wav -extract dir archive.ifs
//
// WMA decoding, used by S3P banks and ASF files, needs the coefficient
// tables of FFmpeg's wmadata.h, given with -tables. They are not built in.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ausocean/utils/logging"
	"github.com/ausocean/utils/sliceutils"
	"github.com/kennygrant/sanitize"
	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/bemani/codec/asf"
	"github.com/ausocean/bemani/codec/pcm"
	"github.com/ausocean/bemani/codec/wav"
	"github.com/ausocean/bemani/codec/wma"
	"github.com/ausocean/bemani/config"
	"github.com/ausocean/bemani/container/bank"
	"github.com/ausocean/bemani/container/ifs"
	"github.com/ausocean/bemani/container/probe"
	"github.com/ausocean/bemani/mixer"
	"github.com/ausocean/bemani/sample"
)

// Logging related constants.
const (
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
)

// flagKeys maps command line flags to config variables.
var flagKeys = map[string]string{
	"antialias": config.KeyAntiAlias,
	"log":       config.KeyLogPath,
	"loglevel":  config.KeyLogging,
	"mute":      config.KeyMute,
	"out":       config.KeyOutput,
	"preview":   config.KeyPreview,
	"rate":      config.KeySampleRate,
	"solo":      config.KeySolo,
	"subsong":   config.KeySubsong,
	"tables":    config.KeyWMATables,
	"verbose":   config.KeyVerbose,
	"workers":   config.KeyWorkers,
}

func main() {
	flag.Bool("antialias", false, "low-pass filter samples before downsampling")
	flag.String("log", "", "log file path")
	flag.String("loglevel", "Info", "log level: Debug, Info, Warning, Error or Fatal")
	flag.String("mute", "", "parts to mute: d(rums) g(uitar) b(ass) k(eyboard) s(tream)")
	flag.String("out", "", "output WAV file")
	flag.Bool("preview", false, "render the song preview")
	flag.Uint("rate", 0, "output sample rate override in Hz")
	flag.String("solo", "", "parts to keep, muting all others")
	flag.Int("subsong", 0, "extract a single 1-based sample of a 2DX or S3P bank")
	flag.String("tables", "", "path of FFmpeg's wmadata.h; required for S3P banks and ASF files")
	flag.Bool("verbose", false, "dump archive manifests and log debug messages")
	flag.Uint("workers", 0, "goroutines decoding bank samples")
	wmaMode := flag.Bool("wma", false, "decode standalone WMA/ASF files")
	extract := flag.String("extract", "", "extract the files of IFS archives to this directory")
	flag.Parse()

	vars := make(map[string]string)
	flag.Visit(func(f *flag.Flag) {
		if k, ok := flagKeys[f.Name]; ok {
			vars[k] = f.Value.String()
		}
	})

	cfg := config.Config{Logger: logging.New(logging.Warning, os.Stderr, false)}
	cfg.Update(vars)
	cfg.Validate()

	// Create lumberjack logger to handle logging to file.
	fileLog := &lumberjack.Logger{
		Filename:   cfg.LogPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(cfg.LogLevel, io.MultiWriter(os.Stderr, fileLog), cfg.Suppress)
	cfg.Logger = log

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	tables, err := loadTables(cfg.WMATables)
	if err != nil {
		log.Fatal("could not load WMA tables", "error", err)
	}

	switch {
	case *extract != "":
		err = extractFiles(log, args, *extract)
	case *wmaMode:
		err = decodeASF(&cfg, tables, args)
	default:
		err = run(&cfg, tables, args)
	}
	switch errors.Cause(err) {
	case nil:
	case sample.ErrNoPlayableTracks:
		log.Fatal("song has no playable tracks", "file", args[0])
	case sample.ErrNotFound:
		log.Fatal("file not found", "error", err)
	case sample.ErrUnsupported:
		log.Fatal("unsupported format", "error", err)
	default:
		log.Fatal("failed", "error", err)
	}
}

func loadTables(path string) (*wma.Tables, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return wma.LoadTables(f)
}

// readFile reads a file, reporting a missing file as sample.ErrNotFound.
func readFile(name string) ([]byte, error) {
	b, err := os.ReadFile(name)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(sample.ErrNotFound, name)
	}
	return b, err
}

// run renders or extracts from the input named first in args, routed by its
// format.
func run(cfg *config.Config, tables *wma.Tables, args []string) error {
	name := args[0]
	b, err := readFile(name)
	if err != nil {
		return err
	}

	kind := probe.Format(name, b, readFile)
	cfg.Logger.Debug("identified input", "file", name, "format", kind)

	opts := mixer.Options{
		Mute:      cfg.MuteMask(),
		Preview:   cfg.Preview,
		Rate:      int(cfg.SampleRate),
		AntiAlias: cfg.AntiAlias,
		Workers:   int(cfg.Workers),
		Tables:    tables,
		Open:      readFile,
		Log:       cfg.Logger,
	}
	c := sample.NewCache()

	var tl *mixer.Timeline
	switch kind {
	case probe.IFS:
		set, err := openSet(cfg, args)
		if err != nil {
			return err
		}
		tl, err = mixer.LoadSong(c, set, opts)
		if err != nil {
			return err
		}
	case probe.OneChart:
		tl, err = mixer.LoadIIDX(c, name, opts)
		if err != nil {
			return err
		}
	case probe.S3P, probe.TwoDX:
		return bankSample(cfg, tables, kind, b)
	case probe.WAVE:
		s, err := wav.Decode(b)
		if err != nil {
			return err
		}
		return writeSample(cfg, s, name)
	case probe.ASF:
		s, err := asf.Decode(tables, b)
		if err != nil {
			return err
		}
		return writeSample(cfg, s, name)
	default:
		return errors.Wrap(sample.ErrUnsupported, name)
	}

	if err := tl.Playable(); err != nil {
		return err
	}
	cfg.Logger.Info("rendering", "file", cfg.Output, "tracks", len(tl.Tracks), "seconds", tl.Duration(), "rate", tl.Rate)
	f, err := os.Create(cfg.Output)
	if err != nil {
		return err
	}
	defer f.Close()
	return tl.Render(wav.NewSink(f, title(name)))
}

// openSet parses the IFS archives in args along with the archive paired with
// the first, if it exists and was not given.
func openSet(cfg *config.Config, args []string) (ifs.Set, error) {
	names := append([]string(nil), args...)
	if p := ifs.PairedFile(args[0]); p != "" && !sliceutils.ContainsString(names, p) {
		if _, err := os.Stat(p); err == nil {
			names = append(names, p)
		}
	}

	var set ifs.Set
	for _, n := range names {
		c, err := parseIFS(n)
		if err != nil {
			return nil, errors.Wrapf(err, "could not open %s", n)
		}
		if cfg.Verbose {
			if err := c.Manifest.Dump(os.Stderr); err != nil {
				cfg.Logger.Warning("could not dump manifest", "file", n, "error", err)
			}
		}
		set = append(set, c)
	}
	return set, nil
}

func parseIFS(name string) (*ifs.Container, error) {
	b, err := readFile(name)
	if err != nil {
		return nil, err
	}
	return ifs.Parse(b)
}

// bankSample writes the sample selected by Subsong, or lists the bank's
// samples if none is selected.
func bankSample(cfg *config.Config, tables *wma.Tables, kind probe.Kind, b []byte) error {
	if cfg.Subsong == 0 {
		var ids []sample.ID
		var err error
		if kind == probe.S3P {
			ids, err = bank.S3PIDs(b, 0)
		} else {
			ids, err = bank.TwoDXIDs(b, 0)
		}
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Println(id.Index())
		}
		return nil
	}

	var (
		s   *sample.Decoded
		err error
	)
	if kind == probe.S3P {
		s, err = bank.S3PSample(tables, b, cfg.Subsong)
	} else {
		s, err = bank.TwoDXSample(b, cfg.Subsong)
	}
	if err != nil {
		return err
	}
	return writeSample(cfg, s, fmt.Sprintf("sample %d", cfg.Subsong))
}

// decodeASF converts each standalone WMA file in args to WAV. With more than
// one input, outputs are named after the inputs.
func decodeASF(cfg *config.Config, tables *wma.Tables, args []string) error {
	for _, name := range args {
		b, err := readFile(name)
		if err != nil {
			return err
		}
		s, err := asf.Decode(tables, b)
		if err != nil {
			return errors.Wrapf(err, "could not decode %s", name)
		}
		out := *cfg
		if len(args) > 1 {
			out.Output = strings.TrimSuffix(name, filepath.Ext(name)) + ".wav"
		}
		if err := writeSample(&out, s, name); err != nil {
			return err
		}
	}
	return nil
}

// writeSample writes s to the configured output at the configured rate.
func writeSample(cfg *config.Config, s *sample.Decoded, name string) error {
	if cfg.SampleRate != 0 {
		var err error
		s, err = pcm.Resample(s, int(cfg.SampleRate), cfg.AntiAlias)
		if err != nil {
			return err
		}
	}
	if s.Len() == 0 {
		return errors.Wrap(sample.ErrNoPlayableTracks, name)
	}
	f, err := os.Create(cfg.Output)
	if err != nil {
		return err
	}
	defer f.Close()
	cfg.Logger.Info("writing sample", "file", cfg.Output, "seconds", s.Duration())
	return wav.NewSink(f, title(name)).Write(s.Rate, s.Channels)
}

// extractFiles writes every file of the IFS archives in args to dir.
func extractFiles(log logging.Logger, args []string, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, name := range args {
		c, err := parseIFS(name)
		if err != nil {
			return errors.Wrapf(err, "could not open %s", name)
		}
		for _, n := range c.Names() {
			path := filepath.Join(dir, sanitize.Name(n))
			if err := os.WriteFile(path, c.Files[n], 0644); err != nil {
				return err
			}
			log.Debug("extracted file", "archive", name, "file", path, "bytes", len(c.Files[n]))
		}
		log.Info("extracted archive", "archive", name, "files", len(c.Files))
	}
	return nil
}

func title(name string) string {
	return strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
}
