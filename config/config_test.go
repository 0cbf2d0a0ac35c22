/*
DESCRIPTION
  config_test.go provides testing for the Config struct methods (Validate and Update).

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import (
	"testing"

	"github.com/ausocean/utils/logging"
	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/bemani/sample"
)

type dumbLogger struct{}

func (dl *dumbLogger) Log(l int8, m string, a ...interface{})  {}
func (dl *dumbLogger) SetLevel(l int8)                         {}
func (dl *dumbLogger) Debug(msg string, args ...interface{})   {}
func (dl *dumbLogger) Info(msg string, args ...interface{})    {}
func (dl *dumbLogger) Warning(msg string, args ...interface{}) {}
func (dl *dumbLogger) Error(msg string, args ...interface{})   {}
func (dl *dumbLogger) Fatal(msg string, args ...interface{})   {}

func TestValidate(t *testing.T) {
	dl := &dumbLogger{}

	tests := []struct {
		name string
		in   Config
		want Config
	}{
		{
			name: "defaults",
			in:   Config{Logger: dl},
			want: Config{
				Logger:  dl,
				LogPath: defaultLogPath,
				Output:  defaultOutput,
				Workers: defaultWorkers,
			},
		},
		{
			name: "bad values",
			in: Config{
				Logger:     dl,
				Mute:       "dx",
				Solo:       "q",
				Subsong:    -3,
				SampleRate: 100,
				Verbose:    true,
			},
			want: Config{
				Logger:   dl,
				LogLevel: logging.Debug,
				LogPath:  defaultLogPath,
				Output:   defaultOutput,
				Workers:  defaultWorkers,
				Verbose:  true,
			},
		},
		{
			name: "good values",
			in: Config{
				Logger:     dl,
				LogPath:    "/tmp/bemani.log",
				Mute:       "ds",
				Output:     "song.wav",
				SampleRate: 22050,
				Subsong:    2,
				Workers:    1,
			},
			want: Config{
				Logger:     dl,
				LogPath:    "/tmp/bemani.log",
				Mute:       "ds",
				Output:     "song.wav",
				SampleRate: 22050,
				Subsong:    2,
				Workers:    1,
			},
		},
	}

	for _, tt := range tests {
		got := tt.in
		err := (&got).Validate()
		if err != nil {
			t.Fatalf("%s: did not expect error: %v", tt.name, err)
		}
		if !cmp.Equal(got, tt.want) {
			t.Errorf("%s: configs not equal\nwant: %v\ngot: %v", tt.name, tt.want, got)
		}
	}
}

func TestUpdate(t *testing.T) {
	updateMap := map[string]string{
		"AntiAlias":  "true",
		"logging":    "Warning",
		"LogPath":    "/var/log/bemani.log",
		"Mute":       "DG",
		"Output":     "/out/song.wav",
		"Preview":    "true",
		"SampleRate": "44100",
		"Solo":       "k",
		"Subsong":    "12",
		"Suppress":   "false",
		"Verbose":    "true",
		"WMATables":  "/tables/wmadata.h",
		"Workers":    "8",
	}

	dl := &dumbLogger{}

	want := Config{
		Logger:     dl,
		AntiAlias:  true,
		LogLevel:   logging.Warning,
		LogPath:    "/var/log/bemani.log",
		Mute:       "dg",
		Output:     "/out/song.wav",
		Preview:    true,
		SampleRate: 44100,
		Solo:       "k",
		Subsong:    12,
		Verbose:    true,
		WMATables:  "/tables/wmadata.h",
		Workers:    8,
	}

	got := Config{Logger: dl}
	got.Update(updateMap)
	if !cmp.Equal(want, got) {
		t.Errorf("configs not equal\nwant: %v\ngot: %v", want, got)
	}
}

func TestMuteMask(t *testing.T) {
	tests := []struct {
		mute, solo string
		want       sample.ID
	}{
		{want: 0},
		{mute: "d", want: sample.SpaceDrums},
		{solo: "gs", want: sample.SpaceDrums | sample.SpaceBass | sample.SpaceKeyboard},
		{mute: "s", solo: "ds", want: sample.SpaceGuitar | sample.SpaceBass | sample.SpaceKeyboard | sample.SpaceBacking},
	}
	for _, tt := range tests {
		c := Config{Mute: tt.mute, Solo: tt.solo}
		if got := c.MuteMask(); got != tt.want {
			t.Errorf("MuteMask() with mute %q and solo %q = %v, want %v", tt.mute, tt.solo, got, tt.want)
		}
	}
}
