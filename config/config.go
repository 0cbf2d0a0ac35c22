/*
NAME
  config.go

DESCRIPTION
  config.go provides the Config struct holding the settings of a bemani
  render or extraction run.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config contains the configuration settings for bemani.
package config

import (
	"github.com/ausocean/utils/logging"

	"github.com/ausocean/bemani/mixer"
	"github.com/ausocean/bemani/sample"
)

// Config provides the parameters of a run. Default values for fields are
// applied by Validate and are defined in variables.go.
type Config struct {
	// Logger holds an implementation of the Logger interface as defined in
	// github.com/ausocean/utils/logging. This must be set for the config to
	// be used.
	Logger logging.Logger

	// LogLevel is the logging verbosity level.
	// Valid values are defined by enums from the logging package: logging.Debug,
	// logging.Info, logging.Warning, logging.Error and logging.Fatal.
	LogLevel int8

	LogPath  string // Path of the rotated log file.
	Suppress bool   // Holds logger suppression state.

	// Mute and Solo name instrument parts by letter: d for drums, g for
	// guitar, b for bass, k for keyboard and s for the backing stream.
	// Muted parts are left out of the mix; if Solo is set only the parts it
	// names are kept.
	Mute string
	Solo string

	Preview bool // Render the song's preview stream instead of the full song.

	// Subsong selects a single 1-based sample of a 2DX or S3P bank to
	// extract. Zero renders the whole song.
	Subsong int

	Output string // Output WAV file, or directory in extract mode.

	// WMATables is the path of a wmadata.h file holding the WMA coefficient
	// tables. It is required to decode S3P banks and ASF files.
	WMATables string

	SampleRate uint // Output rate override in Hz; zero keeps the song's rate.
	AntiAlias  bool // Low-pass filter samples before downsampling.
	Workers    uint // Goroutines decoding bank entries.
	Verbose    bool // Dump archive manifests and log at debug level.
}

// Validate checks for any errors in the config fields and defaults settings
// if particular parameters have not been defined.
func (c *Config) Validate() error {
	for _, v := range Variables {
		if v.Validate != nil {
			v.Validate(c)
		}
	}
	return nil
}

// Update takes a map of configuration variable names and their corresponding
// values, parses the string values and converting into correct type, and then
// sets the config struct fields as appropriate.
func (c *Config) Update(vars map[string]string) {
	for _, value := range Variables {
		if v, ok := vars[value.Name]; ok && value.Update != nil {
			value.Update(c, v)
		}
	}
}

// MuteMask returns the parts left out of the mix by Mute and Solo.
func (c *Config) MuteMask() sample.ID {
	m := mixer.MuteMask(c.Mute)
	if c.Solo != "" {
		m |= mixer.SoloMask(c.Solo)
	}
	return m
}

func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}
