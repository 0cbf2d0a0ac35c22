/*
DESCRIPTION
  variables.go contains a list of structs that provide a variable Name, type in
  a string format, a function for updating the variable in the Config struct
  from a string, and finally, a validation function to check the validity of the
  corresponding field value in the Config.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ausocean/utils/logging"
)

// Config map Keys.
const (
	KeyAntiAlias  = "AntiAlias"
	KeyLogging    = "logging"
	KeyLogPath    = "LogPath"
	KeyMute       = "Mute"
	KeyOutput     = "Output"
	KeyPreview    = "Preview"
	KeySampleRate = "SampleRate"
	KeySolo       = "Solo"
	KeySubsong    = "Subsong"
	KeySuppress   = "Suppress"
	KeyVerbose    = "Verbose"
	KeyWMATables  = "WMATables"
	KeyWorkers    = "Workers"
)

// Config map parameter types.
const (
	typeString = "string"
	typeInt    = "int"
	typeUint   = "uint"
	typeBool   = "bool"
)

// Default variable values.
const (
	defaultLogPath = "bemani.log"
	defaultOutput  = "out.wav"
	defaultWorkers = 4

	// Output rate limits.
	minSampleRate = 8000
	maxSampleRate = 192000
)

// partLetters are the letters accepted by Mute and Solo.
const partLetters = "dgbks"

// Variables describes the variables that can be used to configure a run.
// These structs provide the name and type of variable, a function for updating
// this variable in a Config, and a function for validating the value of the variable.
var Variables = []struct {
	Name     string
	Type     string
	Update   func(*Config, string)
	Validate func(*Config)
}{
	{
		Name:   KeyAntiAlias,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.AntiAlias = parseBool(KeyAntiAlias, v, c) },
	},
	{
		Name: KeyLogging,
		Type: "enum:Debug,Info,Warning,Error,Fatal",
		Update: func(c *Config, v string) {
			switch v {
			case "Debug":
				c.LogLevel = logging.Debug
			case "Info":
				c.LogLevel = logging.Info
			case "Warning":
				c.LogLevel = logging.Warning
			case "Error":
				c.LogLevel = logging.Error
			case "Fatal":
				c.LogLevel = logging.Fatal
			default:
				c.Logger.Warning("invalid Logging param", "value", v)
			}
		},
		Validate: func(c *Config) {
			if c.Verbose {
				c.LogLevel = logging.Debug
			}
		},
	},
	{
		Name:   KeyLogPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.LogPath = v },
		Validate: func(c *Config) {
			if c.LogPath == "" {
				c.LogInvalidField(KeyLogPath, defaultLogPath)
				c.LogPath = defaultLogPath
			}
		},
	},
	{
		Name:   KeyMute,
		Type:   typeString,
		Update: func(c *Config, v string) { c.Mute = strings.ToLower(v) },
		Validate: func(c *Config) {
			if !validParts(c.Mute) {
				c.LogInvalidField(KeyMute, "")
				c.Mute = ""
			}
		},
	},
	{
		Name:   KeyOutput,
		Type:   typeString,
		Update: func(c *Config, v string) { c.Output = v },
		Validate: func(c *Config) {
			if c.Output == "" {
				c.LogInvalidField(KeyOutput, defaultOutput)
				c.Output = defaultOutput
			}
		},
	},
	{
		Name:   KeyPreview,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Preview = parseBool(KeyPreview, v, c) },
	},
	{
		Name:   KeySampleRate,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.SampleRate = parseUint(KeySampleRate, v, c) },
		Validate: func(c *Config) {
			if c.SampleRate != 0 && (c.SampleRate < minSampleRate || c.SampleRate > maxSampleRate) {
				c.LogInvalidField(KeySampleRate, 0)
				c.SampleRate = 0
			}
		},
	},
	{
		Name:   KeySolo,
		Type:   typeString,
		Update: func(c *Config, v string) { c.Solo = strings.ToLower(v) },
		Validate: func(c *Config) {
			if !validParts(c.Solo) {
				c.LogInvalidField(KeySolo, "")
				c.Solo = ""
			}
		},
	},
	{
		Name:   KeySubsong,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.Subsong = parseInt(KeySubsong, v, c) },
		Validate: func(c *Config) {
			if c.Subsong < 0 {
				c.LogInvalidField(KeySubsong, 0)
				c.Subsong = 0
			}
		},
	},
	{
		Name:   KeySuppress,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Suppress = parseBool(KeySuppress, v, c) },
	},
	{
		Name:   KeyVerbose,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Verbose = parseBool(KeyVerbose, v, c) },
	},
	{
		Name:   KeyWMATables,
		Type:   typeString,
		Update: func(c *Config, v string) { c.WMATables = v },
	},
	{
		Name:   KeyWorkers,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.Workers = parseUint(KeyWorkers, v, c) },
		Validate: func(c *Config) {
			if c.Workers == 0 {
				c.LogInvalidField(KeyWorkers, defaultWorkers)
				c.Workers = defaultWorkers
			}
		},
	},
}

func validParts(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune(partLetters, r) {
			return false
		}
	}
	return true
}

func parseUint(n, v string, c *Config) uint {
	_v, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected unsigned int for param %s", n), "value", v)
	}
	return uint(_v)
}

func parseInt(n, v string, c *Config) int {
	_v, err := strconv.Atoi(v)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected integer for param %s", n), "value", v)
	}
	return _v
}

func parseBool(n, v string, c *Config) (b bool) {
	switch strings.ToLower(v) {
	case "true":
		b = true
	case "false":
		b = false
	default:
		c.Logger.Warning(fmt.Sprintf("expect bool for param %s", n), "value", v)
	}
	return
}
