/*
NAME
  ifs.go

DESCRIPTION
  ifs.go provides parsing of IFS archives into a map of named files.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ifs parses IFS archives. An IFS file is a 36 byte header, a kbin
// manifest naming each file and its byte range, and a data region.
package ifs

import (
	"encoding/binary"
	"sort"
	"strings"

	"github.com/ausocean/bemani/container/kbin"
	"github.com/ausocean/bemani/sample"
)

// Header layout.
const (
	Magic          = 0x6cad8f89
	HeaderLen      = 36
	versionOff     = 4
	versionXorOff  = 6
	manifestEndOff = 16
	fileRangeLen   = 8
)

// Manifest nodes that do not name files.
var reserved = map[string]bool{"_info_": true, "_super_": true}

// Container is a parsed IFS archive.
type Container struct {
	Manifest *kbin.Tree
	Files    map[string][]byte
}

// Valid reports whether b starts with an IFS header.
func Valid(b []byte) bool {
	if len(b) < HeaderLen || binary.BigEndian.Uint32(b) != Magic {
		return false
	}
	v := binary.LittleEndian.Uint16(b[versionOff:])
	x := binary.LittleEndian.Uint16(b[versionXorOff:])
	return v^x == 0xffff
}

// Parse parses the IFS archive in b. File contents alias b.
func Parse(b []byte) (*Container, error) {
	if !Valid(b) {
		return nil, sample.Malformedf("invalid IFS header")
	}
	end := int(binary.BigEndian.Uint32(b[manifestEndOff:]))
	if end < HeaderLen || end > len(b) {
		return nil, sample.Malformedf("IFS manifest end %d out of range", end)
	}
	tree, err := kbin.Parse(b[HeaderLen:end])
	if err != nil {
		return nil, err
	}

	c := &Container{Manifest: tree, Files: make(map[string][]byte)}
	top := tree.Children(tree.Root())
	if len(top) == 0 {
		return c, nil
	}
	data := b[end:]
	for _, n := range tree.Children(&top[0]) {
		if reserved[n.Name] {
			continue
		}
		if len(n.Data) < fileRangeLen {
			return nil, sample.Malformedf("file node %q has no byte range", n.Name)
		}
		start := int(binary.BigEndian.Uint32(n.Data))
		size := int(binary.BigEndian.Uint32(n.Data[4:]))
		if start+size > len(data) {
			return nil, sample.Malformedf("file %q truncated", n.Name)
		}
		c.Files[Unescape(n.Name)] = data[start : start+size : start+size]
	}
	return c, nil
}

// Names returns the container's file names in sorted order.
func (c *Container) Names() []string {
	names := make([]string, 0, len(c.Files))
	for n := range c.Files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Unescape converts a manifest tag into a file name. An underscore escapes
// the next character, with "_E" standing for a dot.
func Unescape(tag string) string {
	var sb strings.Builder
	escape := false
	for i := 0; i < len(tag); i++ {
		c := tag[i]
		switch {
		case escape && c == 'E':
			sb.WriteByte('.')
			escape = false
		case escape:
			sb.WriteByte(c)
			escape = false
		case c == '_':
			escape = true
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// PairedFile returns the name of the archive that accompanies name: a
// "bgm.ifs" file is paired with a "seq.ifs" file and the reverse. It
// returns the empty string for other names.
func PairedFile(name string) string {
	if i := strings.LastIndex(name, "bgm.ifs"); i >= 0 {
		return name[:i] + "seq" + name[i+3:]
	}
	if i := strings.LastIndex(name, "seq.ifs"); i >= 0 {
		return name[:i] + "bgm" + name[i+3:]
	}
	return ""
}

// Set is a group of containers searched in order as one namespace.
type Set []*Container

// Find returns the named file from the first container that holds it.
func (s Set) Find(name string) ([]byte, bool) {
	for _, c := range s {
		if b, ok := c.Files[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// Names returns every file name in the set once, in container order and
// sorted within each container.
func (s Set) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for _, c := range s {
		for _, n := range c.Names() {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	return names
}
