/*
NAME
  load.go

DESCRIPTION
  load.go builds decoder Tables from the C table definitions found in a
  WMA table header (wmadata.h).

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package wma

import (
	"io"
	"io/ioutil"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Array names of the WMAv2 coefficient tables in the header.
var coefNames = [2][3]string{
	{"coef4_huffcodes", "coef4_huffbits", "levels4"},
	{"coef5_huffcodes", "coef5_huffbits", "levels5"},
}

// Exponent band array names by sample rate.
var bandNames = map[int]string{
	22050: "exponent_band_22050",
	32000: "exponent_band_32000",
	44100: "exponent_band_44100",
}

var (
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineComment  = regexp.MustCompile(`//[^\n]*`)
	arrayDecl    = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*(?:\[[^\]]*\])+\s*=\s*\{`)
	number       = regexp.MustCompile(`0[xX][0-9a-fA-F]+|\d+`)
)

// LoadTables reads a C header defining the WMAv2 coefficient tables and
// returns Tables built from it. Exponent band arrays are used when present.
func LoadTables(r io.Reader) (*Tables, error) {
	src, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "could not read table source")
	}
	arrays, err := parseArrays(string(src))
	if err != nil {
		return nil, err
	}

	var specs [2]CoefSpec
	for i, names := range coefNames {
		codes, ok1 := arrays[names[0]]
		lens, ok2 := arrays[names[1]]
		levels, ok3 := arrays[names[2]]
		if !ok1 || !ok2 || !ok3 {
			return nil, errors.Errorf("table source is missing %s", strings.Join(names[:], ", "))
		}
		specs[i] = CoefSpec{
			Codes:  make([]uint32, 0, len(codes.values)),
			Lens:   make([]uint8, 0, len(lens.values)),
			Levels: make([]uint16, 0, len(levels.values)),
		}
		for _, v := range codes.values {
			specs[i].Codes = append(specs[i].Codes, uint32(v))
		}
		for _, v := range lens.values {
			specs[i].Lens = append(specs[i].Lens, uint8(v))
		}
		for _, v := range levels.values {
			specs[i].Levels = append(specs[i].Levels, uint16(v))
		}
	}

	bands := make(map[int][3][]int)
	for rate, name := range bandNames {
		a, ok := arrays[name]
		if !ok || len(a.rows) < 3 {
			continue
		}
		var b [3][]int
		for i := 0; i < 3; i++ {
			row := a.rows[i]
			if len(row) == 0 || int(row[0]) >= len(row) {
				return nil, errors.Errorf("%s row %d is malformed", name, i)
			}
			for _, w := range row[1 : 1+row[0]] {
				b[i] = append(b[i], int(w))
			}
		}
		bands[rate] = b
	}

	return NewTables(specs[0], specs[1], bands)
}

// array is a parsed C array initializer. rows holds the inner initializers
// of a two dimensional array.
type array struct {
	values []uint64
	rows   [][]uint64
}

// parseArrays extracts every integer array initializer in src by name.
func parseArrays(src string) (map[string]array, error) {
	src = blockComment.ReplaceAllString(src, "")
	src = lineComment.ReplaceAllString(src, "")

	arrays := make(map[string]array)
	for _, loc := range arrayDecl.FindAllStringSubmatchIndex(src, -1) {
		name := src[loc[2]:loc[3]]
		body, err := braceBody(src, loc[1]-1)
		if err != nil {
			return nil, errors.Wrapf(err, "array %s", name)
		}

		var a array
		inner := strings.Contains(body, "{")
		for _, part := range strings.Split(body, "}") {
			i := strings.LastIndex(part, "{")
			if inner && i < 0 {
				continue
			}
			var row []uint64
			for _, tok := range number.FindAllString(part[i+1:], -1) {
				v, err := strconv.ParseUint(tok, 0, 64)
				if err != nil {
					return nil, errors.Wrapf(err, "array %s", name)
				}
				row = append(row, v)
			}
			a.values = append(a.values, row...)
			if inner {
				a.rows = append(a.rows, row)
			}
		}
		arrays[name] = a
	}
	return arrays, nil
}

// braceBody returns the text between the brace at src[open] and its match.
func braceBody(src string, open int) (string, error) {
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return src[open+1 : i], nil
			}
		}
	}
	return "", errors.New("unterminated initializer")
}
