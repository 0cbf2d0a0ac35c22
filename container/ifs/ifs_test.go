/*
NAME
  ifs_test.go

DESCRIPTION
  ifs_test.go contains tests for IFS archive parsing.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ifs

import (
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/ausocean/bemani/sample"
)

// file is one entry of a test archive. A nil data with a name creates a
// void node.
type file struct {
	tag  string
	data []byte
}

// build returns an IFS archive holding files, using literal manifest names.
func build(files ...file) []byte {
	be := binary.BigEndian
	var nodes, data, region []byte
	open := func(t byte, name string) {
		nodes = append(nodes, t, byte(len(name)-1))
		nodes = append(nodes, name...)
	}
	open(1, "imgfs")
	for _, f := range files {
		if f.data == nil {
			open(1, f.tag)
			nodes = append(nodes, 190)
			continue
		}
		open(30, f.tag)
		nodes = append(nodes, 190)
		data = be.AppendUint32(data, uint32(len(region)))
		data = be.AppendUint32(data, uint32(len(f.data)))
		data = be.AppendUint32(data, 0)
		region = append(region, f.data...)
	}
	nodes = append(nodes, 190, 191)
	for len(nodes)%4 != 0 {
		nodes = append(nodes, 0)
	}

	manifest := []byte{0xa0, 0x45, 0x7e, 0x81}
	manifest = be.AppendUint32(manifest, uint32(len(nodes)))
	manifest = append(manifest, nodes...)
	manifest = be.AppendUint32(manifest, uint32(len(data)))
	manifest = append(manifest, data...)

	h := make([]byte, HeaderLen)
	be.PutUint32(h, Magic)
	binary.LittleEndian.PutUint16(h[versionOff:], 3)
	binary.LittleEndian.PutUint16(h[versionXorOff:], ^uint16(3))
	be.PutUint32(h[manifestEndOff:], uint32(HeaderLen+len(manifest)))
	out := append(h, manifest...)
	return append(out, region...)
}

func TestParse(t *testing.T) {
	b := build(
		file{tag: "_info_"},
		file{tag: "foo_Ebar", data: []byte{1, 2, 3}},
		file{tag: "bgm_E_Ebin", data: []byte{4}},
		file{tag: "empty", data: []byte{}},
	)
	c, err := Parse(b)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	want := map[string][]byte{
		"foo.bar":  {1, 2, 3},
		"bgm..bin": {4},
		"empty":    {},
	}
	if !cmp.Equal(c.Files, want) {
		t.Errorf("did not get expected files\n%s", cmp.Diff(want, c.Files))
	}
	if got, want := c.Names(), []string{"bgm..bin", "empty", "foo.bar"}; !cmp.Equal(got, want) {
		t.Errorf("unexpected names: got %v, want %v", got, want)
	}
}

func TestParseErrors(t *testing.T) {
	good := build(file{tag: "a", data: []byte{1, 2, 3, 4}})

	badMagic := append([]byte(nil), good...)
	badMagic[0] = 0

	badVersion := append([]byte(nil), good...)
	badVersion[versionXorOff] ^= 1

	badEnd := append([]byte(nil), good...)
	binary.BigEndian.PutUint32(badEnd[manifestEndOff:], uint32(len(good)+1))

	tests := []struct {
		name string
		in   []byte
	}{
		{name: "short", in: good[:HeaderLen-1]},
		{name: "magic", in: badMagic},
		{name: "version", in: badVersion},
		{name: "manifest end", in: badEnd},
		{name: "truncated file", in: good[:len(good)-1]},
	}
	for _, test := range tests {
		_, err := Parse(test.in)
		if errors.Cause(err) != sample.ErrMalformed {
			t.Errorf("%s: got error %v, want %v", test.name, err, sample.ErrMalformed)
		}
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "foo_Ebar", want: "foo.bar"},
		{in: "plain", want: "plain"},
		{in: "a__b", want: "a_b"},
		{in: "_1abc_Esq3", want: "1abc.sq3"},
		{in: "trailing_", want: "trailing"},
	}
	for _, test := range tests {
		if got := Unescape(test.in); got != test.want {
			t.Errorf("Unescape(%q) = %q, want %q", test.in, got, test.want)
		}
	}
}

func TestPairedFile(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "d/m1234bgm.ifs", want: "d/m1234seq.ifs"},
		{in: "m1234seq.ifs", want: "m1234bgm.ifs"},
		{in: "m1234.ifs", want: ""},
	}
	for _, test := range tests {
		if got := PairedFile(test.in); got != test.want {
			t.Errorf("PairedFile(%q) = %q, want %q", test.in, got, test.want)
		}
	}
}

func TestSet(t *testing.T) {
	a, err := Parse(build(file{tag: "x", data: []byte{1}}, file{tag: "y", data: []byte{2}}))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse(build(file{tag: "y", data: []byte{3}}, file{tag: "z", data: []byte{4}}))
	if err != nil {
		t.Fatal(err)
	}
	s := Set{a, b}

	if got, ok := s.Find("y"); !ok || !cmp.Equal(got, []byte{2}) {
		t.Errorf("Find(y) = %v, %v; want [2], true", got, ok)
	}
	if got, ok := s.Find("z"); !ok || !cmp.Equal(got, []byte{4}) {
		t.Errorf("Find(z) = %v, %v; want [4], true", got, ok)
	}
	if _, ok := s.Find("w"); ok {
		t.Error("did not expect to find w")
	}
	if got, want := s.Names(), []string{"x", "y", "z"}; !cmp.Equal(got, want) {
		t.Errorf("unexpected names: got %v, want %v", got, want)
	}
}
