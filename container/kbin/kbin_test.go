/*
NAME
  kbin_test.go

DESCRIPTION
  kbin_test.go contains tests for the kbin manifest parser.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package kbin

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/ausocean/bemani/sample"
)

// builder writes kbin documents for tests.
type builder struct {
	raw   bool // Literal rather than six bit names.
	nodes []byte
	data  []byte
}

func (b *builder) name(s string) {
	if b.raw {
		b.nodes = append(b.nodes, byte(len(s)-1))
		b.nodes = append(b.nodes, s...)
		return
	}
	b.nodes = append(b.nodes, byte(len(s)))
	var acc, bits uint
	for i := 0; i < len(s); i++ {
		acc = acc<<6 | uint(strings.IndexByte(sixbitChars, s[i]))
		bits += 6
		for bits >= 8 {
			b.nodes = append(b.nodes, byte(acc>>(bits-8)))
			bits -= 8
		}
	}
	if bits > 0 {
		b.nodes = append(b.nodes, byte(acc<<(8-bits)))
	}
}

func (b *builder) open(t byte, name string, data ...byte) {
	b.nodes = append(b.nodes, t)
	b.name(name)
	b.data = append(b.data, data...)
	for len(b.data)%4 != 0 {
		b.data = append(b.data, 0)
	}
}

func (b *builder) sized(t byte, name string, data []byte) {
	b.open(t, name, append(binary.BigEndian.AppendUint32(nil, uint32(len(data))), data...)...)
}

func (b *builder) attr(name, value string) {
	b.sized(TypeAttr, name, append([]byte(value), 0))
}

func (b *builder) end() { b.nodes = append(b.nodes, typeEndSub) }

func (b *builder) bytes() []byte {
	nodes := append(b.nodes, typeEndDoc)
	for len(nodes)%4 != 0 {
		nodes = append(nodes, 0)
	}
	flag := byte(compressedFlag)
	if b.raw {
		flag = 0x45
	}
	out := []byte{Magic, flag, 0x7e, 0x81}
	out = binary.BigEndian.AppendUint32(out, uint32(len(nodes)))
	out = append(out, nodes...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(b.data)))
	return append(out, b.data...)
}

// flatNode is a node with its path, for comparison.
type flatNode struct {
	Path  string
	Type  string
	Data  []byte
	Attrs map[string]string
}

func flatten(t *Tree) []flatNode {
	var out []flatNode
	var walk func(n *Node, path string)
	walk = func(n *Node, path string) {
		kids := t.Children(n)
		for i := range kids {
			k := &kids[i]
			p := path + "/" + k.Name
			out = append(out, flatNode{Path: p, Type: k.TypeName(), Data: k.Data, Attrs: k.Attrs})
			walk(k, p)
		}
	}
	walk(t.Root(), "")
	return out
}

func sampleDoc(raw bool) []byte {
	b := &builder{raw: raw}
	b.open(TypeVoid, "root")
	b.attr("name", "x")
	b.open(30, "foo_Ebar", 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 3)
	b.end()
	b.open(TypeVoid, "sub")
	b.open(3, "deep", 7)
	b.end()
	b.sized(TypeBin, "blob", []byte{1, 2, 3, 4, 5})
	b.end()
	b.end()
	b.open(TypeStr|arrayFlag, "tail", 0)
	b.end()
	b.end()
	return b.bytes()
}

func TestParse(t *testing.T) {
	want := []flatNode{
		{Path: "/root", Type: "void", Attrs: map[string]string{"name": "x"}},
		{Path: "/root/foo_Ebar", Type: "3s32", Data: []byte{0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 3}},
		{Path: "/root/sub", Type: "void"},
		{Path: "/root/sub/deep", Type: "u8", Data: []byte{7}},
		{Path: "/root/sub/blob", Type: "bin", Data: []byte{1, 2, 3, 4, 5}},
		{Path: "/root/tail", Type: "str", Data: []byte{}},
	}

	for _, raw := range []bool{false, true} {
		tree, err := Parse(sampleDoc(raw))
		if err != nil {
			t.Fatalf("raw names %v: did not expect error: %v", raw, err)
		}
		got := flatten(tree)
		if !cmp.Equal(got, want, cmp.Comparer(bytes.Equal)) {
			t.Errorf("raw names %v: did not get expected result\n%s", raw, cmp.Diff(want, got, cmp.Comparer(bytes.Equal)))
		}
		if tree.Len() != 7 {
			t.Errorf("raw names %v: unexpected node count: got %d, want 7", raw, tree.Len())
		}
	}
}

func TestParseDeep(t *testing.T) {
	const depth = 100000
	b := &builder{}
	for i := 0; i < depth; i++ {
		b.open(TypeVoid, "n")
	}
	for i := 0; i < depth; i++ {
		b.end()
	}
	tree, err := Parse(b.bytes())
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}

	var got int
	for n := tree.Root(); ; got++ {
		kids := tree.Children(n)
		if len(kids) == 0 {
			break
		}
		n = &kids[0]
	}
	if got != depth {
		t.Errorf("unexpected depth: got %d, want %d", got, depth)
	}
}

func TestParseErrors(t *testing.T) {
	good := sampleDoc(false)

	unbalanced := &builder{}
	unbalanced.open(TypeVoid, "a")
	unbalanced.end()
	unbalanced.end()

	unknown := &builder{}
	unknown.open(60, "a")

	overrun := &builder{}
	overrun.open(TypeBin, "a", 0, 0, 1, 0)

	longNodes := append([]byte(nil), good...)
	binary.BigEndian.PutUint32(longNodes[4:], 1<<20)

	tests := []struct {
		name string
		in   []byte
	}{
		{name: "empty", in: nil},
		{name: "magic", in: append([]byte{0xa1}, good[1:]...)},
		{name: "node length", in: longNodes},
		{name: "unbalanced", in: unbalanced.bytes()},
		{name: "unknown type", in: unknown.bytes()},
		{name: "data overrun", in: overrun.bytes()},
		{name: "truncated", in: good[:12]},
	}
	for _, test := range tests {
		_, err := Parse(test.in)
		if errors.Cause(err) != sample.ErrMalformed {
			t.Errorf("%s: got error %v, want %v", test.name, err, sample.ErrMalformed)
		}
	}
}

func TestDump(t *testing.T) {
	b := &builder{}
	b.open(TypeVoid, "a")
	b.attr("k", "v")
	b.open(3, "b", 7)
	b.end()
	b.sized(TypeStr, "s", []byte("hi\x00"))
	b.end()
	b.open(TypeVoid, "e")
	b.end()
	b.end()

	tree, err := Parse(b.bytes())
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	var buf bytes.Buffer
	err = tree.Dump(&buf)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}

	const want = `<a k="v">
  <b __type="u8">
    07
  </b>
  <s __type="str">
    hi
  </s>
  <e />
</a>
`
	if got := buf.String(); got != want {
		t.Errorf("did not get expected dump\n%s", cmp.Diff(want, got))
	}
}
