/*
NAME
  kbin.go

DESCRIPTION
  kbin.go provides a parser for the binary XML manifests found inside IFS
  archives.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package kbin parses kbin binary XML into an arena of nodes.
//
// A kbin document holds two streams. The node stream lists tags depth first
// with a type byte and a name, and the data stream holds each node's payload
// in the same order. Nodes are stored in breadth first order so the children
// of any node occupy a contiguous range of the arena.
package kbin

import (
	"encoding/binary"

	"github.com/ausocean/bemani/sample"
)

// Header values.
const (
	Magic          = 0xa0
	compressedFlag = 0x42
	headerLen      = 8
)

// Reserved node types.
const (
	TypeVoid   = 1
	TypeBin    = 10
	TypeStr    = 11
	TypeAttr   = 46
	typeEndSub = 190
	typeEndDoc = 191
	arrayFlag  = 0x40
)

// sixbitChars is the alphabet of packed tag names.
const sixbitChars = "0123456789:ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

// nodeType describes the payload of one node type. A count of -1 marks a
// variable length type whose byte count precedes the payload.
type nodeType struct {
	name  string
	size  int
	count int
}

var nodeTypes = [...]nodeType{
	2: {"s8", 1, 1}, 3: {"u8", 1, 1}, 4: {"s16", 2, 1}, 5: {"u16", 2, 1},
	6: {"s32", 4, 1}, 7: {"u32", 4, 1}, 8: {"s64", 8, 1}, 9: {"u64", 8, 1},
	10: {"bin", 1, -1}, 11: {"str", 1, -1}, 12: {"ip4", 4, 1}, 13: {"time", 4, 1},
	14: {"float", 4, 1}, 15: {"double", 8, 1},
	16: {"2s8", 1, 2}, 17: {"2u8", 1, 2}, 18: {"2s16", 2, 2}, 19: {"2u16", 2, 2},
	20: {"2s32", 4, 2}, 21: {"2u32", 4, 2}, 22: {"2s64", 8, 2}, 23: {"2u64", 8, 2},
	24: {"2f", 4, 2}, 25: {"2d", 8, 2},
	26: {"3s8", 1, 3}, 27: {"3u8", 1, 3}, 28: {"3s16", 2, 3}, 29: {"3u16", 2, 3},
	30: {"3s32", 4, 3}, 31: {"3u32", 4, 3}, 32: {"3s64", 8, 3}, 33: {"3u64", 8, 3},
	34: {"3f", 4, 3}, 35: {"3d", 8, 3},
	36: {"4s8", 1, 4}, 37: {"4u8", 1, 4}, 38: {"4s16", 2, 4}, 39: {"4u16", 2, 4},
	40: {"4s32", 4, 4}, 41: {"4u32", 4, 4}, 42: {"4s64", 8, 4}, 43: {"4u64", 8, 4},
	44: {"4f", 4, 4}, 45: {"4d", 8, 4},
	48: {"vs8", 1, 16}, 49: {"vu8", 1, 16}, 50: {"vs16", 2, 8}, 51: {"vu16", 2, 8},
	52: {"bool", 1, 1}, 53: {"2b", 1, 2}, 54: {"3b", 1, 3}, 55: {"4b", 1, 4},
	56: {"vb", 1, 16},
}

// Node is one element of a manifest.
type Node struct {
	Name     string
	Type     int
	Data     []byte
	ElemSize int
	Attrs    map[string]string

	first, n int
}

// TypeName returns the kbin name of the node's type.
func (n *Node) TypeName() string {
	switch n.Type {
	case TypeVoid:
		return "void"
	case 0:
		return ""
	}
	return nodeTypes[n.Type].name
}

// Tree is a parsed manifest. Index 0 holds an unnamed root whose children
// are the document's top level elements.
type Tree struct {
	nodes []Node
}

// Root returns the tree's root.
func (t *Tree) Root() *Node { return &t.nodes[0] }

// Children returns the children of n.
func (t *Tree) Children(n *Node) []Node { return t.nodes[n.first : n.first+n.n] }

// Len returns the number of nodes in the tree, including the root.
func (t *Tree) Len() int { return len(t.nodes) }

// rawNode is a node before breadth first renumbering.
type rawNode struct {
	Node
	kids []int
}

// parser holds the two cursors of a kbin document.
type parser struct {
	b          []byte
	pos, end   int
	data       int
	compressed bool
}

// Parse parses the kbin document in b.
func Parse(b []byte) (*Tree, error) {
	if len(b) < headerLen || b[0] != Magic {
		return nil, sample.Malformedf("bad kbin header")
	}
	nodeLen := int(binary.BigEndian.Uint32(b[4:]))
	p := &parser{
		b:          b,
		pos:        headerLen,
		end:        headerLen + nodeLen,
		data:       headerLen + nodeLen + 4,
		compressed: b[1] == compressedFlag,
	}
	if p.end > len(b) {
		return nil, sample.Malformedf("kbin node length %d exceeds buffer", nodeLen)
	}

	raw := []rawNode{{}}
	stack := []int{0}
	for p.pos < p.end {
		t := p.b[p.pos]
		p.pos++
		if t == 0 {
			continue
		}
		isArray := t&arrayFlag != 0
		t &^= arrayFlag

		switch {
		case t == typeEndSub:
			if len(stack) == 1 {
				return nil, sample.Malformedf("unbalanced end of node at %d", p.pos-1)
			}
			stack = stack[:len(stack)-1]
			continue
		case t == typeEndDoc:
			return breadthFirst(raw), nil
		case t != TypeVoid && t != TypeAttr && (int(t) >= len(nodeTypes) || nodeTypes[t].size == 0):
			return nil, sample.Malformedf("unknown node type %d at %d", t, p.pos-1)
		}

		name, err := p.name()
		if err != nil {
			return nil, err
		}
		top := stack[len(stack)-1]

		if t == TypeAttr {
			v, err := p.payload(1, -1, false)
			if err != nil {
				return nil, err
			}
			if raw[top].Attrs == nil {
				raw[top].Attrs = make(map[string]string)
			}
			raw[top].Attrs[name] = string(trimNul(v))
			continue
		}

		n := rawNode{Node: Node{Name: name, Type: int(t)}}
		if t != TypeVoid {
			nt := nodeTypes[t]
			n.Data, err = p.payload(nt.size, nt.count, isArray)
			if err != nil {
				return nil, err
			}
			n.ElemSize = nt.size
		}
		raw = append(raw, n)
		idx := len(raw) - 1
		raw[top].kids = append(raw[top].kids, idx)
		stack = append(stack, idx)
	}
	// A document without an end marker keeps what was read.
	return breadthFirst(raw), nil
}

// name reads a tag name from the node stream.
func (p *parser) name() (string, error) {
	if p.pos >= p.end {
		return "", sample.Malformedf("truncated node name")
	}
	if !p.compressed {
		l := int(p.b[p.pos]&^arrayFlag) + 1
		p.pos++
		if p.pos+l > p.end {
			return "", sample.Malformedf("truncated node name")
		}
		s := string(p.b[p.pos : p.pos+l])
		p.pos += l
		return s, nil
	}

	l := int(p.b[p.pos])
	p.pos++
	if p.pos+(l*6+7)/8 > p.end {
		return "", sample.Malformedf("truncated node name")
	}
	name := make([]byte, l)
	var acc, bits uint
	for i := range name {
		if bits < 6 {
			acc = acc<<8 | uint(p.b[p.pos])
			p.pos++
			bits += 8
		}
		name[i] = sixbitChars[(acc>>(bits-6))&0x3f]
		bits -= 6
	}
	return string(name), nil
}

// payload reads one node's data from the data stream. count is the element
// count of the type, or -1 if the byte count is stored ahead of the data.
func (p *parser) payload(size, count int, isArray bool) ([]byte, error) {
	n := size * count
	if count < 0 || isArray {
		l, err := p.u32()
		if err != nil {
			return nil, err
		}
		n = int(l)
		if count > 0 {
			n -= n % (size * count)
		}
	}
	if n < 0 || p.data+n > len(p.b) {
		return nil, sample.Malformedf("node data at %d overruns buffer", p.data)
	}
	d := p.b[p.data : p.data+n : p.data+n]
	p.data = align(p.data + n)
	return d, nil
}

func (p *parser) u32() (uint32, error) {
	if p.data+4 > len(p.b) {
		return 0, sample.Malformedf("node data at %d overruns buffer", p.data)
	}
	v := binary.BigEndian.Uint32(p.b[p.data:])
	p.data += 4
	return v, nil
}

// breadthFirst renumbers raw so each node's children are contiguous.
func breadthFirst(raw []rawNode) *Tree {
	t := &Tree{nodes: make([]Node, 0, len(raw))}
	queue := []int{0}
	for len(queue) > 0 {
		r := &raw[queue[0]]
		queue = queue[1:]
		n := r.Node
		n.first = len(t.nodes) + 1 + len(queue)
		n.n = len(r.kids)
		t.nodes = append(t.nodes, n)
		queue = append(queue, r.kids...)
	}
	return t
}

func align(n int) int { return (n + 3) &^ 3 }

func trimNul(b []byte) []byte {
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return b
}
