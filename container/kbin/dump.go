/*
NAME
  dump.go

DESCRIPTION
  dump.go writes a human readable form of a manifest tree.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package kbin

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Dump writes t to w as indented XML with each node's data shown as hex
// bytes, or as text for string nodes.
func (t *Tree) Dump(w io.Writer) error {
	type frame struct {
		n     *Node
		depth int
		close bool
	}

	bw := bufio.NewWriter(w)
	var stack []frame
	push := func(n *Node, depth int) {
		kids := t.Children(n)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{n: &kids[i], depth: depth})
		}
	}
	push(t.Root(), 0)

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		indent := strings.Repeat("  ", f.depth)
		if f.close {
			fmt.Fprintf(bw, "%s</%s>\n", indent, f.n.Name)
			continue
		}

		fmt.Fprintf(bw, "%s<%s", indent, f.n.Name)
		if f.n.Type != TypeVoid {
			fmt.Fprintf(bw, " __type=%q", f.n.TypeName())
		}
		keys := make([]string, 0, len(f.n.Attrs))
		for k := range f.n.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(bw, " %s=%q", k, f.n.Attrs[k])
		}
		if f.n.n == 0 && len(f.n.Data) == 0 {
			fmt.Fprintln(bw, " />")
			continue
		}
		fmt.Fprintln(bw, ">")
		if len(f.n.Data) != 0 {
			if f.n.Type == TypeStr {
				fmt.Fprintf(bw, "%s  %s\n", indent, trimNul(f.n.Data))
			} else {
				fmt.Fprintf(bw, "%s  % x\n", indent, f.n.Data)
			}
		}
		stack = append(stack, frame{n: f.n, depth: f.depth, close: true})
		push(f.n, f.depth+1)
	}
	return bw.Flush()
}
