// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// EscapeRawHTML rewrites the inline and block HTML in md as entity-escaped
// text, so that answers like "press <Ctrl>+<Alt>+<Del>" or "log in as
// <username>" keep their tokens instead of losing them as unknown tags.
// Code spans, code blocks and autolinks are left alone.
func EscapeRawHTML(md string) string {
	if !strings.Contains(md, "<") {
		return md
	}

	src := []byte(md)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var marks []int
	mark := func(seg text.Segment) {
		for i := seg.Start; i < seg.Stop && i < len(src); i++ {
			if src[i] == '<' {
				marks = append(marks, i)
			}
		}
	}
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.RawHTML:
			for i := 0; i < n.Segments.Len(); i++ {
				mark(n.Segments.At(i))
			}
		case *ast.HTMLBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				mark(lines.At(i))
			}
			if n.HasClosure() {
				mark(n.ClosureLine)
			}
		}
		return ast.WalkContinue, nil
	})
	if len(marks) == 0 {
		return md
	}

	sort.Ints(marks)
	var b strings.Builder
	b.Grow(len(src) + 3*len(marks))
	last := 0
	for _, i := range marks {
		if i < last {
			continue
		}
		b.Write(src[last:i])
		b.WriteString("&lt;")
		last = i + 1
	}
	b.Write(src[last:])
	return b.String()
}
