// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package htmlclean converts HTML message fragments into plain text.
//
// Anchor elements carrying a destination URL are rewritten as inline
// Markdown links ("[text](url)"); every other tag is stripped, retaining
// only text content. HTML entities are decoded and non-breaking spaces are
// normalized to regular spaces.
package htmlclean

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Clean converts an HTML fragment into plain text.
// Returns the input trimmed if it contains no markup.
func Clean(fragment string) (string, error) {
	if fragment == "" {
		return "", nil
	}

	// html.Parse tolerates malformed fragments by construction; a hard
	// error here means the input is not text at all.
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parse html fragment: %w", err)
	}

	var b strings.Builder
	render(doc, &b)
	return collapse(b.String()), nil
}

// render walks the parsed tree, writing text content and rewritten anchors.
func render(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(normalizeSpaces(n.Data))
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.A:
			if href, ok := attr(n, "href"); ok {
				b.WriteString("[")
				b.WriteString(normalizeSpaces(textContent(n)))
				b.WriteString("](")
				b.WriteString(href)
				b.WriteString(")")
				return // do not descend; children are the link text
			}
		case atom.Br:
			b.WriteString("\n")
			return
		case atom.Script, atom.Style:
			// Presentation-only content carries no message text
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		render(c, b)
	}

	// Block-level boundaries become line breaks so adjacent paragraphs
	// don't glue together
	if n.Type == html.ElementNode && isBlock(n.DataAtom) {
		b.WriteString("\n")
	}
}

// textContent concatenates all descendant text of a node.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name && a.Val != "" {
			return a.Val, true
		}
	}
	return "", false
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Li, atom.Ul, atom.Ol, atom.Table, atom.Tr,
		atom.Blockquote, atom.Pre, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}

// normalizeSpaces replaces non-breaking spaces with regular spaces.
// Entity decoding itself is handled by the parser.
func normalizeSpaces(s string) string {
	return strings.ReplaceAll(s, "\u00a0", " ")
}

// collapse trims the result and drops blank lines left behind by stripped
// block elements.
func collapse(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
