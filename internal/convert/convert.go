// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns fetched page bodies into whitespace-normalized plain
// text. HTML is reduced to its visible text; PDF catalogs go through a
// markitdown container when one is available.
package convert

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// skippedElements hold no reader-visible content or only site chrome.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"iframe":   true,
	"svg":      true,
	"nav":      true,
	"footer":   true,
	"header":   true,
	"head":     true,
}

// HTMLText returns the visible text of an HTML document with runs of
// whitespace collapsed to single spaces.
func HTMLText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if skippedElements[n.Data] {
				return
			}
		case html.TextNode:
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
			return
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return NormalizeSpace(sb.String()), nil
}

// NormalizeSpace collapses every run of Unicode whitespace to one space and
// trims the ends.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
