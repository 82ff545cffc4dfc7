// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedupe removes duplicate items by canonical key, keeping the first
// occurrence. It is pure: no I/O, no logging, no shared state.
package dedupe

import (
	"net/url"
	"strings"
	"unicode"
)

// Dedupe returns items with later duplicates removed. Two items are
// duplicates when key returns the same non-empty string for both; items with
// an empty key are always kept. Order of first occurrence is preserved and
// no fields are merged.
func Dedupe[T any](items []T, key func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := key(it)
		if k != "" {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
		}
		out = append(out, it)
	}
	return out
}

// NameKey canonicalizes a display name: lowercased, punctuation stripped,
// whitespace collapsed. "Univ. of Oslo " and "univ of oslo" share a key.
func NameKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// CompositeKey joins the NameKey of each part. It is empty when every part is.
func CompositeKey(parts ...string) string {
	keys := make([]string, len(parts))
	empty := true
	for i, p := range parts {
		keys[i] = NameKey(p)
		if keys[i] != "" {
			empty = false
		}
	}
	if empty {
		return ""
	}
	return strings.Join(keys, "|")
}

// URLKey canonicalizes a URL: scheme and host lowercased, fragment dropped,
// trailing slash trimmed. Unparsable input falls back to the trimmed string.
func URLKey(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(raw, "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}
