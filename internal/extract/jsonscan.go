// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import "strings"

// LeadingJSON returns the first balanced JSON object or array in s. The scan
// starts at the first '{' or '[' and tracks nesting outside string literals,
// honoring backslash escapes, so braces inside strings do not end the
// segment early. Prose and code fences around the segment are ignored.
// ok is false when no opening bracket exists or it is never closed.
func LeadingJSON(s string) (segment string, ok bool) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", false
	}

	var stack []byte
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return "", false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
