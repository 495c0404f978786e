// Package glob implements the key pattern syntax of the redis KEYS command.
//
//	*      any sequence of bytes, including '/'
//	?      exactly one byte
//	[abc]  one byte of the set, [^abc] one byte outside it, [a-z] a range
//	\x     the byte x taken literally
package glob

// Match reports whether s matches pattern. Patterns and keys are compared byte by byte.
func Match(pattern, s string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			for len(pattern) > 1 && pattern[1] == '*' {
				pattern = pattern[1:]
			}
			if len(pattern) == 1 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if Match(pattern[1:], s[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(s) == 0 {
				return false
			}
		case '[':
			if len(s) == 0 {
				return false
			}
			matched, rest := matchClass(pattern[1:], s[0])
			if !matched {
				return false
			}
			pattern, s = rest, s[1:]
			continue
		case '\\':
			if len(pattern) > 1 {
				pattern = pattern[1:]
			}
			if len(s) == 0 || pattern[0] != s[0] {
				return false
			}
		default:
			if len(s) == 0 || pattern[0] != s[0] {
				return false
			}
		}
		pattern, s = pattern[1:], s[1:]
	}
	return len(s) == 0
}

// matchClass matches c against the class that starts right after '[' and returns the pattern following the
// closing ']'. An unterminated class extends to the end of the pattern.
func matchClass(pattern string, c byte) (bool, string) {
	negate := false
	if len(pattern) > 0 && pattern[0] == '^' {
		negate = true
		pattern = pattern[1:]
	}

	matched := false
	for len(pattern) > 0 && pattern[0] != ']' {
		switch {
		case pattern[0] == '\\' && len(pattern) > 1:
			matched = matched || pattern[1] == c
			pattern = pattern[2:]
		case len(pattern) > 2 && pattern[1] == '-' && pattern[2] != ']':
			lo, hi := pattern[0], pattern[2]
			if lo > hi {
				lo, hi = hi, lo
			}
			matched = matched || (c >= lo && c <= hi)
			pattern = pattern[3:]
		default:
			matched = matched || pattern[0] == c
			pattern = pattern[1:]
		}
	}
	if len(pattern) > 0 {
		pattern = pattern[1:]
	}
	return matched != negate, pattern
}
