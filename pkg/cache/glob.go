package cache

// MatchGlob reports whether s matches pattern using Redis KEYS/SCAN semantics:
// '*' matches any run of bytes (including ':' and '/'), '?' one byte, '[...]'
// a class with optional '^' negation and 'a-z' ranges, and '\' escapes the next byte.
func MatchGlob(pattern, s string) bool {
	px, sx := 0, 0
	starPx, starSx := -1, -1

	for px < len(pattern) || sx < len(s) {
		if px < len(pattern) {
			switch c := pattern[px]; c {
			case '*':
				starPx, starSx = px, sx+1
				px++
				continue
			case '?':
				if sx < len(s) {
					px++
					sx++
					continue
				}
			case '[':
				if sx < len(s) {
					if ok, width := matchClass(pattern[px:], s[sx]); ok {
						px += width
						sx++
						continue
					}
				}
			case '\\':
				lit := byte('\\')
				width := 1
				if px+1 < len(pattern) {
					lit, width = pattern[px+1], 2
				}
				if sx < len(s) && s[sx] == lit {
					px += width
					sx++
					continue
				}
			default:
				if sx < len(s) && s[sx] == c {
					px++
					sx++
					continue
				}
			}
		}
		// Mismatch: let the last '*' swallow one more byte.
		if starSx > 0 && starSx <= len(s) {
			px, sx = starPx, starSx
			continue
		}
		return false
	}
	return true
}

// matchClass matches c against the class at the start of p ("[...]").
// It returns the match result and the width of the class; an unterminated class never matches.
func matchClass(p string, c byte) (bool, int) {
	i := 1
	negate := false
	if i < len(p) && p[i] == '^' {
		negate = true
		i++
	}

	matched := false
	for i < len(p) && p[i] != ']' {
		lo := p[i]
		if lo == '\\' && i+1 < len(p) {
			i++
			lo = p[i]
		}
		hi := lo
		if i+2 < len(p) && p[i+1] == '-' && p[i+2] != ']' {
			hi = p[i+2]
			i += 2
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		if lo <= c && c <= hi {
			matched = true
		}
		i++
	}
	if i >= len(p) {
		return false, 0
	}
	return matched != negate, i + 1
}
