package capture

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxChars bounds the captured output to the most recent characters
const MaxChars = 8192

// Diff returns the suffix of after that starts where it first differs
// from before. It is empty when after is identical to, or a prefix of,
// before.
func Diff(before, after string) string {
	n := len(before)
	if len(after) < n {
		n = len(after)
	}
	i := 0
	for i < n && before[i] == after[i] {
		i++
	}
	for i > 0 && i < len(after) && !utf8.RuneStart(after[i]) {
		i--
	}
	return after[i:]
}

// StripEcho removes the echoed command line from the start of a diff.
// When the trimmed diff spans several lines the first one is taken to be
// the echo; a single line is kept whole because it cannot be told apart
// from one line of output.
func StripEcho(diff string) string {
	trimmed := strings.TrimSpace(diff)
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		return strings.TrimSpace(trimmed[idx+1:])
	}
	return trimmed
}

// Sanitize drops control characters other than newline, carriage return
// and tab, drops surrogate and invalid code points, and keeps at most the
// last max characters. A max of zero or less means MaxChars.
func Sanitize(s string, max int) string {
	if max <= 0 {
		max = MaxChars
	}
	out := make([]rune, 0, len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if !keepRune(r, size) {
			continue
		}
		out = append(out, r)
	}
	if len(out) > max {
		out = out[len(out)-max:]
	}
	return string(out)
}

func keepRune(r rune, size int) bool {
	switch {
	case r == utf8.RuneError && size <= 1:
		return false
	case r >= 0xD800 && r <= 0xDFFF:
		return false
	case r == '\n' || r == '\r' || r == '\t':
		return true
	case unicode.IsControl(r):
		return false
	}
	return true
}
