package policy

import (
	"regexp"
	"strings"
)

// Matcher matches paths against a fixed set of shell-style glob patterns.
// A pattern matches if it matches the whole path, its last segment, or any
// of its ancestor directories. Ancestors are taken textually from the input;
// nothing is resolved against the filesystem.
type Matcher struct {
	patterns []*regexp.Regexp
}

// NewMatcher compiles patterns. A pattern that cannot be compiled never matches.
func NewMatcher(patterns []string) *Matcher {
	m := &Matcher{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := compileGlob(p)
		if err != nil {
			continue
		}
		m.patterns = append(m.patterns, re)
	}
	return m
}

// MatchesAny reports whether path matches any of patterns.
func MatchesAny(path string, patterns []string) bool {
	return NewMatcher(patterns).Matches(path)
}

// Matches reports whether path matches any pattern of the matcher.
func (m *Matcher) Matches(path string) bool {
	if m == nil || len(m.patterns) == 0 || path == "" {
		return false
	}

	full, base, ancestors := splitLexical(path)
	for _, re := range m.patterns {
		if re.MatchString(full) || re.MatchString(base) {
			return true
		}
		for _, dir := range ancestors {
			if re.MatchString(dir) {
				return true
			}
		}
	}
	return false
}

// splitLexical normalizes a slash-separated path the way a POSIX pure path
// does (repeated separators and "." segments collapse, ".." is kept, exactly
// two leading slashes are preserved) and returns its string form, its last
// segment and its ancestors, nearest first.
func splitLexical(p string) (full, base string, ancestors []string) {
	var root string
	switch {
	case strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "///"):
		root = "//"
	case strings.HasPrefix(p, "/"):
		root = "/"
	}

	var parts []string
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." {
			continue
		}
		parts = append(parts, seg)
	}

	join := func(segs []string) string {
		s := strings.Join(segs, "/")
		if root != "" {
			return root + s
		}
		if s == "" {
			return "."
		}
		return s
	}

	full = join(parts)
	if len(parts) > 0 {
		base = parts[len(parts)-1]
	}
	for i := len(parts) - 1; i >= 0; i-- {
		ancestors = append(ancestors, join(parts[:i]))
	}
	return full, base, ancestors
}

// compileGlob translates a shell-style pattern into an anchored regexp.
// "*" matches any run of characters including "/", "?" matches one character,
// "[...]" is a character class ("[!...]" negates). An unterminated "[" is
// taken literally.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString(`(?s)\A`)

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '*':
			for i+1 < len(runes) && runes[i+1] == '*' {
				i++
			}
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '[':
			end := classEnd(runes, i)
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			writeClass(&b, runes[i+1:end])
			i = end
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	b.WriteString(`\z`)
	return regexp.Compile(b.String())
}

// classEnd returns the index of the "]" closing the class opened at start,
// or -1. A "]" right after "[" or "[!" belongs to the class.
func classEnd(runes []rune, start int) int {
	j := start + 1
	if j < len(runes) && runes[j] == '!' {
		j++
	}
	if j < len(runes) && runes[j] == ']' {
		j++
	}
	for j < len(runes) && runes[j] != ']' {
		j++
	}
	if j >= len(runes) {
		return -1
	}
	return j
}

// writeClass writes the class whose text between the brackets is body.
// Ranges are split on "-" and empty ranges such as "z-a" are dropped. A class
// left empty never matches; a negated empty class matches any character.
func writeClass(b *strings.Builder, body []rune) {
	chunks := classChunks(body)

	var n int
	for _, c := range chunks {
		n += len(c)
	}
	negate := len(body) > 0 && body[0] == '!'
	switch {
	case n == 0:
		b.WriteString(`[^\x00-\x{10FFFF}]`)
		return
	case n == 1 && negate:
		b.WriteString(".")
		return
	}

	b.WriteByte('[')
	for i, c := range chunks {
		if i > 0 {
			b.WriteByte('-')
		}
		if i == 0 && negate {
			b.WriteByte('^')
			c = c[1:]
		}
		for _, r := range c {
			if r == '-' {
				b.WriteString(`\-`)
				continue
			}
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteByte(']')
}

// classChunks splits a class body on range hyphens. Consecutive chunks are
// joined by a range; a range whose bounds are inverted is removed along with
// its bounds.
func classChunks(body []rune) [][]rune {
	if !containsRune(body, '-') {
		return [][]rune{body}
	}

	var chunks [][]rune
	i, k := 0, 1
	if body[0] == '!' {
		k = 2
	}
	for {
		k = indexRuneFrom(body, '-', k)
		if k < 0 {
			break
		}
		chunks = append(chunks, body[i:k])
		i = k + 1
		k += 3
	}
	if rest := body[i:]; len(rest) > 0 {
		chunks = append(chunks, rest)
	} else {
		last := chunks[len(chunks)-1]
		chunks[len(chunks)-1] = append(append([]rune{}, last...), '-')
	}

	for k := len(chunks) - 1; k > 0; k-- {
		prev, cur := chunks[k-1], chunks[k]
		if len(prev) == 0 || len(cur) == 0 || prev[len(prev)-1] <= cur[0] {
			continue
		}
		merged := append(append([]rune{}, prev[:len(prev)-1]...), cur[1:]...)
		chunks[k-1] = merged
		chunks = append(chunks[:k], chunks[k+1:]...)
	}
	return chunks
}

func containsRune(runes []rune, r rune) bool {
	return indexRuneFrom(runes, r, 0) >= 0
}

func indexRuneFrom(runes []rune, r rune, from int) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
