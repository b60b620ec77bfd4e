package summary

import (
	"strings"
	"unicode/utf8"
)

// Split packs whole lines of text into segments of at most limit characters.
// Joining the segments with "\n" gives back text, except that a single line
// longer than limit is cut into limit-sized pieces of its own.
func Split(text string, limit int) []string {
	if text == "" {
		return nil
	}
	if limit <= 0 {
		return []string{text}
	}

	var (
		parts []string
		buf   strings.Builder
		size  int
		open  bool
	)
	flush := func() {
		parts = append(parts, buf.String())
		buf.Reset()
		size, open = 0, false
	}

	for _, line := range strings.Split(text, "\n") {
		n := utf8.RuneCountInString(line)
		for n > limit {
			if open {
				flush()
			}
			head, rest := cutRunes(line, limit)
			parts = append(parts, head)
			line, n = rest, n-limit
		}
		if open && size+1+n > limit {
			flush()
		}
		if open {
			buf.WriteByte('\n')
			size++
		}
		buf.WriteString(line)
		size += n
		open = true
	}
	if open {
		flush()
	}
	return parts
}

func cutRunes(s string, n int) (string, string) {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], s[pos:]
		}
		i++
	}
	return s, ""
}
