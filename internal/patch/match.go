package patch

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// Matcher finds search text in file content while tolerating whitespace
// drift: any whitespace run in the search text matches any amount of
// whitespace (including none), and whitespace may appear or vanish around
// '<' and '>'.
type Matcher struct {
	re     *regexp.Regexp
	indent string // leading blanks of the first non-empty search line
}

var errBlankSearch = errors.New("patch: blank search text")

// CompileMatcher builds a Matcher for search. Literal characters are escaped
// before the whitespace wildcards are put in, so model text is never read as
// pattern syntax. The pattern neither starts nor ends with a wildcard, so a
// match never swallows the indentation or line breaks around it.
func CompileMatcher(search string) (*Matcher, error) {
	trimmed := strings.TrimSpace(search)
	if trimmed == "" {
		return nil, errBlankSearch
	}
	re, err := regexp.Compile(flexiblePattern(trimmed))
	if err != nil {
		return nil, err
	}
	return &Matcher{re: re, indent: firstIndent(search)}, nil
}

// Find returns the byte span of the leftmost match in content.
func (m *Matcher) Find(content string) (start, end int, ok bool) {
	loc := m.re.FindStringIndex(content)
	if loc == nil {
		return 0, 0, false
	}
	return loc[0], loc[1], true
}

// TrimIndent drops the search text's first-line indentation from the front
// of replace. The match begins after that indentation in the file, so
// keeping it would indent the first replaced line twice.
func (m *Matcher) TrimIndent(replace string) string {
	if m.indent == "" {
		return replace
	}
	return strings.TrimPrefix(replace, m.indent)
}

// gapClass matches every rune unicode.IsSpace accepts; RE2's \s alone is
// ASCII only.
const gapClass = `[\s\v\x{85}\p{Zs}\x{2028}\x{2029}]*`

func flexiblePattern(s string) string {
	var b strings.Builder
	pending := false
	gap := func() {
		if pending && b.Len() > 0 {
			b.WriteString(gapClass)
		}
		pending = false
	}
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			pending = true
		case r == '<' || r == '>':
			pending = true
			gap()
			b.WriteRune(r)
			pending = true
		default:
			gap()
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}

func firstIndent(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	}
	return ""
}
