package knowledge

import (
	"regexp"
	"strings"
)

// Section is a heading line and the lines that follow it up to the next heading.
type Section struct {
	Header  string `json:"header"`
	Content string `json:"content"`
}

// Matcher reports whether a query hits a piece of text.
type Matcher func(text string) bool

// PatternMatcher compiles query as a case-insensitive regular expression that
// may match anywhere. A query that is not a valid expression is matched as a
// literal string instead.
func PatternMatcher(query string) Matcher {
	re, err := regexp.Compile("(?i)" + query)
	if err != nil {
		re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))
	}
	return re.MatchString
}

// LiteralMatcher matches query as a case-insensitive substring.
func LiteralMatcher(query string) Matcher {
	q := strings.ToLower(query)
	return func(text string) bool {
		return strings.Contains(strings.ToLower(text), q)
	}
}

// ExtractSections splits content at lines starting with "#" and returns the
// sections whose header or body is matched. Lines before the first heading are
// ignored, as is a heading with no following line. Content is trimmed.
func ExtractSections(content string, match Matcher) []Section {
	sections := []Section{}
	var header string
	var body []string
	inSection := false

	flush := func() {
		if !inSection || len(body) == 0 {
			return
		}
		text := strings.Join(body, "\n")
		if match(text) || match(header) {
			sections = append(sections, Section{Header: header, Content: strings.TrimSpace(text)})
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "#") {
			flush()
			header = line
			body = nil
			inSection = true
			continue
		}
		body = append(body, line)
	}
	flush()

	return sections
}
