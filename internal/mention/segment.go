package mention

import (
	"strings"

	"github.com/rendis/flowcanvas/pkg/schema"
)

// Path is an interpolation path split into segments. Segment 0 is the id
// of the referenced step; the rest are property names or indexes.
type Path []string

// StepID returns the referenced step id, or "" for an empty path.
func (p Path) StepID() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// Properties returns the segments after the step id.
func (p Path) Properties() []string {
	if len(p) < 2 {
		return nil
	}
	return p[1:]
}

// SegmentPath splits an interpolation token such as
// `{{step_1.output["first name"][0]}}` into its segments. The surrounding
// delimiters are optional. Dotted and bracketed notation may be mixed;
// bracket contents are taken verbatim (dots included) and one pair of
// surrounding quotes is stripped.
//
// The only errors are an empty path and an unterminated bracket or quote.
func SegmentPath(raw string) (Path, error) {
	inner := strings.TrimSpace(stripDelimiters(raw))
	if inner == "" {
		return nil, schema.NewError(schema.ErrCodeParse, "empty interpolation path")
	}

	var (
		segments    Path
		word        strings.Builder
		inBrackets  bool
		quote       rune // open quote inside brackets, 0 if none
		justFlushed bool
	)
	flush := func() {
		segments = append(segments, unquote(word.String()))
		word.Reset()
		justFlushed = true
	}

	for _, r := range inner {
		switch {
		case quote != 0:
			word.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case inBrackets && (r == '"' || r == '\''):
			word.WriteRune(r)
			quote = r
		case r == '.' && !inBrackets:
			if !justFlushed {
				flush()
			}
		case r == '[' && !inBrackets:
			if word.Len() > 0 {
				flush()
			}
			inBrackets = true
		case r == ']' && inBrackets:
			flush()
			inBrackets = false
		default:
			word.WriteRune(r)
			justFlushed = false
		}
	}

	if inBrackets || quote != 0 {
		return nil, schema.NewErrorf(schema.ErrCodeParse, "unterminated bracket in path %q", inner).
			WithDetails(map[string]any{"path": inner})
	}
	if word.Len() > 0 {
		flush()
	}
	return segments, nil
}

func stripDelimiters(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, tokenOpen) && strings.HasSuffix(s, tokenClose) && len(s) >= len(tokenOpen)+len(tokenClose) {
		return s[len(tokenOpen) : len(s)-len(tokenClose)]
	}
	return s
}

func unquote(s string) string {
	if s != "" && isQuote(s[0]) {
		s = s[1:]
	}
	if s != "" && isQuote(s[len(s)-1]) {
		s = s[:len(s)-1]
	}
	return s
}

func isQuote(c byte) bool {
	return c == '"' || c == '\''
}
