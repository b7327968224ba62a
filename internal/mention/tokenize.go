package mention

import (
	"regexp"
	"strings"
)

const (
	tokenOpen  = "{{"
	tokenClose = "}}"
)

var tokenPattern = regexp.MustCompile(`\{\{.*?\}\}`)

// run is a slice of source text, either literal or an interpolation token.
type run struct {
	text  string
	token bool
}

// isToken reports whether s is a well-formed interpolation token.
func isToken(s string) bool {
	return len(s) > len(tokenOpen)+len(tokenClose) &&
		strings.HasPrefix(s, tokenOpen) &&
		strings.HasSuffix(s, tokenClose)
}

// tokenize splits one line into literal runs and tokens in source order.
// Empty runs are dropped and adjacent literal runs are coalesced, so a
// malformed look-alike such as "{{}}" joins its neighbouring text.
func tokenize(line string) []run {
	var runs []run
	appendText := func(s string) {
		if s == "" {
			return
		}
		if n := len(runs); n > 0 && !runs[n-1].token {
			runs[n-1].text += s
			return
		}
		runs = append(runs, run{text: s})
	}

	pos := 0
	for _, loc := range tokenPattern.FindAllStringIndex(line, -1) {
		appendText(line[pos:loc[0]])
		match := line[loc[0]:loc[1]]
		if isToken(match) {
			runs = append(runs, run{text: match, token: true})
		} else {
			appendText(match)
		}
		pos = loc[1]
	}
	appendText(line[pos:])
	return runs
}
