// Package search implements the in-band search command: the assistant writes
// a sentinel line such as "PESQUISAR: clima em São Paulo" into its streamed
// text, the controller silences audio, runs a web search and injects the
// results back into the session as a text turn.
package search

import (
	"regexp"
	"strings"
)

// DefaultKeywords are the sentinel keywords, matched case-insensitively.
var DefaultKeywords = []string{"PESQUISAR", "SEARCH"}

// maxCarry bounds the partial line kept between streamed fragments.
const maxCarry = 256

// maxQueryLine bounds a held sentinel line. Longer lines fire as they are.
const maxQueryLine = 512

var defaultPattern = compile(DefaultKeywords)

func compile(keywords []string) *regexp.Regexp {
	quoted := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			quoted = append(quoted, regexp.QuoteMeta(k))
		}
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `):[ \t]*(.+)`)
}

// Parser extracts sentinel queries from text.
type Parser struct {
	re *regexp.Regexp
}

// NewParser builds a parser for keywords (DefaultKeywords when empty).
func NewParser(keywords ...string) *Parser {
	if len(keywords) == 0 {
		return &Parser{re: defaultPattern}
	}
	return &Parser{re: compile(keywords)}
}

// Parse returns the trimmed query following the first sentinel in text.
// A sentinel with an empty query is not a match.
func (p *Parser) Parse(text string) (string, bool) {
	m := p.re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	q := strings.TrimSpace(m[1])
	if q == "" {
		return "", false
	}
	return q, true
}

// ParseSentinel parses text with the default keywords.
func ParseSentinel(text string) (string, bool) {
	return NewParser().Parse(text)
}

// Hit is the outcome of feeding a fragment to a Scanner.
type Hit int

const (
	// NoMatch means no sentinel has been seen in this turn.
	NoMatch Hit = iota
	// Pending means a sentinel line has started but its query may still
	// be streaming. The caller should silence the assistant and wait.
	Pending
	// Complete means the sentinel line ended and the query is final.
	Complete
)

// Scanner watches the streamed text of one model turn. It keeps the
// unfinished last line between fragments so a keyword split across two
// fragments is still found. Once a sentinel is seen, the query is held
// until its line ends with a newline or the turn ends (Flush). It fires at
// most once per turn.
type Scanner struct {
	parser  *Parser
	carry   string
	pending bool
	fired   bool
}

// NewScanner creates a scanner using parser (default keywords when nil).
func NewScanner(parser *Parser) *Scanner {
	if parser == nil {
		parser = NewParser()
	}
	return &Scanner{parser: parser}
}

// Feed scans the next text fragment. A Complete hit carries the query.
func (s *Scanner) Feed(fragment string) (string, Hit) {
	if s.fired || fragment == "" {
		return "", NoMatch
	}
	text := s.carry + fragment

	if !s.pending {
		loc := s.parser.re.FindStringSubmatchIndex(text)
		if loc == nil || strings.TrimSpace(text[loc[2]:loc[3]]) == "" {
			s.keepTail(text)
			return "", NoMatch
		}
		text = text[loc[0]:]
		s.pending = true
	}

	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return s.complete(text[:i])
	}
	if len(text) > maxQueryLine {
		return s.complete(text)
	}
	s.carry = text
	return "", Pending
}

// Flush ends the turn: a held sentinel line is parsed as it stands.
func (s *Scanner) Flush() (string, bool) {
	if !s.pending {
		return "", false
	}
	q, hit := s.complete(s.carry)
	return q, hit == Complete
}

func (s *Scanner) complete(line string) (string, Hit) {
	s.pending = false
	s.fired = true
	s.carry = ""
	if q, ok := s.parser.Parse(line); ok {
		return q, Complete
	}
	return "", NoMatch
}

func (s *Scanner) keepTail(text string) {
	if i := strings.LastIndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	if len(text) > maxCarry {
		text = text[len(text)-maxCarry:]
	}
	s.carry = text
}

// Pending reports whether a sentinel line is being held.
func (s *Scanner) Pending() bool {
	return s.pending
}

// Fired reports whether the current turn already triggered a search.
func (s *Scanner) Fired() bool {
	return s.fired
}

// Reset starts a new turn.
func (s *Scanner) Reset() {
	s.carry = ""
	s.pending = false
	s.fired = false
}
