// Package scan provides the backtracking cursor that the declaration parser
// is built on. A Scanner never tokenizes ahead of time: each parse function
// asks it to match a literal string, a keyword or an anchored regular
// expression at the current position, and rewinds Pos when an alternative
// does not pan out.
package scan

import (
	"fmt"
	"regexp"
	"strings"
)

// Scanner is a cursor over a single definition string.
type Scanner struct {
	Definition string
	Pos        int

	lastMatch []string

	// OtherErrors collects errors from speculative parses that were recovered
	// from. They are attached to the next hard failure as hints.
	OtherErrors []error

	// Warnings collects non-fatal diagnostics produced while parsing.
	Warnings []string

	language string
}

// New creates a Scanner positioned at the start of definition.
func New(definition, language string) *Scanner {
	return &Scanner{Definition: definition, language: language}
}

// EOF reports whether the cursor is at the end of the definition.
func (s *Scanner) EOF() bool {
	return s.Pos >= len(s.Definition)
}

// Current returns the byte at the cursor, or 0 at the end.
func (s *Scanner) Current() byte {
	if s.EOF() {
		return 0
	}
	return s.Definition[s.Pos]
}

// Rest returns the unconsumed input.
func (s *Scanner) Rest() string {
	if s.EOF() {
		return ""
	}
	return s.Definition[s.Pos:]
}

// Match tries re at the cursor. re must be anchored with ^ (see Anchored).
func (s *Scanner) Match(re *regexp.Regexp) bool {
	rest := s.Rest()
	loc := re.FindStringSubmatchIndex(rest)
	if loc == nil || loc[0] != 0 {
		return false
	}
	groups := make([]string, len(loc)/2)
	for i := range groups {
		if loc[2*i] >= 0 {
			groups[i] = rest[loc[2*i]:loc[2*i+1]]
		}
	}
	s.lastMatch = groups
	s.Pos += loc[1]
	return true
}

// Matched returns the text consumed by the last successful Match.
func (s *Scanner) Matched() string {
	if len(s.lastMatch) == 0 {
		return ""
	}
	return s.lastMatch[0]
}

// Group returns submatch i of the last successful Match, or "" when the
// group did not participate.
func (s *Scanner) Group(i int) string {
	if i >= len(s.lastMatch) {
		return ""
	}
	return s.lastMatch[i]
}

// SkipWS consumes whitespace and reports whether any was found.
func (s *Scanner) SkipWS() bool {
	start := s.Pos
	for !s.EOF() {
		switch s.Definition[s.Pos] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			s.Pos++
			continue
		}
		break
	}
	return s.Pos != start
}

// SkipString consumes str if it is at the cursor.
func (s *Scanner) SkipString(str string) bool {
	if strings.HasPrefix(s.Rest(), str) {
		s.Pos += len(str)
		return true
	}
	return false
}

// SkipWord consumes word when it appears at the cursor as a whole word.
func (s *Scanner) SkipWord(word string) bool {
	rest := s.Rest()
	if !strings.HasPrefix(rest, word) {
		return false
	}
	if isWordByte(word[0]) && s.Pos > 0 && isWordByte(s.Definition[s.Pos-1]) {
		return false
	}
	if isWordByte(word[len(word)-1]) && len(rest) > len(word) && isWordByte(rest[len(word)]) {
		return false
	}
	s.Pos += len(word)
	return true
}

// SkipStringAndWS is SkipString followed by SkipWS on success.
func (s *Scanner) SkipStringAndWS(str string) bool {
	if s.SkipString(str) {
		s.SkipWS()
		return true
	}
	return false
}

// SkipWordAndWS is SkipWord followed by SkipWS on success.
func (s *Scanner) SkipWordAndWS(word string) bool {
	if s.SkipWord(word) {
		s.SkipWS()
		return true
	}
	return false
}

// Fail builds a DefinitionError pointing at the cursor. Errors recorded in
// OtherErrors are attached as potential causes and then cleared.
func (s *Scanner) Fail(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	indicator := strings.Repeat("-", s.Pos) + "^"
	main := &DefinitionError{
		Description: fmt.Sprintf("Invalid %s declaration: %s [error at %d]\n  %s\n  %s",
			s.language, msg, s.Pos, s.Definition, indicator),
		Pos: s.Pos,
	}
	causes := []Cause{{Err: main, Header: "Main error"}}
	for _, e := range s.OtherErrors {
		causes = append(causes, Cause{Err: e, Header: "Potential other error"})
	}
	s.OtherErrors = nil
	return MultiError(causes, "")
}

// Warn records a non-fatal diagnostic.
func (s *Scanner) Warn(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

// AssertEnd fails unless only whitespace (and optionally one trailing
// semicolon) remains.
func (s *Scanner) AssertEnd(allowSemicolon bool) error {
	s.SkipWS()
	if allowSemicolon && s.Rest() == ";" {
		s.Pos++
	}
	if !s.EOF() {
		return s.Fail("Expected end of definition.")
	}
	return nil
}

// BalancedTokenSeq consumes text up to (not including) the first byte in
// end that is not nested inside brackets.
func (s *Scanner) BalancedTokenSeq(end string) (string, error) {
	closers := map[byte]byte{'(': ')', '[': ']', '{': '}'}
	start := s.Pos
	var stack []byte
	for !s.EOF() {
		c := s.Current()
		if len(stack) == 0 && strings.IndexByte(end, c) >= 0 {
			break
		}
		if closer, ok := closers[c]; ok {
			stack = append(stack, closer)
		} else if len(stack) > 0 && c == stack[len(stack)-1] {
			stack = stack[:len(stack)-1]
		} else if strings.IndexByte(")]}", c) >= 0 {
			return "", s.Fail("Unexpected '%c' in balanced-token-seq.", c)
		}
		s.Pos++
	}
	if s.EOF() {
		return "", s.Fail("Could not find end of balanced-token-seq starting at %d.", start)
	}
	return s.Definition[start:s.Pos], nil
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
