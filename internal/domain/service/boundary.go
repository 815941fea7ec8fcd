// Package service contains the pure discovery logic shared by both
// declaration locator strategies: balanced-block boundary extraction and
// restricted object-literal evaluation.
package service

import (
	"strings"

	domainerrors "evalops/internal/domain/errors/domain"
)

// lexState tracks the minimal string/comment context needed to count
// delimiters safely. Raw character counting would miscount braces inside
// string literals and comments, so the scanner carries this state instead.
type lexState int

const (
	lexNormal lexState = iota
	lexSingleQuote
	lexDoubleQuote
	lexTemplate
	lexLineComment
	lexBlockComment
)

// delimiterScanner walks source text one byte at a time, updating lexical
// state and reporting whether the current character is significant code
// (outside strings and comments).
type delimiterScanner struct {
	text  string
	pos   int
	state lexState
}

func newDelimiterScanner(text string, pos int) *delimiterScanner {
	return &delimiterScanner{text: text, pos: pos, state: lexNormal}
}

// next advances one character and returns it along with whether it counts as
// code. Escape sequences inside strings consume the escaped character too.
func (s *delimiterScanner) next() (byte, bool, bool) {
	if s.pos >= len(s.text) {
		return 0, false, false
	}

	ch := s.text[s.pos]
	s.pos++

	switch s.state {
	case lexSingleQuote:
		s.consumeStringChar(ch, '\'')
		return ch, false, true
	case lexDoubleQuote:
		s.consumeStringChar(ch, '"')
		return ch, false, true
	case lexTemplate:
		s.consumeStringChar(ch, '`')
		return ch, false, true
	case lexLineComment:
		if ch == '\n' {
			s.state = lexNormal
		}
		return ch, false, true
	case lexBlockComment:
		if ch == '*' && s.pos < len(s.text) && s.text[s.pos] == '/' {
			s.pos++
			s.state = lexNormal
		}
		return ch, false, true
	case lexNormal:
		switch ch {
		case '\'':
			s.state = lexSingleQuote
			return ch, false, true
		case '"':
			s.state = lexDoubleQuote
			return ch, false, true
		case '`':
			s.state = lexTemplate
			return ch, false, true
		case '/':
			if s.pos < len(s.text) {
				switch s.text[s.pos] {
				case '/':
					s.pos++
					s.state = lexLineComment
					return ch, false, true
				case '*':
					s.pos++
					s.state = lexBlockComment
					return ch, false, true
				}
			}
			return ch, true, true
		default:
			return ch, true, true
		}
	}
	return ch, false, true
}

// consumeStringChar updates string state for one character, handling escapes
// and the closing quote.
func (s *delimiterScanner) consumeStringChar(ch, quote byte) {
	switch ch {
	case '\\':
		if s.pos < len(s.text) {
			s.pos++
		}
	case quote:
		s.state = lexNormal
	}
}

// ExtractBracedBlock scans forward from fromIndex, tracking brace depth
// starting at the first code-context '{', and returns the substring from that
// brace to its matching '}' inclusive. Returns the empty string when no
// balanced block is found before end of text.
func ExtractBracedBlock(text string, fromIndex int) string {
	if fromIndex < 0 || fromIndex >= len(text) {
		return ""
	}

	scanner := newDelimiterScanner(text, fromIndex)
	start := -1
	depth := 0

	for {
		pos := scanner.pos
		ch, isCode, ok := scanner.next()
		if !ok {
			return ""
		}
		if !isCode {
			continue
		}

		switch ch {
		case '{':
			if start < 0 {
				start = pos
			}
			depth++
		case '}':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return text[start:scanner.pos]
			}
		}
	}
}

// ExtractSecondCallArgument returns the second top-level argument of a
// two-argument call expression, given the index of the call's opening
// parenthesis. The result is trimmed of leading whitespace and excludes the
// closing parenthesis. Brace, bracket and nested paren depth are tracked so a
// comma inside the first argument's object literal does not split the call.
func ExtractSecondCallArgument(text string, callOpenIndex int) (string, error) {
	if callOpenIndex < 0 || callOpenIndex >= len(text) || text[callOpenIndex] != '(' {
		return "", domainerrors.ErrNoSecondArgument
	}

	scanner := newDelimiterScanner(text, callOpenIndex+1)
	parenDepth := 1
	nestDepth := 0
	commaIndex := -1

	for {
		pos := scanner.pos
		ch, isCode, ok := scanner.next()
		if !ok {
			return "", domainerrors.ErrNoSecondArgument
		}
		if !isCode {
			continue
		}

		switch ch {
		case '(':
			parenDepth++
		case ')':
			parenDepth--
			if parenDepth == 0 {
				if commaIndex < 0 {
					return "", domainerrors.ErrNoSecondArgument
				}
				arg := strings.TrimSpace(text[commaIndex+1 : pos])
				if arg == "" {
					return "", domainerrors.ErrNoSecondArgument
				}
				return arg, nil
			}
		case '{', '[':
			nestDepth++
		case '}', ']':
			nestDepth--
		case ',':
			if parenDepth == 1 && nestDepth == 0 && commaIndex < 0 {
				commaIndex = pos
			}
		}
	}
}

// MatchingParenEnd returns the index just past the parenthesis matching the
// opening parenthesis at openIndex, or -1 when the text ends before the match
// is found. Used to skip a function's parameter list, whose default values
// may themselves contain braces.
func MatchingParenEnd(text string, openIndex int) int {
	if openIndex < 0 || openIndex >= len(text) || text[openIndex] != '(' {
		return -1
	}

	scanner := newDelimiterScanner(text, openIndex+1)
	depth := 1
	for {
		ch, isCode, ok := scanner.next()
		if !ok {
			return -1
		}
		if !isCode {
			continue
		}
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return scanner.pos
			}
		}
	}
}

// LineNumberAt returns the 1-based line number of a byte offset in text.
func LineNumberAt(text string, offset int) int {
	if offset < 0 {
		return 1
	}
	if offset > len(text) {
		offset = len(text)
	}
	return strings.Count(text[:offset], "\n") + 1
}
