package service

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"evalops/internal/domain/entity"
	domainerrors "evalops/internal/domain/errors/domain"
	"evalops/internal/domain/valueobject"
)

// EvaluateObjectLiteral turns the exact source text of one JavaScript object
// literal into a structured value. The accepted grammar is data-only:
// objects, arrays, single/double/backtick strings, numbers, booleans and
// null. Identifiers in value position, calls, arithmetic, and template
// interpolation are rejected, which removes the code-execution surface the
// declaration syntax would otherwise invite.
func EvaluateObjectLiteral(text string) (map[string]interface{}, error) {
	p := &literalParser{text: text}
	p.skipTrivia()

	value, err := p.parseObject()
	if err != nil {
		return nil, err
	}

	p.skipTrivia()
	if p.pos < len(p.text) {
		return nil, p.errorf("unexpected trailing content after literal")
	}
	return value, nil
}

// literalParser is a recursive-descent parser over one literal expression.
type literalParser struct {
	text string
	pos  int
}

// errorf produces a DeclarationParseError carrying the raw literal text and
// the 1-based line of the failure within it.
func (p *literalParser) errorf(format string, args ...interface{}) error {
	reason := fmt.Sprintf(format, args...)
	line := LineNumberAt(p.text, p.pos)
	return domainerrors.NewDeclarationParseError(p.text, line, reason)
}

// skipTrivia consumes whitespace and comments.
func (p *literalParser) skipTrivia() {
	for p.pos < len(p.text) {
		ch := p.text[p.pos]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			p.pos++
		case ch == '/' && p.pos+1 < len(p.text) && p.text[p.pos+1] == '/':
			for p.pos < len(p.text) && p.text[p.pos] != '\n' {
				p.pos++
			}
		case ch == '/' && p.pos+1 < len(p.text) && p.text[p.pos+1] == '*':
			end := strings.Index(p.text[p.pos+2:], "*/")
			if end < 0 {
				p.pos = len(p.text)
				return
			}
			p.pos += 2 + end + 2
		default:
			return
		}
	}
}

func (p *literalParser) peek() (byte, bool) {
	if p.pos >= len(p.text) {
		return 0, false
	}
	return p.text[p.pos], true
}

// parseValue dispatches on the next significant character.
func (p *literalParser) parseValue() (interface{}, error) {
	p.skipTrivia()
	ch, ok := p.peek()
	if !ok {
		return nil, p.errorf("unexpected end of literal")
	}

	switch {
	case ch == '{':
		return p.parseObject()
	case ch == '[':
		return p.parseArray()
	case ch == '\'' || ch == '"' || ch == '`':
		return p.parseString()
	case ch == '-' || ch == '+' || (ch >= '0' && ch <= '9'):
		return p.parseNumber()
	default:
		return p.parseKeyword()
	}
}

// parseObject parses `{ key: value, ... }` with identifier or string keys and
// optional trailing commas.
func (p *literalParser) parseObject() (map[string]interface{}, error) {
	p.skipTrivia()
	if ch, ok := p.peek(); !ok || ch != '{' {
		return nil, p.errorf("expected '{'")
	}
	p.pos++

	result := make(map[string]interface{})
	for {
		p.skipTrivia()
		ch, ok := p.peek()
		if !ok {
			return nil, p.errorf("unbalanced braces in object literal")
		}
		if ch == '}' {
			p.pos++
			return result, nil
		}

		key, err := p.parseObjectKey()
		if err != nil {
			return nil, err
		}

		p.skipTrivia()
		if ch, ok := p.peek(); !ok || ch != ':' {
			return nil, p.errorf("expected ':' after key %q", key)
		}
		p.pos++

		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		result[key] = value

		p.skipTrivia()
		ch, ok = p.peek()
		switch {
		case !ok:
			return nil, p.errorf("unbalanced braces in object literal")
		case ch == ',':
			p.pos++
		case ch == '}':
			// Closing brace handled on the next loop iteration.
		default:
			return nil, p.errorf("expected ',' or '}' after value for key %q", key)
		}
	}
}

// parseObjectKey parses an identifier or quoted-string key.
func (p *literalParser) parseObjectKey() (string, error) {
	p.skipTrivia()
	ch, ok := p.peek()
	if !ok {
		return "", p.errorf("unexpected end of literal in object key")
	}
	if ch == '\'' || ch == '"' || ch == '`' {
		return p.parseString()
	}

	start := p.pos
	for p.pos < len(p.text) {
		r, size := utf8.DecodeRuneInString(p.text[p.pos:])
		if r == '$' || r == '_' || unicode.IsLetter(r) || (p.pos > start && unicode.IsDigit(r)) {
			p.pos += size
			continue
		}
		break
	}
	if p.pos == start {
		return "", p.errorf("invalid object key")
	}
	return p.text[start:p.pos], nil
}

// parseArray parses `[ value, ... ]` with optional trailing commas.
func (p *literalParser) parseArray() ([]interface{}, error) {
	p.pos++ // consume '['
	result := make([]interface{}, 0)

	for {
		p.skipTrivia()
		ch, ok := p.peek()
		if !ok {
			return nil, p.errorf("unbalanced brackets in array literal")
		}
		if ch == ']' {
			p.pos++
			return result, nil
		}

		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		result = append(result, value)

		p.skipTrivia()
		ch, ok = p.peek()
		switch {
		case !ok:
			return nil, p.errorf("unbalanced brackets in array literal")
		case ch == ',':
			p.pos++
		case ch == ']':
			// Closing bracket handled on the next loop iteration.
		default:
			return nil, p.errorf("expected ',' or ']' in array literal")
		}
	}
}

// parseString parses a single-, double-, or backtick-quoted string. Template
// interpolation is rejected: `${` would require evaluating code.
func (p *literalParser) parseString() (string, error) {
	quote := p.text[p.pos]
	p.pos++

	var sb strings.Builder
	for p.pos < len(p.text) {
		ch := p.text[p.pos]
		switch ch {
		case quote:
			p.pos++
			return sb.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.text) {
				return "", p.errorf("unterminated escape sequence")
			}
			decoded, err := p.parseEscape()
			if err != nil {
				return "", err
			}
			sb.WriteString(decoded)
		case '$':
			if quote == '`' && p.pos+1 < len(p.text) && p.text[p.pos+1] == '{' {
				return "", p.errorf("template interpolation is not a data literal")
			}
			sb.WriteByte(ch)
			p.pos++
		case '\n':
			if quote != '`' {
				return "", p.errorf("unterminated string literal")
			}
			sb.WriteByte(ch)
			p.pos++
		default:
			sb.WriteByte(ch)
			p.pos++
		}
	}
	return "", p.errorf("unterminated string literal")
}

// parseEscape decodes one escape sequence after the backslash.
func (p *literalParser) parseEscape() (string, error) {
	ch := p.text[p.pos]
	p.pos++
	switch ch {
	case 'n':
		return "\n", nil
	case 't':
		return "\t", nil
	case 'r':
		return "\r", nil
	case 'b':
		return "\b", nil
	case 'f':
		return "\f", nil
	case '0':
		return "\x00", nil
	case 'u':
		if p.pos+4 > len(p.text) {
			return "", p.errorf("truncated unicode escape")
		}
		code, err := strconv.ParseUint(p.text[p.pos:p.pos+4], 16, 32)
		if err != nil {
			return "", p.errorf("invalid unicode escape")
		}
		p.pos += 4
		return string(rune(code)), nil
	default:
		// \' \" \` \\ and any other escaped character map to themselves.
		return string(ch), nil
	}
}

// parseNumber parses an integer or floating-point number into float64.
func (p *literalParser) parseNumber() (float64, error) {
	start := p.pos
	if ch, _ := p.peek(); ch == '-' || ch == '+' {
		p.pos++
	}
	for p.pos < len(p.text) {
		ch := p.text[p.pos]
		if (ch >= '0' && ch <= '9') || ch == '.' || ch == 'e' || ch == 'E' ||
			((ch == '-' || ch == '+') && (p.text[p.pos-1] == 'e' || p.text[p.pos-1] == 'E')) {
			p.pos++
			continue
		}
		break
	}

	value, err := strconv.ParseFloat(p.text[start:p.pos], 64)
	if err != nil {
		return 0, p.errorf("invalid number literal %q", p.text[start:p.pos])
	}
	return value, nil
}

// parseKeyword parses true, false and null. Any other identifier is a live
// reference to something outside the literal, which the restricted grammar
// rejects.
func (p *literalParser) parseKeyword() (interface{}, error) {
	start := p.pos
	for p.pos < len(p.text) {
		ch := p.text[p.pos]
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch == '$' {
			p.pos++
			continue
		}
		break
	}

	word := p.text[start:p.pos]
	switch word {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null", "undefined":
		return nil, nil
	case "":
		return nil, p.errorf("unexpected character %q", p.text[start])
	default:
		return nil, p.errorf("identifier %q is not a data literal", word)
	}
}

// DecodeDeclarationConfig converts an evaluated literal into a typed
// DeclarationConfig. Unknown top-level keys are ignored so declarations can
// carry extra fields for other tools, but malformed known fields reject the
// whole declaration.
func DecodeDeclarationConfig(raw map[string]interface{}) (entity.DeclarationConfig, error) {
	var config entity.DeclarationConfig

	if v, ok := raw["description"]; ok {
		text, isString := v.(string)
		if !isString {
			return config, fmt.Errorf("description must be a string, got %T", v)
		}
		config.Description = text
	}

	if v, ok := raw["tags"]; ok {
		tags, err := decodeStringSlice(v)
		if err != nil {
			return config, fmt.Errorf("tags: %w", err)
		}
		config.Tags = tags
	}

	if v, ok := raw["skip"]; ok {
		skip, isBool := v.(bool)
		if !isBool {
			return config, fmt.Errorf("skip must be a boolean, got %T", v)
		}
		config.Skip = &skip
	}

	if v, ok := firstPresent(raw, "vars", "variables"); ok {
		vars, isMap := v.(map[string]interface{})
		if !isMap {
			return config, fmt.Errorf("vars must be an object, got %T", v)
		}
		config.Variables = vars
	}

	if v, ok := raw["prompt"]; ok {
		prompt, err := decodePrompt(v)
		if err != nil {
			return config, fmt.Errorf("prompt: %w", err)
		}
		config.Prompt = prompt
	}

	if v, ok := firstPresent(raw, "assert", "assertions"); ok {
		assertions, err := decodeAssertions(v)
		if err != nil {
			return config, fmt.Errorf("assert: %w", err)
		}
		config.Assertions = assertions
	}

	return config, nil
}

// firstPresent returns the first of the aliased keys present in the map.
func firstPresent(raw map[string]interface{}, keys ...string) (interface{}, bool) {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			return v, true
		}
	}
	return nil, false
}

func decodeStringSlice(v interface{}) ([]string, error) {
	items, isSlice := v.([]interface{})
	if !isSlice {
		return nil, fmt.Errorf("expected an array, got %T", v)
	}
	result := make([]string, 0, len(items))
	for i, item := range items {
		text, isString := item.(string)
		if !isString {
			return nil, fmt.Errorf("element %d must be a string, got %T", i, item)
		}
		result = append(result, text)
	}
	return result, nil
}

func decodePrompt(v interface{}) (valueobject.Prompt, error) {
	switch typed := v.(type) {
	case string:
		return valueobject.NewTextPrompt(typed), nil
	case []interface{}:
		messages := make([]valueobject.PromptMessage, 0, len(typed))
		for i, item := range typed {
			entry, isMap := item.(map[string]interface{})
			if !isMap {
				return valueobject.Prompt{}, fmt.Errorf("message %d must be an object, got %T", i, item)
			}
			role, _ := entry["role"].(string)
			content, _ := entry["content"].(string)
			if role == "" {
				return valueobject.Prompt{}, fmt.Errorf("message %d is missing a role", i)
			}
			messages = append(messages, valueobject.PromptMessage{Role: role, Content: content})
		}
		return valueobject.NewMessagePrompt(messages)
	default:
		return valueobject.Prompt{}, fmt.Errorf("expected a string or message array, got %T", v)
	}
}

func decodeAssertions(v interface{}) ([]valueobject.AssertionSpec, error) {
	items, isSlice := v.([]interface{})
	if !isSlice {
		return nil, fmt.Errorf("expected an array, got %T", v)
	}

	result := make([]valueobject.AssertionSpec, 0, len(items))
	for i, item := range items {
		entry, isMap := item.(map[string]interface{})
		if !isMap {
			return nil, fmt.Errorf("assertion %d must be an object, got %T", i, item)
		}

		kind, _ := entry["type"].(string)
		spec, err := valueobject.NewAssertionSpec(kind, entry["value"])
		if err != nil {
			return nil, fmt.Errorf("assertion %d: %w", i, err)
		}

		if w, ok := entry["weight"]; ok {
			weight, isNumber := w.(float64)
			if !isNumber {
				return nil, fmt.Errorf("assertion %d: weight must be a number, got %T", i, w)
			}
			spec = spec.WithWeight(weight)
		}
		if t, ok := entry["threshold"]; ok {
			threshold, isNumber := t.(float64)
			if !isNumber {
				return nil, fmt.Errorf("assertion %d: threshold must be a number, got %T", i, t)
			}
			spec = spec.WithThreshold(threshold)
		}

		result = append(result, spec)
	}
	return result, nil
}
