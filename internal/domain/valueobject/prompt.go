package valueobject

import (
	"errors"
	"fmt"
)

// PromptMessage is one role/content pair in a conversational prompt.
type PromptMessage struct {
	Role    string `json:"role"    yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Prompt carries a declaration's prompt, which may be either a plain string
// or an ordered sequence of role/content messages. Exactly one of the two
// forms is populated; a zero Prompt means the declaration omitted the field.
type Prompt struct {
	text     string
	messages []PromptMessage
	isText   bool
}

// NewTextPrompt wraps a plain-string prompt.
func NewTextPrompt(text string) Prompt {
	return Prompt{text: text, isText: true}
}

// NewMessagePrompt wraps an ordered message sequence.
func NewMessagePrompt(messages []PromptMessage) (Prompt, error) {
	if len(messages) == 0 {
		return Prompt{}, errors.New("message prompt cannot be empty")
	}
	for i, m := range messages {
		if m.Role == "" {
			return Prompt{}, fmt.Errorf("message %d: role cannot be empty", i)
		}
	}
	copied := make([]PromptMessage, len(messages))
	copy(copied, messages)
	return Prompt{messages: copied}, nil
}

// IsZero reports whether the declaration omitted the prompt entirely.
func (p Prompt) IsZero() bool {
	return !p.isText && len(p.messages) == 0
}

// IsText reports whether the prompt is the plain-string form.
func (p Prompt) IsText() bool {
	return p.isText
}

// Text returns the plain-string prompt. Empty for the message form.
func (p Prompt) Text() string {
	return p.text
}

// Messages returns the ordered message sequence. Nil for the text form.
func (p Prompt) Messages() []PromptMessage {
	if len(p.messages) == 0 {
		return nil
	}
	copied := make([]PromptMessage, len(p.messages))
	copy(copied, p.messages)
	return copied
}

// Value returns the prompt in its wire shape: a string for the text form or
// a []PromptMessage for the message form, nil when absent. Used when
// serializing test cases for upload.
func (p Prompt) Value() interface{} {
	switch {
	case p.isText:
		return p.text
	case len(p.messages) > 0:
		return p.Messages()
	default:
		return nil
	}
}
