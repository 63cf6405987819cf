package ai

import (
	"fmt"
	"strings"

	"github.com/relie-app/relie/backend/internal/model/persona"
)

// Prompt styles accepted by AI_PROMPT_STYLE.
const (
	PromptStyleBasic    = "basic"
	PromptStyleDetailed = "detailed"
)

// PromptBuilder renders the system prompt for a persona.
type PromptBuilder struct {
	style string
}

// NewPromptBuilder returns a builder for the given style; unknown styles render the detailed prompt.
func NewPromptBuilder(style string) *PromptBuilder {
	if style != PromptStyleBasic {
		style = PromptStyleDetailed
	}
	return &PromptBuilder{style: style}
}

// Style reports the active prompt style.
func (pb *PromptBuilder) Style() string {
	return pb.style
}

// BuildSystemPrompt creates the system prompt for the persona
func (pb *PromptBuilder) BuildSystemPrompt(p persona.Persona) string {
	if pb.style == PromptStyleBasic {
		return buildBasicSystemPrompt(p)
	}
	return buildDetailedSystemPrompt(p)
}

// buildBasicSystemPrompt is the one-line prompt, e.g.
// "You are Relie, an empathetic mental health chatbot. Respond with care and support."
func buildBasicSystemPrompt(p persona.Persona) string {
	prompt := fmt.Sprintf("You are %s, %s %s.", p.Name, indefiniteArticle(p.Title), p.Title)
	if hint := strings.TrimSpace(p.PromptHint); hint != "" {
		prompt += " " + hint
	}
	return prompt
}

func buildDetailedSystemPrompt(p persona.Persona) string {
	var b strings.Builder
	b.WriteString(buildBasicSystemPrompt(p))

	if p.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(p.Description)
	}

	personality := p.Traits
	if p.Tone != "" {
		personality = append([]string{"Tone: " + p.Tone}, p.Traits...)
	}
	writeSection(&b, "Personality", personality)
	writeSection(&b, "How to reply", p.Guidelines)
	writeSection(&b, "Boundaries", p.Boundaries)

	b.WriteString("\n\nStay in character as ")
	b.WriteString(p.Name)
	b.WriteString(" for the whole conversation. Messages marked as guidance come from the system, not the user; follow them quietly without quoting them.")
	return b.String()
}

func writeSection(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString("\n\n")
	b.WriteString(title)
	b.WriteString(":")
	for _, line := range lines {
		b.WriteString("\n- ")
		b.WriteString(line)
	}
}

func indefiniteArticle(word string) string {
	if word == "" {
		return "a"
	}
	switch strings.ToLower(word[:1]) {
	case "a", "e", "i", "o", "u":
		return "an"
	default:
		return "a"
	}
}
