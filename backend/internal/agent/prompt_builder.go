package agent

import (
	"fmt"
	"strings"

	"cose-ai/backend/internal/state"
)

// NoContextMarker replaces the bullet list when nothing was retrieved
const NoContextMarker = "No previous context found."

// BuildSystemPrompt renders the fixed system-prompt template around the retrieved context.
// It is pure: identical inputs always give identical output.
func BuildSystemPrompt(persona state.Persona, snippets []state.ContextSnippet) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, an expert assistant for %s.\n", persona.Name, persona.Domain)
	b.WriteString(persona.Purpose)
	b.WriteString("\n\nRelevant knowledge from graph database:\n")

	if len(snippets) == 0 {
		b.WriteString(NoContextMarker)
	} else {
		for i, s := range snippets {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("- ")
			b.WriteString(s.Content)
		}
	}

	fmt.Fprintf(&b, "\n\nUse this context to provide accurate, helpful responses about %s topics.", persona.DomainShort)
	return b.String()
}
