package engine

import (
	"fmt"
	"strings"
)

// PromptBuilder turns an entity's memories into the user prompt sent to the
// provider. Hosts with their own template system supply an implementation;
// BasicPromptBuilder is the default.
type PromptBuilder interface {
	BuildPrompt(entityID string, memories []Memory, templateName string) string
}

// BasicPromptBuilder joins memory contents into a plain summarization request.
type BasicPromptBuilder struct{}

func (BasicPromptBuilder) BuildPrompt(entityID string, memories []Memory, templateName string) string {
	var sb strings.Builder
	switch templateName {
	case "short":
		fmt.Fprintf(&sb, "Summarize the following memories of %s in one or two sentences.\n\n", entityID)
	default:
		fmt.Fprintf(&sb, "Summarize the following memories of %s as a short paragraph.\n\n", entityID)
	}
	for _, m := range memories {
		sb.WriteString("- ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}
