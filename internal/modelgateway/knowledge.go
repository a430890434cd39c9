package modelgateway

import "strings"

// knowledgeBudget is the hard character cap on assembled knowledge text
// (spec §4.4, §8 property 5).
const knowledgeBudget = 20000

const truncationMarker = "[... remaining knowledge truncated ...]"

// AssembleKnowledge concatenates docs in order, stopping once the running
// total would exceed knowledgeBudget. The final document, if truncated,
// is cut to fit and the output ends with the literal truncationMarker.
func AssembleKnowledge(docs []string) string {
	var sb strings.Builder
	runningTotal := 0
	for _, doc := range docs {
		if runningTotal+len(doc) <= knowledgeBudget {
			sb.WriteString(doc)
			runningTotal += len(doc)
			continue
		}
		remaining := knowledgeBudget - runningTotal
		if remaining > 0 {
			sb.WriteString(doc[:remaining])
		}
		sb.WriteString(truncationMarker)
		return sb.String()
	}
	return sb.String()
}

// BuildSystemInstruction combines the agent prompt with assembled knowledge
// into the inline systemInstruction text used when no valid cache handle is
// available (spec §4.4).
func BuildSystemInstruction(prompt string, knowledge []string) string {
	assembled := AssembleKnowledge(knowledge)
	if assembled == "" {
		return prompt
	}
	var sb strings.Builder
	sb.WriteString(prompt)
	sb.WriteString("\n\n")
	sb.WriteString(assembled)
	return sb.String()
}
