// Package llm generates answers from retrieved context using AWS Bedrock.
package llm

import (
	"strings"

	"github.com/smartheat/heatbot/internal/retrieval"
)

const promptTemplate = `You are a helpful support assistant for the SmartHeat Pro thermostat.

You must ONLY use the information in the CONTEXT below to answer the user's question.
If the answer is not in the context, say you don't know and suggest that the user contact SmartHeat support.

CONTEXT:
%CONTEXT%

QUESTION:
%QUESTION%

Answer in a concise, clear way, in 3 to 6 sentences at most.
If a specific document/source is important, mention it briefly.`

// BuildPrompt combines the retrieved context with the user question into
// the prompt sent to the model.
func BuildPrompt(question string, results []retrieval.QueryResult) string {
	prompt := strings.Replace(promptTemplate, "%CONTEXT%", retrieval.FormatContext(results), 1)
	prompt = strings.Replace(prompt, "%QUESTION%", question, 1)
	return strings.TrimSpace(prompt)
}
