package ai

import "fmt"

// SystemInstruction constrains the model to the uploaded documents.
const SystemInstruction = "You are an expert Q&A system. Your task is to answer questions based ONLY on the provided context from uploaded documents. If the answer is not found in the context, clearly state that the information is not available in the provided documents. Do not use any external knowledge or make assumptions."

// BuildPrompt renders the user part of a grounded prompt.
// The full context is always included; nothing is chunked or truncated.
func BuildPrompt(context, question string) string {
	return fmt.Sprintf("CONTEXT:\n%s\n\nQUESTION:\n%s", context, question)
}
