package ai

import "context"

// Message is one entry of the conversational context handed to the engine.
// Role is "user" or "assistant".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AnswerEngine produces free-text answers from a question plus prior
// conversation context. The engine is stateless between calls; all memory
// is re-supplied on every invocation.
type AnswerEngine interface {
	Answer(ctx context.Context, question string, history []Message) (string, error)
}
