package app

import (
	"clearbuybot/pkg/ai"
	"clearbuybot/pkg/domain"
)

// assembleHistory converts stored turns, oldest first, into the
// conversational context handed to the answer engine: one user entry for
// the question and one assistant entry for the answer per turn.
func assembleHistory(turns []domain.ChatTurn) []ai.Message {
	messages := make([]ai.Message, 0, len(turns)*2)
	for _, turn := range turns {
		messages = append(messages,
			ai.Message{Role: "user", Content: turn.Question},
			ai.Message{Role: "assistant", Content: turn.Answer},
		)
	}
	return messages
}
