package domain

import "time"

// ChatTurn is one question/answer exchange persisted for a user.
// Turns are immutable once written; a user's turns are totally ordered
// by (CreatedAt, ID).
type ChatTurn struct {
	ID         uint64    `json:"id"`
	UserID     string    `json:"userId"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	ProductIDs []string  `json:"productIds"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AskResult is the payload returned to the caller of the ask pipeline.
type AskResult struct {
	UserQuestion string   `json:"user_question"`
	Response     string   `json:"response"`
	ProductIDs   []string `json:"product_ids"`
}

// HistoryEntry is one turn rendered for the chat-history endpoint.
// Timestamp is RFC 3339, or empty when unset.
type HistoryEntry struct {
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	ProductIDs []string `json:"product_ids"`
	Timestamp  string   `json:"timestamp"`
}
