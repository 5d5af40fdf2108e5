package store

import "clearbuybot/pkg/domain"

// ChatStore defines persistence for per-user chat turns. Turns are
// insert-only; the only destructive operation is bulk delete by user.
type ChatStore interface {
	// AppendTurn inserts one immutable turn and returns it with the
	// store-assigned id and timestamp.
	AppendTurn(userID, question, answer string, productIDs []string) (domain.ChatTurn, error)

	// ListTurns returns turns for a user ordered by (created_at, id)
	// ascending. A positive limit restricts the result to the most recent
	// limit turns, still returned in chronological order; limit <= 0
	// returns everything.
	ListTurns(userID string, limit int) ([]domain.ChatTurn, error)

	// DeleteTurns removes all turns for a user and reports how many rows
	// went away. Zero is a valid outcome, not an error.
	DeleteTurns(userID string) (int64, error)

	// HasTurns reports whether any turn exists for the user.
	HasTurns(userID string) (bool, error)
}
