package store

import (
	"sync"
	"time"

	"clearbuybot/pkg/domain"
)

// MemoryStore keeps chat turns in-process. It backs tests and local runs
// without a database and mirrors the GormStore ordering contract.
type MemoryStore struct {
	mu     sync.RWMutex
	turns  map[string][]domain.ChatTurn
	nextID uint64
	now    func() time.Time
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		turns: make(map[string][]domain.ChatTurn),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// AppendTurn records one turn with a monotonically assigned id.
func (m *MemoryStore) AppendTurn(userID, question, answer string, productIDs []string) (domain.ChatTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	if productIDs == nil {
		productIDs = []string{}
	}
	turn := domain.ChatTurn{
		ID:         m.nextID,
		UserID:     userID,
		Question:   question,
		Answer:     answer,
		ProductIDs: append([]string(nil), productIDs...),
		CreatedAt:  m.now(),
	}
	m.turns[userID] = append(m.turns[userID], turn)
	return turn, nil
}

// ListTurns returns turns in insertion order, optionally restricted to the
// most recent limit entries.
func (m *MemoryStore) ListTurns(userID string, limit int) ([]domain.ChatTurn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.turns[userID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	res := make([]domain.ChatTurn, len(all))
	copy(res, all)
	return res, nil
}

// DeleteTurns removes all turns for a user.
func (m *MemoryStore) DeleteTurns(userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := int64(len(m.turns[userID]))
	delete(m.turns, userID)
	return removed, nil
}

// HasTurns reports whether the user has any recorded turn.
func (m *MemoryStore) HasTurns(userID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.turns[userID]) > 0, nil
}
