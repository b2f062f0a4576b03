package history

import "github.com/weiawesome/lobby-chat/internal/domain"

// capped is an in-memory FIFO log that never holds more than max entries.
type capped struct {
	max     int
	entries []domain.ChatMessage
}

func newCapped(max int) *capped {
	return &capped{max: max}
}

func (c *capped) reset(entries []domain.ChatMessage) {
	c.entries = append([]domain.ChatMessage(nil), entries...)
	c.trim()
}

func (c *capped) append(msg domain.ChatMessage) {
	c.entries = append(c.entries, msg)
	c.trim()
}

func (c *capped) trim() {
	if over := len(c.entries) - c.max; over > 0 {
		// Copy so the dropped prefix is not pinned by the backing array.
		c.entries = append([]domain.ChatMessage(nil), c.entries[over:]...)
	}
}

func (c *capped) recent(limit int) []domain.ChatMessage {
	if limit <= 0 {
		return []domain.ChatMessage{}
	}
	if limit > len(c.entries) {
		limit = len(c.entries)
	}
	out := make([]domain.ChatMessage, limit)
	copy(out, c.entries[len(c.entries)-limit:])
	return out
}

func (c *capped) len() int {
	return len(c.entries)
}
