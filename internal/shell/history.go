package shell

import "github.com/franckalain/nutrilens/internal/models"

// MaxHistory is the number of past analyses a session keeps.
const MaxHistory = 20

// History is a most-recent-first list of past analyses with a fixed cap.
// It is not safe for concurrent use; Shell guards it.
type History struct {
	entries []models.HistoryEntry
	limit   int
}

// NewHistory creates an empty history holding at most limit entries.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = MaxHistory
	}
	return &History{limit: limit}
}

// Prepend adds e as the newest entry and evicts the oldest beyond the cap.
func (h *History) Prepend(e models.HistoryEntry) {
	entries := make([]models.HistoryEntry, 0, min(len(h.entries)+1, h.limit))
	entries = append(entries, e)
	for _, old := range h.entries {
		if len(entries) == h.limit {
			break
		}
		entries = append(entries, old)
	}
	h.entries = entries
}

// Get returns the entry with the given id.
func (h *History) Get(id string) (models.HistoryEntry, bool) {
	for _, e := range h.entries {
		if e.ID == id {
			return e, true
		}
	}
	return models.HistoryEntry{}, false
}

// Entries returns a copy of the entries, newest first.
func (h *History) Entries() []models.HistoryEntry {
	out := make([]models.HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *History) Len() int {
	return len(h.entries)
}

func (h *History) Clear() {
	h.entries = nil
}
