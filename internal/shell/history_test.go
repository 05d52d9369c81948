package shell

import (
	"strconv"
	"testing"

	"github.com/franckalain/nutrilens/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestHistoryPrependCaps(t *testing.T) {
	h := NewHistory(3)
	for i := 1; i <= 5; i++ {
		h.Prepend(models.HistoryEntry{ID: strconv.Itoa(i)})
	}

	assert.Equal(t, 3, h.Len())
	ids := []string{}
	for _, e := range h.Entries() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"5", "4", "3"}, ids)

	_, ok := h.Get("1")
	assert.False(t, ok, "evicted")
	e, ok := h.Get("4")
	assert.True(t, ok)
	assert.Equal(t, "4", e.ID)
}

func TestHistoryEntriesIsACopy(t *testing.T) {
	h := NewHistory(0)
	h.Prepend(models.HistoryEntry{ID: "a"})

	entries := h.Entries()
	entries[0].ID = "changed"
	_, ok := h.Get("a")
	assert.True(t, ok)
}

func TestHistoryClear(t *testing.T) {
	h := NewHistory(MaxHistory)
	h.Prepend(models.HistoryEntry{ID: "a"})
	h.Clear()
	assert.Zero(t, h.Len())
	assert.Empty(t, h.Entries())
}
