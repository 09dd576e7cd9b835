package display

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"

	"EarningsTicker/internal/model"

	"github.com/rs/zerolog/log"
)

// Board is an in-memory render surface holding the text of every attached slot.
type Board struct {
	mu    sync.RWMutex
	slots map[string]map[model.Slot]string
}

// NewBoard creates an empty Board.
func NewBoard() *Board {
	return &Board{slots: make(map[string]map[model.Slot]string)}
}

// Attach creates the earnings and remaining slots for each id. Existing text is kept.
func (b *Board) Attach(ids ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range ids {
		if _, ok := b.slots[id]; ok {
			continue
		}
		row := make(map[model.Slot]string, len(model.Slots))
		for _, s := range model.Slots {
			row[s] = ""
		}
		b.slots[id] = row
	}
}

// Detach removes the slots of each id.
func (b *Board) Detach(ids ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range ids {
		delete(b.slots, id)
	}
}

// Reset removes every slot.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.slots = make(map[string]map[model.Slot]string)
}

func (b *Board) HasSlot(id string, slot model.Slot) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	row, ok := b.slots[id]
	if !ok {
		return false
	}
	_, ok = row[slot]
	return ok
}

// Render writes text into a slot. Writes to unknown slots are dropped.
func (b *Board) Render(id string, slot model.Slot, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	row, ok := b.slots[id]
	if !ok {
		return
	}
	if _, ok := row[slot]; !ok {
		return
	}
	row[slot] = text
}

// Read returns the text currently shown in a slot.
func (b *Board) Read(id string, slot model.Slot) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	row, ok := b.slots[id]
	if !ok {
		return "", false
	}
	text, ok := row[slot]
	return text, ok
}

// Row is one investment's rendered values.
type Row struct {
	ID        string `json:"id"`
	Earnings  string `json:"earnings"`
	Remaining string `json:"remaining"`
}

// Snapshot returns all rows ordered by id.
func (b *Board) Snapshot() []Row {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rows := make([]Row, 0, len(b.slots))
	for id, row := range b.slots {
		rows = append(rows, Row{ID: id, Earnings: row[model.SlotEarnings], Remaining: row[model.SlotRemaining]})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}

// ServeHTTP writes the board snapshot as JSON.
func (b *Board) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(b.Snapshot()); err != nil {
		log.Error().Err(err).Msg("encode board")
	}
}
