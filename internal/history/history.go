package history

import (
	"sync"

	"github.com/ironsheep/image-editor-mcp/internal/imaging"
)

// DefaultLimit is the number of snapshots kept when no limit is configured.
const DefaultLimit = 50

// Entry is one committed snapshot.
type Entry struct {
	Bitmap      *imaging.Bitmap
	Description string
}

// Info describes an entry without exposing its pixels.
type Info struct {
	Index       int    `json:"index"`
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Current     bool   `json:"current"`
}

// Stack is a bounded undo/redo list with a current-position pointer.
//
// Stack is safe for concurrent use by multiple goroutines.
type Stack struct {
	mu      sync.RWMutex
	entries []Entry
	index   int
	limit   int
}

// New creates an empty stack holding at most limit entries. Limits below 1
// are raised to 1.
func New(limit int) *Stack {
	if limit < 1 {
		limit = 1
	}
	return &Stack{index: -1, limit: limit}
}

// Limit returns the maximum number of entries.
func (s *Stack) Limit() int { return s.limit }

// Push appends a snapshot and makes it current.
//
// Entries ahead of the pointer are discarded and released first. If the
// stack then holds more than Limit entries the oldest is evicted and
// released.
func (s *Stack) Push(b *imaging.Bitmap, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index < len(s.entries)-1 {
		for _, e := range s.entries[s.index+1:] {
			if e.Bitmap != b {
				e.Bitmap.Release()
			}
		}
		clear(s.entries[s.index+1:])
		s.entries = s.entries[:s.index+1]
	}

	s.entries = append(s.entries, Entry{Bitmap: b, Description: description})
	s.index = len(s.entries) - 1

	if len(s.entries) > s.limit {
		evicted := s.entries[0]
		s.entries[0] = Entry{}
		s.entries = s.entries[1:]
		s.index--
		if evicted.Bitmap != b {
			evicted.Bitmap.Release()
		}
	}
}

// Undo moves the pointer back one entry and returns it. It returns false
// when already at the oldest entry.
func (s *Stack) Undo() (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index <= 0 {
		return Entry{}, false
	}
	s.index--
	return s.entries[s.index], true
}

// Redo moves the pointer forward one entry and returns it. It returns false
// when already at the newest entry.
func (s *Stack) Redo() (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index >= len(s.entries)-1 {
		return Entry{}, false
	}
	s.index++
	return s.entries[s.index], true
}

// CanUndo reports whether Undo would move the pointer.
func (s *Stack) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index > 0
}

// CanRedo reports whether Redo would move the pointer.
func (s *Stack) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index < len(s.entries)-1
}

// Current returns the entry at the pointer, or false when the stack is empty.
func (s *Stack) Current() (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.index < 0 {
		return Entry{}, false
	}
	return s.entries[s.index], true
}

// At returns the entry at index i without moving the pointer.
func (s *Stack) At(i int) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i < 0 || i >= len(s.entries) {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Len returns the number of entries.
func (s *Stack) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Index returns the pointer position, -1 when empty.
func (s *Stack) Index() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Entries lists every entry oldest first.
func (s *Stack) Entries() []Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]Info, len(s.entries))
	for i, e := range s.entries {
		infos[i] = Info{
			Index:       i,
			Description: e.Description,
			Width:       e.Bitmap.Width(),
			Height:      e.Bitmap.Height(),
			Current:     i == s.index,
		}
	}
	return infos
}

// Clear releases every entry and empties the stack.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		e.Bitmap.Release()
	}
	s.entries = nil
	s.index = -1
}
