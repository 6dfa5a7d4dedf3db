// Package clips holds the ordered list of recorded samples for one session.
package clips

import (
	"fmt"
	"time"
)

// Clip is one recorded sample tagged with the word that was prompted.
type Clip struct {
	ID          int
	Word        string
	Audio       []byte
	ContentType string
	RecordedAt  time.Time
}

// List is the visible clip collection. It is not safe for concurrent use;
// the session controller confines it to its event loop.
type List struct {
	items  []Clip
	nextID int
}

// Append stores a new clip and returns it with its assigned ID.
func (l *List) Append(word string, audio []byte, contentType string, at time.Time) Clip {
	l.nextID++
	clip := Clip{
		ID:          l.nextID,
		Word:        word,
		Audio:       audio,
		ContentType: contentType,
		RecordedAt:  at,
	}
	l.items = append(l.items, clip)
	return clip
}

// Delete removes the clip with id.
func (l *List) Delete(id int) (Clip, error) {
	for i, c := range l.items {
		if c.ID != id {
			continue
		}
		l.items = append(l.items[:i:i], l.items[i+1:]...)
		return c, nil
	}
	return Clip{}, fmt.Errorf("clip %d not found", id)
}

// Labels returns clip words in list order.
func (l *List) Labels() []string {
	out := make([]string, len(l.items))
	for i, c := range l.items {
		out[i] = c.Word
	}
	return out
}

// Snapshot returns a copy of the list in order.
func (l *List) Snapshot() []Clip {
	out := make([]Clip, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of clips held.
func (l *List) Len() int {
	return len(l.items)
}

// Reset drops every clip. IDs keep increasing across resets.
func (l *List) Reset() {
	l.items = nil
}
