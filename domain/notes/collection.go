// Package notes holds the admin notes collection: an ordered list of plain-text
// strings addressed only by their zero-based position.
package notes

// Default welcome notes seeded into an empty collection.
const (
	WelcomeNote = "Welcome to WP Auto Admin Notes!"
	SampleNote  = "This is a sample note. New notes will appear automatically."
)

// DefaultNotes returns the notes seeded on first run.
func DefaultNotes() []string {
	return []string{WelcomeNote, SampleNote}
}

// Collection is an immutable ordered sequence of notes. Indices are dense and
// zero-based; removing an entry shifts every later entry down by one.
type Collection struct {
	notes []string
}

// NewCollection creates a collection holding a copy of notes.
func NewCollection(notes []string) Collection {
	return Collection{notes: clone(notes)}
}

// Notes returns a copy of the notes in stored order.
func (c Collection) Notes() []string {
	return clone(c.notes)
}

// Len returns the number of notes.
func (c Collection) Len() int {
	return len(c.notes)
}

// IsEmpty reports whether the collection holds no notes.
func (c Collection) IsEmpty() bool {
	return len(c.notes) == 0
}

// InRange reports whether index addresses an existing note.
func (c Collection) InRange(index int) bool {
	return index >= 0 && index < len(c.notes)
}

// At returns the note at index.
func (c Collection) At(index int) (string, bool) {
	if !c.InRange(index) {
		return "", false
	}
	return c.notes[index], true
}

// Append returns a collection with text added at the end.
func (c Collection) Append(text string) Collection {
	next := make([]string, len(c.notes), len(c.notes)+1)
	copy(next, c.notes)
	return Collection{notes: append(next, text)}
}

// Delete returns a collection without the note at index. Out-of-range indices
// leave the collection unchanged and report false.
func (c Collection) Delete(index int) (Collection, bool) {
	if !c.InRange(index) {
		return c, false
	}
	next := make([]string, 0, len(c.notes)-1)
	next = append(next, c.notes[:index]...)
	next = append(next, c.notes[index+1:]...)
	return Collection{notes: next}, true
}

// Update returns a collection with the note at index replaced by text.
// Out-of-range indices leave the collection unchanged and report false.
func (c Collection) Update(index int, text string) (Collection, bool) {
	if !c.InRange(index) {
		return c, false
	}
	next := clone(c.notes)
	next[index] = text
	return Collection{notes: next}, true
}

// WithDefaults seeds an empty collection with DefaultNotes. A non-empty
// collection is returned unchanged and reports false.
func (c Collection) WithDefaults() (Collection, bool) {
	if !c.IsEmpty() {
		return c, false
	}
	return Collection{notes: DefaultNotes()}, true
}

// Equals compares two collections element by element.
func (c Collection) Equals(other Collection) bool {
	if len(c.notes) != len(other.notes) {
		return false
	}
	for i := range c.notes {
		if c.notes[i] != other.notes[i] {
			return false
		}
	}
	return true
}

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
