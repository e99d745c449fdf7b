package events

import "time"

// DomainEvent is the base interface for all domain events
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() uint64
}

// BaseEvent provides common event fields. AggregateID is the option name the
// notes are stored under; Version is the stored record version after the write.
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     uint64    `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() uint64      { return e.Version }

const (
	TypeNoteAdded   = "note.added"
	TypeNoteUpdated = "note.updated"
	TypeNoteDeleted = "note.deleted"
	TypeNotesSeeded = "notes.seeded"
)

// NoteAdded is raised when a note is appended
type NoteAdded struct {
	BaseEvent
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// NewNoteAdded creates a NoteAdded event
func NewNoteAdded(option string, version uint64, index int, text string, timestamp time.Time) NoteAdded {
	return NoteAdded{
		BaseEvent: BaseEvent{AggregateID: option, EventType: TypeNoteAdded, Timestamp: timestamp, Version: version},
		Index:     index,
		Text:      text,
	}
}

// NoteUpdated is raised when a note is replaced in place
type NoteUpdated struct {
	BaseEvent
	Index   int    `json:"index"`
	OldText string `json:"old_text"`
	NewText string `json:"new_text"`
}

// NewNoteUpdated creates a NoteUpdated event
func NewNoteUpdated(option string, version uint64, index int, oldText, newText string, timestamp time.Time) NoteUpdated {
	return NoteUpdated{
		BaseEvent: BaseEvent{AggregateID: option, EventType: TypeNoteUpdated, Timestamp: timestamp, Version: version},
		Index:     index,
		OldText:   oldText,
		NewText:   newText,
	}
}

// NoteDeleted is raised when a note is removed. Later indices have shifted down.
type NoteDeleted struct {
	BaseEvent
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// NewNoteDeleted creates a NoteDeleted event
func NewNoteDeleted(option string, version uint64, index int, text string, timestamp time.Time) NoteDeleted {
	return NoteDeleted{
		BaseEvent: BaseEvent{AggregateID: option, EventType: TypeNoteDeleted, Timestamp: timestamp, Version: version},
		Index:     index,
		Text:      text,
	}
}

// NotesSeeded is raised when an empty collection receives the default notes
type NotesSeeded struct {
	BaseEvent
	Count int `json:"count"`
}

// NewNotesSeeded creates a NotesSeeded event
func NewNotesSeeded(option string, version uint64, count int, timestamp time.Time) NotesSeeded {
	return NotesSeeded{
		BaseEvent: BaseEvent{AggregateID: option, EventType: TypeNotesSeeded, Timestamp: timestamp, Version: version},
		Count:     count,
	}
}
