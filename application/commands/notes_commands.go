package commands

import (
	"admin-notes-backend/pkg/errors"
	"admin-notes-backend/pkg/utils"
)

// AddNoteCommand appends a note to the collection
type AddNoteCommand struct {
	Text string `json:"note"`
}

// Validate validates the AddNoteCommand
func (c AddNoteCommand) Validate() error {
	return validate(c)
}

// DeleteNoteCommand removes the note at Index. Indexes outside the collection
// leave it unchanged.
type DeleteNoteCommand struct {
	Index int `json:"index"`
}

// Validate validates the DeleteNoteCommand
func (c DeleteNoteCommand) Validate() error {
	return validate(c)
}

// UpdateNoteCommand replaces the note at Index.
type UpdateNoteCommand struct {
	Index int    `json:"index"`
	Text  string `json:"note"`
	// Strict turns an out-of-range index into a not-found error instead of a no-op.
	Strict bool `json:"-"`
}

// Validate validates the UpdateNoteCommand
func (c UpdateNoteCommand) Validate() error {
	if c.Strict && c.Index < 0 {
		return errors.NewValidationError("index must be a non-negative integer")
	}
	return validate(c)
}

// EnsureDefaultsCommand seeds the default notes when the collection is empty
type EnsureDefaultsCommand struct{}

// Validate validates the EnsureDefaultsCommand
func (c EnsureDefaultsCommand) Validate() error {
	return nil
}

func validate(cmd interface{}) error {
	if err := utils.ValidateStruct(cmd); err != nil {
		return errors.NewValidationError(err.Error())
	}
	return nil
}
