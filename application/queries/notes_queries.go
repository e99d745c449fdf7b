package queries

import (
	"admin-notes-backend/application/services"
)

// ListNotesQuery returns every stored note in order
type ListNotesQuery struct{}

// Validate validates the ListNotesQuery
func (q ListNotesQuery) Validate() error {
	return nil
}

// ListNotesResult represents the stored notes
type ListNotesResult struct {
	Notes []string `json:"notes"`
	Count int      `json:"count"`
}

// ExportNotesQuery renders the notes as a downloadable file
type ExportNotesQuery struct {
	// Format is csv or xlsx; empty selects csv.
	Format string
}

// Validate validates the ExportNotesQuery
func (q ExportNotesQuery) Validate() error {
	_, err := services.ParseExportFormat(q.Format)
	return err
}

// ExportNotesResult represents a rendered export
type ExportNotesResult struct {
	Data        []byte
	ContentType string
	FileName    string
}
