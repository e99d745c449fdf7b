package main

import "github.com/modelcontextprotocol/go-sdk/mcp"

type (
	// ListInput contains parameters for listing notes.
	ListInput struct{}

	// NoteEntry is a note together with its current index.
	NoteEntry struct {
		Index int    `json:"index"`
		Note  string `json:"note"`
	}

	// ListOutput contains the stored notes.
	ListOutput struct {
		Notes []NoteEntry `json:"notes"`
		Count int         `json:"count"`
	}

	// AddInput contains parameters for appending a note.
	AddInput struct {
		Note string `json:"note" jsonschema:"Plain text of the note. HTML is stripped."`
	}

	// DeleteInput contains parameters for deleting a note.
	DeleteInput struct {
		Index int `json:"index" jsonschema:"Zero-based index of the note to delete"`
	}

	// UpdateInput contains parameters for replacing a note.
	UpdateInput struct {
		Index int    `json:"index" jsonschema:"Zero-based index of the note to replace"`
		Note  string `json:"note" jsonschema:"New plain text of the note"`
	}

	// MutationOutput reports the collection after a change.
	MutationOutput struct {
		Success bool `json:"success"`
		Count   int  `json:"count"`
	}

	// ExportInput contains parameters for exporting notes.
	ExportInput struct {
		Format string `json:"format,omitempty" jsonschema:"Export format, csv or xlsx (default: csv)"`
	}

	// ExportOutput contains a rendered export.
	ExportOutput struct {
		FileName    string `json:"fileName"`
		ContentType string `json:"contentType"`
		Encoding    string `json:"encoding"`
		Content     string `json:"content"`
	}
)

func registerTools(server *mcp.Server, tools *noteTools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_notes",
		Description: "List every admin note in order with its zero-based index. Indexes shift down after a delete.",
	}, tools.handleList)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_note",
		Description: "Append a note to the end of the collection.",
	}, tools.handleAdd)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_note",
		Description: "Delete the note at index. An index outside the collection leaves it unchanged.",
	}, tools.handleDelete)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_note",
		Description: "Replace the text of the note at index. Fails when no note exists at index.",
	}, tools.handleUpdate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "export_notes",
		Description: "Export all notes, one per row. CSV is returned as text, XLSX as base64.",
	}, tools.handleExport)
}
