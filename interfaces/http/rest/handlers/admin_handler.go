package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"admin-notes-backend/application/commands"
	"admin-notes-backend/application/commands/bus"
	"admin-notes-backend/application/queries"
	querybus "admin-notes-backend/application/queries/bus"
	"admin-notes-backend/pkg/auth"
	pkgerrors "admin-notes-backend/pkg/errors"

	"go.uber.org/zap"
)

// Ajax and admin-post action names
const (
	ActionAddNote     = "add_admin_note"
	ActionDeleteNote  = "delete_admin_note"
	ActionUpdateNote  = "update_admin_note"
	ActionExportNotes = "export_admin_notes"

	maxFormMemory = 1 << 20
)

// AdminHandler serves the admin page and its form-encoded endpoints
type AdminHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	nonces     *auth.NonceManager
	errHandler *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	nonces *auth.NonceManager,
	errHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		nonces:     nonces,
		errHandler: errHandler,
		logger:     logger,
	}
}

type notesPageData struct {
	Notes       []string
	AjaxURL     string
	PostURL     string
	AddNonce    string
	DeleteNonce string
	UpdateNonce string
	ExportNonce string
}

// NotesPage handles GET /admin/notes
func (h *AdminHandler) NotesPage(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errHandler.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
		return
	}

	result, err := querybus.AskAs[*queries.ListNotesResult](r.Context(), h.queryBus, queries.ListNotesQuery{})
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	data := notesPageData{
		Notes:       result.Notes,
		AjaxURL:     "/admin/ajax",
		PostURL:     "/admin/post",
		AddNonce:    h.nonces.Create(AddNoteNonce.Action, user),
		DeleteNonce: h.nonces.Create(DeleteNoteNonce.Action, user),
		UpdateNonce: h.nonces.Create(UpdateNoteNonce.Action, user),
		ExportNonce: h.nonces.Create(ExportNotesNonce.Action, user),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := notesPage.Execute(w, data); err != nil {
		h.logger.Error("Failed to render notes page", zap.Error(err))
	}
}

// Ajax handles POST /admin/ajax, dispatching on the action field
func (h *AdminHandler) Ajax(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.errHandler.Handle(w, r, pkgerrors.NewValidationError("malformed form body").WithCause(err))
		return
	}

	var err error
	switch action := r.FormValue("action"); action {
	case ActionAddNote:
		err = h.addNote(r)
	case ActionDeleteNote:
		err = h.deleteNote(r)
	case ActionUpdateNote:
		err = h.updateNote(r)
	default:
		err = pkgerrors.NewValidationError("unknown action").
			WithCode(pkgerrors.CodeUnknownAction).
			WithDetails(map[string]interface{}{"action": action})
	}

	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *AdminHandler) addNote(r *http.Request) error {
	if err := verifyNonce(h.nonces, r, AddNoteNonce); err != nil {
		return err
	}

	note, ok := r.PostForm["note"]
	if !ok || len(note) == 0 {
		h.logger.Debug("Add note request without a note field")
		return nil
	}
	return h.commandBus.Send(r.Context(), commands.AddNoteCommand{Text: note[0]})
}

func (h *AdminHandler) deleteNote(r *http.Request) error {
	if err := verifyNonce(h.nonces, r, DeleteNoteNonce); err != nil {
		return err
	}

	index, err := parseIndex(r.PostForm, "index")
	if err != nil {
		return err
	}
	return h.commandBus.Send(r.Context(), commands.DeleteNoteCommand{Index: index})
}

func (h *AdminHandler) updateNote(r *http.Request) error {
	if err := verifyNonce(h.nonces, r, UpdateNoteNonce); err != nil {
		return err
	}

	index, err := parseIndex(r.PostForm, "index")
	if err != nil {
		return err
	}
	note, ok := r.PostForm["note"]
	if !ok || len(note) == 0 {
		h.logger.Debug("Update note request without a note field")
		return nil
	}
	return h.commandBus.Send(r.Context(), commands.UpdateNoteCommand{Index: index, Text: note[0]})
}

// AdminPost handles GET|POST /admin/post. Only the export action is served.
func (h *AdminHandler) AdminPost(w http.ResponseWriter, r *http.Request) {
	if action := r.FormValue("action"); action != ActionExportNotes {
		h.errHandler.Handle(w, r, pkgerrors.NewValidationError("unknown action").
			WithCode(pkgerrors.CodeUnknownAction).
			WithDetails(map[string]interface{}{"action": action}))
		return
	}

	if err := verifyNonce(h.nonces, r, ExportNotesNonce); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	query := queries.ExportNotesQuery{Format: r.FormValue("format")}
	result, err := querybus.AskAs[*queries.ExportNotesResult](r.Context(), h.queryBus, query)
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	if err := writeAttachment(w, result); err != nil {
		h.logger.Warn("Export download interrupted", zap.Error(err))
	}
}

var notesPage = template.Must(template.New("notes").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Admin Notes</title>
<style>
	.admin-notes-container {
		background: #fff;
		padding: 20px;
		border-radius: 8px;
		box-shadow: 0 4px 8px rgba(0,0,0,0.1);
		max-width: 800px;
	}
	.admin-notes-list li {
		padding: 10px;
		margin-bottom: 8px;
		background: #f7f7f7;
		border-left: 5px solid #0073aa;
		display: flex;
		justify-content: space-between;
	}
	.admin-notes-export-btn, .admin-notes-add-btn {
		background: #0073aa;
		color: #fff;
		padding: 10px 15px;
		border: none;
		border-radius: 4px;
		cursor: pointer;
	}
	.admin-notes-export-btn:hover, .admin-notes-add-btn:hover {
		background: #005177;
	}
	.admin-notes-delete-btn {
		background: red;
		color: white;
		border: none;
		padding: 5px 10px;
		cursor: pointer;
	}
</style>
</head>
<body>
<div class="wrap admin-notes-container">
	<h1>WP Auto Admin Notes</h1>
	<input type="text" id="admin-note-input" placeholder="Enter a new note" style="width: 70%; padding: 5px;">
	<button class="admin-notes-add-btn" onclick="addAdminNote()">Add Note</button>
	<ul class="admin-notes-list" id="admin-notes-list">
	{{- range $index, $note := .Notes}}
		<li>{{$note}} <span>
			<button class="admin-notes-edit-btn" onclick="updateAdminNote({{$index}})">Edit</button>
			<button class="admin-notes-delete-btn" onclick="deleteAdminNote({{$index}})">Delete</button>
		</span></li>
	{{- else}}
		<li>No notes available.</li>
	{{- end}}
	</ul>
	<form method="post" action="{{.PostURL}}">
		<input type="hidden" name="export_admin_notes_nonce" value="{{.ExportNonce}}">
		<input type="hidden" name="action" value="export_admin_notes">
		<select name="format">
			<option value="csv">CSV</option>
			<option value="xlsx">Excel</option>
		</select>
		<button type="submit" class="admin-notes-export-btn">Export Notes</button>
	</form>
</div>

<script>
	var ajaxurl = {{.AjaxURL}};

	function postAction(fields) {
		var data = new FormData();
		Object.keys(fields).forEach(function (key) { data.append(key, fields[key]); });
		return fetch(ajaxurl, { method: 'POST', body: data, credentials: 'same-origin' })
			.then(response => response.text())
			.then(() => location.reload());
	}

	function addAdminNote() {
		var note = document.getElementById('admin-note-input').value;
		if (note) {
			postAction({ action: 'add_admin_note', note: note, add_admin_note_nonce: {{.AddNonce}} });
		}
	}

	function deleteAdminNote(index) {
		postAction({ action: 'delete_admin_note', index: index, delete_admin_note_nonce: {{.DeleteNonce}} });
	}

	function updateAdminNote(index) {
		var note = window.prompt('Edit note');
		if (note) {
			postAction({ action: 'update_admin_note', index: index, note: note, update_admin_note_nonce: {{.UpdateNonce}} });
		}
	}
</script>
</body>
</html>
`))
