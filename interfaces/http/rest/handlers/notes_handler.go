package handlers

import (
	"encoding/json"
	"net/http"

	"admin-notes-backend/application/commands"
	"admin-notes-backend/application/commands/bus"
	"admin-notes-backend/application/queries"
	querybus "admin-notes-backend/application/queries/bus"
	"admin-notes-backend/pkg/auth"
	pkgerrors "admin-notes-backend/pkg/errors"
	"admin-notes-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// NotesHandler serves the JSON notes API
type NotesHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	nonces     *auth.NonceManager
	errHandler *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewNotesHandler creates a new notes API handler
func NewNotesHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	nonces *auth.NonceManager,
	errHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *NotesHandler {
	return &NotesHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		nonces:     nonces,
		errHandler: errHandler,
		logger:     logger,
	}
}

// NoteRequest represents the request body for creating or updating a note
type NoteRequest struct {
	Note *string `json:"note" validate:"required"`
}

// ListNotes handles GET /api/v2/notes
func (h *NotesHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, http.StatusOK)
}

// CreateNote handles POST /api/v2/notes
func (h *NotesHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	if err := verifyNonce(h.nonces, r, AddNoteNonce); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	req, err := decodeNoteRequest(w, r)
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	if err := h.commandBus.Send(r.Context(), commands.AddNoteCommand{Text: *req.Note}); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	h.respondList(w, r, http.StatusCreated)
}

// UpdateNote handles PUT /api/v2/notes/{index}
func (h *NotesHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	if err := verifyNonce(h.nonces, r, UpdateNoteNonce); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	index, err := parseIndexValue(chi.URLParam(r, "index"))
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	req, err := decodeNoteRequest(w, r)
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	cmd := commands.UpdateNoteCommand{Index: index, Text: *req.Note, Strict: true}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	h.respondList(w, r, http.StatusOK)
}

// DeleteNote handles DELETE /api/v2/notes/{index}. Deleting an index outside
// the collection succeeds without changing it.
func (h *NotesHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := verifyNonce(h.nonces, r, DeleteNoteNonce); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	index, err := parseIndexValue(chi.URLParam(r, "index"))
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	if err := h.commandBus.Send(r.Context(), commands.DeleteNoteCommand{Index: index}); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportNotes handles GET /api/v2/notes/export
func (h *NotesHandler) ExportNotes(w http.ResponseWriter, r *http.Request) {
	if err := verifyNonce(h.nonces, r, ExportNotesNonce); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	query := queries.ExportNotesQuery{Format: r.URL.Query().Get("format")}
	result, err := querybus.AskAs[*queries.ExportNotesResult](r.Context(), h.queryBus, query)
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	if err := writeAttachment(w, result); err != nil {
		h.logger.Warn("Export download interrupted", zap.Error(err))
	}
}

// Nonces handles GET /api/v2/nonces
func (h *NotesHandler) Nonces(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errHandler.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
		return
	}
	respondJSON(w, http.StatusOK, issueNonces(h.nonces, user))
}

func (h *NotesHandler) respondList(w http.ResponseWriter, r *http.Request, status int) {
	result, err := h.queryBus.Ask(r.Context(), queries.ListNotesQuery{})
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	respondJSON(w, status, result)
}

func decodeNoteRequest(w http.ResponseWriter, r *http.Request) (*NoteRequest, error) {
	var req NoteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		return nil, pkgerrors.NewValidationError("invalid request body").WithCause(err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	return &req, nil
}
