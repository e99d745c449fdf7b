package handlers

import (
	"context"

	"admin-notes-backend/application/commands"
	"admin-notes-backend/application/commands/bus"
	"admin-notes-backend/application/services"
	"admin-notes-backend/pkg/errors"

	"go.uber.org/zap"
)

// NotesCommandHandler executes note commands against the notes service
type NotesCommandHandler struct {
	service *services.NotesService
	logger  *zap.Logger
}

// NewNotesCommandHandler creates a new notes command handler
func NewNotesCommandHandler(service *services.NotesService, logger *zap.Logger) *NotesCommandHandler {
	return &NotesCommandHandler{
		service: service,
		logger:  logger,
	}
}

// Register binds every note command to this handler
func (h *NotesCommandHandler) Register(b *bus.CommandBus) error {
	if err := bus.Handle(b, h.handleAdd); err != nil {
		return err
	}
	if err := bus.Handle(b, h.handleDelete); err != nil {
		return err
	}
	if err := bus.Handle(b, h.handleUpdate); err != nil {
		return err
	}
	return bus.Handle(b, h.handleEnsureDefaults)
}

func (h *NotesCommandHandler) handleAdd(ctx context.Context, cmd commands.AddNoteCommand) error {
	_, err := h.service.Append(ctx, cmd.Text)
	return err
}

func (h *NotesCommandHandler) handleDelete(ctx context.Context, cmd commands.DeleteNoteCommand) error {
	removed, err := h.service.Delete(ctx, cmd.Index)
	if err != nil {
		return err
	}
	if !removed {
		h.logger.Debug("Delete ignored, index out of range", zap.Int("index", cmd.Index))
	}
	return nil
}

func (h *NotesCommandHandler) handleUpdate(ctx context.Context, cmd commands.UpdateNoteCommand) error {
	updated, err := h.service.Update(ctx, cmd.Index, cmd.Text)
	if err != nil {
		return err
	}
	if !updated && cmd.Strict {
		return errors.NewNotFoundError("note").WithCode(errors.CodeNoteNotFound).WithDetails(map[string]interface{}{"index": cmd.Index})
	}
	return nil
}

func (h *NotesCommandHandler) handleEnsureDefaults(ctx context.Context, _ commands.EnsureDefaultsCommand) error {
	_, err := h.service.EnsureDefaults(ctx)
	return err
}
