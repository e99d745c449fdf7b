package handlers

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"admin-notes-backend/application/queries"
	"admin-notes-backend/application/queries/bus"
	"admin-notes-backend/application/services"
	"admin-notes-backend/pkg/errors"

	"go.uber.org/zap"
)

// NotesQueryHandler answers note queries from the notes service
type NotesQueryHandler struct {
	service *services.NotesService
	logger  *zap.Logger
	now     func() time.Time
}

// NewNotesQueryHandler creates a new notes query handler
func NewNotesQueryHandler(service *services.NotesService, logger *zap.Logger) *NotesQueryHandler {
	return &NotesQueryHandler{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
}

// Register binds every note query to this handler
func (h *NotesQueryHandler) Register(b *bus.QueryBus) error {
	if err := b.Register(queries.ListNotesQuery{}, bus.QueryHandlerFunc(h.handleList)); err != nil {
		return err
	}
	return b.Register(queries.ExportNotesQuery{}, bus.QueryHandlerFunc(h.handleExport))
}

func (h *NotesQueryHandler) handleList(ctx context.Context, q bus.Query) (interface{}, error) {
	if _, ok := q.(queries.ListNotesQuery); !ok {
		return nil, unexpected(q)
	}

	list, err := h.service.List(ctx)
	if err != nil {
		return nil, err
	}
	return &queries.ListNotesResult{
		Notes: list,
		Count: len(list),
	}, nil
}

func (h *NotesQueryHandler) handleExport(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.ExportNotesQuery)
	if !ok {
		return nil, unexpected(q)
	}

	format, err := services.ParseExportFormat(query.Format)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := h.service.Export(ctx, format, &buf); err != nil {
		return nil, err
	}

	result := &queries.ExportNotesResult{
		Data:        buf.Bytes(),
		ContentType: format.ContentType(),
		FileName:    format.FileName(h.now().Format("2006-01-02")),
	}
	h.logger.Info("Notes exported",
		zap.String("format", string(format)),
		zap.Int("bytes", len(result.Data)),
	)
	return result, nil
}

func unexpected(q bus.Query) error {
	return errors.NewInternalError(fmt.Sprintf("unexpected query type %T", q))
}
