package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"admin-notes-backend/application/commands"
	"admin-notes-backend/application/commands/bus"
	"admin-notes-backend/application/queries"
	querybus "admin-notes-backend/application/queries/bus"
	pkgerrors "admin-notes-backend/pkg/errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

type noteTools struct {
	commands *bus.CommandBus
	queries  *querybus.QueryBus
	logger   *zap.Logger
}

func newNoteTools(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, logger *zap.Logger) *noteTools {
	return &noteTools{
		commands: commandBus,
		queries:  queryBus,
		logger:   logger.Named("mcp"),
	}
}

func (t *noteTools) handleList(ctx context.Context, req *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, ListOutput, error) {
	result, err := t.list(ctx)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, ListOutput{}, toolError(err)
	}

	entries := make([]NoteEntry, len(result.Notes))
	for i, note := range result.Notes {
		entries[i] = NoteEntry{Index: i, Note: note}
	}
	return nil, ListOutput{Notes: entries, Count: result.Count}, nil
}

func (t *noteTools) handleAdd(ctx context.Context, req *mcp.CallToolRequest, input AddInput) (*mcp.CallToolResult, MutationOutput, error) {
	return t.mutate(ctx, commands.AddNoteCommand{Text: input.Note})
}

func (t *noteTools) handleDelete(ctx context.Context, req *mcp.CallToolRequest, input DeleteInput) (*mcp.CallToolResult, MutationOutput, error) {
	return t.mutate(ctx, commands.DeleteNoteCommand{Index: input.Index})
}

func (t *noteTools) handleUpdate(ctx context.Context, req *mcp.CallToolRequest, input UpdateInput) (*mcp.CallToolResult, MutationOutput, error) {
	return t.mutate(ctx, commands.UpdateNoteCommand{
		Index:  input.Index,
		Text:   input.Note,
		Strict: true,
	})
}

func (t *noteTools) handleExport(ctx context.Context, req *mcp.CallToolRequest, input ExportInput) (*mcp.CallToolResult, ExportOutput, error) {
	query := queries.ExportNotesQuery{Format: strings.TrimSpace(input.Format)}
	result, err := querybus.AskAs[*queries.ExportNotesResult](ctx, t.queries, query)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, ExportOutput{}, toolError(err)
	}

	out := ExportOutput{
		FileName:    result.FileName,
		ContentType: result.ContentType,
	}
	if strings.HasPrefix(result.ContentType, "text/") {
		out.Encoding = "text"
		out.Content = string(result.Data)
	} else {
		out.Encoding = "base64"
		out.Content = base64.StdEncoding.EncodeToString(result.Data)
	}
	return nil, out, nil
}

func (t *noteTools) mutate(ctx context.Context, cmd bus.Command) (*mcp.CallToolResult, MutationOutput, error) {
	if err := t.commands.Send(ctx, cmd); err != nil {
		t.logger.Debug("Tool command rejected", zap.Error(err))
		return &mcp.CallToolResult{IsError: true}, MutationOutput{}, toolError(err)
	}

	result, err := t.list(ctx)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, MutationOutput{}, toolError(err)
	}
	return nil, MutationOutput{Success: true, Count: result.Count}, nil
}

func (t *noteTools) list(ctx context.Context) (*queries.ListNotesResult, error) {
	return querybus.AskAs[*queries.ListNotesResult](ctx, t.queries, queries.ListNotesQuery{})
}

// toolError tells the calling agent when repeating the call may succeed
func toolError(err error) error {
	if pkgerrors.IsRetryable(err) {
		return fmt.Errorf("%w (temporary, retry the call)", err)
	}
	return err
}
