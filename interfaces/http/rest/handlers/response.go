package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"admin-notes-backend/application/queries"
	pkgerrors "admin-notes-backend/pkg/errors"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeAttachment sends an export as a file download
func writeAttachment(w http.ResponseWriter, export *queries.ExportNotesResult) error {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(export.Data)
	return err
}

// parseIndex reads a note index. A missing value is -1, which never matches
// a note; a value that is not an integer is a validation error.
func parseIndex(values url.Values, key string) (int, error) {
	raw, ok := values[key]
	if !ok || len(raw) == 0 {
		return -1, nil
	}
	return parseIndexValue(raw[0])
}

func parseIndexValue(raw string) (int, error) {
	index, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, pkgerrors.NewValidationError("index must be an integer").
			WithCode(pkgerrors.CodeInvalidIndex).
			WithDetails(map[string]interface{}{"index": raw})
	}
	return index, nil
}
