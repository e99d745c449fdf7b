package handlers

import (
	"errors"
	"net/http"

	"admin-notes-backend/pkg/auth"
	pkgerrors "admin-notes-backend/pkg/errors"
)

// NonceHeader carries a nonce for requests without form fields
const NonceHeader = "X-Notes-Nonce"

// NonceAction pairs a nonce action with the form field it is submitted in
type NonceAction struct {
	Action string
	Field  string
}

var (
	AddNoteNonce     = NonceAction{Action: "add_admin_note_action", Field: "add_admin_note_nonce"}
	DeleteNoteNonce  = NonceAction{Action: "delete_admin_note_action", Field: "delete_admin_note_nonce"}
	UpdateNoteNonce  = NonceAction{Action: "update_admin_note_action", Field: "update_admin_note_nonce"}
	ExportNotesNonce = NonceAction{Action: "export_admin_notes_action", Field: "export_admin_notes_nonce"}

	allNonceActions = []NonceAction{AddNoteNonce, DeleteNoteNonce, UpdateNoteNonce, ExportNotesNonce}
)

// verifyNonce checks the nonce for a, taken from its form field or the
// X-Notes-Nonce header. Every failure is a 403.
func verifyNonce(nonces *auth.NonceManager, r *http.Request, a NonceAction) error {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		return pkgerrors.NewUnauthorizedError("")
	}

	nonce := r.FormValue(a.Field)
	if nonce == "" {
		nonce = r.Header.Get(NonceHeader)
	}

	if _, err := nonces.Verify(nonce, a.Action, user); err != nil {
		message := "invalid security token"
		if errors.Is(err, auth.ErrMissingNonce) {
			message = "missing security token"
		}
		return pkgerrors.NewForbiddenError(message).
			WithCode(pkgerrors.CodeInvalidNonce).
			WithDetails(map[string]interface{}{"action": a.Action}).
			WithCause(err)
	}
	return nil
}

// issueNonces returns a nonce for every note action, keyed by action name
func issueNonces(nonces *auth.NonceManager, user *auth.UserContext) map[string]string {
	out := make(map[string]string, len(allNonceActions))
	for _, a := range allNonceActions {
		out[a.Action] = nonces.Create(a.Action, user)
	}
	return out
}
