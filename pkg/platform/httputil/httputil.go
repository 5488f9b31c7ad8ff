// Package httputil centralizes JSON encoding and domain error translation so
// handler packages stay thin.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	derrors "aurum/pkg/platform/errs"
)

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Decode parses the request body into v. Returns false after writing the
// error response.
func Decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		WriteError(w, derrors.New(derrors.CodeInvalidInput, "malformed request body"))
		return false
	}
	return true
}

// WriteError maps a domain error code onto an HTTP status and writes the
// standard error envelope. Internal errors omit the description so storage
// details never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := derrors.CodeOf(err)
	status := statusOf(code)

	body := map[string]string{"error": string(code)}
	if status != http.StatusInternalServerError {
		var de *derrors.Error
		if errors.As(err, &de) {
			body["error_description"] = de.Message
		}
	}
	WriteJSON(w, status, body)
}

func statusOf(code derrors.Code) int {
	switch code {
	case derrors.CodeInvalidInput:
		return http.StatusBadRequest
	case derrors.CodeNotFound:
		return http.StatusNotFound
	case derrors.CodeConflict, derrors.CodeInvalidState, derrors.CodeCapExceeded:
		return http.StatusConflict
	case derrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case derrors.CodeNotVerified, derrors.CodePaused, derrors.CodeFrozen,
		derrors.CodeInsufficientBalance, derrors.CodeComplianceRejected:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
