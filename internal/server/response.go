package server

import (
	"encoding/json"
	"net/http"
)

// Error codes of the JSON error envelope.
const (
	CodeBadRequest  = "BAD_REQUEST"
	CodeInvalidView = "INVALID_VIEW"
	CodeTooLarge    = "TOO_LARGE"
	CodeNotFound    = "NOT_FOUND"
	CodeInternal    = "INTERNAL_ERROR"
	CodeTimeout     = "TIMEOUT"
)

// ErrorEnvelope is the body of every error response.
type ErrorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details,omitempty"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErr(w http.ResponseWriter, status int, code, msg string) {
	writeErrDetails(w, status, code, msg, nil)
}

func writeErrDetails(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	var env ErrorEnvelope
	env.Error.Code = code
	env.Error.Message = msg
	env.Error.Details = details
	writeJSON(w, status, env)
}
