package api

import (
	"encoding/json"
	"net/http"
)

// Fixed client-facing error messages.
const (
	msgUnauthorized     = "Unauthorized"
	msgInvalidPlantID   = "Invalid plant ID (1-5 only)"
	msgInternalError    = "Internal Server Error"
	msgNotFound         = "Not Found"
	msgMethodNotAllowed = "Method Not Allowed"
)

// Error is the body of every non-2xx response.
type Error struct {
	Error string `json:"error"`
}

// internalErrorBody is pre-encoded so the fallback path cannot fail.
var internalErrorBody = []byte(`{"error":"` + msgInternalError + `"}` + "\n")

// writeJSON encodes v and writes it with the given status code. Nothing is
// written until encoding has succeeded; if it fails the client gets the
// generic 500 body and the encoding error is returned for the caller to log.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")

	body, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(internalErrorBody) //nolint:errcheck // Best-effort write; connection may be closed
		return err
	}

	w.WriteHeader(status)
	w.Write(append(body, '\n')) //nolint:errcheck // Best-effort write; connection may be closed
	return nil
}

// writeError writes {"error": message}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Error{Error: message}) //nolint:errcheck // Error always encodes
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, message)
}

func writeUnauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, msgUnauthorized)
}

func writeInternalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, msgInternalError)
}
