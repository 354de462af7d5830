package playlist

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps domain errors to HTTP statuses. Anything without
// a Kind is an internal failure and is logged, not leaked to the client.
func writeServiceError(w http.ResponseWriter, err error) {
	var de *Error
	if errors.As(err, &de) {
		switch de.Kind {
		case KindNotFound:
			writeError(w, http.StatusNotFound, de.Msg)
		case KindForbidden:
			writeError(w, http.StatusForbidden, de.Msg)
		case KindConflict:
			writeError(w, http.StatusConflict, de.Msg)
		case KindInvalid:
			writeError(w, http.StatusBadRequest, de.Msg)
		case KindDependency:
			writeError(w, http.StatusBadGateway, de.Msg)
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	log.Printf("playlist-service: %v", err)
	writeError(w, http.StatusInternalServerError, "database error")
}
