package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// RespondJSON writes payload as JSON with the given status.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// RespondError writes an {"error": message} body.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondErrorDetails(w, status, message, "")
}

// RespondErrorDetails writes an {"error": message, "details": details} body; empty details are omitted.
func RespondErrorDetails(w http.ResponseWriter, status int, message, details string) {
	body := map[string]string{"error": message}
	if details != "" {
		body["details"] = details
	}
	RespondJSON(w, status, body)
}
