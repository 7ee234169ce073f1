// Helper functions for sending standardized JSON responses.

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/vrsandeep/jobrelay/internal/relay"
)

// RespondWithJSON writes a JSON response with the given status code and payload.
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		// If marshaling fails, return an error response
		RespondWithError(w, http.StatusInternalServerError, "Failed to marshal response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// RespondWithError writes a standardized JSON error response.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithRelayError maps errors returned by the relay to a status code.
// Validation failures keep their message; anything else is a 500.
func respondWithRelayError(w http.ResponseWriter, err error) {
	var reqErr *relay.RequestError
	if errors.As(err, &reqErr) {
		RespondWithError(w, http.StatusBadRequest, reqErr.Message)
		return
	}
	log.Printf("Relay error: %v", err)
	RespondWithError(w, http.StatusInternalServerError, "Failed to relay update")
}
