package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/vrsandeep/jobrelay/internal/models"
)

func (s *Server) handlePublishStatus(w http.ResponseWriter, r *http.Request) {
	var payload models.StatusUpdate
	if err := decodeBody(r, &payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	result, err := s.relay.PublishStatus(payload)
	if err != nil {
		respondWithRelayError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, result)
}

func (s *Server) handlePublishCompletion(w http.ResponseWriter, r *http.Request) {
	var payload models.CompletionUpdate
	if err := decodeBody(r, &payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	result, err := s.relay.PublishCompletion(payload)
	if err != nil {
		respondWithRelayError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, s.relay.Health())
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.relay.ListActiveJobs()
	RespondWithJSON(w, http.StatusOK, models.JobList{Count: len(jobs), Jobs: jobs})
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"version": s.app.Version()})
}

// decodeBody treats an empty body as an empty object so the relay can
// report which field is missing.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
