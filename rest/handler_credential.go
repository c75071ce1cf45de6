package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/inboxops/relay/logger"
	"github.com/inboxops/relay/model"
	"go.uber.org/zap"
)

func (s *Server) HandleSaveCredential(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var secrets map[string]any
	if err := json.NewDecoder(r.Body).Decode(&secrets); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid credential body")
		return
	}
	defer r.Body.Close()
	err := s.credentialService.Save(vars["org"], vars["integration"], secrets)
	if err != nil {
		logger.Error("error saving credential", zap.String("org", vars["org"]), zap.String("integration", vars["integration"]), zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondOK(w, map[string]any{"configured": true, "integration": vars["integration"]})
}

// HandleListCredentials exposes configured flags only, never secret material.
func (s *Server) HandleListCredentials(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	statuses, err := s.credentialService.ListStatus(vars["org"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if statuses == nil {
		statuses = []model.CredentialStatus{}
	}
	respondWithJSON(w, http.StatusOK, statuses)
}
