package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/inboxops/relay/logger"
	"github.com/inboxops/relay/model"
	"go.uber.org/zap"
)

func (s *Server) HandleSaveWorkflow(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var wf model.Workflow
	if err := json.NewDecoder(r.Body).Decode(&wf); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid workflow body")
		return
	}
	defer r.Body.Close()
	wf.OrgId = vars["org"]
	saved, err := s.metadataService.SaveWorkflow(wf)
	if err != nil {
		logger.Error("error saving workflow", zap.String("org", wf.OrgId), zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, saved)
}

func (s *Server) HandleListWorkflows(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	workflows, err := s.metadataService.ListWorkflows(vars["org"])
	if err != nil {
		logger.Error("error listing workflows", zap.String("org", vars["org"]), zap.Error(err))
		respondServiceError(w, err)
		return
	}
	if workflows == nil {
		workflows = []model.Workflow{}
	}
	respondWithJSON(w, http.StatusOK, workflows)
}

func (s *Server) HandleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	wf, err := s.metadataService.GetWorkflow(vars["org"], vars["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, wf)
}

func (s *Server) HandleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	err := s.metadataService.DeleteWorkflow(vars["org"], vars["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondOK(w, map[string]any{"deleted": true})
}
