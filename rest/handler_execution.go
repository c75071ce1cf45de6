package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/inboxops/relay/logger"
	"github.com/inboxops/relay/model"
	"go.uber.org/zap"
)

func (s *Server) HandleStartRun(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var runReq model.WorkflowRunRequest
	if err := json.NewDecoder(r.Body).Decode(&runReq); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid trigger body")
		return
	}
	defer r.Body.Close()
	runId, err := s.executionService.StartRun(vars["org"], runReq.WorkflowId, runReq.TriggerData)
	if err != nil {
		logger.Error("error running workflow", zap.String("workflowId", runReq.WorkflowId), zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondOK(w, map[string]any{
		"success": true,
		"runId":   runId,
		"message": "workflow run started",
	})
}

func (s *Server) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	workflowId := r.URL.Query().Get("automationId")
	runs, err := s.executionService.ListRuns(vars["org"], workflowId, 50)
	if err != nil {
		logger.Error("error listing runs", zap.String("org", vars["org"]), zap.Error(err))
		respondServiceError(w, err)
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	respondWithJSON(w, http.StatusOK, runs)
}

func (s *Server) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	run, stepResults, err := s.executionService.GetRun(vars["org"], vars["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"run":         run,
		"stepResults": stepResults,
	})
}
