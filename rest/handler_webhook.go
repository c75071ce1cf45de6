package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	api_v1 "github.com/inboxops/relay/api/v1"
	"github.com/inboxops/relay/logger"
	"go.uber.org/zap"
)

// HandleWebhook acknowledges the delivery as soon as the run is on the queue;
// the response never waits for step execution. A body that is not JSON (or a
// JSON body that fails to parse) degrades to an empty payload instead of
// rejecting the delivery.
func (s *Server) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	webhookId := vars["webhookId"]
	payload := map[string]any{}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			logger.Debug("ignoring unparseable webhook body", zap.String("webhookId", webhookId), zap.Error(err))
			payload = map[string]any{}
		}
	}
	defer r.Body.Close()
	runId, err := s.executionService.StartWebhookRun(webhookId, payload)
	if err != nil {
		var notFound api_v1.NotFoundError
		if errors.As(err, &notFound) {
			logger.Info("webhook for unknown or inactive workflow", zap.String("webhookId", webhookId))
			respondWithError(w, http.StatusNotFound, "webhook not found")
			return
		}
		logger.Error("error enqueueing webhook run", zap.String("webhookId", webhookId), zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondOK(w, map[string]any{
		"success": true,
		"runId":   runId,
	})
}
