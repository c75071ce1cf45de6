package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	api_v1 "github.com/inboxops/relay/api/v1"
	"github.com/inboxops/relay/logger"
	"github.com/inboxops/relay/metadata"
	"github.com/inboxops/relay/persistence"
	"github.com/inboxops/relay/service"
	"go.uber.org/zap"
)

type Server struct {
	http.Server
	Port              int
	metadataService   metadata.MetadataService
	executionService  *service.WorkflowExecutionService
	credentialService *service.CredentialService
}

func NewServer(httpPort int, metadataService metadata.MetadataService,
	executionService *service.WorkflowExecutionService,
	credentialService *service.CredentialService) (*Server, error) {

	s := &Server{
		Server: http.Server{
			Addr:        fmt.Sprintf(":%d", httpPort),
			IdleTimeout: 2 * time.Second,
		},
		Port:              httpPort,
		metadataService:   metadataService,
		executionService:  executionService,
		credentialService: credentialService,
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/v1/orgs/{org}/workflows", s.HandleSaveWorkflow).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/orgs/{org}/workflows", s.HandleListWorkflows).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/orgs/{org}/workflows/{id}", s.HandleGetWorkflow).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/orgs/{org}/workflows/{id}", s.HandleDeleteWorkflow).Methods(http.MethodDelete)

	router.HandleFunc("/api/v1/orgs/{org}/executions", s.HandleStartRun).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/orgs/{org}/executions", s.HandleListRuns).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/orgs/{org}/executions/{id}", s.HandleGetRun).Methods(http.MethodGet)

	router.HandleFunc("/api/v1/orgs/{org}/credentials/{integration}", s.HandleSaveCredential).Methods(http.MethodPut)
	router.HandleFunc("/api/v1/orgs/{org}/credentials", s.HandleListCredentials).Methods(http.MethodGet)

	router.HandleFunc("/webhooks/{webhookId}", s.HandleWebhook).Methods(http.MethodPost)

	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

func (s *Server) Start() error {
	logger.Info("starting http server on", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	logger.Info("stopping http server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := s.Shutdown(ctx)
	if err != nil {
		logger.Error("error shutting down http server")
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.RequestURI)
		next.ServeHTTP(w, r)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondOK(w http.ResponseWriter, message map[string]any) {
	respondWithJSON(w, http.StatusOK, message)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondServiceError maps the typed service errors onto HTTP codes: config
// errors are the caller's, storage errors are ours.
func respondServiceError(w http.ResponseWriter, err error) {
	var notFound api_v1.NotFoundError
	var validation api_v1.ValidationError
	var credMissing api_v1.CredentialMissingError
	var storage persistence.StorageLayerError
	switch {
	case errors.As(err, &notFound):
		respondWithError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &validation):
		respondWithError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &credMissing):
		respondWithError(w, http.StatusBadRequest, credMissing.Error())
	case errors.As(err, &storage):
		respondWithError(w, http.StatusInternalServerError, "storage layer error")
	default:
		respondWithError(w, http.StatusInternalServerError, "internal error")
	}
}
