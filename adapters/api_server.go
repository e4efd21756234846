package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mqtt-console/application"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

const APIServerShutdownTimeout = 5 * time.Second

type APIServerParams struct {
	API       application.BrokerAPI
	StaticDir string

	Log zerolog.Logger
}

// APIServer exposes a BrokerAPI under /api.
type APIServer struct {
	api    application.BrokerAPI
	router *mux.Router

	log zerolog.Logger
}

func NewAPIServer(params APIServerParams) (*APIServer, error) {
	if params.API == nil {
		return nil, fmt.Errorf("API is nil")
	}

	s := &APIServer{api: params.API, log: params.Log}

	r := mux.NewRouter()
	r.HandleFunc(APIPathConnect, s.handleConnect).Methods(http.MethodPost)
	r.HandleFunc(APIPathPublish, s.handlePublish).Methods(http.MethodPost)
	r.HandleFunc(APIPathSubscribe, s.handleSubscribe).Methods(http.MethodPost)
	r.HandleFunc(APIPathSubscriptions, s.handleSubscriptions).Methods(http.MethodGet)
	r.HandleFunc(APIPathLogs, s.handleLogs).Methods(http.MethodGet)
	if params.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(params.StaticDir))).Methods(http.MethodGet)
	}
	s.router = r

	return s, nil
}

func (s *APIServer) Handler() http.Handler {
	return s.router
}

// Serve listens on addr until ctx is done, then shuts the server down.
func (s *APIServer) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Msgf("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), APIServerShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *APIServer) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Broker) == "" {
		s.writeError(w, http.StatusBadRequest, "broker required")
		return
	}

	if err := s.api.Connect(r.Context(), req.Broker); err != nil {
		s.writeAPIError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, APIResponse{OK: true})
}

func (s *APIServer) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		s.writeError(w, http.StatusBadRequest, "topic required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusBadRequest, "message required")
		return
	}

	if err := s.api.Publish(r.Context(), strings.TrimSpace(req.Topic), req.Message); err != nil {
		s.writeAPIError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, APIResponse{OK: true})
}

func (s *APIServer) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if !s.decode(w, r, &req) {
		return
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		s.writeError(w, http.StatusBadRequest, "topic required")
		return
	}

	topics, err := s.api.Subscribe(r.Context(), topic)
	if err != nil {
		s.writeAPIError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, TopicsResponse{OK: true, Topics: topicsOrEmpty(topics)})
}

func (s *APIServer) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	topics, err := s.api.Subscriptions(r.Context())
	if err != nil {
		s.writeAPIError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, TopicsResponse{OK: true, Topics: topicsOrEmpty(topics)})
}

func (s *APIServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.api.Logs(r.Context())
	if err != nil {
		s.writeAPIError(w, err)
		return
	}
	if logs.Sent == nil {
		logs.Sent = []application.MessageLogEntry{}
	}
	if logs.Received == nil {
		logs.Received = []application.MessageLogEntry{}
	}
	s.writeJSON(w, http.StatusOK, LogsResponse{OK: true, Logs: logs})
}

func (s *APIServer) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *APIServer) writeAPIError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, application.ErrNotConnected) {
		status = http.StatusConflict
	}
	s.log.Warn().Err(err).Int("status", status).Msg("api request failed")
	s.writeError(w, status, err.Error())
}

func (s *APIServer) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, APIResponse{OK: false, Error: msg})
}

func (s *APIServer) writeJSON(w http.ResponseWriter, status int, resp any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Warn().Err(err).Msg("failed to write response")
	}
}
