package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/roadsense/autobrake/internal/actuator"
	"github.com/roadsense/autobrake/internal/auth"
	"github.com/roadsense/autobrake/internal/config"
	"github.com/roadsense/autobrake/internal/control"
	"github.com/roadsense/autobrake/internal/models"
	"github.com/roadsense/autobrake/internal/store"
	"github.com/roadsense/autobrake/internal/stream"
	"github.com/roadsense/autobrake/internal/telemetry"
)

// Controller is the write side of the brake controller exposed to
// operators.
type Controller interface {
	control.SnapshotSource
	SetCollisionThreshold(x float64) error
}

type Server struct {
	cfg        *config.Config
	store      *store.Store
	status     control.StatusSource
	controller Controller
	dispatcher *control.Dispatcher
	brakes     actuator.Actuator
	hub        *stream.Hub
	auth       *auth.JWTManager
	router     *chi.Mux
}

func NewServer(cfg *config.Config, st *store.Store, status control.StatusSource, controller Controller, dispatcher *control.Dispatcher, brakes actuator.Actuator, hub *stream.Hub) *Server {
	s := &Server{
		cfg:        cfg,
		store:      st,
		status:     status,
		controller: controller,
		dispatcher: dispatcher,
		brakes:     brakes,
		hub:        hub,
		auth:       auth.NewJWTManager(cfg.JWTSecret),
		router:     chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(telemetry.Middleware)

	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Autobrake control plane is running"))
	})

	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Post("/api/login", s.handleLogin)
	s.router.With(s.agentTokenMiddleware).Post("/api/report", s.handleReport)

	s.router.Group(func(r chi.Router) {
		r.Use(s.jwtMiddleware)
		r.Get("/api/status", s.handleStatus)
		r.Get("/api/commands", s.handleCommands)
		r.Get("/api/actuator", s.handleActuator)
		r.Get("/api/stream", s.handleStream)
		r.With(s.RequireRole("admin")).Post("/api/threshold", s.handleSetThreshold)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.status.Status())
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := s.store.ListCommands(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list commands")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.CommandRecord{}
	}
	writeJSON(w, records)
}

func (s *Server) handleActuator(w http.ResponseWriter, r *http.Request) {
	state, err := s.brakes.State(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to read actuator state")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, state)
}

func (s *Server) handleSetThreshold(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CollisionThresholdS float64 `json:"collision_threshold_s"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := s.controller.SetCollisionThreshold(req.CollisionThresholdS); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, s.controller.Snapshot())
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var env models.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := s.store.InsertEvent(r.Context(), env); err != nil {
		log.Error().Err(err).Msg("failed to log event")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := control.Republish(s.dispatcher, env); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	client := s.hub.Register()
	defer s.hub.Unregister(client)

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-client.Events():
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if _, err := w.Write([]byte("data: ")); err != nil {
				return
			}
			w.Write(data)
			w.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	op, err := s.store.GetOperatorByEmail(r.Context(), req.Email)
	if err != nil {
		log.Error().Err(err).Msg("failed to get operator")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if op == nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.Password), []byte(req.Password)); err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := s.auth.GenerateAccessToken(op.ID, op.Role)
	if err != nil {
		log.Error().Err(err).Msg("failed to generate token")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"token": token})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
