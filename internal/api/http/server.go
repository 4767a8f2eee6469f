package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	appAdmin "github.com/tablecall/tablecall/internal/application/admin"
	appRequest "github.com/tablecall/tablecall/internal/application/request"
	"github.com/tablecall/tablecall/internal/domain/apperr"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	adminSvc   *appAdmin.Service
	requestSvc *appRequest.Service
	tokenHash  []byte
	logger     zerolog.Logger
}

// NewServer builds the admin API. An empty tokenHash disables the /v1 routes.
func NewServer(adminSvc *appAdmin.Service, requestSvc *appRequest.Service, tokenHash string, logger zerolog.Logger) *Server {
	return &Server{
		adminSvc:   adminSvc,
		requestSvc: requestSvc,
		tokenHash:  []byte(tokenHash),
		logger:     logger.With().Str("service", "http").Logger(),
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.healthz)

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.requireToken)

		r.Route("/segments", func(r chi.Router) {
			r.Get("/", s.listSegments)
			r.Post("/", s.createSegment)
			r.Put("/{segmentId}/members/{ident}", s.assignMember)
			r.Delete("/{segmentId}/members/{ident}", s.unassignMember)
		})

		r.Post("/formats", s.createFormat)
		r.Post("/limits", s.createLimit)
		r.Post("/formats/{formatId}/limits/{limitId}", s.linkLimit)

		r.Route("/players/{ident}", func(r chi.Router) {
			r.Get("/", s.getPlayer)
			r.Post("/ban", s.banPlayer)
			r.Post("/unban", s.unbanPlayer)
			r.Put("/nickname", s.setNickname)
		})

		r.Post("/requests/{requestId}/decision", s.decide)
	})

	return r
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

// respondAppError maps a classified failure to a status; anything else is a 500.
func (s *Server) respondAppError(w http.ResponseWriter, r *http.Request, err error) {
	msg, ok := apperr.UserMessage(err)
	if !ok {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Str("request_id", middleware.GetReqID(r.Context())).Msg("request failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	kind := apperr.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindUnauthorized:
		status = http.StatusForbidden
	case apperr.KindIntegrity:
		status = http.StatusConflict
	case apperr.KindDelivery:
		status = http.StatusBadGateway
	}
	respondError(w, status, string(kind), msg)
}

func parseIDParam(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, key), 10, 64)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
