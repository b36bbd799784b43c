package dashboard

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rackforge/dashgate/pkg/httputil"
	"github.com/rackforge/dashgate/pkg/middleware"
	"github.com/rackforge/dashgate/pkg/observability"
)

// Handler serves the dashboard API routes.
type Handler struct {
	service *Service
	logger  *observability.Logger
}

// NewHandler creates a dashboard handler.
func NewHandler(service *Service, logger *observability.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the dashboard routes under /api, each wrapped by
// the auth guard. Every route requires a valid session.
func (h *Handler) RegisterRoutes(router *mux.Router, guard *middleware.AuthGuard) {
	router.Handle("/api/build-status", guard.RequireSession(http.HandlerFunc(h.getBuildStatus))).Methods("GET")
	router.Handle("/api/build-history/{date}", guard.RequireSession(http.HandlerFunc(h.getBuildHistory))).Methods("GET")
	router.Handle("/api/preconfigs", guard.RequireSession(http.HandlerFunc(h.getPreconfigs))).Methods("GET")
	router.Handle("/api/push-preconfig", guard.RequireSession(http.HandlerFunc(h.pushPreconfig))).Methods("POST")
	router.Handle("/api/assign", guard.RequireSession(http.HandlerFunc(h.assignServer))).Methods("POST")
	router.Handle("/api/server-details", guard.RequireSession(http.HandlerFunc(h.getServerDetails))).Methods("GET")
}

// getBuildStatus handles GET /api/build-status
func (h *Handler) getBuildStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, h.service.BuildStatus())
}

// getBuildHistory handles GET /api/build-history/{date}
func (h *Handler) getBuildHistory(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]

	history, err := h.service.BuildHistory(date)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	httputil.WriteSuccess(w, history)
}

// getPreconfigs handles GET /api/preconfigs
func (h *Handler) getPreconfigs(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, h.service.Preconfigs())
}

// pushPreconfig handles POST /api/push-preconfig
func (h *Handler) pushPreconfig(w http.ResponseWriter, r *http.Request) {
	var req PushPreconfigRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	resp, err := h.service.PushPreconfig(req)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	httputil.WriteSuccess(w, resp)
}

// assignServer handles POST /api/assign
func (h *Handler) assignServer(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	resp, err := h.service.Assign(req)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	httputil.WriteSuccess(w, resp)
}

// getServerDetails handles GET /api/server-details?hostname=
func (h *Handler) getServerDetails(w http.ResponseWriter, r *http.Request) {
	hostname := r.URL.Query().Get("hostname")

	details, err := h.service.ServerDetails(hostname)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	httputil.WriteSuccess(w, details)
}
