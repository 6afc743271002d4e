package internal

import (
	"encoding/json"
	"net/http"

	"config-lab/services"
	"config-lab/sessions"
)

// AdminAPI is the HTTP face of the administrative surface. It maps 1:1
// onto the config service operations; authentication happens upstream
// (reverse proxy), the handlers only translate JSON to requests.
type AdminAPI struct {
	service *services.ConfigService
	store   *sessions.Store
}

func NewAdminAPI(service *services.ConfigService, store *sessions.Store) *AdminAPI {
	return &AdminAPI{service: service, store: store}
}

// Routes registers the admin endpoints on the given mux.
func (a *AdminAPI) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /sessions", a.openSession)
	mux.HandleFunc("POST /actions", a.handleAction)
	mux.HandleFunc("GET /sessions", a.listSessions)
}

func (a *AdminAPI) openSession(w http.ResponseWriter, r *http.Request) {
	var req services.OpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	session, err := a.service.Open(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(session)
}

func (a *AdminAPI) handleAction(w http.ResponseWriter, r *http.Request) {
	var req services.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := a.service.HandleAction(r.Context(), req); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *AdminAPI) listSessions(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(a.store.Snapshot())
}
