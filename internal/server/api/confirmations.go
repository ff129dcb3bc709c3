package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/poseguard/internal/store"
)

// ConfirmationHandler serves the confirmation history.
//
//	GET /api/confirmations[?limit=N][&session=ID]
//	GET /api/confirmations/{id}
type ConfirmationHandler struct {
	store *store.Store
}

// NewConfirmationHandler creates a new ConfirmationHandler with the given store.
func NewConfirmationHandler(s *store.Store) *ConfirmationHandler {
	return &ConfirmationHandler{store: s}
}

type listConfirmationsResponse struct {
	Confirmations []*store.Confirmation `json:"confirmations"`
}

// ServeHTTP implements the http.Handler interface.
func (h *ConfirmationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/confirmations")
	id = strings.TrimPrefix(id, "/")
	if id != "" {
		h.get(w, id)
		return
	}
	h.list(w, r)
}

func (h *ConfirmationHandler) list(w http.ResponseWriter, r *http.Request) {
	var (
		confirmations []*store.Confirmation
		err           error
	)

	if session := r.URL.Query().Get("session"); session != "" {
		confirmations, err = h.store.Confirmations().ListBySession(session)
	} else {
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, convErr := strconv.Atoi(v)
			if convErr != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			limit = n
		}
		confirmations, err = h.store.Confirmations().List(limit)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list confirmations")
		return
	}

	if confirmations == nil {
		confirmations = []*store.Confirmation{}
	}
	writeJSON(w, http.StatusOK, listConfirmationsResponse{Confirmations: confirmations})
}

func (h *ConfirmationHandler) get(w http.ResponseWriter, id string) {
	c, err := h.store.Confirmations().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "confirmation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get confirmation")
		return
	}
	writeJSON(w, http.StatusOK, c)
}
