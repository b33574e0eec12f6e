package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Harshitk-cp/atomexec/internal/domain"
	"github.com/Harshitk-cp/atomexec/internal/store"
	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeCoreError maps execution and revision errors onto HTTP statuses.
func writeCoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvalidType),
		errors.Is(err, domain.ErrShape),
		errors.Is(err, domain.ErrUnknownProcedure),
		errors.Is(err, domain.ErrMalformedProcedure),
		errors.Is(err, domain.ErrIncompatibleMerge),
		errors.Is(err, domain.ErrUnsupportedMerge):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnsupportedFeature):
		writeError(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, domain.ErrEvaluation),
		errors.Is(err, domain.ErrLibraryLoad),
		errors.Is(err, domain.ErrSymbolLookup):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func handleParam(r *http.Request) (domain.Handle, bool) {
	n, err := strconv.ParseUint(chi.URLParam(r, "handle"), 10, 64)
	if err != nil || n == 0 {
		return domain.UndefinedHandle, false
	}
	return domain.Handle(n), true
}

type truthValueBody struct {
	Mean       float64 `json:"mean"`
	Confidence float64 `json:"confidence"`
	Count      float64 `json:"count"`
}

func toTruthValueBody(tv domain.TruthValue) truthValueBody {
	return truthValueBody{Mean: tv.Mean(), Confidence: tv.Confidence(), Count: tv.Count()}
}

type atomResponse struct {
	Handle     domain.Handle   `json:"handle"`
	Type       domain.Type     `json:"type"`
	Name       string          `json:"name,omitempty"`
	Outgoing   []domain.Handle `json:"outgoing,omitempty"`
	TruthValue *truthValueBody `json:"truth_value,omitempty"`
}

func toAtomResponse(a *domain.Atom) atomResponse {
	return atomResponse{
		Handle:   a.Handle,
		Type:     a.Type,
		Name:     a.Name,
		Outgoing: a.Outgoing,
	}
}
