package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Harshitk-cp/atomexec/internal/domain"
	"github.com/Harshitk-cp/atomexec/internal/service"
)

type AtomHandler struct {
	as            domain.AtomSpace
	revision      *service.RevisionService
	defaultPolicy domain.MergeControl
}

func NewAtomHandler(as domain.AtomSpace, revision *service.RevisionService, defaultPolicy domain.MergeControl) *AtomHandler {
	return &AtomHandler{
		as:            as,
		revision:      revision,
		defaultPolicy: defaultPolicy,
	}
}

type createNodeRequest struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type createLinkRequest struct {
	Type     string          `json:"type"`
	Outgoing []domain.Handle `json:"outgoing"`
}

type handleResponse struct {
	Handle domain.Handle `json:"handle"`
}

// CreateNode interns a node.
// POST /v1/atoms/nodes
func (h *AtomHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req createNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !domain.ValidType(req.Type) {
		writeError(w, http.StatusBadRequest, "invalid type")
		return
	}

	handle, err := h.as.AddNode(r.Context(), domain.Type(req.Type), req.Name)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, handleResponse{Handle: handle})
}

// CreateLink interns a link. ExecutionOutputLinks are shape-checked
// before they reach the store.
// POST /v1/atoms/links
func (h *AtomHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req createLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !domain.ValidType(req.Type) {
		writeError(w, http.StatusBadRequest, "invalid type")
		return
	}

	if domain.Type(req.Type) == domain.ExecutionOutputLink {
		link, err := service.NewExecutionOutputLink(r.Context(), h.as, req.Outgoing)
		if err != nil {
			writeCoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, handleResponse{Handle: link.Handle()})
		return
	}

	handle, err := h.as.AddLink(r.Context(), domain.Type(req.Type), req.Outgoing)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, handleResponse{Handle: handle})
}

// GetByHandle returns an atom and its truth value.
// GET /v1/atoms/{handle}
func (h *AtomHandler) GetByHandle(w http.ResponseWriter, r *http.Request) {
	handle, ok := handleParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid handle")
		return
	}

	atom, err := h.as.Get(r.Context(), handle)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	resp := toAtomResponse(atom)
	tv, err := h.revision.Get(r.Context(), handle)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	body := toTruthValueBody(tv)
	resp.TruthValue = &body

	writeJSON(w, http.StatusOK, resp)
}

type updateTruthValueRequest struct {
	Mean       float64 `json:"mean"`
	Confidence float64 `json:"confidence"`
	Policy     string  `json:"policy,omitempty"`
	Replace    bool    `json:"replace,omitempty"`
}

// UpdateTruthValue revises the atom's truth value with new evidence, or
// replaces it when replace is set.
// PUT /v1/atoms/{handle}/tv
func (h *AtomHandler) UpdateTruthValue(w http.ResponseWriter, r *http.Request) {
	handle, ok := handleParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid handle")
		return
	}

	var req updateTruthValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tv := domain.NewSimpleTruthValue(req.Mean, req.Confidence)

	if req.Replace {
		if err := h.revision.Assert(r.Context(), handle, tv); err != nil {
			writeCoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTruthValueBody(tv))
		return
	}

	policy := h.defaultPolicy
	if req.Policy != "" {
		p, err := domain.ParseMergeControl(req.Policy)
		if err != nil {
			writeCoreError(w, err)
			return
		}
		policy = p
	}

	merged, err := h.revision.Revise(r.Context(), handle, tv, policy)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTruthValueBody(merged))
}
