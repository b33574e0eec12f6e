package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Harshitk-cp/atomexec/internal/domain"
	"github.com/Harshitk-cp/atomexec/internal/service"
)

type TruthValueHandler struct {
	revision      *service.RevisionService
	defaultPolicy domain.MergeControl
}

func NewTruthValueHandler(revision *service.RevisionService, defaultPolicy domain.MergeControl) *TruthValueHandler {
	return &TruthValueHandler{revision: revision, defaultPolicy: defaultPolicy}
}

type truthValueInput struct {
	Mean       float64 `json:"mean"`
	Confidence float64 `json:"confidence"`
}

type mergeRequest struct {
	A      truthValueInput `json:"a"`
	B      truthValueInput `json:"b"`
	Policy string          `json:"policy,omitempty"`
}

type mergeResponse struct {
	Policy string         `json:"policy"`
	Result truthValueBody `json:"result"`
}

// Merge revises two truth values without touching the store.
// POST /v1/truthvalues/merge
func (h *TruthValueHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
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

	a := domain.NewSimpleTruthValue(req.A.Mean, req.A.Confidence)
	b := domain.NewSimpleTruthValue(req.B.Mean, req.B.Confidence)

	merged, err := h.revision.Merge(a, b, policy)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mergeResponse{Policy: policy.String(), Result: toTruthValueBody(merged)})
}
