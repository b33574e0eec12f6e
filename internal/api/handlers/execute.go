package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Harshitk-cp/atomexec/internal/domain"
	"github.com/Harshitk-cp/atomexec/internal/service"
)

type ExecuteHandler struct {
	as   domain.AtomSpace
	inst *service.Instantiator
}

func NewExecuteHandler(as domain.AtomSpace, inst *service.Instantiator) *ExecuteHandler {
	return &ExecuteHandler{as: as, inst: inst}
}

type executeRequest struct {
	Schema domain.Handle `json:"schema"`
	Args   domain.Handle `json:"args"`
}

type executeResponse struct {
	Link   domain.Handle `json:"link"`
	Result domain.Handle `json:"result"`
	Atom   *atomResponse `json:"atom,omitempty"`
}

// Execute builds an ExecutionOutputLink from a procedure and argument list
// and runs it.
// POST /v1/execute
func (h *ExecuteHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	link, err := service.NewExecutionOutputLinkFromPair(r.Context(), h.as, req.Schema, req.Args)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	h.run(w, r, link)
}

// ExecuteExisting runs an ExecutionOutputLink already in the store.
// POST /v1/atoms/{handle}/execute
func (h *ExecuteHandler) ExecuteExisting(w http.ResponseWriter, r *http.Request) {
	handle, ok := handleParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid handle")
		return
	}

	link, err := service.ExecutionOutputLinkFromAtom(r.Context(), h.as, handle)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	h.run(w, r, link)
}

func (h *ExecuteHandler) run(w http.ResponseWriter, r *http.Request, link *service.ExecutionOutputLink) {
	result, err := link.Execute(r.Context(), h.as, h.inst)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	resp := executeResponse{Link: link.Handle(), Result: result}
	if !result.IsUndefined() {
		atom, err := h.as.Get(r.Context(), result)
		if err != nil {
			writeCoreError(w, err)
			return
		}
		a := toAtomResponse(atom)
		resp.Atom = &a
	}
	writeJSON(w, http.StatusOK, resp)
}
