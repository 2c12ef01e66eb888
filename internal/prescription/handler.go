package prescription

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"telemed-portal/internal/apperr"
	"telemed-portal/internal/audit"
	"telemed-portal/internal/consultation"
	"telemed-portal/internal/diagnosis"
)

// Lister exposes the physician's assigned consultations.
type Lister interface {
	ListMyConsultations(ctx context.Context) ([]consultation.Record, error)
}

// HistorySource is implemented by audit recorders that can read back the
// transitions they stored.
type HistorySource interface {
	RecentTransitions(ctx context.Context, consultationID string, limit int) ([]audit.Event, error)
}

type Handler struct {
	ctrl    *Controller
	records RecordSource
	lister  Lister
	history HistorySource // nil when the audit store is not configured
}

func NewHandler(ctrl *Controller, records RecordSource, lister Lister, history HistorySource) *Handler {
	return &Handler{ctrl: ctrl, records: records, lister: lister, history: history}
}

// physicianID is the identity the auth layer resolved for this request.
// Session handling itself is owned by an external collaborator.
func physicianID(r *http.Request) string {
	return r.Header.Get("X-Physician-ID")
}

func (h *Handler) GetConsultation(w http.ResponseWriter, r *http.Request) {
	record, err := h.records.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) ListConsultations(w http.ResponseWriter, r *http.Request) {
	list, err := h.lister.ListMyConsultations(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"consultations": list,
		"total":         len(list),
	})
}

func (h *Handler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := h.ctrl.Workspace(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if r.URL.Query().Get("view") == "display" {
		writeJSON(w, http.StatusOK, DisplayWorkspace(ws))
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func (h *Handler) ModifyDiagnosis(w http.ResponseWriter, r *http.Request) {
	var patch diagnosis.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, apperr.New(apperr.Validation, "invalid diagnosis patch"))
		return
	}
	record, err := h.ctrl.ModifyDiagnosis(r.Context(), chi.URLParam(r, "id"), physicianID(r), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.ctrl.SaveDraft(r.Context(), chi.URLParam(r, "id"), physicianID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) GeneratePreview(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.ctrl.GeneratePreview(r.Context(), chi.URLParam(r, "id"), physicianID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

type signAndSendRequest struct {
	Password string `json:"password"`
	MFACode  string `json:"mfaCode,omitempty"`
}

func (h *Handler) SignAndSend(w http.ResponseWriter, r *http.Request) {
	var req signAndSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "invalid sign request"))
		return
	}
	outcome, err := h.ctrl.SignAndSend(r.Context(), chi.URLParam(r, "id"), physicianID(r), req.Password, req.MFACode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

type completeRequest struct {
	Override       bool   `json:"override,omitempty"`
	OverrideReason string `json:"overrideReason,omitempty"`
}

func (h *Handler) CompleteConsultation(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, apperr.New(apperr.Validation, "invalid complete request"))
		return
	}
	outcome, err := h.ctrl.CompleteConsultation(r.Context(), chi.URLParam(r, "id"), physicianID(r), req.Override, req.OverrideReason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) TransitionHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, apperr.New(apperr.NotFound, "transition history is not enabled"))
		return
	}
	events, err := h.history.RecentTransitions(r.Context(), chi.URLParam(r, "id"), 50)
	if err != nil {
		writeError(w, apperr.Newf(apperr.Server, "read transition history: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transitions": events})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/consultations/doctor/me", h.ListConsultations)
	r.Get("/consultations/{id}", h.GetConsultation)
	r.Route("/consultations/{id}/prescription", func(r chi.Router) {
		r.Get("/workspace", h.GetWorkspace)
		r.Put("/diagnosis/modify", h.ModifyDiagnosis)
		r.Put("/draft", h.SaveDraft)
		r.Post("/generate-preview", h.GeneratePreview)
		r.Post("/sign-and-send", h.SignAndSend)
		r.Post("/complete-consultation", h.CompleteConsultation)
		r.Get("/audit", h.TransitionHistory)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	writeJSON(w, status, map[string]string{"message": err.Error()})
}
