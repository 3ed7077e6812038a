package handler

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"auditapi/internal/model"
	"auditapi/internal/service"
	"auditapi/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// maxBodyBytes bounds the audit form body
const maxBodyBytes = 64 << 10

// AuditHandler handles audit endpoints
type AuditHandler struct {
	auditSvc *service.AuditService
	logger   *zap.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditSvc *service.AuditService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{auditSvc: auditSvc, logger: logger.Named("http")}
}

// SubmitResponse is returned by POST /submit
type SubmitResponse struct {
	Status string             `json:"status"`
	Data   *model.AuditReport `json:"data"`
}

// AcceptedResponse is returned when an audit is queued
type AcceptedResponse struct {
	ID     string                 `json:"id"`
	Status model.SubmissionStatus `json:"status"`
}

// Home handles GET /
//
//	@Summary	Service status
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/ [get]
func (h *AuditHandler) Home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "active", "service": "Audit API"})
}

// Submit handles POST /submit
//
//	@Summary	Generate an audit report
//	@Accept		json
//	@Produce	json
//	@Param		request	body		model.AuditRequest	true	"Business profile"
//	@Success	200		{object}	SubmitResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	502		{object}	ErrorResponse
//	@Failure	503		{object}	ErrorResponse
//	@Router		/submit [post]
func (h *AuditHandler) Submit(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	report, err := h.auditSvc.Submit(r.Context(), middleware.GetSessionID(r.Context()), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SubmitResponse{Status: "success", Data: report})
}

// SessionReport handles GET /report
//
//	@Summary	Last report generated in this session
//	@Produce	json
//	@Success	200	{object}	model.AuditReport
//	@Failure	404	{object}	ErrorResponse
//	@Router		/report [get]
func (h *AuditHandler) SessionReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.auditSvc.GetSessionReport(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		h.logIfInternal(err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Create handles POST /v1/audits
//
//	@Summary	Queue an audit report
//	@Accept		json
//	@Produce	json
//	@Param		request	body		model.AuditRequest	true	"Business profile"
//	@Success	202		{object}	AcceptedResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	503		{object}	ErrorResponse
//	@Router		/v1/audits [post]
func (h *AuditHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	sub, err := h.auditSvc.SubmitAsync(r.Context(), middleware.GetSessionID(r.Context()), req)
	if err != nil {
		h.logIfInternal(err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, AcceptedResponse{ID: sub.ID, Status: sub.Status})
}

// List handles GET /v1/audits
//
//	@Summary	Submissions made from this session
//	@Produce	json
//	@Success	200	{array}	model.Submission
//	@Router		/v1/audits [get]
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.auditSvc.ListSubmissions(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		h.logIfInternal(err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

// Get handles GET /v1/audits/{id}
//
//	@Summary	One submission
//	@Produce	json
//	@Param		id	path		string	true	"Submission ID"
//	@Success	200	{object}	model.Submission
//	@Failure	404	{object}	ErrorResponse
//	@Router		/v1/audits/{id} [get]
func (h *AuditHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sub, err := h.auditSvc.GetSubmission(r.Context(), middleware.GetSessionID(r.Context()), id)
	if err != nil {
		h.logIfInternal(err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *AuditHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (*model.AuditRequest, bool) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "Request must be JSON")
		return nil, false
	}

	var req *model.AuditRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return nil, false
	}
	h.logger.Info("audit request received",
		zap.Bool("empty", req == nil),
		zap.String("session", middleware.GetSessionID(r.Context())))
	return req, true
}

func (h *AuditHandler) logIfInternal(err error) {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrAIUnavailable), errors.Is(err, service.ErrGeneration),
		errors.Is(err, service.ErrReportFailed):
		return
	}
	h.logger.Error("request failed", zap.Error(err))
}
