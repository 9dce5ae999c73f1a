package handlers

import (
	"errors"
	"io"
	"net/http"

	auditsvc "github.com/ASK10520/codeplay-spark/internal/services/audit"
	enrollmentsvc "github.com/ASK10520/codeplay-spark/internal/services/enrollment"
	paymentsvc "github.com/ASK10520/codeplay-spark/internal/services/payments"
	"github.com/ASK10520/codeplay-spark/internal/transport/http/dto"
	httperrors "github.com/ASK10520/codeplay-spark/internal/transport/http/errors"
)

type AdminPaymentsHandler struct {
	payments    *paymentsvc.Service
	enrollments *enrollmentsvc.Service
	audit       *auditsvc.Service
}

func NewAdminPaymentsHandler(payments *paymentsvc.Service, enrollments *enrollmentsvc.Service, audit *auditsvc.Service) *AdminPaymentsHandler {
	return &AdminPaymentsHandler{payments: payments, enrollments: enrollments, audit: audit}
}

func (h *AdminPaymentsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.payments == nil {
		writeInternal(w, "PAYMENTS_SERVICE_UNAVAILABLE", "payments service is unavailable")
		return
	}

	query := r.URL.Query()
	items, err := h.payments.List(r.Context(), paymentsvc.ListFilter{
		Status: query.Get("status"),
		Method: query.Get("method"),
		Search: query.Get("q"),
	})
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}

	out := make([]dto.PaymentSubmissionResponse, 0, len(items))
	for _, item := range items {
		resp := toSubmission(item.PaymentSubmission)
		resp.Course = toCourseSummary(item.Course)
		out = append(out, resp)
	}
	httperrors.Write(w, http.StatusOK, dto.PaymentSubmissionsListResponse{Items: out})
}

func (h *AdminPaymentsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.payments == nil {
		writeInternal(w, "PAYMENTS_SERVICE_UNAVAILABLE", "payments service is unavailable")
		return
	}

	stats, err := h.payments.Stats(r.Context())
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.PaymentStatsResponse{
		Pending:  stats.Pending,
		Approved: stats.Approved,
		Rejected: stats.Rejected,
		Total:    stats.Total,
	})
}

func (h *AdminPaymentsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.enrollments == nil {
		writeInternal(w, "ENROLLMENT_SERVICE_UNAVAILABLE", "enrollment service is unavailable")
		return
	}
	submissionID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	res, err := h.enrollments.Approve(r.Context(), submissionID, identity.UserID)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.ApprovePaymentResponse{
		Submission: toSubmission(res.Submission),
		Enrollment: toEnrollment(res.Enrollment),
	})
}

func (h *AdminPaymentsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.enrollments == nil {
		writeInternal(w, "ENROLLMENT_SERVICE_UNAVAILABLE", "enrollment service is unavailable")
		return
	}
	submissionID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req dto.RejectPaymentRequest
	// the body is optional
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid json body")
		return
	}

	sub, err := h.enrollments.Reject(r.Context(), submissionID, identity.UserID, req.Reason)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, toSubmission(sub))
}

func (h *AdminPaymentsHandler) SlipURL(w http.ResponseWriter, r *http.Request) {
	if h.payments == nil {
		writeInternal(w, "PAYMENTS_SERVICE_UNAVAILABLE", "payments service is unavailable")
		return
	}
	submissionID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	signed, err := h.payments.SlipURLForSubmission(r.Context(), submissionID)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.SignedURLResponse{URL: signed.URL, ExpiresAt: signed.ExpiresAt})
}

func (h *AdminPaymentsHandler) Audit(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		writeInternal(w, "AUDIT_SERVICE_UNAVAILABLE", "audit service is unavailable")
		return
	}
	submissionID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	entries, err := h.audit.ListBySubmission(r.Context(), submissionID)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}

	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, toAuditEntry(entry))
	}
	httperrors.Write(w, http.StatusOK, dto.AuditTrailResponse{Items: items})
}
