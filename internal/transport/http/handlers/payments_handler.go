package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	paymentsvc "github.com/ASK10520/codeplay-spark/internal/services/payments"
	"github.com/ASK10520/codeplay-spark/internal/services/slips"
	"github.com/ASK10520/codeplay-spark/internal/transport/http/dto"
	httperrors "github.com/ASK10520/codeplay-spark/internal/transport/http/errors"
)

// multipartOverhead leaves room for the text fields next to the slip.
const multipartOverhead = 1 << 20

type PaymentsHandler struct {
	service *paymentsvc.Service
	maxSlip int64
}

func NewPaymentsHandler(service *paymentsvc.Service, maxSlipBytes int64) *PaymentsHandler {
	if maxSlipBytes <= 0 {
		maxSlipBytes = slips.DefaultMaxBytes
	}
	return &PaymentsHandler{service: service, maxSlip: maxSlipBytes}
}

func (h *PaymentsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "PAYMENTS_SERVICE_UNAVAILABLE", "payments service is unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSlip+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxSlip + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFieldError(w, "slip", fmt.Sprintf("payment slip must be at most %d MiB", h.maxSlip>>20))
			return
		}
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	courseID, err := uuid.Parse(strings.TrimSpace(r.FormValue("course_id")))
	if err != nil {
		writeFieldError(w, "course_id", "course_id must be a valid uuid")
		return
	}

	var fee int64
	if raw := strings.TrimSpace(r.FormValue("course_fee")); raw != "" {
		fee, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeFieldError(w, "course_fee", "course_fee must be a whole number")
			return
		}
	}

	in := paymentsvc.SubmitInput{
		UserID:         identity.UserID,
		CourseID:       courseID,
		StudentName:    r.FormValue("student_name"),
		PhoneNumber:    optionalForm(r, "phone_number"),
		PaymentMethod:  r.FormValue("payment_method"),
		TransactionID:  optionalForm(r, "transaction_id"),
		CourseFee:      fee,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	}

	file, header, err := r.FormFile("slip")
	if err == nil {
		defer file.Close()
		in.Slip = &slips.Slip{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		}
	}

	sub, err := h.service.Submit(r.Context(), in)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, toSubmission(sub))
}

func (h *PaymentsHandler) LatestStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "PAYMENTS_SERVICE_UNAVAILABLE", "payments service is unavailable")
		return
	}

	courseID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("course_id")))
	if err != nil {
		writeFieldError(w, "course_id", "course_id must be a valid uuid")
		return
	}

	latest, found, err := h.service.LatestStatus(r.Context(), identity.UserID, courseID)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if !found {
		httperrors.Write(w, http.StatusOK, dto.PaymentStatusResponse{Status: "none"})
		return
	}

	id := latest.SubmissionID.String()
	httperrors.Write(w, http.StatusOK, dto.PaymentStatusResponse{
		Status:          string(latest.Status),
		SubmissionID:    &id,
		RejectionReason: latest.RejectionReason,
	})
}

func optionalForm(r *http.Request, key string) *string {
	value := strings.TrimSpace(r.FormValue(key))
	if value == "" {
		return nil
	}
	return &value
}
