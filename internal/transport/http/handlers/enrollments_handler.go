package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	enrollmentsvc "github.com/ASK10520/codeplay-spark/internal/services/enrollment"
	"github.com/ASK10520/codeplay-spark/internal/transport/http/dto"
	httperrors "github.com/ASK10520/codeplay-spark/internal/transport/http/errors"
)

type EnrollmentsHandler struct {
	service *enrollmentsvc.Service
}

func NewEnrollmentsHandler(service *enrollmentsvc.Service) *EnrollmentsHandler {
	return &EnrollmentsHandler{service: service}
}

func (h *EnrollmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "ENROLLMENT_SERVICE_UNAVAILABLE", "enrollment service is unavailable")
		return
	}

	enrollments, err := h.service.ListForUser(r.Context(), identity.UserID)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}

	items := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		resp := toEnrollment(e.Enrollment)
		resp.Course = toCourseSummary(e.Course)
		items = append(items, resp)
	}
	httperrors.Write(w, http.StatusOK, dto.EnrollmentsListResponse{Items: items})
}

func (h *EnrollmentsHandler) EnrollFree(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "ENROLLMENT_SERVICE_UNAVAILABLE", "enrollment service is unavailable")
		return
	}

	var req dto.FreeEnrollRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid json body")
		return
	}
	courseID, err := uuid.Parse(strings.TrimSpace(req.CourseID))
	if err != nil {
		writeFieldError(w, "course_id", "course_id must be a valid uuid")
		return
	}

	enrollment, err := h.service.EnrollFree(r.Context(), enrollmentsvc.FreeEnrollInput{
		UserID:      identity.UserID,
		CourseID:    courseID,
		ChildName:   req.ChildName,
		ChildAge:    req.ChildAge,
		ParentName:  req.ParentName,
		ParentEmail: req.ParentEmail,
	})
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	httperrors.Write(w, http.StatusCreated, toEnrollment(enrollment))
}

func (h *EnrollmentsHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "ENROLLMENT_SERVICE_UNAVAILABLE", "enrollment service is unavailable")
		return
	}
	enrollmentID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req dto.UpdateProgressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid json body")
		return
	}

	enrollment, err := h.service.UpdateProgress(r.Context(), identity.UserID, enrollmentID, enrollmentsvc.ProgressInput{
		CompletedLessons: req.CompletedLessons,
		StarsEarned:      req.StarsEarned,
	})
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, toEnrollment(enrollment))
}
