package handlers

import (
	"net/http"

	teachersvc "github.com/ASK10520/codeplay-spark/internal/services/teachers"
	"github.com/ASK10520/codeplay-spark/internal/transport/http/dto"
	httperrors "github.com/ASK10520/codeplay-spark/internal/transport/http/errors"
)

type TeachersHandler struct {
	teachers *teachersvc.Service
}

func NewTeachersHandler(teachers *teachersvc.Service) *TeachersHandler {
	return &TeachersHandler{teachers: teachers}
}

func (h *TeachersHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.teachers == nil {
		writeInternal(w, "TEACHERS_SERVICE_UNAVAILABLE", "teachers service is unavailable")
		return
	}

	teachers, err := h.teachers.List(r.Context())
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	items := make([]dto.TeacherResponse, 0, len(teachers))
	for _, t := range teachers {
		items = append(items, toTeacher(t))
	}
	httperrors.Write(w, http.StatusOK, dto.TeachersListResponse{Items: items})
}

func (h *TeachersHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.teachers == nil {
		writeInternal(w, "TEACHERS_SERVICE_UNAVAILABLE", "teachers service is unavailable")
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	teacher, err := h.teachers.Get(r.Context(), id)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, toTeacher(teacher))
}

func (h *TeachersHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.teachers == nil {
		writeInternal(w, "TEACHERS_SERVICE_UNAVAILABLE", "teachers service is unavailable")
		return
	}

	var req dto.CreateTeacherRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid json body")
		return
	}

	teacher, err := h.teachers.Create(r.Context(), identity.IsAdmin(), teachersvc.CreateInput{
		Name:     req.Name,
		NameMM:   req.NameMM,
		Role:     req.Role,
		PhotoURL: req.PhotoURL,
		Bio:      req.Bio,
	})
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	httperrors.Write(w, http.StatusCreated, toTeacher(teacher))
}

func (h *TeachersHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.teachers == nil {
		writeInternal(w, "TEACHERS_SERVICE_UNAVAILABLE", "teachers service is unavailable")
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req dto.UpdateTeacherRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid json body")
		return
	}

	teacher, err := h.teachers.Update(r.Context(), identity.IsAdmin(), id, teachersvc.UpdateInput{
		Name:     req.Name,
		NameMM:   req.NameMM,
		Role:     req.Role,
		PhotoURL: req.PhotoURL,
		Bio:      req.Bio,
	})
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, toTeacher(teacher))
}

func (h *TeachersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.teachers == nil {
		writeInternal(w, "TEACHERS_SERVICE_UNAVAILABLE", "teachers service is unavailable")
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.teachers.Delete(r.Context(), identity.IsAdmin(), id); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
