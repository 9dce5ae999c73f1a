package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ASK10520/codeplay-spark/internal/domain/enums"
	accesssvc "github.com/ASK10520/codeplay-spark/internal/services/access"
	authsvc "github.com/ASK10520/codeplay-spark/internal/services/auth"
	coursesvc "github.com/ASK10520/codeplay-spark/internal/services/courses"
	"github.com/ASK10520/codeplay-spark/internal/transport/http/dto"
	httperrors "github.com/ASK10520/codeplay-spark/internal/transport/http/errors"
)

type CoursesHandler struct {
	courses *coursesvc.Service
	access  *accesssvc.Service
}

func NewCoursesHandler(courses *coursesvc.Service, access *accesssvc.Service) *CoursesHandler {
	return &CoursesHandler{courses: courses, access: access}
}

func (h *CoursesHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.courses == nil {
		writeInternal(w, "COURSES_SERVICE_UNAVAILABLE", "courses service is unavailable")
		return
	}

	query := r.URL.Query()
	filter := coursesvc.Filter{
		Category:   query.Get("category"),
		AgeGroup:   query.Get("age_group"),
		Difficulty: query.Get("difficulty"),
	}
	if raw := strings.TrimSpace(query.Get("premium")); raw != "" {
		premium, err := strconv.ParseBool(raw)
		if err != nil {
			writeFieldError(w, "premium", "premium must be true or false")
			return
		}
		filter.Premium = &premium
	}
	if raw := strings.TrimSpace(query.Get("created_by")); raw != "" {
		owner, err := uuid.Parse(raw)
		if err != nil {
			writeFieldError(w, "created_by", "created_by must be a valid uuid")
			return
		}
		filter.CreatedBy = &owner
	}

	courses, err := h.courses.List(r.Context(), filter)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}

	items := make([]dto.CourseResponse, 0, len(courses))
	for _, c := range courses {
		items = append(items, toCourse(c))
	}
	httperrors.Write(w, http.StatusOK, dto.CoursesListResponse{Items: items})
}

func (h *CoursesHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.courses == nil {
		writeInternal(w, "COURSES_SERVICE_UNAVAILABLE", "courses service is unavailable")
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	course, err := h.courses.Get(r.Context(), id)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, toCourse(course))
}

func (h *CoursesHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.courses == nil {
		writeInternal(w, "COURSES_SERVICE_UNAVAILABLE", "courses service is unavailable")
		return
	}

	var req dto.CreateCourseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid json body")
		return
	}

	course, err := h.courses.Create(r.Context(), actorFrom(identity), coursesvc.CreateInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		AgeGroup:     req.AgeGroup,
		Difficulty:   req.Difficulty,
		Grade:        req.Grade,
		TotalLessons: req.TotalLessons,
		Price:        req.Price,
		IsPremium:    req.IsPremium,
		Thumbnail:    req.Thumbnail,
	})
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	httperrors.Write(w, http.StatusCreated, toCourse(course))
}

func (h *CoursesHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.courses == nil {
		writeInternal(w, "COURSES_SERVICE_UNAVAILABLE", "courses service is unavailable")
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req dto.UpdateCourseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid json body")
		return
	}

	course, err := h.courses.Update(r.Context(), actorFrom(identity), id, coursesvc.UpdateInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		AgeGroup:     req.AgeGroup,
		Difficulty:   req.Difficulty,
		Grade:        req.Grade,
		TotalLessons: req.TotalLessons,
		Price:        req.Price,
		IsPremium:    req.IsPremium,
		Thumbnail:    req.Thumbnail,
	})
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, toCourse(course))
}

func (h *CoursesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.courses == nil {
		writeInternal(w, "COURSES_SERVICE_UNAVAILABLE", "courses service is unavailable")
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.courses.Delete(r.Context(), actorFrom(identity), id); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CoursesHandler) LessonAccess(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.access == nil {
		writeInternal(w, "ACCESS_SERVICE_UNAVAILABLE", "access service is unavailable")
		return
	}
	courseID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	index, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, "index")))
	if err != nil {
		writeFieldError(w, "lesson_index", "lesson index must be a whole number")
		return
	}

	allowed, err := h.access.CanAccessLesson(r.Context(), identity.UserID, courseID, index)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.LessonAccessResponse{Allowed: allowed})
}

func actorFrom(identity authsvc.Identity) coursesvc.Actor {
	return coursesvc.Actor{
		UserID:  identity.UserID,
		Admin:   identity.IsAdmin(),
		Teacher: identity.HasRole(string(enums.RoleTeacher)),
	}
}
