package handlers

import (
	"net/http"

	lessonsvc "github.com/ASK10520/codeplay-spark/internal/services/lessons"
	"github.com/ASK10520/codeplay-spark/internal/transport/http/dto"
	httperrors "github.com/ASK10520/codeplay-spark/internal/transport/http/errors"
)

type LessonsHandler struct {
	lessons *lessonsvc.Service
}

func NewLessonsHandler(lessons *lessonsvc.Service) *LessonsHandler {
	return &LessonsHandler{lessons: lessons}
}

func (h *LessonsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.lessons == nil {
		writeInternal(w, "LESSONS_SERVICE_UNAVAILABLE", "lessons service is unavailable")
		return
	}
	courseID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	views, err := h.lessons.List(r.Context(), actorFrom(identity), courseID)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	items := make([]dto.LessonResponse, 0, len(views))
	for _, v := range views {
		items = append(items, toLesson(v.Lesson, v.Locked))
	}
	httperrors.Write(w, http.StatusOK, dto.LessonsListResponse{Items: items})
}

func (h *LessonsHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.lessons == nil {
		writeInternal(w, "LESSONS_SERVICE_UNAVAILABLE", "lessons service is unavailable")
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	lesson, err := h.lessons.Get(r.Context(), actorFrom(identity), id)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, toLesson(lesson, false))
}

func (h *LessonsHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.lessons == nil {
		writeInternal(w, "LESSONS_SERVICE_UNAVAILABLE", "lessons service is unavailable")
		return
	}
	courseID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req dto.CreateLessonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid json body")
		return
	}

	lesson, err := h.lessons.Create(r.Context(), actorFrom(identity), courseID, lessonsvc.CreateInput{
		Title:      req.Title,
		Content:    req.Content,
		VideoURL:   req.VideoURL,
		OrderIndex: req.OrderIndex,
	})
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	httperrors.Write(w, http.StatusCreated, toLesson(lesson, false))
}

func (h *LessonsHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.lessons == nil {
		writeInternal(w, "LESSONS_SERVICE_UNAVAILABLE", "lessons service is unavailable")
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req dto.UpdateLessonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid json body")
		return
	}

	lesson, err := h.lessons.Update(r.Context(), actorFrom(identity), id, lessonsvc.UpdateInput{
		Title:      req.Title,
		Content:    req.Content,
		VideoURL:   req.VideoURL,
		OrderIndex: req.OrderIndex,
	})
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, toLesson(lesson, false))
}

func (h *LessonsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.lessons == nil {
		writeInternal(w, "LESSONS_SERVICE_UNAVAILABLE", "lessons service is unavailable")
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.lessons.Delete(r.Context(), actorFrom(identity), id); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
