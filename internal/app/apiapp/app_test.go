package apiapp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ASK10520/codeplay-spark/internal/config"
	"github.com/ASK10520/codeplay-spark/internal/domain/enums"
	authsvc "github.com/ASK10520/codeplay-spark/internal/services/auth"
	"github.com/ASK10520/codeplay-spark/internal/transport/http/dto"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type testServer struct {
	*httptest.Server
	jwt *authsvc.JWTManager
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	cfg := config.Default()
	cfg.HTTP.Addr = ":0"
	cfg.Storage.Driver = config.StorageDriverMemory
	cfg.Redis.Addr = miniredis.RunT(t).Addr()

	app, err := New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	t.Cleanup(func() {
		_ = app.Shutdown(context.Background())
	})

	ts := httptest.NewServer(app.Handler())
	t.Cleanup(ts.Close)

	return testServer{
		Server: ts,
		jwt:    authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL),
	}
}

func (s testServer) token(t *testing.T, userID uuid.UUID, roles ...enums.Role) string {
	t.Helper()
	token, _, err := s.jwt.GenerateAccessToken(userID, roles...)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

// do sends a request; headers are key/value pairs.
func (s testServer) do(t *testing.T, method, path, token string, body io.Reader, headers ...string) (int, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, s.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, raw
}

func paymentForm(t *testing.T, courseID string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"course_id":      courseID,
		"student_name":   "Thiri",
		"payment_method": "kbz_pay",
		"course_fee":     "120000",
		"transaction_id": "TX-1001",
	} {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	part, err := mw.CreateFormFile("slip", "slip.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(pngBytes); err != nil {
		t.Fatalf("write slip: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return out
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	status, raw := ts.do(t, http.MethodGet, "/healthz", "", nil)
	if status != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", status, http.StatusOK)
	}
	payload := decode[struct {
		OK bool `json:"ok"`
	}](t, raw)
	if !payload.OK {
		t.Fatalf("unexpected payload: %s", raw)
	}
}

func TestPaymentReviewFlow(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.token(t, uuid.New(), enums.RoleAdmin)
	studentID := uuid.New()
	studentToken := ts.token(t, studentID)

	courseBody, _ := json.Marshal(dto.CreateCourseRequest{
		Title:        "Scratch Adventures",
		Category:     "coding",
		AgeGroup:     "6-8",
		Difficulty:   "beginner",
		TotalLessons: 8,
		Price:        120000,
		IsPremium:    true,
	})
	if status, _ := ts.do(t, http.MethodPost, "/v1/courses", studentToken, bytes.NewReader(courseBody), "Content-Type", "application/json"); status != http.StatusForbidden {
		t.Fatalf("student course create: got %d want %d", status, http.StatusForbidden)
	}
	status, raw := ts.do(t, http.MethodPost, "/v1/courses", adminToken, bytes.NewReader(courseBody), "Content-Type", "application/json")
	if status != http.StatusCreated {
		t.Fatalf("create course: %d %s", status, raw)
	}
	course := decode[dto.CourseResponse](t, raw)

	accessPath := "/v1/courses/" + course.ID + "/lessons/3/access"
	_, raw = ts.do(t, http.MethodGet, accessPath, studentToken, nil)
	if decode[dto.LessonAccessResponse](t, raw).Allowed {
		t.Fatalf("locked lesson must not be accessible before approval")
	}

	if status, _ := ts.do(t, http.MethodGet, "/v1/payments/status?course_id="+course.ID, "", nil); status != http.StatusUnauthorized {
		t.Fatalf("status without token: got %d want %d", status, http.StatusUnauthorized)
	}

	body, contentType := paymentForm(t, course.ID)
	status, raw = ts.do(t, http.MethodPost, "/v1/payments", studentToken, body, "Content-Type", contentType, "Idempotency-Key", "retry-1")
	if status != http.StatusCreated {
		t.Fatalf("submit: %d %s", status, raw)
	}
	submission := decode[dto.PaymentSubmissionResponse](t, raw)
	if submission.Status != "pending" {
		t.Fatalf("unexpected submission status: %s", submission.Status)
	}

	body, contentType = paymentForm(t, course.ID)
	status, raw = ts.do(t, http.MethodPost, "/v1/payments", studentToken, body, "Content-Type", contentType, "Idempotency-Key", "retry-1")
	if status != http.StatusCreated || decode[dto.PaymentSubmissionResponse](t, raw).ID != submission.ID {
		t.Fatalf("replay must return the original submission: %d %s", status, raw)
	}

	approvePath := "/v1/admin/payments/" + submission.ID + "/approve"
	if status, _ := ts.do(t, http.MethodPost, approvePath, studentToken, nil); status != http.StatusForbidden {
		t.Fatalf("student approve: got %d want %d", status, http.StatusForbidden)
	}
	status, raw = ts.do(t, http.MethodPost, approvePath, adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("approve: %d %s", status, raw)
	}
	approved := decode[dto.ApprovePaymentResponse](t, raw)
	if approved.Submission.Status != "approved" || approved.Enrollment.UserID != studentID.String() {
		t.Fatalf("unexpected approve payload: %s", raw)
	}

	status, raw = ts.do(t, http.MethodPost, approvePath, adminToken, nil)
	if status != http.StatusConflict || !bytes.Contains(raw, []byte("ALREADY_REVIEWED")) {
		t.Fatalf("second approve: %d %s", status, raw)
	}

	_, raw = ts.do(t, http.MethodGet, accessPath, studentToken, nil)
	if !decode[dto.LessonAccessResponse](t, raw).Allowed {
		t.Fatalf("lesson must be accessible after approval")
	}

	_, raw = ts.do(t, http.MethodGet, "/v1/payments/status?course_id="+course.ID, studentToken, nil)
	if got := decode[dto.PaymentStatusResponse](t, raw); got.Status != "approved" {
		t.Fatalf("unexpected latest status: %+v", got)
	}

	_, raw = ts.do(t, http.MethodGet, "/v1/admin/payments/stats", adminToken, nil)
	if stats := decode[dto.PaymentStatsResponse](t, raw); stats.Approved != 1 || stats.Total != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	_, raw = ts.do(t, http.MethodGet, "/v1/admin/payments/"+submission.ID+"/audit", adminToken, nil)
	if trail := decode[dto.AuditTrailResponse](t, raw); len(trail.Items) != 1 || trail.Items[0].Action != "approved" {
		t.Fatalf("unexpected audit trail: %s", raw)
	}

	_, raw = ts.do(t, http.MethodGet, "/v1/enrollments", studentToken, nil)
	if list := decode[dto.EnrollmentsListResponse](t, raw); len(list.Items) != 1 {
		t.Fatalf("unexpected enrollments: %s", raw)
	}
}

func TestLessonsAndTeacherDirectory(t *testing.T) {
	ts := newTestServer(t)
	teacherID := uuid.New()
	teacherToken := ts.token(t, teacherID, enums.RoleTeacher)
	adminToken := ts.token(t, uuid.New(), enums.RoleAdmin)
	studentToken := ts.token(t, uuid.New())
	jsonHeader := []string{"Content-Type", "application/json"}

	courseBody, _ := json.Marshal(dto.CreateCourseRequest{
		Title:      "Micro:bit Makers",
		Category:   "stem",
		AgeGroup:   "9-12",
		Difficulty: "beginner",
		Price:      90000,
		IsPremium:  true,
	})
	status, raw := ts.do(t, http.MethodPost, "/v1/courses", teacherToken, bytes.NewReader(courseBody), jsonHeader...)
	if status != http.StatusCreated {
		t.Fatalf("create course: %d %s", status, raw)
	}
	course := decode[dto.CourseResponse](t, raw)

	lessonsPath := "/v1/courses/" + course.ID + "/lessons"
	var second dto.LessonResponse
	for i, title := range []string{"Blink", "Buttons"} {
		body, _ := json.Marshal(dto.CreateLessonRequest{Title: title, OrderIndex: i})
		status, raw = ts.do(t, http.MethodPost, lessonsPath, teacherToken, bytes.NewReader(body), jsonHeader...)
		if status != http.StatusCreated {
			t.Fatalf("create lesson %s: %d %s", title, status, raw)
		}
		second = decode[dto.LessonResponse](t, raw)
	}

	body, _ := json.Marshal(dto.CreateLessonRequest{Title: "Sneaky", OrderIndex: 7})
	if status, _ := ts.do(t, http.MethodPost, lessonsPath, studentToken, bytes.NewReader(body), jsonHeader...); status != http.StatusForbidden {
		t.Fatalf("student lesson create: got %d want %d", status, http.StatusForbidden)
	}

	_, raw = ts.do(t, http.MethodGet, "/v1/courses/"+course.ID, "", nil)
	if got := decode[dto.CourseResponse](t, raw); got.TotalLessons != 2 {
		t.Fatalf("total lessons not synced: %s", raw)
	}

	_, raw = ts.do(t, http.MethodGet, lessonsPath, studentToken, nil)
	list := decode[dto.LessonsListResponse](t, raw)
	if len(list.Items) != 2 || list.Items[0].Locked || !list.Items[1].Locked {
		t.Fatalf("unexpected lesson locks: %s", raw)
	}
	if status, _ := ts.do(t, http.MethodGet, "/v1/lessons/"+second.ID, studentToken, nil); status != http.StatusForbidden {
		t.Fatalf("locked lesson: got %d want %d", status, http.StatusForbidden)
	}

	teacherBody, _ := json.Marshal(dto.CreateTeacherRequest{Name: "U Aung", Role: "Robotics Mentor"})
	if status, _ := ts.do(t, http.MethodPost, "/v1/teachers", teacherToken, bytes.NewReader(teacherBody), jsonHeader...); status != http.StatusForbidden {
		t.Fatalf("teacher directory write by teacher: got %d want %d", status, http.StatusForbidden)
	}
	status, raw = ts.do(t, http.MethodPost, "/v1/teachers", adminToken, bytes.NewReader(teacherBody), jsonHeader...)
	if status != http.StatusCreated {
		t.Fatalf("create teacher: %d %s", status, raw)
	}

	_, raw = ts.do(t, http.MethodGet, "/v1/teachers", "", nil)
	if dir := decode[dto.TeachersListResponse](t, raw); len(dir.Items) != 1 || dir.Items[0].Name != "U Aung" {
		t.Fatalf("unexpected directory: %s", raw)
	}
}
