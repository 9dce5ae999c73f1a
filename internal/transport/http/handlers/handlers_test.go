package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ASK10520/codeplay-spark/internal/domain/enums"
	"github.com/ASK10520/codeplay-spark/internal/domain/model"
	"github.com/ASK10520/codeplay-spark/internal/repo/memory"
	accesssvc "github.com/ASK10520/codeplay-spark/internal/services/access"
	auditsvc "github.com/ASK10520/codeplay-spark/internal/services/audit"
	authsvc "github.com/ASK10520/codeplay-spark/internal/services/auth"
	enrollmentsvc "github.com/ASK10520/codeplay-spark/internal/services/enrollment"
	paymentsvc "github.com/ASK10520/codeplay-spark/internal/services/payments"
	"github.com/ASK10520/codeplay-spark/internal/services/slips"
	"github.com/ASK10520/codeplay-spark/internal/transport/http/dto"
	httperrors "github.com/ASK10520/codeplay-spark/internal/transport/http/errors"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type testEnv struct {
	store    *memory.Store
	course   model.Course
	payments *PaymentsHandler
	admin    *AdminPaymentsHandler
	courses  *CoursesHandler
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	store := memory.NewStore()
	course, err := store.CreateCourse(context.Background(), model.Course{
		Title:        "Web Basics",
		Category:     "coding",
		AgeGroup:     "9-12",
		Difficulty:   "beginner",
		TotalLessons: 5,
		Price:        150000,
		IsPremium:    true,
	})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}

	slipService := slips.NewService(slips.NewMemoryStorage(""), slips.Config{})
	paymentService := paymentsvc.NewService(paymentsvc.Dependencies{
		Courses:     store,
		Submissions: store,
		Slips:       slipService,
	})
	auditService := auditsvc.NewService(store)
	enrollmentService := enrollmentsvc.NewService(enrollmentsvc.Dependencies{Store: store, Audit: auditService})

	return testEnv{
		store:    store,
		course:   course,
		payments: NewPaymentsHandler(paymentService, 0),
		admin:    NewAdminPaymentsHandler(paymentService, enrollmentService, auditService),
		courses:  NewCoursesHandler(nil, accesssvc.NewService(store)),
	}
}

func withIdentity(req *http.Request, userID uuid.UUID, roles ...enums.Role) *http.Request {
	return req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{UserID: userID, Roles: roles}))
}

func withURLParams(req *http.Request, kv ...string) *http.Request {
	routeCtx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		routeCtx.URLParams.Add(kv[i], kv[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func submitRequest(t *testing.T, fields map[string]string, slip []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if slip != nil {
		part, err := mw.CreateFormFile("slip", "slip.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(slip); err != nil {
			t.Fatalf("write slip: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/payments", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (env testEnv) submit(t *testing.T, userID uuid.UUID) dto.PaymentSubmissionResponse {
	t.Helper()

	req := submitRequest(t, map[string]string{
		"course_id":      env.course.ID.String(),
		"student_name":   "Nandar",
		"payment_method": "uab_pay",
		"course_fee":     "150000",
	}, pngBytes)
	rr := httptest.NewRecorder()
	env.payments.Submit(rr, withIdentity(req, userID))

	if rr.Code != http.StatusCreated {
		t.Fatalf("submit: unexpected status %d body=%s", rr.Code, rr.Body.String())
	}
	var payload dto.PaymentSubmissionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode submission: %v", err)
	}
	return payload
}

func TestSubmitPaymentCreatesPending(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()

	payload := env.submit(t, userID)
	if payload.Status != "pending" || payload.UserID != userID.String() || payload.CourseFee != 150000 {
		t.Fatalf("unexpected submission: %+v", payload)
	}
}

func TestSubmitPaymentRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	env.payments.Submit(rr, submitRequest(t, map[string]string{"course_id": env.course.ID.String()}, pngBytes))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestSubmitPaymentWithoutSlipIsFieldError(t *testing.T) {
	env := newTestEnv(t)

	req := submitRequest(t, map[string]string{
		"course_id":      env.course.ID.String(),
		"student_name":   "Nandar",
		"payment_method": "uab_pay",
		"course_fee":     "150000",
	}, nil)
	rr := httptest.NewRecorder()
	env.payments.Submit(rr, withIdentity(req, uuid.New()))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
	var payload httperrors.ValidationError
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Code != "VALIDATION_ERROR" || payload.Fields["slip"] == "" {
		t.Fatalf("expected slip field error, got %+v", payload)
	}
}

func TestSubmitPaymentBadFeeIsFieldError(t *testing.T) {
	env := newTestEnv(t)

	req := submitRequest(t, map[string]string{
		"course_id":      env.course.ID.String(),
		"student_name":   "Nandar",
		"payment_method": "uab_pay",
		"course_fee":     "lots",
	}, pngBytes)
	rr := httptest.NewRecorder()
	env.payments.Submit(rr, withIdentity(req, uuid.New()))

	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), "course_fee") {
		t.Fatalf("unexpected response: %d %s", rr.Code, rr.Body.String())
	}
}

func TestLatestStatusNoneThenPending(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()

	status := func() dto.PaymentStatusResponse {
		req := httptest.NewRequest(http.MethodGet, "/v1/payments/status?course_id="+env.course.ID.String(), nil)
		rr := httptest.NewRecorder()
		env.payments.LatestStatus(rr, withIdentity(req, userID))
		if rr.Code != http.StatusOK {
			t.Fatalf("status: unexpected code %d", rr.Code)
		}
		var payload dto.PaymentStatusResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return payload
	}

	if got := status(); got.Status != "none" || got.SubmissionID != nil {
		t.Fatalf("expected none, got %+v", got)
	}
	sub := env.submit(t, userID)
	if got := status(); got.Status != "pending" || got.SubmissionID == nil || *got.SubmissionID != sub.ID {
		t.Fatalf("expected pending for %s, got %+v", sub.ID, got)
	}
}

func TestApproveTwiceReturnsAlreadyReviewed(t *testing.T) {
	env := newTestEnv(t)
	sub := env.submit(t, uuid.New())
	adminID := uuid.New()

	approve := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/admin/payments/"+sub.ID+"/approve", nil)
		req = withURLParams(withIdentity(req, adminID, enums.RoleAdmin), "id", sub.ID)
		rr := httptest.NewRecorder()
		env.admin.Approve(rr, req)
		return rr
	}

	first := approve()
	if first.Code != http.StatusOK {
		t.Fatalf("first approve: %d %s", first.Code, first.Body.String())
	}
	var approved dto.ApprovePaymentResponse
	if err := json.Unmarshal(first.Body.Bytes(), &approved); err != nil {
		t.Fatalf("decode approve: %v", err)
	}
	if approved.Submission.Status != "approved" || approved.Enrollment.PaymentStatus != "paid" {
		t.Fatalf("unexpected approve payload: %+v", approved)
	}

	second := approve()
	if second.Code != http.StatusConflict {
		t.Fatalf("second approve: got %d want %d", second.Code, http.StatusConflict)
	}
	var apiErr httperrors.APIError
	if err := json.Unmarshal(second.Body.Bytes(), &apiErr); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if apiErr.Code != "ALREADY_REVIEWED" {
		t.Fatalf("unexpected code: %s", apiErr.Code)
	}
}

func TestRejectWithReasonAndAuditTrail(t *testing.T) {
	env := newTestEnv(t)
	sub := env.submit(t, uuid.New())
	adminID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/payments/"+sub.ID+"/reject", strings.NewReader(`{"reason":"blurry slip"}`))
	req = withURLParams(withIdentity(req, adminID, enums.RoleAdmin), "id", sub.ID)
	rr := httptest.NewRecorder()
	env.admin.Reject(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("reject: %d %s", rr.Code, rr.Body.String())
	}
	var rejected dto.PaymentSubmissionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &rejected); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rejected.Status != "rejected" || rejected.RejectionReason == nil || *rejected.RejectionReason != "blurry slip" {
		t.Fatalf("unexpected rejected payload: %+v", rejected)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/admin/payments/"+sub.ID+"/audit", nil)
	req = withURLParams(req, "id", sub.ID)
	rr = httptest.NewRecorder()
	env.admin.Audit(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("audit: %d", rr.Code)
	}
	var trail dto.AuditTrailResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &trail); err != nil {
		t.Fatalf("decode audit: %v", err)
	}
	if len(trail.Items) != 1 || trail.Items[0].Action != "rejected" || trail.Items[0].PerformedBy != adminID.String() {
		t.Fatalf("unexpected audit trail: %+v", trail.Items)
	}
}

func TestRejectWithoutBody(t *testing.T) {
	env := newTestEnv(t)
	sub := env.submit(t, uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/payments/"+sub.ID+"/reject", http.NoBody)
	req = withURLParams(withIdentity(req, uuid.New(), enums.RoleAdmin), "id", sub.ID)
	rr := httptest.NewRecorder()
	env.admin.Reject(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("reject without body: %d %s", rr.Code, rr.Body.String())
	}
}

func TestSlipURLAndListForAdmin(t *testing.T) {
	env := newTestEnv(t)
	sub := env.submit(t, uuid.New())

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/v1/admin/payments/"+sub.ID+"/slip-url", nil), "id", sub.ID)
	rr := httptest.NewRecorder()
	env.admin.SlipURL(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("slip url: %d %s", rr.Code, rr.Body.String())
	}
	var signed dto.SignedURLResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &signed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if signed.URL == "" || signed.ExpiresAt.IsZero() {
		t.Fatalf("unexpected signed url: %+v", signed)
	}

	rr = httptest.NewRecorder()
	env.admin.List(rr, httptest.NewRequest(http.MethodGet, "/v1/admin/payments?status=pending&q=nand", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("list: %d", rr.Code)
	}
	var list dto.PaymentSubmissionsListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].Course == nil || list.Items[0].Course.Title != env.course.Title {
		t.Fatalf("unexpected list: %+v", list.Items)
	}

	rr = httptest.NewRecorder()
	env.admin.List(rr, httptest.NewRequest(http.MethodGet, "/v1/admin/payments?status=weird", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rr.Code)
	}
}

func TestLessonAccess(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()

	access := func(index string) (int, dto.LessonAccessResponse) {
		req := httptest.NewRequest(http.MethodGet, "/v1/courses/x/lessons/"+index+"/access", nil)
		req = withURLParams(withIdentity(req, userID), "id", env.course.ID.String(), "index", index)
		rr := httptest.NewRecorder()
		env.courses.LessonAccess(rr, req)
		var payload dto.LessonAccessResponse
		_ = json.Unmarshal(rr.Body.Bytes(), &payload)
		return rr.Code, payload
	}

	if code, got := access("0"); code != http.StatusOK || !got.Allowed {
		t.Fatalf("lesson 0 must be open: %d %+v", code, got)
	}
	if code, got := access("2"); code != http.StatusOK || got.Allowed {
		t.Fatalf("lesson 2 must be locked: %d %+v", code, got)
	}
	if code, _ := access("-1"); code != http.StatusBadRequest {
		t.Fatalf("negative index must be 400, got %d", code)
	}
}
