package payments

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ASK10520/codeplay-spark/internal/domain/enums"
	"github.com/ASK10520/codeplay-spark/internal/domain/model"
	"github.com/ASK10520/codeplay-spark/internal/pkg/apperr"
	"github.com/ASK10520/codeplay-spark/internal/repo/memory"
	redisrepo "github.com/ASK10520/codeplay-spark/internal/repo/redis"
	"github.com/ASK10520/codeplay-spark/internal/services/rate"
	"github.com/ASK10520/codeplay-spark/internal/services/slips"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type fixture struct {
	store   *memory.Store
	storage *slips.MemoryStorage
	course  model.Course
	svc     *Service
}

func newFixture(t *testing.T, deps Dependencies) fixture {
	t.Helper()

	store := memory.NewStore()
	course, err := store.CreateCourse(context.Background(), model.Course{
		Title:        "Scratch for Kids",
		Category:     "coding",
		AgeGroup:     "6-8",
		Difficulty:   "beginner",
		TotalLessons: 8,
		Price:        150000,
		IsPremium:    true,
	})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}

	storage := slips.NewMemoryStorage("")
	if deps.Courses == nil {
		deps.Courses = store
	}
	if deps.Submissions == nil {
		deps.Submissions = store
	}
	if deps.Slips == nil {
		deps.Slips = slips.NewService(storage, slips.Config{})
	}

	return fixture{store: store, storage: storage, course: course, svc: NewService(deps)}
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func pngSlip() *slips.Slip {
	return &slips.Slip{
		FileName:    "slip.png",
		ContentType: "image/png",
		Size:        int64(len(pngBytes)),
		Body:        bytes.NewReader(pngBytes),
	}
}

func validInput(userID, courseID uuid.UUID) SubmitInput {
	phone := " 09123456789 "
	return SubmitInput{
		UserID:        userID,
		CourseID:      courseID,
		StudentName:   "  Aye Chan  ",
		PhoneNumber:   &phone,
		PaymentMethod: "KBZ_PAY",
		CourseFee:     150000,
		Slip:          pngSlip(),
	}
}

func TestSubmitCreatesPendingSubmission(t *testing.T) {
	f := newFixture(t, Dependencies{})
	userID := uuid.New()

	sub, err := f.svc.Submit(context.Background(), validInput(userID, f.course.ID))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if sub.Status != enums.SubmissionStatusPending {
		t.Fatalf("expected pending, got %s", sub.Status)
	}
	if sub.StudentName != "Aye Chan" {
		t.Fatalf("student name not trimmed: %q", sub.StudentName)
	}
	if sub.PhoneNumber == nil || *sub.PhoneNumber != "09123456789" {
		t.Fatalf("unexpected phone: %v", sub.PhoneNumber)
	}
	if sub.PaymentMethod != enums.PaymentMethodKBZPay {
		t.Fatalf("unexpected method: %s", sub.PaymentMethod)
	}
	if sub.ReviewedBy != nil || sub.ReviewedAt != nil || sub.RejectionReason != nil {
		t.Fatalf("fresh submission must not carry review data: %+v", sub)
	}
	if !strings.HasPrefix(sub.SlipKey, userID.String()+"/") {
		t.Fatalf("slip key not scoped to user: %s", sub.SlipKey)
	}
	if !f.storage.Has(sub.SlipKey) {
		t.Fatalf("slip object missing")
	}
}

func TestSubmitValidationDoesNotUpload(t *testing.T) {
	f := newFixture(t, Dependencies{})

	in := validInput(uuid.New(), f.course.ID)
	in.StudentName = "   "
	in.PaymentMethod = "cash"
	in.CourseFee = -1
	in.Slip = nil

	_, err := f.svc.Submit(context.Background(), in)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	appErr, _ := apperr.As(err)
	for _, field := range []string{"student_name", "payment_method", "course_fee", "slip"} {
		if appErr.Fields[field] == "" {
			t.Fatalf("expected problem for %s, got %+v", field, appErr.Fields)
		}
	}
	if f.storage.Len() != 0 {
		t.Fatalf("nothing should be uploaded, got %d objects", f.storage.Len())
	}
}

func TestSubmitRejectsOversizedSlip(t *testing.T) {
	f := newFixture(t, Dependencies{})

	in := validInput(uuid.New(), f.course.ID)
	in.Slip.Size = slips.DefaultMaxBytes + 1

	_, err := f.svc.Submit(context.Background(), in)
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind != apperr.KindValidation || appErr.Fields["slip"] == "" {
		t.Fatalf("expected slip validation error, got %v", err)
	}
}

func TestSubmitUnknownCourseIsNotFound(t *testing.T) {
	f := newFixture(t, Dependencies{})

	_, err := f.svc.Submit(context.Background(), validInput(uuid.New(), uuid.New()))
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if f.storage.Len() != 0 {
		t.Fatalf("no slip should be uploaded for an unknown course")
	}
}

type failingSubmissions struct {
	*memory.Store
	err error
}

func (f failingSubmissions) CreateSubmission(context.Context, model.PaymentSubmission) (model.PaymentSubmission, error) {
	return model.PaymentSubmission{}, f.err
}

func TestSubmitDiscardsSlipWhenInsertFails(t *testing.T) {
	store := memory.NewStore()
	course, err := store.CreateCourse(context.Background(), model.Course{Title: "Python", Category: "coding", AgeGroup: "9-12", Difficulty: "beginner"})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}
	storage := slips.NewMemoryStorage("")
	svc := NewService(Dependencies{
		Courses:     store,
		Submissions: failingSubmissions{Store: store, err: errors.New("connection reset")},
		Slips:       slips.NewService(storage, slips.Config{}),
	})

	_, err = svc.Submit(context.Background(), validInput(uuid.New(), course.ID))
	if !errors.Is(err, apperr.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if storage.Len() != 0 {
		t.Fatalf("orphaned slip left behind: %d objects", storage.Len())
	}
}

func TestSubmitWithIdempotencyKeyReplaysOriginal(t *testing.T) {
	_, client := newRedis(t)
	f := newFixture(t, Dependencies{Idempotency: redisrepo.NewIdempotencyRepo(client)})
	userID := uuid.New()

	in := validInput(userID, f.course.ID)
	in.IdempotencyKey = "req-1"
	first, err := f.svc.Submit(context.Background(), in)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	retry := validInput(userID, f.course.ID)
	retry.IdempotencyKey = "req-1"
	second, err := f.svc.Submit(context.Background(), retry)
	if err != nil {
		t.Fatalf("retry submit: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("retry created a new submission: %s vs %s", first.ID, second.ID)
	}
	if f.storage.Len() != 1 {
		t.Fatalf("expected a single uploaded slip, got %d", f.storage.Len())
	}
	stats, err := f.svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 1 {
		t.Fatalf("expected one stored submission, got %d", stats.Total)
	}
}

func TestSubmitInFlightKeyIsConflict(t *testing.T) {
	_, client := newRedis(t)
	idem := redisrepo.NewIdempotencyRepo(client)
	f := newFixture(t, Dependencies{Idempotency: idem})
	userID := uuid.New()

	if _, reserved, err := idem.Reserve(context.Background(), userID.String()+":req-2", time.Minute); err != nil || !reserved {
		t.Fatalf("pre-reserve: reserved=%v err=%v", reserved, err)
	}

	in := validInput(userID, f.course.ID)
	in.IdempotencyKey = "req-2"
	if _, err := f.svc.Submit(context.Background(), in); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestSubmitReleasesKeyAfterFailure(t *testing.T) {
	_, client := newRedis(t)
	f := newFixture(t, Dependencies{Idempotency: redisrepo.NewIdempotencyRepo(client)})
	userID := uuid.New()

	bad := validInput(userID, uuid.New())
	bad.IdempotencyKey = "req-3"
	if _, err := f.svc.Submit(context.Background(), bad); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	good := validInput(userID, f.course.ID)
	good.IdempotencyKey = "req-3"
	if _, err := f.svc.Submit(context.Background(), good); err != nil {
		t.Fatalf("retry after failure should succeed: %v", err)
	}
}

func TestSubmitIsThrottledPerUser(t *testing.T) {
	_, client := newRedis(t)
	limiter := rate.NewLimiter(redisrepo.NewQuotaRepo(client), "payments_submit", 2, 10*time.Minute)
	f := newFixture(t, Dependencies{Limiter: limiter})
	userID := uuid.New()

	for i := 0; i < 2; i++ {
		if _, err := f.svc.Submit(context.Background(), validInput(userID, f.course.ID)); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	_, err := f.svc.Submit(context.Background(), validInput(userID, f.course.ID))
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind != apperr.KindRateLimited {
		t.Fatalf("expected rate limited, got %v", err)
	}
	if appErr.RetryAfterSec <= 0 {
		t.Fatalf("expected positive retry-after, got %d", appErr.RetryAfterSec)
	}

	if _, err := f.svc.Submit(context.Background(), validInput(uuid.New(), f.course.ID)); err != nil {
		t.Fatalf("another user must not be throttled: %v", err)
	}
}

func TestReplaysDoNotSpendSubmitQuota(t *testing.T) {
	_, client := newRedis(t)
	limiter := rate.NewLimiter(redisrepo.NewQuotaRepo(client), "payments_submit", 1, 10*time.Minute)
	f := newFixture(t, Dependencies{
		Idempotency: redisrepo.NewIdempotencyRepo(client),
		Limiter:     limiter,
	})
	userID := uuid.New()

	in := validInput(userID, f.course.ID)
	in.IdempotencyKey = "req-q"
	first, err := f.svc.Submit(context.Background(), in)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	for i := 0; i < 3; i++ {
		retry := validInput(userID, f.course.ID)
		retry.IdempotencyKey = "req-q"
		got, err := f.svc.Submit(context.Background(), retry)
		if err != nil {
			t.Fatalf("replay %d must not be throttled: %v", i, err)
		}
		if got.ID != first.ID {
			t.Fatalf("replay %d returned %s, want %s", i, got.ID, first.ID)
		}
	}

	fresh := validInput(userID, f.course.ID)
	fresh.IdempotencyKey = "req-new"
	if _, err := f.svc.Submit(context.Background(), fresh); !errors.Is(err, apperr.ErrRateLimited) {
		t.Fatalf("expected a new key to be throttled, got %v", err)
	}

	// the throttled key was released, so it does not read as in flight
	if _, reserved, err := redisrepo.NewIdempotencyRepo(client).Reserve(context.Background(), userID.String()+":req-new", time.Minute); err != nil || !reserved {
		t.Fatalf("throttled key must be released: reserved=%v err=%v", reserved, err)
	}
}

func TestLatestStatus(t *testing.T) {
	f := newFixture(t, Dependencies{})
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	tick := 0
	f.store.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})
	userID := uuid.New()

	if _, found, err := f.svc.LatestStatus(context.Background(), userID, f.course.ID); err != nil || found {
		t.Fatalf("expected nothing yet: found=%v err=%v", found, err)
	}

	if _, err := f.svc.Submit(context.Background(), validInput(userID, f.course.ID)); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := f.svc.Submit(context.Background(), validInput(userID, f.course.ID))
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}

	latest, found, err := f.svc.LatestStatus(context.Background(), userID, f.course.ID)
	if err != nil || !found {
		t.Fatalf("latest status: found=%v err=%v", found, err)
	}
	if latest.SubmissionID != second.ID || latest.Status != enums.SubmissionStatusPending {
		t.Fatalf("unexpected latest: %+v", latest)
	}
}

func TestListFiltersAndSearch(t *testing.T) {
	f := newFixture(t, Dependencies{})

	first := validInput(uuid.New(), f.course.ID)
	first.StudentName = "Aye Chan"
	if _, err := f.svc.Submit(context.Background(), first); err != nil {
		t.Fatalf("submit first: %v", err)
	}
	second := validInput(uuid.New(), f.course.ID)
	second.StudentName = "Min Thu"
	second.PaymentMethod = "aya_pay"
	phone := "09777000111"
	second.PhoneNumber = &phone
	if _, err := f.svc.Submit(context.Background(), second); err != nil {
		t.Fatalf("submit second: %v", err)
	}

	items, err := f.svc.List(context.Background(), ListFilter{Search: "aye"})
	if err != nil {
		t.Fatalf("list by name: %v", err)
	}
	if len(items) != 1 || items[0].StudentName != "Aye Chan" {
		t.Fatalf("unexpected name search result: %+v", items)
	}
	if items[0].Course.Title != f.course.Title {
		t.Fatalf("course summary not joined: %+v", items[0].Course)
	}

	items, err = f.svc.List(context.Background(), ListFilter{Search: "777000"})
	if err != nil || len(items) != 1 || items[0].StudentName != "Min Thu" {
		t.Fatalf("unexpected phone search result: %+v err=%v", items, err)
	}

	items, err = f.svc.List(context.Background(), ListFilter{Method: "aya_pay", Status: "pending"})
	if err != nil || len(items) != 1 {
		t.Fatalf("unexpected method filter result: %+v err=%v", items, err)
	}

	if _, err := f.svc.List(context.Background(), ListFilter{Status: "done"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}

func TestSlipURLForSubmission(t *testing.T) {
	f := newFixture(t, Dependencies{})

	sub, err := f.svc.Submit(context.Background(), validInput(uuid.New(), f.course.ID))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	signed, err := f.svc.SlipURLForSubmission(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("signed url: %v", err)
	}
	if !strings.Contains(signed.URL, "expires_in=3600") {
		t.Fatalf("expected one hour expiry in %s", signed.URL)
	}

	if _, err := f.svc.SlipURLForSubmission(context.Background(), uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConcurrentSubmitsWithSameKeyCreateOneRow(t *testing.T) {
	_, client := newRedis(t)
	f := newFixture(t, Dependencies{Idempotency: redisrepo.NewIdempotencyRepo(client)})
	userID := uuid.New()

	var wg sync.WaitGroup
	results := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in := validInput(userID, f.course.ID)
			in.IdempotencyKey = "burst"
			_, err := f.svc.Submit(context.Background(), in)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	for err := range results {
		if err != nil && !errors.Is(err, apperr.ErrConflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	stats, err := f.svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 1 {
		t.Fatalf("expected exactly one submission, got %d", stats.Total)
	}
}
