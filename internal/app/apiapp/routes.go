package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ASK10520/codeplay-spark/internal/config"
	"github.com/ASK10520/codeplay-spark/internal/domain/enums"
	accesssvc "github.com/ASK10520/codeplay-spark/internal/services/access"
	auditsvc "github.com/ASK10520/codeplay-spark/internal/services/audit"
	authsvc "github.com/ASK10520/codeplay-spark/internal/services/auth"
	coursesvc "github.com/ASK10520/codeplay-spark/internal/services/courses"
	enrollmentsvc "github.com/ASK10520/codeplay-spark/internal/services/enrollment"
	lessonsvc "github.com/ASK10520/codeplay-spark/internal/services/lessons"
	paymentsvc "github.com/ASK10520/codeplay-spark/internal/services/payments"
	teachersvc "github.com/ASK10520/codeplay-spark/internal/services/teachers"
	"github.com/ASK10520/codeplay-spark/internal/transport/http/handlers"
)

type Dependencies struct {
	JWTManager        *authsvc.JWTManager
	PaymentService    *paymentsvc.Service
	EnrollmentService *enrollmentsvc.Service
	AuditService      *auditsvc.Service
	CourseService     *coursesvc.Service
	AccessService     *accesssvc.Service
	LessonService     *lessonsvc.Service
	TeacherService    *teachersvc.Service
	// DB is nil for the in-memory driver.
	DB     handlers.Pinger
	Logger *zap.Logger
	Config config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.DB)
	paymentsHandler := handlers.NewPaymentsHandler(deps.PaymentService, deps.Config.Payments.MaxSlipBytes)
	adminPaymentsHandler := handlers.NewAdminPaymentsHandler(deps.PaymentService, deps.EnrollmentService, deps.AuditService)
	coursesHandler := handlers.NewCoursesHandler(deps.CourseService, deps.AccessService)
	enrollmentsHandler := handlers.NewEnrollmentsHandler(deps.EnrollmentService)
	lessonsHandler := handlers.NewLessonsHandler(deps.LessonService)
	teachersHandler := handlers.NewTeachersHandler(deps.TeacherService)

	authMW := AuthMiddleware(deps.JWTManager, deps.Logger)
	adminRoleMW := RequireRole(string(enums.RoleAdmin))
	authorRoleMW := RequireRole(string(enums.RoleTeacher), string(enums.RoleAdmin))

	r.Get("/healthz", healthHandler.Get)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/payments", func(r chi.Router) {
			r.Use(authMW)
			r.Post("/", paymentsHandler.Submit)
			r.Get("/status", paymentsHandler.LatestStatus)
		})

		r.Route("/admin/payments", func(r chi.Router) {
			r.Use(authMW, adminRoleMW)
			r.Get("/", adminPaymentsHandler.List)
			r.Get("/stats", adminPaymentsHandler.Stats)
			r.Post("/{id}/approve", adminPaymentsHandler.Approve)
			r.Post("/{id}/reject", adminPaymentsHandler.Reject)
			r.Get("/{id}/slip-url", adminPaymentsHandler.SlipURL)
			r.Get("/{id}/audit", adminPaymentsHandler.Audit)
		})

		r.Route("/courses", func(r chi.Router) {
			r.Get("/", coursesHandler.List)
			r.Get("/{id}", coursesHandler.Get)
			r.With(authMW, authorRoleMW).Post("/", coursesHandler.Create)
			r.With(authMW, authorRoleMW).Patch("/{id}", coursesHandler.Update)
			r.With(authMW, authorRoleMW).Delete("/{id}", coursesHandler.Delete)
			r.With(authMW).Get("/{id}/lessons", lessonsHandler.List)
			r.With(authMW, authorRoleMW).Post("/{id}/lessons", lessonsHandler.Create)
			r.With(authMW).Get("/{id}/lessons/{index}/access", coursesHandler.LessonAccess)
		})

		r.Route("/lessons", func(r chi.Router) {
			r.Use(authMW)
			r.Get("/{id}", lessonsHandler.Get)
			r.With(authorRoleMW).Patch("/{id}", lessonsHandler.Update)
			r.With(authorRoleMW).Delete("/{id}", lessonsHandler.Delete)
		})

		r.Route("/teachers", func(r chi.Router) {
			r.Get("/", teachersHandler.List)
			r.Get("/{id}", teachersHandler.Get)
			r.With(authMW, adminRoleMW).Post("/", teachersHandler.Create)
			r.With(authMW, adminRoleMW).Patch("/{id}", teachersHandler.Update)
			r.With(authMW, adminRoleMW).Delete("/{id}", teachersHandler.Delete)
		})

		r.Route("/enrollments", func(r chi.Router) {
			r.Use(authMW)
			r.Get("/", enrollmentsHandler.List)
			r.Post("/free", enrollmentsHandler.EnrollFree)
			r.Patch("/{id}/progress", enrollmentsHandler.UpdateProgress)
		})
	})
}
