package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ASK10520/codeplay-spark/internal/config"
	s3infra "github.com/ASK10520/codeplay-spark/internal/infra/s3"
	"github.com/ASK10520/codeplay-spark/internal/jobs/reconcile"
	"github.com/ASK10520/codeplay-spark/internal/repo"
	memrepo "github.com/ASK10520/codeplay-spark/internal/repo/memory"
	pgrepo "github.com/ASK10520/codeplay-spark/internal/repo/postgres"
	redrepo "github.com/ASK10520/codeplay-spark/internal/repo/redis"
	accesssvc "github.com/ASK10520/codeplay-spark/internal/services/access"
	auditsvc "github.com/ASK10520/codeplay-spark/internal/services/audit"
	authsvc "github.com/ASK10520/codeplay-spark/internal/services/auth"
	coursesvc "github.com/ASK10520/codeplay-spark/internal/services/courses"
	enrollmentsvc "github.com/ASK10520/codeplay-spark/internal/services/enrollment"
	lessonsvc "github.com/ASK10520/codeplay-spark/internal/services/lessons"
	paymentsvc "github.com/ASK10520/codeplay-spark/internal/services/payments"
	ratesvc "github.com/ASK10520/codeplay-spark/internal/services/rate"
	"github.com/ASK10520/codeplay-spark/internal/services/slips"
	teachersvc "github.com/ASK10520/codeplay-spark/internal/services/teachers"
	"github.com/ASK10520/codeplay-spark/internal/transport/http/handlers"
)

const submitRateScope = "payments_submit"

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	reconciler *reconcile.Job
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var (
		pool   *pgxpool.Pool
		store  repo.Store
		pinger handlers.Pinger
		slipOS slips.ObjectStorage
	)
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		store = memrepo.NewStore()
		slipOS = slips.NewMemoryStorage("")
	default:
		p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		pool = p
		if cfg.Postgres.AutoMigrate {
			if err := pgrepo.Migrate(ctx, pool, "up"); err != nil {
				log.Warn("postgres migrations failed, continuing in degraded mode", zap.Error(err))
			}
		}
		pgStore := pgrepo.NewStore(pool)
		store = pgStore
		pinger = pgStore
		slipOS = newS3SlipStorage(ctx, cfg, log)
	}

	var (
		redisClient *goredis.Client
		idempotency paymentsvc.IdempotencyStore
		limiter     paymentsvc.RateLimiter
	)
	if client := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); client != nil {
		redisClient = client
		idempotency = redrepo.NewIdempotencyRepo(client)
		limiter = ratesvc.NewLimiter(
			redrepo.NewQuotaRepo(client),
			submitRateScope,
			cfg.Payments.SubmitLimit,
			cfg.Payments.SubmitWindow,
		)
	} else {
		log.Warn("redis is not configured, idempotency keys and submit throttling are disabled")
	}

	slipService := slips.NewService(slipOS, slips.Config{
		MaxBytes:  cfg.Payments.MaxSlipBytes,
		SignedTTL: cfg.Payments.SignedURLTTL,
	})
	auditService := auditsvc.NewService(store)
	courseService := coursesvc.NewService(store)
	accessService := accesssvc.NewService(store)
	paymentService := paymentsvc.NewService(paymentsvc.Dependencies{
		Courses:        store,
		Submissions:    store,
		Slips:          slipService,
		Idempotency:    idempotency,
		Limiter:        limiter,
		IdempotencyTTL: cfg.Payments.IdempotencyTTL,
		Logger:         log,
	})
	enrollmentService := enrollmentsvc.NewService(enrollmentsvc.Dependencies{
		Store:  store,
		Audit:  auditService,
		Logger: log,
	})
	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		JWTManager:        jwtManager,
		PaymentService:    paymentService,
		EnrollmentService: enrollmentService,
		AuditService:      auditService,
		CourseService:     courseService,
		AccessService:     accessService,
		LessonService:     lessonsvc.NewService(store),
		TeacherService:    teachersvc.NewService(store),
		DB:                pinger,
		Logger:            log,
		Config:            cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		reconciler: reconcile.New(enrollmentService, cfg.Jobs.ReconcileSchedule, log),
		httpRouter: r,
	}, nil
}

// newS3SlipStorage never fails; uploads surface storage errors until the
// bucket becomes reachable.
func newS3SlipStorage(ctx context.Context, cfg config.Config, log *zap.Logger) slips.ObjectStorage {
	client, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	})
	if err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	}

	storage := slips.NewS3Storage(client, cfg.S3.Bucket)
	if client != nil {
		if err := storage.EnsureBucket(ctx); err != nil {
			log.Warn("ensure slip bucket failed", zap.String("bucket", cfg.S3.Bucket), zap.Error(err))
		}
	}
	return storage
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// RunJobs blocks until ctx is done.
func (a *App) RunJobs(ctx context.Context) error {
	return a.reconciler.Start(ctx)
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
