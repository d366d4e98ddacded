package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/tasklane/apiserver/config"
	"github.com/tasklane/apiserver/internal/db"
	"github.com/tasklane/apiserver/internal/handlers"
	"github.com/tasklane/apiserver/internal/mq"
	"github.com/tasklane/apiserver/internal/services"
	"github.com/tasklane/apiserver/internal/store"
)

const (
	readTimeout  = 15 * time.Second
	writeTimeout = 15 * time.Second
	idleTimeout  = 60 * time.Second

	// requestTimeout cancels handler contexts before writeTimeout cuts the
	// connection, so a slow request still gets a 504 response.
	requestTimeout = 10 * time.Second
)

// Server wraps the HTTP server and the resources it owns.
type Server struct {
	httpServer *http.Server
	logger     logrus.FieldLogger
	db         *sql.DB
	redis      *redis.Client
	events     *mq.MQ
}

// Repositories bundles the user and task stores.
type Repositories struct {
	Users services.UserRepository
	Tasks services.TaskRepository
}

// OpenRepositories opens the stores selected by cfg.Database.Driver. The
// returned *sql.DB is nil for the memory driver.
func OpenRepositories(ctx context.Context, cfg config.Config) (Repositories, *sql.DB, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		return Repositories{
			Users: store.NewMemoryUserRepository(),
			Tasks: store.NewMemoryTaskRepository(),
		}, nil, nil
	case config.DriverPostgres, "":
		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return Repositories{}, nil, err
		}
		return Repositories{
			Users: store.NewUserRepository(dbConn),
			Tasks: store.NewTaskRepository(dbConn),
		}, dbConn, nil
	default:
		return Repositories{}, nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
}

// New constructs a Server from configuration.
func New(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*Server, error) {
	tokens, err := services.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, errors.New("JWT_SECRET is required")
	}

	repos, dbConn, err := OpenRepositories(ctx, cfg)
	if err != nil {
		return nil, err
	}

	srv := &Server{logger: logger, db: dbConn}

	events, err := mq.NewFromConfig(ctx, cfg.Events)
	if err != nil {
		srv.close()
		return nil, fmt.Errorf("init events backend: %w", err)
	}
	srv.events = events

	var publisher services.TaskEventPublisher = services.NopPublisher{}
	if events != nil {
		publisher = mq.NewTaskEventPublisher(events, cfg.Events.Topic)
		logger.WithFields(logrus.Fields{"backend": cfg.Events.Backend, "topic": cfg.Events.Topic}).Info("task events enabled")
	}

	var limiter func(http.Handler) http.Handler
	if cfg.Redis.Addr != "" {
		srv.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		limiter = handlers.RateLimit(srv.redis, cfg.RateLimit.Max, cfg.RateLimit.Window, logger)
		logger.WithField("addr", cfg.Redis.Addr).Info("auth rate limiting enabled")
	}

	authService := services.NewAuthService(repos.Users, tokens, logger)
	taskService := services.NewTaskService(repos.Tasks, publisher, logger)

	router := NewRouter(RouterDeps{
		AuthService:    authService,
		TaskService:    taskService,
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
		AuthLimiter:    limiter,
		Started:        time.Now(),
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	srv.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	return srv, nil
}

// Handler exposes the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases owned resources.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.close()
	return err
}

func (s *Server) close() {
	if s.events != nil {
		_ = s.events.Close()
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}
