// Package api exposes the HTTP surface: auth, profile completion, uploads,
// summaries, tasks, and the role-driven menu/dashboard descriptors.
package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bridgesync/bridgesync/internal/auth"
	"github.com/bridgesync/bridgesync/internal/config"
	"github.com/bridgesync/bridgesync/internal/model"
	"github.com/bridgesync/bridgesync/internal/presenter"
	"github.com/bridgesync/bridgesync/internal/queue"
	"github.com/bridgesync/bridgesync/internal/uploader"
)

// AuthService is the session accessor surface the handlers consume.
type AuthService interface {
	SignUp(ctx context.Context, email, password string) (*auth.Session, error)
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	PrincipalFromToken(ctx context.Context, token string) (model.Principal, error)
}

// ProfileStore reads and upserts completed profiles.
type ProfileStore interface {
	Upsert(ctx context.Context, p *model.Profile) error
	Get(ctx context.Context, id string) (*model.Profile, error)
}

// UploadPipeline is the upload orchestrator surface.
type UploadPipeline interface {
	Upload(ctx context.Context, file io.Reader, size int64, filename, contentType string) (*uploader.Result, error)
}

// UploadLister is the list presenter surface.
type UploadLister interface {
	ListUploads(ctx context.Context, principal model.Principal) ([]presenter.PresentedUpload, error)
}

// SummaryLister lists call summaries.
type SummaryLister interface {
	List(ctx context.Context) ([]model.Summary, error)
}

// TaskStore lists and updates tasks.
type TaskStore interface {
	List(ctx context.Context) ([]model.Task, error)
	ListAssignedTo(ctx context.Context, userID string) ([]model.Task, error)
	SetStatus(ctx context.Context, id string, status model.TaskStatus) error
}

// Enqueuer schedules post-upload processing.
type Enqueuer interface {
	EnqueueProcess(ctx context.Context, payload queue.ProcessPayload) error
}

// API holds the handler dependencies.
type API struct {
	cfg       *config.Config
	auth      AuthService
	profiles  ProfileStore
	uploads   UploadPipeline
	lister    UploadLister
	summaries SummaryLister
	tasks     TaskStore
	enqueuer  Enqueuer
	logger    *slog.Logger
}

// NewAPI constructs the handler set.
func NewAPI(cfg *config.Config, authSvc AuthService, profiles ProfileStore, uploads UploadPipeline, lister UploadLister, summaries SummaryLister, tasks TaskStore, enqueuer Enqueuer, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		cfg:       cfg,
		auth:      authSvc,
		profiles:  profiles,
		uploads:   uploads,
		lister:    lister,
		summaries: summaries,
		tasks:     tasks,
		enqueuer:  enqueuer,
		logger:    logger,
	}
}

// Engine builds the gin engine with middleware and routes.
func (a *API) Engine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger(a.logger))
	engine.Use(CORS())
	engine.Use(MaxBodySize(a.cfg.MaxFileSize + 1024))
	a.registerRoutes(engine)
	return engine
}

func (a *API) registerRoutes(r *gin.Engine) {
	r.GET("/healthz", a.handleHealth)

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/auth/signup", a.handleSignup)
		apiGroup.POST("/auth/login", a.handleLogin)

		authed := apiGroup.Group("", a.RequireAuth())
		{
			authed.GET("/profile", a.handleGetProfile)
			authed.PUT("/profile", a.handlePutProfile)
			authed.GET("/menu", a.handleMenu)
			authed.GET("/dashboard", a.handleDashboard)

			authed.POST("/uploads", a.RequireRole(model.RoleSales), a.handleUpload)
			authed.GET("/uploads", a.RequireRole(model.RoleSales), a.handleListUploads)

			authed.GET("/summaries", a.RequireRole(model.RolePM), a.handleSummaries)

			authed.GET("/tasks", a.RequireRole(model.RolePM, model.RoleDev), a.handleTasks)
			authed.PATCH("/tasks/:id", a.RequireRole(model.RolePM, model.RoleDev), a.handlePatchTask)
		}
	}
}

// Server runs the engine with graceful shutdown.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer wraps the API in an http.Server.
func NewServer(cfg *config.Config, a *API, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		server: &http.Server{
			Addr:    cfg.Address,
			Handler: a.Engine(),
		},
		logger: logger,
	}
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
	s.logger.Info("api listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
