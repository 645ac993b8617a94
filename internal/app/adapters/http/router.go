package http

import (
	"context"
	"errors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"log/slog"
	"metacity/internal/app/adapters/http/handlers"
	"metacity/internal/app/adapters/http/middlewares"
	"metacity/internal/app/infrastructure/config"
	"metacity/pkg/logger"
	"net/http"
	"time"
)

type Router struct {
	router      *gin.Engine
	handlers    *handlers.Handlers
	middlewares *middlewares.Middlewares

	log     logger.Logger
	manager *config.Manager
}

func NewRouter(log logger.Logger, manager *config.Manager, session handlers.Session) *Router {
	r := &Router{
		router:      gin.New(),
		handlers:    handlers.New(log, session),
		middlewares: middlewares.New(),
		log:         log,
		manager:     manager,
	}
	r.router.Use(gin.Recovery())
	cfg := manager.Get()

	if cfg.App.AuthToken != "" {
		pprofGroup := r.router.Group("/", gin.BasicAuth(gin.Accounts{
			"admin": cfg.App.AuthToken,
		}))
		pprof.Register(pprofGroup)

		r.router.GET("/metrics", gin.BasicAuth(gin.Accounts{
			"admin": cfg.App.AuthToken,
		}), gin.WrapH(promhttp.Handler()))
	} else {
		log.Warn("app.auth_token is empty, /metrics and pprof are disabled")
	}

	r.router.GET("/", r.handlers.Index)
	r.router.GET("/auth/login", r.handlers.Login)
	r.router.GET("/auth/callback", r.handlers.Callback)
	r.router.GET("/api/health", r.handlers.Health)

	api := r.router.Group("/api", r.middlewares.Auth(cfg.App.AuthToken))
	{
		api.GET("/state", r.handlers.State)
		api.GET("/events", r.handlers.Events)
		api.POST("/logout", r.handlers.Logout)

		api.POST("/chat/join", r.handlers.JoinChat)
		api.POST("/chat/leave", r.handlers.LeaveChat)
		api.POST("/chat/send", r.handlers.SendMessage)

		api.POST("/proposals", r.handlers.CreateProposal)
		api.POST("/proposals/:id/end", r.handlers.EndProposal)

		api.POST("/requests/:id/approve", r.handlers.ApproveRequest)
		api.POST("/requests/:id/reject", r.handlers.RejectRequest)

		api.POST("/rewards/claim", r.handlers.ClaimRewards)

		api.POST("/stream/start", r.handlers.StartStream)
		api.POST("/stream/stop", r.handlers.StopStream)
	}

	return r
}

func (r *Router) Handler() http.Handler {
	return r.router
}

// Run serves until ctx is done, then drains in-flight requests.
func (r *Router) Run(ctx context.Context) error {
	srv := r.newServer(r.manager.Get().App.Addr, r.router)

	errCh := make(chan error, 1)
	go func() {
		r.log.Info("HTTP server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (r *Router) newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
}
