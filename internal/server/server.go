package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	accountdomain "github.com/smallbiznis/inkpost/internal/account/domain"
	authdomain "github.com/smallbiznis/inkpost/internal/auth/domain"
	billingcustomerdomain "github.com/smallbiznis/inkpost/internal/billingcustomer/domain"
	"github.com/smallbiznis/inkpost/internal/config"
	"github.com/smallbiznis/inkpost/internal/observability"
	obslogger "github.com/smallbiznis/inkpost/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/inkpost/internal/observability/metrics"
	obstracing "github.com/smallbiznis/inkpost/internal/observability/tracing"
	postdomain "github.com/smallbiznis/inkpost/internal/post/domain"
	"github.com/smallbiznis/inkpost/internal/providers/payment"
	"github.com/smallbiznis/inkpost/internal/ratelimit"
	subscriptiondomain "github.com/smallbiznis/inkpost/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	authsvc         authdomain.Service
	accountSvc      accountdomain.Service
	postSvc         postdomain.Service
	customerSvc     billingcustomerdomain.Service
	subscriptionSvc subscriptiondomain.Service
	payments        payment.Provider
	authLimiter     *ratelimit.AuthLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	Authsvc         authdomain.Service
	AccountSvc      accountdomain.Service
	PostSvc         postdomain.Service
	CustomerSvc     billingcustomerdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	Payments        payment.Provider
	AuthLimiter     *ratelimit.AuthLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		authsvc:         p.Authsvc,
		accountSvc:      p.AccountSvc,
		postSvc:         p.PostSvc,
		customerSvc:     p.CustomerSvc,
		subscriptionSvc: p.SubscriptionSvc,
		payments:        p.Payments,
		authLimiter:     p.AuthLimiter,
	}

	svc.registerHealthRoutes()
	svc.registerAccountRoutes()
	svc.registerPostRoutes()
	svc.registerBillingRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerHealthRoutes() {
	s.engine.GET("/health", s.Health)
}

func (s *Server) registerAccountRoutes() {
	r := s.engine

	r.POST("/register/", s.Register)
	r.POST("/login/", s.RateLimit(ratelimit.ScopeLogin), s.Login)
	r.POST("/api/token/", s.RateLimit(ratelimit.ScopeLogin), s.Login)
	r.POST("/api/token/refresh/", s.RefreshToken)
	r.POST("/api/token/verify/", s.VerifyToken)

	r.POST("/password_reset/", s.RateLimit(ratelimit.ScopePasswordReset), s.RequestPasswordReset)
	r.POST("/password_reset_confirm/", s.RateLimit(ratelimit.ScopePasswordReset), s.ConfirmPasswordReset)

	r.GET("/all_users/", s.AuthRequired(), s.ListAccounts)
	r.GET("/loggedin_user/", s.AuthRequired(), s.LoggedInAccount)
}

func (s *Server) registerPostRoutes() {
	r := s.engine

	r.GET("/posts/get/", s.ListPublishedPosts)
	r.POST("/post/new/", s.AuthRequired(), s.CreatePost)
	r.GET("/posts/:id/", s.GetPost)
	r.PATCH("/posts/:id/", s.AuthRequired(), s.UpdatePost)
	r.DELETE("/posts/:id/", s.AuthRequired(), s.DeletePost)
	r.GET("/author/posts/:author_id/", s.AuthRequired(), s.ListAuthorPosts)
}

func (s *Server) registerBillingRoutes() {
	r := s.engine

	r.POST("/register/customer/", s.AuthRequired(), s.RegisterCustomer)
	if !s.cfg.IsProduction() {
		r.POST("/create_payment_method/", s.AuthRequired(), s.CreateTestPaymentMethod)
	}

	sub := r.Group("/subscription", s.AuthRequired())
	{
		sub.POST("/create/", s.CreateSubscription)
		sub.POST("/update/", s.UpdateSubscription)
		sub.POST("/cancel/", s.CancelSubscription)
		sub.POST("/resume/", s.ResumeSubscription)
		sub.GET("/retrieve/:id/", s.RetrieveSubscription)
	}
	r.GET("/list/subscriptions/", s.AuthRequired(), s.ListSubscriptions)
}

func (s *Server) Health(c *gin.Context) {
	status := "ok"
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = "degraded"
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}
