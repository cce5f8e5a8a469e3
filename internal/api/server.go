// Package api serves the gateway's hypermedia resources over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"margin-gateway/internal/auth"
	"margin-gateway/internal/monitor"
	"margin-gateway/pkg/cache"
	"margin-gateway/pkg/db"
	"margin-gateway/pkg/exchanges/common"
	"margin-gateway/pkg/logger"
)

// AccountStore persists accounts.
type AccountStore interface {
	CreateAccount(ctx context.Context, a db.Account) error
	GetAccount(ctx context.Context, publicID string) (*db.Account, error)
	ListAccounts(ctx context.Context) ([]db.Account, error)
	DeleteAccount(ctx context.Context, publicID string) error
}

// OrderStore persists orders scoped to their owning account.
type OrderStore interface {
	CreateOrder(ctx context.Context, o db.Order) error
	GetOrder(ctx context.Context, accountID, orderID string) (*db.Order, error)
	ListOrdersByAccount(ctx context.Context, accountID string) ([]db.Order, error)
	DeleteOrder(ctx context.Context, accountID, orderID string) error
}

// SecretSealer encrypts account secrets at rest.
type SecretSealer interface {
	Seal(plaintext, owner string) (string, error)
	Open(sealed, owner string) (string, error)
	CurrentVersion() int
}

// Options tunes the HTTP surface.
type Options struct {
	BcryptCost     int
	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration
	CORSOrigins    []string
	// PriceActionTTL is how long a recent-trades snapshot is reused.
	// Zero disables caching.
	PriceActionTTL time.Duration
}

// Server wires HTTP endpoints around the stores and the venue.
type Server struct {
	Router   *gin.Engine
	Accounts AccountStore
	Orders   OrderStore
	Venue    common.Venue
	Secrets  SecretSealer
	Metrics  *monitor.Metrics
	Log      *zap.Logger
	Trades   *cache.TradeCache

	opts     Options
	limiters *ipLimiters
}

func NewServer(accounts AccountStore, orders OrderStore, venue common.Venue, secrets SecretSealer, metrics *monitor.Metrics, log *zap.Logger, opts Options) *Server {
	log = logger.OrNop(log)
	if metrics == nil {
		metrics = monitor.NewMetrics()
	}
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = 20
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 50
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	s := &Server{
		Router:   r,
		Accounts: accounts,
		Orders:   orders,
		Venue:    venue,
		Secrets:  secrets,
		Metrics:  metrics,
		Log:      log,
		Trades:   cache.NewTradeCache(opts.PriceActionTTL),
		opts:     opts,
		limiters: newIPLimiters(opts.RateLimitRPS, opts.RateLimitBurst),
	}

	// Middleware stack (order matters!)
	r.Use(gin.CustomRecovery(s.recoverPanic)) // Panic recovery (first)
	r.Use(RequestIDMiddleware())              // Request ID tracking
	r.Use(RequestLogger(log, metrics))        // Request logging (after ID is set)
	r.Use(s.RateLimitMiddleware())            // Rate limiting
	r.Use(TimeoutMiddleware(opts.RequestTimeout))

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)
	s.Router.GET("/metrics", gin.WrapH(s.Metrics.Handler()))

	s.Router.GET("/", s.getEntry)
	s.Router.GET("/orderbook/", s.notImplemented)
	s.Router.GET("/priceaction/", s.getPriceAction)

	s.Router.GET("/accounts/", s.listAccounts)
	s.Router.POST("/accounts/", s.createAccount)

	account := s.Router.Group("/accounts/:publicId", s.requireAccount)
	{
		account.GET("/", s.getAccount)
		account.DELETE("/", s.deleteAccount)
		account.GET("/balance/", s.notImplemented)
		account.GET("/history/", s.notImplemented)

		account.GET("/orders/", s.listOrders)
		account.POST("/orders/", s.createOrder)
		account.GET("/orders/:orderId/", s.getOrder)
		account.DELETE("/orders/:orderId/", s.deleteOrder)

		account.GET("/positions/", s.listPositions)
		account.GET("/positions/:symbol/", s.getPosition)
		account.PATCH("/positions/:symbol/", s.patchPosition)
	}

	s.Router.NoRoute(func(c *gin.Context) {
		s.fail(c, errNoRoute)
	})
	s.Router.NoMethod(func(c *gin.Context) {
		s.fail(c, errMethodNotAllowed)
	})
}

// Handler returns the router wrapped with CORS handling for browser clients.
func (s *Server) Handler() http.Handler {
	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "Accept", auth.HeaderSecret, "X-Request-ID"},
		ExposedHeaders: []string{"Location", "X-Request-ID", "Retry-After"},
	}).Handler(s.Router)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) recoverPanic(c *gin.Context, recovered any) {
	s.Log.Error("panic serving request",
		zap.Any("panic", recovered),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString(requestIDKey)),
	)
	s.fail(c, errPanic)
}
