// Package httpapi exposes the snippet service over HTTP with gin: JSON
// endpoints for accounts and snippets, two HTML pages, health and metrics.
package httpapi

import (
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/bbelderbos/codeimages/internal/logging"
	"github.com/bbelderbos/codeimages/internal/server/models"
	"github.com/bbelderbos/codeimages/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// AccountService is the account API the handlers need.
type AccountService interface {
	Register(ctx context.Context, in services.Registration) (*models.Account, error)
	Activate(ctx context.Context, key string) (*models.Account, error)
	Login(ctx context.Context, username, password string) (*services.Token, error)
	ResolveToken(ctx context.Context, token string) (*models.Account, error)
}

// SnippetService is the snippet API the handlers need.
type SnippetService interface {
	Create(ctx context.Context, account *models.Account, draft models.SnippetDraft) (*models.Snippet, error)
	Delete(ctx context.Context, account *models.Account, id string) error
	ListPublic(ctx context.Context, page models.Page) ([]*models.Snippet, error)
	Search(ctx context.Context, term string, page models.Page) ([]*models.Snippet, error)
	RemainingToday(ctx context.Context, account *models.Account) (int, error)
}

// Pinger reports database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps bundles what the router wires together.
type Deps struct {
	Accounts AccountService
	Snippets SnippetService
	DB       Pinger
	Limiter  *RateLimiter
	Logger   logging.Logger

	// TrustedProxies may set X-Forwarded-For. Nil trusts no one.
	TrustedProxies []string
}

type handler struct {
	accounts AccountService
	snippets SnippetService
	db       Pinger
	logger   logging.Logger
}

// NewRouter builds the gin engine with all routes and middleware.
func NewRouter(d Deps) *gin.Engine {
	logger := d.Logger.With("module", "http")
	h := &handler{accounts: d.Accounts, snippets: d.Snippets, db: d.DB, logger: logger}

	r := gin.New()
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		logger.Error(context.Background(), "invalid trusted proxies, trusting none", "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(RequestID(), Recovery(logger), AccessLog(logger), Metrics())
	r.SetHTMLTemplate(template.Must(template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.tmpl")))

	login := r.Group("/")
	if d.Limiter != nil {
		login.Use(RateLimit(d.Limiter, logger))
	}
	login.POST("/users", h.register)
	login.POST("/token", h.token)
	r.GET("/activate/:key", h.activate)

	authed := Authenticate(d.Accounts, logger)
	r.POST("/create", authed, h.createSnippet)
	r.DELETE("/:id", authed, h.deleteSnippet)

	r.GET("/tips", h.listTips)
	r.GET("/", h.homePage)
	r.POST("/search", h.searchPage)

	r.GET("/healthz", h.healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "not_found", "Not found")
	})
	return r
}

func (h *handler) healthz(c *gin.Context) {
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		h.logger.Warn(c.Request.Context(), "health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
