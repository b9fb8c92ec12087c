// Package httpapi exposes the access layer's REST and websocket surface.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	app "github.com/SolMeet-Labs/access_layer/internal/app"
	"github.com/SolMeet-Labs/access_layer/internal/app/metrics"
	"github.com/SolMeet-Labs/access_layer/internal/app/services/access"
	"github.com/SolMeet-Labs/access_layer/internal/config"
	svcerrors "github.com/SolMeet-Labs/access_layer/internal/errors"
	"github.com/SolMeet-Labs/access_layer/internal/logging"
	"github.com/SolMeet-Labs/access_layer/internal/middleware"
)

// handler bundles the HTTP endpoints for the application services.
type handler struct {
	app *app.Application
	log *logging.Logger
}

// NewRouter returns the gin engine exposing the access layer API.
func NewRouter(application *app.Application, rateCfg config.RateLimitConfig, log *logging.Logger) *gin.Engine {
	if log == nil {
		log = logging.NewDefault("httpapi")
	}
	h := &handler{app: application, log: log}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging(log))
	router.Use(middleware.Metrics())

	router.GET("/healthz", h.health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.POST("/v1/sessions", h.createSession)

	authed := router.Group("/", middleware.Auth(application.Identity, log))
	authed.POST("/v1/auth/signup", h.signup)
	authed.POST("/v1/auth/login", h.login)
	authed.POST("/v1/auth/logout", h.logout)
	authed.GET("/v1/access", h.access)
	authed.GET("/v1/events", h.events)

	limiter := middleware.NewRateLimiter(rateCfg.RequestsPerSecond, rateCfg.Burst, log)
	payments := authed.Group("/", limiter.Handler())
	payments.POST("/v1/subscribe", h.subscribe)
	payments.POST("/v1/sessions/pay", h.paySession)

	return router
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) createSession(c *gin.Context) {
	session, token, err := h.app.CreateSession()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"session_id": session.ID(),
		"token":      token,
	})
}

type credentialsPayload struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

func (h *handler) signup(c *gin.Context) {
	session, payload, ok := h.credentials(c)
	if !ok {
		return
	}

	token, err := h.app.Identity.Signup(c.Request.Context(), session.ID(), payload.Email, payload.Secret)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token})
}

func (h *handler) login(c *gin.Context) {
	session, payload, ok := h.credentials(c)
	if !ok {
		return
	}

	token, err := h.app.Identity.Login(c.Request.Context(), session.ID(), payload.Email, payload.Secret)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *handler) logout(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		respondError(c, svcerrors.Unauthorized(""))
		return
	}

	if err := h.app.Identity.Logout(c.Request.Context(), session.ID()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) access(c *gin.Context) {
	controller, ok := h.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, controller.State())
}

func (h *handler) subscribe(c *gin.Context) {
	controller, ok := h.controller(c)
	if !ok {
		return
	}

	state, err := controller.Subscribe(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

type sessionPaymentPayload struct {
	Kind string `json:"kind"`
}

func (h *handler) paySession(c *gin.Context) {
	controller, ok := h.controller(c)
	if !ok {
		return
	}

	var payload sessionPaymentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, svcerrors.InvalidInput("invalid request body"))
		return
	}

	outcome, err := controller.PaySession(c.Request.Context(), payload.Kind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (h *handler) credentials(c *gin.Context) (session sessionRef, payload credentialsPayload, ok bool) {
	resolved, found := middleware.SessionFromContext(c)
	if !found {
		respondError(c, svcerrors.Unauthorized(""))
		return nil, credentialsPayload{}, false
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, svcerrors.InvalidInput("invalid request body"))
		return nil, credentialsPayload{}, false
	}
	return resolved, payload, true
}

func (h *handler) controller(c *gin.Context) (*access.Controller, bool) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		respondError(c, svcerrors.Unauthorized(""))
		return nil, false
	}
	controller, ok := h.app.Controller(session.ID())
	if !ok {
		respondError(c, svcerrors.Unauthorized("unknown session"))
		return nil, false
	}
	return controller, true
}

// sessionRef is the slice of the identity session handlers need.
type sessionRef interface {
	ID() string
}

// respondError maps service errors to their HTTP status. Every failure
// here is a dismissible notice to the client, never fatal to the process.
func respondError(c *gin.Context, err error) {
	svcErr := svcerrors.GetServiceError(err)
	if svcErr == nil {
		svcErr = svcerrors.Internal("", err)
	}
	c.JSON(svcErr.HTTPStatus, gin.H{"error": svcErr})
}
