package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dialoghub/internal/auth"
	"dialoghub/internal/config"
	"dialoghub/internal/logging"
	"dialoghub/internal/models"
	"dialoghub/internal/proxy"
	"dialoghub/internal/requestid"
	"dialoghub/internal/service/dialog"
	"dialoghub/internal/service/users"
)

// Options carries the services a Handler needs. Which ones are required
// depends on Mode: users and auth for monolith and proxy, dialogs for
// monolith and dialog, the forwarder for proxy.
type Options struct {
	Mode      string
	Users     *users.Service
	Auth      *auth.Service
	Dialogs   *dialog.Service
	Forwarder *proxy.Forwarder
}

// Handler wires HTTP routes to the user and dialog services.
type Handler struct {
	mode         string
	users        *users.Service
	auth         *auth.Service
	dialogs      *dialog.Service
	forwarder    *proxy.Forwarder
	healthStatus string
}

// NewHandler constructs a Handler, rejecting options that miss a service the
// mode depends on.
func NewHandler(opts Options) (*Handler, error) {
	h := &Handler{
		mode:         opts.Mode,
		users:        opts.Users,
		auth:         opts.Auth,
		dialogs:      opts.Dialogs,
		forwarder:    opts.Forwarder,
		healthStatus: "OK",
	}
	switch opts.Mode {
	case config.ModeMonolith:
		if h.users == nil || h.auth == nil || h.dialogs == nil {
			return nil, errors.New("monolith mode needs users, auth and dialogs")
		}
	case config.ModeProxy:
		if h.users == nil || h.auth == nil || h.forwarder == nil {
			return nil, errors.New("proxy mode needs users, auth and a forwarder")
		}
	case config.ModeDialog:
		if h.dialogs == nil {
			return nil, errors.New("dialog mode needs dialogs")
		}
		h.healthStatus = "dialog service OK"
	default:
		return nil, fmt.Errorf("unsupported mode: %s", opts.Mode)
	}
	return h, nil
}

// RegisterRoutes attaches all HTTP routes of the configured mode to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.health)

	if h.mode != config.ModeDialog {
		userRoutes := router.Group("/user")
		userRoutes.POST("/register", h.registerUser)
		userRoutes.GET("/get/:id", h.auth.OptionalMiddleware(), h.getUser)
	}

	dialogRoutes := router.Group("/dialog/:user_id")
	switch h.mode {
	case config.ModeMonolith:
		dialogRoutes.Use(h.auth.Middleware())
		dialogRoutes.POST("/send", h.sendMessage)
		dialogRoutes.GET("/list", h.listMessages)
	case config.ModeProxy:
		// identity is checked here but not passed on: the dialog service
		// trusts whatever reaches it
		dialogRoutes.Use(h.auth.Middleware())
		dialogRoutes.POST("/send", h.forwarder.Handler())
		dialogRoutes.GET("/list", h.forwarder.Handler())
	case config.ModeDialog:
		dialogRoutes.POST("/send", h.sendMessage)
		dialogRoutes.GET("/list", h.listMessages)
	}

	router.NoRoute(h.notFound)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": h.healthStatus,
		"time":   models.Now(),
	})
}

func (h *Handler) notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

// User interface
type registerRequest struct {
	Name string `json:"name"`
}

func (h *Handler) registerUser(c *gin.Context) {
	var req registerRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, token, err := h.users.Register(c.Request.Context(), req.Name)
	if err != nil {
		if errors.Is(err, users.ErrNameRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"token": token,
	})
}

func (h *Handler) getUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Dialog interface
type sendRequest struct {
	Text    string `json:"text"`
	ReplyTo *int64 `json:"reply_to"`
}

func (h *Handler) sendMessage(c *gin.Context) {
	to, ok := pathUserID(c)
	if !ok {
		return
	}
	var req sendRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	msg, err := h.dialogs.Send(c.Request.Context(), dialog.SendRequest{
		From:      callerID(c),
		To:        to,
		Text:      req.Text,
		ReplyTo:   req.ReplyTo,
		RequestID: requestid.FromGin(c),
	})
	if err != nil {
		if errors.Is(err, dialog.ErrTextRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) listMessages(c *gin.Context) {
	other, ok := pathUserID(c)
	if !ok {
		return
	}
	limit, err := queryInt(c, "limit", dialog.DefaultLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	offset, err := queryInt(c, "offset", dialog.DefaultOffset)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
		return
	}
	page, err := h.dialogs.List(c.Request.Context(), callerID(c), other, limit, offset)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) internalError(c *gin.Context, err error) {
	logging.FromContext(c.Request.Context()).Error().Err(err).Str("route", c.FullPath()).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// callerID is the authenticated user, or nil on routes without auth.
func callerID(c *gin.Context) *int64 {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return nil
	}
	return &userID
}

func pathUserID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// bindOptionalJSON decodes the request body into v. An empty body leaves v
// untouched so that required-field checks report the missing field.
func bindOptionalJSON(c *gin.Context, v interface{}) error {
	data, err := c.GetRawData()
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
