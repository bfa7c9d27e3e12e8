// Package handlers exposes the authentication use cases over HTTP.
package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/auth/authctx"
	"github.com/kbukum/authkit/auth/oauth2"
	"github.com/kbukum/authkit/auth/session"
	apperrors "github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/server"
	"github.com/kbukum/authkit/server/middleware"
	"github.com/kbukum/authkit/store"
)

// Handler serves the authentication routes.
type Handler struct {
	svc *auth.Service
	log *logger.Logger
}

// New creates a Handler.
func New(svc *auth.Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log.WithComponent("handlers")}
}

// Register mounts every route on r. limit guards the endpoints that accept
// credentials or start a login; it may be nil.
//
//	POST   /sign-up
//	POST   /sign-in
//	POST   /refresh-token
//	POST   /sign-out            (authenticated)
//	GET    /oauth2/init
//	GET    /oauth2/callback
//	POST   /oauth2/callback
//	GET    /sessions            (authenticated)
//	DELETE /sessions/:id        (authenticated)
//	GET    /admin/sessions      (ADMIN)
func (h *Handler) Register(r gin.IRouter, limit gin.HandlerFunc) {
	public := r.Group("")
	if limit != nil {
		public.Use(limit)
	}
	public.POST("/sign-up", h.SignUp)
	public.POST("/sign-in", h.SignIn)
	public.POST("/refresh-token", h.RefreshToken)
	public.GET("/oauth2/init", h.OAuth2Init)
	public.GET("/oauth2/callback", h.OAuth2Callback)
	public.POST("/oauth2/callback", h.OAuth2Callback)

	authed := r.Group("", middleware.Authenticate(h.svc.Tokens()))
	authed.POST("/sign-out", h.SignOut)
	authed.GET("/sessions", middleware.RequireRole(), h.ListSessions)
	authed.DELETE("/sessions/:id", middleware.RequireRole(), h.RevokeSession)

	admin := authed.Group("/admin", middleware.RequireRole(store.RoleAdmin))
	admin.GET("/sessions", h.AdminListSessions)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type callbackRequest struct {
	Code     string `form:"code" json:"code"`
	State    string `form:"state" json:"state"`
	Error    string `form:"error" json:"error"`
	Provider string `form:"provider" json:"provider"`
}

// SignUp creates a password account and returns it.
func (h *Handler) SignUp(c *gin.Context) {
	var in auth.Credentials
	if !bindJSON(c, &in) {
		return
	}
	account, err := h.svc.SignUp(c.Request.Context(), in)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, account)
}

// SignIn exchanges an email and password for a credential pair.
func (h *Handler) SignIn(c *gin.Context) {
	var in auth.Credentials
	if !bindJSON(c, &in) {
		return
	}
	tokens, err := h.svc.SignIn(c.Request.Context(), in, session.MetadataFromRequest(c.Request))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, tokens)
}

// RefreshToken rotates the session behind a refresh credential.
func (h *Handler) RefreshToken(c *gin.Context) {
	var in refreshRequest
	if !bindJSON(c, &in) {
		return
	}
	tokens, err := h.svc.Refresh(c.Request.Context(), in.RefreshToken, session.MetadataFromRequest(c.Request))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, tokens)
}

// SignOut ends the caller's current session.
func (h *Handler) SignOut(c *gin.Context) {
	claims, err := authctx.Require(c.Request.Context())
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if err := h.svc.SignOut(c.Request.Context(), claims); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}

// OAuth2Init returns the provider authorization URL and state.
func (h *Handler) OAuth2Init(c *gin.Context) {
	authz, err := h.svc.OAuth2Init(c.Request.Context(), c.Query("provider"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, authz)
}

// OAuth2Callback completes a provider login. GET reads the query string;
// POST accepts a form post or a JSON body.
func (h *Handler) OAuth2Callback(c *gin.Context) {
	var in callbackRequest
	var err error
	if c.Request.Method == http.MethodGet {
		err = c.ShouldBindQuery(&in)
	} else {
		err = c.ShouldBind(&in)
	}
	if err != nil {
		server.RespondWithError(c, apperrors.BadRequest("Invalid callback parameters."))
		return
	}

	tokens, err := h.svc.OAuth2Callback(c.Request.Context(), oauth2.CallbackParams{
		State:    in.State,
		Code:     in.Code,
		Error:    in.Error,
		Provider: in.Provider,
	}, session.MetadataFromRequest(c.Request))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, tokens)
}

// ListSessions lists the caller's live sessions.
func (h *Handler) ListSessions(c *gin.Context) {
	claims := authctx.MustGet(c.Request.Context())
	sessions, err := h.svc.ListSessions(c.Request.Context(), claims.AccountID())
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	respondSessions(c, sessions)
}

// RevokeSession deletes one session of the caller, or any session for
// administrators.
func (h *Handler) RevokeSession(c *gin.Context) {
	claims := authctx.MustGet(c.Request.Context())
	if err := h.svc.RevokeSession(c.Request.Context(), claims, c.Param("id")); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}

// AdminListSessions lists the live sessions of any account.
func (h *Handler) AdminListSessions(c *gin.Context) {
	sessions, err := h.svc.ListSessions(c.Request.Context(), c.Query("account_id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	respondSessions(c, sessions)
}

// bindJSON decodes the request body, writing BAD_REQUEST on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			server.RespondWithError(c, middleware.BodyTooLarge())
			return false
		}
		server.RespondWithError(c, apperrors.BadRequest("Request body must be valid JSON."))
		return false
	}
	return true
}

func respondSessions(c *gin.Context, sessions []store.Session) {
	if sessions == nil {
		sessions = []store.Session{}
	}
	server.RespondOK(c, sessions)
}
