package middleware

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/auth/authctx"
	apperrors "github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/logger"
)

// Authenticate verifies the Bearer access credential of every request and
// stores the claims in the request context. Requests without a valid
// credential are rejected with UNAUTHORIZED before reaching the handler.
func Authenticate(verifier auth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			Abort(c, apperrors.Unauthorized("Authorization header required"))
			return
		}

		claims, err := verifier.VerifyAccess(token)
		if err != nil {
			Abort(c, err)
			return
		}

		ctx := authctx.Set(c.Request.Context(), claims)
		ctx = logger.ContextWithAccountID(ctx, claims.AccountID())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole admits callers whose role is one of roles. An empty set admits
// any authenticated caller. It must run after Authenticate; without claims
// the request is UNAUTHORIZED.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := authctx.Require(c.Request.Context())
		if err != nil {
			Abort(c, err)
			return
		}
		if len(roles) == 0 {
			c.Next()
			return
		}
		if !claims.HasRole() || !slices.Contains(roles, claims.Role) {
			Abort(c, apperrors.Forbidden(""))
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Abort stops the chain and writes err as the JSON error envelope.
// Errors that are not AppErrors become INTERNAL_ERROR without detail.
func Abort(c *gin.Context, err error) {
	appErr := apperrors.Wrap(err)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}
