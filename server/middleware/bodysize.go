package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/util"
)

const defaultMaxBodySize = 1024 * 1024 // 1MB

// BodyTooLarge is the 413 reported when a body exceeds the limit, whether
// the declared length or the bytes actually read gave it away.
func BodyTooLarge() *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeBadRequest, "Request body too large.", http.StatusRequestEntityTooLarge)
}

// BodySizeLimit returns middleware that restricts the request body to the given
// size string (e.g. "64KB", "1MB").
func BodySizeLimit(maxSize string) Middleware {
	size := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > size {
				writeError(w, BodyTooLarge())
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}

// GinBodySizeLimit returns a Gin middleware for body size limiting.
func GinBodySizeLimit(maxSize string) gin.HandlerFunc {
	return GinWrap(BodySizeLimit(maxSize))
}
