package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authkit/server/middleware"
)

// RespondWithError writes err as the JSON error envelope. An AppError
// carries its own status; anything else is sent as a generic 500.
func RespondWithError(c *gin.Context, err error) {
	middleware.Abort(c, err)
}

// RespondOK sends a 200 response with data as the body.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// RespondCreated sends a 201 response with data as the body.
func RespondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// RespondNoContent sends a 204 with no body.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
