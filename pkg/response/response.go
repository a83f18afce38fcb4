package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/learnsmart-api/pkg/errors"
)

// LoggerKey is the gin context key under which a request-scoped zap logger may
// be stored for Error to report 5xx causes.
const LoggerKey = "logger"

// Message is the body shape for plain acknowledgements and all errors.
type Message struct {
	Message string `json:"message"`
}

// JSON writes the bare resource as the response body.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, data)
}

// OK responds with HTTP 200.
func OK(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, data)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Accepted responds with HTTP 202 Accepted.
func Accepted(c *gin.Context, data interface{}) {
	JSON(c, http.StatusAccepted, data)
}

// Success sends {"message": msg} with HTTP 200.
func Success(c *gin.Context, msg string) {
	JSON(c, http.StatusOK, Message{Message: msg})
}

// Error converts err into its typed form and writes {"message"}. Unexpected
// failures are logged and answered with a generic message.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	msg := appErr.Message
	if appErr.Status >= http.StatusInternalServerError {
		if l := loggerFrom(c); l != nil {
			l.Error("request failed",
				zap.String("path", c.Request.URL.Path),
				zap.String("code", appErr.Code),
				zap.Error(err),
			)
		}
		if appErr.Status == http.StatusInternalServerError {
			msg = appErrors.ErrInternal.Message
		}
	}
	c.Header("Cache-Control", "no-store")
	c.AbortWithStatusJSON(appErr.Status, Message{Message: msg})
}

func loggerFrom(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(LoggerKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return nil
}
