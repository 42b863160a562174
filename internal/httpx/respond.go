package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/food-ordering/internal/apperr"
	"github.com/MikeMC777/food-ordering/internal/logging"
)

// Response is the body of every error and message-only reply.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// OK writes {success:true} merged with fields.
func OK(c *gin.Context, status int, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(status, body)
}

// Fail maps err to its HTTP status and writes {success:false, message}.
// Internal errors are logged and reported with a generic message.
func Fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	if status >= http.StatusInternalServerError {
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("kind", kind.String()).Msg("request failed")
	}
	_ = c.Error(err)
	c.JSON(status, Response{Success: false, Message: apperr.Message(err)})
}
