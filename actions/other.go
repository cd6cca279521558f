package actions

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/qgatssdev/nika/httputils"
	"github.com/qgatssdev/nika/logger"
	"github.com/qgatssdev/nika/model"
)

// Ping godoc
func Ping(c *gin.Context) {
	c.JSON(OK, "pong")
}

func abortWithError(c *gin.Context, code int, message string) {
	l := getlog(c)
	l.Debug().Int("resp_code", code).Msg(message)
	c.AbortWithStatusJSON(code, httputils.RequestError{Error: message})
}

// abortWithServiceError maps the error kinds returned by the service to status codes.
// Unknown errors are logged and hidden behind a generic message.
func abortWithServiceError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		abortWithError(c, NotFound, err.Error())
	case errors.Is(err, model.ErrInvalidInput):
		abortWithError(c, BadRequest, err.Error())
	case errors.Is(err, model.ErrConflict):
		abortWithError(c, Conflict, err.Error())
	default:
		_ = c.Error(err)
		l := getlog(c)
		l.Error().Err(err).Msg(message)
		abortWithError(c, ServerError, message)
	}
}

func getUserID(c *gin.Context) (uint64, bool) {
	iUserID, ok := c.Get("auth_user_id")
	if !ok {
		return 0, false
	}
	return iUserID.(uint64), true
}

func getQueryAsInt(c *gin.Context, name string, def int) int {
	val := c.Query(name)
	if val == "" {
		return def
	}
	param, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return param
}

func getlog(c *gin.Context) zerolog.Logger {
	return logger.GetLogger(c)
}

func getPagination(c *gin.Context) (int, int) {
	page := getQueryAsInt(c, "page", 1)
	limit := getQueryAsInt(c, "limit", 10)
	return page, limit
}
