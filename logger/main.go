package logger

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/qgatssdev/nika/monitor"
)

// Config for logger
type Config struct {
	Logger *zerolog.Logger
	// UTC a boolean stating whether to use UTC time zone or local.
	UTC            bool
	SkipPath       []string
	SkipPathRegexp *regexp.Regexp
}

// GetLogger from gin context
func GetLogger(c *gin.Context) zerolog.Logger {
	if logger, ok := c.Get("_log"); ok {
		return logger.(zerolog.Logger)
	}
	return log.Logger
}

// SetLogger initializes the logging middleware.
func SetLogger(config ...Config) gin.HandlerFunc {
	var newConfig Config
	if len(config) > 0 {
		newConfig = config[0]
	}
	var skip map[string]struct{}
	if length := len(newConfig.SkipPath); length > 0 {
		skip = make(map[string]struct{}, length)
		for _, path := range newConfig.SkipPath {
			skip[path] = struct{}{}
		}
	}

	var sublog zerolog.Logger
	if newConfig.Logger == nil {
		sublog = log.Logger
	} else {
		sublog = *newConfig.Logger
	}

	return func(c *gin.Context) {
		start := time.Now()
		if newConfig.UTC {
			start = start.UTC()
		}

		// get full url path for logs
		path := c.Request.URL.Path
		fullPath := path
		raw := c.Request.URL.RawQuery
		if raw != "" {
			fullPath = path + "?" + raw
		}

		track := true
		if _, ok := skip[path]; ok {
			track = false
		}
		if track &&
			newConfig.SkipPathRegexp != nil &&
			newConfig.SkipPathRegexp.MatchString(path) {
			track = false
		}

		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = xid.New().String()
		}
		c.Writer.Header().Set("X-Request-Id", id)
		reqlogger := sublog.With().
			Str("request_id", id).
			Logger()
		c.Set("_log", reqlogger)

		monitor.HTTPRequestsInFlight.WithLabelValues().Inc()
		c.Next()
		monitor.HTTPRequestsInFlight.WithLabelValues().Dec()

		// metrics are labeled by route template so path parameters do not explode cardinality
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		monitor.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		monitor.HTTPResponseTime.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())

		if !track || status < http.StatusBadRequest {
			return
		}

		msg := "Request"
		if len(c.Errors) > 0 {
			msg = c.Errors.String()
		}

		dumplogger := reqlogger.With().
			Str("method", c.Request.Method).
			Str("path", fullPath).
			Str("ip", c.ClientIP()).
			Str("user-agent", c.Request.UserAgent()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Logger()

		if val, ok := c.Get("auth_user_id"); ok {
			dumplogger = dumplogger.With().Uint64("user_id", val.(uint64)).Logger()
		}

		switch {
		case status >= http.StatusInternalServerError:
			dumplogger.Error().Msg(msg)
		default:
			dumplogger.Warn().Msg(msg)
		}
	}
}
