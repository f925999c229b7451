package echoutil

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

const HeaderRequestId = echo.HeaderXRequestID

// RequestId sets X-Request-Id of responses.
//
// The id sent from the client is used if any. Otherwise, a new UUID is issued.
func RequestId(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		rid := c.Request().Header.Get(HeaderRequestId)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Response().Header().Set(HeaderRequestId, rid)
		return next(c)
	}
}

// LogHandlerFunc logs requests and responses with echo's logger.
func LogHandlerFunc(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		meth := c.Request().Method
		path := c.Request().URL
		rid := c.Response().Header().Get(HeaderRequestId)
		begin := time.Now()
		c.Logger().Infof("< request [%s] %s %s", rid, meth, path)

		err := next(c)

		c.Logger().Infof(
			"> response [%s] status = %d (for %s %s) in %v / error = %+v",
			rid, c.Response().Status, meth, path, time.Since(begin), err,
		)
		return err
	}
}

// SetLevel sets log level of echo.
//
// loglevel is one of debug, info, warn, error or off. Empty or unknown level means warn.
func SetLevel(e *echo.Echo, loglevel string) {
	switch strings.ToLower(loglevel) {
	case "debug":
		e.Logger.SetLevel(log.DEBUG)
	case "info":
		e.Logger.SetLevel(log.INFO)
	case "warn", "":
		e.Logger.SetLevel(log.WARN)
	case "error":
		e.Logger.SetLevel(log.ERROR)
	case "off":
		e.Logger.SetLevel(log.OFF)
	default:
		e.Logger.SetLevel(log.WARN)
		e.Logger.Warnf("unknown loglevel: %s . fall-backed to warn", loglevel)
	}
}
