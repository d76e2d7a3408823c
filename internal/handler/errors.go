package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/sgp-controller/internal/apperr"
)

// fail writes err as {"message": ...} with the status of its kind.  Internal
// errors are logged and answered with a generic message.
func fail(c echo.Context, err error) error {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		log.WithError(err).WithFields(log.Fields{
			"method":     c.Request().Method,
			"path":       c.Path(),
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		}).Error("request failed")
	}
	return c.JSON(kind.HTTPStatus(), echo.Map{"message": apperr.MessageOf(err)})
}

// ErrorHandler replaces echo's default so framework errors (unknown routes,
// bad methods, panics caught by Recover) share the {"message"} shape.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if he, ok := err.(*echo.HTTPError); ok {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			msg = s
		}
		if he.Code >= http.StatusInternalServerError {
			log.WithError(err).WithField("path", c.Path()).Error("request failed")
		}
		_ = c.JSON(he.Code, echo.Map{"message": msg})
		return
	}
	_ = fail(c, err)
}
