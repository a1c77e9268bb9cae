package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/markusressel/thermal2go/internal/persistence"
	"github.com/markusressel/thermal2go/internal/telemetry"
	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/markusressel/thermal2go/internal/util"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	urlParamId      = "id"
	indentationChar = "  "

	MIMEApplicationCBOR = "application/cbor"
)

// ErrNotFound is returned by a Controller if no item with the requested id exists
var ErrNotFound = errors.New("not found")

type (
	Result struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}
)

// Controller executes commands on the control loop.
// Every command takes effect before the next control tick.
type Controller interface {
	Status() thermal.Status
	SetPid(cfg util.PidConfig) error
	SetMargin(margin thermal.Celsius) error
	Reset() error
	SetPwm(duty thermal.PWMDuty) error
	SetFanPwm(id string, duty thermal.PWMDuty) error
	SetWatchdog(wd thermal.WatchdogConfig) error
}

type handlers struct {
	controller Controller
	store      *telemetry.Store
	history    persistence.Persistence
}

// CreateRestService creates the REST api of the daemon.
// If registerer is not nil, request metrics are registered with it.
// history may be nil, in which case /history/ is always empty.
func CreateRestService(controller Controller, store *telemetry.Store, history persistence.Persistence, registerer prometheus.Registerer) *echo.Echo {
	echoRest := echo.New()
	echoRest.HideBanner = true
	echoRest.HidePort = true

	// Root level middleware
	echoRest.Pre(middleware.AddTrailingSlash())

	echoRest.Use(middleware.Secure())
	echoRest.Use(middleware.Recover())
	if registerer != nil {
		echoRest.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Namespace:  "thermal2go",
			Subsystem:  "api",
			Registerer: registerer,
		}))
	}

	h := &handlers{
		controller: controller,
		store:      store,
		history:    history,
	}

	echoRest.GET("/alive/", isAlive)

	registerControlEndpoints(echoRest, h)
	registerFanEndpoints(echoRest, h)
	registerSensorEndpoints(echoRest, h)
	registerTraceEndpoints(echoRest, h)

	return echoRest
}

// returns an empty "ok" answer
func isAlive(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// return a "not found" message
func returnNotFound(c echo.Context, id string) (err error) {
	return c.JSONPretty(http.StatusNotFound, &Result{
		Name:    "Not found",
		Message: "No item with id '" + id + "' found",
	}, indentationChar)
}

// return a "bad request" message
func returnBadRequest(c echo.Context, message string) (err error) {
	return c.JSONPretty(http.StatusBadRequest, &Result{
		Name:    "Invalid Parameter",
		Message: message,
	}, indentationChar)
}

// return the error message of an error, with a status code matching its kind
func returnError(c echo.Context, e error) (err error) {
	switch {
	case errors.Is(e, thermal.ErrInvalidParameter), errors.Is(e, thermal.ErrInvalidPWM):
		return returnBadRequest(c, e.Error())
	case errors.Is(e, ErrNotFound):
		return c.JSONPretty(http.StatusNotFound, &Result{
			Name:    "Not found",
			Message: e.Error(),
		}, indentationChar)
	case errors.Is(e, thermal.ErrDevice):
		return c.JSONPretty(http.StatusBadGateway, &Result{
			Name:    "Device Error",
			Message: e.Error(),
		}, indentationChar)
	default:
		return c.JSONPretty(http.StatusInternalServerError, &Result{
			Name:    "Unknown Error",
			Message: e.Error(),
		}, indentationChar)
	}
}

// return an "ok" result after a command was executed
func returnOk(c echo.Context, message string) error {
	return c.JSONPretty(http.StatusOK, &Result{
		Name:    "OK",
		Message: message,
	}, indentationChar)
}
