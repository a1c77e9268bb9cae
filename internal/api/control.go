package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/qdm12/reprint"
)

type marginRequest struct {
	Margin *float64 `json:"margin"`
}

type marginResponse struct {
	Margin thermal.Celsius `json:"margin"`
}

type pwmRequest struct {
	Duty *int `json:"duty"`
}

type watchdogRequest struct {
	Watchdog string `json:"watchdog"`
}

func registerControlEndpoints(rest *echo.Echo, h *handlers) {
	rest.GET("/state/", h.getState)

	rest.GET("/pid/", h.getPid)
	rest.POST("/pid/", h.setPid)

	rest.GET("/margin/", h.getMargin)
	rest.POST("/margin/", h.setMargin)

	rest.POST("/reset/", h.reset)
	rest.POST("/pwm/", h.setPwm)
	rest.POST("/watchdog/", h.setWatchdog)
}

func (h *handlers) getState(c echo.Context) error {
	data := reprint.This(h.controller.Status())
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

func (h *handlers) getPid(c echo.Context) error {
	return c.JSONPretty(http.StatusOK, h.controller.Status().Pid, indentationChar)
}

func (h *handlers) setPid(c echo.Context) error {
	cfg := h.controller.Status().Pid
	if err := c.Bind(&cfg); err != nil {
		return returnBadRequest(c, "invalid pid configuration")
	}
	if err := h.controller.SetPid(cfg); err != nil {
		return returnError(c, err)
	}
	return c.JSONPretty(http.StatusOK, cfg, indentationChar)
}

func (h *handlers) getMargin(c echo.Context) error {
	return c.JSONPretty(http.StatusOK, marginResponse{Margin: h.controller.Status().Margin}, indentationChar)
}

func (h *handlers) setMargin(c echo.Context) error {
	var request marginRequest
	if err := c.Bind(&request); err != nil || request.Margin == nil {
		return returnBadRequest(c, "missing margin")
	}
	margin := thermal.Celsius(*request.Margin)
	if err := h.controller.SetMargin(margin); err != nil {
		return returnError(c, err)
	}
	return c.JSONPretty(http.StatusOK, marginResponse{Margin: margin}, indentationChar)
}

func (h *handlers) reset(c echo.Context) error {
	if err := h.controller.Reset(); err != nil {
		return returnError(c, err)
	}
	return returnOk(c, "control loop reset")
}

// bindDuty reads a duty cycle in percent from the request body
func bindDuty(c echo.Context) (thermal.PWMDuty, error) {
	var request pwmRequest
	if err := c.Bind(&request); err != nil || request.Duty == nil {
		return 0, fmt.Errorf("%w: missing duty", thermal.ErrInvalidParameter)
	}
	duty := *request.Duty
	if duty < 0 || duty > int(thermal.MaxPWMDuty) {
		return 0, fmt.Errorf("%w: duty %d out of range [0..%d]", thermal.ErrInvalidPWM, duty, thermal.MaxPWMDuty)
	}
	return thermal.PWMDuty(duty), nil
}

func (h *handlers) setPwm(c echo.Context) error {
	duty, err := bindDuty(c)
	if err != nil {
		return returnError(c, err)
	}
	if err := h.controller.SetPwm(duty); err != nil {
		return returnError(c, err)
	}
	return returnOk(c, fmt.Sprintf("all fans set to %d%%", duty))
}

func (h *handlers) setWatchdog(c echo.Context) error {
	var request watchdogRequest
	if err := c.Bind(&request); err != nil {
		return returnBadRequest(c, "invalid watchdog request")
	}
	wd, err := thermal.ParseWatchdogConfig(request.Watchdog)
	if err != nil {
		return returnError(c, err)
	}
	if err := h.controller.SetWatchdog(wd); err != nil {
		return returnError(c, err)
	}
	return returnOk(c, "watchdog "+wd.String())
}
