package api

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

func registerFanEndpoints(rest *echo.Echo, h *handlers) {
	group := rest.Group("/fan")

	group.POST("/:"+urlParamId+"/pwm/", h.setFanPwm)
}

// overrides the duty of a single fan until the next control tick
func (h *handlers) setFanPwm(c echo.Context) error {
	id := c.Param(urlParamId)
	duty, err := bindDuty(c)
	if err != nil {
		return returnError(c, err)
	}
	if err := h.controller.SetFanPwm(id, duty); err != nil {
		return returnError(c, err)
	}
	return returnOk(c, fmt.Sprintf("fan %s set to %d%%", id, duty))
}
