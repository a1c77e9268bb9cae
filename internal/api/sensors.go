package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/qdm12/reprint"
)

type sensorResponse struct {
	Latest  interface{} `json:"latest"`
	History interface{} `json:"history,omitempty"`
}

func registerSensorEndpoints(rest *echo.Echo, h *handlers) {
	group := rest.Group("/sensor")

	group.GET("/", h.getSensors)
	group.GET("/:"+urlParamId+"/", h.getSensor)
}

func (h *handlers) getSensors(c echo.Context) error {
	data := reprint.This(h.store.All())
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

func (h *handlers) getSensor(c echo.Context) error {
	id := c.Param(urlParamId)

	latest, exists := h.store.Latest(id)
	if !exists {
		return returnNotFound(c, id)
	}
	response := sensorResponse{Latest: latest}
	if history, ok := h.store.History(id); ok {
		response.History = history
	}
	return c.JSONPretty(http.StatusOK, response, indentationChar)
}
