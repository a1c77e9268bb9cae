package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/markusressel/thermal2go/internal/persistence"
	"github.com/markusressel/thermal2go/internal/telemetry"
)

const queryParamLimit = "limit"

func registerTraceEndpoints(rest *echo.Echo, h *handlers) {
	rest.GET("/trace/", h.getTraces)
	rest.GET("/history/", h.getHistory)
}

// returns the buffered trace records, as CBOR if requested by the Accept header
func (h *handlers) getTraces(c echo.Context) error {
	records := h.store.Traces()
	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), MIMEApplicationCBOR) {
		data, err := telemetry.EncodeTraces(records)
		if err != nil {
			return returnError(c, err)
		}
		return c.Blob(http.StatusOK, MIMEApplicationCBOR, data)
	}
	return c.JSONPretty(http.StatusOK, records, indentationChar)
}

// returns the persisted state transitions, oldest first
func (h *handlers) getHistory(c echo.Context) error {
	limit := 0
	if value := c.QueryParam(queryParamLimit); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 0 {
			return returnBadRequest(c, "invalid limit '"+value+"'")
		}
		limit = parsed
	}

	transitions := []persistence.Transition{}
	if h.history != nil {
		loaded, err := h.history.LoadTransitions(limit)
		if err != nil {
			return returnError(c, err)
		}
		transitions = append(transitions, loaded...)
	}
	return c.JSONPretty(http.StatusOK, transitions, indentationChar)
}
