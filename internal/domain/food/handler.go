package food

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// VerdictObserver receives every verdict served over HTTP.
type VerdictObserver interface {
	ObserveVerdict(suitability string)
}

type Handler struct {
	obs VerdictObserver
}

func NewHandler(obs VerdictObserver) *Handler {
	return &Handler{obs: obs}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/food/analyze", h.Analyze)
}

func (h *Handler) Analyze(c echo.Context) error {
	var s Sample
	if err := c.Bind(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	v := Analyze(s.Normalize())
	if h.obs != nil {
		h.obs.ObserveVerdict(string(v.Suitability))
	}
	return c.JSON(http.StatusOK, v)
}
