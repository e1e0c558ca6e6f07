package diet

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/diafit/diafit/internal/platform/auth"
	"github.com/diafit/diafit/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/diet-logs", auth.RequireUser())
	g.GET("", h.List)
	g.GET("/summary", h.Summary)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// entryRequest is the writable subset of Entry. Owner, id, suitability and
// logged_at are server controlled.
type entryRequest struct {
	FoodName          string   `json:"food_name"`
	MealType          MealType `json:"meal_type"`
	Calories          float64  `json:"calories"`
	CarbohydrateGrams float64  `json:"carbohydrates_grams"`
	ProteinGrams      float64  `json:"protein_grams"`
	FatGrams          float64  `json:"fat_grams"`
	Notes             *string  `json:"notes"`
}

func (r entryRequest) entry(userID string) *Entry {
	return &Entry{
		UserID:            userID,
		FoodName:          r.FoodName,
		MealType:          r.MealType,
		Calories:          r.Calories,
		CarbohydrateGrams: r.CarbohydrateGrams,
		ProteinGrams:      r.ProteinGrams,
		FatGrams:          r.FatGrams,
		Notes:             r.Notes,
	}
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "diet log entry not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "diet log storage error").SetInternal(err)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) Create(c echo.Context) error {
	var req entryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e := req.entry(auth.UserIDFromContext(c.Request().Context()))
	res, err := h.svc.Create(c.Request().Context(), e)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	e, err := h.svc.Get(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithLinks(c.Request().URL.Path))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req entryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e := req.entry(auth.UserIDFromContext(c.Request().Context()))
	e.ID = id

	res, err := h.svc.Update(c.Request().Context(), e)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Summary(c echo.Context) error {
	days := 7
	if raw := c.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "days must be an integer")
		}
		days = n
	}
	s, err := h.svc.Summarize(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), days)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, s)
}
