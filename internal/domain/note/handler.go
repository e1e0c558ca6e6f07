package note

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/diafit/diafit/internal/platform/auth"
	"github.com/diafit/diafit/internal/platform/vault"
	"github.com/diafit/diafit/pkg/pagination"
)

// ResponderRole may read another user's emergency-unlockable notes.
const ResponderRole = "responder"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/medical-notes", auth.RequireUser())
	g.GET("", h.List)
	g.GET("/emergency", h.Emergency)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "medical note not found")
	case errors.Is(err, vault.ErrDecryption):
		// The note exists but cannot be revealed; say nothing about why.
		return echo.NewHTTPError(http.StatusInternalServerError, "medical note could not be decrypted").SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "medical note storage error").SetInternal(err)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) Create(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	n, err := h.svc.Create(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	n, err := h.svc.Get(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	notes, total, err := h.svc.List(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(notes, total, pg.Limit, pg.Offset).WithLinks(c.Request().URL.Path))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	n, err := h.svc.Update(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), id, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, n)
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

// Emergency lists the unlockable notes of the caller, or of ?user_id= when
// the caller is a responder.
func (h *Handler) Emergency(c echo.Context) error {
	ctx := c.Request().Context()
	caller, _ := auth.IdentityFromContext(ctx)

	target := caller.UserID
	if q := c.QueryParam("user_id"); q != "" && q != caller.UserID {
		if !caller.HasRole(ResponderRole) && !caller.HasRole("admin") {
			return echo.NewHTTPError(http.StatusForbidden, "required role: "+ResponderRole)
		}
		target = q
	}

	notes, err := h.svc.ListEmergencyUnlockable(ctx, target)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user_id": target,
		"data":    notes,
		"total":   len(notes),
	})
}
