package genes

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/oncolab/genomics-api/internal/platform/db"
	"github.com/oncolab/genomics-api/pkg/pagination"
	"github.com/oncolab/genomics-api/pkg/validation"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/genes", h.Create)
	g.GET("/genes", h.List)
	g.GET("/genes/statistics", h.Statistics)
	g.GET("/genes/by-symbol/:symbol", h.GetBySymbol)
	g.GET("/genes/:id", h.Get)
	g.PUT("/genes/:id", h.Update)
	g.DELETE("/genes/:id", h.Delete)
}

func writeErr(c echo.Context, err error) error {
	var verrs *validation.Errors
	if errors.As(err, &verrs) {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":  "validation failed",
			"fields": verrs.Fields,
		})
	}
	if db.IsUniqueViolation(err) {
		return echo.NewHTTPError(http.StatusConflict, "a gene with this symbol already exists")
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

func (h *Handler) Create(c echo.Context) error {
	var g Gene
	if err := c.Bind(&g); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Create(c.Request().Context(), &g); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, g)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid gene id")
	}
	g, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "gene not found")
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) GetBySymbol(c echo.Context) error {
	g, err := h.svc.GetBySymbol(c.Request().Context(), c.Param("symbol"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "gene not found")
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid gene id")
	}
	if _, err := h.svc.Get(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "gene not found")
	}
	var g Gene
	if err := c.Bind(&g); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	g.ID = id
	if err := h.svc.Update(c.Request().Context(), &g); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid gene id")
	}
	if _, err := h.svc.Get(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "gene not found")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete gene")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list genes")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Statistics(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to compute gene statistics")
	}
	return c.JSON(http.StatusOK, stats)
}
