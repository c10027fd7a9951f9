package variants

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
	g.POST("/variants", h.Create)
	g.GET("/variants", h.List)
	g.GET("/variants/statistics", h.Statistics)
	g.GET("/variants/by-significance", h.BySignificance)
	g.GET("/variants/:id", h.Get)
	g.PUT("/variants/:id", h.Update)
	g.DELETE("/variants/:id", h.Delete)

	g.POST("/genetic-variants", h.CreateGenetic)
	g.GET("/genetic-variants", h.ListGenetic)
	g.GET("/genetic-variants/:id", h.GetGenetic)
	g.PUT("/genetic-variants/:id", h.UpdateGenetic)
	g.DELETE("/genetic-variants/:id", h.DeleteGenetic)
}

// variantPayload mirrors Variant with a nullable is_active so that an omitted
// field defaults to active instead of false.
type variantPayload struct {
	GeneID               uuid.UUID `json:"gene_id"`
	VariantName          string    `json:"variant_name"`
	VariantType          string    `json:"variant_type"`
	ChromosomePosition   string    `json:"chromosome_position"`
	ReferenceAllele      string    `json:"reference_allele"`
	AlternateAllele      string    `json:"alternate_allele"`
	ClinicalSignificance string    `json:"clinical_significance"`
	EffectDescription    *string   `json:"effect_description"`
	DbSNPID              *string   `json:"dbsnp_id"`
	IsActive             *bool     `json:"is_active"`
}

func (p *variantPayload) toVariant() *Variant {
	v := &Variant{
		GeneID:               p.GeneID,
		VariantName:          p.VariantName,
		VariantType:          p.VariantType,
		ChromosomePosition:   p.ChromosomePosition,
		ReferenceAllele:      p.ReferenceAllele,
		AlternateAllele:      p.AlternateAllele,
		ClinicalSignificance: p.ClinicalSignificance,
		EffectDescription:    p.EffectDescription,
		DbSNPID:              p.DbSNPID,
		IsActive:             true,
	}
	if p.IsActive != nil {
		v.IsActive = *p.IsActive
	}
	return v
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
		return echo.NewHTTPError(http.StatusConflict, "this gene already has a variant with that name")
	}
	if db.IsForeignKeyViolation(err) {
		return echo.NewHTTPError(http.StatusBadRequest, "referenced gene does not exist")
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

func (h *Handler) Create(c echo.Context) error {
	var p variantPayload
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	v := p.toVariant()
	if err := h.svc.Create(c.Request().Context(), v); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid variant id")
	}
	v, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "variant not found")
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid variant id")
	}
	if _, err := h.svc.Get(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "variant not found")
	}
	var p variantPayload
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	v := p.toVariant()
	v.ID = id
	if err := h.svc.Update(c.Request().Context(), v); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid variant id")
	}
	if _, err := h.svc.Get(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "variant not found")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete variant")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list variants")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Statistics(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to compute variant statistics")
	}
	return c.JSON(http.StatusOK, stats)
}

// BySignificance filters variants by ?significance=X. Without the parameter it
// returns the significance distribution instead of a list.
func (h *Handler) BySignificance(c echo.Context) error {
	significance := c.QueryParam("significance")
	if significance == "" {
		stats, err := h.svc.Stats(c.Request().Context())
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to compute variant statistics")
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"by_significance": stats.BySignificance,
		})
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListBySignificance(c.Request().Context(), significance, pg.Limit, pg.Offset)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) CreateGenetic(c echo.Context) error {
	var gv GeneticVariant
	if err := c.Bind(&gv); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.CreateGenetic(c.Request().Context(), &gv); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, gv)
}

func (h *Handler) GetGenetic(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid genetic variant id")
	}
	gv, err := h.svc.GetGenetic(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "genetic variant not found")
	}
	return c.JSON(http.StatusOK, gv)
}

func (h *Handler) UpdateGenetic(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid genetic variant id")
	}
	if _, err := h.svc.GetGenetic(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "genetic variant not found")
	}
	var gv GeneticVariant
	if err := c.Bind(&gv); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	gv.ID = id
	if err := h.svc.UpdateGenetic(c.Request().Context(), &gv); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, gv)
}

func (h *Handler) DeleteGenetic(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid genetic variant id")
	}
	if _, err := h.svc.GetGenetic(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "genetic variant not found")
	}
	if err := h.svc.DeleteGenetic(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete genetic variant")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListGenetic(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListGenetic(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list genetic variants")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
