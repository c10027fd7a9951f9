package reports

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/oncolab/genomics-api/internal/platform/clinical"
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
	g.POST("/patient-reports", h.Create)
	g.GET("/patient-reports", h.List)
	g.GET("/patient-reports/statistics", h.Statistics)
	g.GET("/patient-reports/:id", h.Get)
	g.PUT("/patient-reports/:id", h.Update)
	g.DELETE("/patient-reports/:id", h.Delete)
	g.POST("/patient-reports/:id/variants", h.AddVariant)
	g.DELETE("/patient-reports/:id/variants/:variantID", h.RemoveVariant)
	g.GET("/patient-reports/:id/patient-info", h.PatientInfo)

	g.GET("/report-variants", h.ListObservations)
	g.GET("/report-variants/:id", h.GetObservation)
	g.PUT("/report-variants/:id", h.UpdateObservation)

	g.POST("/patient-variant-reports", h.CreateDetection)
	g.GET("/patient-variant-reports", h.ListDetections)
	g.GET("/patient-variant-reports/:id", h.GetDetection)
	g.PUT("/patient-variant-reports/:id", h.UpdateDetection)
	g.DELETE("/patient-variant-reports/:id", h.DeleteDetection)

	g.GET("/patients", h.AvailablePatients)
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
		return echo.NewHTTPError(http.StatusConflict, "this variant is already in the report")
	}
	if db.IsForeignKeyViolation(err) {
		return echo.NewHTTPError(http.StatusBadRequest, "referenced record does not exist")
	}
	if errors.Is(err, clinical.ErrServiceUnavailable) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "clinical service unavailable")
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

func (h *Handler) Create(c echo.Context) error {
	var pr PatientReport
	if err := c.Bind(&pr); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Create(c.Request().Context(), &pr); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, pr)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report id")
	}
	view, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "report not found")
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report id")
	}
	if _, err := h.svc.repo.GetByID(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "report not found")
	}
	var pr PatientReport
	if err := c.Bind(&pr); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	pr.ID = id
	if err := h.svc.Update(c.Request().Context(), &pr); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, pr)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report id")
	}
	if _, err := h.svc.repo.GetByID(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "report not found")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete report")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list reports")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) AddVariant(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report id")
	}
	var rv ReportVariant
	if err := c.Bind(&rv); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.AddVariant(c.Request().Context(), id, &rv); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "report not found")
		}
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, rv)
}

func (h *Handler) RemoveVariant(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report id")
	}
	variantID, err := uuid.Parse(c.Param("variantID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid variant id")
	}
	if err := h.svc.RemoveVariant(c.Request().Context(), id, variantID); err != nil {
		if errors.Is(err, ErrVariantNotInReport) {
			return echo.NewHTTPError(http.StatusNotFound, ErrVariantNotInReport.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to remove variant")
	}
	return c.NoContent(http.StatusNoContent)
}

// ListObservations serves the standalone report-variant collection with
// optional report_id/variant_id/zygosity filters and whitelisted sorting.
func (h *Handler) ListObservations(c echo.Context) error {
	var f ReportVariantFilter
	if v := c.QueryParam("report_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid report_id filter")
		}
		f.ReportID = &id
	}
	if v := c.QueryParam("variant_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid variant_id filter")
		}
		f.VariantID = &id
	}
	f.Zygosity = c.QueryParam("zygosity")
	f.Sort = c.QueryParam("sort")

	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListObservations(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetObservation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report variant id")
	}
	rv, err := h.svc.GetObservation(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "report variant not found")
	}
	return c.JSON(http.StatusOK, rv)
}

// UpdateObservation edits zygosity, frequency, coverage, and interpretation.
// The owning report and catalog variant cannot be reassigned here.
func (h *Handler) UpdateObservation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report variant id")
	}
	existing, err := h.svc.GetObservation(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "report variant not found")
	}
	var rv ReportVariant
	if err := c.Bind(&rv); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	rv.ID = existing.ID
	rv.ReportID = existing.ReportID
	rv.VariantID = existing.VariantID
	if err := h.svc.UpdateObservation(c.Request().Context(), &rv); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, rv)
}

// PatientInfo proxies the clinical-service lookup for the report's patient.
// Unlike the detail view this endpoint does not degrade: 404 and 503 pass
// through to the caller.
func (h *Handler) PatientInfo(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report id")
	}
	patient, err := h.svc.PatientInfo(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, clinical.ErrPatientNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found in clinical service")
		}
		if errors.Is(err, clinical.ErrServiceUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "clinical service unavailable")
		}
		return echo.NewHTTPError(http.StatusNotFound, "report not found")
	}
	return c.JSON(http.StatusOK, patient)
}

func (h *Handler) AvailablePatients(c echo.Context) error {
	patients, err := h.svc.AvailablePatients(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "clinical service unavailable")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":    len(patients),
		"patients": patients,
	})
}

func (h *Handler) Statistics(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to compute report statistics")
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) CreateDetection(c echo.Context) error {
	var d PatientVariantReport
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.CreateDetection(c.Request().Context(), &d); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDetection(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid detection id")
	}
	d, err := h.svc.GetDetection(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "detection not found")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateDetection(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid detection id")
	}
	if _, err := h.svc.GetDetection(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "detection not found")
	}
	var d PatientVariantReport
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	d.ID = id
	if err := h.svc.UpdateDetection(c.Request().Context(), &d); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDetection(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid detection id")
	}
	if _, err := h.svc.GetDetection(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "detection not found")
	}
	if err := h.svc.DeleteDetection(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete detection")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListDetections(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListDetections(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list detections")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
