package notes

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/klinikk/klinikk/internal/domain/safety"
	"github.com/klinikk/klinikk/internal/platform/auth"
	"github.com/klinikk/klinikk/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/notes", auth.RequireRole("admin", "practitioner"))
	g.POST("", h.Create)
	g.POST("/validate", h.Validate)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

type noteRequest struct {
	PatientID     uuid.UUID              `json:"patient_id"`
	EncounterType string                 `json:"encounter_type"`
	Status        string                 `json:"status"`
	Data          map[string]interface{} `json:"data"`
}

type noteResponse struct {
	Note   *Note                    `json:"note,omitempty"`
	Report *safety.ValidationReport `json:"report"`
}

func (h *Handler) Create(c echo.Context) error {
	var req noteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	n := &Note{
		PatientID:     req.PatientID,
		EncounterType: req.EncounterType,
		Status:        req.Status,
		Data:          req.Data,
	}
	if uid, err := uuid.Parse(userID); err == nil {
		n.CreatedBy = &uid
	}
	report, err := h.svc.Create(c.Request().Context(), n)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !report.CanSave {
		return c.JSON(http.StatusUnprocessableEntity, noteResponse{Report: report})
	}
	return c.JSON(http.StatusCreated, noteResponse{Note: n, Report: report})
}

func (h *Handler) Validate(c echo.Context) error {
	var req noteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	report, err := h.svc.Validate(c.Request().Context(), req.Data, req.EncounterType, req.PatientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	n, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "note not found")
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req noteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	n := &Note{
		ID:            id,
		EncounterType: req.EncounterType,
		Status:        req.Status,
		Data:          req.Data,
	}
	report, err := h.svc.Update(c.Request().Context(), n)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !report.CanSave {
		return c.JSON(http.StatusUnprocessableEntity, noteResponse{Report: report})
	}
	return c.JSON(http.StatusOK, noteResponse{Note: n, Report: report})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	if pid := c.QueryParam("patient_id"); pid != "" {
		patientID, err := uuid.Parse(pid)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		items, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, p.Limit, p.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
	}
	items, total, err := h.svc.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}
