package safety

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/klinikk/klinikk/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/safety", auth.RequireRole("admin", "practitioner"))
	g.POST("/scan", h.Scan)
	g.POST("/risk-score", h.RiskScore)
	g.POST("/validate-content", h.ValidateContent)
	g.GET("/categories", h.ListCategories)
}

type scanRequest struct {
	Text    string          `json:"text"`
	Patient *PatientContext `json:"patient,omitempty"`
}

func (h *Handler) Scan(c echo.Context) error {
	var req scanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	flags := h.svc.ScanForRedFlags(req.Text, req.Patient)
	if flags == nil {
		flags = []DetectedFlag{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"red_flags":  flags,
		"flag_count": len(flags),
	})
}

type riskScoreRequest struct {
	Flags   []DetectedFlag  `json:"flags"`
	Patient *PatientContext `json:"patient,omitempty"`
}

func (h *Handler) RiskScore(c echo.Context) error {
	var req riskScoreRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.svc.CalculateRiskScore(req.Flags, req.Patient))
}

type validateContentRequest struct {
	Content string           `json:"content"`
	Context *ClinicalContext `json:"context,omitempty"`
}

func (h *Handler) ValidateContent(c echo.Context) error {
	var req validateContentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.svc.ValidateContent(req.Content, req.Context))
}

func (h *Handler) ListCategories(c echo.Context) error {
	var out []CategoryInfo
	for _, rule := range h.svc.Registry().Rules() {
		if info, ok := h.svc.Registry().Category(rule.Category); ok {
			found := false
			for _, existing := range out {
				if existing.Code == info.Code {
					found = true
					break
				}
			}
			if !found {
				out = append(out, info)
			}
		}
	}
	return c.JSON(http.StatusOK, out)
}
