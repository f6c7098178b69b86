package handler

import (
	"net/http"
	"time"

	response "github.com/mpsp-digital/jurist-prompts-hub/internal/infra/common"
	dashboardservice "github.com/mpsp-digital/jurist-prompts-hub/internal/service/dashboard"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DashboardHandler exposes the aggregate views behind the admin dashboard.
type DashboardHandler struct {
	service *dashboardservice.Service
	logger  *zap.SugaredLogger
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(service *dashboardservice.Service, logger *zap.SugaredLogger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With("component", "dashboard_handler"),
	}
}

// Overview returns the all-time dashboard.
func (h *DashboardHandler) Overview(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	data, err := h.service.Overview(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, data, nil)
}

// Period returns the dashboard limited to ?inicio=YYYY-MM-DD&fim=YYYY-MM-DD.
// The end date is inclusive: the filter runs to the following midnight.
func (h *DashboardHandler) Period(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	from, err := time.Parse("2006-01-02", c.Query("inicio"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "parâmetro inicio inválido, use AAAA-MM-DD", nil)
		return
	}
	until, err := time.Parse("2006-01-02", c.Query("fim"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "parâmetro fim inválido, use AAAA-MM-DD", nil)
		return
	}

	data, err := h.service.Period(c.Request.Context(), from, until.AddDate(0, 0, 1))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, data, nil)
}
