package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eitanrom/plada-backend/internal/http/response"
	"github.com/eitanrom/plada-backend/internal/metrics"
	pkgerrors "github.com/eitanrom/plada-backend/internal/pkg/errors"
	"github.com/eitanrom/plada-backend/internal/pkg/logger"
)

type MetricsHandler struct {
	log    *logger.Logger
	engine *metrics.Engine
}

func NewMetricsHandler(log *logger.Logger, engine *metrics.Engine) *MetricsHandler {
	return &MetricsHandler{
		log:    log.With("handler", "MetricsHandler"),
		engine: engine,
	}
}

// GET /api/overview?week=&company=
func (h *MetricsHandler) Overview(c *gin.Context) {
	view, err := h.engine.Overview(c.Request.Context(), c.Query("week"), c.Query("company"))
	if err != nil {
		h.log.Error("overview failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "overview_failed", err)
		return
	}
	response.RespondOK(c, view)
}

// GET /api/companies/:company/tanks?week=
func (h *MetricsHandler) CompanyTanks(c *gin.Context) {
	view, err := h.engine.CompanyTanks(c.Request.Context(), c.Param("company"), c.Query("week"))
	if err != nil {
		h.log.Error("company tanks failed", "company", c.Param("company"), "error", err)
		response.RespondError(c, http.StatusInternalServerError, "company_tanks_failed", err)
		return
	}
	response.RespondOK(c, view)
}

// GET /api/companies/:company/sections?week=
func (h *MetricsHandler) CompanySections(c *gin.Context) {
	view, err := h.engine.CompanySections(c.Request.Context(), c.Param("company"), c.Query("week"))
	if err != nil {
		h.log.Error("company sections failed", "company", c.Param("company"), "error", err)
		response.RespondError(c, http.StatusInternalServerError, "company_sections_failed", err)
		return
	}
	response.RespondOK(c, view)
}

// GET /api/gaps?week=&company=&group_by=
func (h *MetricsHandler) Gaps(c *gin.Context) {
	view, err := h.engine.Gaps(c.Request.Context(), c.Query("week"), c.Query("company"), c.Query("group_by"))
	if err != nil {
		if errors.Is(err, pkgerrors.ErrInvalidArgument) {
			response.RespondError(c, http.StatusBadRequest, "invalid_group_by", err)
			return
		}
		h.log.Error("gaps failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "gaps_failed", err)
		return
	}
	response.RespondOK(c, view)
}

// GET /api/trends?metric=&weeks=&company=
func (h *MetricsHandler) Trends(c *gin.Context) {
	weeks, _ := strconv.Atoi(c.DefaultQuery("weeks", "0"))
	view, err := h.engine.Trends(c.Request.Context(), c.DefaultQuery("metric", metrics.TrendReadiness), weeks, c.Query("company"))
	if err != nil {
		if errors.Is(err, pkgerrors.ErrInvalidArgument) {
			response.RespondError(c, http.StatusBadRequest, "invalid_metric", err)
			return
		}
		h.log.Error("trends failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "trends_failed", err)
		return
	}
	response.RespondOK(c, view)
}

// GET /api/search?q=&week=&company=&limit=
func (h *MetricsHandler) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	results, err := h.engine.Search(c.Request.Context(), c.Query("q"), c.Query("week"), c.Query("company"), limit)
	if err != nil {
		h.log.Error("search failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "search_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"results": results})
}
