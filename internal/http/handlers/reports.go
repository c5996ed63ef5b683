package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eitanrom/plada-backend/internal/data/repos"
	"github.com/eitanrom/plada-backend/internal/http/response"
	"github.com/eitanrom/plada-backend/internal/ingest"
	"github.com/eitanrom/plada-backend/internal/pkg/dbctx"
	pkgerrors "github.com/eitanrom/plada-backend/internal/pkg/errors"
	"github.com/eitanrom/plada-backend/internal/pkg/logger"
)

type ReportsHandler struct {
	log         *logger.Logger
	ingestSvc   *ingest.Service
	deadLetters repos.DeadLetterRepo
}

func NewReportsHandler(log *logger.Logger, ingestSvc *ingest.Service, deadLetters repos.DeadLetterRepo) *ReportsHandler {
	return &ReportsHandler{
		log:         log.With("handler", "ReportsHandler"),
		ingestSvc:   ingestSvc,
		deadLetters: deadLetters,
	}
}

// POST /api/reports
func (h *ReportsHandler) Ingest(c *gin.Context) {
	var input ingest.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	result, err := h.ingestSvc.Ingest(c.Request.Context(), input)
	if err != nil {
		if ve, ok := pkgerrors.AsValidation(err); ok {
			response.RespondValidation(c, "validation_failed", ve.Error(), ve.MissingRequired, ve.UnmappedFields)
			return
		}
		h.log.Error("ingest failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "ingest_failed", err)
		return
	}
	if result.Created {
		response.RespondCreated(c, result)
		return
	}
	response.RespondOK(c, result)
}

// GET /api/deadletters
func (h *ReportsHandler) ListDeadLetters(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := h.deadLetters.List(dbctx.Context{Ctx: c.Request.Context()}, limit)
	if err != nil {
		h.log.Error("list dead letters failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "load_dead_letters_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"dead_letters": rows})
}
