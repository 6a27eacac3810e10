package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "rufous/internal/errors"
	"rufous/internal/services"
)

// InsightHandler handles natural-language query requests.
type InsightHandler struct {
	insightService services.InsightServicer
}

// NewInsightHandler creates a new InsightHandler.
func NewInsightHandler(insightService services.InsightServicer) *InsightHandler {
	return &InsightHandler{insightService: insightService}
}

// QueryRequest represents a natural-language question.
type QueryRequest struct {
	Query string `json:"query" binding:"required,max=1000"`
}

// Query handles a natural-language question
// @Summary     Ask a question
// @Description Answer a natural-language question about stored transactions
// @Tags        insights
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body QueryRequest true "Question"
// @Success     200 {object} services.InsightResult "Answer with supporting data"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     503 {object} ErrorResponse "Insight backend not configured"
// @Router      /insights/query [post]
func (h *InsightHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.insightService.Query(c.Request.Context(), req.Query)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// History handles query history retrieval
// @Summary     Query history
// @Description Get recent natural-language queries, optionally favorites only
// @Tags        insights
// @Produce     json
// @Security    ApiKeyAuth
// @Param       limit     query int  false "Maximum entries (default 50)"
// @Param       favorited query bool false "Only favorited queries"
// @Success     200 {object} map[string]any "Query history"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /insights/history [get]
func (h *InsightHandler) History(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid limit"))
			return
		}
		limit = parsed
	}

	favoritedOnly := false
	if v := c.Query("favorited"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid favorited"))
			return
		}
		favoritedOnly = parsed
	}

	history, err := h.insightService.History(limit, favoritedOnly)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}
