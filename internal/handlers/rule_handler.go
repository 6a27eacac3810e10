package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "rufous/internal/errors"
	"rufous/internal/pagination"
	"rufous/internal/services"
)

// RuleHandler handles custom categorization rule requests.
type RuleHandler struct {
	ruleService services.RuleServicer
}

// NewRuleHandler creates a new RuleHandler.
func NewRuleHandler(ruleService services.RuleServicer) *RuleHandler {
	return &RuleHandler{ruleService: ruleService}
}

// CreateRuleRequest represents a new custom categorization rule.
type CreateRuleRequest struct {
	Category    string   `json:"category" binding:"required,max=100"`
	Subcategory string   `json:"subcategory" binding:"max=100"`
	Patterns    []string `json:"patterns" binding:"max=20,dive,max=200"`
	Keywords    []string `json:"keywords" binding:"max=20,dive,max=100"`
	Priority    int      `json:"priority" binding:"omitempty,min=1,max=10"`
}

// Create handles the creation of a custom rule
// @Summary     Create a categorization rule
// @Description Create a custom rule with regex patterns and/or keywords
// @Tags        rules
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body CreateRuleRequest true "Rule definition"
// @Success     201 {object} models.CustomRule "Created rule"
// @Failure     400 {object} ErrorResponse "Invalid rule"
// @Router      /rules [post]
func (h *RuleHandler) Create(c *gin.Context) {
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	rule, err := h.ruleService.Create(req.Category, req.Subcategory, req.Patterns, req.Keywords, req.Priority)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"rule": rule})
}

// List handles listing custom rules
// @Summary     List categorization rules
// @Description Get a paginated list of custom rules, highest priority first
// @Tags        rules
// @Produce     json
// @Security    ApiKeyAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.CustomRule] "Paginated rules"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /rules [get]
func (h *RuleHandler) List(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.ruleService.List(page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Delete handles rule deletion
// @Summary     Delete a categorization rule
// @Description Delete a custom rule; it stays active in memory until restart
// @Tags        rules
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path string true "Rule ID"
// @Success     204 "Rule deleted"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Router      /rules/{id} [delete]
func (h *RuleHandler) Delete(c *gin.Context) {
	if err := h.ruleService.Delete(c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Categories handles listing known categories
// @Summary     List categories
// @Description Get every known category and subcategory pair
// @Tags        rules
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} map[string]any "Category pairs"
// @Router      /categories [get]
func (h *RuleHandler) Categories(c *gin.Context) {
	pairs := h.ruleService.Categories()
	categories := make([]gin.H, 0, len(pairs))
	for _, pair := range pairs {
		categories = append(categories, gin.H{"category": pair[0], "subcategory": pair[1]})
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// Explain handles categorization explanations
// @Summary     Explain a categorization
// @Description Report which rule, pattern, or keyword a description resolves through
// @Tags        rules
// @Produce     json
// @Security    ApiKeyAuth
// @Param       description query string true  "Transaction description"
// @Param       merchant    query string false "Merchant name"
// @Success     200 {object} map[string]any "Explanation"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /categorize/explain [get]
func (h *RuleHandler) Explain(c *gin.Context) {
	description := c.Query("description")
	if description == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required"))
		return
	}

	explanation := h.ruleService.Explain(description, c.Query("merchant"))
	c.JSON(http.StatusOK, gin.H{"explanation": explanation})
}
