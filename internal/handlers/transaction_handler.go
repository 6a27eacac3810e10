package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "rufous/internal/errors"
	"rufous/internal/pagination"
	"rufous/internal/services"
)

// TransactionHandler handles transaction query and edit requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// UpdateCategoryRequest represents a category assignment.
type UpdateCategoryRequest struct {
	Category    string `json:"category" binding:"required,max=100"`
	Subcategory string `json:"subcategory" binding:"max=100"`
}

// BulkUpdateCategoryRequest represents a bulk category assignment.
type BulkUpdateCategoryRequest struct {
	SearchTerm  string `json:"search_term" binding:"required,max=200"`
	Category    string `json:"category" binding:"required,max=100"`
	Subcategory string `json:"subcategory" binding:"max=100"`
}

// List handles the retrieval of transactions
// @Summary     List transactions
// @Description Get a paginated list of transactions with optional filters
// @Tags        transactions
// @Produce     json
// @Security    ApiKeyAuth
// @Param       page              query int    false "Page number (default 1)"
// @Param       page_size         query int    false "Items per page (default 20, max 100)"
// @Param       from_date         query string false "Filter by start date (YYYY-MM-DD or RFC3339)"
// @Param       to_date           query string false "Filter by end date (YYYY-MM-DD or RFC3339)"
// @Param       category          query string false "Filter by category"
// @Param       include_transfers query bool   false "Include transfers (default false)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.List(filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get handles the retrieval of a single transaction
// @Summary     Get a transaction
// @Description Get one transaction by ID
// @Tags        transactions
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	tx, err := h.transactionService.GetByID(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// Search handles transaction search
// @Summary     Search transactions
// @Description Search descriptions and merchants, optionally narrowed to a location
// @Tags        transactions
// @Produce     json
// @Security    ApiKeyAuth
// @Param       q        query string true  "Search term"
// @Param       location query string false "Location filter (city, region, or country)"
// @Param       limit    query int    false "Maximum results (default 100)"
// @Success     200 {object} map[string]any "Matching transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /transactions/search [get]
func (h *TransactionHandler) Search(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "q is required"))
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid limit"))
			return
		}
		limit = parsed
	}

	if location := c.Query("location"); location != "" {
		results, err := h.transactionService.SearchWithLocation(term, location)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"transactions": results, "count": len(results)})
		return
	}

	results, err := h.transactionService.Search(term, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": results, "count": len(results)})
}

// UpdateCategory handles a category assignment on one transaction
// @Summary     Update a transaction category
// @Description Set the category and subcategory of one transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id      path string                true "Transaction ID"
// @Param       request body UpdateCategoryRequest true "Category assignment"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id}/category [put]
func (h *TransactionHandler) UpdateCategory(c *gin.Context) {
	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	tx, err := h.transactionService.UpdateCategory(c.Param("id"), req.Category, req.Subcategory)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// BulkUpdateCategories handles a bulk category assignment
// @Summary     Bulk update categories
// @Description Set the category on every transaction matching a search term
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body BulkUpdateCategoryRequest true "Bulk assignment"
// @Success     200 {object} map[string]any "Number of transactions updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /transactions/categories [put]
func (h *TransactionHandler) BulkUpdateCategories(c *gin.Context) {
	var req BulkUpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	updated, err := h.transactionService.BulkUpdateCategories(req.SearchTerm, req.Category, req.Subcategory)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// Spending handles the per-category spending breakdown
// @Summary     Spending by category
// @Description Get total and average spending per category
// @Tags        analytics
// @Produce     json
// @Security    ApiKeyAuth
// @Param       from_date query string false "Start date (YYYY-MM-DD or RFC3339)"
// @Param       to_date   query string false "End date (YYYY-MM-DD or RFC3339)"
// @Success     200 {object} map[string]any "Per-category spending rows"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /analytics/spending [get]
func (h *TransactionHandler) Spending(c *gin.Context) {
	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rows, err := h.transactionService.SpendingByCategory(filter.FromDate, filter.ToDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": rows})
}

// Trends handles the monthly trend aggregation
// @Summary     Monthly trends
// @Description Get per-month spending, income, and net flow
// @Tags        analytics
// @Produce     json
// @Security    ApiKeyAuth
// @Param       months query int false "Number of months to cover (default 12)"
// @Success     200 {object} map[string]any "Monthly trend rows"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /analytics/trends [get]
func (h *TransactionHandler) Trends(c *gin.Context) {
	months := 0
	if v := c.Query("months"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid months"))
			return
		}
		months = parsed
	}

	rows, err := h.transactionService.MonthlyTrends(months)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"months": rows})
}

// Stats handles the store-wide summary
// @Summary     Store statistics
// @Description Get transaction counts, date bounds, and totals
// @Tags        analytics
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} services.Stats "Statistics"
// @Router      /analytics/stats [get]
func (h *TransactionHandler) Stats(c *gin.Context) {
	stats, err := h.transactionService.Stats()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CategorySummary handles the categorization coverage report
// @Summary     Categorization summary
// @Description Get categorized and uncategorized counts per category
// @Tags        analytics
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} services.CategorySummary "Coverage summary"
// @Router      /analytics/categories [get]
func (h *TransactionHandler) CategorySummary(c *gin.Context) {
	summary, err := h.transactionService.CategorySummary()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if v := c.Query("from_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from_date format, use YYYY-MM-DD or RFC3339")
		}
		filter.FromDate = &t
	}

	if v := c.Query("to_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to_date format, use YYYY-MM-DD or RFC3339")
		}
		filter.ToDate = &t
	}

	if v := c.Query("category"); v != "" {
		category := v
		filter.Category = &category
	}

	if v := c.Query("include_transfers"); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid include_transfers")
		}
		filter.IncludeTransfers = include
	}

	return filter, nil
}
