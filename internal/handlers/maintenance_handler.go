package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "rufous/internal/errors"
	"rufous/internal/services"
)

// MaintenanceHandler handles bulk fix-up sweep requests.
type MaintenanceHandler struct {
	maintenanceService services.MaintenanceServicer
}

// NewMaintenanceHandler creates a new MaintenanceHandler.
func NewMaintenanceHandler(maintenanceService services.MaintenanceServicer) *MaintenanceHandler {
	return &MaintenanceHandler{maintenanceService: maintenanceService}
}

// AutoCategorizeRequest controls the categorization sweep.
type AutoCategorizeRequest struct {
	Force bool `json:"force"`
}

// AutoCategorize handles the categorization sweep
// @Summary     Auto-categorize transactions
// @Description Run the categorizer over uncategorized transactions, or all with force
// @Tags        maintenance
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body AutoCategorizeRequest false "Sweep options"
// @Success     200 {object} map[string]any "Number of transactions categorized"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /maintenance/categorize [post]
func (h *MaintenanceHandler) AutoCategorize(c *gin.Context) {
	var req AutoCategorizeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	updated, err := h.maintenanceService.AutoCategorize(req.Force)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// BackfillLocations handles the location backfill sweep
// @Summary     Backfill locations
// @Description Extract location tags from stored descriptions that have none
// @Tags        maintenance
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} map[string]any "Number of locations backfilled"
// @Router      /maintenance/locations [post]
func (h *MaintenanceHandler) BackfillLocations(c *gin.Context) {
	updated, err := h.maintenanceService.BackfillLocations()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// FixCreditAmounts handles the credit sign repair sweep
// @Summary     Fix credit amounts
// @Description Flip positive purchase amounts on credit accounts to negative
// @Tags        maintenance
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} map[string]any "Number of amounts fixed"
// @Router      /maintenance/credit-amounts [post]
func (h *MaintenanceHandler) FixCreditAmounts(c *gin.Context) {
	fixed, err := h.maintenanceService.FixCreditAmounts()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fixed": fixed})
}

// MarkTransfers handles the transfer flagging sweep
// @Summary     Mark transfers
// @Description Flag stored transactions matching the transfer vocabulary
// @Tags        maintenance
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} map[string]any "Number of transfers marked"
// @Router      /maintenance/transfers [post]
func (h *MaintenanceHandler) MarkTransfers(c *gin.Context) {
	marked, err := h.maintenanceService.MarkTransfers()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": marked})
}
