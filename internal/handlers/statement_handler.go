package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	apperrors "rufous/internal/errors"
	"rufous/internal/extractor"
	"rufous/internal/models"
	"rufous/internal/pagination"
	"rufous/internal/services"
)

// StatementHandler handles statement upload and import requests.
type StatementHandler struct {
	statementService services.StatementServicer
	extractText      func(path string) (string, error)
}

// NewStatementHandler creates a new StatementHandler.
func NewStatementHandler(statementService services.StatementServicer) *StatementHandler {
	return &StatementHandler{
		statementService: statementService,
		extractText:      extractor.ExtractText,
	}
}

// IngestTextRequest represents pre-extracted statement text to ingest.
type IngestTextRequest struct {
	Filename    string `json:"filename" binding:"required,max=255"`
	AccountType string `json:"account_type" binding:"required,account_type"`
	Text        string `json:"text" binding:"required"`
}

// ImportRequest represents a manual JSON import payload.
type ImportRequest struct {
	Filename     string          `json:"filename" binding:"required,max=255"`
	AccountType  string          `json:"account_type" binding:"required,account_type"`
	Transactions json.RawMessage `json:"transactions" binding:"required"`
}

// Upload handles a PDF statement upload
// @Summary     Upload a statement PDF
// @Description Extract text from an uploaded PDF statement and ingest its transactions
// @Tags        statements
// @Accept      multipart/form-data
// @Produce     json
// @Security    ApiKeyAuth
// @Param       file         formData file   true "Statement PDF"
// @Param       account_type formData string true "Account type (debit or credit)"
// @Success     201 {object} services.IngestResult "Ingestion summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Statement already processed"
// @Failure     422 {object} ErrorResponse "No text could be extracted"
// @Router      /statements/upload [post]
func (h *StatementHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "a statement file is required"))
		return
	}
	accountType := models.AccountType(c.PostForm("account_type"))

	tmpDir, err := os.MkdirTemp("", "statement-upload-*")
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, path); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	text, err := h.extractText(path)
	if err != nil {
		// The manual import endpoint is the fallback for these.
		respondWithError(c, apperrors.Wrap(apperrors.ErrNotExtractable, err))
		return
	}

	result, err := h.statementService.IngestText(text, file.Filename, accountType)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// IngestText handles ingestion of pre-extracted statement text
// @Summary     Ingest statement text
// @Description Ingest transactions from already-extracted statement text
// @Tags        statements
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body IngestTextRequest true "Statement text"
// @Success     201 {object} services.IngestResult "Ingestion summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Statement already processed"
// @Router      /statements/text [post]
func (h *StatementHandler) IngestText(c *gin.Context) {
	var req IngestTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.statementService.IngestText(req.Text, req.Filename, models.AccountType(req.AccountType))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Import handles a manual JSON transaction import
// @Summary     Import transactions manually
// @Description Import a JSON array of transactions for statements that could not be extracted
// @Tags        statements
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body ImportRequest true "Transactions to import"
// @Success     201 {object} services.IngestResult "Import summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Statement already processed"
// @Failure     422 {object} ErrorResponse "No valid records"
// @Router      /statements/import [post]
func (h *StatementHandler) Import(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.statementService.ImportJSON(req.Transactions, req.Filename, models.AccountType(req.AccountType))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// List handles listing processed statements
// @Summary     List statements
// @Description Get a paginated list of processed statements
// @Tags        statements
// @Produce     json
// @Security    ApiKeyAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Statement] "Paginated statements"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /statements [get]
func (h *StatementHandler) List(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.statementService.ListStatements(page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
