package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"rufous/internal/categorize"
	apperrors "rufous/internal/errors"
	"rufous/internal/importer"
	"rufous/internal/logger"
	"rufous/internal/models"
	"rufous/internal/pagination"
	"rufous/internal/parser"

	"github.com/shopspring/decimal"
)

// statementService handles statement ingestion: parse, deduplicate,
// categorize, store, and register the statement so it is never
// processed twice.
type statementService struct {
	db          *gorm.DB
	parser      *parser.Parser
	categorizer *categorize.Categorizer
}

// NewStatementService creates a new StatementServicer.
func NewStatementService(db *gorm.DB, p *parser.Parser, c *categorize.Categorizer) StatementServicer {
	return &statementService{db: db, parser: p, categorizer: c}
}

// IngestText runs the full pipeline over already-extracted statement
// text. A statement yielding zero transactions is not an error.
func (s *statementService) IngestText(rawText, filename string, accountType models.AccountType) (*IngestResult, error) {
	if accountType != models.AccountTypeDebit && accountType != models.AccountTypeCredit {
		return nil, apperrors.ErrUnknownAccount
	}
	if err := s.checkNotProcessed(filename); err != nil {
		return nil, err
	}

	txs := parser.Deduplicate(s.parser.Parse(rawText, accountType, filename))
	return s.store(txs, filename, accountType)
}

// ImportJSON runs the manual-import fallback path. It shares the
// storage and registration behavior of IngestText but not its parsing.
func (s *statementService) ImportJSON(data []byte, filename string, accountType models.AccountType) (*IngestResult, error) {
	if accountType != models.AccountTypeDebit && accountType != models.AccountTypeCredit {
		return nil, apperrors.ErrUnknownAccount
	}
	if err := s.checkNotProcessed(filename); err != nil {
		return nil, err
	}

	txs, err := importer.Import(data, filename, accountType)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidJSON, err)
	}
	if len(txs) == 0 {
		return nil, apperrors.ErrNoValidRecords
	}
	return s.store(parser.Deduplicate(txs), filename, accountType)
}

// IsProcessed reports whether a statement filename was already ingested.
func (s *statementService) IsProcessed(filename string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.Statement{}).Where("filename = ?", filename).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// ListStatements returns processed statements, most recent first.
func (s *statementService) ListStatements(page pagination.PageRequest) (*pagination.PageResponse[models.Statement], error) {
	page.Defaults()

	var total int64
	if err := s.db.Model(&models.Statement{}).Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var statements []models.Statement
	if err := s.db.Order("processed_at DESC").Scopes(pagination.Paginate(page)).Find(&statements).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(statements, page.Page, page.PageSize, total)
	return &resp, nil
}

func (s *statementService) checkNotProcessed(filename string) error {
	processed, err := s.IsProcessed(filename)
	if err != nil {
		return err
	}
	if processed {
		return apperrors.ErrStatementAlreadyProcessed
	}
	return nil
}

// store categorizes the batch, inserts records not already present,
// and registers the statement. Cross-statement uniqueness is enforced
// here, not in the parser.
func (s *statementService) store(txs []models.Transaction, filename string, accountType models.AccountType) (*IngestResult, error) {
	added := 0
	total := decimal.Zero

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range txs {
			record := &txs[i]

			if category, subcategory := s.categorizer.Categorize(record.Description, record.Merchant); category != "" {
				record.Category = category
				record.Subcategory = subcategory
			}

			var count int64
			if err := tx.Model(&models.Transaction{}).
				Where("transaction_date = ? AND description = ? AND statement_source = ?",
					record.TransactionDate, record.Description, record.StatementSource).
				Where("ABS(amount - ?) < 0.01", record.Amount.InexactFloat64()).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}

			if err := tx.Create(record).Error; err != nil {
				return err
			}
			added++
			total = total.Add(record.Amount)
		}

		statement := &models.Statement{
			Filename:         filename,
			AccountType:      accountType,
			TransactionCount: added,
			TotalAmount:      total,
			ProcessedAt:      time.Now(),
		}
		return tx.Create(statement).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var statement models.Statement
	if err := s.db.Where("filename = ?", filename).First(&statement).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrStatementNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infof("processed %s: %d of %d transactions added", filename, added, len(txs))
	return &IngestResult{Statement: &statement, Parsed: len(txs), Added: added}, nil
}
