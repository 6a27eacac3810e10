package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "rufous/internal/errors"
	"rufous/internal/models"
	"rufous/internal/pagination"

	"github.com/shopspring/decimal"
)

const categoryLabel = "CASE WHEN category IS NULL OR category = '' THEN 'Uncategorized' ELSE category END"

// transactionService handles querying and editing stored transactions.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

func (s *transactionService) filtered(filter TransactionFilter) *gorm.DB {
	q := s.db.Model(&models.Transaction{})
	if !filter.IncludeTransfers {
		q = q.Where("is_transfer = ?", false)
	}
	if filter.FromDate != nil {
		q = q.Where("transaction_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		q = q.Where("transaction_date <= ?", *filter.ToDate)
	}
	if filter.Category != nil {
		q = q.Where("category = ?", *filter.Category)
	}
	return q
}

// List returns transactions matching the filter, newest first.
func (s *transactionService) List(filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()
	if filter.FromDate != nil && filter.ToDate != nil && filter.ToDate.Before(*filter.FromDate) {
		return nil, apperrors.ErrInvalidDateRange
	}

	var total int64
	if err := s.filtered(filter).Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var txs []models.Transaction
	if err := s.filtered(filter).Order("transaction_date DESC").
		Scopes(pagination.Paginate(page)).Find(&txs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(txs, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetByID returns one transaction by its ID.
func (s *transactionService) GetByID(id string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.db.Where("id = ?", id).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &tx, nil
}

// Search matches the term against descriptions and merchants.
// Transfers are excluded.
func (s *transactionService) Search(term string, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	pattern := "%" + term + "%"

	var txs []models.Transaction
	err := s.db.Where("(description LIKE ? OR merchant LIKE ?) AND is_transfer = ?", pattern, pattern, false).
		Order("transaction_date DESC").Limit(limit).Find(&txs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txs, nil
}

// SearchWithLocation additionally filters by the location tag. Records
// without a location are kept, matching the broader search behavior.
func (s *transactionService) SearchWithLocation(term, locationFilter string) ([]models.Transaction, error) {
	pattern := "%" + term + "%"
	locPattern := "%" + locationFilter + "%"

	var txs []models.Transaction
	err := s.db.Where("(description LIKE ? OR merchant LIKE ? OR category LIKE ?)", pattern, pattern, pattern).
		Where("(location LIKE ? OR location IS NULL OR location = '')", locPattern).
		Where("is_transfer = ?", false).
		Order("transaction_date DESC").Find(&txs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txs, nil
}

// UpdateCategory sets the category pair on one transaction.
func (s *transactionService) UpdateCategory(id, category, subcategory string) (*models.Transaction, error) {
	tx, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	tx.Category = category
	tx.Subcategory = subcategory
	if err := s.db.Model(tx).Updates(map[string]any{"category": category, "subcategory": subcategory}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return tx, nil
}

// BulkUpdateCategories sets the category pair on every transaction
// whose description or merchant matches the search term. Returns the
// number of rows changed.
func (s *transactionService) BulkUpdateCategories(searchTerm, category, subcategory string) (int64, error) {
	if searchTerm == "" {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "search term is required")
	}
	pattern := "%" + searchTerm + "%"

	result := s.db.Model(&models.Transaction{}).
		Where("description LIKE ? OR merchant LIKE ?", pattern, pattern).
		Updates(map[string]any{"category": category, "subcategory": subcategory})
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return result.RowsAffected, nil
}

// SpendingByCategory breaks spending down per category. Only negative
// amounts count as spending; transfers are excluded.
func (s *transactionService) SpendingByCategory(from, to *time.Time) ([]CategorySpending, error) {
	q := s.db.Model(&models.Transaction{}).
		Select(categoryLabel+" AS category, "+
			"COUNT(*) AS transaction_count, "+
			"SUM(CASE WHEN amount < 0 THEN -amount ELSE 0 END) AS total_spent, "+
			"AVG(CASE WHEN amount < 0 THEN -amount ELSE NULL END) AS avg_expense").
		Where("is_transfer = ?", false)
	if from != nil {
		q = q.Where("transaction_date >= ?", *from)
	}
	if to != nil {
		q = q.Where("transaction_date <= ?", *to)
	}

	var rows []CategorySpending
	if err := q.Group(categoryLabel).Order("total_spent DESC").Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rows, nil
}

// MonthlyTrends aggregates activity per calendar month over the last
// n months. The month expression differs per SQL dialect.
func (s *transactionService) MonthlyTrends(months int) ([]MonthlyTrend, error) {
	if months <= 0 {
		months = 12
	}

	monthExpr := "to_char(transaction_date, 'YYYY-MM')"
	if s.db.Dialector.Name() == "sqlite" {
		monthExpr = "strftime('%Y-%m', transaction_date)"
	}
	cutoff := time.Now().AddDate(0, -months, 0)

	var rows []MonthlyTrend
	err := s.db.Model(&models.Transaction{}).
		Select(monthExpr+" AS month, "+
			"COUNT(*) AS transaction_count, "+
			"SUM(CASE WHEN amount < 0 THEN -amount ELSE 0 END) AS total_spent, "+
			"SUM(CASE WHEN amount > 0 THEN amount ELSE 0 END) AS total_income").
		Where("transaction_date >= ? AND is_transfer = ?", cutoff, false).
		Group(monthExpr).Order("month").Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range rows {
		rows[i].NetFlow = rows[i].TotalIncome.Sub(rows[i].TotalSpent)
	}
	return rows, nil
}

// Stats summarizes the whole store for the dashboard.
func (s *transactionService) Stats() (*Stats, error) {
	stats := &Stats{}

	if err := s.db.Model(&models.Transaction{}).Count(&stats.TotalTransactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Model(&models.Statement{}).Count(&stats.TotalStatements).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if stats.TotalTransactions > 0 {
		var earliest, latest models.Transaction
		if err := s.db.Order("transaction_date ASC").First(&earliest).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.db.Order("transaction_date DESC").First(&latest).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		stats.EarliestDate = &earliest.TransactionDate
		stats.LatestDate = &latest.TransactionDate
	}

	var totals struct {
		TotalSpent  decimal.NullDecimal
		TotalIncome decimal.NullDecimal
	}
	err := s.db.Model(&models.Transaction{}).
		Select("SUM(CASE WHEN amount < 0 THEN -amount ELSE 0 END) AS total_spent, " +
			"SUM(CASE WHEN amount > 0 THEN amount ELSE 0 END) AS total_income").
		Where("is_transfer = ?", false).
		Scan(&totals).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	stats.TotalSpent = totals.TotalSpent.Decimal
	stats.TotalIncome = totals.TotalIncome.Decimal
	stats.NetChange = stats.TotalIncome.Sub(stats.TotalSpent)
	return stats, nil
}

// CategorySummary reports how much of the store is categorized.
func (s *transactionService) CategorySummary() (*CategorySummary, error) {
	summary := &CategorySummary{Categories: make(map[string]int64)}

	if err := s.db.Model(&models.Transaction{}).Count(&summary.TotalTransactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Model(&models.Transaction{}).
		Where("category IS NOT NULL AND category != ''").
		Count(&summary.Categorized).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	summary.Uncategorized = summary.TotalTransactions - summary.Categorized

	var rows []struct {
		Category string
		Count    int64
	}
	err := s.db.Model(&models.Transaction{}).
		Select("category, COUNT(*) AS count").
		Where("category IS NOT NULL AND category != ''").
		Group("category").Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, row := range rows {
		summary.Categories[row.Category] = row.Count
	}
	return summary, nil
}
