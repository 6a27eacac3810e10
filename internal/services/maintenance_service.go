package services

import (
	"gorm.io/gorm"

	"rufous/internal/categorize"
	apperrors "rufous/internal/errors"
	"rufous/internal/location"
	"rufous/internal/logger"
	"rufous/internal/models"
)

// Transfer vocabulary for the stored-data sweep, applied as LIKE
// patterns. Mirrors the parser's vocabulary minus the payment-received
// variants that never reach storage.
var transferPatterns = []string{
	"%PAYMENT%", "%PYMT%", "%AUTOPAY%", "%AUTOMATIC PAYMENT%",
	"%TRANSFER%", "%TRSF%", "%DIRECT DEBIT%", "%PREAUTH%", "%PRE-AUTH%",
	"%CREDIT CARD PAYMENT%", "%ONLINE PAYMENT%", "%PAYPAL TRANSFER%",
	"%INTERAC TRANSFER%", "%E-TRANSFER%", "%FROM/DE ACCT%", "%TO/A ACCT%",
}

// Descriptions containing these are payments or credits, exempt from
// the credit-amount sign repair.
var creditExemptPatterns = []string{
	"%PAYMENT%", "%PYMT%", "%AUTOPAY%", "%AUTOMATIC%", "%CREDIT%",
}

// maintenanceService runs best-effort bulk fix-up sweeps over stored
// data, for one-time correction of historically-misimported records.
type maintenanceService struct {
	db          *gorm.DB
	categorizer *categorize.Categorizer
	extractor   *location.Extractor
}

// NewMaintenanceService creates a new MaintenanceServicer.
func NewMaintenanceService(db *gorm.DB, c *categorize.Categorizer, e *location.Extractor) MaintenanceServicer {
	return &maintenanceService{db: db, categorizer: c, extractor: e}
}

// AutoCategorize runs the categorizer over uncategorized transactions,
// or over everything when force is set.
func (s *maintenanceService) AutoCategorize(force bool) (int, error) {
	q := s.db.Model(&models.Transaction{})
	if !force {
		q = q.Where("category IS NULL OR category = ''")
	}

	var txs []models.Transaction
	if err := q.Find(&txs).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updated := 0
	for _, tx := range txs {
		category, subcategory := s.categorizer.Categorize(tx.Description, tx.Merchant)
		if category == "" {
			continue
		}
		err := s.db.Model(&models.Transaction{}).Where("id = ?", tx.ID).
			Updates(map[string]any{"category": category, "subcategory": subcategory}).Error
		if err != nil {
			return updated, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		updated++
	}

	logger.Get().Infof("auto-categorized %d transactions", updated)
	return updated, nil
}

// BackfillLocations extracts location tags from descriptions of
// records that have none, rewriting the description with the cleaned
// residual when a tag is found.
func (s *maintenanceService) BackfillLocations() (int, error) {
	var txs []models.Transaction
	err := s.db.Where("location IS NULL OR location = ''").Find(&txs).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updated := 0
	for _, tx := range txs {
		loc, cleaned := s.extractor.Extract(tx.Description)

		switch {
		case loc != "":
			err = s.db.Model(&models.Transaction{}).Where("id = ?", tx.ID).
				Updates(map[string]any{"location": loc, "description": cleaned}).Error
			if err == nil {
				updated++
			}
		case cleaned != tx.Description:
			err = s.db.Model(&models.Transaction{}).Where("id = ?", tx.ID).
				Update("description", cleaned).Error
		}
		if err != nil {
			return updated, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	logger.Get().Infof("backfilled locations on %d transactions", updated)
	return updated, nil
}

// FixCreditAmounts flips positive amounts on credit-account records
// to negative unless the description carries payment/credit
// vocabulary. One-time repair for records imported before the sign
// convention was enforced at parse time.
func (s *maintenanceService) FixCreditAmounts() (int, error) {
	q := s.db.Model(&models.Transaction{}).
		Where("account_type = ? AND amount > 0", models.AccountTypeCredit)
	for _, pattern := range creditExemptPatterns {
		q = q.Where("description NOT LIKE ?", pattern)
	}

	var txs []models.Transaction
	if err := q.Find(&txs).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for _, tx := range txs {
		err := s.db.Model(&models.Transaction{}).Where("id = ?", tx.ID).
			Update("amount", tx.Amount.Neg()).Error
		if err != nil {
			return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	logger.Get().Infof("fixed %d credit card transaction amounts", len(txs))
	return len(txs), nil
}

// MarkTransfers flags stored records matching the transfer vocabulary,
// plus any remaining positive amount on a credit account as a
// catch-all.
func (s *maintenanceService) MarkTransfers() (int64, error) {
	var marked int64
	for _, pattern := range transferPatterns {
		result := s.db.Model(&models.Transaction{}).
			Where("description LIKE ? AND is_transfer = ?", pattern, false).
			Update("is_transfer", true)
		if result.Error != nil {
			return marked, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		marked += result.RowsAffected
	}

	result := s.db.Model(&models.Transaction{}).
		Where("account_type = ? AND amount > 0 AND is_transfer = ?", models.AccountTypeCredit, false).
		Update("is_transfer", true)
	if result.Error != nil {
		return marked, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	marked += result.RowsAffected

	logger.Get().Infof("marked %d transactions as transfers", marked)
	return marked, nil
}
