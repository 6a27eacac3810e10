package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"rufous/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestTransaction creates a debit transaction with the given
// description and amount, dated today.
func CreateTestTransaction(t *testing.T, db *gorm.DB, description string, amount decimal.Decimal) *models.Transaction {
	t.Helper()
	return CreateTestTransactionOn(t, db, description, amount, time.Now())
}

// CreateTestTransactionOn creates a debit transaction on a specific date.
func CreateTestTransactionOn(t *testing.T, db *gorm.DB, description string, amount decimal.Decimal, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		TransactionDate: date,
		Description:     description,
		Amount:          amount,
		AccountType:     models.AccountTypeDebit,
		StatementSource: fmt.Sprintf("fixture%d.pdf", nextID()),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestCreditTransaction creates a credit-account transaction.
func CreateTestCreditTransaction(t *testing.T, db *gorm.DB, description string, amount decimal.Decimal) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		TransactionDate: time.Now(),
		Description:     description,
		Amount:          amount,
		AccountType:     models.AccountTypeCredit,
		StatementSource: fmt.Sprintf("fixture%d.pdf", nextID()),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestCategorizedTransaction creates a transaction with a category
// already assigned.
func CreateTestCategorizedTransaction(t *testing.T, db *gorm.DB, description, category, subcategory string, amount decimal.Decimal) *models.Transaction {
	t.Helper()

	tx := CreateTestTransaction(t, db, description, amount)
	tx.Category = category
	tx.Subcategory = subcategory
	if err := db.Save(tx).Error; err != nil {
		t.Fatalf("failed to categorize test transaction: %v", err)
	}
	return tx
}

// CreateTestStatement registers a processed statement record.
func CreateTestStatement(t *testing.T, db *gorm.DB, filename string) *models.Statement {
	t.Helper()

	stmt := &models.Statement{
		Filename:         filename,
		AccountType:      models.AccountTypeDebit,
		TransactionCount: 0,
		TotalAmount:      decimal.Zero,
		ProcessedAt:      time.Now(),
	}
	if err := db.Create(stmt).Error; err != nil {
		t.Fatalf("failed to create test statement: %v", err)
	}
	return stmt
}

// CreateTestCustomRule persists a custom categorization rule.
func CreateTestCustomRule(t *testing.T, db *gorm.DB, category string, patterns []string, priority int) *models.CustomRule {
	t.Helper()

	rule := &models.CustomRule{
		Category: category,
		Patterns: patterns,
		Priority: priority,
	}
	if err := db.Create(rule).Error; err != nil {
		t.Fatalf("failed to create test custom rule: %v", err)
	}
	return rule
}
