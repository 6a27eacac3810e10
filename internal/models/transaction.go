package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType distinguishes the two supported statement account kinds.
// It is supplied by the caller at import time, never inferred from text.
type AccountType string

const (
	AccountTypeDebit  AccountType = "debit"
	AccountTypeCredit AccountType = "credit"
)

// Transaction is a single statement transaction after parsing and
// normalization. Amounts follow the expenditure-negative convention:
// purchases are negative, payments/credits/refunds positive.
type Transaction struct {
	Base
	TransactionDate time.Time        `gorm:"type:date;not null;index" json:"transaction_date"`
	PostingDate     *time.Time       `gorm:"type:date" json:"posting_date,omitempty"`
	Description     string           `gorm:"not null;index" json:"description"`
	Location        string           `gorm:"index" json:"location,omitempty"`
	Amount          decimal.Decimal  `gorm:"type:decimal(12,2);not null;index" json:"amount"`
	Balance         *decimal.Decimal `gorm:"type:decimal(12,2)" json:"balance,omitempty"`
	Merchant        string           `gorm:"index" json:"merchant,omitempty"`
	Category        string           `gorm:"index" json:"category,omitempty"`
	Subcategory     string           `json:"subcategory,omitempty"`
	AccountType     AccountType      `gorm:"not null;index:idx_transactions_account_date" json:"account_type"`
	IsTransfer      bool             `gorm:"default:false" json:"is_transfer"`
	IsRecurring     bool             `gorm:"default:false" json:"is_recurring"`
	StatementSource string           `gorm:"not null;index" json:"statement_source"`
}
