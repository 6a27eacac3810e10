package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statement records an ingested statement file. Filename acts as a
// natural key so the same document is never processed twice.
type Statement struct {
	Base
	Filename         string          `gorm:"uniqueIndex;not null" json:"filename"`
	AccountType      AccountType     `gorm:"not null" json:"account_type"`
	TransactionCount int             `gorm:"not null" json:"transaction_count"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_amount"`
	ProcessedAt      time.Time       `gorm:"not null" json:"processed_at"`
}
