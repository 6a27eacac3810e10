package services

import (
	"context"
	"time"

	"rufous/internal/models"
	"rufous/internal/pagination"

	"github.com/shopspring/decimal"
)

// IngestResult summarizes one statement ingestion run.
type IngestResult struct {
	Statement *models.Statement `json:"statement"`
	Parsed    int               `json:"parsed"`
	Added     int               `json:"added"`
}

// StatementServicer defines the contract for statement ingestion.
type StatementServicer interface {
	IngestText(rawText, filename string, accountType models.AccountType) (*IngestResult, error)
	ImportJSON(data []byte, filename string, accountType models.AccountType) (*IngestResult, error)
	IsProcessed(filename string) (bool, error)
	ListStatements(page pagination.PageRequest) (*pagination.PageResponse[models.Statement], error)
}

// TransactionFilter holds optional filter parameters for listing
// transactions. Transfers are excluded unless IncludeTransfers is set.
type TransactionFilter struct {
	FromDate         *time.Time
	ToDate           *time.Time
	Category         *string
	IncludeTransfers bool
}

// CategorySpending is one row of the per-category spending breakdown.
type CategorySpending struct {
	Category         string              `json:"category"`
	TransactionCount int                 `json:"transaction_count"`
	TotalSpent       decimal.Decimal     `json:"total_spent"`
	AvgExpense       decimal.NullDecimal `json:"avg_expense"`
}

// MonthlyTrend aggregates one calendar month of activity.
type MonthlyTrend struct {
	Month            string          `json:"month"`
	TransactionCount int             `json:"transaction_count"`
	TotalSpent       decimal.Decimal `json:"total_spent"`
	TotalIncome      decimal.Decimal `json:"total_income"`
	NetFlow          decimal.Decimal `json:"net_flow"`
}

// Stats summarizes the whole transaction store.
type Stats struct {
	TotalTransactions int64           `json:"total_transactions"`
	TotalStatements   int64           `json:"total_statements"`
	EarliestDate      *time.Time      `json:"earliest_date"`
	LatestDate        *time.Time      `json:"latest_date"`
	TotalSpent        decimal.Decimal `json:"total_spent"`
	TotalIncome       decimal.Decimal `json:"total_income"`
	NetChange         decimal.Decimal `json:"net_change"`
}

// CategorySummary reports categorization coverage.
type CategorySummary struct {
	TotalTransactions int64            `json:"total_transactions"`
	Categorized       int64            `json:"categorized"`
	Uncategorized     int64            `json:"uncategorized"`
	Categories        map[string]int64 `json:"categories"`
}

// TransactionServicer defines the contract for querying and editing
// stored transactions.
type TransactionServicer interface {
	List(filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	GetByID(id string) (*models.Transaction, error)
	Search(term string, limit int) ([]models.Transaction, error)
	SearchWithLocation(term, locationFilter string) ([]models.Transaction, error)
	UpdateCategory(id, category, subcategory string) (*models.Transaction, error)
	BulkUpdateCategories(searchTerm, category, subcategory string) (int64, error)
	SpendingByCategory(from, to *time.Time) ([]CategorySpending, error)
	MonthlyTrends(months int) ([]MonthlyTrend, error)
	Stats() (*Stats, error)
	CategorySummary() (*CategorySummary, error)
}

// MaintenanceServicer defines the bulk fix-up sweeps over stored data.
// These are one-time correction operations, not part of the ingest path.
type MaintenanceServicer interface {
	AutoCategorize(force bool) (int, error)
	BackfillLocations() (int, error)
	FixCreditAmounts() (int, error)
	MarkTransfers() (int64, error)
}

// RuleServicer defines the contract for custom categorization rules.
type RuleServicer interface {
	LoadRules() error
	Create(category, subcategory string, patterns, keywords []string, priority int) (*models.CustomRule, error)
	List(page pagination.PageRequest) (*pagination.PageResponse[models.CustomRule], error)
	Delete(id string) error
	Categories() [][2]string
	Explain(description, merchant string) string
}

// InsightResult is the answer to one natural-language query.
type InsightResult struct {
	Query         string `json:"query"`
	QueryType     string `json:"query_type"`
	Response      string `json:"response"`
	Data          any    `json:"data"`
	Visualization string `json:"visualization,omitempty"`
}

// InsightServicer answers natural-language questions about the stored
// transactions via a text-completion backend.
type InsightServicer interface {
	Query(ctx context.Context, query string) (*InsightResult, error)
	History(limit int, favoritedOnly bool) ([]models.QueryHistory, error)
}
