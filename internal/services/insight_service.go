package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "rufous/internal/errors"
	"rufous/internal/insight"
	"rufous/internal/logger"
	"rufous/internal/models"
)

const analystSystem = "You are a financial data analyst. Analyze user queries and return structured JSON responses."

const assistantSystem = "You are a helpful financial assistant. Generate conversational responses about financial data."

const analysisPromptFormat = `You are a financial data analyst. Analyze this user query about their personal finances and return a JSON response with the query intent and parameters.

User Query: %q

Available query types:
1. "search" - Search for specific transactions
2. "spending_analysis" - Analyze spending patterns
3. "category_breakdown" - Group spending by categories
4. "trends" - Time-based analysis (monthly, weekly trends)
5. "comparison" - Compare periods or categories
6. "summary" - Overall financial summary
7. "budget" - Budget-related analysis

For each query, extract:
- type: one of the above types
- parameters: relevant filters (dates, amounts, categories, search terms, location)
- time_period: if mentioned (last month, this year, etc.)
- visualization: suggested chart type (bar, line, pie, etc.)

Location examples: "Kingston", "Toronto", "CA", "Ontario", "New York"

Return ONLY valid JSON in this format:
{
  "type": "spending_analysis",
  "parameters": {
    "category": "food",
    "time_period": "last_30_days",
    "search_term": null,
    "location": null
  },
  "time_range": {
    "start_date": "2024-01-01",
    "end_date": "2024-01-31"
  },
  "visualization": "bar_chart"
}

Examples:
- "How much did I spend on food last month?" -> spending_analysis with category filter
- "Show me all transactions from Starbucks" -> search with merchant filter
- "What are my monthly spending trends?" -> trends analysis
- "Compare my spending this month vs last month" -> comparison analysis
- "Show me all transactions in Kingston" -> search with location filter
- "How much did I spend in Toronto last month?" -> spending_analysis with location and time filters`

const responsePromptFormat = `You are a helpful financial assistant. The user asked: %q

Query Analysis: %s

Data Results: %s

Generate a helpful, conversational response that:
1. Directly answers the user's question
2. Highlights key insights from the data
3. Is concise but informative
4. Uses natural language (avoid technical jargon)

Return ONLY a JSON response with this format:
{
  "summary": "Brief one-sentence summary",
  "detailed_response": "Full conversational response",
  "key_insights": ["insight 1", "insight 2", "insight 3"],
  "suggested_followup": "Optional follow-up question suggestion"
}`

type queryParameters struct {
	Category   string `json:"category"`
	TimePeriod string `json:"time_period"`
	SearchTerm string `json:"search_term"`
	Location   string `json:"location"`
	Months     int    `json:"months"`
}

type timeRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type queryAnalysis struct {
	Type          string          `json:"type"`
	Parameters    queryParameters `json:"parameters"`
	TimeRange     *timeRange      `json:"time_range,omitempty"`
	Visualization string          `json:"visualization,omitempty"`
}

type queryResponse struct {
	Summary           string   `json:"summary"`
	DetailedResponse  string   `json:"detailed_response"`
	KeyInsights       []string `json:"key_insights"`
	SuggestedFollowup string   `json:"suggested_followup"`
}

// insightService turns natural-language questions into structured
// queries over the transaction store, using a text-completion backend
// for intent analysis and response phrasing.
type insightService struct {
	db           *gorm.DB
	completer    insight.Completer
	transactions TransactionServicer
}

// NewInsightService creates a new InsightServicer. completer may be nil,
// in which case Query reports the feature as unavailable.
func NewInsightService(db *gorm.DB, completer insight.Completer, transactions TransactionServicer) InsightServicer {
	return &insightService{db: db, completer: completer, transactions: transactions}
}

func (s *insightService) Query(ctx context.Context, query string) (*InsightResult, error) {
	if s.completer == nil {
		return nil, apperrors.ErrInsightUnavailable
	}
	if query == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "query is required")
	}

	analysis, err := s.analyze(ctx, query)
	if err != nil {
		return nil, err
	}

	data := s.execute(analysis)
	response := s.respond(ctx, query, analysis, data)

	history := &models.QueryHistory{
		QueryText:      query,
		QueryType:      analysis.Type,
		ResultsSummary: response.Summary,
	}
	if err := s.db.Create(history).Error; err != nil {
		logger.Get().Warnf("Failed to save query history: %v", err)
	}

	return &InsightResult{
		Query:         query,
		QueryType:     analysis.Type,
		Response:      response.DetailedResponse,
		Data:          data,
		Visualization: analysis.Visualization,
	}, nil
}

func (s *insightService) History(limit int, favoritedOnly bool) ([]models.QueryHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	q := s.db.Order("created_at DESC").Limit(limit)
	if favoritedOnly {
		q = q.Where("favorited = ?", true)
	}
	var history []models.QueryHistory
	if err := q.Find(&history).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return history, nil
}

func (s *insightService) analyze(ctx context.Context, query string) (*queryAnalysis, error) {
	prompt := fmt.Sprintf(analysisPromptFormat, query)
	raw, err := s.completer.Complete(ctx, analystSystem, prompt)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInsightUnavailable, err)
	}

	jsonText := insight.ExtractJSON(raw)
	if jsonText == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "could not understand the query, please try rephrasing")
	}
	var analysis queryAnalysis
	if err := json.Unmarshal([]byte(jsonText), &analysis); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "could not understand the query, please try rephrasing")
	}
	if analysis.TimeRange == nil {
		analysis.TimeRange = computeTimeRange(analysis.Parameters.TimePeriod)
	}
	return &analysis, nil
}

// computeTimeRange converts a named time period into a concrete date
// range. Unrecognized periods yield no range at all.
func computeTimeRange(period string) *timeRange {
	if period == "" {
		return nil
	}
	today := time.Now()
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())

	var start, end time.Time
	switch period {
	case "last_30_days":
		start, end = today.AddDate(0, 0, -30), today
	case "last_month":
		// Collapses to the last day of the previous month.
		lastDay := monthStart.AddDate(0, 0, -1)
		start, end = lastDay, lastDay
	case "this_month":
		start, end = monthStart, today
	case "last_3_months":
		start, end = today.AddDate(0, 0, -90), today
	case "this_year":
		start, end = time.Date(today.Year(), 1, 1, 0, 0, 0, 0, today.Location()), today
	case "last_year":
		start = time.Date(today.Year()-1, 1, 1, 0, 0, 0, 0, today.Location())
		end = time.Date(today.Year()-1, 12, 31, 0, 0, 0, 0, today.Location())
	default:
		return nil
	}
	return &timeRange{
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
	}
}

func (r *timeRange) dates() (from, to *time.Time) {
	if r == nil {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", r.StartDate); err == nil {
		from = &t
	}
	if t, err := time.Parse("2006-01-02", r.EndDate); err == nil {
		// The range is inclusive of the whole end day, so records
		// carrying a time of day still fall inside it.
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		to = &t
	}
	return from, to
}

// errResult folds a store failure into the result map so the response
// step can explain it instead of the whole query failing.
func errResult(err error) map[string]any {
	return map[string]any{"error": err.Error()}
}

// execute runs the database operation for the analyzed query. Failures
// are folded into the result so the response step can explain them.
func (s *insightService) execute(analysis *queryAnalysis) map[string]any {
	from, to := analysis.TimeRange.dates()

	switch analysis.Type {
	case "search":
		var (
			txs []models.Transaction
			err error
		)
		if analysis.Parameters.Location != "" {
			txs, err = s.transactions.SearchWithLocation(analysis.Parameters.SearchTerm, analysis.Parameters.Location)
		} else {
			txs, err = s.transactions.Search(analysis.Parameters.SearchTerm, 0)
		}
		if err != nil {
			return errResult(err)
		}
		total := decimal.Zero
		for _, tx := range txs {
			total = total.Add(tx.Amount)
		}
		return map[string]any{
			"transactions": txs,
			"count":        len(txs),
			"total_amount": total,
		}

	case "spending_analysis":
		txs, err := s.transactionsInRange(from, to, analysis.Parameters.Category)
		if err != nil {
			return errResult(err)
		}
		if len(txs) == 0 {
			return map[string]any{"data": []models.Transaction{}, "summary": "No transactions found for this period"}
		}
		totalSpent, expenseCount := decimal.Zero, 0
		for _, tx := range txs {
			if tx.Amount.IsNegative() {
				totalSpent = totalSpent.Add(tx.Amount.Abs())
				expenseCount++
			}
		}
		avg := decimal.Zero
		if expenseCount > 0 {
			avg = totalSpent.Div(decimal.NewFromInt(int64(expenseCount))).Round(2)
		}
		dateRange := "All time"
		if from != nil && to != nil {
			dateRange = fmt.Sprintf("%s to %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
		}
		return map[string]any{
			"transactions":      txs,
			"total_spent":       totalSpent,
			"transaction_count": expenseCount,
			"average_expense":   avg,
			"date_range":        dateRange,
		}

	case "category_breakdown":
		rows, err := s.transactions.SpendingByCategory(from, to)
		if err != nil {
			return errResult(err)
		}
		var top string
		if len(rows) > 0 {
			top = rows[0].Category
		}
		return map[string]any{
			"categories":       rows,
			"total_categories": len(rows),
			"top_category":     top,
		}

	case "trends":
		months := analysis.Parameters.Months
		if months <= 0 {
			months = 12
		}
		rows, err := s.transactions.MonthlyTrends(months)
		if err != nil {
			return errResult(err)
		}
		return map[string]any{
			"monthly_data": rows,
			"trend_period": fmt.Sprintf("Last %d months", months),
		}

	case "summary":
		stats, err := s.transactions.Stats()
		if err != nil {
			return errResult(err)
		}
		cutoff := time.Now().AddDate(0, 0, -30)
		recent, err := s.transactionsInRange(&cutoff, nil, "")
		if err != nil {
			return errResult(err)
		}
		recentSpent := decimal.Zero
		for _, tx := range recent {
			if tx.Amount.IsNegative() {
				recentSpent = recentSpent.Add(tx.Amount.Abs())
			}
		}
		return map[string]any{
			"overall_stats": stats,
			"recent_activity": map[string]any{
				"last_30_days_transactions": len(recent),
				"last_30_days_spending":     recentSpent,
			},
		}

	default:
		var txs []models.Transaction
		if err := s.db.Order("transaction_date DESC").Limit(20).Find(&txs).Error; err != nil {
			return errResult(err)
		}
		return map[string]any{
			"recent_transactions": txs,
			"message":             "Showing recent transactions",
		}
	}
}

func (s *insightService) transactionsInRange(from, to *time.Time, category string) ([]models.Transaction, error) {
	q := s.db.Model(&models.Transaction{})
	if from != nil {
		q = q.Where("transaction_date >= ?", *from)
	}
	if to != nil {
		q = q.Where("transaction_date <= ?", *to)
	}
	if category != "" {
		q = q.Where("category LIKE ?", "%"+category+"%")
	}
	var txs []models.Transaction
	if err := q.Order("transaction_date DESC").Find(&txs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txs, nil
}

// respond phrases the data results in natural language. Backend
// failures degrade to a canned response rather than failing the query.
func (s *insightService) respond(ctx context.Context, query string, analysis *queryAnalysis, data map[string]any) queryResponse {
	fallback := queryResponse{
		Summary:          "Data retrieved successfully",
		DetailedResponse: fmt.Sprintf("I found results for your query about %q.", query),
	}

	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return fallback
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fallback
	}

	prompt := fmt.Sprintf(responsePromptFormat, query, analysisJSON, dataJSON)
	raw, err := s.completer.Complete(ctx, assistantSystem, prompt)
	if err != nil {
		logger.Get().Warnf("Response generation failed: %v", err)
		return fallback
	}

	jsonText := insight.ExtractJSON(raw)
	if jsonText == "" {
		return queryResponse{Summary: "Query completed", DetailedResponse: raw}
	}
	var response queryResponse
	if err := json.Unmarshal([]byte(jsonText), &response); err != nil {
		return queryResponse{Summary: "Query completed", DetailedResponse: raw}
	}
	return response
}
