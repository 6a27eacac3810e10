package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	apperrors "rufous/internal/errors"
	"rufous/internal/models"
	"rufous/internal/testutil"
)

// failingTransactions errors on search; other calls are not expected.
type failingTransactions struct {
	TransactionServicer
}

func (failingTransactions) Search(string, int) ([]models.Transaction, error) {
	return nil, apperrors.ErrInternalServer
}

// fakeCompleter replays canned responses in order of call.
type fakeCompleter struct {
	responses []string
	calls     int
}

func (f *fakeCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	if f.calls >= len(f.responses) {
		return "", context.Canceled
	}
	resp := f.responses[f.calls]
	f.calls++
	return resp, nil
}

func TestInsightQuery(t *testing.T) {
	t.Run("unconfigured_backend", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInsightService(db, nil, NewTransactionService(db))

		_, err := svc.Query(context.Background(), "how much did I spend?")
		testutil.AssertAppError(t, err, "INSIGHT_UNAVAILABLE")
	})

	t.Run("empty_query", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInsightService(db, &fakeCompleter{}, NewTransactionService(db))

		_, err := svc.Query(context.Background(), "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("search_query", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestTransaction(t, db, "STARBUCKS #123", decimal.RequireFromString("-6.00"))
		testutil.CreateTestTransaction(t, db, "SAFEWAY", decimal.RequireFromString("-30.00"))

		completer := &fakeCompleter{responses: []string{
			"```json\n" + `{"type": "search", "parameters": {"search_term": "STARBUCKS"}, "visualization": "table"}` + "\n```",
			`{"summary": "One coffee purchase", "detailed_response": "You spent $6.00 at Starbucks."}`,
		}}
		svc := NewInsightService(db, completer, NewTransactionService(db))

		result, err := svc.Query(context.Background(), "show me starbucks transactions")
		testutil.AssertNoError(t, err)
		if result.QueryType != "search" {
			t.Errorf("expected search query type, got %q", result.QueryType)
		}
		if result.Response != "You spent $6.00 at Starbucks." {
			t.Errorf("unexpected response: %q", result.Response)
		}
		data, ok := result.Data.(map[string]any)
		if !ok {
			t.Fatalf("expected map data, got %T", result.Data)
		}
		if data["count"] != 1 {
			t.Errorf("expected 1 match, got %v", data["count"])
		}

		// Successful queries land in the history.
		history, err := svc.History(10, false)
		testutil.AssertNoError(t, err)
		if len(history) != 1 {
			t.Fatalf("expected 1 history entry, got %d", len(history))
		}
		if history[0].QueryType != "search" || history[0].ResultsSummary != "One coffee purchase" {
			t.Errorf("unexpected history entry: %+v", history[0])
		}
	})

	t.Run("category_breakdown_query", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestCategorizedTransaction(t, db, "SAFEWAY", "Food & Dining", "Groceries", decimal.RequireFromString("-60.00"))

		completer := &fakeCompleter{responses: []string{
			`{"type": "category_breakdown", "parameters": {"time_period": "this_year"}}`,
			`{"summary": "Mostly groceries", "detailed_response": "Food & Dining leads your spending."}`,
		}}
		svc := NewInsightService(db, completer, NewTransactionService(db))

		result, err := svc.Query(context.Background(), "where does my money go?")
		testutil.AssertNoError(t, err)
		data := result.Data.(map[string]any)
		if data["top_category"] != "Food & Dining" {
			t.Errorf("expected Food & Dining on top, got %v", data["top_category"])
		}
	})

	t.Run("spending_analysis_includes_today", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		// Fixture dates carry a time of day; a range ending today must
		// still cover them.
		testutil.CreateTestTransaction(t, db, "SAFEWAY", decimal.RequireFromString("-60.00"))

		today := time.Now().Format("2006-01-02")
		completer := &fakeCompleter{responses: []string{
			fmt.Sprintf(`{"type": "spending_analysis", "parameters": {}, "time_range": {"start_date": "2000-01-01", "end_date": %q}}`, today),
			`{"summary": "Groceries", "detailed_response": "You spent $60.00."}`,
		}}
		svc := NewInsightService(db, completer, NewTransactionService(db))

		result, err := svc.Query(context.Background(), "what did I spend recently?")
		testutil.AssertNoError(t, err)
		data := result.Data.(map[string]any)
		total, ok := data["total_spent"].(decimal.Decimal)
		if !ok {
			t.Fatalf("expected a spending total, got %v", data)
		}
		if !total.Equal(decimal.RequireFromString("60.00")) {
			t.Errorf("expected 60.00 spent, got %s", total)
		}
	})

	t.Run("store_failure_folds_into_result", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		completer := &fakeCompleter{responses: []string{
			`{"type": "search", "parameters": {"search_term": "STARBUCKS"}}`,
			`{"summary": "Something went wrong", "detailed_response": "I could not search your transactions."}`,
		}}
		svc := NewInsightService(db, completer, failingTransactions{})

		result, err := svc.Query(context.Background(), "show me starbucks transactions")
		testutil.AssertNoError(t, err)
		data := result.Data.(map[string]any)
		if data["error"] == nil || data["error"] == "" {
			t.Errorf("expected the store failure in the result data, got %v", data)
		}
	})

	t.Run("unparseable_analysis", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		completer := &fakeCompleter{responses: []string{"I have no idea what you mean."}}
		svc := NewInsightService(db, completer, NewTransactionService(db))

		_, err := svc.Query(context.Background(), "gibberish")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("response_failure_degrades_gracefully", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		// Only the analysis call succeeds; the phrasing call errors out.
		completer := &fakeCompleter{responses: []string{
			`{"type": "summary", "parameters": {}}`,
		}}
		svc := NewInsightService(db, completer, NewTransactionService(db))

		result, err := svc.Query(context.Background(), "summarize my finances")
		testutil.AssertNoError(t, err)
		if result.Response == "" {
			t.Error("expected a fallback response")
		}
	})
}

func TestInsightHistory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewInsightService(db, &fakeCompleter{}, NewTransactionService(db))

	for _, entry := range []models.QueryHistory{
		{QueryText: "first", QueryType: "search"},
		{QueryText: "second", QueryType: "summary", Favorited: true},
	} {
		if err := db.Create(&entry).Error; err != nil {
			t.Fatalf("failed to seed history: %v", err)
		}
	}

	history, err := svc.History(10, false)
	testutil.AssertNoError(t, err)
	if len(history) != 2 {
		t.Errorf("expected 2 entries, got %d", len(history))
	}

	favorites, err := svc.History(10, true)
	testutil.AssertNoError(t, err)
	if len(favorites) != 1 || favorites[0].QueryText != "second" {
		t.Errorf("expected only the favorited entry, got %+v", favorites)
	}
}
