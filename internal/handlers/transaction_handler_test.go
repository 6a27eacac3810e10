package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "rufous/internal/errors"
	"rufous/internal/models"
	"rufous/internal/pagination"
	"rufous/internal/services"
)

// --- mock transaction service ---

type mockTransactionService struct {
	listFn                 func(filter services.TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	getByIDFn              func(id string) (*models.Transaction, error)
	searchFn               func(term string, limit int) ([]models.Transaction, error)
	searchWithLocationFn   func(term, locationFilter string) ([]models.Transaction, error)
	updateCategoryFn       func(id, category, subcategory string) (*models.Transaction, error)
	bulkUpdateCategoriesFn func(searchTerm, category, subcategory string) (int64, error)
	spendingByCategoryFn   func(from, to *time.Time) ([]services.CategorySpending, error)
	monthlyTrendsFn        func(months int) ([]services.MonthlyTrend, error)
	statsFn                func() (*services.Stats, error)
	categorySummaryFn      func() (*services.CategorySummary, error)
}

func (m *mockTransactionService) List(filter services.TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	if m.listFn != nil {
		return m.listFn(filter, page)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransactionService) GetByID(id string) (*models.Transaction, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(id)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) Search(term string, limit int) ([]models.Transaction, error) {
	if m.searchFn != nil {
		return m.searchFn(term, limit)
	}
	return []models.Transaction{}, nil
}

func (m *mockTransactionService) SearchWithLocation(term, locationFilter string) ([]models.Transaction, error) {
	if m.searchWithLocationFn != nil {
		return m.searchWithLocationFn(term, locationFilter)
	}
	return []models.Transaction{}, nil
}

func (m *mockTransactionService) UpdateCategory(id, category, subcategory string) (*models.Transaction, error) {
	if m.updateCategoryFn != nil {
		return m.updateCategoryFn(id, category, subcategory)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) BulkUpdateCategories(searchTerm, category, subcategory string) (int64, error) {
	if m.bulkUpdateCategoriesFn != nil {
		return m.bulkUpdateCategoriesFn(searchTerm, category, subcategory)
	}
	return 0, nil
}

func (m *mockTransactionService) SpendingByCategory(from, to *time.Time) ([]services.CategorySpending, error) {
	if m.spendingByCategoryFn != nil {
		return m.spendingByCategoryFn(from, to)
	}
	return []services.CategorySpending{}, nil
}

func (m *mockTransactionService) MonthlyTrends(months int) ([]services.MonthlyTrend, error) {
	if m.monthlyTrendsFn != nil {
		return m.monthlyTrendsFn(months)
	}
	return []services.MonthlyTrend{}, nil
}

func (m *mockTransactionService) Stats() (*services.Stats, error) {
	if m.statsFn != nil {
		return m.statsFn()
	}
	return &services.Stats{}, nil
}

func (m *mockTransactionService) CategorySummary() (*services.CategorySummary, error) {
	if m.categorySummaryFn != nil {
		return m.categorySummaryFn()
	}
	return &services.CategorySummary{}, nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

func setupTransactionRouter(handler *TransactionHandler) *gin.Engine {
	r := gin.New()
	r.GET("/transactions", handler.List)
	r.GET("/transactions/search", handler.Search)
	r.GET("/transactions/:id", handler.Get)
	r.PUT("/transactions/:id/category", handler.UpdateCategory)
	r.PUT("/transactions/categories", handler.BulkUpdateCategories)
	r.GET("/analytics/spending", handler.Spending)
	r.GET("/analytics/trends", handler.Trends)
	r.GET("/analytics/stats", handler.Stats)
	r.GET("/analytics/categories", handler.CategorySummary)
	return r
}

func TestTransactionHandler_List(t *testing.T) {
	t.Run("returns 200 with filters applied", func(t *testing.T) {
		svc := &mockTransactionService{
			listFn: func(filter services.TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
				if filter.FromDate == nil || filter.FromDate.Format("2006-01-02") != "2024-01-01" {
					t.Errorf("expected from_date parsed, got %v", filter.FromDate)
				}
				if filter.Category == nil || *filter.Category != "Food & Dining" {
					t.Errorf("expected category filter, got %v", filter.Category)
				}
				if !filter.IncludeTransfers {
					t.Error("expected include_transfers true")
				}
				resp := pagination.NewPageResponse([]models.Transaction{{Description: "X"}}, 1, 20, 1)
				return &resp, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc))

		rec := doRequest(r, "GET",
			"/transactions?from_date=2024-01-01&category=Food+%26+Dining&include_transfers=true", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 400 on bad date", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}))

		rec := doRequest(r, "GET", "/transactions?from_date=notadate", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_Get(t *testing.T) {
	t.Run("returns 404 when missing", func(t *testing.T) {
		svc := &mockTransactionService{
			getByIDFn: func(string) (*models.Transaction, error) {
				return nil, apperrors.ErrTransactionNotFound
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc))

		rec := doRequest(r, "GET", "/transactions/nope", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "TRANSACTION_NOT_FOUND")
	})
}

func TestTransactionHandler_Search(t *testing.T) {
	t.Run("returns 200 with matches", func(t *testing.T) {
		svc := &mockTransactionService{
			searchFn: func(term string, limit int) ([]models.Transaction, error) {
				if term != "STARBUCKS" {
					t.Errorf("expected STARBUCKS, got %q", term)
				}
				return []models.Transaction{{Description: "STARBUCKS #123"}}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc))

		rec := doRequest(r, "GET", "/transactions/search?q=STARBUCKS", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["count"] != float64(1) {
			t.Errorf("expected count 1, got %v", result["count"])
		}
	})

	t.Run("routes location searches separately", func(t *testing.T) {
		called := false
		svc := &mockTransactionService{
			searchWithLocationFn: func(term, locationFilter string) ([]models.Transaction, error) {
				called = true
				if locationFilter != "Toronto" {
					t.Errorf("expected Toronto, got %q", locationFilter)
				}
				return []models.Transaction{}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc))

		rec := doRequest(r, "GET", "/transactions/search?q=RESTAURANT&location=Toronto", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !called {
			t.Error("expected the location search path")
		}
	})

	t.Run("returns 400 without a term", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}))

		rec := doRequest(r, "GET", "/transactions/search", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_UpdateCategory(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		svc := &mockTransactionService{
			updateCategoryFn: func(id, category, subcategory string) (*models.Transaction, error) {
				return &models.Transaction{Category: category, Subcategory: subcategory}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc))

		rec := doRequest(r, "PUT", "/transactions/abc/category",
			`{"category":"Entertainment","subcategory":"Streaming"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 400 on missing category", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}))

		rec := doRequest(r, "PUT", "/transactions/abc/category", `{"subcategory":"Streaming"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_BulkUpdateCategories(t *testing.T) {
	svc := &mockTransactionService{
		bulkUpdateCategoriesFn: func(searchTerm, category, subcategory string) (int64, error) {
			return 4, nil
		},
	}
	r := setupTransactionRouter(NewTransactionHandler(svc))

	rec := doRequest(r, "PUT", "/transactions/categories",
		`{"search_term":"NETFLIX","category":"Entertainment","subcategory":"Streaming"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["updated"] != float64(4) {
		t.Errorf("expected 4 updated, got %v", result["updated"])
	}
}

func TestTransactionHandler_Analytics(t *testing.T) {
	t.Run("spending", func(t *testing.T) {
		svc := &mockTransactionService{
			spendingByCategoryFn: func(from, to *time.Time) ([]services.CategorySpending, error) {
				return []services.CategorySpending{
					{Category: "Food & Dining", TransactionCount: 2, TotalSpent: decimal.RequireFromString("100")},
				}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc))

		rec := doRequest(r, "GET", "/analytics/spending", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("trends_validates_months", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}))

		rec := doRequest(r, "GET", "/analytics/trends?months=zero", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("stats", func(t *testing.T) {
		svc := &mockTransactionService{
			statsFn: func() (*services.Stats, error) {
				return &services.Stats{TotalTransactions: 10}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc))

		rec := doRequest(r, "GET", "/analytics/stats", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["total_transactions"] != float64(10) {
			t.Errorf("expected 10 transactions, got %v", result["total_transactions"])
		}
	})

	t.Run("category_summary", func(t *testing.T) {
		svc := &mockTransactionService{
			categorySummaryFn: func() (*services.CategorySummary, error) {
				return &services.CategorySummary{TotalTransactions: 5, Categorized: 3, Uncategorized: 2}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc))

		rec := doRequest(r, "GET", "/analytics/categories", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}
