package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "rufous/internal/errors"
	"rufous/internal/models"
	"rufous/internal/services"
)

type mockInsightService struct {
	queryFn   func(ctx context.Context, query string) (*services.InsightResult, error)
	historyFn func(limit int, favoritedOnly bool) ([]models.QueryHistory, error)
}

func (m *mockInsightService) Query(ctx context.Context, query string) (*services.InsightResult, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, query)
	}
	return &services.InsightResult{Query: query, QueryType: "summary", Response: "ok"}, nil
}

func (m *mockInsightService) History(limit int, favoritedOnly bool) ([]models.QueryHistory, error) {
	if m.historyFn != nil {
		return m.historyFn(limit, favoritedOnly)
	}
	return nil, nil
}

var _ services.InsightServicer = (*mockInsightService)(nil)

func setupInsightRouter(handler *InsightHandler) *gin.Engine {
	r := gin.New()
	r.POST("/insights/query", handler.Query)
	r.GET("/insights/history", handler.History)
	return r
}

func TestInsightHandler_Query(t *testing.T) {
	t.Run("returns the insight result", func(t *testing.T) {
		svc := &mockInsightService{
			queryFn: func(ctx context.Context, query string) (*services.InsightResult, error) {
				return &services.InsightResult{
					Query:     query,
					QueryType: "spending_analysis",
					Response:  "You spent $350 on dining last month.",
					Data:      map[string]any{"total_spent": 350.0},
				}, nil
			},
		}
		r := setupInsightRouter(NewInsightHandler(svc))

		rec := doRequest(r, "POST", "/insights/query",
			`{"query":"how much did I spend on dining last month"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["query_type"] != "spending_analysis" {
			t.Errorf("expected spending_analysis, got %v", result["query_type"])
		}
		if result["response"] == "" {
			t.Error("expected a non-empty response")
		}
	})

	t.Run("returns 400 on empty body", func(t *testing.T) {
		r := setupInsightRouter(NewInsightHandler(&mockInsightService{}))

		rec := doRequest(r, "POST", "/insights/query", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 503 when the backend is not configured", func(t *testing.T) {
		svc := &mockInsightService{
			queryFn: func(context.Context, string) (*services.InsightResult, error) {
				return nil, apperrors.ErrInsightUnavailable
			},
		}
		r := setupInsightRouter(NewInsightHandler(svc))

		rec := doRequest(r, "POST", "/insights/query", `{"query":"anything"}`)

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INSIGHT_UNAVAILABLE")
	})
}

func TestInsightHandler_History(t *testing.T) {
	t.Run("passes limit and favorited through", func(t *testing.T) {
		var gotLimit int
		var gotFavorited bool
		svc := &mockInsightService{
			historyFn: func(limit int, favoritedOnly bool) ([]models.QueryHistory, error) {
				gotLimit = limit
				gotFavorited = favoritedOnly
				return []models.QueryHistory{{QueryText: "spending last month"}}, nil
			},
		}
		r := setupInsightRouter(NewInsightHandler(svc))

		rec := doRequest(r, "GET", "/insights/history?limit=5&favorited=true", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotLimit != 5 {
			t.Errorf("expected limit 5, got %d", gotLimit)
		}
		if !gotFavorited {
			t.Error("expected favorited to be true")
		}
		result := parseJSON(t, rec)
		history := result["history"].([]interface{})
		if len(history) != 1 {
			t.Errorf("expected 1 history entry, got %d", len(history))
		}
	})

	t.Run("returns 400 on a bad limit", func(t *testing.T) {
		r := setupInsightRouter(NewInsightHandler(&mockInsightService{}))

		rec := doRequest(r, "GET", "/insights/history?limit=banana", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
