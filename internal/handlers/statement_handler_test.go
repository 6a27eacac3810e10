package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "rufous/internal/errors"
	"rufous/internal/models"
	"rufous/internal/pagination"
	"rufous/internal/services"
	"rufous/internal/validator"
)

// --- mock statement service ---

type mockStatementService struct {
	ingestTextFn     func(rawText, filename string, accountType models.AccountType) (*services.IngestResult, error)
	importJSONFn     func(data []byte, filename string, accountType models.AccountType) (*services.IngestResult, error)
	isProcessedFn    func(filename string) (bool, error)
	listStatementsFn func(page pagination.PageRequest) (*pagination.PageResponse[models.Statement], error)
}

func (m *mockStatementService) IngestText(rawText, filename string, accountType models.AccountType) (*services.IngestResult, error) {
	if m.ingestTextFn != nil {
		return m.ingestTextFn(rawText, filename, accountType)
	}
	return &services.IngestResult{Statement: &models.Statement{Filename: filename}}, nil
}

func (m *mockStatementService) ImportJSON(data []byte, filename string, accountType models.AccountType) (*services.IngestResult, error) {
	if m.importJSONFn != nil {
		return m.importJSONFn(data, filename, accountType)
	}
	return &services.IngestResult{Statement: &models.Statement{Filename: filename}}, nil
}

func (m *mockStatementService) IsProcessed(filename string) (bool, error) {
	if m.isProcessedFn != nil {
		return m.isProcessedFn(filename)
	}
	return false, nil
}

func (m *mockStatementService) ListStatements(page pagination.PageRequest) (*pagination.PageResponse[models.Statement], error) {
	if m.listStatementsFn != nil {
		return m.listStatementsFn(page)
	}
	resp := pagination.NewPageResponse([]models.Statement{}, 1, 20, 0)
	return &resp, nil
}

var _ services.StatementServicer = (*mockStatementService)(nil)

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func setupStatementRouter(handler *StatementHandler) *gin.Engine {
	r := gin.New()
	r.POST("/statements/upload", handler.Upload)
	r.POST("/statements/text", handler.IngestText)
	r.POST("/statements/import", handler.Import)
	r.GET("/statements", handler.List)
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %v", code, errObj["code"])
	}
}

func doUpload(r *gin.Engine, filename, accountType string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, _ := w.CreateFormFile("file", filename)
	_, _ = fw.Write(content)
	_ = w.WriteField("account_type", accountType)
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/statements/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestStatementHandler_Upload(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockStatementService{
			ingestTextFn: func(rawText, filename string, accountType models.AccountType) (*services.IngestResult, error) {
				if rawText != "extracted text" {
					t.Errorf("expected extracted text forwarded, got %q", rawText)
				}
				return &services.IngestResult{
					Statement: &models.Statement{Filename: filename, AccountType: accountType},
					Parsed:    3,
					Added:     3,
				}, nil
			},
		}
		handler := NewStatementHandler(svc)
		handler.extractText = func(string) (string, error) { return "extracted text", nil }
		r := setupStatementRouter(handler)

		rec := doUpload(r, "march.pdf", "credit", []byte("%PDF-1.4"))

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["added"] != float64(3) {
			t.Errorf("expected 3 added, got %v", result["added"])
		}
	})

	t.Run("returns 422 when extraction fails", func(t *testing.T) {
		handler := NewStatementHandler(&mockStatementService{})
		handler.extractText = func(string) (string, error) { return "", errors.New("no readable text") }
		r := setupStatementRouter(handler)

		rec := doUpload(r, "scan.pdf", "credit", []byte("%PDF-1.4"))

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "NOT_EXTRACTABLE")
	})

	t.Run("returns 400 without a file", func(t *testing.T) {
		handler := NewStatementHandler(&mockStatementService{})
		r := setupStatementRouter(handler)

		rec := doRequest(r, "POST", "/statements/upload", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestStatementHandler_IngestText(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		handler := NewStatementHandler(&mockStatementService{})
		r := setupStatementRouter(handler)

		rec := doRequest(r, "POST", "/statements/text",
			`{"filename":"march.txt","account_type":"debit","text":"some statement text"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 400 on bad account type", func(t *testing.T) {
		handler := NewStatementHandler(&mockStatementService{})
		r := setupStatementRouter(handler)

		rec := doRequest(r, "POST", "/statements/text",
			`{"filename":"march.txt","account_type":"savings","text":"some text"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 when already processed", func(t *testing.T) {
		svc := &mockStatementService{
			ingestTextFn: func(string, string, models.AccountType) (*services.IngestResult, error) {
				return nil, apperrors.ErrStatementAlreadyProcessed
			},
		}
		handler := NewStatementHandler(svc)
		r := setupStatementRouter(handler)

		rec := doRequest(r, "POST", "/statements/text",
			`{"filename":"march.txt","account_type":"debit","text":"some text"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "STATEMENT_ALREADY_PROCESSED")
	})
}

func TestStatementHandler_Import(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockStatementService{
			importJSONFn: func(data []byte, filename string, accountType models.AccountType) (*services.IngestResult, error) {
				if !json.Valid(data) {
					t.Error("expected raw transactions forwarded as JSON")
				}
				return &services.IngestResult{
					Statement: &models.Statement{Filename: filename},
					Parsed:    1,
					Added:     1,
				}, nil
			},
		}
		handler := NewStatementHandler(svc)
		r := setupStatementRouter(handler)

		rec := doRequest(r, "POST", "/statements/import",
			`{"filename":"manual.json","account_type":"debit","transactions":[{"date":"2024-03-01","description":"X","amount":-5}]}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 400 on missing transactions", func(t *testing.T) {
		handler := NewStatementHandler(&mockStatementService{})
		r := setupStatementRouter(handler)

		rec := doRequest(r, "POST", "/statements/import",
			`{"filename":"manual.json","account_type":"debit"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestStatementHandler_List(t *testing.T) {
	svc := &mockStatementService{
		listStatementsFn: func(page pagination.PageRequest) (*pagination.PageResponse[models.Statement], error) {
			resp := pagination.NewPageResponse([]models.Statement{{Filename: "march.pdf"}}, 1, 20, 1)
			return &resp, nil
		},
	}
	handler := NewStatementHandler(svc)
	r := setupStatementRouter(handler)

	rec := doRequest(r, "GET", "/statements", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	result := parseJSON(t, rec)
	if result["total_items"] != float64(1) {
		t.Errorf("expected 1 statement, got %v", result["total_items"])
	}
}
