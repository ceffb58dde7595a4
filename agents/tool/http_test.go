package tool

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPDataTool_JSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/market/prices" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "AAPL" {
			t.Errorf("symbol query = %q, want AAPL", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"close": 187.42}`))
	}))
	defer server.Close()

	dt := NewHTTPDataTool("get_price_history_online", "prices", server.URL, "/market/prices")

	out, err := dt.Call(context.Background(), map[string]interface{}{
		"symbol": "AAPL",
		"date":   "2024-05-01",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["status_code"] != 200 {
		t.Errorf("status_code = %v, want 200", out["status_code"])
	}
	data, ok := out["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected decoded JSON data, got %T", out["data"])
	}
	if data["close"] != 187.42 {
		t.Errorf("close = %v, want 187.42", data["close"])
	}
}

func TestHTTPDataTool_TextResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("plain indicator report"))
	}))
	defer server.Close()

	dt := NewHTTPDataTool("get_indicators_report_online", "indicators", server.URL, "/market/indicators")

	out, err := dt.Call(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["body"] != "plain indicator report" {
		t.Errorf("body = %v", out["body"])
	}
}

func TestHTTPDataTool_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	dt := NewHTTPDataTool("get_balance_sheet", "balance sheet", server.URL, "/fundamentals/balance-sheet")

	_, err := dt.Call(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("expected status in error, got %v", err)
	}
}

func TestHTTPDataTool_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	dt := NewHTTPDataTool("get_global_news", "news", server.URL, "/news/global")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := dt.Call(ctx, nil); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
