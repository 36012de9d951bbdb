package quoteapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/bobmcallan/marketpulse/internal/models"
)

func TestGetQuote(t *testing.T) {
	var gotPath string
	var gotToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("api_token")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ticker":"AAPL","name":"Apple Inc","sector":"Technology","price":195.5,"market_cap":3000000000000}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	quote, err := client.GetQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}

	if gotPath != "/quote/AAPL" {
		t.Errorf("expected path /quote/AAPL, got %s", gotPath)
	}
	if gotToken != "test-key" {
		t.Errorf("expected api_token test-key, got %s", gotToken)
	}
	if quote.Ticker != "AAPL" {
		t.Errorf("expected ticker AAPL, got %s", quote.Ticker)
	}
	if quote.Name != "Apple Inc" {
		t.Errorf("expected name Apple Inc, got %s", quote.Name)
	}
	if quote.Sector != "Technology" {
		t.Errorf("expected sector Technology, got %s", quote.Sector)
	}
	if quote.Price != 195.5 {
		t.Errorf("expected price 195.5, got %f", quote.Price)
	}
	if quote.MarketCap == nil || *quote.MarketCap != 3000000000000 {
		t.Errorf("unexpected market cap: %v", quote.MarketCap)
	}
}

func TestGetQuoteNoPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ticker":"XYZ","name":"Delisted Corp"}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	_, err := client.GetQuote(context.Background(), "XYZ")
	if err == nil {
		t.Fatal("expected error for quote with no price")
	}
}

func TestGetQuoteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	_, err := client.GetQuote(context.Background(), "NOPE")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", apiErr.StatusCode)
	}
	if apiErr.Endpoint != "/quote/NOPE" {
		t.Errorf("expected endpoint /quote/NOPE, got %s", apiErr.Endpoint)
	}
}

func TestGetFundamentals(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"pe_ratio": 28.4,
			"peg_ratio": 2.1,
			"eps": 6.42,
			"dividend_yield": 0.0051,
			"return_on_equity": 1.47,
			"net_margin": 0.25,
			"operating_margin": 0.30,
			"total_cash": 62000000000,
			"total_debt": 104000000000,
			"target_price": 210.0,
			"earnings_date": "2026-10-29",
			"ex_dividend_date": "2026-11-07",
			"recommendation": "buy"
		}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	f, err := client.GetFundamentals(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetFundamentals failed: %v", err)
	}

	if f.PE == nil || *f.PE != 28.4 {
		t.Errorf("unexpected PE: %v", f.PE)
	}
	if f.TargetPrice == nil || *f.TargetPrice != 210.0 {
		t.Errorf("unexpected target price: %v", f.TargetPrice)
	}
	if f.EarningsDate == nil || f.EarningsDate.Format("2006-01-02") != "2026-10-29" {
		t.Errorf("unexpected earnings date: %v", f.EarningsDate)
	}
	if f.Recommendation != "buy" {
		t.Errorf("expected recommendation buy, got %s", f.Recommendation)
	}
}

func TestGetFundamentalsPartial(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"pe_ratio": 15.0}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	f, err := client.GetFundamentals(context.Background(), "TEST")
	if err != nil {
		t.Fatalf("GetFundamentals failed: %v", err)
	}

	if f.PE == nil || *f.PE != 15.0 {
		t.Errorf("unexpected PE: %v", f.PE)
	}
	if f.EPS != nil {
		t.Errorf("expected nil EPS for absent field, got %v", *f.EPS)
	}
	if f.EarningsDate != nil {
		t.Errorf("expected nil earnings date for absent field, got %v", f.EarningsDate)
	}
}

func TestGetHistory(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"date":"2026-08-24","high":101.5,"close":100.0},
			{"date":"2026-08-25","high":103.0,"close":102.5},
			{"date":"2026-08-26","high":102.0,"close":101.0}
		]`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	client.now = func() time.Time {
		return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	}

	bars, err := client.GetHistory(context.Background(), "AAPL", models.Window7D)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}

	if gotQuery.Get("from") != "2026-08-24" {
		t.Errorf("expected from=2026-08-24, got %s", gotQuery.Get("from"))
	}
	if gotQuery.Get("to") != "2026-08-31" {
		t.Errorf("expected to=2026-08-31, got %s", gotQuery.Get("to"))
	}

	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}
	if bars[0].Close != 100.0 {
		t.Errorf("expected first close 100.0, got %f", bars[0].Close)
	}
	if !bars[0].Date.Before(bars[2].Date) {
		t.Error("expected bars ordered ascending by date")
	}
}

func TestGetHistorySkipsMalformedDates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"date":"not-a-date","high":1.0,"close":1.0},
			{"date":"2026-08-25","high":103.0,"close":102.5}
		]`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	bars, err := client.GetHistory(context.Background(), "AAPL", models.Window1Mo)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("expected 1 bar after skipping malformed date, got %d", len(bars))
	}
}
