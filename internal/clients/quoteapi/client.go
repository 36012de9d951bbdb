// Package quoteapi provides a client for the upstream market-data API
package quoteapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/marketpulse/internal/common"
	"github.com/bobmcallan/marketpulse/internal/interfaces"
	"github.com/bobmcallan/marketpulse/internal/models"
)

const (
	DefaultBaseURL   = "https://marketdata.pulse.dev/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client implements the QuoteClient interface
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	now        func() time.Time
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new market-data API client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("market-data API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Market-data API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// quoteResponse represents the API response for a current quote
type quoteResponse struct {
	Ticker    string   `json:"ticker"`
	Name      string   `json:"name"`
	Sector    string   `json:"sector"`
	Price     *float64 `json:"price"`
	MarketCap *int64   `json:"market_cap"`
}

// GetQuote retrieves the current quote for a ticker
func (c *Client) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	path := fmt.Sprintf("/quote/%s", ticker)

	var resp quoteResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	if resp.Price == nil {
		return nil, &APIError{
			StatusCode: http.StatusOK,
			Message:    "quote has no price",
			Endpoint:   path,
		}
	}

	quote := &models.Quote{
		Ticker:    ticker,
		Name:      resp.Name,
		Sector:    resp.Sector,
		Price:     *resp.Price,
		MarketCap: resp.MarketCap,
	}
	if quote.Name == "" {
		quote.Name = ticker
	}

	return quote, nil
}

// fundamentalsResponse represents the API response for fundamentals.
// Pointer fields preserve "not supplied" as nil.
type fundamentalsResponse struct {
	PE              *float64 `json:"pe_ratio"`
	PEG             *float64 `json:"peg_ratio"`
	EPS             *float64 `json:"eps"`
	DividendYield   *float64 `json:"dividend_yield"`
	ROE             *float64 `json:"return_on_equity"`
	NetMargin       *float64 `json:"net_margin"`
	OperatingMargin *float64 `json:"operating_margin"`
	Cash            *float64 `json:"total_cash"`
	TotalDebt       *float64 `json:"total_debt"`
	TargetPrice     *float64 `json:"target_price"`
	EarningsDate    string   `json:"earnings_date"`
	ExDividendDate  string   `json:"ex_dividend_date"`
	Recommendation  string   `json:"recommendation"`
}

// GetFundamentals retrieves extended financial figures for a ticker
func (c *Client) GetFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	path := fmt.Sprintf("/fundamentals/%s", ticker)

	var resp fundamentalsResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	f := &models.Fundamentals{
		PE:              resp.PE,
		PEG:             resp.PEG,
		EPS:             resp.EPS,
		DividendYield:   resp.DividendYield,
		ROE:             resp.ROE,
		NetMargin:       resp.NetMargin,
		OperatingMargin: resp.OperatingMargin,
		Cash:            resp.Cash,
		TotalDebt:       resp.TotalDebt,
		TargetPrice:     resp.TargetPrice,
		Recommendation:  resp.Recommendation,
	}

	if d, err := time.Parse("2006-01-02", resp.EarningsDate); err == nil {
		f.EarningsDate = &d
	}
	if d, err := time.Parse("2006-01-02", resp.ExDividendDate); err == nil {
		f.ExDividendDate = &d
	}

	return f, nil
}

// barResponse represents the API response for a daily bar
type barResponse struct {
	Date  string  `json:"date"`
	High  float64 `json:"high"`
	Close float64 `json:"close"`
}

// GetHistory retrieves the daily bar series covering the trailing window,
// ordered ascending by date (oldest first).
func (c *Client) GetHistory(ctx context.Context, ticker string, window models.Window) ([]models.Bar, error) {
	now := c.now()

	params := url.Values{}
	params.Set("from", window.Start(now).Format("2006-01-02"))
	params.Set("to", now.Format("2006-01-02"))
	params.Set("period", "d")
	params.Set("order", "a")

	path := fmt.Sprintf("/history/%s", ticker)

	var bars []barResponse
	if err := c.get(ctx, path, params, &bars); err != nil {
		return nil, err
	}

	result := make([]models.Bar, 0, len(bars))
	for _, bar := range bars {
		date, err := time.Parse("2006-01-02", bar.Date)
		if err != nil {
			continue
		}
		result = append(result, models.Bar{
			Date:  date,
			High:  bar.High,
			Close: bar.Close,
		})
	}

	return result, nil
}

// Ensure Client implements QuoteClient
var _ interfaces.QuoteClient = (*Client)(nil)
