package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/bobmcallan/marketpulse/internal/interfaces"
	"github.com/bobmcallan/marketpulse/internal/models"
)

// mockStore is an in-memory SnapshotStore for tests.
type mockStore struct {
	mu        sync.Mutex
	snapshots map[string]*models.Snapshot
	upserts   int
	getErr    error
	upsertErr error
	now       time.Time
}

func newMockStore() *mockStore {
	return &mockStore{
		snapshots: make(map[string]*models.Snapshot),
		now:       time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
	}
}

func (m *mockStore) Get(ctx context.Context, ticker string) (*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	snap, ok := m.snapshots[ticker]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return snap, nil
}

func (m *mockStore) Upsert(ctx context.Context, snapshot *models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts++
	m.snapshots[snapshot.Ticker] = snapshot
	return nil
}

func (m *mockStore) List(ctx context.Context) ([]*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*models.Snapshot, 0, len(m.snapshots))
	for _, snap := range m.snapshots {
		result = append(result, snap)
	}
	return result, nil
}

func (m *mockStore) IsStale(ctx context.Context, ticker string, maxAge time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snapshots[ticker]
	if !ok {
		return true, nil
	}
	return snap.Stale(m.now, maxAge), nil
}

func (m *mockStore) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snapshots), nil
}

func (m *mockStore) Close() error { return nil }

// mockClient is a scriptable QuoteClient for tests.
type mockClient struct {
	mu               sync.Mutex
	quoteCalls       []string
	quoteFn          func(ticker string) (*models.Quote, error)
	fundamentalsFn   func(ticker string) (*models.Fundamentals, error)
	historyFn        func(ticker string, window models.Window) ([]models.Bar, error)
	fundamentalCalls int
	historyCalls     int
}

func (m *mockClient) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	m.mu.Lock()
	m.quoteCalls = append(m.quoteCalls, ticker)
	m.mu.Unlock()
	if m.quoteFn != nil {
		return m.quoteFn(ticker)
	}
	return &models.Quote{
		Ticker: ticker,
		Name:   ticker + " Corp",
		Sector: "Technology",
		Price:  100.0,
	}, nil
}

func (m *mockClient) GetFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	m.mu.Lock()
	m.fundamentalCalls++
	m.mu.Unlock()
	if m.fundamentalsFn != nil {
		return m.fundamentalsFn(ticker)
	}
	return fullFundamentals(), nil
}

func (m *mockClient) GetHistory(ctx context.Context, ticker string, window models.Window) ([]models.Bar, error) {
	m.mu.Lock()
	m.historyCalls++
	m.mu.Unlock()
	if m.historyFn != nil {
		return m.historyFn(ticker, window)
	}
	return []models.Bar{
		{Date: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), High: 95, Close: 90},
		{Date: time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), High: 105, Close: 100},
	}, nil
}

func (m *mockClient) quoteCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.quoteCalls)
}

// fullFundamentals returns fundamentals with every required field set,
// so snapshots built from it are not forced stale.
func fullFundamentals() *models.Fundamentals {
	earnings := time.Date(2026, 10, 29, 0, 0, 0, 0, time.UTC)
	exDiv := time.Date(2026, 11, 7, 0, 0, 0, 0, time.UTC)
	return &models.Fundamentals{
		PE:              models.Float64(25),
		PEG:             models.Float64(2),
		EPS:             models.Float64(5),
		DividendYield:   models.Float64(0.01),
		ROE:             models.Float64(0.4),
		NetMargin:       models.Float64(0.2),
		OperatingMargin: models.Float64(0.25),
		Cash:            models.Float64(1e10),
		TotalDebt:       models.Float64(5e9),
		TargetPrice:     models.Float64(120),
		EarningsDate:    &earnings,
		ExDividendDate:  &exDiv,
		Recommendation:  "buy",
	}
}

// freshSnapshot builds a stored snapshot that passes the staleness check
// as of the mock store's clock.
func freshSnapshot(ticker string, updated time.Time) *models.Snapshot {
	return &models.Snapshot{
		Ticker:       ticker,
		CompanyName:  ticker + " Corp",
		Sector:       "Technology",
		CurrentPrice: models.Float64(100),
		Fundamentals: *fullFundamentals(),
		LastUpdated:  updated,
	}
}

func newTestService(store *mockStore, client *mockClient) *Service {
	svc := NewService(store, client, &testRefreshConfig, nil)
	svc.now = func() time.Time { return store.now }
	svc.sleep = func(time.Duration) {}
	return svc
}
