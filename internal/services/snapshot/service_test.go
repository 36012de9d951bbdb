package snapshot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bobmcallan/marketpulse/internal/common"
	"github.com/bobmcallan/marketpulse/internal/models"
)

var testRefreshConfig = common.RefreshConfig{
	SnapshotTTL: "1h",
	BatchSize:   10,
	BatchDelay:  "1s",
	TickerDelay: "200ms",
}

func TestGetOrRefreshCacheHit(t *testing.T) {
	store := newMockStore()
	client := &mockClient{}
	svc := newTestService(store, client)

	store.snapshots["AAPL"] = freshSnapshot("AAPL", store.now.Add(-30*time.Minute))

	snap, err := svc.GetOrRefresh(context.Background(), "AAPL", false)
	if err != nil {
		t.Fatalf("GetOrRefresh failed: %v", err)
	}
	if snap == nil {
		t.Fatal("expected snapshot")
	}
	if client.quoteCallCount() != 0 {
		t.Errorf("expected no provider calls on cache hit, got %d", client.quoteCallCount())
	}
}

func TestGetOrRefreshStaleSnapshot(t *testing.T) {
	store := newMockStore()
	client := &mockClient{}
	svc := newTestService(store, client)

	store.snapshots["AAPL"] = freshSnapshot("AAPL", store.now.Add(-2*time.Hour))

	snap, err := svc.GetOrRefresh(context.Background(), "AAPL", false)
	if err != nil {
		t.Fatalf("GetOrRefresh failed: %v", err)
	}
	if client.quoteCallCount() != 1 {
		t.Errorf("expected 1 quote call for stale snapshot, got %d", client.quoteCallCount())
	}
	if snap.LastUpdated != store.now {
		t.Errorf("expected LastUpdated set to refresh time, got %v", snap.LastUpdated)
	}
}

func TestGetOrRefreshMissingFundamentalsForcesRefresh(t *testing.T) {
	store := newMockStore()
	client := &mockClient{}
	svc := newTestService(store, client)

	// Recent snapshot but with no fundamentals at all
	store.snapshots["AAPL"] = &models.Snapshot{
		Ticker:      "AAPL",
		LastUpdated: store.now.Add(-5 * time.Minute),
	}

	_, err := svc.GetOrRefresh(context.Background(), "AAPL", false)
	if err != nil {
		t.Fatalf("GetOrRefresh failed: %v", err)
	}
	if client.quoteCallCount() != 1 {
		t.Errorf("expected refresh for snapshot missing fundamentals, got %d quote calls", client.quoteCallCount())
	}
}

func TestGetOrRefreshForce(t *testing.T) {
	store := newMockStore()
	client := &mockClient{}
	svc := newTestService(store, client)

	store.snapshots["AAPL"] = freshSnapshot("AAPL", store.now.Add(-time.Minute))

	_, err := svc.GetOrRefresh(context.Background(), "AAPL", true)
	if err != nil {
		t.Fatalf("GetOrRefresh failed: %v", err)
	}
	if client.quoteCallCount() != 1 {
		t.Errorf("expected provider call with force=true, got %d", client.quoteCallCount())
	}
}

func TestGetOrRefreshNormalizesTicker(t *testing.T) {
	store := newMockStore()
	client := &mockClient{}
	svc := newTestService(store, client)

	snap, err := svc.GetOrRefresh(context.Background(), "  aapl ", false)
	if err != nil {
		t.Fatalf("GetOrRefresh failed: %v", err)
	}
	if snap.Ticker != "AAPL" {
		t.Errorf("expected normalized ticker AAPL, got %s", snap.Ticker)
	}
	if _, ok := store.snapshots["AAPL"]; !ok {
		t.Error("expected snapshot stored under normalized key")
	}
}

func TestGetOrRefreshInvalidTicker(t *testing.T) {
	svc := newTestService(newMockStore(), &mockClient{})

	for _, ticker := range []string{"", "   ", "AA PL", "VERYLONGTICKER", "bad;drop"} {
		_, err := svc.GetOrRefresh(context.Background(), ticker, false)
		if !errors.Is(err, models.ErrInvalidTicker) {
			t.Errorf("ticker %q: expected ErrInvalidTicker, got %v", ticker, err)
		}
	}
}

func TestGetOrRefreshProviderMissFallsBackToCache(t *testing.T) {
	store := newMockStore()
	client := &mockClient{
		quoteFn: func(ticker string) (*models.Quote, error) {
			return nil, errors.New("provider down")
		},
	}
	svc := newTestService(store, client)

	cached := freshSnapshot("AAPL", store.now.Add(-3*time.Hour))
	store.snapshots["AAPL"] = cached

	snap, err := svc.GetOrRefresh(context.Background(), "AAPL", false)
	if err != nil {
		t.Fatalf("expected cached fallback, got error: %v", err)
	}
	if snap != cached {
		t.Error("expected the stale cached snapshot as fallback")
	}
}

func TestGetOrRefreshProviderMissNoCache(t *testing.T) {
	store := newMockStore()
	client := &mockClient{
		quoteFn: func(ticker string) (*models.Quote, error) {
			return nil, errors.New("provider down")
		},
	}
	svc := newTestService(store, client)

	snap, err := svc.GetOrRefresh(context.Background(), "NEWCO", false)
	if err != nil {
		t.Fatalf("expected nil error for total miss, got: %v", err)
	}
	if snap != nil {
		t.Errorf("expected nil snapshot for total miss, got %+v", snap)
	}
	if store.upserts != 0 {
		t.Error("expected no write on provider miss")
	}
}

func TestGetOrRefreshUpsertFailureSurfaced(t *testing.T) {
	store := newMockStore()
	store.upsertErr = errors.New("disk full")
	client := &mockClient{}
	svc := newTestService(store, client)

	snap, err := svc.GetOrRefresh(context.Background(), "AAPL", false)
	if err == nil {
		t.Fatal("expected error when snapshot write fails")
	}
	if !errors.Is(err, store.upsertErr) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
	if snap != nil {
		t.Errorf("expected nil snapshot on write failure, got %+v", snap)
	}
}

func TestGetOrRefreshFallbackReadFailureSurfaced(t *testing.T) {
	store := newMockStore()
	store.getErr = errors.New("store unavailable")
	client := &mockClient{
		quoteFn: func(ticker string) (*models.Quote, error) {
			return nil, errors.New("provider down")
		},
	}
	svc := newTestService(store, client)

	snap, err := svc.GetOrRefresh(context.Background(), "AAPL", false)
	if err == nil {
		t.Fatal("expected error when fallback read fails")
	}
	if !errors.Is(err, store.getErr) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
	if snap != nil {
		t.Errorf("expected nil snapshot, got %+v", snap)
	}
}

func TestGetOrRefreshPartialHistoryFailure(t *testing.T) {
	store := newMockStore()
	client := &mockClient{
		historyFn: func(ticker string, window models.Window) ([]models.Bar, error) {
			if window == models.Window1Y {
				return nil, errors.New("timeout")
			}
			return []models.Bar{
				{Date: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), High: 95, Close: 90},
				{Date: time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), High: 105, Close: 100},
			}, nil
		},
	}
	svc := newTestService(store, client)

	snap, err := svc.GetOrRefresh(context.Background(), "AAPL", false)
	if err != nil {
		t.Fatalf("GetOrRefresh failed: %v", err)
	}
	if snap.Change1Y != nil {
		t.Errorf("expected nil Change1Y for failed window, got %v", *snap.Change1Y)
	}
	if snap.High1Yr != nil {
		t.Errorf("expected nil High1Yr for failed window, got %v", *snap.High1Yr)
	}
	if snap.Change30D == nil {
		t.Error("expected Change30D defined from successful window")
	}
	if store.upserts != 1 {
		t.Errorf("expected snapshot stored despite partial failure, upserts=%d", store.upserts)
	}
}

func TestGetOrRefreshDeduplicatesConcurrent(t *testing.T) {
	store := newMockStore()
	release := make(chan struct{})
	client := &mockClient{
		quoteFn: func(ticker string) (*models.Quote, error) {
			<-release
			return &models.Quote{Ticker: ticker, Name: ticker, Price: 100}, nil
		},
	}
	svc := newTestService(store, client)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]*models.Snapshot, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap, err := svc.GetOrRefresh(context.Background(), "AAPL", true)
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
			}
			results[i] = snap
		}(i)
	}

	// Let all callers pile onto the in-flight refresh before releasing it
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := client.quoteCallCount(); got != 1 {
		t.Errorf("expected 1 provider round-trip for %d concurrent callers, got %d", callers, got)
	}
	for i, snap := range results {
		if snap == nil {
			t.Errorf("caller %d got nil snapshot", i)
		}
	}
}

func TestGetCached(t *testing.T) {
	store := newMockStore()
	client := &mockClient{}
	svc := newTestService(store, client)

	snap, err := svc.GetCached(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetCached failed: %v", err)
	}
	if snap != nil {
		t.Error("expected nil for uncached ticker")
	}

	store.snapshots["AAPL"] = freshSnapshot("AAPL", store.now)

	snap, err = svc.GetCached(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("GetCached failed: %v", err)
	}
	if snap == nil || snap.Ticker != "AAPL" {
		t.Errorf("expected cached AAPL snapshot, got %+v", snap)
	}
	if client.quoteCallCount() != 0 {
		t.Error("GetCached must not call the provider")
	}
}
