package portfolio

import (
	"fmt"
	"sort"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/trading-cockpit/cockpit/app/store"
)

// WatchItem is one symbol on the watchlist.
type WatchItem struct {
	Symbol  string    `json:"symbol"`
	Sector  string    `json:"sector,omitempty"`
	Notes   string    `json:"notes,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// Watchlist manages the watched symbols in the "watchlist" collection.
// A brand new watchlist is seeded with a default set of high-liquidity
// options stocks.
type Watchlist struct {
	store *store.Map
}

// defaultSymbols is the starter set for an empty watchlist, high liquidity
// options stocks suitable for swing trading.
var defaultSymbols = []struct{ symbol, sector string }{
	{"AAPL", "Technology"}, {"MSFT", "Technology"}, {"NVDA", "Technology"},
	{"GOOGL", "Technology"}, {"AMZN", "Consumer"}, {"META", "Technology"},
	{"TSLA", "Consumer"}, {"AMD", "Technology"}, {"INTC", "Technology"},
	{"MU", "Technology"}, {"QCOM", "Technology"}, {"CRM", "Technology"},
	{"NOW", "Technology"}, {"ADBE", "Technology"}, {"JPM", "Financials"},
	{"BAC", "Financials"}, {"GS", "Financials"}, {"NFLX", "Communication"},
	{"DIS", "Communication"}, {"NKE", "Consumer"}, {"SBUX", "Consumer"},
	{"BABA", "Technology"}, {"BIDU", "Technology"}, {"JD", "Consumer"},
	{"PDD", "Consumer"}, {"SNAP", "Communication"}, {"PINS", "Communication"},
	{"XOM", "Energy"}, {"CVX", "Energy"},
	{"SPY", "Index"}, {"QQQ", "Index"}, {"IWM", "Index"},
}

// NewWatchlist makes the watchlist over the "watchlist" collection,
// seeding defaults if the collection is empty.
func NewWatchlist(backend store.Backend) *Watchlist {
	w := &Watchlist{store: store.NewMap("watchlist", backend)}
	if w.store.Len() == 0 {
		w.seedDefaults()
	}
	return w
}

func (w *Watchlist) seedDefaults() {
	now := time.Now()
	entries := make(map[string]any, len(defaultSymbols))
	for _, d := range defaultSymbols {
		entries[d.symbol] = WatchItem{
			Symbol:  d.symbol,
			Sector:  d.sector,
			Notes:   "Default - High liquidity options",
			AddedAt: now,
		}
	}
	if err := w.store.Update(entries); err != nil {
		log.Printf("[WARN] failed to seed default watchlist: %v", err)
		return
	}
	log.Printf("[INFO] populated default watchlist with %d symbols", len(defaultSymbols))
}

// Add puts a symbol on the watchlist, replacing an existing entry for the
// same symbol.
func (w *Watchlist) Add(symbol, sector, notes string) (WatchItem, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return WatchItem{}, fmt.Errorf("watchlist symbol is required: %w", ErrInvalid)
	}
	item := WatchItem{Symbol: symbol, Sector: sector, Notes: notes, AddedAt: time.Now()}
	if err := w.store.Set(symbol, item); err != nil {
		return WatchItem{}, fmt.Errorf("failed to add %s to watchlist: %w", symbol, err)
	}
	return item, nil
}

// Remove takes a symbol off the watchlist.
func (w *Watchlist) Remove(symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if !w.store.Has(symbol) {
		return fmt.Errorf("watchlist symbol %s: %w", symbol, ErrNotFound)
	}
	if err := w.store.Delete(symbol); err != nil {
		return fmt.Errorf("failed to remove %s from watchlist: %w", symbol, err)
	}
	return nil
}

// Has reports whether a symbol is watched.
func (w *Watchlist) Has(symbol string) bool {
	return w.store.Has(strings.ToUpper(strings.TrimSpace(symbol)))
}

// Len returns the number of watched symbols.
func (w *Watchlist) Len() int { return w.store.Len() }

// All returns the watchlist, most recently added first with symbol as the
// tie-breaker.
func (w *Watchlist) All() []WatchItem {
	items := w.store.Items()
	res := make([]WatchItem, 0, len(items))
	for symbol, raw := range items {
		var item WatchItem
		if err := store.Decode(raw, &item); err != nil {
			log.Printf("[WARN] skipping undecodable watchlist entry %s: %v", symbol, err)
			continue
		}
		res = append(res, item)
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].AddedAt.Equal(res[j].AddedAt) {
			return res[i].AddedAt.After(res[j].AddedAt)
		}
		return res[i].Symbol < res[j].Symbol
	})
	return res
}
