package portfolio

import (
	"fmt"
	"sort"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/trading-cockpit/cockpit/app/store"
)

// Entry is one completed trade in the journal.
type Entry struct {
	PositionID string    `json:"position_id,omitempty"`
	Symbol     string    `json:"symbol"`
	Direction  string    `json:"direction"`
	SetupType  string    `json:"setup_type,omitempty"`
	Tier       string    `json:"tier,omitempty"`
	Strike     float64   `json:"strike,omitempty"`
	Expiration string    `json:"expiration,omitempty"`
	Contracts  int       `json:"contracts"`
	EntryPrice float64   `json:"entry_price"`
	EntryDate  time.Time `json:"entry_date,omitzero"`
	ExitPrice  float64   `json:"exit_price"`
	ExitDate   time.Time `json:"exit_date"`
	ExitReason string    `json:"exit_reason,omitempty"`
	PnlDollars float64   `json:"pnl_dollars"`
	PnlPercent float64   `json:"pnl_percent"`
	HoldDays   int       `json:"hold_days"`
	TargetHit  bool      `json:"target_hit"`
	StopHit    bool      `json:"stop_hit"`
	Lessons    string    `json:"lessons,omitempty"`
}

// Stats aggregates journal performance.
type Stats struct {
	TotalTrades int     `json:"total_trades"`
	Winners     int     `json:"winners"`
	Losers      int     `json:"losers"`
	WinRate     float64 `json:"win_rate"`
	TotalPnl    float64 `json:"total_pnl"`
	AvgReturn   float64 `json:"avg_return"`
	AvgWin      float64 `json:"avg_win"`
	AvgLoss     float64 `json:"avg_loss"`
	AvgHoldDays float64 `json:"avg_hold_days"`

	BySetup     []GroupStats `json:"by_setup"`
	ByDirection []GroupStats `json:"by_direction"`
}

// GroupStats is a stats breakdown for one setup type or direction.
type GroupStats struct {
	Key       string  `json:"key"`
	Trades    int     `json:"trades"`
	Winners   int     `json:"winners"`
	WinRate   float64 `json:"win_rate"`
	AvgReturn float64 `json:"avg_return"`
	TotalPnl  float64 `json:"total_pnl"`
}

// Journal keeps the ordered record of completed trades in the "journal"
// collection. Entries are append-only in normal operation.
type Journal struct {
	list *store.List
}

// NewJournal makes the journal over the "journal" collection.
func NewJournal(backend store.Backend) *Journal {
	return &Journal{list: store.NewList("journal", backend)}
}

// Append adds a completed trade at the end of the journal.
func (j *Journal) Append(e Entry) error {
	if err := j.list.Append(e); err != nil {
		return fmt.Errorf("failed to append journal entry for %s: %w", e.Symbol, err)
	}
	return nil
}

// Len returns the number of journal entries.
func (j *Journal) Len() int { return j.list.Len() }

// All returns up to limit entries, most recent exit first. A non-positive
// limit returns everything.
func (j *Journal) All(limit int) []Entry {
	entries := j.entries()
	sort.Slice(entries, func(i, k int) bool { return entries[i].ExitDate.After(entries[k].ExitDate) })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Stats computes aggregate performance over the whole journal.
func (j *Journal) Stats() Stats {
	entries := j.entries()
	res := Stats{
		TotalTrades: len(entries),
		BySetup:     []GroupStats{},
		ByDirection: []GroupStats{},
	}
	if len(entries) == 0 {
		return res
	}

	var sumReturn, sumWin, sumLoss, sumHold float64
	bySetup := map[string]*GroupStats{}
	byDirection := map[string]*GroupStats{}

	for _, e := range entries {
		win := e.PnlDollars > 0
		if win {
			res.Winners++
			sumWin += e.PnlPercent
		} else {
			res.Losers++
			sumLoss += e.PnlPercent
		}
		res.TotalPnl += e.PnlDollars
		sumReturn += e.PnlPercent
		sumHold += float64(e.HoldDays)

		if e.SetupType != "" {
			accumulate(bySetup, e.SetupType, e, win)
		}
		accumulate(byDirection, e.Direction, e, win)
	}

	res.WinRate = float64(res.Winners) / float64(res.TotalTrades) * 100
	res.AvgReturn = sumReturn / float64(res.TotalTrades)
	if res.Winners > 0 {
		res.AvgWin = sumWin / float64(res.Winners)
	}
	if res.Losers > 0 {
		res.AvgLoss = sumLoss / float64(res.Losers)
	}
	res.AvgHoldDays = sumHold / float64(res.TotalTrades)

	res.BySetup = flatten(bySetup)
	res.ByDirection = flatten(byDirection)
	return res
}

// entries decodes the raw sequence, skipping anything undecodable.
func (j *Journal) entries() []Entry {
	items := j.list.Items()
	res := make([]Entry, 0, len(items))
	for i, raw := range items {
		var e Entry
		if err := store.Decode(raw, &e); err != nil {
			log.Printf("[WARN] skipping undecodable journal entry %d: %v", i, err)
			continue
		}
		res = append(res, e)
	}
	return res
}

func accumulate(groups map[string]*GroupStats, key string, e Entry, win bool) {
	g, ok := groups[key]
	if !ok {
		g = &GroupStats{Key: key}
		groups[key] = g
	}
	g.Trades++
	if win {
		g.Winners++
	}
	g.TotalPnl += e.PnlDollars
	g.AvgReturn += e.PnlPercent // running sum, divided in flatten
}

// flatten finalizes group averages and returns groups sorted by total pnl,
// best first.
func flatten(groups map[string]*GroupStats) []GroupStats {
	res := make([]GroupStats, 0, len(groups))
	for _, g := range groups {
		g.AvgReturn /= float64(g.Trades)
		g.WinRate = float64(g.Winners) / float64(g.Trades) * 100
		res = append(res, *g)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].TotalPnl > res[j].TotalPnl })
	return res
}
