package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal_AppendAndAll(t *testing.T) {
	backend := testBackend(t)
	journal := NewJournal(backend)

	now := time.Now()
	require.NoError(t, journal.Append(Entry{Symbol: "AAPL", Direction: DirectionCall, ExitDate: now.Add(-2 * time.Hour), PnlDollars: 100}))
	require.NoError(t, journal.Append(Entry{Symbol: "MSFT", Direction: DirectionPut, ExitDate: now.Add(-time.Hour), PnlDollars: -50}))

	all := journal.All(0)
	require.Len(t, all, 2)
	assert.Equal(t, "MSFT", all[0].Symbol, "most recent exit first")
	assert.Equal(t, "AAPL", all[1].Symbol)

	limited := journal.All(1)
	require.Len(t, limited, 1)
	assert.Equal(t, "MSFT", limited[0].Symbol)

	// order survives a fresh container
	reloaded := NewJournal(backend)
	assert.Equal(t, 2, reloaded.Len())
	assert.Equal(t, "MSFT", reloaded.All(0)[0].Symbol)
}

func TestJournal_StatsEmpty(t *testing.T) {
	journal := NewJournal(testBackend(t))
	stats := journal.Stats()
	assert.Equal(t, 0, stats.TotalTrades)
	assert.Zero(t, stats.WinRate)
	assert.Empty(t, stats.BySetup)
	assert.Empty(t, stats.ByDirection)
}

func TestJournal_Stats(t *testing.T) {
	journal := NewJournal(testBackend(t))

	entries := []Entry{
		{Symbol: "AAPL", Direction: DirectionCall, SetupType: "BREAKOUT", PnlDollars: 300, PnlPercent: 30, HoldDays: 3},
		{Symbol: "MSFT", Direction: DirectionCall, SetupType: "BREAKOUT", PnlDollars: 100, PnlPercent: 10, HoldDays: 5},
		{Symbol: "TSLA", Direction: DirectionPut, SetupType: "REVERSAL", PnlDollars: -200, PnlPercent: -20, HoldDays: 1},
		{Symbol: "NVDA", Direction: DirectionCall, PnlDollars: -100, PnlPercent: -10, HoldDays: 7},
	}
	for _, e := range entries {
		require.NoError(t, journal.Append(e))
	}

	stats := journal.Stats()
	assert.Equal(t, 4, stats.TotalTrades)
	assert.Equal(t, 2, stats.Winners)
	assert.Equal(t, 2, stats.Losers)
	assert.InDelta(t, 50.0, stats.WinRate, 0.0001)
	assert.InDelta(t, 100.0, stats.TotalPnl, 0.0001)
	assert.InDelta(t, 2.5, stats.AvgReturn, 0.0001)   // (30+10-20-10)/4
	assert.InDelta(t, 20.0, stats.AvgWin, 0.0001)     // (30+10)/2
	assert.InDelta(t, -15.0, stats.AvgLoss, 0.0001)   // (-20-10)/2
	assert.InDelta(t, 4.0, stats.AvgHoldDays, 0.0001) // (3+5+1+7)/4

	// setup breakdown skips entries without a setup type, sorted by pnl
	require.Len(t, stats.BySetup, 2)
	assert.Equal(t, "BREAKOUT", stats.BySetup[0].Key)
	assert.Equal(t, 2, stats.BySetup[0].Trades)
	assert.InDelta(t, 100.0, stats.BySetup[0].WinRate, 0.0001)
	assert.InDelta(t, 20.0, stats.BySetup[0].AvgReturn, 0.0001)
	assert.Equal(t, "REVERSAL", stats.BySetup[1].Key)
	assert.InDelta(t, 0.0, stats.BySetup[1].WinRate, 0.0001)

	// direction breakdown covers every entry
	require.Len(t, stats.ByDirection, 2)
	assert.Equal(t, DirectionCall, stats.ByDirection[0].Key)
	assert.Equal(t, 3, stats.ByDirection[0].Trades)
	assert.Equal(t, DirectionPut, stats.ByDirection[1].Key)
}

func TestJournal_StatsAfterRestart(t *testing.T) {
	backend := testBackend(t)
	journal := NewJournal(backend)
	require.NoError(t, journal.Append(Entry{Symbol: "AAPL", Direction: DirectionCall, PnlDollars: 120, PnlPercent: 12}))

	reloaded := NewJournal(backend)
	stats := reloaded.Stats()
	assert.Equal(t, 1, stats.TotalTrades)
	assert.InDelta(t, 100.0, stats.WinRate, 0.0001)
	assert.InDelta(t, 120.0, stats.TotalPnl, 0.0001)
}
