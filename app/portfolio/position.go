// Package portfolio implements the dashboard state on top of the store
// containers: open positions, the trade journal, the watchlist and user
// settings. Each dataset lives in its own named collection and persists
// itself on every mutation.
package portfolio

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/google/uuid"

	"github.com/trading-cockpit/cockpit/app/store"
)

// ErrNotFound indicates a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalid indicates a request that fails validation.
var ErrInvalid = errors.New("invalid request")

// position status values
const (
	StatusOpen   = "OPEN"
	StatusClosed = "CLOSED"
)

// option direction values
const (
	DirectionCall = "CALL"
	DirectionPut  = "PUT"
)

// Position is a single options position tracked by the dashboard.
type Position struct {
	ID           string    `json:"id"`
	Symbol       string    `json:"symbol"`
	Direction    string    `json:"direction"`
	SetupType    string    `json:"setup_type,omitempty"`
	Tier         string    `json:"tier,omitempty"`
	Strike       float64   `json:"strike,omitempty"`
	Expiration   string    `json:"expiration,omitempty"`
	Contracts    int       `json:"contracts"`
	EntryPrice   float64   `json:"entry_price"`
	EntryDate    time.Time `json:"entry_date"`
	TargetPrice  float64   `json:"target_price,omitempty"`
	StopPrice    float64   `json:"stop_price,omitempty"`
	Status       string    `json:"status"`
	CurrentPrice float64   `json:"current_price,omitempty"`
	PnlDollars   float64   `json:"pnl_dollars,omitempty"`
	PnlPercent   float64   `json:"pnl_percent,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitzero"`
}

// Positions manages the positions collection. Closing a position records
// the completed trade in the journal.
type Positions struct {
	store   *store.Map
	journal *Journal
}

// NewPositions makes the positions manager over the "positions" collection.
func NewPositions(backend store.Backend, journal *Journal) *Positions {
	return &Positions{store: store.NewMap("positions", backend), journal: journal}
}

// Add validates and stores a new position. Missing fields get the same
// defaults the trade entry form uses: direction CALL, one contract, entry
// date now. The generated ID is symbol plus a short random suffix.
func (p *Positions) Add(pos Position) (Position, error) {
	pos.Symbol = strings.ToUpper(strings.TrimSpace(pos.Symbol))
	if pos.Symbol == "" {
		return Position{}, fmt.Errorf("position symbol is required: %w", ErrInvalid)
	}
	if pos.EntryPrice <= 0 {
		return Position{}, fmt.Errorf("position entry price must be positive: %w", ErrInvalid)
	}
	if pos.Direction == "" {
		pos.Direction = DirectionCall
	}
	if pos.Direction != DirectionCall && pos.Direction != DirectionPut {
		return Position{}, fmt.Errorf("invalid direction %q: %w", pos.Direction, ErrInvalid)
	}
	if pos.Contracts <= 0 {
		pos.Contracts = 1
	}
	if pos.ID == "" {
		pos.ID = fmt.Sprintf("%s_%s", pos.Symbol, uuid.NewString()[:8])
	}
	if pos.EntryDate.IsZero() {
		pos.EntryDate = time.Now()
	}
	pos.Status = StatusOpen
	pos.UpdatedAt = time.Now()

	if err := p.store.Set(pos.ID, pos); err != nil {
		return Position{}, fmt.Errorf("failed to add position %s: %w", pos.ID, err)
	}
	log.Printf("[INFO] added position %s, %d %s %s @ %.2f", pos.ID, pos.Contracts, pos.Symbol, pos.Direction, pos.EntryPrice)
	return pos, nil
}

// Get returns a position by ID.
func (p *Positions) Get(id string) (Position, error) {
	raw, ok := p.store.Get(id)
	if !ok {
		return Position{}, fmt.Errorf("position %s: %w", id, ErrNotFound)
	}
	var pos Position
	if err := store.Decode(raw, &pos); err != nil {
		return Position{}, fmt.Errorf("failed to decode position %s: %w", id, err)
	}
	return pos, nil
}

// All returns positions with the given status, newest entry first. An empty
// status returns everything.
func (p *Positions) All(status string) []Position {
	items := p.store.Items()
	res := make([]Position, 0, len(items))
	for id, raw := range items {
		var pos Position
		if err := store.Decode(raw, &pos); err != nil {
			log.Printf("[WARN] skipping undecodable position %s: %v", id, err)
			continue
		}
		if status != "" && pos.Status != status {
			continue
		}
		res = append(res, pos)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].EntryDate.After(res[j].EntryDate) })
	return res
}

// Update applies a partial update to a position and persists it. Updates
// use the JSON field names, unknown fields are ignored. ID and status can't
// be changed this way.
func (p *Positions) Update(id string, updates map[string]any) (Position, error) {
	raw, ok := p.store.Get(id)
	if !ok {
		return Position{}, fmt.Errorf("position %s: %w", id, ErrNotFound)
	}

	var current map[string]any
	if err := store.Decode(raw, &current); err != nil {
		return Position{}, fmt.Errorf("failed to decode position %s: %w", id, err)
	}
	for k, v := range updates {
		if k == "id" || k == "status" {
			continue
		}
		current[k] = v
	}

	var pos Position
	if err := store.Decode(current, &pos); err != nil {
		return Position{}, fmt.Errorf("invalid update for position %s: %v: %w", id, err, ErrInvalid)
	}
	pos.ID = id
	pos.UpdatedAt = time.Now()

	if err := p.store.Set(id, pos); err != nil {
		return Position{}, fmt.Errorf("failed to update position %s: %w", id, err)
	}
	return pos, nil
}

// Delete removes a position without journaling it.
func (p *Positions) Delete(id string) error {
	if !p.store.Has(id) {
		return fmt.Errorf("position %s: %w", id, ErrNotFound)
	}
	if err := p.store.Delete(id); err != nil {
		return fmt.Errorf("failed to delete position %s: %w", id, err)
	}
	log.Printf("[INFO] deleted position %s", id)
	return nil
}

// Close records the exit for an open position: computes P&L, appends the
// completed trade to the journal and marks the position closed. The journal
// entry is written first, a position is never closed without one.
func (p *Positions) Close(id string, exitPrice float64, reason string) (Entry, error) {
	pos, err := p.Get(id)
	if err != nil {
		return Entry{}, err
	}
	if pos.Status != StatusOpen {
		return Entry{}, fmt.Errorf("position %s is not open: %w", id, ErrInvalid)
	}
	if exitPrice < 0 {
		return Entry{}, fmt.Errorf("exit price can't be negative: %w", ErrInvalid)
	}
	if reason == "" {
		reason = "MANUAL"
	}

	pnlDollars := (exitPrice - pos.EntryPrice) * float64(pos.Contracts) * 100
	pnlPercent := 0.0
	if pos.EntryPrice > 0 {
		pnlPercent = (exitPrice - pos.EntryPrice) / pos.EntryPrice * 100
	}
	holdDays := 0
	if !pos.EntryDate.IsZero() {
		holdDays = int(time.Since(pos.EntryDate).Hours() / 24)
	}

	entry := Entry{
		PositionID: pos.ID,
		Symbol:     pos.Symbol,
		Direction:  pos.Direction,
		SetupType:  pos.SetupType,
		Tier:       pos.Tier,
		Strike:     pos.Strike,
		Expiration: pos.Expiration,
		Contracts:  pos.Contracts,
		EntryPrice: pos.EntryPrice,
		EntryDate:  pos.EntryDate,
		ExitPrice:  exitPrice,
		ExitDate:   time.Now(),
		ExitReason: reason,
		PnlDollars: pnlDollars,
		PnlPercent: pnlPercent,
		HoldDays:   holdDays,
		TargetHit:  pos.TargetPrice > 0 && exitPrice >= pos.TargetPrice,
		StopHit:    pos.StopPrice > 0 && exitPrice <= pos.StopPrice,
	}
	if err := p.journal.Append(entry); err != nil {
		return Entry{}, fmt.Errorf("failed to journal close of %s: %w", id, err)
	}

	pos.Status = StatusClosed
	pos.CurrentPrice = exitPrice
	pos.PnlDollars = pnlDollars
	pos.PnlPercent = pnlPercent
	pos.UpdatedAt = time.Now()
	if err := p.store.Set(pos.ID, pos); err != nil {
		return Entry{}, fmt.Errorf("failed to close position %s: %w", id, err)
	}

	log.Printf("[INFO] closed position %s at %.2f (%s), pnl %.2f (%.1f%%)", id, exitPrice, reason, pnlDollars, pnlPercent)
	return entry, nil
}
