package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"

	"github.com/trading-cockpit/cockpit/app/portfolio"
)

// APIStatusResponse is the JSON response for /api/v1/status
type APIStatusResponse struct {
	OpenPositions   int       `json:"open_positions"`
	ClosedPositions int       `json:"closed_positions"`
	WatchlistSize   int       `json:"watchlist_size"`
	TotalTrades     int       `json:"total_trades"`
	TotalPnl        float64   `json:"total_pnl"`
	WinRate         float64   `json:"win_rate"`
	Capital         float64   `json:"capital"`
	Version         string    `json:"version"`
	Uptime          string    `json:"uptime"`
	Timestamp       time.Time `json:"timestamp"`
}

// closeRequest is the JSON body for closing a position
type closeRequest struct {
	ExitPrice float64 `json:"exit_price"`
	Reason    string  `json:"reason,omitempty"`
}

// watchRequest is the JSON body for adding a watchlist symbol
type watchRequest struct {
	Symbol string `json:"symbol"`
	Sector string `json:"sector,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// settingRequest is the JSON body for setting a value
type settingRequest struct {
	Value any `json:"value"`
}

// handleStatus returns aggregate dashboard statistics
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	stats := s.journal.Stats()
	resp := APIStatusResponse{
		OpenPositions:   len(s.positions.All(portfolio.StatusOpen)),
		ClosedPositions: len(s.positions.All(portfolio.StatusClosed)),
		WatchlistSize:   s.watchlist.Len(),
		TotalTrades:     stats.TotalTrades,
		TotalPnl:        stats.TotalPnl,
		WinRate:         stats.WinRate,
		Capital:         s.settings.Float("capital", 0),
		Version:         s.version,
		Uptime:          time.Since(s.startTime).Truncate(time.Second).String(),
		Timestamp:       time.Now(),
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handlePositionsList returns positions, filtered by ?status=
func (s *Server) handlePositionsList(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && status != portfolio.StatusOpen && status != portfolio.StatusClosed {
		s.writeJSONError(w, http.StatusBadRequest, "status must be OPEN or CLOSED")
		return
	}
	s.writeJSON(w, http.StatusOK, s.positions.All(status))
}

func (s *Server) handlePositionGet(w http.ResponseWriter, r *http.Request) {
	pos, err := s.positions.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err, "failed to get position")
		return
	}
	s.writeJSON(w, http.StatusOK, pos)
}

func (s *Server) handlePositionAdd(w http.ResponseWriter, r *http.Request) {
	var pos portfolio.Position
	if err := json.NewDecoder(r.Body).Decode(&pos); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	added, err := s.positions.Add(pos)
	if err != nil {
		s.writeError(w, err, "failed to add position")
		return
	}
	s.writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handlePositionUpdate(w http.ResponseWriter, r *http.Request) {
	var updates map[string]any
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	pos, err := s.positions.Update(r.PathValue("id"), updates)
	if err != nil {
		s.writeError(w, err, "failed to update position")
		return
	}
	s.writeJSON(w, http.StatusOK, pos)
}

func (s *Server) handlePositionDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.positions.Delete(r.PathValue("id")); err != nil {
		s.writeError(w, err, "failed to delete position")
		return
	}
	s.writeJSON(w, http.StatusOK, rest.JSON{"deleted": r.PathValue("id")})
}

func (s *Server) handlePositionClose(w http.ResponseWriter, r *http.Request) {
	var req closeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	entry, err := s.positions.Close(r.PathValue("id"), req.ExitPrice, req.Reason)
	if err != nil {
		s.writeError(w, err, "failed to close position")
		return
	}
	s.writeJSON(w, http.StatusOK, entry)
}

// handleJournalList returns journal entries, most recent first, ?limit=
// caps the count (default 100)
func (s *Server) handleJournalList(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			s.writeJSONError(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = parsed
	}
	s.writeJSON(w, http.StatusOK, s.journal.All(limit))
}

func (s *Server) handleJournalStats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.journal.Stats())
}

func (s *Server) handleWatchlistList(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.watchlist.All())
}

func (s *Server) handleWatchlistAdd(w http.ResponseWriter, r *http.Request) {
	var req watchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	item, err := s.watchlist.Add(req.Symbol, req.Sector, req.Notes)
	if err != nil {
		s.writeError(w, err, "failed to add watchlist symbol")
		return
	}
	s.writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleWatchlistRemove(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	if err := s.watchlist.Remove(symbol); err != nil {
		s.writeError(w, err, "failed to remove watchlist symbol")
		return
	}
	s.writeJSON(w, http.StatusOK, rest.JSON{"removed": symbol})
}

func (s *Server) handleSettingsList(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.settings.All())
}

func (s *Server) handleSettingsSet(w http.ResponseWriter, r *http.Request) {
	var req settingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	key := r.PathValue("key")
	if err := s.settings.Set(key, req.Value); err != nil {
		s.writeError(w, err, "failed to set setting")
		return
	}
	s.writeJSON(w, http.StatusOK, rest.JSON{key: req.Value})
}

// writeError maps a portfolio error to the right status code
func (s *Server) writeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, portfolio.ErrNotFound):
		s.writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, portfolio.ErrInvalid):
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[ERROR] %s: %v", msg, err)
		s.writeJSONError(w, http.StatusInternalServerError, msg)
	}
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[WARN] failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes a JSON error response
func (s *Server) writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]string{"error": message}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("[WARN] failed to encode JSON error response: %v", err)
	}
}
