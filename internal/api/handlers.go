package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/calvinwijaya/klondike-be/internal/db"
	"github.com/calvinwijaya/klondike-be/internal/game"
	"github.com/calvinwijaya/klondike-be/internal/store"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Defaults are the settings used when a new-game request leaves them out.
type Defaults struct {
	Mode      game.Mode
	DrawCount int
}

// Handlers contains all the API handlers
type Handlers struct {
	store    store.Store
	database *db.Database
	hub      *Hub
	logger   *zap.Logger
	defaults Defaults
}

// NewHandlers creates a new instance of Handlers. database and hub may be nil.
func NewHandlers(store store.Store, database *db.Database, hub *Hub, logger *zap.Logger, defaults Defaults) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaults.Mode == "" {
		defaults.Mode = game.Play
	}
	if defaults.DrawCount == 0 {
		defaults.DrawCount = 1
	}

	h := &Handlers{
		store:    store,
		database: database,
		hub:      hub,
		logger:   logger,
		defaults: defaults,
	}
	if hub != nil {
		hub.SetInputHandler(h)
	}
	return h
}

// RegisterRoutes registers all API routes
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	// Game endpoints
	r.HandleFunc("/api/game/new", h.NewGame).Methods("POST")
	r.HandleFunc("/api/game/list", h.ListGames).Methods("GET")
	r.HandleFunc("/api/game/{id}/input", h.Input).Methods("POST")
	r.HandleFunc("/api/game/{id}/draw", h.Draw).Methods("POST")
	r.HandleFunc("/api/game/{id}/move", h.Move).Methods("POST")
	r.HandleFunc("/api/game/{id}/autocomplete", h.AutoComplete).Methods("POST")
	r.HandleFunc("/api/game/{id}", h.GetGame).Methods("GET")
	r.HandleFunc("/api/game/{id}", h.DeleteGame).Methods("DELETE")

	// Results endpoints
	r.HandleFunc("/api/stats", h.GetStats).Methods("GET")
	r.HandleFunc("/api/results", h.GetResults).Methods("GET")

	// WebSocket endpoint
	r.HandleFunc("/ws", h.WebSocket)
}

// response helper function to send JSON responses
func response(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// error response helper function
func errorResponse(w http.ResponseWriter, status int, message string) {
	response(w, status, map[string]string{"error": message})
}

// statusFor maps a game error to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrWrongMode), errors.Is(err, game.ErrGameWon):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// NewGame creates and deals a new game
func (h *Handlers) NewGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode      string `json:"mode"`
		DrawCount int    `json:"drawCount"`
		Seed      *int64 `json:"seed"`
	}

	// An empty body means all defaults.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	mode := h.defaults.Mode
	if req.Mode != "" {
		m, err := game.ParseMode(req.Mode)
		if err != nil {
			errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		mode = m
	}
	if req.DrawCount == 0 {
		req.DrawCount = h.defaults.DrawCount
	}

	opts := []game.Option{
		game.WithDrawCount(req.DrawCount),
		game.WithLogger(h.logger.Named("game")),
	}
	if req.Seed != nil {
		opts = append(opts, game.WithSeed(*req.Seed))
	}

	g, err := game.NewKlondikeGame(mode, opts...)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := h.store.SaveGame(g)
	if err != nil {
		h.logger.Error("failed to save game", zap.Error(err))
		errorResponse(w, http.StatusInternalServerError, "Failed to save game")
		return
	}

	h.logger.Info("game created", zap.String("game_id", g.ID), zap.String("mode", string(mode)))
	response(w, http.StatusCreated, sess.Snapshot())
}

// GetGame returns the current state of a game
func (h *Handlers) GetGame(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.GetGame(mux.Vars(r)["id"])
	if err != nil {
		errorResponse(w, http.StatusNotFound, "Game not found")
		return
	}

	response(w, http.StatusOK, sess.Snapshot())
}

// ListGames returns a summary of every live game
func (h *Handlers) ListGames(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.GetAllGames()
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Error retrieving games")
		return
	}

	games := make([]map[string]interface{}, 0, len(sessions))
	for _, sess := range sessions {
		snap := sess.Snapshot()
		games = append(games, map[string]interface{}{
			"id":          snap.ID,
			"mode":        snap.Mode,
			"status":      snap.Status,
			"moves":       snap.Moves,
			"lastUpdated": snap.UpdatedAt.Format(time.RFC3339),
		})
	}

	response(w, http.StatusOK, games)
}

// DeleteGame ends a live game and records its result
func (h *Handlers) DeleteGame(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	sess, err := h.store.GetGame(id)
	if err != nil {
		errorResponse(w, http.StatusNotFound, "Game not found")
		return
	}

	h.recordResult(r.Context(), sess)

	if err := h.store.DeleteGame(id); err != nil {
		errorResponse(w, statusFor(err), err.Error())
		return
	}

	response(w, http.StatusOK, map[string]string{
		"success": "true",
		"message": "Game ended",
	})
}

// Input forwards a single key press to the game
func (h *Handlers) Input(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	key, ok := singleKey(req.Key)
	if !ok {
		errorResponse(w, http.StatusBadRequest, "Key must be a single character")
		return
	}

	h.act(w, r, func(g *game.KlondikeGame) error {
		g.HandleInput(key)
		return nil
	})
}

// Draw turns over cards from the stock, or recycles the waste
func (h *Handlers) Draw(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(g *game.KlondikeGame) error {
		return g.Draw()
	})
}

// AutoComplete moves every card the foundations accept
func (h *Handlers) AutoComplete(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(g *game.KlondikeGame) error {
		_, err := g.AutoComplete()
		return err
	})
}

// Move performs a move between two named locations
func (h *Handlers) Move(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	from, err := parseLocation(req.From)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseLocation(req.To)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	h.act(w, r, func(g *game.KlondikeGame) error {
		return move(g, from, to)
	})
}

// act runs fn against the game named in the URL, then pushes the new state
// to watchers and answers with the snapshot.
func (h *Handlers) act(w http.ResponseWriter, r *http.Request, fn func(g *game.KlondikeGame) error) {
	sess, err := h.store.GetGame(mux.Vars(r)["id"])
	if err != nil {
		errorResponse(w, http.StatusNotFound, "Game not found")
		return
	}

	if err := sess.Do(fn); err != nil {
		h.logger.Debug("action rejected", zap.String("game_id", sess.ID()), zap.Error(err))
		errorResponse(w, statusFor(err), err.Error())
		return
	}

	snap := h.changed(r.Context(), sess)
	response(w, http.StatusOK, snap)
}

// HandleKey forwards a key press that arrived over the WebSocket.
func (h *Handlers) HandleKey(ctx context.Context, gameID string, key rune) {
	sess, err := h.store.GetGame(gameID)
	if err != nil {
		h.logger.Debug("input for unknown game", zap.String("game_id", gameID))
		return
	}

	sess.Do(func(g *game.KlondikeGame) error {
		g.HandleInput(key)
		return nil
	})
	h.changed(ctx, sess)
}

// changed broadcasts the session's state and records the result once the
// game is won.
func (h *Handlers) changed(ctx context.Context, sess *store.Session) game.Snapshot {
	snap := sess.Snapshot()

	if h.hub != nil {
		h.hub.BroadcastSnapshot(snap)
	}
	if snap.Status == game.Won {
		h.recordResult(ctx, sess)
	}
	return snap
}

func (h *Handlers) recordResult(ctx context.Context, sess *store.Session) {
	if h.database == nil || !sess.MarkRecorded() {
		return
	}

	var result db.Result
	sess.Do(func(g *game.KlondikeGame) error {
		result = db.ResultFromGame(g)
		return nil
	})

	if err := h.database.SaveResult(ctx, result); err != nil {
		// Log but don't fail the request; the next change retries.
		sess.ClearRecorded()
		h.logger.Warn("failed to record result", zap.String("game_id", result.GameID), zap.Error(err))
	}
}

// GetStats returns aggregate results
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	if h.database == nil {
		errorResponse(w, http.StatusServiceUnavailable, "Database not available")
		return
	}

	stats, err := h.database.GetStats(r.Context())
	if err != nil {
		h.logger.Error("error retrieving statistics", zap.Error(err))
		errorResponse(w, http.StatusInternalServerError, "Error retrieving statistics")
		return
	}

	response(w, http.StatusOK, stats)
}

// GetResults returns the most recent results
func (h *Handlers) GetResults(w http.ResponseWriter, r *http.Request) {
	if h.database == nil {
		errorResponse(w, http.StatusServiceUnavailable, "Database not available")
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			errorResponse(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	results, err := h.database.RecentResults(r.Context(), limit)
	if err != nil {
		h.logger.Error("error retrieving results", zap.Error(err))
		errorResponse(w, http.StatusInternalServerError, "Error retrieving results")
		return
	}

	response(w, http.StatusOK, results)
}

// WebSocket attaches a client to a live game
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		errorResponse(w, http.StatusServiceUnavailable, "WebSocket not available")
		return
	}

	sess, err := h.store.GetGame(r.URL.Query().Get("gameId"))
	if err != nil {
		errorResponse(w, http.StatusNotFound, "Game not found")
		return
	}

	h.hub.ServeClient(w, r, sess.Snapshot())
}

func singleKey(s string) (rune, bool) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, false
	}
	key, _ := utf8.DecodeRuneInString(s)
	return key, key != utf8.RuneError
}

// location is one end of a move: "waste", "pile:N" (1-based),
// "foundation" or "foundation:<suit>".
type location struct {
	kind    game.SourceKind
	pile    int
	suit    game.Suit
	hasSuit bool
}

func parseLocation(s string) (location, error) {
	name, arg, hasArg := strings.Cut(strings.ToLower(strings.TrimSpace(s)), ":")

	switch game.SourceKind(name) {
	case game.SourceWaste:
		if hasArg {
			break
		}
		return location{kind: game.SourceWaste}, nil
	case game.SourcePile:
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > game.NumPiles {
			return location{}, fmt.Errorf("invalid pile in %q", s)
		}
		return location{kind: game.SourcePile, pile: n - 1}, nil
	case game.SourceFoundation:
		if !hasArg {
			return location{kind: game.SourceFoundation}, nil
		}
		suit, err := game.ParseSuit(arg)
		if err != nil {
			return location{}, err
		}
		return location{kind: game.SourceFoundation, suit: suit, hasSuit: true}, nil
	}
	return location{}, fmt.Errorf("invalid location %q", s)
}

func move(g *game.KlondikeGame, from, to location) error {
	switch {
	case from.kind == game.SourceWaste && to.kind == game.SourcePile:
		return g.MoveWasteToPile(to.pile)
	case from.kind == game.SourceWaste && to.kind == game.SourceFoundation:
		if to.hasSuit {
			return g.MoveWasteToFoundationOf(to.suit)
		}
		return g.MoveWasteToFoundation()
	case from.kind == game.SourcePile && to.kind == game.SourcePile:
		return g.MovePileToPile(from.pile, to.pile)
	case from.kind == game.SourcePile && to.kind == game.SourceFoundation:
		if to.hasSuit {
			return g.MovePileToFoundationOf(from.pile, to.suit)
		}
		return g.MovePileToFoundation(from.pile)
	case from.kind == game.SourceFoundation && from.hasSuit && to.kind == game.SourcePile:
		return g.MoveFoundationToPile(from.suit, to.pile)
	}
	return fmt.Errorf("%w: cannot move from %s to %s", game.ErrIllegalMove, from.kind, to.kind)
}
