package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Billy-Davies-2/draft-board-planner/internal/board"
	"github.com/Billy-Davies-2/draft-board-planner/internal/dal"
	"github.com/Billy-Davies-2/draft-board-planner/internal/logger"
	"github.com/Billy-Davies-2/draft-board-planner/internal/models"
	"github.com/Billy-Davies-2/draft-board-planner/internal/pubsub"
)

const (
	maxJSONBody   = 1 << 20
	maxImportBody = 10 << 20
)

// APIHandlers contains all API handler methods
type APIHandlers struct {
	dal    dal.BoardDAL
	pubsub *pubsub.PubSub
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(d dal.BoardDAL, ps *pubsub.PubSub) *APIHandlers {
	return &APIHandlers{
		dal:    d,
		pubsub: ps,
	}
}

// Register mounts the board API on mux
func (h *APIHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/state", h.GetState)
	mux.HandleFunc("/api/boards/board", h.GetBoard)
	mux.HandleFunc("/api/boards/reconcile", h.ReconcileEdit)
	mux.HandleFunc("/api/boards/reindex", h.Reindex)
	mux.HandleFunc("/api/boards/reset", h.Reset)
	mux.HandleFunc("/api/boards/clear", h.ClearAll)
	mux.HandleFunc("/api/categories/add", h.AddCategory)
	mux.HandleFunc("/api/items/add", h.AddItem)
	mux.HandleFunc("/api/items/bulk", h.BulkAdd)
	mux.HandleFunc("/api/items/status", h.RestatusSelected)
	mux.HandleFunc("/api/items/remove", h.RemoveSelected)
	mux.HandleFunc("/api/watchlist", h.Watchlist)
	mux.HandleFunc("/api/watchlist/order", h.SetWatchlistOrder)
	mux.HandleFunc("/api/watchlist/status", h.RestatusWatchlist)
	mux.HandleFunc("/api/export", h.Export)
	mux.HandleFunc("/api/import", h.Import)
	mux.HandleFunc("/api/events", h.EventsSSE)
}

// StateResponse is the full view rendered by a board client
type StateResponse struct {
	Categories []string              `json:"categories"`
	Boards     []models.Board        `json:"boards"`
	Watchlist  *models.WatchlistView `json:"watchlist"`
	Summary    models.Summary        `json:"summary"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps board errors to HTTP status codes
func writeError(w http.ResponseWriter, err error) {
	body := map[string]any{"error": err.Error()}
	status := http.StatusInternalServerError

	var schemaErr *board.SchemaError
	switch {
	case errors.As(err, &schemaErr):
		status = http.StatusBadRequest
		body["missing"] = schemaErr.Missing
	case errors.Is(err, board.ErrEmptyName),
		errors.Is(err, board.ErrEmptyCategory),
		errors.Is(err, board.ErrInvalidStatus),
		errors.Is(err, board.ErrIndexOutOfRange),
		errors.Is(err, board.ErrMalformedTable):
		status = http.StatusBadRequest
	case errors.Is(err, board.ErrUnknownCategory):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		logger.Error("Board request failed", "error", err)
	}
	writeJSON(w, status, body)
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// decodeBody decodes a JSON request body. An empty body leaves v as is
// when optional is set.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	logger.Warn("Failed to decode request", "path", r.URL.Path, "error", err)
	http.Error(w, err.Error(), http.StatusBadRequest)
	return false
}

func (h *APIHandlers) publish(typ, category string, out *models.Outcome) {
	if out != nil && !out.Changed {
		return
	}
	payload := map[string]any{}
	if out != nil {
		payload["count"] = out.Count
		if out.Message != "" {
			payload["message"] = out.Message
		}
	}
	h.pubsub.Publish(pubsub.NewEvent(typ, category, payload))
}

// GetState returns every board, the watchlist and the summary counters.
// ?hide=Drafted,Unavailable filters statuses out of the boards.
func (h *APIHandlers) GetState(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	state, err := h.dal.GetState()
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := h.dal.Watchlist()
	if err != nil {
		writeError(w, err)
		return
	}

	hidden := board.ParseStatusList(r.URL.Query().Get("hide"))
	boards := make([]models.Board, 0, len(state.Boards))
	for _, b := range state.Boards {
		boards = append(boards, board.FilterHidden(b, hidden))
	}

	writeJSON(w, http.StatusOK, StateResponse{
		Categories: state.Categories,
		Boards:     boards,
		Watchlist:  view,
		Summary:    board.Summarize(state.Boards),
	})
}

// GetBoard returns one board, ?category=RB&hide=Drafted
func (h *APIHandlers) GetBoard(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	b, err := h.dal.GetBoard(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, err)
		return
	}
	hidden := board.ParseStatusList(r.URL.Query().Get("hide"))
	writeJSON(w, http.StatusOK, board.FilterHidden(*b, hidden))
}

// AddCategory registers a new empty board
func (h *APIHandlers) AddCategory(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req, false) {
		return
	}

	out, err := h.dal.AddCategory(req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish(pubsub.EventCategoryAdd, board.NormalizeCategory(req.Name), out)
	writeJSON(w, http.StatusOK, out)
}

// AddItem appends one item to a board
func (h *APIHandlers) AddItem(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Category string `json:"category"`
		models.Item
	}
	if !decodeBody(w, r, &req, false) {
		return
	}

	logger.Debug("Adding item", "category", req.Category, "name", req.Name)
	out, err := h.dal.AddItem(req.Category, req.Item)
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish(pubsub.EventBoardUpdate, out.Board.Category, out)
	writeJSON(w, http.StatusOK, out)
}

// BulkAdd adds one item per "name|group|cycle|notes" line
func (h *APIHandlers) BulkAdd(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Category string `json:"category"`
		Text     string `json:"text"`
	}
	if !decodeBody(w, r, &req, false) {
		return
	}

	out, err := h.dal.BulkAddItems(req.Category, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish(pubsub.EventBoardUpdate, board.NormalizeCategory(req.Category), out)
	writeJSON(w, http.StatusOK, out)
}

type selectionRequest struct {
	Category string        `json:"category"`
	Indices  []int         `json:"indices"`
	Status   models.Status `json:"status"`
}

// RestatusSelected sets the status of the selected rows (0-based positions)
func (h *APIHandlers) RestatusSelected(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req selectionRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	out, err := h.dal.RestatusSelected(req.Category, req.Indices, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish(pubsub.EventBoardUpdate, board.NormalizeCategory(req.Category), out)
	writeJSON(w, http.StatusOK, out)
}

// RemoveSelected deletes the selected rows (0-based positions)
func (h *APIHandlers) RemoveSelected(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req selectionRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	out, err := h.dal.RemoveSelected(req.Category, req.Indices)
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish(pubsub.EventBoardUpdate, board.NormalizeCategory(req.Category), out)
	writeJSON(w, http.StatusOK, out)
}

// ReconcileEdit replaces a board with the rows of an edited grid
func (h *APIHandlers) ReconcileEdit(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Category string           `json:"category"`
		Rows     []map[string]any `json:"rows"`
	}
	if !decodeBody(w, r, &req, false) {
		return
	}

	rows := make([]board.Row, 0, len(req.Rows))
	for _, raw := range req.Rows {
		rows = append(rows, board.RowFromAny(raw))
	}

	out, err := h.dal.ReconcileEdit(req.Category, rows)
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish(pubsub.EventBoardUpdate, board.NormalizeCategory(req.Category), out)
	writeJSON(w, http.StatusOK, out)
}

// Reindex re-derives ranks for one board, or all boards without a category
func (h *APIHandlers) Reindex(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Category string `json:"category"`
	}
	if !decodeBody(w, r, &req, true) {
		return
	}

	out, err := h.dal.Reindex(req.Category)
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish(pubsub.EventBoardsReindex, board.NormalizeCategory(req.Category), out)
	writeJSON(w, http.StatusOK, out)
}

// Reset restores the default boards
func (h *APIHandlers) Reset(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	logger.Info("Resetting boards")
	if err := h.dal.Reset(); err != nil {
		writeError(w, err)
		return
	}
	h.publish(pubsub.EventBoardsReset, "", nil)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ClearAll empties every board
func (h *APIHandlers) ClearAll(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	logger.Info("Clearing all boards")
	if err := h.dal.ClearAll(); err != nil {
		writeError(w, err)
		return
	}
	h.publish(pubsub.EventBoardsClear, "", nil)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Watchlist returns the cross-board watchlist
func (h *APIHandlers) Watchlist(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	view, err := h.dal.Watchlist()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SetWatchlistOrder stores the custom name order of the watchlist
func (h *APIHandlers) SetWatchlistOrder(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Names []string `json:"names"`
	}
	if !decodeBody(w, r, &req, false) {
		return
	}

	out, err := h.dal.SetWatchlistOrder(req.Names)
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish(pubsub.EventWatchlistOrder, "", out)
	writeJSON(w, http.StatusOK, out)
}

// RestatusWatchlist sets the status of selected watchlist rows on their source boards
func (h *APIHandlers) RestatusWatchlist(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req selectionRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	out, err := h.dal.RestatusWatchlist(req.Indices, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish(pubsub.EventWatchlistRestate, "", out)
	writeJSON(w, http.StatusOK, out)
}

// Export downloads every board as CSV. 204 means there is nothing to export.
func (h *APIHandlers) Export(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	data, err := h.dal.Export()
	if err != nil {
		writeError(w, err)
		return
	}
	if len(data) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	filename := fmt.Sprintf("draft_board_%s.csv", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}

// Import replaces the boards named in a CSV request body
func (h *APIHandlers) Import(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBody))
	if err != nil {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	out, err := h.dal.Import(data)
	if err != nil {
		logger.Warn("Import rejected", "error", err)
		writeError(w, err)
		return
	}
	logger.Info("Imported boards", "rows", out.Count, "categories", out.Categories, "changed", out.Changed)
	if out.Changed {
		h.pubsub.Publish(pubsub.NewEvent(pubsub.EventBoardsImport, "", map[string]any{
			"count":      out.Count,
			"categories": out.Categories,
		}))
	}
	writeJSON(w, http.StatusOK, out)
}

// EventsSSE provides Server-Sent Events for realtime updates
func (h *APIHandlers) EventsSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	eventChan := h.pubsub.Subscribe()
	defer h.pubsub.Unsubscribe(eventChan)

	flush := func() {
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}

	fmt.Fprintf(w, "data: {\"type\":\"connected\"}\n\n")
	flush()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			data, _ := json.Marshal(event)
			fmt.Fprintf(w, "data: %s\n\n", data)
			flush()
		case <-r.Context().Done():
			logger.Debug("SSE client disconnected")
			return
		case <-keepalive.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flush()
		}
	}
}
