package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Billy-Davies-2/draft-board-planner/internal/board"
	"github.com/Billy-Davies-2/draft-board-planner/internal/dal"
	"github.com/Billy-Davies-2/draft-board-planner/internal/logger"
	"github.com/Billy-Davies-2/draft-board-planner/internal/models"
	"github.com/Billy-Davies-2/draft-board-planner/internal/pubsub"
)

// Server implements the gRPC BoardService
type Server struct {
	dal    dal.BoardDAL
	pubsub *pubsub.PubSub
}

// NewServer creates a new gRPC server
func NewServer(dal dal.BoardDAL, ps *pubsub.PubSub) *Server {
	return &Server{
		dal:    dal,
		pubsub: ps,
	}
}

func (s *Server) boardService() {}

// toStatus maps board errors to gRPC status codes
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var schemaErr *board.SchemaError
	switch {
	case errors.As(err, &schemaErr),
		errors.Is(err, board.ErrEmptyName),
		errors.Is(err, board.ErrEmptyCategory),
		errors.Is(err, board.ErrInvalidStatus),
		errors.Is(err, board.ErrIndexOutOfRange),
		errors.Is(err, board.ErrMalformedTable):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, board.ErrUnknownCategory):
		return status.Error(codes.NotFound, err.Error())
	}
	logger.Error("gRPC: Board request failed", "error", err)
	return status.Error(codes.Internal, err.Error())
}

func (s *Server) publish(typ, category string, out *models.Outcome) {
	if out != nil && !out.Changed {
		return
	}
	payload := map[string]any{}
	if out != nil {
		payload["count"] = out.Count
	}
	s.pubsub.Publish(pubsub.NewEvent(typ, category, payload))
}

// GetState returns every board with the watchlist.
// Request: {"hide": "Drafted,Unavailable"}
func (s *Server) GetState(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	logger.Debug("gRPC: Getting board state")
	var in struct {
		Hide string `json:"hide"`
	}
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	state, err := s.dal.GetState()
	if err != nil {
		return nil, toStatus(err)
	}
	view, err := s.dal.Watchlist()
	if err != nil {
		return nil, toStatus(err)
	}

	hidden := board.ParseStatusList(in.Hide)
	boards := make([]models.Board, 0, len(state.Boards))
	for _, b := range state.Boards {
		boards = append(boards, board.FilterHidden(b, hidden))
	}
	return encodeResponse(map[string]any{
		"categories": state.Categories,
		"boards":     boards,
		"watchlist":  view,
		"summary":    board.Summarize(state.Boards),
	})
}

// GetBoard returns one board. Request: {"category": "RB", "hide": "Drafted"}
func (s *Server) GetBoard(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		Category string `json:"category"`
		Hide     string `json:"hide"`
	}
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	b, err := s.dal.GetBoard(in.Category)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeResponse(board.FilterHidden(*b, board.ParseStatusList(in.Hide)))
}

// AddCategory registers an empty board. Request: {"name": "LB"}
func (s *Server) AddCategory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		Name string `json:"name"`
	}
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	logger.Info("gRPC: Adding category", "name", in.Name)
	out, err := s.dal.AddCategory(in.Name)
	if err != nil {
		return nil, toStatus(err)
	}
	s.publish(pubsub.EventCategoryAdd, board.NormalizeCategory(in.Name), out)
	return encodeResponse(out)
}

// AddItem appends one item. Request: {"category", "name", "group", "cycle", "notes"}
func (s *Server) AddItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		Category string `json:"category"`
		models.Item
	}
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	logger.Info("gRPC: Adding item", "category", in.Category, "name", in.Name)
	out, err := s.dal.AddItem(in.Category, in.Item)
	if err != nil {
		logger.Error("gRPC: Failed to add item", "error", err, "category", in.Category)
		return nil, toStatus(err)
	}
	s.publish(pubsub.EventBoardUpdate, out.Board.Category, out)
	return encodeResponse(out)
}

// BulkAddItems adds one item per line. Request: {"category", "text"}
func (s *Server) BulkAddItems(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		Category string `json:"category"`
		Text     string `json:"text"`
	}
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	out, err := s.dal.BulkAddItems(in.Category, in.Text)
	if err != nil {
		return nil, toStatus(err)
	}
	s.publish(pubsub.EventBoardUpdate, board.NormalizeCategory(in.Category), out)
	return encodeResponse(out)
}

type selection struct {
	Category string        `json:"category"`
	Indices  []int         `json:"indices"`
	Status   models.Status `json:"status"`
}

// RestatusSelected sets the status of rows by 0-based position.
// Request: {"category", "indices", "status"}
func (s *Server) RestatusSelected(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in selection
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	out, err := s.dal.RestatusSelected(in.Category, in.Indices, in.Status)
	if err != nil {
		return nil, toStatus(err)
	}
	s.publish(pubsub.EventBoardUpdate, board.NormalizeCategory(in.Category), out)
	return encodeResponse(out)
}

// RemoveSelected deletes rows by 0-based position. Request: {"category", "indices"}
func (s *Server) RemoveSelected(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in selection
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	out, err := s.dal.RemoveSelected(in.Category, in.Indices)
	if err != nil {
		return nil, toStatus(err)
	}
	s.publish(pubsub.EventBoardUpdate, board.NormalizeCategory(in.Category), out)
	return encodeResponse(out)
}

// ReconcileEdit replaces a board with edited rows. Request: {"category", "rows": [{...}]}
func (s *Server) ReconcileEdit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		Category string           `json:"category"`
		Rows     []map[string]any `json:"rows"`
	}
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	rows := make([]board.Row, 0, len(in.Rows))
	for _, raw := range in.Rows {
		rows = append(rows, board.RowFromAny(raw))
	}
	out, err := s.dal.ReconcileEdit(in.Category, rows)
	if err != nil {
		return nil, toStatus(err)
	}
	s.publish(pubsub.EventBoardUpdate, board.NormalizeCategory(in.Category), out)
	return encodeResponse(out)
}

// GetWatchlist returns the cross-board watchlist
func (s *Server) GetWatchlist(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	view, err := s.dal.Watchlist()
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeResponse(view)
}

// SetWatchlistOrder stores the custom watchlist order. Request: {"names": [...]}
func (s *Server) SetWatchlistOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		Names []string `json:"names"`
	}
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	out, err := s.dal.SetWatchlistOrder(in.Names)
	if err != nil {
		return nil, toStatus(err)
	}
	s.publish(pubsub.EventWatchlistOrder, "", out)
	return encodeResponse(out)
}

// RestatusWatchlist sets the status of watchlist rows. Request: {"indices", "status"}
func (s *Server) RestatusWatchlist(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in selection
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	out, err := s.dal.RestatusWatchlist(in.Indices, in.Status)
	if err != nil {
		return nil, toStatus(err)
	}
	s.publish(pubsub.EventWatchlistRestate, "", out)
	return encodeResponse(out)
}

// Export returns the boards as CSV text. Response: {"csv", "empty"}
func (s *Server) Export(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	data, err := s.dal.Export()
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeResponse(map[string]any{
		"csv":   string(data),
		"empty": len(data) == 0,
	})
}

// Import replaces the boards named in a CSV table. Request: {"csv"}
func (s *Server) Import(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		CSV string `json:"csv"`
	}
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	out, err := s.dal.Import([]byte(in.CSV))
	if err != nil {
		var schemaErr *board.SchemaError
		if errors.As(err, &schemaErr) {
			logger.Warn("gRPC: Import rejected", "missing", schemaErr.Missing)
		}
		return nil, toStatus(err)
	}
	if out.Changed {
		s.pubsub.Publish(pubsub.NewEvent(pubsub.EventBoardsImport, "", map[string]any{
			"count":      out.Count,
			"categories": out.Categories,
		}))
	}
	return encodeResponse(out)
}

// Reset restores the default boards
func (s *Server) Reset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	logger.Info("gRPC: Resetting boards")
	if err := s.dal.Reset(); err != nil {
		logger.Error("gRPC: Failed to reset boards", "error", err)
		return nil, toStatus(err)
	}
	s.publish(pubsub.EventBoardsReset, "", nil)
	return encodeResponse(map[string]any{"ok": true})
}

// ClearAll empties every board
func (s *Server) ClearAll(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	logger.Info("gRPC: Clearing boards")
	if err := s.dal.ClearAll(); err != nil {
		return nil, toStatus(err)
	}
	s.publish(pubsub.EventBoardsClear, "", nil)
	return encodeResponse(map[string]any{"ok": true})
}

// Reindex re-derives ranks. An empty category means every board.
func (s *Server) Reindex(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		Category string `json:"category"`
	}
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	out, err := s.dal.Reindex(in.Category)
	if err != nil {
		return nil, toStatus(err)
	}
	s.publish(pubsub.EventBoardsReindex, board.NormalizeCategory(in.Category), out)
	return encodeResponse(out)
}

// StreamEvents streams board events to clients
func (s *Server) StreamEvents(req *structpb.Struct, stream EventStream) error {
	logger.Info("gRPC: Client connected to event stream")
	eventChan := s.pubsub.Subscribe()
	defer s.pubsub.Unsubscribe(eventChan)

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return nil
			}
			msg, err := encodeResponse(event)
			if err != nil {
				return err
			}
			if err := stream.Send(msg); err != nil {
				logger.Error("gRPC: Failed to send event", "error", err)
				return err
			}
		case <-stream.Context().Done():
			logger.Info("gRPC: Client disconnected from event stream")
			return nil
		}
	}
}
