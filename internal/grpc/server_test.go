package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/Billy-Davies-2/draft-board-planner/internal/dal"
	"github.com/Billy-Davies-2/draft-board-planner/internal/models"
	"github.com/Billy-Davies-2/draft-board-planner/internal/pubsub"
)

func startServer(t *testing.T) (*Client, *pubsub.PubSub) {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	ps := pubsub.New()
	srv := grpc.NewServer()
	RegisterBoardServiceServer(srv, NewServer(dal.NewMemoryDAL(nil), ps))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("grpc.NewClient() failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewClient(conn), ps
}

func TestAddItemAndGetBoard(t *testing.T) {
	client, _ := startServer(t)
	ctx := context.Background()

	var out models.Outcome
	err := client.Call(ctx, "AddItem", map[string]any{
		"category": "te",
		"name":     "Sam LaPorta",
		"group":    "DET",
		"cycle":    5,
	}, &out)
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if !out.Changed || out.Count != 1 {
		t.Errorf("unexpected outcome: %+v", out)
	}

	var b models.Board
	if err := client.Call(ctx, "GetBoard", map[string]any{"category": "TE"}, &b); err != nil {
		t.Fatalf("GetBoard failed: %v", err)
	}
	if len(b.Items) != 1 || b.Items[0].Name != "Sam LaPorta" || b.Items[0].Cycle == nil || *b.Items[0].Cycle != 5 {
		t.Errorf("unexpected board: %+v", b)
	}
}

func TestErrorCodes(t *testing.T) {
	client, _ := startServer(t)
	ctx := context.Background()

	tests := []struct {
		method string
		req    map[string]any
		want   codes.Code
	}{
		{"AddItem", map[string]any{"category": "QB", "name": ""}, codes.InvalidArgument},
		{"AddItem", map[string]any{"category": " ", "name": "Ghost"}, codes.InvalidArgument},
		{"ReconcileEdit", map[string]any{"rows": []any{map[string]any{"name": "Ghost"}}}, codes.InvalidArgument},
		{"AddCategory", map[string]any{"name": " "}, codes.InvalidArgument},
		{"RestatusSelected", map[string]any{"category": "RB", "indices": []any{0}, "status": "Gone"}, codes.InvalidArgument},
		{"RemoveSelected", map[string]any{"category": "RB", "indices": []any{3}}, codes.InvalidArgument},
		{"RemoveSelected", map[string]any{"category": "LB", "indices": []any{0}}, codes.NotFound},
		{"GetBoard", map[string]any{"category": "LB"}, codes.NotFound},
		{"Import", map[string]any{"csv": "name\nx\n"}, codes.InvalidArgument},
		{"RemoveSelected", map[string]any{"category": "RB", "indices": "zero"}, codes.InvalidArgument},
	}

	for _, tt := range tests {
		err := client.Call(ctx, tt.method, tt.req, nil)
		if got := status.Code(err); got != tt.want {
			t.Errorf("%s(%v) code = %v, want %v (err: %v)", tt.method, tt.req, got, tt.want, err)
		}
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	client, _ := startServer(t)
	ctx := context.Background()

	var exported struct {
		CSV   string `json:"csv"`
		Empty bool   `json:"empty"`
	}
	if err := client.Call(ctx, "Export", nil, &exported); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if exported.Empty || exported.CSV == "" {
		t.Fatalf("expected the sample board to export, got %+v", exported)
	}

	if err := client.Call(ctx, "ClearAll", nil, nil); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	var empty struct {
		Empty bool `json:"empty"`
	}
	if err := client.Call(ctx, "Export", nil, &empty); err != nil || !empty.Empty {
		t.Fatalf("expected empty export after clear, got %+v (err: %v)", empty, err)
	}

	var out models.Outcome
	if err := client.Call(ctx, "Import", map[string]any{"csv": exported.CSV}, &out); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if out.Count != 3 {
		t.Errorf("expected 3 imported rows, got %d", out.Count)
	}
}

func TestWatchlistOverGRPC(t *testing.T) {
	client, _ := startServer(t)
	ctx := context.Background()

	if err := client.Call(ctx, "RestatusSelected", map[string]any{
		"category": "RB", "indices": []any{1, 2}, "status": "watch",
	}, nil); err != nil {
		t.Fatalf("RestatusSelected failed: %v", err)
	}
	if err := client.Call(ctx, "SetWatchlistOrder", map[string]any{
		"names": []any{"Bijan Robinson"},
	}, nil); err != nil {
		t.Fatalf("SetWatchlistOrder failed: %v", err)
	}

	var view models.WatchlistView
	if err := client.Call(ctx, "GetWatchlist", nil, &view); err != nil {
		t.Fatalf("GetWatchlist failed: %v", err)
	}
	if len(view.Items) != 2 || view.Items[0].Name != "Bijan Robinson" || view.Items[1].Name != "Breece Hall" {
		t.Errorf("unexpected watchlist: %+v", view.Items)
	}
	if view.Items[0].SourceRank != 3 || view.Items[0].Category != "RB" {
		t.Errorf("watch item lost its source: %+v", view.Items[0])
	}
}

func TestStreamEvents(t *testing.T) {
	client, ps := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	recv, err := client.StreamEvents(ctx)
	if err != nil {
		t.Fatalf("StreamEvents failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for ps.SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := client.Call(ctx, "Reset", nil, nil); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	var ev pubsub.Event
	if err := recv(&ev); err != nil {
		t.Fatalf("recv failed: %v", err)
	}
	if ev.Type != pubsub.EventBoardsReset {
		t.Errorf("expected %s, got %s", pubsub.EventBoardsReset, ev.Type)
	}
}
