package observe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"nps/internal/model"
)

// liveSnapshot is the JSON shape broadcast to every connected client:
// the same cell-name/value data print.go renders, plus the step counter.
type liveSnapshot struct {
	Step    int                `json:"step"`
	Vars    map[string]float64 `json:"vars"`
	Enzymes map[string]float64 `json:"enzymes"`
}

// LiveBroadcaster upgrades incoming HTTP connections to websockets and
// fans out one JSON snapshot per completed step to every client. It never
// blocks the simulation: a slow or gone client only drops its own
// messages, never the run loop.
type LiveBroadcaster struct {
	upgrader websocket.Upgrader
	server   *http.Server

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte

	group  *errgroup.Group
	cancel context.CancelFunc
}

// NewLiveBroadcaster starts an HTTP server on addr that upgrades every
// request to a websocket and adds it to the broadcast set.
func NewLiveBroadcaster(addr string) *LiveBroadcaster {
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	b := &LiveBroadcaster{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]chan []byte),
		group:   group,
		cancel:  cancel,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", b.handleUpgrade)
	b.server = &http.Server{Addr: addr, Handler: mux}

	group.Go(func() error {
		err := b.server.ListenAndServe()
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return b.server.Shutdown(shutdownCtx)
	})

	return b
}

func (b *LiveBroadcaster) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	outbox := make(chan []byte, 8)
	b.mu.Lock()
	b.clients[conn] = outbox
	b.mu.Unlock()

	go func() {
		defer func() {
			b.mu.Lock()
			delete(b.clients, conn)
			b.mu.Unlock()
			conn.Close()
		}()
		for msg := range outbox {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()
}

// Broadcast encodes one step's state and fans it out to every connected
// client, dropping the message for any client whose outbox is full.
func (b *LiveBroadcaster) Broadcast(sys *model.System, step int) error {
	snap := liveSnapshot{
		Step:    step,
		Vars:    make(map[string]float64, len(sys.AllVars)),
		Enzymes: make(map[string]float64, len(sys.AllEnzymes)),
	}
	for _, c := range sys.AllVars {
		snap.Vars[c.Name] = c.Value
	}
	for _, c := range sys.AllEnzymes {
		snap.Enzymes[c.Name] = c.Value
	}

	msg, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("live broadcaster: encoding snapshot: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, outbox := range b.clients {
		select {
		case outbox <- msg:
		default:
		}
	}
	return nil
}

// Close stops the HTTP server and waits for it to shut down, then closes
// every client's outbox and connection. It does not wait for the client
// writer goroutines to exit.
func (b *LiveBroadcaster) Close() error {
	b.cancel()
	err := b.group.Wait()

	b.mu.Lock()
	for conn, outbox := range b.clients {
		close(outbox)
		conn.Close()
	}
	b.clients = nil
	b.mu.Unlock()

	return err
}
