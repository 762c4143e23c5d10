package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/airsynth/internal/instrument"
)

// HUDInterval paces HUD pushes at roughly 30 fps.
const HUDInterval = 33 * time.Millisecond

// scopePoints is how many oscilloscope samples go into each HUD message.
const scopePoints = 256

// spectrumBins is how many frequency bins go into each HUD message.
const spectrumBins = 128

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// HUDSource supplies the display state pushed to clients.
type HUDSource interface {
	HUD() instrument.HUD
	Scope() []float32
	Spectrum() []float64
}

type hudMessage struct {
	HUD       instrument.HUD `json:"hud"`
	Scope     []float32      `json:"scope"`
	Spectrum  []float64      `json:"spectrum"`
	Timestamp int64          `json:"timestamp"`
}

// HUDHandler broadcasts the HUD, a decimated oscilloscope trace and the
// magnitude spectrum to every connected WebSocket client.
type HUDHandler struct {
	source   HUDSource
	interval time.Duration
	clients  map[*websocket.Conn]bool
	stop     chan struct{}
	once     sync.Once
	mu       sync.RWMutex
}

// NewHUDHandler creates a HUDHandler and starts its broadcast loop.
func NewHUDHandler(source HUDSource, interval time.Duration) *HUDHandler {
	if interval <= 0 {
		interval = HUDInterval
	}
	h := &HUDHandler{
		source:   source,
		interval: interval,
		clients:  make(map[*websocket.Conn]bool),
		stop:     make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *HUDHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer h.remove(conn)

	// Keep the connection alive by draining client messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (h *HUDHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops the broadcast loop.
func (h *HUDHandler) Close() {
	h.once.Do(func() { close(h.stop) })
}

func (h *HUDHandler) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

func (h *HUDHandler) broadcast() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
		}

		if h.Clients() == 0 {
			continue
		}

		msg, err := json.Marshal(hudMessage{
			HUD:       h.source.HUD(),
			Scope:     decimate(h.source.Scope(), scopePoints),
			Spectrum:  decimate(h.source.Spectrum(), spectrumBins),
			Timestamp: time.Now().UnixMilli(),
		})
		if err != nil {
			log.Printf("hud encode error: %v", err)
			continue
		}

		h.mu.RLock()
		conns := make([]*websocket.Conn, 0, len(h.clients))
		for conn := range h.clients {
			conns = append(conns, conn)
		}
		h.mu.RUnlock()

		for _, conn := range conns {
			conn.SetWriteDeadline(time.Now().Add(time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(conn)
				conn.Close()
			}
		}
	}
}

// decimate picks n evenly spaced samples from buf.
func decimate[T float32 | float64](buf []T, n int) []T {
	if len(buf) <= n {
		return buf
	}
	out := make([]T, n)
	step := float64(len(buf)) / float64(n)
	for i := range out {
		out[i] = buf[int(float64(i)*step)]
	}
	return out
}
