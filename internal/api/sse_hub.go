package api

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"causelens/app"
	"causelens/domain/core"
	"causelens/domain/rd"
	"causelens/internal"

	"github.com/gin-gonic/gin"
)

// sseClient is one connected event stream
type sseClient struct {
	key     string
	channel chan ChartEvent
}

// ChartEvent is pushed to subscribers whenever a chart publishes a new plot
type ChartEvent struct {
	ChartKey  string    `json:"chart_key"`
	EventType string    `json:"event_type"`
	Seq       int64     `json:"seq"`
	Plot      *rd.Plot  `json:"plot"`
	Timestamp time.Time `json:"timestamp"`
}

// SSEHub fans committed plots out to Server-Sent Events subscribers
type SSEHub struct {
	clients    map[string]map[chan ChartEvent]bool
	clientsMu  sync.RWMutex
	register   chan sseClient
	unregister chan sseClient
	broadcast  chan ChartEvent
	done       chan struct{}
	closeOnce  sync.Once
	keepAlive  time.Duration
	logger     *internal.Logger
}

// NewSSEHub creates a hub and starts its dispatch loop
func NewSSEHub() *SSEHub {
	hub := &SSEHub{
		clients:    make(map[string]map[chan ChartEvent]bool),
		register:   make(chan sseClient, 10),
		unregister: make(chan sseClient, 10),
		broadcast:  make(chan ChartEvent, 100),
		done:       make(chan struct{}),
		keepAlive:  30 * time.Second,
		logger:     internal.DefaultLogger.With("SSE"),
	}

	go hub.run()
	return hub
}

func (h *SSEHub) run() {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.clientsMu.Lock()
			if h.clients[client.key] == nil {
				h.clients[client.key] = make(map[chan ChartEvent]bool)
			}
			h.clients[client.key][client.channel] = true
			h.logger.Debug("client registered for %s (total clients: %d)", client.key, len(h.clients[client.key]))
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if clients, exists := h.clients[client.key]; exists {
				delete(clients, client.channel)
				if len(clients) == 0 {
					delete(h.clients, client.key)
				}
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for clientChan := range h.clients[event.ChartKey] {
				select {
				case clientChan <- event:
				default:
					h.logger.Warn("client channel full for %s, skipping seq %d", event.ChartKey, event.Seq)
				}
			}
			h.clientsMu.RUnlock()
		}
	}
}

// PublishPlot implements app.PlotPublisher
func (h *SSEHub) PublishPlot(key string, seq int64, plot *rd.Plot) {
	event := ChartEvent{
		ChartKey:  key,
		EventType: "plot",
		Seq:       seq,
		Plot:      plot,
		Timestamp: time.Now().UTC(),
	}
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping %s seq %d", key, seq)
	}
}

// Close stops the dispatch loop
func (h *SSEHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// HandleSSE streams plot events of one chart instance
func (h *SSEHub) HandleSSE(c *gin.Context) {
	key := app.ChartKey("", core.ChartID(c.Param("chart_id")))

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	clientChan := make(chan ChartEvent, 10)
	select {
	case h.register <- sseClient{key: key, channel: clientChan}:
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event stream registration failed"})
		return
	}
	defer func() {
		select {
		case h.unregister <- sseClient{key: key, channel: clientChan}:
		case <-h.done:
		}
	}()

	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event := <-clientChan:
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to marshal event: %v", err)
				return true
			}
			c.SSEvent(event.EventType, string(payload))
			return true

		case <-time.After(h.keepAlive):
			c.SSEvent("ping", `{"status":"alive","timestamp":"`+time.Now().UTC().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false

		case <-h.done:
			return false
		}
	})
}

// ClientCount returns the number of subscribers of a chart key
func (h *SSEHub) ClientCount(key string) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients[key])
}
