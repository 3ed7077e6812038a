package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans submission updates out to the connections watching them
type Hub struct {
	// submission ID -> connections
	subscribers map[string]map[*Connection]struct{}

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *envelope
	done       chan struct{}
	stopped    chan struct{}
	closeOnce  sync.Once

	logger *zap.Logger
}

// Connection represents a WebSocket connection
type Connection struct {
	SubmissionID string
	Send         chan []byte
	Hub          *Hub
}

// envelope is one unit of work for the run loop. A nil conn targets every
// subscriber of the submission; close ends those subscriptions after data
// is queued.
type envelope struct {
	submissionID string
	conn         *Connection
	data         []byte
	close        bool
}

// NewHub creates a hub and starts its run loop
func NewHub(logger *zap.Logger) *Hub {
	h := &Hub{
		subscribers: make(map[string]map[*Connection]struct{}),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan *envelope, 256),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
		logger:      logger.Named("ws"),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.stopped)
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.subscribers[conn.SubmissionID] == nil {
				h.subscribers[conn.SubmissionID] = make(map[*Connection]struct{})
			}
			h.subscribers[conn.SubmissionID][conn] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("subscriber connected", zap.String("submission", conn.SubmissionID))

		case conn := <-h.unregister:
			h.mu.Lock()
			h.remove(conn)
			h.mu.Unlock()

		case env := <-h.broadcast:
			h.mu.Lock()
			h.dispatch(env)
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for _, conns := range h.subscribers {
				for conn := range conns {
					h.remove(conn)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// dispatch runs with mu held
func (h *Hub) dispatch(env *envelope) {
	conns := h.subscribers[env.submissionID]
	targets := conns
	if env.conn != nil {
		if _, ok := conns[env.conn]; !ok {
			return
		}
		targets = map[*Connection]struct{}{env.conn: {}}
	}

	for conn := range targets {
		if env.data != nil {
			select {
			case conn.Send <- env.data:
			default:
				// Drop message if buffer full
			}
		}
		if env.close {
			h.remove(conn)
		}
	}
}

// remove runs with mu held
func (h *Hub) remove(conn *Connection) {
	conns, ok := h.subscribers[conn.SubmissionID]
	if !ok {
		return
	}
	if _, ok := conns[conn]; !ok {
		return
	}
	delete(conns, conn)
	close(conn.Send)
	if len(conns) == 0 {
		delete(h.subscribers, conn.SubmissionID)
	}
	h.logger.Debug("subscriber disconnected", zap.String("submission", conn.SubmissionID))
}

func (h *Hub) send(env *envelope) {
	select {
	case h.broadcast <- env:
	case <-h.done:
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// BroadcastSubmission sends a message to everyone watching a submission
// (implements service.Broadcaster)
func (h *Hub) BroadcastSubmission(submissionID string, msgType string, payload interface{}) {
	data, err := encode(msgType, payload)
	if err != nil {
		h.logger.Error("failed to encode message", zap.String("type", msgType), zap.Error(err))
		return
	}
	h.send(&envelope{submissionID: submissionID, data: data})
}

// CloseSubmission ends every subscription to a submission
// (implements service.Broadcaster)
func (h *Hub) CloseSubmission(submissionID string) {
	h.send(&envelope{submissionID: submissionID, close: true})
}

// SendFinal delivers a last message to one connection and closes it, unless
// the connection was already closed by CloseSubmission
func (h *Hub) SendFinal(conn *Connection, msgType string, payload interface{}) {
	data, err := encode(msgType, payload)
	if err != nil {
		h.logger.Error("failed to encode message", zap.String("type", msgType), zap.Error(err))
		return
	}
	h.send(&envelope{submissionID: conn.SubmissionID, conn: conn, data: data, close: true})
}

// Subscribers returns how many connections watch a submission
func (h *Hub) Subscribers(submissionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[submissionID])
}

// Close stops the run loop and closes every connection's send channel
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
	<-h.stopped
}

func encode(msgType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Message{Type: MessageType(msgType), Payload: data})
}
