package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"auditapi/internal/model"
	"auditapi/internal/service"
	"auditapi/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// SubmissionReader looks up submissions owned by a session
type SubmissionReader interface {
	GetSubmission(ctx context.Context, sessionID, id string) (*model.Submission, error)
}

// Handler handles WebSocket connections
type Handler struct {
	hub         *Hub
	submissions SubmissionReader
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// NewHandler creates a new WebSocket handler. Browser upgrades are accepted
// only from allowedOrigins.
func NewHandler(hub *Hub, submissions SubmissionReader, allowedOrigins []string, logger *zap.Logger) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		hub:         hub,
		submissions: submissions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
		logger: logger.Named("ws"),
	}
}

// AuditWS handles GET /v1/ws/audits/{id}
func (h *Handler) AuditWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sessionID := middleware.GetSessionID(r.Context())

	if _, err := h.submissions.GetSubmission(r.Context(), sessionID, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.Error(w, "submission not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load submission", zap.String("submission", id), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade error", zap.Error(err))
		return
	}

	conn := &Connection{
		SubmissionID: id,
		Send:         make(chan []byte, sendBuffer),
		Hub:          h.hub,
	}
	h.hub.Register(conn)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)

	// The submission may have finished before the subscription existed
	sub, err := h.submissions.GetSubmission(r.Context(), sessionID, id)
	if err != nil {
		h.logger.Warn("failed to reload submission", zap.String("submission", id), zap.Error(err))
		return
	}
	switch sub.Status {
	case model.SubmissionReady:
		h.hub.SendFinal(conn, service.MsgAuditReady, sub)
	case model.SubmissionFailed:
		h.hub.SendFinal(conn, service.MsgAuditFailed, sub)
	}
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := wsConn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				h.logger.Debug("WebSocket error", zap.Error(err))
			}
			break
		}
		// Clients only listen
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
