package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"auditapi/internal/model"
	"auditapi/internal/service"
	"auditapi/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeSubmissions struct {
	mu   sync.Mutex
	subs map[string]*model.Submission
}

func (f *fakeSubmissions) set(sub *model.Submission) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *sub
	f.subs[sub.ID] = &cp
}

func (f *fakeSubmissions) GetSubmission(_ context.Context, sessionID, id string) (*model.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subs[id]
	if !ok || sub.SessionID != sessionID {
		return nil, service.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func newWSServer(t *testing.T, hub *Hub, subs SubmissionReader) *httptest.Server {
	t.Helper()
	h := NewHandler(hub, subs, []string{"https://audit.test"}, zaptest.NewLogger(t))

	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithSessionID(r.Context(), r.Header.Get("X-Test-Session"))))
		})
	})
	r.HandleFunc("/v1/ws/audits/{id}", h.AuditWS).Methods("GET")
	return httptest.NewServer(r)
}

func dial(t *testing.T, srv *httptest.Server, id, session string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws/audits/" + id
	header := http.Header{}
	header.Set("X-Test-Session", session)
	return websocket.DefaultDialer.Dial(url, header)
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestAuditWS_ReceivesReadyMessage(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t))
	defer hub.Close()
	subs := &fakeSubmissions{subs: map[string]*model.Submission{}}
	subs.set(&model.Submission{ID: "sub-1", SessionID: "sess", Status: model.SubmissionGenerating})

	srv := newWSServer(t, hub, subs)
	defer srv.Close()

	conn, _, err := dial(t, srv, "sub-1", "sess")
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Subscribers("sub-1") == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.BroadcastSubmission("sub-1", service.MsgAuditReady, map[string]string{"id": "sub-1", "status": "ready"})
	hub.CloseSubmission("sub-1")

	msg := readMessage(t, conn)
	assert.Equal(t, MessageType(service.MsgAuditReady), msg.Type)
	assert.JSONEq(t, `{"id":"sub-1","status":"ready"}`, string(msg.Payload))

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestAuditWS_AlreadyFinished(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t))
	defer hub.Close()
	subs := &fakeSubmissions{subs: map[string]*model.Submission{}}
	subs.set(&model.Submission{ID: "sub-2", SessionID: "sess", Status: model.SubmissionFailed, Error: "Could not generate audit report"})

	srv := newWSServer(t, hub, subs)
	defer srv.Close()

	conn, _, err := dial(t, srv, "sub-2", "sess")
	require.NoError(t, err)
	defer conn.Close()

	msg := readMessage(t, conn)
	assert.Equal(t, MessageType(service.MsgAuditFailed), msg.Type)
	assert.Contains(t, string(msg.Payload), "Could not generate audit report")
}

func TestAuditWS_UnknownSubmission(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t))
	defer hub.Close()
	subs := &fakeSubmissions{subs: map[string]*model.Submission{}}
	subs.set(&model.Submission{ID: "sub-3", SessionID: "owner", Status: model.SubmissionGenerating})

	srv := newWSServer(t, hub, subs)
	defer srv.Close()

	for _, tc := range []struct{ id, session string }{{"missing", "owner"}, {"sub-3", "intruder"}} {
		_, resp, err := dial(t, srv, tc.id, tc.session)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	}
}

func TestAuditWS_RejectsForeignOrigin(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t))
	defer hub.Close()
	subs := &fakeSubmissions{subs: map[string]*model.Submission{}}
	subs.set(&model.Submission{ID: "sub-4", SessionID: "sess", Status: model.SubmissionGenerating})

	srv := newWSServer(t, hub, subs)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws/audits/sub-4"
	header := http.Header{}
	header.Set("X-Test-Session", "sess")
	header.Set("Origin", "https://evil.test")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}
