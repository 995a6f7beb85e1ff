package courier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aprendecomigo-edu/courier/core"
	"github.com/aprendecomigo-edu/courier/credential"
	"github.com/aprendecomigo-edu/courier/purchase"
)

type wsServer struct {
	ts    *httptest.Server
	conns chan *websocket.Conn
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()
	srv := &wsServer{conns: make(chan *websocket.Conn, 8)}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv.ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		srv.conns <- conn
	}))
	t.Cleanup(srv.ts.Close)
	return srv
}

func (s *wsServer) endpointTemplate() string {
	return "ws" + strings.TrimPrefix(s.ts.URL, "http") + "/?token=%s"
}

func (s *wsServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-s.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for client connection")
		return nil
	}
}

func (s *wsServer) readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err, "server read failed")
	var msg map[string]any
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

type recordingPresenter struct {
	mu     sync.Mutex
	shown  []core.Alert
	fgHits int
}

func (p *recordingPresenter) RequestPermission(context.Context) (bool, error) { return true, nil }

func (p *recordingPresenter) Show(a core.Alert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shown = append(p.shown, a)
	return nil
}

func (p *recordingPresenter) Dismiss(string) error { return nil }

func (p *recordingPresenter) Foreground() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fgHits++
	return nil
}

func (p *recordingPresenter) snapshot() []core.Alert {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.Alert, len(p.shown))
	copy(out, p.shown)
	return out
}

func newTestCourier(t *testing.T, srv *wsServer, optFns ...func(o *Options)) *Courier {
	t.Helper()
	creds := credential.NewInMemoryStore()
	require.NoError(t, creds.Set(core.CredentialKeyAuthToken, "tok-123"))
	cfg := core.ChannelConfig{
		EndpointTemplate:  srv.endpointTemplate(),
		PrincipalID:       "user-1",
		SubscriptionTypes: []string{"balance_update", "request_approved"},
		BaseBackoff:       10 * time.Millisecond,
	}
	all := append([]func(o *Options){func(o *Options) { o.Credentials = creds }}, optFns...)
	c := New(cfg, all...)
	t.Cleanup(c.Close)
	return c
}

func notifyFrame(t *testing.T, frameType, id, principalID, priority string) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"type":    frameType,
		"user_id": principalID,
		"data": map[string]any{
			"id":       id,
			"title":    "Balance updated",
			"message":  "Your balance changed",
			"priority": priority,
		},
	})
	require.NoError(t, err)
	return data
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestCourierStoresInboundNotifications(t *testing.T) {
	srv := newWSServer(t)
	c := newTestCourier(t, srv)
	c.Start(context.Background())

	conn := srv.accept(t)
	sub := srv.readJSON(t, conn)
	assert.Equal(t, "subscribe", sub["type"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, notifyFrame(t, "balance_update", "n1", "user-1", "low")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, notifyFrame(t, "budget_alert", "n2", "user-1", "high")))

	waitFor(t, func() bool { return c.Notifications().Len() == 2 }, "notifications not stored")
	list := c.Notifications().List()
	assert.Equal(t, "n2", list[0].ID)
	assert.Equal(t, "n1", list[1].ID)
	assert.Equal(t, 2, c.Notifications().UnreadCount())
}

func TestCourierDropsForeignPrincipalFrames(t *testing.T) {
	srv := newWSServer(t)
	c := newTestCourier(t, srv)
	c.Start(context.Background())

	conn := srv.accept(t)
	srv.readJSON(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, notifyFrame(t, "balance_update", "foreign", "user-2", "low")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, notifyFrame(t, "balance_update", "mine", "user-1", "low")))

	waitFor(t, func() bool { return c.Notifications().Len() == 1 }, "notification not stored")
	_, ok := c.Notifications().Get("foreign")
	assert.False(t, ok)
}

func TestCourierPresentsAlerts(t *testing.T) {
	srv := newWSServer(t)
	presenter := &recordingPresenter{}
	c := newTestCourier(t, srv, func(o *Options) { o.Presenter = presenter })
	c.Start(context.Background())

	conn := srv.accept(t)
	srv.readJSON(t, conn)

	waitFor(t, func() bool { return c.Alerts().PermissionGranted() }, "permission not granted")
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, notifyFrame(t, "budget_alert", "n1", "user-1", "urgent")))

	waitFor(t, func() bool { return len(presenter.snapshot()) == 1 }, "alert not shown")
	shown := presenter.snapshot()[0]
	assert.Equal(t, "n1", shown.ID)
	assert.Equal(t, "Balance updated", shown.Title)
	assert.True(t, shown.RequiresInteraction)
}

func TestCourierAcksApprovalDecisions(t *testing.T) {
	srv := newWSServer(t)
	c := newTestCourier(t, srv)
	c.Start(context.Background())

	conn := srv.accept(t)
	srv.readJSON(t, conn)

	frame, err := json.Marshal(map[string]any{
		"type":    "request_approved",
		"user_id": "user-1",
		"data":    map[string]any{"id": "n1", "request_id": "req-7"},
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))

	ack := srv.readJSON(t, conn)
	assert.Equal(t, "purchase_approval_ack", ack["type"])
	data, ok := ack["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "req-7", data["request_id"])
	assert.Equal(t, "received", data["action"])
	waitFor(t, func() bool { return c.Notifications().Len() == 1 }, "approval not stored")
}

func TestCourierMarkReadSendsAck(t *testing.T) {
	srv := newWSServer(t)
	c := newTestCourier(t, srv)
	c.Start(context.Background())

	conn := srv.accept(t)
	srv.readJSON(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, notifyFrame(t, "balance_update", "n1", "user-1", "low")))
	waitFor(t, func() bool { return c.Notifications().Len() == 1 }, "notification not stored")

	require.True(t, c.MarkRead("n1"))
	assert.Equal(t, 0, c.Notifications().UnreadCount())

	ack := srv.readJSON(t, conn)
	assert.Equal(t, "ack", ack["type"])
	data, ok := ack["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "n1", data["reference_id"])
	assert.Equal(t, "read", data["action"])

	assert.False(t, c.MarkRead("missing"))
}

func TestCourierDuplicateNotificationsIgnored(t *testing.T) {
	srv := newWSServer(t)
	presenter := &recordingPresenter{}
	c := newTestCourier(t, srv, func(o *Options) { o.Presenter = presenter })
	c.Start(context.Background())

	conn := srv.accept(t)
	srv.readJSON(t, conn)
	waitFor(t, func() bool { return c.Alerts().PermissionGranted() }, "permission not granted")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, notifyFrame(t, "balance_update", "n1", "user-1", "low")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, notifyFrame(t, "balance_update", "n1", "user-1", "low")))

	waitFor(t, func() bool { return c.Notifications().Len() == 1 }, "notification not stored")
	// A second matching frame never reaches the presenter.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, presenter.snapshot(), 1)
}

func TestCourierTypedHandlers(t *testing.T) {
	srv := newWSServer(t)
	c := newTestCourier(t, srv)

	var mu sync.Mutex
	var seen []string
	c.On(core.TypeBalanceUpdate, func(f core.Frame) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, f.DataString("id"))
	})

	c.Start(context.Background())
	conn := srv.accept(t)
	srv.readJSON(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, notifyFrame(t, "balance_update", "n1", "user-1", "low")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, notifyFrame(t, "budget_alert", "n2", "user-1", "low")))

	waitFor(t, func() bool { return c.Notifications().Len() == 2 }, "notifications not stored")
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"n1"}, seen)
}

func TestCourierSetAuthTokenEnablesConnect(t *testing.T) {
	srv := newWSServer(t)
	creds := credential.NewInMemoryStore()
	cfg := core.ChannelConfig{
		EndpointTemplate: srv.endpointTemplate(),
		PrincipalID:      "user-1",
	}
	c := New(cfg, func(o *Options) { o.Credentials = creds })
	t.Cleanup(c.Close)

	c.Start(context.Background())
	assert.Equal(t, core.StatusDisconnected, c.Session().State().Status)

	require.NoError(t, c.SetAuthToken("tok-456"))
	c.Session().Connect()
	srv.accept(t)
	waitFor(t, func() bool { return c.Session().State().Status == core.StatusConnected }, "session did not connect")
}

func TestCourierPurchaseControllerWired(t *testing.T) {
	srv := newWSServer(t)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(core.PurchaseResponse{Success: true, ClientSecret: "pi_1_secret"})
	}))
	t.Cleanup(api.Close)

	c := newTestCourier(t, srv, func(o *Options) {
		o.PurchaseAPI = purchase.NewClient(api.URL)
	})

	ctrl := c.Purchases()
	require.NotNil(t, ctrl)
	ctrl.SelectPlan(core.Plan{ID: "plan-8h", Name: "8 Hours"})
	ctrl.UpdateStudentInfo("John Doe", "john@example.com")
	require.NoError(t, ctrl.InitiatePurchase(context.Background()))
	assert.Equal(t, purchase.StepPayment, ctrl.State().Step)
}

func TestCourierWithoutPurchaseAPI(t *testing.T) {
	srv := newWSServer(t)
	c := newTestCourier(t, srv)
	assert.Nil(t, c.Purchases())
	assert.Nil(t, c.Alerts())
}
