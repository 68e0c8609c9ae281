package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DannyMang/theta/internal/domain/tab"
	"github.com/DannyMang/theta/internal/infrastructure/monitoring"
)

func setupHub(t *testing.T) (*Hub, *tab.Manager, *monitoring.Metrics, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	metrics := monitoring.NewMetrics()
	tabs := tab.NewManager()
	hub := NewHub(tabs, nil).WithMetrics(metrics)

	router := gin.New()
	router.GET("/stream", hub.HandleConnection)
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	return hub, tabs, metrics, "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestSnapshotOnConnect(t *testing.T) {
	_, tabs, _, url := setupHub(t)
	tabID := tabs.CreateTab("https://example.com", "Example")

	conn := dial(t, url)
	msg := readMessage(t, conn)

	assert.Equal(t, TypeSnapshot, msg.Type)
	assert.Equal(t, tabID, msg.ActiveTabID)
	require.Len(t, msg.Tabs, 1)
	assert.Equal(t, "https://example.com", msg.Tabs[0].URL)
}

func TestTabEventsAreStreamed(t *testing.T) {
	_, tabs, _, url := setupHub(t)
	conn := dial(t, url)
	readMessage(t, conn)

	tabID := tabs.CreateTab("https://a.example", "")
	msg := readMessage(t, conn)
	assert.Equal(t, string(tab.EventCreated), msg.Type)
	assert.Equal(t, tabID, msg.TabID)
	require.NotNil(t, msg.Tab)
	assert.Equal(t, tab.DefaultTitle, msg.Tab.Title)

	require.True(t, tabs.NavigateTab(tabID, "https://b.example"))
	msg = readMessage(t, conn)
	assert.Equal(t, string(tab.EventNavigated), msg.Type)
	assert.Equal(t, "https://b.example", msg.Tab.URL)

	require.True(t, tabs.CloseTab(tabID))
	msg = readMessage(t, conn)
	assert.Equal(t, string(tab.EventClosed), msg.Type)
	assert.Nil(t, msg.Tab)
	assert.Empty(t, msg.ActiveTabID)
}

func TestPingAndUnknownMessages(t *testing.T) {
	_, _, _, url := setupHub(t)
	conn := dial(t, url)
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(Message{Type: TypePing}))
	assert.Equal(t, TypePong, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Message{Type: "bogus"}))
	msg := readMessage(t, conn)
	assert.Equal(t, TypeError, msg.Type)
	assert.Equal(t, "unknown message type", msg.Message)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, TypeError, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Message{Type: TypeSnapshot}))
	assert.Equal(t, TypeSnapshot, readMessage(t, conn).Type)
}

func TestClientAccounting(t *testing.T) {
	hub, _, metrics, url := setupHub(t)

	conn := dial(t, url)
	readMessage(t, conn)
	assert.Equal(t, 1, hub.Clients())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StreamClients))

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 5*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.StreamClients) == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestCloseDisconnectsClients(t *testing.T) {
	hub, _, _, url := setupHub(t)
	conn := dial(t, url)
	readMessage(t, conn)

	hub.Close()
	assert.Equal(t, 0, hub.Clients())

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
