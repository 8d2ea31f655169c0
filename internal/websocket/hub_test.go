package websocket_test

import (
	"testing"
	"time"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient 建测试客户端
func newTestClient(id, userID string, hub *websocket.Hub) *websocket.Client {
	return &websocket.Client{
		ID:     id,
		UserID: userID,
		Hub:    hub,
		Send:   make(chan []byte, 4),
	}
}

// TestHubRegisterUnregister 测试注册与注销
func TestHubRegisterUnregister(t *testing.T) {
	hub := websocket.NewHub()
	go hub.Run()

	client := newTestClient("client-1", "employe-1", hub)
	hub.Register <- client
	time.Sleep(50 * time.Millisecond)

	assert.True(t, hub.HasUser("employe-1"))
	assert.Equal(t, 1, hub.GetClientCount())

	hub.Unregister <- client
	time.Sleep(50 * time.Millisecond)

	assert.False(t, hub.HasUser("employe-1"))
	assert.Equal(t, 0, hub.GetClientCount())
}

// TestHubBroadcastToUser 测试按用户定向投递
func TestHubBroadcastToUser(t *testing.T) {
	hub := websocket.NewHub()
	go hub.Run()

	// 同一用户两个连接,另一用户一个连接
	c1 := newTestClient("client-1", "employe-1", hub)
	c2 := newTestClient("client-2", "employe-1", hub)
	c3 := newTestClient("client-3", "employe-2", hub)
	for _, c := range []*websocket.Client{c1, c2, c3} {
		hub.Register <- c
	}
	time.Sleep(50 * time.Millisecond)

	hub.BroadcastToUser("employe-1", []byte("bonjour"))

	for _, c := range []*websocket.Client{c1, c2} {
		select {
		case msg := <-c.Send:
			assert.Equal(t, "bonjour", string(msg))
		case <-time.After(time.Second):
			t.Fatalf("client %s did not receive message", c.ID)
		}
	}

	select {
	case msg := <-c3.Send:
		t.Fatalf("unexpected message for other user: %s", msg)
	default:
	}
}

// TestHubBroadcastToUserSlowClient 测试缓冲满的连接被断开
func TestHubBroadcastToUserSlowClient(t *testing.T) {
	hub := websocket.NewHub()
	go hub.Run()

	slow := &websocket.Client{
		ID:     "client-slow",
		UserID: "employe-1",
		Hub:    hub,
		Send:   make(chan []byte, 1),
	}
	hub.Register <- slow
	time.Sleep(50 * time.Millisecond)

	// 第一条填满缓冲,第二条触发断开
	hub.BroadcastToUser("employe-1", []byte("un"))
	hub.BroadcastToUser("employe-1", []byte("deux"))

	assert.False(t, hub.HasUser("employe-1"))
	assert.Equal(t, 0, hub.GetClientCount())

	// Send 已关闭,缓冲内消息仍可取出
	msg, ok := <-slow.Send
	require.True(t, ok)
	assert.Equal(t, "un", string(msg))
	_, ok = <-slow.Send
	assert.False(t, ok)
}

// TestHubBroadcastAll 测试全员广播
func TestHubBroadcastAll(t *testing.T) {
	hub := websocket.NewHub()
	go hub.Run()

	c1 := newTestClient("client-1", "employe-1", hub)
	c2 := newTestClient("client-2", "employe-2", hub)
	hub.Register <- c1
	hub.Register <- c2
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast <- []byte("annonce")

	for _, c := range []*websocket.Client{c1, c2} {
		select {
		case msg := <-c.Send:
			assert.Equal(t, "annonce", string(msg))
		case <-time.After(time.Second):
			t.Fatalf("client %s did not receive broadcast", c.ID)
		}
	}
}
